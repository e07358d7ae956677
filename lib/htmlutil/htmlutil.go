package htmlutil

import (
	"bytes"
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
)

func GetText(node *xhtml.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *xhtml.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == xhtml.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

type Anchor struct {
	Name string
	Href string
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

func cleanText(text string) string {
	text = removeNonPrintable(text)
	text = strings.Trim(text, " \t\n")
	return innerWhitespace.ReplaceAllString(text, " ")
}

// GetAnchors returns the text and href of every node in sel, anchors with
// an unparsable href are skipped.
func GetAnchors(sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}

		link, err := url.Parse(href)
		if err != nil {
			continue
		}

		anchors = append(anchors, Anchor{
			Name: cleanText(GetText(n)),
			Href: link.String(),
		})
	}
	return anchors
}

var stripPolicy = bluemonday.StripTagsPolicy().AddSpaceWhenStrippingTag(true)

// PlainText renders a raw html fragment as a single line of plain text, it
// is meant for terminals and e-mail, not for faithful rendering.
func PlainText(fragment string) string {
	stripped := stripPolicy.Sanitize(fragment)
	return cleanText(html.UnescapeString(stripped))
}
