package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<ul class="tags">
			<li><a href="/~tech?tag=linux">  linux
			</a></li>
			<li><a href="/~tech?tag=open_source">open source</a></li>
		</ul>
	`))
	require.NoError(t, err)

	anchors := GetAnchors(doc.Find(".tags a"))
	require.Equal(t, []Anchor{
		{Name: "linux", Href: "/~tech?tag=linux"},
		{Name: "open source", Href: "/~tech?tag=open_source"},
	}, anchors)
}

func TestPlainText(t *testing.T) {
	require.Equal(
		t,
		"Hello world & friends second",
		PlainText("<p>Hello <b>world</b> &amp; friends</p><p>second</p>"),
	)
	require.Equal(t, "", PlainText(""))
}
