package tildes

import (
	"strings"
	"tildes-client/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// basicComment extracts a comment from a comment tree item, a listing item
// or the comment's own article element.
func (e extractor) basicComment(node *goquery.Selection) (BasicComment, error) {
	article := selfOrFirst(node, selCommentArticle)
	if article.Length() == 0 {
		return BasicComment{}, &ExtractionError{Entity: "comment", Field: "article"}
	}
	id := strings.TrimSpace(article.AttrOr(attrCommentId, ""))
	if id == "" {
		return BasicComment{}, &ExtractionError{Entity: "comment", Field: attrCommentId}
	}

	itself := article.Find(selCommentItself).First()
	if itself.Length() == 0 {
		return BasicComment{}, &ExtractionError{Entity: "comment", Field: selCommentItself}
	}

	// the nav links also point at the parent comment, only the one ending
	// with this comment's id is its canonical link
	link := ""
	itself.Find(selCommentNavLink).Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr(attrHref, ""))
		if strings.HasSuffix(href, id) {
			link = href
		}
	})
	match := commentLinkRegex.FindStringSubmatch(link)
	if match == nil {
		return BasicComment{}, &ExtractionError{Entity: "comment", Field: "canonical link"}
	}

	collapsed := selfOrFirst(article, "."+classCommentCollapsed)
	isAlreadyCollapsed := collapsed.Length() > 0 &&
		collapsed.AttrOr(attrCommentId, "") == id

	isRemoved := article.HasClass(classCommentRemoved) || has(itself, "."+classCommentRemoved)
	isDeleted := article.HasClass(classCommentDeleted) || has(itself, "."+classCommentDeleted)
	reason := RemovalNone
	switch {
	case isRemoved:
		reason = RemovalAdmin
	case isDeleted:
		reason = RemovalUser
	}

	votes, ok := textutil.FindNumber(textOf(itself.Find(selCommentVotes).First()))
	if !ok {
		votes = numberOf(itself.Find(selCommentVoteButton).First())
	}

	return BasicComment{
		Id:                 id,
		RepliesCount:       textutil.LeadingNumber(article.AttrOr(attrCommentReplies, "")),
		Depth:              textutil.LeadingNumber(article.AttrOr(attrCommentDepth, "")),
		IsRemoved:          isRemoved || isDeleted,
		RemovalReason:      reason,
		Link:               e.absolute(link),
		Group:              match[1],
		PostId:             match[2],
		Body:               htmlOf(itself.Find(selCommentText)),
		User:               textOf(itself.Find(selCommentAuthor).First()),
		Created:            timeOf(itself.Find(selCommentPosted).First()),
		Edited:             timeOf(itself.Find(selCommentEdited).First()),
		Votes:              votes,
		IsVoted:            has(itself, deleteFromSelector("comments", id, "vote")),
		IsBookmarked:       has(itself, deleteFromSelector("comments", id, "bookmark")),
		IsAlreadyCollapsed: isAlreadyCollapsed,
		IsExemplary:        article.HasClass(classCommentExemplary) || has(itself, selCommentExemplaryLabel),
		IsNew:              article.HasClass(classCommentNew),
	}, nil
}
