package tildes

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"tildes-client/lib/htmlutil"
	"tildes-client/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// extractor turns documents into records, it holds nothing but the origin
// used to make links absolute.
type extractor struct {
	origin string
}

func newExtractor(origin string) extractor {
	return extractor{origin: strings.TrimSuffix(origin, "/")}
}

// absolute resolves a site relative href against the origin.
func (e extractor) absolute(href string) string {
	parsed, err := url.Parse(href)
	if err == nil && parsed.IsAbs() {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return e.origin + href
}

// collect extracts every node in sel, nodes that fail are recorded in the
// returned errors instead of aborting the whole listing.
func collect[T any](sel *goquery.Selection, extract func(*goquery.Selection) (T, error)) ([]T, []error) {
	var items []T
	var failures []error
	sel.Each(func(i int, s *goquery.Selection) {
		item, err := extract(s)
		if err != nil {
			failures = append(failures, fmt.Errorf("item %d: %w", i, err))
			return
		}
		items = append(items, item)
	})
	return items, failures
}

// selfOrFirst returns sel if it matches selector, else its first matching
// descendant.
func selfOrFirst(sel *goquery.Selection, selector string) *goquery.Selection {
	if sel.Is(selector) {
		return sel.First()
	}
	return sel.Find(selector).First()
}

func textOf(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

func htmlOf(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	inner, err := sel.First().Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(inner)
}

func numberOf(sel *goquery.Selection) int {
	return textutil.LeadingNumber(textOf(sel))
}

// timeOf reads an RFC 3339 datetime attribute, anything else is the zero time.
func timeOf(sel *goquery.Selection) time.Time {
	value := strings.TrimSpace(sel.AttrOr(attrDatetime, ""))
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func has(sel *goquery.Selection, selector string) bool {
	return sel.Find(selector).Length() > 0
}

func anchorNames(sel *goquery.Selection) []string {
	anchors := htmlutil.GetAnchors(sel)
	names := make([]string, 0, len(anchors))
	for _, a := range anchors {
		if a.Name == "" {
			continue
		}
		names = append(names, a.Name)
	}
	return names
}

// externalLink returns href if it points outside of the site.
func externalLink(href string) string {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil || !parsed.IsAbs() {
		return ""
	}
	return parsed.String()
}

func extractToken(doc *goquery.Selection) (string, bool) {
	token := strings.TrimSpace(doc.Find(selTokenMeta).First().AttrOr("content", ""))
	if token == "" {
		token = strings.TrimSpace(doc.Find(selTokenInput).First().AttrOr("value", ""))
	}
	return token, token != ""
}

func extractLoggedInUser(doc *goquery.Selection) (string, bool) {
	username := textOf(doc.Find(selLoggedInUser).First())
	return username, username != ""
}

func topicFlags(sel *goquery.Selection, id string) (voted, bookmarked, ignored bool) {
	return has(sel, deleteFromSelector("topics", id, "vote")),
		has(sel, deleteFromSelector("topics", id, "bookmark")),
		has(sel, deleteFromSelector("topics", id, "ignore"))
}

func topicId(sel *goquery.Selection) (string, bool) {
	match := topicIdRegex.FindStringSubmatch(sel.AttrOr(attrTopicId, ""))
	if len(match) < 2 || match[1] == "" {
		return "", false
	}
	return match[1], true
}

func (e extractor) feedItem(item *goquery.Selection, requestedGroup string) (FeedItem, error) {
	id, ok := topicId(selfOrFirst(item, selTopicArticle))
	if !ok {
		return FeedItem{}, &ExtractionError{Entity: "feed item", Field: "id"}
	}

	group := textOf(item.Find(selTopicGroup).First())
	if group == "" {
		group = requestedGroup
	}

	source := item.Find(selTopicSource).First()
	voted, bookmarked, ignored := topicFlags(item, id)

	return FeedItem{
		Id:           id,
		Title:        textOf(item.Find(selTopicTitle).First()),
		Link:         externalLink(item.Find(selTopicTitleLink).First().AttrOr(attrHref, "")),
		Group:        group,
		Tags:         anchorNames(item.Find(selTopicTags)),
		ContentType:  textOf(item.Find(selTopicContentType).First()),
		Comments:     numberOf(item.Find(selTopicComments).First()),
		NewComments:  numberOf(item.Find(selTopicNewComments).First()),
		Source:       textOf(source),
		IsUserSource: strings.TrimSpace(item.Find(selTopicSourceUser).First().AttrOr(attrHref, "")) != "",
		Votes:        numberOf(item.Find(selTopicVotes).First()),
		IsVoted:      voted,
		IsBookmarked: bookmarked,
		IsIgnored:    ignored,
		Date:         timeOf(item.Find(selTopicTime).First()),
	}, nil
}

func (e extractor) feedPage(doc *goquery.Selection, requestedGroup string) FeedPage {
	page := FeedPage{
		EmptyMessage: textOf(doc.Find(selFeedEmpty).First()),
	}

	filter := textOf(doc.Find(selFeedFilter).First())
	if filter != "" {
		filtered := strings.Contains(filter, feedFilteredMarker)
		page.IsFiltered = &filtered
	}

	page.Items, page.Failures = collect(
		doc.Find(selFeedList).Find(selFeedItem),
		func(s *goquery.Selection) (FeedItem, error) {
			return e.feedItem(s, requestedGroup)
		},
	)
	return page
}

// myLatestTopic finds the first topic in a listing authored by the logged
// in user.
func (e extractor) myLatestTopic(doc *goquery.Selection) (id, title string, ok bool) {
	mine := doc.Find(selFeedList).Find(selFeedItemMine).First()
	if mine.Length() == 0 {
		return "", "", false
	}
	id, ok = topicId(selfOrFirst(mine, selTopicArticle))
	if !ok {
		return "", "", false
	}
	return id, textOf(mine.Find(selTopicTitle).First()), true
}

func (e extractor) post(doc *goquery.Selection, group, id string) (Post, error) {
	root := doc.Find(selPostRoot).First()
	if root.Length() == 0 {
		return Post{}, &ExtractionError{Entity: "post", Field: selPostRoot}
	}

	source := textOf(root.Find(selPostAuthor).First())
	isUserSource := source != ""
	if !isUserSource {
		source = automaticSource
	}
	voted, bookmarked, ignored := topicFlags(root, id)

	return Post{
		FeedItem: FeedItem{
			Id:           id,
			Title:        textOf(root.Find(selPostTitle).First()),
			Link:         externalLink(root.Find(selPostLink).First().AttrOr(attrHref, "")),
			Group:        group,
			Tags:         anchorNames(root.Find(selPostTags)),
			Comments:     numberOf(doc.Find(selPostCommentsCount).First()),
			Source:       source,
			IsUserSource: isUserSource,
			Votes:        numberOf(root.Find(selTopicVotes).First()),
			IsVoted:      voted,
			IsBookmarked: bookmarked,
			IsIgnored:    ignored,
			Date:         timeOf(root.Find(selTopicTime).First()),
		},
		Body: htmlOf(root.Find(selPostBody)),
	}, nil
}

func (e extractor) notification(item *goquery.Selection, unreadOnly bool) (Notification, error) {
	heading := item.Find(selNotificationHeading).First()
	if heading.Length() == 0 {
		return Notification{}, &ExtractionError{Entity: "notification", Field: "heading"}
	}
	article := item.Find(selCommentArticle).First()
	if article.Length() == 0 {
		return Notification{}, &ExtractionError{Entity: "notification", Field: "article"}
	}
	comment, err := e.basicComment(article)
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		Id:      uuid.NewString(),
		Heading: htmlOf(heading),
		Comment: comment,
		IsRead:  !unreadOnly,
	}, nil
}

func (e extractor) notifications(doc *goquery.Selection, unreadOnly bool) ([]Notification, []error) {
	return collect(
		doc.Find(selNotificationItem),
		func(s *goquery.Selection) (Notification, error) {
			return e.notification(s, unreadOnly)
		},
	)
}

func (e extractor) group(item *goquery.Selection) (Group, error) {
	name := textOf(item.Find(selGroupName).First())
	if name == "" {
		return Group{}, &ExtractionError{Entity: "group", Field: "name"}
	}
	return Group{
		Name:         name,
		Description:  textOf(item.Find(selGroupDescription).First()),
		Activity:     textutil.CollapseWhitespace(textOf(item.Find(selGroupActivity).First())),
		IsSubscribed: item.Is(selGroupSubscribed),
	}, nil
}

func (e extractor) groups(doc *goquery.Selection) ([]Group, []error) {
	return collect(
		doc.Find(selGroupList).Find(selGroupSubscribed+", "+selGroupNotSubscribed),
		e.group,
	)
}

func (e extractor) userPageComment(item *goquery.Selection) (UserPageComment, error) {
	heading := item.Parent().Find(selUserCommentHead).First()
	if heading.Length() == 0 {
		return UserPageComment{}, &ExtractionError{Entity: "user page comment", Field: "heading"}
	}
	comment, err := e.basicComment(item)
	if err != nil {
		return UserPageComment{}, err
	}
	return UserPageComment{
		Heading: htmlOf(heading),
		Comment: comment,
	}, nil
}

func (e extractor) userPage(doc *goquery.Selection, username string) UserPage {
	var page UserPage

	values := doc.Find(selUserSidebarValues)
	if values.Length() > 0 {
		page.Bio = &UserBio{
			Username:   username,
			Registered: textOf(values.Eq(0)),
		}
		if values.Length() > 1 {
			page.Bio.Bio = htmlOf(values.Eq(1))
		}
	}

	list := doc.Find(selUserPostList)
	topics, topicFailures := collect(
		list.Find(selUserTopic),
		func(s *goquery.Selection) (FeedItem, error) {
			return e.feedItem(s, "")
		},
	)
	comments, commentFailures := collect(list.Find(selUserComment), e.userPageComment)

	page.Topics = topics
	page.Comments = comments
	page.Failures = append(topicFailures, commentFailures...)
	return page
}
