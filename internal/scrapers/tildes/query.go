package tildes

import (
	"fmt"
	"net/url"
	"strings"
)

type FeedOrder int

const (
	FeedOrderActivity FeedOrder = iota
	FeedOrderVotes
	FeedOrderComments
	FeedOrderNew
	FeedOrderAllActivity
)

var feedOrderNames = []string{"activity", "votes", "comments", "new", "all_activity"}

func (o FeedOrder) ApiName() string {
	if int(o) < 0 || int(o) >= len(feedOrderNames) {
		return feedOrderNames[FeedOrderActivity]
	}
	return feedOrderNames[o]
}

func (o FeedOrder) String() string {
	return o.ApiName()
}

// CanSelectPeriod is false for orders where the server ignores the period.
func (o FeedOrder) CanSelectPeriod() bool {
	return o != FeedOrderNew
}

func ParseFeedOrder(name string) (FeedOrder, error) {
	for i, n := range feedOrderNames {
		if n == name {
			return FeedOrder(i), nil
		}
	}
	return 0, fmt.Errorf("unknown feed order %q", name)
}

// FeedPeriod is the time window of a listing, FeedPeriodDefault leaves it to
// the server.
type FeedPeriod int

const (
	FeedPeriodDefault FeedPeriod = iota
	FeedPeriodHour
	FeedPeriodTwelveHours
	FeedPeriodDay
	FeedPeriodThreeDays
	FeedPeriodWeek
	FeedPeriodMonth
	FeedPeriodSixMonths
	FeedPeriodYear
	FeedPeriodAll
)

var feedPeriodNames = []string{"", "1h", "12h", "24h", "3d", "7d", "30d", "182d", "365d", "all"}

func (p FeedPeriod) ApiName() (string, bool) {
	if int(p) <= 0 || int(p) >= len(feedPeriodNames) {
		return "", false
	}
	return feedPeriodNames[p], true
}

func ParseFeedPeriod(name string) (FeedPeriod, error) {
	if name == "" || name == "default" {
		return FeedPeriodDefault, nil
	}
	for i, n := range feedPeriodNames {
		if i > 0 && n == name {
			return FeedPeriod(i), nil
		}
	}
	return 0, fmt.Errorf("unknown feed period %q", name)
}

type CommentOrder int

const (
	CommentOrderVotes CommentOrder = iota
	CommentOrderNewest
	CommentOrderOldest
	CommentOrderRelevance
)

var commentOrderNames = []string{"votes", "newest", "oldest", "relevance"}

func (o CommentOrder) ApiName() string {
	if int(o) < 0 || int(o) >= len(commentOrderNames) {
		return commentOrderNames[CommentOrderVotes]
	}
	return commentOrderNames[o]
}

func ParseCommentOrder(name string) (CommentOrder, error) {
	for i, n := range commentOrderNames {
		if n == name {
			return CommentOrder(i), nil
		}
	}
	return 0, fmt.Errorf("unknown comment order %q", name)
}

type UserPageType int

const (
	UserPageAll UserPageType = iota
	UserPageComments
	UserPageTopics
)

func (t UserPageType) ApiName() (string, bool) {
	switch t {
	case UserPageComments:
		return "comment", true
	case UserPageTopics:
		return "topic", true
	default:
		return "", false
	}
}

func ParseUserPageType(name string) (UserPageType, error) {
	switch name {
	case "", "all":
		return UserPageAll, nil
	case "comment", "comments":
		return UserPageComments, nil
	case "topic", "topics":
		return UserPageTopics, nil
	}
	return 0, fmt.Errorf("unknown user page type %q", name)
}

// joinPath escapes every segment and joins them into an absolute path.
func joinPath(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(escaped, "/")
}

type queryParams []string

func (q *queryParams) add(key, value string) {
	q.addEncoded(key, url.QueryEscape(value))
}

func (q *queryParams) addEncoded(key, encoded string) {
	*q = append(*q, url.QueryEscape(key)+"="+encoded)
}

func (q queryParams) encode() string {
	if len(q) == 0 {
		return ""
	}
	return "?" + strings.Join(q, "&")
}

const queryAllowed = "!$&'()*+,-./:;=?@_~"

func isQueryAllowed(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
		return true
	}
	return strings.IndexByte(queryAllowed, b) >= 0
}

// EncodeSearchQuery encodes search text for the `q` parameter: spaces become
// `+`, everything outside of the query character set is percent-encoded and
// `&` is escaped to `%26`.
func EncodeSearchQuery(text string) string {
	text = strings.ReplaceAll(text, " ", "+")

	var out strings.Builder
	for i := 0; i < len(text); i++ {
		b := text[i]
		if isQueryAllowed(b) {
			out.WriteByte(b)
			continue
		}
		fmt.Fprintf(&out, "%%%02X", b)
	}

	return strings.ReplaceAll(out.String(), "&", "%26")
}

// FeedQuery describes a topic listing, an empty Group is the front page.
type FeedQuery struct {
	Group      string
	Order      FeedOrder
	Period     FeedPeriod
	After      string
	Search     string
	Unfiltered bool
}

func (q FeedQuery) Path() string {
	var segments []string
	if q.Group != "" {
		segments = append(segments, q.Group)
	}
	if q.Search != "" {
		segments = append(segments, "search")
	}

	var params queryParams
	if q.Search != "" {
		params.addEncoded("q", EncodeSearchQuery(q.Search))
	}
	if q.After != "" {
		params.add("after", q.After)
	}
	params.add("order", q.Order.ApiName())
	if q.Order.CanSelectPeriod() {
		if name, ok := q.Period.ApiName(); ok {
			params.add("period", name)
		}
	}
	if q.Unfiltered {
		params.add("unfiltered", "true")
	}

	return joinPath(segments...) + params.encode()
}

// PostQuery describes a topic page and the order of its comments.
type PostQuery struct {
	Group string
	Id    string
	Order CommentOrder
}

func (q PostQuery) Path() string {
	var params queryParams
	params.add("comment_order", q.Order.ApiName())
	return joinPath(q.Group, q.Id) + params.encode()
}

type UserPageQuery struct {
	Username string
	Type     UserPageType
	After    string
}

func (q UserPageQuery) Path() string {
	var params queryParams
	if name, ok := q.Type.ApiName(); ok {
		params.add("type", name)
	}
	if q.After != "" {
		params.add("after", q.After)
	}
	return joinPath("user", q.Username) + params.encode()
}

type NotificationsQuery struct {
	UnreadOnly bool
}

func (q NotificationsQuery) Path() string {
	if q.UnreadOnly {
		return joinPath("notifications", "unread")
	}
	return joinPath("notifications")
}
