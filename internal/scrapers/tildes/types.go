package tildes

import (
	"time"
)

// FeedItem is a topic as it appears in a listing.
type FeedItem struct {
	Id    string
	Title string
	// Link is the external link of a link topic, it is empty for text
	// topics whose title points back at the topic itself.
	Link        string
	Group       string
	Tags        []string
	ContentType string
	Comments    int
	NewComments int
	// Source is the author's username when IsUserSource, else the name of
	// the external source (ex. a website or "Automatically posted").
	Source       string
	IsUserSource bool
	Votes        int
	IsVoted      bool
	IsBookmarked bool
	IsIgnored    bool
	// Date is the zero time when the listing carries no timestamp.
	Date time.Time
}

// Ref returns the reference used to act on the topic.
func (f FeedItem) Ref() TopicRef {
	return TopicRef{Group: f.Group, Id: f.Id}
}

// FeedPage is a single page of a topic listing.
type FeedPage struct {
	Items []FeedItem
	// Failures holds one error per listing item that could not be extracted.
	Failures []error
	// IsFiltered is nil when the listing does not say whether it is filtered.
	IsFiltered   *bool
	EmptyMessage string
}

// NextAfter returns the value of the `after` parameter that fetches the
// page after this one.
func (p FeedPage) NextAfter() (string, bool) {
	if len(p.Items) == 0 {
		return "", false
	}
	return p.Items[len(p.Items)-1].Id, true
}

// Post is a topic's full page, Comments of the embedded FeedItem is the
// total comment count shown in the comment header.
type Post struct {
	FeedItem
	// Body is the raw html of the topic text, empty for link topics.
	Body string
}

// PostPage is everything a single topic fetch produces.
type PostPage struct {
	Post     Post
	Comments CommentTree
}

type RemovalReason int

const (
	RemovalNone RemovalReason = iota
	// RemovalAdmin is a comment removed by the site's administrators.
	RemovalAdmin
	// RemovalUser is a comment deleted by its author.
	RemovalUser
)

func (r RemovalReason) String() string {
	switch r {
	case RemovalAdmin:
		return "admin"
	case RemovalUser:
		return "user"
	default:
		return "none"
	}
}

// BasicComment is the data that can be derived from a single comment node
// without knowing its place in a tree.
type BasicComment struct {
	Id string
	// RepliesCount is the number of direct replies as declared by the server.
	RepliesCount int
	// Depth is the depth as declared by the server.
	Depth         int
	IsRemoved     bool
	RemovalReason RemovalReason
	// Link is the canonical link of the comment.
	Link   string
	Group  string
	PostId string
	// Body is the raw html of the comment, it may be a removal placeholder.
	Body               string
	User               string
	Created            time.Time
	Edited             time.Time
	Votes              int
	IsVoted            bool
	IsBookmarked       bool
	IsAlreadyCollapsed bool
	IsExemplary        bool
	IsNew              bool
}

// Ref returns the reference used to act on the comment.
func (c BasicComment) Ref() CommentRef {
	return CommentRef{Group: c.Group, PostId: c.PostId, Id: c.Id}
}

// Comment is a BasicComment placed in a comment tree.
type Comment struct {
	BasicComment
	// TotalCount is 1 + the TotalCount of every direct child.
	TotalCount       int
	IsOriginalPoster bool
	IsCollapsed      bool
	// ParentId is empty for top level comments.
	ParentId     string
	ThreadRootId string
	// DepthOverride replaces Depth when the comment is displayed outside of
	// its tree.
	DepthOverride *int
}

// DisplayDepth is the depth the comment should be displayed at.
func (c Comment) DisplayDepth() int {
	if c.DepthOverride != nil {
		return *c.DepthOverride
	}
	return c.Depth
}

// CommentTree is the flattened result of building a comment tree, parents
// always come before their descendants.
type CommentTree struct {
	Comments []Comment
	// Failures holds one error per comment node that was dropped, along with
	// its subtree.
	Failures []error
}

// Notification is a comment reply or mention in the user's inbox.
type Notification struct {
	Id string
	// Heading is the raw html describing why the notification exists.
	Heading string
	Comment BasicComment
	IsRead  bool
}

// AsComment returns the notification's comment displayed at depth 0.
func (n Notification) AsComment() Comment {
	return standalone(n.Comment)
}

// UserPageComment is a comment listed on a user page.
type UserPageComment struct {
	// Heading is the raw html of the listing heading (topic title and group).
	Heading     string
	Comment     BasicComment
	IsCollapsed bool
}

// AsComment returns the comment displayed at depth 0.
func (u UserPageComment) AsComment() Comment {
	c := standalone(u.Comment)
	c.IsCollapsed = u.IsCollapsed
	return c
}

func standalone(basic BasicComment) Comment {
	return Materialize(basic, MaterializeOptions{
		TotalCount:    1,
		ThreadRootId:  basic.Id,
		DepthOverride: intPtr(0),
	})
}

func intPtr(v int) *int {
	return &v
}

type Group struct {
	Name         string
	Description  string
	Activity     string
	IsSubscribed bool
}

type UserBio struct {
	Username string
	// Registered is the join date exactly as shown on the page.
	Registered string
	// Bio is raw html, empty when the user has no bio.
	Bio string
}

type UserPage struct {
	Bio      *UserBio
	Topics   []FeedItem
	Comments []UserPageComment
	Failures []error
}

// TopicRef identifies a topic to act on.
type TopicRef struct {
	Group string
	Id    string
}

// CommentRef identifies a comment to act on, Group and PostId are only
// used to build the referer.
type CommentRef struct {
	Group  string
	PostId string
	Id     string
}
