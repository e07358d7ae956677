package tildes

import "regexp"

// MarkupRevision identifies the revision of the tildes.net markup that the
// selectors in this file were written against. Markup drift should only
// require changes to this file.
const MarkupRevision = "2024-06"

// session
const (
	selTokenMeta       = `meta[name="csrftoken"]`
	selTokenInput      = `input[name="csrf_token"]`
	selLoggedInUser    = ".logged-in-user-info .logged-in-user-username"
	selTwoFactorPrompt = `[data-ic-post-to="/login_two_factor"]`
)

// feed listing
const (
	selFeedEmpty       = ".empty-title"
	selFeedFilter      = ".topic-listing-filter"
	feedFilteredMarker = "View unfiltered list"
	selFeedList        = "ol.topic-listing"
	selFeedItem        = ".topic"
	selFeedItemMine    = ".is-topic-mine"

	selTopicArticle      = "article"
	selTopicTitle        = ".topic-title"
	selTopicTitleLink    = ".topic-title a"
	selTopicGroup        = ".topic-group"
	selTopicTags         = ".label-topic-tag a"
	selTopicContentType  = ".topic-content-type"
	selTopicComments     = ".topic-info-comments a"
	selTopicNewComments  = ".topic-info-comments-new"
	selTopicSource       = ".topic-info-source"
	selTopicSourceUser   = ".topic-info-source .link-user"
	selTopicTime         = ".time-responsive"
	selTopicVotes        = ".topic-voting-votes"
	attrTopicId          = "id"
	attrDatetime         = "datetime"
	attrHref             = "href"
	attrDeleteFromAction = "data-ic-delete-from"
)

var topicIdRegex = regexp.MustCompile(`topic-(.+)`)

// topic detail
const (
	selPostRoot          = ".topic-full"
	selPostTitle         = "header > h1"
	selPostTags          = ".topic-full-tags > a"
	selPostLink          = ".topic-full-link > a"
	selPostCommentsCount = ".topic-comments-header > h2"
	selPostAuthor        = ".topic-full-byline > .link-user"
	selPostBody          = ".topic-full-text"
	selCommentTree       = ".comment-tree"

	automaticSource = "Automatically posted"
)

// comments
const (
	selCommentTreeItem    = ".comment-tree-item"
	selCommentTreeReplies = ".comment-tree-replies"

	selCommentArticle     = "article"
	attrCommentId         = "data-comment-id36"
	attrCommentReplies    = "data-comment-replies"
	attrCommentDepth      = "data-comment-depth"
	classCommentNew       = "is-comment-new"
	classCommentExemplary = "is-comment-exemplary"
	classCommentCollapsed = "is-comment-collapsed"
	classCommentRemoved   = "is-comment-removed"
	classCommentDeleted   = "is-comment-deleted"

	selCommentItself         = ".comment-itself"
	selCommentExemplaryLabel = ".comment-labels .label-comment-exemplary"
	selCommentNavLink        = ".comment-nav-link"
	selCommentText           = ".comment-text"
	selCommentAuthor         = ".comment-header > .link-user"
	selCommentPosted         = ".comment-posted-time"
	selCommentEdited         = ".comment-edited-time > .time-responsive"
	selCommentVotes          = ".comment-votes"
	selCommentVoteButton     = ".btn-post"
)

var commentLinkRegex = regexp.MustCompile(`(~[a-zA-Z\.\-_]+)/([a-zA-Z0-9]+)`)

// notifications
const (
	selNotificationItem    = ".post-listing-notifications li"
	selNotificationHeading = ".heading-notification"
)

// user pages
const (
	selUserSidebarValues = "#sidebar dd"
	selUserPostList      = "ol.post-listing"
	selUserTopic         = ".topic"
	selUserComment       = ".comment"
	selUserCommentHead   = ".heading-post-listing"
)

// groups
const (
	selGroupList            = "ol.group-list"
	selGroupSubscribed      = ".group-list-item-subscribed"
	selGroupNotSubscribed   = ".group-list-item-not-subscribed"
	selGroupName            = ".link-group"
	selGroupDescription     = ".group-list-description"
	selGroupActivity        = ".group-list-activity"
	groupSubscriptionAction = "subscribe"
)

// deleteFromSelector matches the affordance that undoes `action` on the
// entity, its presence means the action is currently applied.
func deleteFromSelector(kind, id, action string) string {
	return `[` + attrDeleteFromAction + `$="/api/web/` + kind + `/` + id + `/` + action + `"]`
}
