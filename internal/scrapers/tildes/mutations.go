package tildes

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	op_topic_action   = "topic-action"
	op_comment_action = "comment-action"
	op_edit_post      = "edit-post"
	op_delete_post    = "delete-post"
	op_reply_post     = "reply-post"
	op_reply_comment  = "reply-comment"
	op_edit_comment   = "edit-comment"
	op_delete_comment = "delete-comment"
	op_group_action   = "group-action"
)

// mutate sends an authenticated partial request and applies the status rule.
func (c *Client) mutate(ctx context.Context, req request) (response, error) {
	req.authenticated = true
	req.ajax = true

	res, err := c.exchange(ctx, req)
	if err != nil {
		return response{}, err
	}
	if err := resolveStatus(req.op, res); err != nil {
		c.tel.ReportWarning(req.op, err, req.path)
		return res, err
	}
	return res, nil
}

func markdownForm(markdown string) url.Values {
	form := url.Values{}
	form.Set("markdown", markdown)
	return form
}

// ---- topics

func (c *Client) topicAction(ctx context.Context, topic TopicRef, action, method string) error {
	_, err := c.mutate(ctx, request{
		op:      op_topic_action,
		method:  method,
		path:    joinPath("api", "web", "topics", topic.Id, action),
		referer: c.topicReferer(topic.Group, topic.Id),
	})
	return err
}

func (c *Client) VoteTopic(ctx context.Context, topic TopicRef) error {
	return c.topicAction(ctx, topic, "vote", http.MethodPut)
}

func (c *Client) UnvoteTopic(ctx context.Context, topic TopicRef) error {
	return c.topicAction(ctx, topic, "vote", http.MethodDelete)
}

func (c *Client) BookmarkTopic(ctx context.Context, topic TopicRef) error {
	return c.topicAction(ctx, topic, "bookmark", http.MethodPut)
}

func (c *Client) UnbookmarkTopic(ctx context.Context, topic TopicRef) error {
	return c.topicAction(ctx, topic, "bookmark", http.MethodDelete)
}

func (c *Client) IgnoreTopic(ctx context.Context, topic TopicRef) error {
	return c.topicAction(ctx, topic, "ignore", http.MethodPut)
}

func (c *Client) UnignoreTopic(ctx context.Context, topic TopicRef) error {
	return c.topicAction(ctx, topic, "ignore", http.MethodDelete)
}

// EditPost replaces the text of a topic and returns the html the server
// rendered for it.
func (c *Client) EditPost(ctx context.Context, topic TopicRef, markdown string) (string, error) {
	res, err := c.mutate(ctx, request{
		op:      op_edit_post,
		method:  http.MethodPatch,
		path:    joinPath("api", "web", "topics", topic.Id),
		referer: c.origin,
		form:    markdownForm(markdown),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(res.body)), nil
}

func (c *Client) DeletePost(ctx context.Context, topic TopicRef) error {
	_, err := c.mutate(ctx, request{
		op:      op_delete_post,
		method:  http.MethodDelete,
		path:    joinPath("api", "web", "topics", topic.Id),
		referer: c.origin,
	})
	return err
}

// ReplyToPost posts a top level comment. The returned comment is nil when
// the server's fragment could not be read, the reply was still posted.
func (c *Client) ReplyToPost(ctx context.Context, topic TopicRef, markdown string) (*BasicComment, error) {
	res, err := c.mutate(ctx, request{
		op:      op_reply_post,
		method:  http.MethodPost,
		path:    joinPath("api", "web", "topics", topic.Id, "comments"),
		referer: c.topicReferer(topic.Group, topic.Id),
		form:    markdownForm(markdown),
	})
	if err != nil {
		return nil, err
	}
	return c.fragmentComment(op_reply_post, res.body), nil
}

// ---- comments

func (c *Client) commentAction(ctx context.Context, comment CommentRef, action, method string) error {
	_, err := c.mutate(ctx, request{
		op:             op_comment_action,
		method:         http.MethodPost,
		methodOverride: method,
		path:           joinPath("api", "web", "comments", comment.Id, action),
		referer:        c.topicReferer(comment.Group, comment.PostId),
	})
	return err
}

func (c *Client) VoteComment(ctx context.Context, comment CommentRef) error {
	return c.commentAction(ctx, comment, "vote", http.MethodPut)
}

func (c *Client) UnvoteComment(ctx context.Context, comment CommentRef) error {
	return c.commentAction(ctx, comment, "vote", http.MethodDelete)
}

func (c *Client) BookmarkComment(ctx context.Context, comment CommentRef) error {
	return c.commentAction(ctx, comment, "bookmark", http.MethodPut)
}

func (c *Client) UnbookmarkComment(ctx context.Context, comment CommentRef) error {
	return c.commentAction(ctx, comment, "bookmark", http.MethodDelete)
}

// MarkCommentRead clears the comment's unread notification.
func (c *Client) MarkCommentRead(ctx context.Context, comment CommentRef) error {
	return c.commentAction(ctx, comment, "mark_read", http.MethodPut)
}

// ReplyToComment behaves like ReplyToPost for a nested reply.
func (c *Client) ReplyToComment(ctx context.Context, comment CommentRef, markdown string) (*BasicComment, error) {
	res, err := c.mutate(ctx, request{
		op:      op_reply_comment,
		method:  http.MethodPost,
		path:    joinPath("api", "web", "comments", comment.Id, "replies"),
		referer: c.topicReferer(comment.Group, comment.PostId),
		form:    markdownForm(markdown),
	})
	if err != nil {
		return nil, err
	}
	return c.fragmentComment(op_reply_comment, res.body), nil
}

// EditedComment is what the server renders for an edited comment.
type EditedComment struct {
	// Body is the raw html of the new comment text.
	Body string
	// Comment is nil when the fragment is not a whole comment.
	Comment *BasicComment
}

func (c *Client) EditComment(ctx context.Context, comment CommentRef, markdown string) (EditedComment, error) {
	res, err := c.mutate(ctx, request{
		op:      op_edit_comment,
		method:  http.MethodPatch,
		path:    joinPath("api", "web", "comments", comment.Id),
		referer: c.origin,
		form:    markdownForm(markdown),
	})
	if err != nil {
		return EditedComment{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.body))
	if err != nil {
		c.tel.ReportWarning(op_edit_comment, err)
		return EditedComment{}, nil
	}
	edited := EditedComment{
		Body: htmlOf(doc.Find(selCommentItself + " " + selCommentText).First()),
	}
	basic, err := c.extract.basicComment(doc.Selection)
	if err == nil {
		edited.Comment = &basic
	}
	return edited, nil
}

func (c *Client) DeleteComment(ctx context.Context, comment CommentRef) error {
	_, err := c.mutate(ctx, request{
		op:      op_delete_comment,
		method:  http.MethodDelete,
		path:    joinPath("api", "web", "comments", comment.Id),
		referer: c.origin,
	})
	return err
}

// fragmentComment reads the first comment of a partial response.
func (c *Client) fragmentComment(op string, body []byte) *BasicComment {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		c.tel.ReportWarning(op, err)
		return nil
	}
	article := doc.Find(selCommentArticle).First()
	if article.Length() == 0 {
		return nil
	}
	comment, err := c.extract.basicComment(article)
	if err != nil {
		c.tel.ReportWarning(op, err)
		return nil
	}
	return &comment
}

// ---- groups

func (c *Client) groupAction(ctx context.Context, group, method string) error {
	_, err := c.mutate(ctx, request{
		op:      op_group_action,
		method:  method,
		path:    joinPath("api", "web", "group", strings.TrimPrefix(group, "~"), groupSubscriptionAction),
		referer: c.absolute(joinPath(group)),
	})
	if err == nil {
		c.invalidateGroups()
	}
	return err
}

// SubscribeGroup subscribes to a group given by its name (ex. "~comp").
func (c *Client) SubscribeGroup(ctx context.Context, group string) error {
	return c.groupAction(ctx, group, http.MethodPut)
}

func (c *Client) UnsubscribeGroup(ctx context.Context, group string) error {
	return c.groupAction(ctx, group, http.MethodDelete)
}
