package tildes

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
	"tildes-client/lib/textutil"
)

const (
	op_create_post          = "create-post"
	op_create_post_fallback = "create-post-fallback"
)

// NewPost is a topic about to be submitted to Group (ex. "~comp").
type NewPost struct {
	Group    string
	Title    string
	Link     string
	Markdown string
	Tags     []string
}

// CreatePostResult is the outcome of CreatePost, it is never
// OutcomeNeedsFallback.
type CreatePostResult struct {
	Outcome Outcome
	// PostId is set when Outcome is OutcomeSucceeded.
	PostId string
	// RetryAfter is set when Outcome is OutcomeRateLimited.
	RetryAfter time.Duration
	// Err is set when Outcome is OutcomeFailed.
	Err error
}

// CreatePost submits a new topic and finds out the id it was created with.
//
// Rate limiting is returned to the caller as is, CreatePost never retries
// the submission itself.
func (c *Client) CreatePost(ctx context.Context, post NewPost) CreatePostResult {
	form := url.Values{}
	form.Set("title", post.Title)
	form.Set("link", post.Link)
	form.Set("markdown", post.Markdown)
	form.Set("tags", strings.Join(post.Tags, ","))

	res, err := c.exchange(ctx, request{
		op:            op_create_post,
		method:        http.MethodPost,
		path:          joinPath(post.Group, "topics"),
		referer:       c.absolute(joinPath(post.Group)),
		form:          form,
		authenticated: true,
		ajax:          true,
	})
	if err != nil {
		return CreatePostResult{Outcome: OutcomeFailed, Err: err}
	}

	r := resolveCreatePost(op_create_post, res, post.Group, c.clock.Now())
	if r.outcome == OutcomeNeedsFallback {
		c.tel.ReportDebug(op_create_post_fallback, post.Group, post.Title)
		r = c.confirmPost(ctx, post)
	}

	switch r.outcome {
	case OutcomeSucceeded:
		return CreatePostResult{Outcome: OutcomeSucceeded, PostId: r.postId}
	case OutcomeRateLimited:
		return CreatePostResult{Outcome: OutcomeRateLimited, RetryAfter: r.retryAfter}
	default:
		c.tel.ReportWarning(op_create_post, r.err, post.Group)
		return CreatePostResult{Outcome: OutcomeFailed, Err: r.err}
	}
}

// confirmPost looks for the post among the newest topics of its group, the
// newest topic of the user must carry the submitted title.
func (c *Client) confirmPost(ctx context.Context, post NewPost) resolution {
	failed := resolution{outcome: OutcomeFailed, err: ErrCreatePostUnconfirmed}

	status, doc, err := c.fetchDocument(
		ctx,
		op_create_post_fallback,
		FeedQuery{Group: post.Group, Order: FeedOrderNew}.Path(),
		c.origin,
	)
	if err != nil {
		failed.err = err
		return failed
	}
	if status != http.StatusOK {
		return failed
	}

	id, title, ok := c.extract.myLatestTopic(doc.Selection)
	if !ok || textutil.NormalizeTitle(title) != textutil.NormalizeTitle(post.Title) {
		return failed
	}
	return resolution{outcome: OutcomeSucceeded, postId: id}
}
