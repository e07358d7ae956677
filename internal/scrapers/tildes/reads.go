package tildes

import (
	"context"
	"net/http"
)

const (
	op_load_feed          = "load-feed"
	op_load_post          = "load-post"
	op_load_notifications = "load-notifications"
	op_load_groups        = "load-groups"
	op_load_user_page     = "load-user-page"
	op_current_user       = "current-user"
)

const groupsCacheKey = "groups"

// LoadFeed fetches a single page of a topic listing. A listing that cannot
// be served is an empty page.
func (c *Client) LoadFeed(ctx context.Context, query FeedQuery) (FeedPage, error) {
	status, doc, err := c.fetchDocument(ctx, op_load_feed, query.Path(), c.origin)
	if err != nil {
		return FeedPage{}, err
	}
	if status != http.StatusOK {
		return FeedPage{}, nil
	}

	page := c.extract.feedPage(doc.Selection, query.Group)
	c.reportFailures(op_load_feed, page.Failures)
	return page, nil
}

// LoadPost fetches a topic with its comment tree.
func (c *Client) LoadPost(ctx context.Context, query PostQuery) (PostPage, error) {
	status, doc, err := c.fetchDocument(
		ctx,
		op_load_post,
		query.Path(),
		c.absolute(joinPath(query.Group)),
	)
	if err != nil {
		return PostPage{}, err
	}
	if status != http.StatusOK {
		return PostPage{}, nil
	}

	post, err := c.extract.post(doc.Selection, query.Group, query.Id)
	if err != nil {
		c.tel.ReportWarning(op_load_post, err, query.Group, query.Id)
		return PostPage{}, err
	}

	opts := TreeOptions{RespectServerCollapse: c.respectServerCollapse}
	if post.IsUserSource {
		opts.OriginalPoster = post.Source
	}
	tree := c.extract.commentTree(doc.Find(selCommentTree).First(), opts)
	c.reportFailures(op_load_post, tree.Failures)

	return PostPage{Post: post, Comments: tree}, nil
}

// LoadNotifications fetches the user's notifications, only the unread ones
// when unreadOnly is set.
func (c *Client) LoadNotifications(ctx context.Context, unreadOnly bool) ([]Notification, error) {
	status, doc, err := c.fetchDocument(
		ctx,
		op_load_notifications,
		NotificationsQuery{UnreadOnly: unreadOnly}.Path(),
		c.origin,
	)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, nil
	}

	notifications, failures := c.extract.notifications(doc.Selection, unreadOnly)
	c.reportFailures(op_load_notifications, failures)
	return notifications, nil
}

// LoadGroups fetches every group along with the user's subscription state.
func (c *Client) LoadGroups(ctx context.Context) ([]Group, error) {
	if c.groups != nil {
		cached, ok := c.groups.Get(groupsCacheKey)
		if ok {
			c.tel.ReportCount(op_load_groups+".cache-hit", 1)
			return cached, nil
		}
	}

	status, doc, err := c.fetchDocument(ctx, op_load_groups, "/groups", c.origin)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, nil
	}

	groups, failures := c.extract.groups(doc.Selection)
	c.reportFailures(op_load_groups, failures)

	if c.groups != nil {
		c.groups.Add(groupsCacheKey, groups)
	}
	return groups, nil
}

func (c *Client) invalidateGroups() {
	if c.groups != nil {
		c.groups.Remove(groupsCacheKey)
	}
}

// LoadUserPage fetches a user's bio along with a page of what they posted.
func (c *Client) LoadUserPage(ctx context.Context, query UserPageQuery) (UserPage, error) {
	status, doc, err := c.fetchDocument(ctx, op_load_user_page, query.Path(), c.origin)
	if err != nil {
		return UserPage{}, err
	}
	if status != http.StatusOK {
		return UserPage{}, nil
	}

	page := c.extract.userPage(doc.Selection, query.Username)
	c.reportFailures(op_load_user_page, page.Failures)
	return page, nil
}

// CurrentUser returns the username of the logged in user, ok is false when
// the session is anonymous.
func (c *Client) CurrentUser(ctx context.Context) (username string, ok bool, err error) {
	status, doc, err := c.fetchDocument(ctx, op_current_user, "/", c.origin)
	if err != nil {
		return "", false, err
	}
	if status != http.StatusOK {
		return "", false, nil
	}
	username, ok = extractLoggedInUser(doc.Selection)
	return username, ok, nil
}
