package tildes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
	"tildes-client/internal/components/chrono"
	"tildes-client/internal/components/telemetry"
	"tildes-client/lib/restyutil"

	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Form   url.Values
}

// fakeSite serves fixtures by method and path and records every request.
type fakeSite struct {
	t      *testing.T
	server *httptest.Server

	mutex    sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recordedRequest
}

func newFakeSite(t *testing.T) *fakeSite {
	site := &fakeSite{
		t:      t,
		routes: map[string]http.HandlerFunc{},
	}
	site.server = httptest.NewServer(site)
	t.Cleanup(site.server.Close)
	return site
}

func (s *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		s.t.Errorf("parse form: %v", err)
	}

	s.mutex.Lock()
	s.requests = append(s.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Form:   r.PostForm,
	})
	handler, ok := s.routes[r.Method+" "+r.URL.Path]
	s.mutex.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	handler(w, r)
}

func (s *fakeSite) handle(method, path string, handler http.HandlerFunc) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.routes[method+" "+path] = handler
}

func (s *fakeSite) fixture(method, path string, status int, fixture string) {
	body := readFixture(s.t, fixture)
	s.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		w.Write(body)
	})
}

func (s *fakeSite) status(method, path string, status int) {
	s.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func (s *fakeSite) recorded() []recordedRequest {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

func (s *fakeSite) count(method, path string) int {
	n := 0
	for _, r := range s.recorded() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *fakeSite) last() recordedRequest {
	requests := s.recorded()
	require.NotEmpty(s.t, requests)
	return requests[len(requests)-1]
}

func newTestClient(t *testing.T, site *fakeSite, opts ClientOptions) (*Client, *telemetry.Recorder) {
	tel := &telemetry.Recorder{}
	opts.BaseUrl = site.server.URL
	client, err := NewClient(
		opts,
		chrono.FixedImpl{Time: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
		tel,
	)
	require.NoError(t, err)
	return client, tel
}

func TestNewClientRejectsRelativeUrl(t *testing.T) {
	_, err := NewClient(
		ClientOptions{BaseUrl: "tildes.net"},
		chrono.FixedImpl{},
		&telemetry.Recorder{},
	)
	require.Error(t, err)
}

func TestLoadFeed(t *testing.T) {
	site := newFakeSite(t)
	site.fixture(http.MethodGet, "/~comp", http.StatusOK, "feed.html")
	client, tel := newTestClient(t, site, ClientOptions{})

	page, err := client.LoadFeed(context.Background(), FeedQuery{Group: "~comp", Order: FeedOrderVotes})
	require.NoError(t, err)
	require.Len(t, page.Items, 4)
	require.Len(t, page.Failures, 1)
	require.Len(t, tel.Reports(telemetry.KindWarning), 1)

	req := site.last()
	require.Equal(t, "order=votes", req.Query)
	require.Equal(t, site.server.URL, req.Header.Get(headerReferer))
	require.Empty(t, req.Header.Get(headerToken))
	require.Empty(t, req.Header.Get(headerAjax))

	token, ok := client.Session.Token()
	require.True(t, ok)
	require.Equal(t, "feed-token", token)
}

func TestLoadNonOkIsEmpty(t *testing.T) {
	site := newFakeSite(t)
	site.fixture(http.MethodGet, "/notifications/unread", http.StatusForbidden, "login.html")
	client, tel := newTestClient(t, site, ClientOptions{})

	notifications, err := client.LoadNotifications(context.Background(), true)
	require.NoError(t, err)
	require.Empty(t, notifications)
	require.NotEmpty(t, tel.Reports(telemetry.KindWarning))

	// the token of an error page is still harvested
	token, ok := client.Session.Token()
	require.True(t, ok)
	require.Equal(t, "login-token", token)

	page, err := client.LoadFeed(context.Background(), FeedQuery{Group: "~missing"})
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestLoadPost(t *testing.T) {
	site := newFakeSite(t)
	site.fixture(http.MethodGet, "/~comp/a1", http.StatusOK, "post.html")
	client, _ := newTestClient(t, site, ClientOptions{RespectServerCollapse: true})

	page, err := client.LoadPost(context.Background(), PostQuery{Group: "~comp", Id: "a1", Order: CommentOrderOldest})
	require.NoError(t, err)
	require.Equal(t, "First topic", page.Post.Title)
	require.Len(t, page.Comments.Comments, 5)
	require.Len(t, page.Comments.Failures, 1)

	root := page.Comments.Comments[0]
	require.True(t, root.IsOriginalPoster)
	require.Equal(t, 4, root.TotalCount)
	require.True(t, page.Comments.Comments[2].IsCollapsed)

	req := site.last()
	require.Equal(t, "comment_order=oldest", req.Query)
	require.Equal(t, site.server.URL+"/~comp", req.Header.Get(headerReferer))
}

func TestLoadPostWithoutTopic(t *testing.T) {
	site := newFakeSite(t)
	site.fixture(http.MethodGet, "/~comp/a1", http.StatusOK, "feed_empty.html")
	client, _ := newTestClient(t, site, ClientOptions{})

	_, err := client.LoadPost(context.Background(), PostQuery{Group: "~comp", Id: "a1"})
	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
}

func TestLoadNotificationsAndUserPage(t *testing.T) {
	site := newFakeSite(t)
	site.fixture(http.MethodGet, "/notifications", http.StatusOK, "notifications.html")
	site.fixture(http.MethodGet, "/user/bob", http.StatusOK, "user.html")
	client, _ := newTestClient(t, site, ClientOptions{})

	notifications, err := client.LoadNotifications(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	require.True(t, notifications[0].IsRead)

	page, err := client.LoadUserPage(context.Background(), UserPageQuery{Username: "bob", Type: UserPageComments})
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	require.Equal(t, "type=comment", site.last().Query)
}

func TestCurrentUser(t *testing.T) {
	site := newFakeSite(t)
	site.fixture(http.MethodGet, "/", http.StatusOK, "feed.html")
	client, _ := newTestClient(t, site, ClientOptions{})

	username, ok, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", username)

	site.fixture(http.MethodGet, "/", http.StatusOK, "feed_empty.html")
	_, ok, err = client.CurrentUser(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGroupCache(t *testing.T) {
	site := newFakeSite(t)
	site.fixture(http.MethodGet, "/groups", http.StatusOK, "groups.html")
	site.status(http.MethodPut, "/api/web/group/music/subscribe", http.StatusOK)
	client, _ := newTestClient(t, site, ClientOptions{GroupCacheTTL: time.Hour})

	groups, err := client.LoadGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 3)

	_, err = client.LoadGroups(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, site.count(http.MethodGet, "/groups"))

	err = client.SubscribeGroup(context.Background(), "~music")
	require.NoError(t, err)
	req := site.last()
	require.Equal(t, site.server.URL+"/~music", req.Header.Get(headerReferer))
	require.Equal(t, "true", req.Header.Get(headerAjax))

	_, err = client.LoadGroups(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, site.count(http.MethodGet, "/groups"))

	// a rejected change leaves the cached listing alone
	site.status(http.MethodDelete, "/api/web/group/comp/subscribe", http.StatusInternalServerError)
	err = client.UnsubscribeGroup(context.Background(), "~comp")
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, http.MethodDelete, site.last().Method)

	_, err = client.LoadGroups(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, site.count(http.MethodGet, "/groups"))
}

func TestMutationWithoutToken(t *testing.T) {
	site := newFakeSite(t)
	client, tel := newTestClient(t, site, ClientOptions{})

	err := client.VoteTopic(context.Background(), TopicRef{Group: "~comp", Id: "a1"})
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = client.ReplyToComment(context.Background(), CommentRef{Id: "c1"}, "hi")
	require.ErrorIs(t, err, ErrMissingToken)

	result := client.CreatePost(context.Background(), NewPost{Group: "~comp", Title: "x"})
	require.Equal(t, OutcomeFailed, result.Outcome)
	require.ErrorIs(t, result.Err, ErrMissingToken)

	require.Empty(t, site.recorded())
	require.NotEmpty(t, tel.Reports(telemetry.KindWarning))
}

func TestTopicActions(t *testing.T) {
	site := newFakeSite(t)
	client, _ := newTestClient(t, site, ClientOptions{})
	client.Session.SetToken("secret")

	testCases := []struct {
		name   string
		do     func(context.Context, TopicRef) error
		method string
		path   string
	}{
		{"vote", client.VoteTopic, http.MethodPut, "/api/web/topics/a1/vote"},
		{"unvote", client.UnvoteTopic, http.MethodDelete, "/api/web/topics/a1/vote"},
		{"bookmark", client.BookmarkTopic, http.MethodPut, "/api/web/topics/a1/bookmark"},
		{"unbookmark", client.UnbookmarkTopic, http.MethodDelete, "/api/web/topics/a1/bookmark"},
		{"ignore", client.IgnoreTopic, http.MethodPut, "/api/web/topics/a1/ignore"},
		{"unignore", client.UnignoreTopic, http.MethodDelete, "/api/web/topics/a1/ignore"},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			site.status(test.method, test.path, http.StatusOK)

			err := test.do(context.Background(), TopicRef{Group: "~comp", Id: "a1"})
			require.NoError(t, err)

			req := site.last()
			require.Equal(t, test.method, req.Method)
			require.Equal(t, test.path, req.Path)
			require.Equal(t, "secret", req.Header.Get(headerToken))
			require.Equal(t, "true", req.Header.Get(headerAjax))
			require.Equal(t, site.server.URL+"/~comp/a1", req.Header.Get(headerReferer))
		})
	}

	// without a group the front page is the referer
	site.status(http.MethodPut, "/api/web/topics/b2/vote", http.StatusOK)
	err := client.VoteTopic(context.Background(), TopicRef{Id: "b2"})
	require.NoError(t, err)
	require.Equal(t, site.server.URL, site.last().Header.Get(headerReferer))
}

func TestCommentActions(t *testing.T) {
	site := newFakeSite(t)
	client, _ := newTestClient(t, site, ClientOptions{})
	client.Session.SetToken("secret")

	testCases := []struct {
		name     string
		do       func(context.Context, CommentRef) error
		override string
		path     string
	}{
		{"vote", client.VoteComment, http.MethodPut, "/api/web/comments/c1/vote"},
		{"unvote", client.UnvoteComment, http.MethodDelete, "/api/web/comments/c1/vote"},
		{"bookmark", client.BookmarkComment, http.MethodPut, "/api/web/comments/c1/bookmark"},
		{"unbookmark", client.UnbookmarkComment, http.MethodDelete, "/api/web/comments/c1/bookmark"},
		{"mark read", client.MarkCommentRead, http.MethodPut, "/api/web/comments/c1/mark_read"},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			site.status(http.MethodPost, test.path, http.StatusOK)

			err := test.do(context.Background(), CommentRef{Group: "~comp", PostId: "a1", Id: "c1"})
			require.NoError(t, err)

			req := site.last()
			require.Equal(t, http.MethodPost, req.Method)
			require.Equal(t, test.path, req.Path)
			require.Equal(t, test.override, req.Header.Get(headerMethodOverride))
			require.Equal(t, "secret", req.Header.Get(headerToken))
			require.Equal(t, site.server.URL+"/~comp/a1", req.Header.Get(headerReferer))
		})
	}
}

func TestMutationStatus(t *testing.T) {
	site := newFakeSite(t)
	site.status(http.MethodDelete, "/api/web/topics/a1", http.StatusInternalServerError)
	client, _ := newTestClient(t, site, ClientOptions{})
	client.Session.SetToken("secret")

	err := client.DeletePost(context.Background(), TopicRef{Group: "~comp", Id: "a1"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusInternalServerError, statusErr.Code)
	require.Equal(t, site.server.URL, site.last().Header.Get(headerReferer))
}

func TestReplies(t *testing.T) {
	site := newFakeSite(t)
	site.fixture(http.MethodPost, "/api/web/comments/c1/replies", http.StatusOK, "reply.html")
	site.handle(http.MethodPost, "/api/web/topics/a1/comments", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<p>not a comment</p>"))
	})
	client, _ := newTestClient(t, site, ClientOptions{})
	client.Session.SetToken("secret")

	reply, err := client.ReplyToComment(
		context.Background(),
		CommentRef{Group: "~comp", PostId: "a1", Id: "c1"},
		"My reply & more",
	)
	require.NoError(t, err)
	require.NotNil(t, reply)
	require.Equal(t, "r1", reply.Id)
	require.Equal(t, "alice", reply.User)

	req := site.last()
	require.Equal(t, "My reply & more", req.Form.Get("markdown"))
	require.Equal(t, site.server.URL+"/~comp/a1", req.Header.Get(headerReferer))

	// the reply was posted even though nothing could be read back
	reply, err = client.ReplyToPost(context.Background(), TopicRef{Group: "~comp", Id: "a1"}, "hi")
	require.NoError(t, err)
	require.Nil(t, reply)
}

func TestEdits(t *testing.T) {
	site := newFakeSite(t)
	site.fixture(http.MethodPatch, "/api/web/comments/r1", http.StatusOK, "reply.html")
	site.handle(http.MethodPatch, "/api/web/topics/a1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\n<p>edited</p>\n"))
	})
	site.status(http.MethodDelete, "/api/web/comments/r1", http.StatusOK)
	client, _ := newTestClient(t, site, ClientOptions{})
	client.Session.SetToken("secret")

	edited, err := client.EditComment(context.Background(), CommentRef{Id: "r1"}, "My reply")
	require.NoError(t, err)
	require.Equal(t, "<p>My reply</p>", edited.Body)
	require.NotNil(t, edited.Comment)
	require.Equal(t, "r1", edited.Comment.Id)
	require.Equal(t, "My reply", site.last().Form.Get("markdown"))

	body, err := client.EditPost(context.Background(), TopicRef{Group: "~comp", Id: "a1"}, "edited")
	require.NoError(t, err)
	require.Equal(t, "<p>edited</p>", body)

	err = client.DeleteComment(context.Background(), CommentRef{Id: "r1"})
	require.NoError(t, err)
}

func TestCreatePost(t *testing.T) {
	newPost := NewPost{
		Group:    "~comp",
		Title:    "My new topic",
		Markdown: "body",
		Tags:     []string{"go", "databases"},
	}

	t.Run("succeeded", func(t *testing.T) {
		site := newFakeSite(t)
		site.handle(http.MethodPost, "/~comp/topics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(headerRedirect, "/~comp/abc")
			w.WriteHeader(http.StatusOK)
		})
		client, _ := newTestClient(t, site, ClientOptions{})
		client.Session.SetToken("secret")

		result := client.CreatePost(context.Background(), newPost)
		require.Equal(t, OutcomeSucceeded, result.Outcome)
		require.Equal(t, "abc", result.PostId)

		req := site.last()
		require.Equal(t, "My new topic", req.Form.Get("title"))
		require.Equal(t, "go,databases", req.Form.Get("tags"))
		require.Equal(t, "body", req.Form.Get("markdown"))
		require.Equal(t, "secret", req.Header.Get(headerToken))
		require.Equal(t, site.server.URL+"/~comp", req.Header.Get(headerReferer))
	})

	t.Run("rate limited", func(t *testing.T) {
		site := newFakeSite(t)
		site.handle(http.MethodPost, "/~comp/topics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(headerRetryAfter, "30")
			w.WriteHeader(http.StatusTooManyRequests)
		})
		client, _ := newTestClient(t, site, ClientOptions{})
		client.Session.SetToken("secret")

		result := client.CreatePost(context.Background(), newPost)
		require.Equal(t, OutcomeRateLimited, result.Outcome)
		require.Equal(t, 30*time.Second, result.RetryAfter)
		require.Len(t, site.recorded(), 1)
	})

	t.Run("confirmed by the fallback", func(t *testing.T) {
		site := newFakeSite(t)
		site.handle(http.MethodPost, "/~comp/topics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(headerRedirect, "/~music/abc")
			w.WriteHeader(http.StatusOK)
		})
		site.fixture(http.MethodGet, "/~comp", http.StatusOK, "feed_new.html")
		client, _ := newTestClient(t, site, ClientOptions{})
		client.Session.SetToken("secret")

		result := client.CreatePost(context.Background(), newPost)
		require.Equal(t, OutcomeSucceeded, result.Outcome)
		require.Equal(t, "z7", result.PostId)
		require.Equal(t, "order=new", site.last().Query)
	})

	t.Run("unconfirmed by the fallback", func(t *testing.T) {
		site := newFakeSite(t)
		site.status(http.MethodPost, "/~comp/topics", http.StatusOK)
		site.fixture(http.MethodGet, "/~comp", http.StatusOK, "feed_new.html")
		client, tel := newTestClient(t, site, ClientOptions{})
		client.Session.SetToken("secret")

		post := newPost
		post.Title = "Something else"
		result := client.CreatePost(context.Background(), post)
		require.Equal(t, OutcomeFailed, result.Outcome)
		require.ErrorIs(t, result.Err, ErrCreatePostUnconfirmed)
		require.Equal(t, 1, site.count(http.MethodGet, "/~comp"))
		require.NotEmpty(t, tel.Reports(telemetry.KindWarning))
	})

	t.Run("bad status", func(t *testing.T) {
		site := newFakeSite(t)
		site.status(http.MethodPost, "/~comp/topics", http.StatusBadRequest)
		client, _ := newTestClient(t, site, ClientOptions{})
		client.Session.SetToken("secret")

		result := client.CreatePost(context.Background(), newPost)
		require.Equal(t, OutcomeFailed, result.Outcome)
		var statusErr *StatusError
		require.ErrorAs(t, result.Err, &statusErr)
		require.Equal(t, 0, site.count(http.MethodGet, "/~comp"))
	})
}

func TestLoginTwoFactor(t *testing.T) {
	site := newFakeSite(t)
	site.fixture(http.MethodGet, "/login", http.StatusOK, "login.html")
	site.fixture(http.MethodPost, "/login", http.StatusOK, "login_two_factor.html")
	site.status(http.MethodPost, "/login_two_factor", http.StatusOK)
	site.status(http.MethodPost, "/logout", http.StatusForbidden)
	client, _ := newTestClient(t, site, ClientOptions{})

	outcome, err := client.Login(context.Background(), "alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, LoginNeedsTwoFactor, outcome)

	req := site.last()
	require.Equal(t, "alice", req.Form.Get("username"))
	require.Equal(t, "hunter2", req.Form.Get("password"))
	require.Equal(t, "login-token", req.Form.Get("csrf_token"))
	require.Equal(t, "login-token", req.Header.Get(headerToken))
	require.Equal(t, "true", req.Header.Get(headerAjax))
	require.Equal(t, site.server.URL+"/login", req.Header.Get(headerReferer))

	pending, ok := client.Session.PendingUsername()
	require.True(t, ok)
	require.Equal(t, "alice", pending)

	err = client.LoginTwoFactor(context.Background(), "123456")
	require.NoError(t, err)

	req = site.last()
	require.Equal(t, "/login_two_factor", req.Path)
	require.Equal(t, "123456", req.Form.Get("code"))
	require.Equal(t, "false", req.Form.Get("ic-request"))
	require.Equal(t, "two-factor-token", req.Form.Get("csrf_token"))
	require.Empty(t, req.Header.Get(headerAjax))

	_, ok = client.Session.PendingUsername()
	require.False(t, ok)

	// a session the server does not know is already logged out
	err = client.Logout(context.Background())
	require.NoError(t, err)
	require.Equal(t, site.server.URL+"/logout", site.last().Header.Get(headerReferer))
	_, ok = client.Session.Token()
	require.False(t, ok)
}

func TestLoginRejected(t *testing.T) {
	site := newFakeSite(t)
	site.fixture(http.MethodGet, "/login", http.StatusOK, "login.html")
	site.handle(http.MethodPost, "/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Incorrect username or password"))
	})
	client, _ := newTestClient(t, site, ClientOptions{})

	_, err := client.Login(context.Background(), "alice", "wrong")
	var loginErr *LoginError
	require.ErrorAs(t, err, &loginErr)
	require.Equal(t, http.StatusUnauthorized, loginErr.Code)
	require.Equal(t, "Incorrect username or password", loginErr.Message)

	_, ok := client.Session.PendingUsername()
	require.False(t, ok)
}

func TestTransportError(t *testing.T) {
	site := newFakeSite(t)
	client, tel := newTestClient(t, site, ClientOptions{Timeout: time.Second})
	site.server.Close()

	_, err := client.LoadFeed(context.Background(), FeedQuery{})
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, op_load_feed, transportErr.Op)
	require.NotEmpty(t, tel.Reports(telemetry.KindBroken))
}

func TestExchangeDump(t *testing.T) {
	site := newFakeSite(t)
	site.fixture(http.MethodGet, "/groups", http.StatusOK, "groups.html")
	dump := &restyutil.MemoryOutput{}
	client, _ := newTestClient(t, site, ClientOptions{Dump: dump})

	_, err := client.LoadGroups(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, dump.Len())

	contents, ok := dump.Get("1")
	require.True(t, ok)
	require.Contains(t, contents, "/groups")
}

func TestCancelledContext(t *testing.T) {
	site := newFakeSite(t)
	site.fixture(http.MethodGet, "/groups", http.StatusOK, "groups.html")
	client, _ := newTestClient(t, site, ClientOptions{RequestsPerSecond: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.LoadGroups(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}
