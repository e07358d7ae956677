package tildes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeSearchQuery(t *testing.T) {
	testCases := []struct {
		text     string
		expected string
	}{
		{text: "golang", expected: "golang"},
		{text: "rust vs go", expected: "rust+vs+go"},
		{text: "c++ & go", expected: "c+++%26+go"},
		{text: "100%", expected: "100%25"},
		{text: "#tags", expected: "%23tags"},
		{text: "café", expected: "caf%C3%A9"},
		{text: "a=b?c", expected: "a=b?c"},
	}

	for _, test := range testCases {
		t.Run(test.text, func(t *testing.T) {
			require.Equal(t, test.expected, EncodeSearchQuery(test.text))
		})
	}
}

func TestFeedQueryPath(t *testing.T) {
	testCases := []struct {
		name     string
		query    FeedQuery
		expected string
	}{
		{
			name:     "front page",
			query:    FeedQuery{},
			expected: "/?order=activity",
		},
		{
			name:     "group with period",
			query:    FeedQuery{Group: "~comp", Order: FeedOrderVotes, Period: FeedPeriodWeek},
			expected: "/~comp?order=votes&period=7d",
		},
		{
			name:     "new ignores the period",
			query:    FeedQuery{Group: "~comp", Order: FeedOrderNew, Period: FeedPeriodWeek},
			expected: "/~comp?order=new",
		},
		{
			name:     "next page",
			query:    FeedQuery{Group: "~comp.go", After: "a1", Order: FeedOrderComments},
			expected: "/~comp.go?after=a1&order=comments",
		},
		{
			name:     "search",
			query:    FeedQuery{Group: "~comp", Search: "c++ & go"},
			expected: "/~comp/search?q=c+++%26+go&order=activity",
		},
		{
			name:     "unfiltered",
			query:    FeedQuery{Order: FeedOrderAllActivity, Period: FeedPeriodAll, Unfiltered: true},
			expected: "/?order=all_activity&period=all&unfiltered=true",
		},
		{
			name:     "escaped group",
			query:    FeedQuery{Group: "~a b"},
			expected: "/~a%20b?order=activity",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, test.query.Path())
		})
	}
}

func TestOtherQueryPaths(t *testing.T) {
	require.Equal(t, "/~comp/a1?comment_order=votes", PostQuery{Group: "~comp", Id: "a1"}.Path())
	require.Equal(t, "/~comp/a1?comment_order=newest", PostQuery{Group: "~comp", Id: "a1", Order: CommentOrderNewest}.Path())

	require.Equal(t, "/user/bob", UserPageQuery{Username: "bob"}.Path())
	require.Equal(t, "/user/bob?type=comment&after=x2", UserPageQuery{Username: "bob", Type: UserPageComments, After: "x2"}.Path())
	require.Equal(t, "/user/bob?type=topic", UserPageQuery{Username: "bob", Type: UserPageTopics}.Path())

	require.Equal(t, "/notifications", NotificationsQuery{}.Path())
	require.Equal(t, "/notifications/unread", NotificationsQuery{UnreadOnly: true}.Path())
}

func TestParseEnums(t *testing.T) {
	order, err := ParseFeedOrder("all_activity")
	require.NoError(t, err)
	require.Equal(t, FeedOrderAllActivity, order)
	_, err = ParseFeedOrder("hot")
	require.Error(t, err)

	period, err := ParseFeedPeriod("182d")
	require.NoError(t, err)
	require.Equal(t, FeedPeriodSixMonths, period)
	period, err = ParseFeedPeriod("")
	require.NoError(t, err)
	require.Equal(t, FeedPeriodDefault, period)
	_, err = ParseFeedPeriod("2w")
	require.Error(t, err)

	commentOrder, err := ParseCommentOrder("relevance")
	require.NoError(t, err)
	require.Equal(t, CommentOrderRelevance, commentOrder)

	pageType, err := ParseUserPageType("topics")
	require.NoError(t, err)
	require.Equal(t, UserPageTopics, pageType)
	_, err = ParseUserPageType("votes")
	require.Error(t, err)
}
