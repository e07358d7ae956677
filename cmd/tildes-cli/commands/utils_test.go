package commands

import (
	"testing"
	"tildes-client/internal/scrapers/tildes"

	"github.com/stretchr/testify/require"
)

func TestParseTopicRef(t *testing.T) {
	testCases := []struct {
		arg      string
		expected tildes.TopicRef
		fails    bool
	}{
		{arg: "~comp/a1", expected: tildes.TopicRef{Group: "~comp", Id: "a1"}},
		{arg: "/~comp.go/a1/some-title/", expected: tildes.TopicRef{Group: "~comp.go", Id: "a1"}},
		{arg: "comp/a1", fails: true},
		{arg: "~comp", fails: true},
		{arg: "", fails: true},
	}

	for _, test := range testCases {
		ref, err := parseTopicRef(test.arg)
		if test.fails {
			require.Error(t, err, test.arg)
			continue
		}
		require.NoError(t, err, test.arg)
		require.Equal(t, test.expected, ref)
	}
}

func TestParseCommentRef(t *testing.T) {
	ref, err := parseCommentRef("~comp/a1/c2")
	require.NoError(t, err)
	require.Equal(t, tildes.CommentRef{Group: "~comp", PostId: "a1", Id: "c2"}, ref)

	_, err = parseCommentRef("~comp/a1")
	require.Error(t, err)
	_, err = parseCommentRef("~comp/a1/c2/extra")
	require.Error(t, err)
}
