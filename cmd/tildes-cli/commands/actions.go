package commands

import (
	"context"
	"fmt"
	"strings"
	"tildes-client/internal/scrapers/tildes"

	"github.com/spf13/cobra"
)

type topicAction func(*tildes.Client, context.Context, tildes.TopicRef) error
type commentAction func(*tildes.Client, context.Context, tildes.CommentRef) error

type action struct {
	use     string
	short   string
	topic   topicAction
	comment commentAction
}

var actions = []action{
	{use: "vote", short: "Vote on", topic: (*tildes.Client).VoteTopic, comment: (*tildes.Client).VoteComment},
	{use: "unvote", short: "Remove the vote from", topic: (*tildes.Client).UnvoteTopic, comment: (*tildes.Client).UnvoteComment},
	{use: "bookmark", short: "Bookmark", topic: (*tildes.Client).BookmarkTopic, comment: (*tildes.Client).BookmarkComment},
	{use: "unbookmark", short: "Remove the bookmark from", topic: (*tildes.Client).UnbookmarkTopic, comment: (*tildes.Client).UnbookmarkComment},
	{use: "ignore", short: "Ignore", topic: (*tildes.Client).IgnoreTopic},
	{use: "unignore", short: "Stop ignoring", topic: (*tildes.Client).UnignoreTopic},
}

func init() {
	for _, a := range actions {
		rootCmd.AddCommand(a.command())
	}
}

func (a action) command() *cobra.Command {
	target := "<~group/topic>"
	short := fmt.Sprintf("%s a topic.", a.short)
	if a.comment != nil {
		target = "<~group/topic[/comment]>"
		short = fmt.Sprintf("%s a topic or a comment.", a.short)
	}

	return &cobra.Command{
		Use:   fmt.Sprintf("%s %s", a.use, target),
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s := openSession(cmd.Context(), true)
			defer s.Close()

			isComment := strings.Count(strings.Trim(args[0], "/"), "/") == 2
			if isComment && a.comment == nil {
				fatalf("%s only works on topics", a.use)
			}

			var err error
			if isComment {
				ref, perr := parseCommentRef(args[0])
				if perr != nil {
					fatal("invalid comment", perr)
				}
				err = a.comment(s.client, cmd.Context(), ref)
			} else {
				ref, perr := parseTopicRef(args[0])
				if perr != nil {
					fatal("invalid topic", perr)
				}
				err = a.topic(s.client, cmd.Context(), ref)
			}
			if err != nil {
				fatal(fmt.Sprintf("failed to %s", a.use), err)
			}
			fmt.Println("done")
		},
	}
}
