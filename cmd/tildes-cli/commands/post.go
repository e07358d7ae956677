package commands

import (
	"fmt"
	"strings"
	"tildes-client/internal/scrapers/tildes"
	"tildes-client/lib/htmlutil"

	"github.com/spf13/cobra"
)

var commentOrder string

func init() {
	postCmd.Flags().StringVar(&commentOrder, "order", "votes", "One of votes, newest, oldest, relevance.")
	rootCmd.AddCommand(postCmd)
}

func loadPostPage(cmd *cobra.Command, s session, arg string) tildes.PostPage {
	ref, err := parseTopicRef(arg)
	if err != nil {
		fatal("invalid topic", err)
	}
	order, err := tildes.ParseCommentOrder(commentOrder)
	if err != nil {
		fatal("invalid order", err)
	}
	page, err := s.client.LoadPost(cmd.Context(), tildes.PostQuery{
		Group: ref.Group,
		Id:    ref.Id,
		Order: order,
	})
	if err != nil {
		fatal("failed to load topic", err)
	}
	return page
}

var postCmd = &cobra.Command{
	Use:   "post <~group/id>",
	Short: "Show a topic and its comments.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context(), false)
		defer s.Close()

		page := loadPostPage(cmd, s, args[0])
		post := page.Post

		fmt.Println(post.Title)
		fmt.Printf("%s | %s | %d votes | %s\n", post.Group, formatSource(post.FeedItem), post.Votes, formatDate(post.Date))
		if len(post.Tags) > 0 {
			fmt.Printf("tags: %s\n", strings.Join(post.Tags, ", "))
		}
		if post.Link != "" {
			fmt.Println(post.Link)
		}
		if post.Body != "" {
			fmt.Printf("\n%s\n", htmlutil.PlainText(post.Body))
		}
		fmt.Printf("\n%d comments\n\n", post.Comments)

		for _, c := range page.Comments.Comments {
			printComment(c)
		}
		reportFailures(page.Comments.Failures)
	},
}
