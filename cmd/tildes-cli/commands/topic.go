package commands

import (
	"fmt"
	"os"
	"strings"
	"tildes-client/internal/scrapers/tildes"

	"github.com/spf13/cobra"
)

var (
	newTopicLink string
	newTopicText string
	newTopicTags []string

	editTopicText string
)

func init() {
	flags := postTopicCmd.Flags()
	flags.StringVar(&newTopicLink, "link", "", "The link of a link topic.")
	flags.StringVar(&newTopicText, "text", "", "The markdown text of the topic, - reads it from stdin.")
	flags.StringSliceVar(&newTopicTags, "tags", nil, "Comma separated tags.")
	rootCmd.AddCommand(postTopicCmd)

	editTopicCmd.Flags().StringVar(&editTopicText, "text", "-", "The new markdown text, - reads it from stdin.")
	rootCmd.AddCommand(editTopicCmd)
	rootCmd.AddCommand(deleteTopicCmd)
}

// readMarkdown returns text, or stdin when text is "-".
func readMarkdown(text string) string {
	if text != "-" {
		return text
	}
	contents, err := readAll(os.Stdin)
	if err != nil {
		fatal("failed to read stdin", err)
	}
	return strings.TrimRight(contents, "\n")
}

var postTopicCmd = &cobra.Command{
	Use:   "post-topic <~group> <title>",
	Short: "Post a new topic.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context(), true)
		defer s.Close()

		result := s.client.CreatePost(cmd.Context(), tildes.NewPost{
			Group:    resolveGroup(cmd.Context(), s.client, args[0]),
			Title:    args[1],
			Link:     newTopicLink,
			Markdown: readMarkdown(newTopicText),
			Tags:     newTopicTags,
		})
		switch result.Outcome {
		case tildes.OutcomeSucceeded:
			fmt.Printf("posted %s\n", result.PostId)
		case tildes.OutcomeRateLimited:
			fatalf("posting is rate limited, try again in %s", result.RetryAfter)
		default:
			fatal("failed to post topic", result.Err)
		}
	},
}

var editTopicCmd = &cobra.Command{
	Use:   "edit-topic <~group/topic>",
	Short: "Replace the text of a topic.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ref, err := parseTopicRef(args[0])
		if err != nil {
			fatal("invalid topic", err)
		}
		s := openSession(cmd.Context(), true)
		defer s.Close()

		_, err = s.client.EditPost(cmd.Context(), ref, readMarkdown(editTopicText))
		if err != nil {
			fatal("failed to edit topic", err)
		}
		fmt.Println("done")
	},
}

var deleteTopicCmd = &cobra.Command{
	Use:   "delete-topic <~group/topic>",
	Short: "Delete a topic.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ref, err := parseTopicRef(args[0])
		if err != nil {
			fatal("invalid topic", err)
		}
		s := openSession(cmd.Context(), true)
		defer s.Close()

		err = s.client.DeletePost(cmd.Context(), ref)
		if err != nil {
			fatal("failed to delete topic", err)
		}
		fmt.Println("done")
	},
}
