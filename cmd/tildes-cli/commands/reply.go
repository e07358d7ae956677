package commands

import (
	"fmt"
	"io"
	"strings"
	"tildes-client/internal/scrapers/tildes"

	"github.com/spf13/cobra"
)

var replyText string

func init() {
	replyCmd.Flags().StringVar(&replyText, "text", "-", "The markdown text, - reads it from stdin.")
	editCommentCmd.Flags().StringVar(&replyText, "text", "-", "The new markdown text, - reads it from stdin.")
	rootCmd.AddCommand(replyCmd)
	rootCmd.AddCommand(editCommentCmd)
	rootCmd.AddCommand(deleteCommentCmd)
}

func readAll(r io.Reader) (string, error) {
	contents, err := io.ReadAll(r)
	return string(contents), err
}

func printReply(reply *tildes.BasicComment) {
	if reply == nil {
		fmt.Println("replied")
		return
	}
	fmt.Printf("replied %s\n", reply.Link)
}

var replyCmd = &cobra.Command{
	Use:   "reply <~group/topic[/comment]>",
	Short: "Reply to a topic or a comment.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		isComment := strings.Count(strings.Trim(args[0], "/"), "/") == 2
		markdown := readMarkdown(replyText)
		if strings.TrimSpace(markdown) == "" {
			fatalf("the reply is empty")
		}

		s := openSession(cmd.Context(), true)
		defer s.Close()

		if isComment {
			ref, err := parseCommentRef(args[0])
			if err != nil {
				fatal("invalid comment", err)
			}
			reply, err := s.client.ReplyToComment(cmd.Context(), ref, markdown)
			if err != nil {
				fatal("failed to reply", err)
			}
			printReply(reply)
			return
		}

		ref, err := parseTopicRef(args[0])
		if err != nil {
			fatal("invalid topic", err)
		}
		reply, err := s.client.ReplyToPost(cmd.Context(), ref, markdown)
		if err != nil {
			fatal("failed to reply", err)
		}
		printReply(reply)
	},
}

var editCommentCmd = &cobra.Command{
	Use:   "edit-comment <~group/topic/comment>",
	Short: "Replace the text of a comment.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ref, err := parseCommentRef(args[0])
		if err != nil {
			fatal("invalid comment", err)
		}
		s := openSession(cmd.Context(), true)
		defer s.Close()

		_, err = s.client.EditComment(cmd.Context(), ref, readMarkdown(replyText))
		if err != nil {
			fatal("failed to edit comment", err)
		}
		fmt.Println("done")
	},
}

var deleteCommentCmd = &cobra.Command{
	Use:   "delete-comment <~group/topic/comment>",
	Short: "Delete a comment.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ref, err := parseCommentRef(args[0])
		if err != nil {
			fatal("invalid comment", err)
		}
		s := openSession(cmd.Context(), true)
		defer s.Close()

		err = s.client.DeleteComment(cmd.Context(), ref)
		if err != nil {
			fatal("failed to delete comment", err)
		}
		fmt.Println("done")
	},
}
