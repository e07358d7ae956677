package commands

import (
	"fmt"
	"os"
	"strings"
	"time"
	"tildes-client/internal/scrapers/tildes"
	"tildes-client/lib/htmlutil"

	"github.com/jedib0t/go-pretty/v6/table"
)

func NewTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// parseTopicRef reads a topic given as `~group/id`.
func parseTopicRef(arg string) (tildes.TopicRef, error) {
	parts := strings.Split(strings.Trim(arg, "/"), "/")
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "~") || parts[1] == "" {
		return tildes.TopicRef{}, fmt.Errorf("expected a topic as ~group/id, got %q", arg)
	}
	return tildes.TopicRef{Group: parts[0], Id: parts[1]}, nil
}

// parseCommentRef reads a comment given as `~group/topic id/comment id`.
func parseCommentRef(arg string) (tildes.CommentRef, error) {
	parts := strings.Split(strings.Trim(arg, "/"), "/")
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "~") || parts[1] == "" || parts[2] == "" {
		return tildes.CommentRef{}, fmt.Errorf("expected a comment as ~group/topic/comment, got %q", arg)
	}
	return tildes.CommentRef{Group: parts[0], PostId: parts[1], Id: parts[2]}, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatSource(item tildes.FeedItem) string {
	if item.IsUserSource {
		return "@" + item.Source
	}
	return item.Source
}

func renderFeedItems(items []tildes.FeedItem) {
	t := NewTable()
	t.AppendHeader(table.Row{"Topic", "Title", "Source", "Votes", "Comments", "Posted"})
	for _, item := range items {
		comments := fmt.Sprint(item.Comments)
		if item.NewComments > 0 {
			comments = fmt.Sprintf("%d (+%d)", item.Comments, item.NewComments)
		}
		t.AppendRow(table.Row{
			item.Group + "/" + item.Id,
			item.Title,
			formatSource(item),
			item.Votes,
			comments,
			formatDate(item.Date),
		})
	}
	t.Render()
}

func printComment(c tildes.Comment) {
	indent := strings.Repeat("  ", c.DisplayDepth())
	author := c.User
	if c.IsRemoved {
		author = fmt.Sprintf("[removed by %s]", c.RemovalReason)
	}
	if c.IsOriginalPoster {
		author += " (OP)"
	}
	fmt.Printf("%s%s | %d votes | %s | %s\n", indent, author, c.Votes, formatDate(c.Created), c.Id)
	if c.IsCollapsed {
		fmt.Printf("%s  [collapsed, %d comments]\n", indent, c.TotalCount)
		return
	}
	fmt.Printf("%s  %s\n", indent, htmlutil.PlainText(c.Body))
}

func reportFailures(failures []error) {
	if len(failures) > 0 {
		fmt.Fprintf(os.Stderr, "%d entries could not be read\n", len(failures))
	}
}
