package commands

import (
	"fmt"
	"os"
	"tildes-client/internal/notifier"

	"github.com/spf13/cobra"
)

var (
	notificationsUnread   bool
	notificationsMarkRead bool
)

func init() {
	notificationsCmd.Flags().BoolVar(&notificationsUnread, "unread", false, "Only show unread notifications.")
	notificationsCmd.Flags().BoolVar(&notificationsMarkRead, "mark-read", false, "Mark the shown notifications as read, together with --unread.")
	rootCmd.AddCommand(notificationsCmd)
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show the configured user's notifications.",
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context(), true)
		defer s.Close()

		notifications, err := s.client.LoadNotifications(cmd.Context(), notificationsUnread)
		if err != nil {
			fatal("failed to load notifications", err)
		}
		if len(notifications) == 0 {
			fmt.Println("no notifications")
			return
		}

		err = notifier.WriterSink{Out: os.Stdout}.Deliver(cmd.Context(), notifications)
		if err != nil {
			fatal("failed to print notifications", err)
		}

		if !notificationsMarkRead {
			return
		}
		for _, n := range notifications {
			if n.IsRead {
				continue
			}
			err := s.client.MarkCommentRead(cmd.Context(), n.Comment.Ref())
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to mark %s as read: %s\n", n.Comment.Id, err)
			}
		}
	},
}
