package commands

import (
	"fmt"
	"tildes-client/internal/archive"
	"tildes-client/internal/components/telemetry"
	"tildes-client/internal/db"
	"tildes-client/internal/scrapers/tildes"

	"github.com/spf13/cobra"
)

func init() {
	archiveCmd.Flags().StringVar(&commentOrder, "order", "votes", "One of votes, newest, oldest, relevance.")
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveShowCmd)
	rootCmd.AddCommand(archiveCmd)
}

func openArchive(s session) (archive.Store, func()) {
	sqlite, err := s.cfg.Archive.OpenDB()
	if err != nil {
		fatal("failed to open archive", err)
	}
	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		sqlite.Close()
		fatal("failed to create archive schema", err)
	}
	store := archive.NewStore(db.New(sqlite), db.NewMakeTx(sqlite), newClock(s.cfg), telemetry.SlogAPI{})
	return store, func() { sqlite.Close() }
}

var archiveCmd = &cobra.Command{
	Use:   "archive <~group/topic>",
	Short: "Save a copy of a topic and its comments to the archive database.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context(), false)
		defer s.Close()
		store, closeStore := openArchive(s)
		defer closeStore()

		page := loadPostPage(cmd, s, args[0])
		reportFailures(page.Comments.Failures)

		at, err := store.SaveThread(cmd.Context(), page)
		if err != nil {
			fatal("failed to archive topic", err)
		}
		fmt.Printf("archived %s with %d comments at %s\n", page.Post.Id, len(page.Comments.Comments), formatDate(at))
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the archived topics.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context(), false)
		defer s.Close()
		store, closeStore := openArchive(s)
		defer closeStore()

		posts, err := store.ListTopics(cmd.Context())
		if err != nil {
			fatal("failed to list archived topics", err)
		}
		items := make([]tildes.FeedItem, len(posts))
		for i, p := range posts {
			items[i] = p.FeedItem
		}
		renderFeedItems(items)
	},
}

var archiveShowCmd = &cobra.Command{
	Use:   "show <topic id>",
	Short: "Show an archived topic.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context(), false)
		defer s.Close()
		store, closeStore := openArchive(s)
		defer closeStore()

		thread, err := store.LoadThread(cmd.Context(), args[0])
		if err != nil {
			fatal("failed to load archived topic", err)
		}
		fmt.Printf("%s (archived %s)\n\n", thread.Post.Title, formatDate(thread.ArchivedAt))
		for _, c := range thread.Comments {
			printComment(c)
		}
	},
}
