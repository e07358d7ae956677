package commands

import (
	"fmt"
	"tildes-client/internal/scrapers/tildes"

	"github.com/spf13/cobra"
)

var (
	feedOrder      string
	feedPeriod     string
	feedAfter      string
	feedSearch     string
	feedUnfiltered bool
	feedLogin      bool
)

func init() {
	flags := feedCmd.Flags()
	flags.StringVar(&feedOrder, "order", "activity", "One of activity, votes, comments, new, all_activity.")
	flags.StringVar(&feedPeriod, "period", "", "One of 1h, 12h, 24h, 3d, 7d, 30d, 182d, 365d, all.")
	flags.StringVar(&feedAfter, "after", "", "Show the topics after this topic id.")
	flags.StringVar(&feedSearch, "search", "", "Search the topics instead of listing them.")
	flags.BoolVar(&feedUnfiltered, "unfiltered", false, "Include topics hidden by filtered tags.")
	flags.BoolVar(&feedLogin, "login", false, "Log in first to see the listing as the configured user.")
	rootCmd.AddCommand(feedCmd)
}

var feedCmd = &cobra.Command{
	Use:   "feed [~group]",
	Short: "List the topics of the front page or a group.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		order, err := tildes.ParseFeedOrder(feedOrder)
		if err != nil {
			fatal("invalid order", err)
		}
		period, err := tildes.ParseFeedPeriod(feedPeriod)
		if err != nil {
			fatal("invalid period", err)
		}
		query := tildes.FeedQuery{
			Order:      order,
			Period:     period,
			After:      feedAfter,
			Search:     feedSearch,
			Unfiltered: feedUnfiltered,
		}
		if len(args) > 0 {
			query.Group = args[0]
		}

		s := openSession(cmd.Context(), feedLogin)
		defer s.Close()

		page, err := s.client.LoadFeed(cmd.Context(), query)
		if err != nil {
			fatal("failed to load feed", err)
		}
		if len(page.Items) == 0 && page.EmptyMessage != "" {
			fmt.Println(page.EmptyMessage)
			return
		}
		renderFeedItems(page.Items)
		reportFailures(page.Failures)
		if page.IsFiltered != nil && *page.IsFiltered {
			fmt.Println("some topics were filtered, use --unfiltered to show them")
		}
		if next, ok := page.NextAfter(); ok {
			fmt.Printf("next page: --after %s\n", next)
		}
	},
}
