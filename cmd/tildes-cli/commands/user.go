package commands

import (
	"fmt"
	"tildes-client/internal/scrapers/tildes"
	"tildes-client/lib/htmlutil"

	"github.com/spf13/cobra"
)

var (
	userType  string
	userAfter string
)

func init() {
	userCmd.Flags().StringVar(&userType, "type", "all", "One of all, topics, comments.")
	userCmd.Flags().StringVar(&userAfter, "after", "", "Show the entries after this id.")
	rootCmd.AddCommand(userCmd)
}

var userCmd = &cobra.Command{
	Use:   "user <username>",
	Short: "Show a user's bio and recent activity.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pageType, err := tildes.ParseUserPageType(userType)
		if err != nil {
			fatal("invalid type", err)
		}

		s := openSession(cmd.Context(), false)
		defer s.Close()

		page, err := s.client.LoadUserPage(cmd.Context(), tildes.UserPageQuery{
			Username: args[0],
			Type:     pageType,
			After:    userAfter,
		})
		if err != nil {
			fatal("failed to load user", err)
		}

		if page.Bio != nil {
			fmt.Printf("%s, registered %s\n", page.Bio.Username, page.Bio.Registered)
			if page.Bio.Bio != "" {
				fmt.Println(htmlutil.PlainText(page.Bio.Bio))
			}
			fmt.Println()
		}
		if len(page.Topics) > 0 {
			renderFeedItems(page.Topics)
		}
		for _, c := range page.Comments {
			if c.Heading != "" {
				fmt.Println(htmlutil.PlainText(c.Heading))
			}
			printComment(c.AsComment())
		}
		reportFailures(page.Failures)
	},
}
