package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login [--code <two factor code>]",
	Short: "Check that the configured credentials can log in.",
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context(), true)
		defer s.Close()

		username, ok, err := s.client.CurrentUser(cmd.Context())
		if err != nil {
			fatal("failed to load the current user", err)
		}
		if !ok {
			fatalf("the login was accepted but no user is logged in")
		}
		fmt.Printf("logged in as %s\n", username)
	},
}
