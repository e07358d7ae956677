package commands

import (
	"context"
	"fmt"
	"tildes-client/internal/scrapers/tildes"
	"tildes-client/lib/textutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// groupMatchThreshold is the similarity a group name given on the command
// line needs to be resolved to a listed group.
const groupMatchThreshold = 0.85

var groupsLogin bool

func init() {
	groupsCmd.Flags().BoolVar(&groupsLogin, "login", false, "Log in first to show the subscriptions of the configured user.")
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(subscribeCmd)
	rootCmd.AddCommand(unsubscribeCmd)
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List every group.",
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context(), groupsLogin)
		defer s.Close()

		groups, err := s.client.LoadGroups(cmd.Context())
		if err != nil {
			fatal("failed to load groups", err)
		}

		t := NewTable()
		t.AppendHeader(table.Row{"Group", "Subscribed", "Activity", "Description"})
		for _, g := range groups {
			subscribed := ""
			if g.IsSubscribed {
				subscribed = "yes"
			}
			t.AppendRow(table.Row{g.Name, subscribed, g.Activity, g.Description})
		}
		t.Render()
	},
}

// resolveGroup maps a loosely typed group name (ex. "Comp" or "~cmop") to
// the name of a listed group.
func resolveGroup(ctx context.Context, client *tildes.Client, name string) string {
	groups, err := client.LoadGroups(ctx)
	if err != nil {
		fatal("failed to load groups", err)
	}
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	if len(name) > 0 && name[0] != '~' {
		name = "~" + name
	}
	match, ok := textutil.ClosestMatch(name, names, groupMatchThreshold)
	if !ok {
		fatalf("no group named %q", name)
	}
	return match
}

var subscribeCmd = &cobra.Command{
	Use:   "subscribe <group>",
	Short: "Subscribe to a group.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context(), true)
		defer s.Close()

		group := resolveGroup(cmd.Context(), s.client, args[0])
		err := s.client.SubscribeGroup(cmd.Context(), group)
		if err != nil {
			fatal("failed to subscribe", err)
		}
		fmt.Printf("subscribed to %s\n", group)
	},
}

var unsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe <group>",
	Short: "Unsubscribe from a group.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context(), true)
		defer s.Close()

		group := resolveGroup(cmd.Context(), s.client, args[0])
		err := s.client.UnsubscribeGroup(cmd.Context(), group)
		if err != nil {
			fatal("failed to unsubscribe", err)
		}
		fmt.Printf("unsubscribed from %s\n", group)
	},
}
