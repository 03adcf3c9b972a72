package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cmdPolls = &cobra.Command{
	Use:   "polls",
	Short: "List the active polls.",
	RunE: func(c *cobra.Command, args []string) error {
		return withRuntime(c.Context(), func(rt *env) error {
			ctrl := rt.controller()
			if err := ctrl.RefreshActivePolls(c.Context()); err != nil {
				return userError(rt, err)
			}
			return dumpJSON(ctrl.Snapshot().Store.Polls)
		})
	},
}

var cmdPoll = &cobra.Command{
	Use:   "poll <id>",
	Short: "Print one poll, with results once it is closed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return withRuntime(c.Context(), func(rt *env) error {
			poll, err := rt.controller().FetchPoll(c.Context(), args[0])
			if err != nil {
				return userError(rt, err)
			}
			return dumpJSON(poll)
		})
	},
}

var cmdStats = &cobra.Command{
	Use:   "stats",
	Short: "Print the ledger statistics.",
	RunE: func(c *cobra.Command, args []string) error {
		return withRuntime(c.Context(), func(rt *env) error {
			ctrl := rt.controller()
			if err := ctrl.RefreshStats(c.Context()); err != nil {
				return userError(rt, err)
			}
			stats := ctrl.Snapshot().Store.Stats
			if stats == nil {
				return fmt.Errorf("no statistics available")
			}
			return dumpJSON(stats)
		})
	},
}
