package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "votechain",
	Short:         "VoteChain client: create polls, vote and keep receipts",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	rootCmd.AddCommand(cmdServe, cmdPolls, cmdPoll, cmdStats, cmdCreate, cmdVote, cmdVerify, cmdReceipts)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
