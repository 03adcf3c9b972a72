package main

import (
	"fmt"

	"votechain-client/model"
	"votechain-client/state"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var createFlags struct {
	title    string
	question string
	options  []string
	duration int
	language string
}

var cmdCreate = &cobra.Command{
	Use:   "create",
	Short: "Create a poll and print its share link.",
	RunE: func(c *cobra.Command, args []string) error {
		actions, err := draftActions()
		if err != nil {
			return err
		}

		return withRuntime(c.Context(), func(rt *env) error {
			ctrl := rt.controller()
			for _, action := range actions {
				if err := ctrl.Dispatch(action); err != nil {
					return userError(rt, err)
				}
			}
			pollURL, err := ctrl.SubmitPollCreation(c.Context())
			if err != nil {
				return userError(rt, err)
			}
			fmt.Println(pollURL)
			return nil
		})
	},
}

// draftActions 把命令行参数转换成草稿编辑动作
func draftActions() ([]state.Action, error) {
	f := createFlags
	if len(f.options) < state.MinOptions || len(f.options) > state.MaxOptions {
		return nil, errors.Errorf("between %d and %d options are required", state.MinOptions, state.MaxOptions)
	}
	lang := model.Language(f.language)
	if !lang.Valid() {
		return nil, errors.Errorf("unknown language %q", f.language)
	}

	actions := []state.Action{
		state.SetTitle{Title: f.title},
		state.SetQuestion{Question: f.question},
		state.SetDurationHours{Hours: f.duration},
		state.SetLanguage{Language: lang},
	}
	for i := state.MinOptions; i < len(f.options); i++ {
		actions = append(actions, state.AddOption{})
	}
	for i, opt := range f.options {
		actions = append(actions, state.UpdateOption{Index: i, Value: opt})
	}
	return actions, nil
}

var voteFlags struct {
	voter string
}

var cmdVote = &cobra.Command{
	Use:   "vote <poll-id> <choice>",
	Short: "Cast a vote and print the receipt.",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		return withRuntime(c.Context(), func(rt *env) error {
			ctrl := rt.controller()
			if err := ctrl.Dispatch(state.SetVoterIdentifier{Value: voteFlags.voter}); err != nil {
				return userError(rt, err)
			}
			// 投票前拉取列表，存档时带上投票标题
			if err := ctrl.RefreshActivePolls(c.Context()); err != nil {
				rt.log.Debug("poll list unavailable before vote", "error", err)
			}
			receipt, err := ctrl.SubmitVote(c.Context(), args[0], args[1])
			if err != nil {
				return userError(rt, err)
			}
			fmt.Println(receipt)
			return nil
		})
	},
}

var cmdVerify = &cobra.Command{
	Use:   "verify <poll-id> <receipt>",
	Short: "Check a receipt against the voting service ledger.",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		return withRuntime(c.Context(), func(rt *env) error {
			res, err := rt.controller().VerifyReceipt(c.Context(), args[0], args[1])
			if err != nil {
				return userError(rt, err)
			}
			fmt.Printf("valid: %t\n%s\n", res.Valid, res.Message)
			return nil
		})
	},
}

var (
	receiptsLimit int
	receiptsPoll  string
)

var cmdReceipts = &cobra.Command{
	Use:   "receipts",
	Short: "List locally archived receipts.",
	RunE: func(c *cobra.Command, args []string) error {
		return withRuntime(c.Context(), func(rt *env) error {
			ctrl := rt.controller()
			var receipts []model.ArchivedReceipt
			var err error
			if receiptsPoll != "" {
				receipts, err = ctrl.PollReceipts(c.Context(), receiptsPoll)
			} else {
				receipts, err = ctrl.Receipts(c.Context(), receiptsLimit)
			}
			if err != nil {
				return userError(rt, err)
			}
			return dumpJSON(receipts)
		})
	},
}

func init() {
	fs := cmdCreate.Flags()
	fs.StringVar(&createFlags.title, "title", "", "poll title")
	fs.StringVar(&createFlags.question, "question", "", "poll question")
	fs.StringArrayVar(&createFlags.options, "option", nil, "an option, repeat 2 to 10 times")
	fs.IntVar(&createFlags.duration, "duration", state.DefaultDurationHours, "hours until the poll closes (1-720)")
	fs.StringVar(&createFlags.language, "language", string(state.DefaultLanguage), "ar, fr or en")

	cmdVote.Flags().StringVar(&voteFlags.voter, "voter", "", "email or phone number")
	cmdReceipts.Flags().StringVar(&receiptsPoll, "poll", "", "only receipts for this poll id")
	cmdReceipts.Flags().IntVar(&receiptsLimit, "limit", 20, "maximum receipts to list, 0 for all")
}
