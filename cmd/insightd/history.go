package main

import (
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/insightd/internal/insight"
)

var (
	changelogDays  int
	changelogLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show the full mutation ledger for one insight",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Show recent mutations across all insights",
	Args:  cobra.NoArgs,
	RunE:  runChangelog,
}

func init() {
	historyCmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")

	changelogCmd.Flags().IntVar(&changelogDays, "days", 0, "restrict to the last N days")
	changelogCmd.Flags().IntVar(&changelogLimit, "limit", 0, "maximum entries (default 50)")
	changelogCmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	entries, err := eng.service.History(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(entries)
	}
	printHistory(entries)
	return nil
}

func runChangelog(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	entries, err := eng.service.Changelog(cmd.Context(), insight.ChangelogOptions{
		Days:  changelogDays,
		Limit: changelogLimit,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(entries)
	}
	printHistory(entries)
	return nil
}
