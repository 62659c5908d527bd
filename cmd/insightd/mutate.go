package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/insightd/internal/insight"
)

var (
	mergeClaim string
)

var reinforceCmd = &cobra.Command{
	Use:   "reinforce <id>",
	Short: "Re-confirm an insight, raising its confidence",
	Long: `Re-confirm an insight. Confidence moves a fixed fraction of the
remaining headroom toward 1.0 and the reinforcement count increments.`,
	Args: cobra.ExactArgs(1),
	RunE: runReinforce,
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Apply a partial update to an insight",
	Long: `Update individual fields of an insight. Only flags explicitly set
on the command line are applied; each changed field is recorded in the
history ledger.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var mergeCmd = &cobra.Command{
	Use:   "merge <source-id> <target-id>",
	Short: "Fold one insight into another and delete the source",
	Long: `Merge the source insight into the target. Confidence takes the
maximum, tags the deduplicated union, reinforcement counts the sum, and
reasoning is concatenated. The source record, its embedding, and its
history are deleted.`,
	Args: cobra.ExactArgs(2),
	RunE: runMerge,
}

var archiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Permanently delete an insight and its history",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchive,
}

func init() {
	reinforceCmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")

	updateCmd.Flags().String("claim", "", "new claim text")
	updateCmd.Flags().String("reasoning", "", "new reasoning")
	updateCmd.Flags().String("context", "", "new context")
	updateCmd.Flags().String("limitations", "", "new limitations")
	updateCmd.Flags().String("source", "", "new source")
	updateCmd.Flags().Float64("confidence", 0, "new confidence in [0.0, 1.0]")
	updateCmd.Flags().StringSlice("tags", nil, "replacement tag set")
	updateCmd.Flags().String("condition", "", "new triggering condition")
	updateCmd.Flags().Bool("avoid", false, "new avoid flag")
	updateCmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")

	mergeCmd.Flags().StringVar(&mergeClaim, "claim", "", "replacement claim for the merged insight")
	mergeCmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")
}

func runReinforce(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	ins, err := eng.service.Reinforce(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(ins)
	}
	fmt.Printf("reinforced %s: confidence %.4f, count %d\n",
		ins.ID, ins.Confidence, ins.ReinforcementCount)
	return nil
}

// runUpdate builds UpdateOptions from only the flags the user actually set,
// so an unset flag never clobbers a stored value with its zero default.
func runUpdate(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	var opts insight.UpdateOptions
	flags := cmd.Flags()
	if flags.Changed("claim") {
		v, _ := flags.GetString("claim")
		opts.Claim = &v
	}
	if flags.Changed("reasoning") {
		v, _ := flags.GetString("reasoning")
		opts.Reasoning = &v
	}
	if flags.Changed("context") {
		v, _ := flags.GetString("context")
		opts.Context = &v
	}
	if flags.Changed("limitations") {
		v, _ := flags.GetString("limitations")
		opts.Limitations = &v
	}
	if flags.Changed("source") {
		v, _ := flags.GetString("source")
		opts.Source = &v
	}
	if flags.Changed("confidence") {
		v, _ := flags.GetFloat64("confidence")
		opts.Confidence = &v
	}
	if flags.Changed("tags") {
		v, _ := flags.GetStringSlice("tags")
		opts.Tags = &v
	}
	if flags.Changed("condition") {
		v, _ := flags.GetString("condition")
		opts.Condition = &v
	}
	if flags.Changed("avoid") {
		v, _ := flags.GetBool("avoid")
		opts.Avoid = &v
	}

	ins, err := eng.service.Update(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(ins)
	}
	printInsight(ins)
	return nil
}

func runMerge(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	ins, err := eng.service.Merge(cmd.Context(), args[0], args[1], mergeClaim)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(ins)
	}
	fmt.Printf("merged %s into %s\n", args[0], args[1])
	printInsight(ins)
	return nil
}

func runArchive(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.service.Archive(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("archived %s\n", args[0])
	return nil
}
