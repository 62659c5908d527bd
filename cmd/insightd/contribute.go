package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/insightd/internal/insight"
)

var (
	contributeType        string
	contributeConfidence  float64
	contributeReasoning   string
	contributeContext     string
	contributeLimitations string
	contributeSource      string
	contributeTags        []string
	contributeCondition   string
	contributeAvoid       bool
	contributeSkipCheck   bool
)

var contributeCmd = &cobra.Command{
	Use:   "contribute <claim>",
	Short: "Store a new insight, checking the corpus for contradictions",
	Long: `Store a new insight. The claim is checked against every existing
insight for likely contradictions before the write; conflicts are
reported but never block the contribution.

Examples:
  insightd contribute --type relational --confidence 0.7 \
    "Boss values directness and brevity in communication"

  insightd contribute --type trigger --condition "deploy on friday" --avoid \
    --confidence 0.9 "Deployments right before the weekend go unwatched"`,
	Args: cobra.ExactArgs(1),
	RunE: runContribute,
}

func init() {
	contributeCmd.Flags().StringVar(&contributeType, "type", "behavioral", "insight type: behavioral, personality, relational, principle, skill, trigger")
	contributeCmd.Flags().Float64Var(&contributeConfidence, "confidence", 0.5, "confidence score in [0.0, 1.0]")
	contributeCmd.Flags().StringVar(&contributeReasoning, "reasoning", "", "why the claim is believed")
	contributeCmd.Flags().StringVar(&contributeContext, "context", "", "when the claim applies")
	contributeCmd.Flags().StringVar(&contributeLimitations, "limitations", "", "known caveats")
	contributeCmd.Flags().StringVar(&contributeSource, "source", "", "where the claim came from")
	contributeCmd.Flags().StringSliceVar(&contributeTags, "tags", nil, "comma-separated tags")
	contributeCmd.Flags().StringVar(&contributeCondition, "condition", "", "triggering condition (trigger type only)")
	contributeCmd.Flags().BoolVar(&contributeAvoid, "avoid", false, "mark the trigger as a reaction to suppress")
	contributeCmd.Flags().BoolVar(&contributeSkipCheck, "skip-conflict-check", false, "bypass conflict detection")
	contributeCmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")
}

func runContribute(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	typ, err := insight.ParseType(contributeType)
	if err != nil {
		return err
	}

	result, err := eng.service.Contribute(cmd.Context(), typ, args[0], contributeConfidence, insight.ContributeOptions{
		Reasoning:         contributeReasoning,
		Context:           contributeContext,
		Limitations:       contributeLimitations,
		Source:            contributeSource,
		Tags:              contributeTags,
		Condition:         contributeCondition,
		Avoid:             contributeAvoid,
		SkipConflictCheck: contributeSkipCheck,
		Conflict: insight.ConflictOptions{
			MinScore:   eng.cfg.Conflicts.MinScore,
			MaxResults: eng.cfg.Conflicts.MaxResults,
		},
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}

	fmt.Printf("contributed %s\n", result.Insight.ID)
	if len(result.Conflicts) > 0 {
		printConflicts(result.Conflicts)
	}
	return nil
}
