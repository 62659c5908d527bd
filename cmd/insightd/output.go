package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fyrsmithlabs/insightd/internal/insight"
)

// jsonOutput switches machine-readable output for every read command.
var jsonOutput bool

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printInsight writes a full single-insight view.
func printInsight(ins *insight.Insight) {
	fmt.Printf("%s  [%s]  confidence %.2f\n", ins.ID, ins.Type, ins.Confidence)
	fmt.Printf("  claim: %s\n", ins.Claim)
	if ins.Reasoning != "" {
		fmt.Printf("  reasoning: %s\n", ins.Reasoning)
	}
	if ins.Context != "" {
		fmt.Printf("  context: %s\n", ins.Context)
	}
	if ins.Limitations != "" {
		fmt.Printf("  limitations: %s\n", ins.Limitations)
	}
	if ins.Source != "" {
		fmt.Printf("  source: %s\n", ins.Source)
	}
	if len(ins.Tags) > 0 {
		fmt.Printf("  tags: %s\n", strings.Join(ins.Tags, ", "))
	}
	if ins.Type == insight.TypeTrigger && ins.Condition != "" {
		verb := "when"
		if ins.Avoid {
			verb = "avoid when"
		}
		fmt.Printf("  %s: %s\n", verb, ins.Condition)
	}
	if ins.ReinforcementCount > 0 {
		fmt.Printf("  reinforced: %d times\n", ins.ReinforcementCount)
	}
	fmt.Printf("  created: %s  updated: %s\n",
		ins.CreatedAt.Format("2006-01-02 15:04"),
		ins.UpdatedAt.Format("2006-01-02 15:04"))
}

// printInsightRow writes a one-line list view.
func printInsightRow(ins *insight.Insight) {
	fmt.Printf("%s  %-11s  %.2f  %s\n", ins.ID, ins.Type, ins.Confidence, ins.Claim)
}

// printConflicts writes the advisory conflict report.
func printConflicts(conflicts []insight.ConflictResult) {
	if len(conflicts) == 0 {
		fmt.Println("no conflicts detected")
		return
	}
	fmt.Printf("%d potential conflict(s):\n", len(conflicts))
	for _, c := range conflicts {
		fmt.Printf("  %s  score %.2f  (similarity %.2f, tension %.2f)\n",
			c.Insight.ID, c.ConflictScore, c.Similarity, c.TensionScore)
		fmt.Printf("    claim: %s\n", c.Insight.Claim)
		if c.TensionReason != "" {
			fmt.Printf("    tension: %s\n", c.TensionReason)
		}
	}
}

// printHistory writes ledger entries in a compact diff view.
func printHistory(entries []insight.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Println("no history entries")
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-9s  %s  %s",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Kind, e.InsightID, e.Field)
		if e.OldValue != nil && *e.OldValue != "" {
			line += fmt.Sprintf("  %q -> ", *e.OldValue)
		} else {
			line += "  -> "
		}
		if e.NewValue != nil {
			line += fmt.Sprintf("%q", *e.NewValue)
		}
		if e.Source != "" {
			line += fmt.Sprintf("  (%s)", e.Source)
		}
		fmt.Println(line)
	}
}

// parseTypes converts --type flag values into validated types.
func parseTypes(raw []string) ([]insight.Type, error) {
	var types []insight.Type
	for _, s := range raw {
		t, err := insight.ParseType(s)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}
