package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/insightd/internal/insight"
)

var (
	listTypes         []string
	listMinConfidence float64
	listTag           string
	listLimit         int

	searchLimit int

	retrieveLimit         int
	retrieveMinConfidence float64
	retrieveTypes         []string
	retrieveBudget        int
	retrieveFormat        string

	conflictsMinScore   float64
	conflictsMaxResults int

	exportPath string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored insights",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank insights by pure semantic similarity to a query",
	Long: `Embed the query and rank insights purely by cosine similarity.
Requires a configured embedding provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <query>",
	Short: "Run context-classified, relevance-ranked retrieval",
	Long: `Classify the query into a context category, rank insights by
similarity, confidence, reinforcement history, and the category's type
boosts, and serialize the winners under a token budget.

Without an embedding provider, ranking degrades to confidence and
reinforcement history alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <claim>",
	Short: "Check a prospective claim against the corpus without writing",
	Args:  cobra.ExactArgs(1),
	RunE:  runConflicts,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump all insights as JSON",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	listCmd.Flags().StringSliceVar(&listTypes, "type", nil, "restrict to insight types")
	listCmd.Flags().Float64Var(&listMinConfidence, "min-confidence", 0, "minimum confidence")
	listCmd.Flags().StringVar(&listTag, "tag", "", "restrict to insights carrying the tag")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum results (0 = all)")
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")

	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum results")
	searchCmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")

	retrieveCmd.Flags().IntVar(&retrieveLimit, "limit", 0, "maximum results")
	retrieveCmd.Flags().Float64Var(&retrieveMinConfidence, "min-confidence", 0, "minimum confidence")
	retrieveCmd.Flags().StringSliceVar(&retrieveTypes, "type", nil, "restrict to insight types")
	retrieveCmd.Flags().IntVar(&retrieveBudget, "budget", 0, "token budget for block output")
	retrieveCmd.Flags().StringVar(&retrieveFormat, "format", "block", "output format: block, list, json")

	conflictsCmd.Flags().Float64Var(&conflictsMinScore, "min-score", 0, "minimum conflict score")
	conflictsCmd.Flags().IntVar(&conflictsMaxResults, "max-results", 0, "maximum conflicts reported")
	conflictsCmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON")

	exportCmd.Flags().StringVar(&exportPath, "out", "", "write to file instead of stdout")
}

func runList(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	types, err := parseTypes(listTypes)
	if err != nil {
		return err
	}

	insights, err := eng.service.List(cmd.Context(), insight.Filter{
		Types:         types,
		MinConfidence: listMinConfidence,
		Tag:           listTag,
		Limit:         listLimit,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(insights)
	}
	if len(insights) == 0 {
		fmt.Println("no insights stored")
		return nil
	}
	for _, ins := range insights {
		printInsightRow(ins)
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	results, err := eng.service.SearchByText(cmd.Context(), args[0], searchLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(results)
	}
	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%.3f  ", r.Similarity)
		printInsightRow(r.Insight)
	}
	return nil
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	types, err := parseTypes(retrieveTypes)
	if err != nil {
		return err
	}

	opts := insight.RetrievalOptions{
		MaxResults:    retrieveLimit,
		MinConfidence: retrieveMinConfidence,
		Types:         types,
		Oversample:    eng.cfg.Retrieval.Oversample,
	}
	if opts.MaxResults == 0 {
		opts.MaxResults = eng.cfg.Retrieval.MaxResults
	}
	if opts.MinConfidence == 0 {
		opts.MinConfidence = eng.cfg.Retrieval.MinConfidence
	}

	results, err := eng.service.Retrieve(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}

	switch retrieveFormat {
	case "json":
		return printJSON(results)
	case "list":
		if len(results) == 0 {
			fmt.Println("no results")
			return nil
		}
		for _, r := range results {
			fmt.Printf("%.3f  ", r.Score)
			printInsightRow(r.Insight)
		}
		return nil
	case "block":
		budget := retrieveBudget
		if budget == 0 {
			budget = eng.cfg.Retrieval.TokenBudget
		}
		fmt.Print(insight.MarshalRanked(results, insight.MarshalOptions{TokenBudget: budget}))
		return nil
	default:
		return fmt.Errorf("unknown format %q (want block, list, or json)", retrieveFormat)
	}
}

func runConflicts(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	opts := insight.ConflictOptions{
		MinScore:   conflictsMinScore,
		MaxResults: conflictsMaxResults,
	}
	if opts.MinScore == 0 {
		opts.MinScore = eng.cfg.Conflicts.MinScore
	}
	if opts.MaxResults == 0 {
		opts.MaxResults = eng.cfg.Conflicts.MaxResults
	}

	conflicts, err := eng.service.CheckConflicts(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(conflicts)
	}
	printConflicts(conflicts)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	data, err := eng.service.Export(cmd.Context())
	if err != nil {
		return err
	}

	if exportPath != "" {
		if err := os.WriteFile(exportPath, data, 0600); err != nil {
			return fmt.Errorf("writing export file: %w", err)
		}
		fmt.Printf("exported to %s\n", exportPath)
		return nil
	}
	fmt.Println(string(data))
	return nil
}
