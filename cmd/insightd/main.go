// Package main implements the insightd CLI for contributing, retrieving,
// and consolidating agent insights in a local store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/insightd/internal/config"
	"github.com/fyrsmithlabs/insightd/internal/embeddings"
	"github.com/fyrsmithlabs/insightd/internal/insight"
	"github.com/fyrsmithlabs/insightd/internal/logging"
	"github.com/fyrsmithlabs/insightd/internal/store"
)

var (
	// configPath overrides the config file location
	configPath string
	// dbPath overrides the store path from config
	dbPath string
	// logLevel overrides the logging level from config
	logLevel string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "insightd",
	Short: "Local insight store with conflict detection and ranked retrieval",
	Long: `insightd maintains a durable store of agent insights: behavioral
observations, principles, skills, and triggers, each with a confidence
score and a full mutation history.

Contributions are checked against the existing corpus for likely
contradictions, retrieval ranks by semantic similarity, confidence, and
reinforcement history, and every mutation is recorded in an append-only
ledger.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/insightd/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(contributeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(retrieveCmd)
	rootCmd.AddCommand(reinforceCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(changelogCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(exportCmd)
}

// engine bundles the wired components behind a single-shot CLI invocation.
type engine struct {
	cfg     *config.Config
	logger  *logging.Logger
	store   *store.SQLiteStore
	service *insight.Service
}

// newEngine loads configuration and wires the store, embedding provider,
// and service. The embedding provider is only constructed when credentials
// or an endpoint are configured; without one, every semantic path degrades
// to lexical and fallback behavior.
func newEngine() (*engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	var embedder insight.Embedder
	if cfg.Embeddings.APIKey != "" || cfg.Embeddings.BaseURL != "" {
		provider, err := embeddings.NewProvider(cfg.Embeddings)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("creating embedding provider: %w", err)
		}
		embedder = provider
	} else {
		logger.Debug("no embedding provider configured, semantic ranking disabled")
	}

	return &engine{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		service: insight.NewService(st, embedder, logger),
	}, nil
}

// Close releases the engine's resources.
func (e *engine) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("closing store failed")
	}
	_ = e.logger.Sync()
}
