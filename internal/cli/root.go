// Package cli provides the command-line interface for the intake assistant.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/carelog/intake-go/internal/config"
	"github.com/carelog/intake-go/internal/knowledge"
	"github.com/carelog/intake-go/internal/llm"
	"github.com/carelog/intake-go/internal/meds"
	"github.com/carelog/intake-go/internal/metrics"
	"github.com/carelog/intake-go/internal/models"
	"github.com/carelog/intake-go/internal/orchestrator"
	"github.com/carelog/intake-go/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configFile string

	// Shared runtime state built in PersistentPreRunE
	cfg       config.Config
	logger    *slog.Logger
	logClose  func() error
	threads   store.ThreadStore
	surreal   *store.SurrealStore
	collector *metrics.Collector
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Patient symptom intake assistant",
	Long: `Intake is a conversational assistant that documents patient symptoms
ahead of a doctor's visit.

It extracts symptoms from free-text messages, deduplicates them into a
structured ledger, asks targeted follow-up questions, and can read
medication labels from photos. Sessions are persisted so a conversation
can be resumed at any time.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.LoadWithFile(configFile)
		if err != nil {
			return err
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logClose = config.SetupLogger(cfg.LogFile, level)
		collector = metrics.NewCollector()

		// An empty database URL selects the in-memory store, which lives
		// only for the duration of the process.
		if cfg.SurrealDBURL == "" {
			threads = store.NewMemoryStore()
			logger.Info("using in-memory thread store")
			return nil
		}

		ctx := context.Background()
		surreal, err = store.NewSurrealStore(ctx, store.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		if err := surreal.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
		threads = surreal

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if surreal != nil {
			if err := surreal.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logClose != nil {
			_ = logClose()
		}
	},
}

// getOrchestrator wires the LLM ports and medication pipeline lazily, so
// commands that never generate text (like listing threads) start without
// provider credentials.
func getOrchestrator() (*orchestrator.Orchestrator, error) {
	model, err := llm.NewModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("init model: %w", err)
	}

	pipeline := meds.NewPipeline(
		meds.TesseractOCR{Cmd: cfg.TesseractCmd},
		model,
		cfg.LabelDir,
		logger,
		collector,
	)

	matcher := models.NewMatcher(knowledge.Synonyms)
	if len(cfg.Modifiers) > 0 {
		matcher.Modifiers = cfg.Modifiers
	}

	opts := orchestrator.Options{
		CompletionThreshold:  cfg.CompletionThreshold,
		MaxFollowUps:         cfg.MaxFollowUps,
		MaxFieldsPerQuestion: cfg.MaxFieldsPerQuestion,
	}

	return orchestrator.New(
		threads,
		llm.NewExtractor(model),
		llm.NewGenerator(model),
		pipeline,
		matcher,
		opts,
		logger,
		collector,
	), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "intake.yaml", "config file path")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(threadsCmd)
	rootCmd.AddCommand(summaryCmd)
}
