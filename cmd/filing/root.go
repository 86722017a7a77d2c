package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/outorga-facil/filing-pipeline/internal/ai/gemini"
	"github.com/outorga-facil/filing-pipeline/internal/common"
	"github.com/outorga-facil/filing-pipeline/internal/criteria"
	"github.com/outorga-facil/filing-pipeline/internal/docfmt"
	"github.com/outorga-facil/filing-pipeline/internal/export"
	"github.com/outorga-facil/filing-pipeline/internal/extraction"
	"github.com/outorga-facil/filing-pipeline/internal/orchestrator"
	"github.com/outorga-facil/filing-pipeline/internal/pdfgen"
	"github.com/outorga-facil/filing-pipeline/internal/repository"
)

var (
	cfgFile string
	verbose bool
)

// app holds the wired pipeline shared by all commands.
type app struct {
	cfg    *common.Config
	store  *repository.Store
	client *gemini.Client
	orch   *orchestrator.Orchestrator
	logger *slog.Logger
}

var current *app

var rootCmd = &cobra.Command{
	Use:   "filing",
	Short: "Assemble community radio licence filings",
	Long: `filing runs the extraction, verification and export pipeline for
community radio licence requests: AI-assisted extraction of source
documents, compliance checking against the rule database, and assembly of
the final signed PDF package.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current != nil && current.store != nil {
			current.store.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func buildApp(ctx context.Context) (*app, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := common.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	store, err := repository.Open(ctx, repository.Config{
		DSN:         cfg.Store.DSN,
		DialTimeout: cfg.Store.DialTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	client := gemini.NewClient(gemini.Config{
		APIKey:         cfg.AI.APIKey,
		BaseURL:        cfg.AI.BaseURL,
		Timeout:        cfg.AI.Timeout,
		RequestsPerMin: cfg.AI.RequestsPerMin,
	}, logger)

	template, err := export.LoadTemplate(cfg.Export.TemplatePath)
	if err != nil {
		store.Close()
		return nil, err
	}
	rules, err := criteria.LoadRules(cfg.Criteria.RulesPath, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	extractionEngine := extraction.NewEngine(store, docfmt.NewExtractor(logger), client, cfg.AI.ExtractionModel, logger)
	criteriaEngine := criteria.NewEngine(store, client, cfg.AI.CriteriaModel, rules, logger)
	assembler := export.NewAssembler(store, template, pdfgen.NewFormRenderer(cfg.Export.FontDir), pdfgen.NewFileMerger(), cfg.Export.OutputDir, logger)

	orch := orchestrator.New(store, extractionEngine, criteriaEngine, assembler, template, client, cfg.AI.CriteriaModel, logger)
	return &app{cfg: cfg, store: store, client: client, orch: orch, logger: logger}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
