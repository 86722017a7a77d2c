// filingd is the long-running ingest daemon: it watches the drop directory
// and registers new source files into their projects.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/outorga-facil/filing-pipeline/internal/ai/gemini"
	"github.com/outorga-facil/filing-pipeline/internal/common"
	"github.com/outorga-facil/filing-pipeline/internal/criteria"
	"github.com/outorga-facil/filing-pipeline/internal/docfmt"
	"github.com/outorga-facil/filing-pipeline/internal/export"
	"github.com/outorga-facil/filing-pipeline/internal/extraction"
	"github.com/outorga-facil/filing-pipeline/internal/ingest"
	"github.com/outorga-facil/filing-pipeline/internal/orchestrator"
	"github.com/outorga-facil/filing-pipeline/internal/pdfgen"
	"github.com/outorga-facil/filing-pipeline/internal/repository"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := common.LoadConfig(os.Getenv("FILING_CONFIG"))
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cfg.Ingest.WatchRoot == "" {
		log.Fatal("FILING_WATCH_ROOT env var is required")
	}

	slogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	store, err := repository.Open(ctx, repository.Config{
		DSN:         cfg.Store.DSN,
		DialTimeout: cfg.Store.DialTimeout,
	}, slogger)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	// Healthcheck store on startup
	if err := store.HealthCheck(ctx, cfg.Store.DialTimeout); err != nil {
		log.Fatalf("store health failed: %v", err)
	}
	log.Infow("store health OK", "dsn", cfg.Store.DSN)

	client := gemini.NewClient(gemini.Config{
		APIKey:         cfg.AI.APIKey,
		BaseURL:        cfg.AI.BaseURL,
		Timeout:        cfg.AI.Timeout,
		RequestsPerMin: cfg.AI.RequestsPerMin,
	}, slogger)

	template, err := export.LoadTemplate(cfg.Export.TemplatePath)
	if err != nil {
		log.Fatalf("loading export template: %v", err)
	}
	rules, err := criteria.LoadRules(cfg.Criteria.RulesPath, slogger)
	if err != nil {
		log.Fatalf("loading rule database: %v", err)
	}

	extractionEngine := extraction.NewEngine(store, docfmt.NewExtractor(slogger), client, cfg.AI.ExtractionModel, slogger)
	criteriaEngine := criteria.NewEngine(store, client, cfg.AI.CriteriaModel, rules, slogger)
	assembler := export.NewAssembler(store, template, pdfgen.NewFormRenderer(cfg.Export.FontDir), pdfgen.NewFileMerger(), cfg.Export.OutputDir, slogger)
	orch := orchestrator.New(store, extractionEngine, criteriaEngine, assembler, template, client, cfg.AI.CriteriaModel, slogger)

	watcher := ingest.NewWatcher(orch, cfg.Ingest.WatchRoot, cfg.Ingest.Debounce, slogger)
	log.Infof("watching %s", cfg.Ingest.WatchRoot)

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("watcher: %v", err)
	}

	log.Info("shutting down...")
	fmt.Println("stopped.")
}
