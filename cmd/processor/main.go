// The batch processor: reads a JSON file of raw records, runs the scoring
// pipeline once, persists the decided signals, and writes CSV reports.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/intent-engine/internal/aggregator"
	"github.com/jonesrussell/intent-engine/internal/config"
	"github.com/jonesrussell/intent-engine/internal/database"
	"github.com/jonesrussell/intent-engine/internal/decision"
	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/enricher"
	"github.com/jonesrussell/intent-engine/internal/export"
	"github.com/jonesrussell/intent-engine/internal/logger"
	"github.com/jonesrussell/intent-engine/internal/normalizer"
	"github.com/jonesrussell/intent-engine/internal/pipeline"
	"github.com/jonesrussell/intent-engine/internal/scorer"
	"github.com/jonesrussell/intent-engine/internal/storage"
	"github.com/jonesrussell/intent-engine/internal/telemetry"
)

func main() {
	var (
		inputPath     = flag.String("input", "", "path to JSON file of raw records")
		signalsOut    = flag.String("signals-out", "signals.csv", "path for the signals CSV report")
		companiesOut  = flag.String("companies-out", "companies.csv", "path for the company aggregates CSV report")
		skipPersist   = flag.Bool("no-persist", false, "skip writing signals to SQLite")
		configDefault = config.GetConfigPath("config.yml")
	)
	cfgPath := flag.String("config", configDefault, "path to config file")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: processor -input records.json [-signals-out signals.csv] [-companies-out companies.csv]")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	log := logger.Must(cfg.Logging)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *inputPath, *signalsOut, *companiesOut, *skipPersist); err != nil {
		log.Fatal("Batch run failed", logger.Error(err))
	}
}

func run(
	ctx context.Context,
	cfg *config.Config,
	log logger.Logger,
	inputPath, signalsOut, companiesOut string,
	skipPersist bool,
) error {
	records, err := readRecords(inputPath)
	if err != nil {
		return err
	}
	log.Info("Loaded raw records",
		logger.String("input", inputPath),
		logger.Int("count", len(records)),
	)

	engine, err := decision.NewEngine(cfg.Rules, log)
	if err != nil {
		return fmt.Errorf("build decision engine: %w", err)
	}

	var lookup enricher.Lookup = enricher.NoLookup
	if cfg.Enrichment.ServiceURL != "" {
		lookup = enricher.NewClient(cfg.Enrichment)
	}

	pipe := pipeline.New(
		normalizer.New(log),
		scorer.New(cfg.Scoring, log),
		enricher.New(lookup, cfg.Enrichment, log),
		aggregator.New(cfg.Service.TopSignalsLimit, log),
		engine,
		telemetry.NewProvider(),
		cfg.Service.Concurrency,
		log,
	)

	result, err := pipe.Run(ctx, records)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	if !skipPersist {
		if err := persist(ctx, cfg, result); err != nil {
			return err
		}
	}

	if cfg.Elasticsearch.Enabled {
		if err := indexResult(ctx, cfg, result); err != nil {
			log.Warn("Dashboard indexing failed", logger.Error(err))
		}
	}

	if err := writeReport(signalsOut, func(f *os.File) error {
		return export.WriteSignals(f, result.Signals)
	}); err != nil {
		return err
	}
	if err := writeReport(companiesOut, func(f *os.File) error {
		return export.WriteAggregates(f, result.Aggregates)
	}); err != nil {
		return err
	}

	s := result.Summary
	log.Info("Batch run complete",
		logger.Int("records_in", s.RecordsIn),
		logger.Int("records_dropped", s.RecordsDropped),
		logger.Int("duplicates_merged", s.DuplicatesMerged),
		logger.Int("enrichment_misses", s.EnrichmentMisses),
		logger.Int("companies", s.Companies),
		logger.Int64("duration_ms", s.DurationMs),
		logger.Any("tier_counts", s.TierCounts),
		logger.Any("source_counts", s.SourceCounts),
		logger.Any("top_companies", s.TopCompanies),
	)
	return nil
}

func readRecords(path string) ([]domain.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var records []domain.RawRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

func persist(ctx context.Context, cfg *config.Config, result *pipeline.Result) error {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	repo := database.NewSignalsRepository(db)
	if err := repo.SaveBatch(ctx, result.Signals); err != nil {
		return fmt.Errorf("persist signals: %w", err)
	}

	s := result.Summary
	if err := repo.SaveRunSummary(ctx,
		s.StartedAt, s.DurationMs,
		s.RecordsIn, s.RecordsDropped, s.DuplicatesMerged, s.EnrichmentMisses, s.Companies,
		s.TierCounts,
	); err != nil {
		return fmt.Errorf("persist run summary: %w", err)
	}
	return nil
}

func indexResult(ctx context.Context, cfg *config.Config, result *pipeline.Result) error {
	client, err := es.NewClient(es.Config{
		Addresses: []string{cfg.Elasticsearch.URL},
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
	})
	if err != nil {
		return fmt.Errorf("create elasticsearch client: %w", err)
	}

	sink := storage.NewElasticsearchSink(client)
	if err := sink.BulkIndexSignals(ctx, result.Signals); err != nil {
		return err
	}
	return sink.BulkIndexAggregates(ctx, result.Aggregates)
}

func writeReport(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
