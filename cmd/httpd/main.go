// The intent engine HTTP server: accepts raw record batches over REST,
// runs the scoring pipeline, and serves stored signals, rules, and stats.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/intent-engine/internal/aggregator"
	"github.com/jonesrussell/intent-engine/internal/api"
	"github.com/jonesrussell/intent-engine/internal/config"
	"github.com/jonesrussell/intent-engine/internal/database"
	"github.com/jonesrussell/intent-engine/internal/decision"
	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/enricher"
	"github.com/jonesrussell/intent-engine/internal/logger"
	"github.com/jonesrussell/intent-engine/internal/normalizer"
	"github.com/jonesrussell/intent-engine/internal/pipeline"
	"github.com/jonesrussell/intent-engine/internal/scorer"
	"github.com/jonesrussell/intent-engine/internal/storage"
	"github.com/jonesrussell/intent-engine/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfgPath := config.GetConfigPath("config.yml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Must(cfg.Logging)
	defer func() { _ = log.Sync() }()

	log.Info("Starting intent engine",
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
	)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to open database", logger.Error(err))
	}
	defer db.Close()

	rulesRepo := database.NewRulesRepository(db)
	signalsRepo := database.NewSignalsRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rulesRepo.Seed(ctx, cfg.Rules); err != nil {
		log.Fatal("Failed to seed decision rules", logger.Error(err))
	}

	tp := telemetry.NewProvider()

	lookup, enrichHealth := buildLookup(cfg, log)

	norm := normalizer.New(log)
	sc := scorer.New(cfg.Scoring, log)
	en := enricher.New(lookup, cfg.Enrichment, log)
	agg := aggregator.New(cfg.Service.TopSignalsLimit, log)

	factory := func(rules []domain.DecisionRule) (*pipeline.Pipeline, error) {
		engine, err := decision.NewEngine(rules, log)
		if err != nil {
			return nil, err
		}
		return pipeline.New(norm, sc, en, agg, engine, tp, cfg.Service.Concurrency, log), nil
	}

	var sink api.SignalSink
	if cfg.Elasticsearch.Enabled {
		esSink, err := buildSink(cfg)
		if err != nil {
			log.Fatal("Failed to create Elasticsearch sink", logger.Error(err))
		}
		if err := esSink.TestConnection(ctx); err != nil {
			log.Warn("Elasticsearch unreachable, continuing without sink", logger.Error(err))
		} else {
			sink = esSink
		}
	}

	handler := api.NewHandler(factory, rulesRepo, signalsRepo, agg, sink, enrichHealth, log)
	server := api.NewServer(handler, cfg, tp.Handler())

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", server.Addr()))
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("Server failed", logger.Error(err))
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Shutdown failed", logger.Error(err))
		}
	}
}

func buildLookup(cfg *config.Config, log logger.Logger) (enricher.Lookup, api.EnrichmentHealth) {
	if cfg.Enrichment.ServiceURL == "" {
		log.Info("Enrichment disabled, running heuristic-only")
		return enricher.NoLookup, nil
	}
	client := enricher.NewClient(cfg.Enrichment)
	return client, client
}

func buildSink(cfg *config.Config) (*storage.ElasticsearchSink, error) {
	client, err := es.NewClient(es.Config{
		Addresses: []string{cfg.Elasticsearch.URL},
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
	})
	if err != nil {
		return nil, err
	}
	return storage.NewElasticsearchSink(client), nil
}
