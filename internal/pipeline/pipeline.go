// Package pipeline orchestrates the batch transformation:
// normalize -> score -> enrich -> deduplicate -> decide -> aggregate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/intent-engine/internal/aggregator"
	"github.com/jonesrussell/intent-engine/internal/decision"
	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/enricher"
	"github.com/jonesrussell/intent-engine/internal/logger"
	"github.com/jonesrussell/intent-engine/internal/normalizer"
	"github.com/jonesrussell/intent-engine/internal/scorer"
	"github.com/jonesrussell/intent-engine/internal/telemetry"
)

const defaultConcurrency = 8

// Pipeline wires the stages together. Each signal is processed
// independently by the worker pool; aggregation runs as a barrier once
// every signal is decided.
type Pipeline struct {
	normalizer  *normalizer.Normalizer
	scorer      *scorer.Scorer
	enricher    *enricher.Enricher
	aggregator  *aggregator.Aggregator
	engine      *decision.Engine
	telemetry   *telemetry.Provider
	concurrency int
	logger      logger.Logger
}

// Result is the pipeline output handed to the report assembler: the
// decided signal set and company aggregates, both deterministically
// ordered, plus the run accounting.
type Result struct {
	Signals    []*domain.Signal           `json:"signals"`
	Aggregates []*domain.CompanyAggregate `json:"aggregates"`
	Summary    RunSummary                 `json:"summary"`
}

// RunSummary is the user-visible accounting for one batch run.
type RunSummary struct {
	StartedAt        time.Time      `json:"started_at"`
	DurationMs       int64          `json:"duration_ms"`
	RecordsIn        int            `json:"records_in"`
	RecordsDropped   int            `json:"records_dropped"`
	DropReasons      map[string]int `json:"drop_reasons,omitempty"`
	DuplicatesMerged int            `json:"duplicates_merged"`
	EnrichmentMisses int            `json:"enrichment_misses"`
	TierCounts       map[string]int `json:"tier_counts"`
	Companies        int            `json:"companies"`

	// Per-source breakdown over the decided signal set.
	SourceCounts       map[string]int     `json:"source_counts"`
	SourceMeanStrength map[string]float64 `json:"source_mean_strength"`

	// TopCompanies lists company keys ordered by max signal strength, then
	// signal count, then key.
	TopCompanies []string `json:"top_companies,omitempty"`
}

const topCompaniesLimit = 5

// New creates a Pipeline. tp may be nil to disable telemetry.
func New(
	norm *normalizer.Normalizer,
	sc *scorer.Scorer,
	en *enricher.Enricher,
	agg *aggregator.Aggregator,
	engine *decision.Engine,
	tp *telemetry.Provider,
	concurrency int,
	log logger.Logger,
) *Pipeline {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Pipeline{
		normalizer:  norm,
		scorer:      sc,
		enricher:    en,
		aggregator:  agg,
		engine:      engine,
		telemetry:   tp,
		concurrency: concurrency,
		logger:      log,
	}
}

type itemResult struct {
	signal   *domain.Signal
	dropped  *domain.MalformedRecordError
	enriched bool
	err      error
}

// Run processes a finite batch of raw records and returns the decided
// signal set, aggregates, and run summary. Malformed records are dropped
// and counted, never aborting the batch; a *domain.NoRuleMatchedError or
// any other stage failure aborts the run since it indicates a bug, not a
// data problem.
func (p *Pipeline) Run(ctx context.Context, records []domain.RawRecord) (*Result, error) {
	start := time.Now()

	if p.telemetry != nil {
		var span trace.Span
		ctx, span = p.telemetry.StartRun(ctx, len(records))
		defer span.End()
		p.telemetry.Metrics.RecordsIn.Add(float64(len(records)))
	}

	p.logger.Info("batch run started",
		logger.Int("records_in", len(records)),
		logger.Int("concurrency", p.concurrency),
	)

	results := p.processAll(ctx, records)

	summary := RunSummary{
		StartedAt:          start,
		RecordsIn:          len(records),
		DropReasons:        make(map[string]int),
		TierCounts:         make(map[string]int),
		SourceCounts:       make(map[string]int),
		SourceMeanStrength: make(map[string]float64),
	}

	signals := make([]*domain.Signal, 0, len(results))
	for _, res := range results {
		switch {
		case res.err != nil:
			return nil, res.err
		case res.dropped != nil:
			summary.RecordsDropped++
			summary.DropReasons[res.dropped.Reason]++
			if p.telemetry != nil {
				p.telemetry.Metrics.RecordsDropped.WithLabelValues(res.dropped.Reason).Inc()
			}
		default:
			if !res.enriched {
				summary.EnrichmentMisses++
				if p.telemetry != nil {
					p.telemetry.Metrics.EnrichmentMisses.Inc()
				}
			}
			signals = append(signals, res.signal)
		}
	}

	// Aggregation barrier: every surviving signal is present before
	// deduplication, decisions, and company statistics run.
	deduped := p.aggregator.Deduplicate(signals)
	summary.DuplicatesMerged = len(signals) - len(deduped)
	if p.telemetry != nil && summary.DuplicatesMerged > 0 {
		p.telemetry.Metrics.DuplicatesMerged.Add(float64(summary.DuplicatesMerged))
	}

	for _, sig := range deduped {
		if err := p.engine.Decide(sig); err != nil {
			var noRule *domain.NoRuleMatchedError
			if errors.As(err, &noRule) {
				return nil, err
			}
			return nil, fmt.Errorf("decide signal %s: %w", sig.ID, err)
		}
		summary.TierCounts[string(sig.PriorityLevel)]++
		if p.telemetry != nil {
			p.telemetry.Metrics.SignalsDecided.WithLabelValues(string(sig.PriorityLevel)).Inc()
		}
	}

	strengthSums := make(map[string]int)
	for _, sig := range deduped {
		source := string(sig.SourceType)
		summary.SourceCounts[source]++
		strengthSums[source] += sig.SignalStrength
	}
	for source, n := range summary.SourceCounts {
		summary.SourceMeanStrength[source] = float64(strengthSums[source]) / float64(n)
	}

	aggregates := p.aggregator.Aggregate(deduped)
	summary.Companies = len(aggregates)
	summary.TopCompanies = topCompanies(aggregates)
	sortDecided(deduped)

	summary.DurationMs = time.Since(start).Milliseconds()
	if p.telemetry != nil {
		p.telemetry.RecordPipeline(time.Since(start))
		p.telemetry.Metrics.CompaniesPerRun.Observe(float64(len(aggregates)))
	}

	p.logger.Info("batch run complete",
		logger.Int("records_in", summary.RecordsIn),
		logger.Int("records_dropped", summary.RecordsDropped),
		logger.Int("duplicates_merged", summary.DuplicatesMerged),
		logger.Int("enrichment_misses", summary.EnrichmentMisses),
		logger.Int("companies", summary.Companies),
		logger.Int64("duration_ms", summary.DurationMs),
	)

	return &Result{Signals: deduped, Aggregates: aggregates, Summary: summary}, nil
}

// processAll runs the per-signal stages across a worker pool. Results come
// back in input order so dedup keep-first semantics stay deterministic.
func (p *Pipeline) processAll(ctx context.Context, records []domain.RawRecord) []itemResult {
	results := make([]itemResult, len(records))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				select {
				case <-ctx.Done():
					results[idx] = itemResult{err: ctx.Err()}
					continue
				default:
				}
				results[idx] = p.processRecord(ctx, records[idx])
			}
		}()
	}

	for i := range records {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (p *Pipeline) processRecord(ctx context.Context, rec domain.RawRecord) itemResult {
	sig, err := p.normalizer.Normalize(rec)
	if err != nil {
		var malformed *domain.MalformedRecordError
		if errors.As(err, &malformed) {
			p.logger.Warn("dropping malformed record",
				logger.String("source_type", string(malformed.SourceType)),
				logger.String("company", malformed.Company),
				logger.String("native_id", malformed.NativeID),
				logger.String("reason", malformed.Reason),
			)
			return itemResult{dropped: malformed}
		}
		return itemResult{err: fmt.Errorf("normalize record: %w", err)}
	}

	scoreStart := time.Now()
	if err := p.scorer.Score(sig); err != nil {
		return itemResult{err: err}
	}
	if p.telemetry != nil {
		p.telemetry.Metrics.ScoringDuration.Observe(time.Since(scoreStart).Seconds())
	}

	enriched, err := p.enricher.Enrich(ctx, sig)
	if err != nil {
		return itemResult{err: err}
	}

	return itemResult{signal: sig, enriched: enriched}
}

// topCompanies ranks aggregates by max strength, signal count, then key.
func topCompanies(aggregates []*domain.CompanyAggregate) []string {
	ranked := make([]*domain.CompanyAggregate, len(aggregates))
	copy(ranked, aggregates)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].MaxStrength != ranked[j].MaxStrength {
			return ranked[i].MaxStrength > ranked[j].MaxStrength
		}
		if ranked[i].SignalCount != ranked[j].SignalCount {
			return ranked[i].SignalCount > ranked[j].SignalCount
		}
		return ranked[i].CompanyKey < ranked[j].CompanyKey
	})

	if len(ranked) > topCompaniesLimit {
		ranked = ranked[:topCompaniesLimit]
	}
	keys := make([]string, 0, len(ranked))
	for _, agg := range ranked {
		keys = append(keys, agg.CompanyKey)
	}
	return keys
}

// sortDecided orders the output signal set for the detailed export:
// priority tier first, then strength, then id for a total order.
func sortDecided(signals []*domain.Signal) {
	rank := map[domain.PriorityLevel]int{
		domain.PriorityHigh:   0,
		domain.PriorityMedium: 1,
		domain.PriorityLow:    2,
	}
	sort.Slice(signals, func(i, j int) bool {
		if rank[signals[i].PriorityLevel] != rank[signals[j].PriorityLevel] {
			return rank[signals[i].PriorityLevel] < rank[signals[j].PriorityLevel]
		}
		if signals[i].SignalStrength != signals[j].SignalStrength {
			return signals[i].SignalStrength > signals[j].SignalStrength
		}
		return signals[i].ID < signals[j].ID
	})
}
