// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for the intent engine.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "intent-engine"

// Metrics holds all engine Prometheus metrics.
type Metrics struct {
	RecordsIn        prometheus.Counter
	RecordsDropped   *prometheus.CounterVec
	SignalsDecided   *prometheus.CounterVec
	EnrichmentMisses prometheus.Counter
	DuplicatesMerged prometheus.Counter
	PipelineDuration prometheus.Histogram
	ScoringDuration  prometheus.Histogram
	CompaniesPerRun  prometheus.Histogram
}

// Provider wraps the tracer and metrics handed to pipeline components.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics.
func NewProvider() *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	return &Metrics{
		RecordsIn: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intent_engine_records_in_total",
			Help: "Raw records received by the pipeline",
		}),
		RecordsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "intent_engine_records_dropped_total",
			Help: "Malformed records dropped, by reason",
		}, []string{"reason"}),
		SignalsDecided: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "intent_engine_signals_decided_total",
			Help: "Decided signals, by priority tier",
		}, []string{"priority"}),
		EnrichmentMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intent_engine_enrichment_misses_total",
			Help: "Signals that degraded to heuristic-only scoring",
		}),
		DuplicatesMerged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intent_engine_duplicates_merged_total",
			Help: "Signals collapsed by id deduplication",
		}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "intent_engine_pipeline_duration_seconds",
			Help:    "End to end batch run duration",
			Buckets: prometheus.DefBuckets,
		}),
		ScoringDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "intent_engine_scoring_duration_seconds",
			Help:    "Per-signal score computation duration",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		CompaniesPerRun: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "intent_engine_companies_per_run",
			Help:    "Distinct companies aggregated per batch run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// StartRun opens a trace span for a batch run.
func (p *Provider) StartRun(ctx context.Context, records int) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.Int("records_in", records)))
}

// RecordPipeline records the batch run duration.
func (p *Provider) RecordPipeline(d time.Duration) {
	if p == nil {
		return
	}
	p.Metrics.PipelineDuration.Observe(d.Seconds())
}
