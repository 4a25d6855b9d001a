package telemetry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonesrussell/intent-engine/internal/telemetry"
)

// promauto registers against the global Prometheus registry, so a second
// Provider in the same test binary would panic on duplicate registration.
var (
	testProvider *telemetry.Provider
	providerOnce sync.Once
)

func getTestProvider(t *testing.T) *telemetry.Provider {
	t.Helper()
	providerOnce.Do(func() {
		testProvider = telemetry.NewProvider()
	})
	return testProvider
}

func TestNewProvider(t *testing.T) {
	provider := getTestProvider(t)
	if provider == nil {
		t.Fatal("expected non-nil provider")
	}
	if provider.Tracer == nil {
		t.Error("expected non-nil tracer")
	}
	if provider.Metrics == nil {
		t.Error("expected non-nil metrics")
	}
}

func TestHandler(t *testing.T) {
	provider := getTestProvider(t)
	if provider.Handler() == nil {
		t.Error("expected non-nil metrics handler")
	}
}

func TestStartRun(t *testing.T) {
	provider := getTestProvider(t)

	ctx, span := provider.StartRun(context.Background(), 25)
	if ctx == nil {
		t.Error("expected non-nil context")
	}
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	span.End()
}

func TestRecordPipeline(t *testing.T) {
	provider := getTestProvider(t)

	// Should not panic
	provider.RecordPipeline(100 * time.Millisecond)

	var nilProvider *telemetry.Provider
	nilProvider.RecordPipeline(time.Second)
}

func TestCounters(t *testing.T) {
	provider := getTestProvider(t)

	// Should not panic
	provider.Metrics.RecordsIn.Add(10)
	provider.Metrics.RecordsDropped.WithLabelValues("missing_company").Inc()
	provider.Metrics.SignalsDecided.WithLabelValues("high").Inc()
	provider.Metrics.EnrichmentMisses.Inc()
	provider.Metrics.DuplicatesMerged.Inc()
	provider.Metrics.CompaniesPerRun.Observe(7)
	provider.Metrics.ScoringDuration.Observe(0.002)
}
