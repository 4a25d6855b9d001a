package enricher_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jonesrussell/intent-engine/internal/config"
	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/enricher"
	"github.com/jonesrussell/intent-engine/internal/logger"
)

func enrichCfg() config.EnrichmentConfig {
	return config.EnrichmentConfig{
		SentimentThreshold: 0.5,
		IntentThreshold:    0.5,
	}
}

func scoredSignal() *domain.Signal {
	return &domain.Signal{
		ID:              "sig-1",
		Company:         "Acme",
		CompanyKey:      "acme",
		SourceType:      domain.SourceNewsMedia,
		Title:           "Acme raises funding",
		SignalStrength:  7,
		ConfidenceLevel: 0.9,
		SentimentScore:  0.2,
		RelevanceScore:  7,
		IntentLabel:     domain.IntentUnknown,
		Entities:        []string{},
		State:           domain.StateScored,
	}
}

func fixedLookup(bundle *domain.EnrichmentBundle, err error) enricher.Lookup {
	return enricher.LookupFunc(func(context.Context, string) (*domain.EnrichmentBundle, error) {
		return bundle, err
	})
}

func TestEnrich_SentimentOverride(t *testing.T) {
	testCases := []struct {
		name   string
		bundle domain.EnrichmentBundle
		want   float64
	}{
		{
			name: "positive replaces lexical estimate",
			bundle: domain.EnrichmentBundle{
				SentimentLabel:      domain.SentimentPositive,
				SentimentConfidence: 0.92,
			},
			want: 0.92,
		},
		{
			name: "negative is signed",
			bundle: domain.EnrichmentBundle{
				SentimentLabel:      domain.SentimentNegative,
				SentimentConfidence: 0.8,
			},
			want: -0.8,
		},
		{
			name: "neutral zeroes the score",
			bundle: domain.EnrichmentBundle{
				SentimentLabel:      domain.SentimentNeutral,
				SentimentConfidence: 0.7,
			},
			want: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bundle := tc.bundle
			e := enricher.New(fixedLookup(&bundle, nil), enrichCfg(), logger.NewNop())

			sig := scoredSignal()
			applied, err := e.Enrich(context.Background(), sig)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !applied {
				t.Fatal("expected enrichment to apply")
			}
			if sig.SentimentScore != tc.want {
				t.Errorf("expected sentiment %v, got %v", tc.want, sig.SentimentScore)
			}
			if !sig.Enriched {
				t.Error("expected enriched flag set")
			}
		})
	}
}

func TestEnrich_BelowThresholdKeepsHeuristic(t *testing.T) {
	bundle := &domain.EnrichmentBundle{
		SentimentLabel:      domain.SentimentNegative,
		SentimentConfidence: 0.4,
		IntentLabel:         "buying",
		IntentConfidence:    0.3,
	}
	e := enricher.New(fixedLookup(bundle, nil), enrichCfg(), logger.NewNop())

	sig := scoredSignal()
	applied, err := e.Enrich(context.Background(), sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Error("low-confidence bundle must not apply")
	}
	if sig.SentimentScore != 0.2 {
		t.Errorf("lexical sentiment must survive, got %v", sig.SentimentScore)
	}
	if sig.IntentLabel != domain.IntentUnknown {
		t.Errorf("intent label must stay unknown, got %q", sig.IntentLabel)
	}
	if sig.Enriched {
		t.Error("enriched flag must stay false")
	}
}

func TestEnrich_IntentAndEntities(t *testing.T) {
	bundle := &domain.EnrichmentBundle{
		IntentLabel:      "buying",
		IntentConfidence: 0.85,
		Entities:         []string{"Salesforce", "Q3"},
	}
	e := enricher.New(fixedLookup(bundle, nil), enrichCfg(), logger.NewNop())

	sig := scoredSignal()
	applied, err := e.Enrich(context.Background(), sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Fatal("expected enrichment to apply")
	}
	if sig.IntentLabel != domain.IntentBuying {
		t.Errorf("expected buying intent, got %q", sig.IntentLabel)
	}
	if len(sig.Entities) != 2 {
		t.Errorf("expected 2 entities, got %v", sig.Entities)
	}
}

func TestEnrich_UnknownIntentLabelIgnored(t *testing.T) {
	bundle := &domain.EnrichmentBundle{
		IntentLabel:      "window_shopping",
		IntentConfidence: 0.99,
	}
	e := enricher.New(fixedLookup(bundle, nil), enrichCfg(), logger.NewNop())

	sig := scoredSignal()
	applied, err := e.Enrich(context.Background(), sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Error("unrecognized label must not count as applied")
	}
	if sig.IntentLabel != domain.IntentUnknown {
		t.Errorf("expected unknown intent, got %q", sig.IntentLabel)
	}
}

func TestEnrich_UnavailableDegradesGracefully(t *testing.T) {
	failures := []error{
		fmt.Errorf("service call: %w", domain.ErrEnrichmentUnavailable),
		context.DeadlineExceeded,
	}

	for _, failure := range failures {
		e := enricher.New(fixedLookup(nil, failure), enrichCfg(), logger.NewNop())

		sig := scoredSignal()
		applied, err := e.Enrich(context.Background(), sig)
		if err != nil {
			t.Errorf("%v: expected graceful degradation, got error %v", failure, err)
		}
		if applied {
			t.Errorf("%v: nothing should apply on failure", failure)
		}
		if sig.Enriched {
			t.Errorf("%v: enriched flag must stay false", failure)
		}
	}
}

func TestEnrich_UnexpectedErrorSurfaces(t *testing.T) {
	boom := errors.New("corrupted response")
	e := enricher.New(fixedLookup(nil, boom), enrichCfg(), logger.NewNop())

	_, err := e.Enrich(context.Background(), scoredSignal())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped lookup error, got %v", err)
	}
}

func TestEnrich_NoLookupKeepsHeuristic(t *testing.T) {
	e := enricher.New(enricher.NoLookup, enrichCfg(), logger.NewNop())

	sig := scoredSignal()
	applied, err := e.Enrich(context.Background(), sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Error("NoLookup must never apply enrichment")
	}
}

func TestEnrich_RejectsWrongState(t *testing.T) {
	e := enricher.New(enricher.NoLookup, enrichCfg(), logger.NewNop())

	sig := scoredSignal()
	sig.State = domain.StateUnscored
	if _, err := e.Enrich(context.Background(), sig); err == nil {
		t.Error("expected error enriching an unscored signal")
	}
}
