// Package enricher merges externally computed NLP outputs into scored
// signals. Enrichment is an optional, fallible dependency: absence or
// failure degrades the signal to heuristic-only scoring, never fails it.
package enricher

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/intent-engine/internal/config"
	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/logger"
)

// Lookup resolves a signal id to its enrichment bundle. Implementations
// must be synchronous from the engine's viewpoint: a completed bundle, nil
// for "no enrichment", or an error wrapping
// domain.ErrEnrichmentUnavailable when the boundary is down.
type Lookup interface {
	Lookup(ctx context.Context, signalID string) (*domain.EnrichmentBundle, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, signalID string) (*domain.EnrichmentBundle, error)

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, signalID string) (*domain.EnrichmentBundle, error) {
	return f(ctx, signalID)
}

// NoLookup is the explicit "no enrichment available" lookup. Every signal
// stays heuristic-only.
var NoLookup = LookupFunc(func(context.Context, string) (*domain.EnrichmentBundle, error) {
	return nil, nil
})

// Enricher applies enrichment bundles to scored signals.
type Enricher struct {
	lookup             Lookup
	sentimentThreshold float64
	intentThreshold    float64
	logger             logger.Logger
}

// New creates an Enricher. A nil lookup means enrichment is disabled and
// all signals keep their heuristic scores.
func New(lookup Lookup, cfg config.EnrichmentConfig, log logger.Logger) *Enricher {
	if lookup == nil {
		lookup = NoLookup
	}
	return &Enricher{
		lookup:             lookup,
		sentimentThreshold: cfg.SentimentThreshold,
		intentThreshold:    cfg.IntentThreshold,
		logger:             log,
	}
}

// Enrich looks up and merges the enrichment bundle for a scored signal.
// The returned bool reports whether a bundle was applied. Lookup failure is
// logged and swallowed: the scorer's defaults already satisfy the output
// validity invariant.
func (e *Enricher) Enrich(ctx context.Context, sig *domain.Signal) (bool, error) {
	if sig.State != domain.StateScored {
		return false, fmt.Errorf("signal %s: cannot enrich in state %q", sig.ID, sig.State)
	}

	bundle, err := e.lookup.Lookup(ctx, sig.ID)
	if err != nil {
		if errors.Is(err, domain.ErrEnrichmentUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			e.logger.Warn("enrichment unavailable, keeping heuristic scores",
				logger.String("signal_id", sig.ID),
				logger.Error(err),
			)
			return false, nil
		}
		return false, fmt.Errorf("enrichment lookup: %w", err)
	}
	if bundle == nil {
		return false, nil
	}

	e.apply(sig, bundle)
	return sig.Enriched, nil
}

// apply merges one bundle into the signal. Enriched sentiment fully
// overrides the lexical estimate when its confidence clears the threshold;
// there is no blending.
func (e *Enricher) apply(sig *domain.Signal, bundle *domain.EnrichmentBundle) {
	applied := false

	if bundle.SentimentConfidence >= e.sentimentThreshold {
		switch bundle.SentimentLabel {
		case domain.SentimentPositive:
			sig.SentimentScore = bundle.SentimentConfidence
			applied = true
		case domain.SentimentNegative:
			sig.SentimentScore = -bundle.SentimentConfidence
			applied = true
		case domain.SentimentNeutral:
			sig.SentimentScore = 0
			applied = true
		}
	}

	if bundle.IntentConfidence >= e.intentThreshold {
		if label := parseIntentLabel(bundle.IntentLabel); label != domain.IntentUnknown {
			sig.IntentLabel = label
			applied = true
		}
	}

	if len(bundle.Entities) > 0 {
		sig.Entities = append(sig.Entities, bundle.Entities...)
		applied = true
	}

	sig.Enriched = applied
}

func parseIntentLabel(label string) domain.IntentLabel {
	switch domain.IntentLabel(label) {
	case domain.IntentBuying, domain.IntentResearch, domain.IntentComparison:
		return domain.IntentLabel(label)
	default:
		return domain.IntentUnknown
	}
}
