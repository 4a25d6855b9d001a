// Package aggregator deduplicates signals and computes the per-company
// roll-up statistics consumed by the report assembler.
package aggregator

import (
	"sort"

	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/logger"
)

// Aggregator groups decided signals by company. All signals for a company
// must be present before Aggregate runs; the pipeline treats this step as a
// barrier.
type Aggregator struct {
	topSignalsLimit int
	logger          logger.Logger
}

// New creates an Aggregator. limit bounds the top_signals list per company
// (<=0 falls back to 10).
func New(limit int, log logger.Logger) *Aggregator {
	if limit <= 0 {
		limit = 10
	}
	return &Aggregator{topSignalsLimit: limit, logger: log}
}

// Deduplicate collapses signals with identical ids, keeping the first seen
// and merging raw metrics by max where keys overlap. Input order is
// preserved for the surviving signals.
func (a *Aggregator) Deduplicate(signals []*domain.Signal) []*domain.Signal {
	seen := make(map[string]*domain.Signal, len(signals))
	out := make([]*domain.Signal, 0, len(signals))

	for _, sig := range signals {
		first, ok := seen[sig.ID]
		if !ok {
			seen[sig.ID] = sig
			out = append(out, sig)
			continue
		}
		mergeMetrics(first, sig)
	}

	if dropped := len(signals) - len(out); dropped > 0 {
		a.logger.Debug("duplicate signals collapsed", logger.Int("dropped", dropped))
	}

	return out
}

// Aggregate groups signals by canonical company key and computes the
// roll-up for each group. Aggregates are returned sorted by company key so
// output is deterministic run to run.
func (a *Aggregator) Aggregate(signals []*domain.Signal) []*domain.CompanyAggregate {
	groups := make(map[string][]*domain.Signal)
	for _, sig := range signals {
		groups[sig.CompanyKey] = append(groups[sig.CompanyKey], sig)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	aggregates := make([]*domain.CompanyAggregate, 0, len(keys))
	for _, key := range keys {
		aggregates = append(aggregates, a.buildAggregate(key, groups[key]))
	}

	return aggregates
}

func (a *Aggregator) buildAggregate(key string, group []*domain.Signal) *domain.CompanyAggregate {
	agg := &domain.CompanyAggregate{
		Company:     group[0].Company,
		CompanyKey:  key,
		SignalCount: len(group),
	}

	var confidenceSum float64
	sources := make(map[domain.SourceType]bool)
	for _, sig := range group {
		if sig.SignalStrength > agg.MaxStrength {
			agg.MaxStrength = sig.SignalStrength
		}
		confidenceSum += sig.ConfidenceLevel
		sources[sig.SourceType] = true
	}
	agg.MeanConfidence = confidenceSum / float64(len(group))

	for source := range sources {
		agg.DistinctSourceTypes = append(agg.DistinctSourceTypes, string(source))
	}
	sort.Strings(agg.DistinctSourceTypes)

	agg.TopSignals = topSignals(group, a.topSignalsLimit)

	return agg
}

// topSignals orders a company's signals by (strength desc, published_at
// desc, id asc) and truncates. The three-key sort is a total order: no two
// distinct signals compare equal, and a missing timestamp sorts last within
// equal strength.
func topSignals(group []*domain.Signal, limit int) []*domain.Signal {
	top := make([]*domain.Signal, len(group))
	copy(top, group)

	sort.Slice(top, func(i, j int) bool {
		if top[i].SignalStrength != top[j].SignalStrength {
			return top[i].SignalStrength > top[j].SignalStrength
		}
		ti, tj := top[i].PublishedAt, top[j].PublishedAt
		switch {
		case ti != nil && tj != nil && !ti.Equal(*tj):
			return ti.After(*tj)
		case ti != nil && tj == nil:
			return true
		case ti == nil && tj != nil:
			return false
		}
		return top[i].ID < top[j].ID
	})

	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

func mergeMetrics(dst, src *domain.Signal) {
	if len(src.RawMetrics) == 0 {
		return
	}
	if dst.RawMetrics == nil {
		dst.RawMetrics = make(map[string]float64, len(src.RawMetrics))
	}
	for key, val := range src.RawMetrics {
		if existing, ok := dst.RawMetrics[key]; !ok || val > existing {
			dst.RawMetrics[key] = val
		}
	}
}
