// Package export flattens decided signals and company aggregates into CSV
// for spreadsheet handoff to sales teams.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jonesrussell/intent-engine/internal/domain"
)

var signalHeader = []string{
	"id", "company", "company_key", "source_type", "title",
	"published_at", "signal_strength", "confidence_level",
	"sentiment_score", "relevance_score", "engagement_score",
	"intent_label", "enriched", "matched_rule", "action",
	"priority_level", "priority_score", "follow_up_required", "url",
}

var aggregateHeader = []string{
	"company", "company_key", "signal_count", "max_strength",
	"mean_confidence", "distinct_source_types", "top_signal_ids",
}

// WriteSignals writes decided signals as CSV rows in the given order.
func WriteSignals(w io.Writer, signals []*domain.Signal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(signalHeader); err != nil {
		return fmt.Errorf("write signal header: %w", err)
	}

	for _, sig := range signals {
		if err := cw.Write(signalRow(sig)); err != nil {
			return fmt.Errorf("write signal %s: %w", sig.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAggregates writes company roll-ups as CSV rows in the given order.
func WriteAggregates(w io.Writer, aggregates []*domain.CompanyAggregate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(aggregateHeader); err != nil {
		return fmt.Errorf("write aggregate header: %w", err)
	}

	for _, agg := range aggregates {
		topIDs := make([]string, 0, len(agg.TopSignals))
		for _, sig := range agg.TopSignals {
			topIDs = append(topIDs, sig.ID)
		}
		row := []string{
			agg.Company,
			agg.CompanyKey,
			strconv.Itoa(agg.SignalCount),
			strconv.Itoa(agg.MaxStrength),
			formatFloat(agg.MeanConfidence),
			strings.Join(agg.DistinctSourceTypes, ";"),
			strings.Join(topIDs, ";"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write aggregate %s: %w", agg.CompanyKey, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func signalRow(sig *domain.Signal) []string {
	published := ""
	if sig.PublishedAt != nil {
		published = sig.PublishedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		sig.ID,
		sig.Company,
		sig.CompanyKey,
		string(sig.SourceType),
		sig.Title,
		published,
		strconv.Itoa(sig.SignalStrength),
		formatFloat(sig.ConfidenceLevel),
		formatFloat(sig.SentimentScore),
		strconv.Itoa(sig.RelevanceScore),
		strconv.Itoa(sig.EngagementScore),
		string(sig.IntentLabel),
		strconv.FormatBool(sig.Enriched),
		sig.MatchedRule,
		string(sig.Action),
		string(sig.PriorityLevel),
		formatFloat(sig.PriorityScore()),
		strconv.FormatBool(sig.FollowUpRequired),
		sig.URL,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
