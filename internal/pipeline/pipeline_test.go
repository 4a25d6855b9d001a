package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jonesrussell/intent-engine/internal/aggregator"
	"github.com/jonesrussell/intent-engine/internal/config"
	"github.com/jonesrussell/intent-engine/internal/decision"
	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/enricher"
	"github.com/jonesrussell/intent-engine/internal/logger"
	"github.com/jonesrussell/intent-engine/internal/normalizer"
	"github.com/jonesrussell/intent-engine/internal/pipeline"
	"github.com/jonesrussell/intent-engine/internal/scorer"
)

func newPipeline(t *testing.T, rules []domain.DecisionRule, lookup enricher.Lookup) *pipeline.Pipeline {
	t.Helper()

	log := logger.NewNop()
	var scoring config.ScoringConfig
	scoring.SetDefaults()
	enrichCfg := config.EnrichmentConfig{SentimentThreshold: 0.5, IntentThreshold: 0.5}

	engine, err := decision.NewEngine(rules, log)
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	return pipeline.New(
		normalizer.New(log),
		scorer.New(scoring, log),
		enricher.New(lookup, enrichCfg, log),
		aggregator.New(10, log),
		engine,
		nil,
		4,
		log,
	)
}

func sampleRecords() []domain.RawRecord {
	return []domain.RawRecord{
		{
			SourceType: domain.SourceNewsMedia,
			Company:    "TechCorp",
			NativeID:   "news-1",
			Title:      "TechCorp raised $10M Series B funding",
		},
		{
			SourceType: domain.SourceSocialMedia,
			Company:    "TechCorp",
			NativeID:   "post-1",
			Title:      "Looking for CRM recommendations",
			Metrics:    map[string]float64{"upvotes": 25, "comments": 10},
		},
		{
			SourceType:  domain.SourceJobBoard,
			Company:     "Acme Inc",
			NativeID:    "job-1",
			Title:       "Senior DevOps Engineer",
			Description: "Remote role with Kubernetes",
		},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	p := newPipeline(t, domain.DefaultDecisionRules(), enricher.NoLookup)

	result, err := p.Run(context.Background(), sampleRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Signals) != 3 {
		t.Fatalf("expected 3 decided signals, got %d", len(result.Signals))
	}
	for _, sig := range result.Signals {
		if sig.State != domain.StateDecided {
			t.Errorf("signal %s not decided: %q", sig.ID, sig.State)
		}
		if sig.MatchedRule == "" || sig.Action == "" || sig.PriorityLevel == "" {
			t.Errorf("signal %s missing decision fields", sig.ID)
		}
	}

	if len(result.Aggregates) != 2 {
		t.Fatalf("expected 2 companies, got %d", len(result.Aggregates))
	}
	// Sorted by company key: "acme inc" before "techcorp".
	if result.Aggregates[0].CompanyKey != "acme inc" || result.Aggregates[1].CompanyKey != "techcorp" {
		t.Errorf("unexpected aggregate order: %s, %s",
			result.Aggregates[0].CompanyKey, result.Aggregates[1].CompanyKey)
	}
	if result.Aggregates[1].SignalCount != 2 {
		t.Errorf("expected 2 techcorp signals, got %d", result.Aggregates[1].SignalCount)
	}

	s := result.Summary
	if s.RecordsIn != 3 || s.RecordsDropped != 0 || s.DuplicatesMerged != 0 {
		t.Errorf("unexpected accounting: %+v", s)
	}
	if s.EnrichmentMisses != 3 {
		t.Errorf("expected 3 enrichment misses with no lookup, got %d", s.EnrichmentMisses)
	}
	if s.Companies != 2 {
		t.Errorf("expected 2 companies in summary, got %d", s.Companies)
	}

	total := 0
	for _, n := range s.TierCounts {
		total += n
	}
	if total != 3 {
		t.Errorf("tier counts must cover every signal, got %v", s.TierCounts)
	}

	for _, source := range []string{"news_media", "social_media", "job_board"} {
		if s.SourceCounts[source] != 1 {
			t.Errorf("expected 1 %s signal, got %d", source, s.SourceCounts[source])
		}
		if s.SourceMeanStrength[source] <= 0 {
			t.Errorf("expected positive mean strength for %s, got %v",
				source, s.SourceMeanStrength[source])
		}
	}
	// Both companies peak at strength 7; techcorp wins on signal count.
	if len(s.TopCompanies) != 2 || s.TopCompanies[0] != "techcorp" {
		t.Errorf("unexpected top companies: %v", s.TopCompanies)
	}
}

func TestRun_MalformedRecordsDroppedNotFatal(t *testing.T) {
	p := newPipeline(t, domain.DefaultDecisionRules(), enricher.NoLookup)

	records := append(sampleRecords(),
		domain.RawRecord{SourceType: domain.SourceNewsMedia, Title: "Orphan headline"},
		domain.RawRecord{SourceType: domain.SourceSocialMedia, Company: "Ghost Co"},
	)

	result, err := p.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("malformed records must not abort the run: %v", err)
	}

	if len(result.Signals) != 3 {
		t.Errorf("expected 3 surviving signals, got %d", len(result.Signals))
	}
	s := result.Summary
	if s.RecordsIn != 5 || s.RecordsDropped != 2 {
		t.Errorf("unexpected drop accounting: in=%d dropped=%d", s.RecordsIn, s.RecordsDropped)
	}
	if s.DropReasons["missing company"] != 1 || s.DropReasons["missing title and description"] != 1 {
		t.Errorf("unexpected drop reasons: %v", s.DropReasons)
	}
}

func TestRun_DuplicatesMergedOnce(t *testing.T) {
	p := newPipeline(t, domain.DefaultDecisionRules(), enricher.NoLookup)

	rec := domain.RawRecord{
		SourceType: domain.SourceSocialMedia,
		Company:    "TechCorp",
		NativeID:   "post-1",
		Title:      "Looking for CRM recommendations",
		Metrics:    map[string]float64{"upvotes": 10},
	}
	dup := rec
	dup.Metrics = map[string]float64{"upvotes": 40}

	result, err := p.Run(context.Background(), []domain.RawRecord{rec, dup})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Signals) != 1 {
		t.Fatalf("expected 1 signal after dedup, got %d", len(result.Signals))
	}
	if result.Summary.DuplicatesMerged != 1 {
		t.Errorf("expected 1 merged duplicate, got %d", result.Summary.DuplicatesMerged)
	}
	if result.Signals[0].RawMetrics["upvotes"] != 40 {
		t.Errorf("expected metrics merged by max, got %v", result.Signals[0].RawMetrics)
	}
}

func TestRun_EnrichmentApplied(t *testing.T) {
	lookup := enricher.LookupFunc(func(_ context.Context, _ string) (*domain.EnrichmentBundle, error) {
		return &domain.EnrichmentBundle{
			SentimentLabel:      domain.SentimentPositive,
			SentimentConfidence: 0.9,
			IntentLabel:         "buying",
			IntentConfidence:    0.8,
		}, nil
	})
	p := newPipeline(t, domain.DefaultDecisionRules(), lookup)

	result, err := p.Run(context.Background(), sampleRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Summary.EnrichmentMisses != 0 {
		t.Errorf("expected no misses, got %d", result.Summary.EnrichmentMisses)
	}
	for _, sig := range result.Signals {
		if !sig.Enriched {
			t.Errorf("signal %s not enriched", sig.ID)
		}
		if sig.SentimentScore != 0.9 {
			t.Errorf("signal %s: expected overridden sentiment, got %v", sig.ID, sig.SentimentScore)
		}
		if sig.IntentLabel != domain.IntentBuying {
			t.Errorf("signal %s: expected buying intent, got %q", sig.ID, sig.IntentLabel)
		}
	}
}

func TestRun_EnrichmentOutageDegrades(t *testing.T) {
	lookup := enricher.LookupFunc(func(context.Context, string) (*domain.EnrichmentBundle, error) {
		return nil, domain.ErrEnrichmentUnavailable
	})
	p := newPipeline(t, domain.DefaultDecisionRules(), lookup)

	result, err := p.Run(context.Background(), sampleRecords())
	if err != nil {
		t.Fatalf("outage must degrade, not abort: %v", err)
	}
	if result.Summary.EnrichmentMisses != 3 {
		t.Errorf("expected 3 misses, got %d", result.Summary.EnrichmentMisses)
	}
	for _, sig := range result.Signals {
		if sig.Enriched {
			t.Errorf("signal %s must stay heuristic-only", sig.ID)
		}
	}
}

func TestRun_MissingFallbackAborts(t *testing.T) {
	rules := []domain.DecisionRule{
		{
			Name:         "unreachable",
			PriorityRank: 100,
			Action:       domain.ActionImmediateOutreach,
			Enabled:      true,
			Conditions: []domain.Condition{
				{Field: domain.FieldSignalStrength, Comparator: domain.OpGT, Threshold: 100},
			},
		},
	}
	p := newPipeline(t, rules, enricher.NoLookup)

	_, err := p.Run(context.Background(), sampleRecords())
	var noRule *domain.NoRuleMatchedError
	if !errors.As(err, &noRule) {
		t.Fatalf("expected NoRuleMatchedError, got %v", err)
	}
}

func TestRun_DeterministicOutputOrder(t *testing.T) {
	p := newPipeline(t, domain.DefaultDecisionRules(), enricher.NoLookup)

	first, err := p.Run(context.Background(), sampleRecords())
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Run(context.Background(), sampleRecords())
	if err != nil {
		t.Fatal(err)
	}

	if len(first.Signals) != len(second.Signals) {
		t.Fatal("signal counts differ between identical runs")
	}
	for i := range first.Signals {
		if first.Signals[i].ID != second.Signals[i].ID {
			t.Errorf("position %d: %s vs %s", i, first.Signals[i].ID, second.Signals[i].ID)
		}
	}
}

func TestRun_EmptyBatch(t *testing.T) {
	p := newPipeline(t, domain.DefaultDecisionRules(), enricher.NoLookup)

	result, err := p.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty batch must succeed: %v", err)
	}
	if len(result.Signals) != 0 || len(result.Aggregates) != 0 {
		t.Error("empty batch must produce empty output")
	}
	if result.Summary.RecordsIn != 0 {
		t.Errorf("unexpected records_in %d", result.Summary.RecordsIn)
	}
}
