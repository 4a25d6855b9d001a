package normalizer_test

import (
	"errors"
	"testing"

	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/logger"
	"github.com/jonesrussell/intent-engine/internal/normalizer"
)

func TestNormalize_ValidRecord(t *testing.T) {
	n := normalizer.New(logger.NewNop())

	rec := domain.RawRecord{
		SourceType:  domain.SourceNewsMedia,
		Company:     "  TechCorp  ",
		NativeID:    "article-123",
		Title:       " TechCorp raises Series B ",
		Description: "Funding round announcement",
		URL:         "https://example.com/article-123",
		Metrics:     map[string]float64{"engagement": 12},
	}

	sig, err := n.Normalize(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sig.Company != "TechCorp" {
		t.Errorf("expected trimmed company, got %q", sig.Company)
	}
	if sig.CompanyKey != "techcorp" {
		t.Errorf("expected folded company key, got %q", sig.CompanyKey)
	}
	if sig.Title != "TechCorp raises Series B" {
		t.Errorf("expected trimmed title, got %q", sig.Title)
	}
	if sig.State != domain.StateUnscored {
		t.Errorf("expected unscored state, got %q", sig.State)
	}
	if sig.IntentLabel != domain.IntentUnknown {
		t.Errorf("expected unknown intent, got %q", sig.IntentLabel)
	}
	if sig.SignalStrength != 0 || sig.ConfidenceLevel != 0 {
		t.Error("score fields must be zero before scoring")
	}
	if len(sig.ID) != 24 {
		t.Errorf("expected 24-char id, got %d chars", len(sig.ID))
	}
}

func TestNormalize_MalformedRecords(t *testing.T) {
	n := normalizer.New(logger.NewNop())

	testCases := []struct {
		name   string
		record domain.RawRecord
		reason string
	}{
		{
			name: "missing company",
			record: domain.RawRecord{
				SourceType: domain.SourceNewsMedia,
				Company:    "   ",
				Title:      "Some headline",
			},
			reason: "missing company",
		},
		{
			name: "missing title and description",
			record: domain.RawRecord{
				SourceType: domain.SourceSocialMedia,
				Company:    "Acme",
			},
			reason: "missing title and description",
		},
		{
			name: "unknown source type",
			record: domain.RawRecord{
				SourceType: domain.SourceType("carrier_pigeon"),
				Company:    "Acme",
				Title:      "A headline",
			},
			reason: "unknown source type",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := n.Normalize(tc.record)
			var malformed *domain.MalformedRecordError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedRecordError, got %v", err)
			}
			if malformed.Reason != tc.reason {
				t.Errorf("expected reason %q, got %q", tc.reason, malformed.Reason)
			}
		})
	}
}

func TestNormalize_DescriptionOnlyIsValid(t *testing.T) {
	n := normalizer.New(logger.NewNop())

	sig, err := n.Normalize(domain.RawRecord{
		SourceType:  domain.SourceJobBoard,
		Company:     "Acme",
		Description: "Senior engineer wanted",
	})
	if err != nil {
		t.Fatalf("record with only a description must normalize: %v", err)
	}
	if sig.Title != "" {
		t.Errorf("expected empty title, got %q", sig.Title)
	}
}

func TestCompanyKey_Canonicalization(t *testing.T) {
	n := normalizer.New(logger.NewNop())

	testCases := []struct {
		in   string
		want string
	}{
		{"TechCorp", "techcorp"},
		{"  TechCorp  ", "techcorp"},
		{"Tech   Corp Inc", "tech corp inc"},
		{"TECH CORP", "tech corp"},
	}

	for _, tc := range testCases {
		if got := n.CompanyKey(tc.in); got != tc.want {
			t.Errorf("CompanyKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalize_DeterministicIDs(t *testing.T) {
	n := normalizer.New(logger.NewNop())

	rec := domain.RawRecord{
		SourceType: domain.SourceSocialMedia,
		Company:    "Acme",
		NativeID:   "post-42",
		Title:      "Looking for recommendations",
	}

	first, err := n.Normalize(rec)
	if err != nil {
		t.Fatal(err)
	}
	second, err := n.Normalize(rec)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("same record produced different ids: %s vs %s", first.ID, second.ID)
	}

	// Without a native id, identity falls back to title+company content hash.
	noID := rec
	noID.NativeID = ""
	third, err := n.Normalize(noID)
	if err != nil {
		t.Fatal(err)
	}
	if third.ID == first.ID {
		t.Error("content-hash id must differ from native-id derived id")
	}

	// Case and spacing variants of the same title collapse to one id.
	variant := noID
	variant.Title = "  LOOKING   FOR Recommendations "
	fourth, err := n.Normalize(variant)
	if err != nil {
		t.Fatal(err)
	}
	if fourth.ID != third.ID {
		t.Errorf("title variants should share an id: %s vs %s", fourth.ID, third.ID)
	}
}
