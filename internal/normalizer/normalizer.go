// Package normalizer converts raw per-source records into canonical signals.
package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"

	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/logger"
)

// idLength is the number of hex characters kept from the content hash.
const idLength = 24

// Normalizer builds Signals from RawRecords. It is stateless and safe for
// concurrent use.
type Normalizer struct {
	folder cases.Caser
	logger logger.Logger
}

// New creates a Normalizer.
func New(log logger.Logger) *Normalizer {
	return &Normalizer{
		folder: cases.Fold(),
		logger: log,
	}
}

// Normalize validates a raw record and produces a Signal with all base
// fields populated. Score fields are zeroed and the signal is in the
// unscored state; only the scorer makes them valid.
//
// Returns *domain.MalformedRecordError when the company is missing or the
// record has neither title nor description. Such records are dropped by the
// caller, never retried.
func (n *Normalizer) Normalize(rec domain.RawRecord) (*domain.Signal, error) {
	company := strings.TrimSpace(rec.Company)
	if company == "" {
		return nil, &domain.MalformedRecordError{
			SourceType: rec.SourceType,
			NativeID:   rec.NativeID,
			Reason:     "missing company",
		}
	}
	if strings.TrimSpace(rec.Title) == "" && strings.TrimSpace(rec.Description) == "" {
		return nil, &domain.MalformedRecordError{
			SourceType: rec.SourceType,
			Company:    rec.Company,
			NativeID:   rec.NativeID,
			Reason:     "missing title and description",
		}
	}
	if !rec.SourceType.Valid() {
		return nil, &domain.MalformedRecordError{
			SourceType: rec.SourceType,
			Company:    rec.Company,
			NativeID:   rec.NativeID,
			Reason:     "unknown source type",
		}
	}

	key := n.CompanyKey(company)

	sig := &domain.Signal{
		ID:             n.signalID(rec, key),
		Company:        company,
		CompanyKey:     key,
		SourceType:     rec.SourceType,
		Title:          strings.TrimSpace(rec.Title),
		Description:    strings.TrimSpace(rec.Description),
		ContentSnippet: rec.ContentSnippet,
		URL:            rec.URL,
		PublishedAt:    rec.PublishedAt,
		RawMetrics:     rec.Metrics,
		IntentLabel:    domain.IntentUnknown,
		Entities:       []string{},
		State:          domain.StateUnscored,
	}

	n.logger.Debug("record normalized",
		logger.String("signal_id", sig.ID),
		logger.String("company", sig.Company),
		logger.String("source_type", string(sig.SourceType)),
	)

	return sig, nil
}

// CompanyKey canonicalizes a free-text company name: case folded, trimmed,
// internal whitespace collapsed. All grouping and deduplication keys off
// this form.
func (n *Normalizer) CompanyKey(name string) string {
	folded := n.folder.String(strings.TrimSpace(name))
	return strings.Join(strings.Fields(folded), " ")
}

// signalID derives a stable identifier so re-collecting the same underlying
// item yields the same id. Prefers the source-native id; falls back to a
// content hash of source type, normalized title, and company key.
func (n *Normalizer) signalID(rec domain.RawRecord, companyKey string) string {
	var seed string
	if rec.NativeID != "" {
		seed = string(rec.SourceType) + "|" + rec.NativeID
	} else {
		title := strings.Join(strings.Fields(n.folder.String(rec.Title)), " ")
		seed = string(rec.SourceType) + "|" + title + "|" + companyKey
	}
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:idLength]
}
