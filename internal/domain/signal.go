package domain

import "time"

// SignalState tracks a signal through the pipeline. Transitions are strictly
// unscored -> scored -> decided; a signal never moves backwards.
type SignalState string

const (
	StateUnscored SignalState = "unscored"
	StateScored   SignalState = "scored"
	StateDecided  SignalState = "decided"
)

// IntentLabel is the enriched buying-intent classification.
type IntentLabel string

const (
	IntentBuying     IntentLabel = "buying"
	IntentResearch   IntentLabel = "research"
	IntentComparison IntentLabel = "comparison"
	IntentUnknown    IntentLabel = "unknown"
)

// PriorityLevel is the action tier a decided signal lands in.
type PriorityLevel string

const (
	PriorityHigh   PriorityLevel = "high"
	PriorityMedium PriorityLevel = "medium"
	PriorityLow    PriorityLevel = "low"
)

// Score bounds. Every scored signal satisfies these; the scorer clamps.
const (
	MinStrength   = 1
	MaxStrength   = 10
	MinRelevance  = 1
	MaxRelevance  = 10
	MaxEngagement = 100
)

// Signal is one normalized, scored unit of evidence about a company's buying
// intent. The normalizer creates it, the scorer and enricher fill in the
// score fields, and the decision engine freezes it by setting State to
// decided. Immutable after that point.
type Signal struct {
	ID             string             `db:"id"              json:"id"`
	Company        string             `db:"company"         json:"company"`
	CompanyKey     string             `db:"company_key"     json:"company_key"`
	SourceType     SourceType         `db:"source_type"     json:"source_type"`
	Title          string             `db:"title"           json:"title"`
	Description    string             `db:"description"     json:"description"`
	ContentSnippet string             `db:"content_snippet" json:"content_snippet,omitempty"`
	URL            string             `db:"url"             json:"url,omitempty"`
	PublishedAt    *time.Time         `db:"published_at"    json:"published_at,omitempty"`
	RawMetrics     map[string]float64 `db:"-"               json:"raw_metrics,omitempty"`

	SignalStrength  int     `db:"signal_strength"  json:"signal_strength"`  // 1-10
	ConfidenceLevel float64 `db:"confidence_level" json:"confidence_level"` // 0.0-1.0
	SentimentScore  float64 `db:"sentiment_score"  json:"sentiment_score"`  // -1.0-1.0
	RelevanceScore  int     `db:"relevance_score"  json:"relevance_score"`  // 1-10
	EngagementScore int     `db:"engagement_score" json:"engagement_score"` // 0-100

	IntentLabel IntentLabel `db:"intent_label" json:"intent_label"`
	Entities    []string    `db:"-"            json:"entities"`
	// Enriched records whether model enrichment was applied or the signal is
	// running on heuristic-only scores. Consumers must handle both.
	Enriched bool `db:"enriched" json:"enriched"`

	State            SignalState   `db:"state"              json:"state"`
	MatchedRule      string        `db:"matched_rule"       json:"matched_rule,omitempty"`
	Action           Action        `db:"action"             json:"action,omitempty"`
	PriorityLevel    PriorityLevel `db:"priority_level"     json:"priority_level,omitempty"`
	FollowUpRequired bool          `db:"follow_up_required" json:"follow_up_required"`
}

// PriorityScore is strength weighted by confidence, carried on export rows
// for the report assembler.
func (s *Signal) PriorityScore() float64 {
	return float64(s.SignalStrength) * s.ConfidenceLevel
}
