package domain

// Sentiment labels emitted by the external inference boundary.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// EnrichmentBundle holds externally computed NLP outputs for one signal.
// The engine never runs inference itself; these arrive as a completed,
// synchronous lookup keyed by signal id.
type EnrichmentBundle struct {
	SentimentLabel      string   `json:"sentiment_label"`
	SentimentConfidence float64  `json:"sentiment_confidence"`
	IntentLabel         string   `json:"intent_label"`
	IntentConfidence    float64  `json:"intent_confidence"`
	Entities            []string `json:"entities,omitempty"`
}
