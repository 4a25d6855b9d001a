package domain

// CompanyAggregate is the per-company roll-up computed over its signals.
// It is derived state, recomputed on every run; the company key is its only
// identity.
type CompanyAggregate struct {
	Company             string    `json:"company"`
	CompanyKey          string    `json:"company_key"`
	SignalCount         int       `json:"signal_count"`
	MaxStrength         int       `json:"max_strength"`
	MeanConfidence      float64   `json:"mean_confidence"`
	DistinctSourceTypes []string  `json:"distinct_source_types"`
	TopSignals          []*Signal `json:"top_signals"`
}
