package domain

import "time"

// Action is the recommended next step emitted by the decision engine.
type Action string

const (
	ActionImmediateOutreach Action = "schedule_immediate_outreach"
	ActionPriorityQueue     Action = "add_to_priority_queue"
	ActionNurtureCampaign   Action = "add_to_nurture_campaign"
	ActionMonitorOnly       Action = "monitor_only"
)

// Comparator operators allowed in rule conditions.
const (
	OpGTE = ">="
	OpGT  = ">"
	OpLTE = "<="
	OpLT  = "<"
	OpEQ  = "=="
)

// Condition fields the engine can evaluate. All are numeric signal fields.
const (
	FieldSignalStrength  = "signal_strength"
	FieldRelevanceScore  = "relevance_score"
	FieldConfidenceLevel = "confidence_level"
	FieldSentimentScore  = "sentiment_score"
	FieldEngagementScore = "engagement_score"
)

// Condition is a single predicate over a signal field. Conditions within a
// rule are conjunctive.
type Condition struct {
	Field      string  `db:"field"      json:"field"      yaml:"field"`
	Comparator string  `db:"comparator" json:"comparator" yaml:"comparator"`
	Threshold  float64 `db:"threshold"  json:"threshold"  yaml:"threshold"`
}

// DecisionRule maps signal attributes to a recommended action. Rules are
// evaluated in descending PriorityRank order; the first rule whose every
// condition holds wins. A rule with no conditions always matches and serves
// as the mandatory fallback.
type DecisionRule struct {
	ID           int         `db:"id"            json:"id,omitempty"`
	Name         string      `db:"name"          json:"name"          yaml:"name"`
	Conditions   []Condition `db:"-"             json:"conditions"    yaml:"conditions"`
	Action       Action      `db:"action"        json:"action"        yaml:"action"`
	PriorityRank int         `db:"priority_rank" json:"priority_rank" yaml:"priority_rank"`
	Enabled      bool        `db:"enabled"       json:"enabled"       yaml:"enabled"`
	CreatedAt    time.Time   `db:"created_at"    json:"created_at,omitempty"`
	UpdatedAt    time.Time   `db:"updated_at"    json:"updated_at,omitempty"`
}

// Fallback reports whether the rule matches unconditionally.
func (r *DecisionRule) Fallback() bool {
	return len(r.Conditions) == 0
}

// PriorityForAction maps a matched action to the tier exported downstream.
func PriorityForAction(a Action) PriorityLevel {
	switch a {
	case ActionImmediateOutreach, ActionPriorityQueue:
		return PriorityHigh
	case ActionNurtureCampaign:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// DefaultDecisionRules is the rule set used when no configuration overrides
// it. Thresholds mirror the shipped decision policy; the unconditional
// monitor_only rule guarantees every signal reaches a decision.
func DefaultDecisionRules() []DecisionRule {
	return []DecisionRule{
		{
			Name:         "immediate_action",
			PriorityRank: 100,
			Action:       ActionImmediateOutreach,
			Enabled:      true,
			Conditions: []Condition{
				{Field: FieldSignalStrength, Comparator: OpGTE, Threshold: 8},
				{Field: FieldRelevanceScore, Comparator: OpGTE, Threshold: 7},
			},
		},
		{
			Name:         "high_priority",
			PriorityRank: 80,
			Action:       ActionPriorityQueue,
			Enabled:      true,
			Conditions: []Condition{
				{Field: FieldSignalStrength, Comparator: OpGTE, Threshold: 6},
				{Field: FieldConfidenceLevel, Comparator: OpGT, Threshold: 0.7},
			},
		},
		{
			Name:         "nurture",
			PriorityRank: 60,
			Action:       ActionNurtureCampaign,
			Enabled:      true,
			Conditions: []Condition{
				{Field: FieldSignalStrength, Comparator: OpGTE, Threshold: 4},
			},
		},
		{
			Name:         "monitor",
			PriorityRank: 0,
			Action:       ActionMonitorOnly,
			Enabled:      true,
		},
	}
}
