package api

import (
	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/pipeline"
)

// ProcessRequest carries a batch of raw records to run through the pipeline.
type ProcessRequest struct {
	Records []domain.RawRecord `json:"records" binding:"required,min=1,max=1000"`
}

// ProcessResponse is the full pipeline result for one batch run.
type ProcessResponse struct {
	Signals    []*domain.Signal           `json:"signals"`
	Aggregates []*domain.CompanyAggregate `json:"aggregates"`
	Summary    pipeline.RunSummary        `json:"summary"`
}

// SignalsListResponse is a filtered page of stored signals.
type SignalsListResponse struct {
	Signals []*domain.Signal `json:"signals"`
	Total   int              `json:"total"`
}

// CompanyResponse is the rollup view for a single company.
type CompanyResponse struct {
	Aggregate *domain.CompanyAggregate `json:"aggregate"`
}

// RulesListResponse lists configured decision rules.
type RulesListResponse struct {
	Rules []domain.DecisionRule `json:"rules"`
	Total int                   `json:"total"`
}

// RuleRequest creates or updates a decision rule.
type RuleRequest struct {
	Name         string             `json:"name" binding:"required"`
	Conditions   []domain.Condition `json:"conditions"`
	Action       domain.Action      `json:"action" binding:"required"`
	PriorityRank int                `json:"priority_rank"`
	Enabled      bool               `json:"enabled"`
}

func (r RuleRequest) toDomain() domain.DecisionRule {
	return domain.DecisionRule{
		Name:         r.Name,
		Conditions:   r.Conditions,
		Action:       r.Action,
		PriorityRank: r.PriorityRank,
		Enabled:      r.Enabled,
	}
}

// StatsResponse reports per-tier counts over all stored signals.
type StatsResponse struct {
	Total   int            `json:"total"`
	ByTier  map[string]int `json:"by_tier"`
	HighPct float64        `json:"high_pct"`
}
