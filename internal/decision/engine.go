// Package decision evaluates the ordered rule policy that classifies scored
// signals into action tiers.
package decision

import (
	"fmt"
	"sort"

	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/logger"
)

// Engine applies decision rules to scored signals. The rule set is
// validated and ordered once at construction and read-only afterwards, so
// an Engine is safe for concurrent use.
type Engine struct {
	rules  []domain.DecisionRule
	logger logger.Logger
}

// NewEngine validates the rule set and returns an engine with rules sorted
// by priority_rank descending. Rules with equal rank keep their configured
// order, and the first match wins. Validation failures are
// *domain.InvalidRuleConfigError and must abort the run before any signal
// is processed.
func NewEngine(rules []domain.DecisionRule, log logger.Logger) (*Engine, error) {
	enabled := make([]domain.DecisionRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if err := ValidateRule(rule); err != nil {
			return nil, err
		}
		enabled = append(enabled, rule)
	}

	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].PriorityRank > enabled[j].PriorityRank
	})

	log.Info("decision engine initialized", logger.Int("rules", len(enabled)))

	return &Engine{rules: enabled, logger: log}, nil
}

// Rules returns a copy of the active rule set in evaluation order.
func (e *Engine) Rules() []domain.DecisionRule {
	out := make([]domain.DecisionRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Decide evaluates rules against a scored signal and transitions it to
// decided, setting action, priority level, and follow-up flag from the
// first matching rule.
//
// A *domain.NoRuleMatchedError means the mandatory fallback rule is missing
// from configuration; it is fatal and aborts the run.
func (e *Engine) Decide(sig *domain.Signal) error {
	if sig.State != domain.StateScored {
		return fmt.Errorf("signal %s: cannot decide in state %q", sig.ID, sig.State)
	}

	for i := range e.rules {
		rule := &e.rules[i]
		if !matches(rule, sig) {
			continue
		}

		sig.MatchedRule = rule.Name
		sig.Action = rule.Action
		sig.PriorityLevel = domain.PriorityForAction(rule.Action)
		sig.FollowUpRequired = sig.PriorityLevel == domain.PriorityHigh ||
			sig.PriorityLevel == domain.PriorityMedium
		sig.State = domain.StateDecided

		e.logger.Debug("signal decided",
			logger.String("signal_id", sig.ID),
			logger.String("rule", rule.Name),
			logger.String("action", string(rule.Action)),
			logger.String("priority", string(sig.PriorityLevel)),
		)

		return nil
	}

	return &domain.NoRuleMatchedError{SignalID: sig.ID}
}

// matches reports whether every condition of the rule holds. Conditions are
// conjunctive; a rule with none always matches.
func matches(rule *domain.DecisionRule, sig *domain.Signal) bool {
	for _, cond := range rule.Conditions {
		if !evaluate(cond, fieldValue(cond.Field, sig)) {
			return false
		}
	}
	return true
}

func evaluate(cond domain.Condition, value float64) bool {
	switch cond.Comparator {
	case domain.OpGTE:
		return value >= cond.Threshold
	case domain.OpGT:
		return value > cond.Threshold
	case domain.OpLTE:
		return value <= cond.Threshold
	case domain.OpLT:
		return value < cond.Threshold
	case domain.OpEQ:
		return value == cond.Threshold
	}
	return false
}

func fieldValue(field string, sig *domain.Signal) float64 {
	switch field {
	case domain.FieldSignalStrength:
		return float64(sig.SignalStrength)
	case domain.FieldRelevanceScore:
		return float64(sig.RelevanceScore)
	case domain.FieldConfidenceLevel:
		return sig.ConfidenceLevel
	case domain.FieldSentimentScore:
		return sig.SentimentScore
	case domain.FieldEngagementScore:
		return float64(sig.EngagementScore)
	}
	return 0
}
