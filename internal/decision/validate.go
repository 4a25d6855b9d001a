package decision

import "github.com/jonesrussell/intent-engine/internal/domain"

// ValidateRule checks a single decision rule for configuration errors.
// Returns *domain.InvalidRuleConfigError on the first problem found.
func ValidateRule(rule domain.DecisionRule) error {
	if rule.Name == "" {
		return &domain.InvalidRuleConfigError{Rule: "(unnamed)", Reason: "name is required"}
	}
	if !validAction(rule.Action) {
		return &domain.InvalidRuleConfigError{
			Rule:   rule.Name,
			Reason: "unknown action " + string(rule.Action),
		}
	}
	for _, cond := range rule.Conditions {
		if !validField(cond.Field) {
			return &domain.InvalidRuleConfigError{
				Rule:   rule.Name,
				Reason: "unknown condition field " + cond.Field,
			}
		}
		if !validComparator(cond.Comparator) {
			return &domain.InvalidRuleConfigError{
				Rule:   rule.Name,
				Reason: "unknown comparator " + cond.Comparator,
			}
		}
	}
	return nil
}

// ValidateRules checks every rule in the set.
func ValidateRules(rules []domain.DecisionRule) error {
	for _, rule := range rules {
		if err := ValidateRule(rule); err != nil {
			return err
		}
	}
	return nil
}

func validAction(a domain.Action) bool {
	switch a {
	case domain.ActionImmediateOutreach, domain.ActionPriorityQueue,
		domain.ActionNurtureCampaign, domain.ActionMonitorOnly:
		return true
	}
	return false
}

func validField(f string) bool {
	switch f {
	case domain.FieldSignalStrength, domain.FieldRelevanceScore,
		domain.FieldConfidenceLevel, domain.FieldSentimentScore,
		domain.FieldEngagementScore:
		return true
	}
	return false
}

func validComparator(c string) bool {
	switch c {
	case domain.OpGTE, domain.OpGT, domain.OpLTE, domain.OpLT, domain.OpEQ:
		return true
	}
	return false
}
