package rules

import (
	"github.com/smart-grid-ai/internal/domain"
	"go.uber.org/zap"
)

// Engine applies advisory rules to prediction payloads.
type Engine struct {
	rules               []*Rule
	confidenceThreshold float64
	logger              *zap.Logger
}

// NewEngine creates a new rule engine with the provided configuration.
func NewEngine(rules []*Rule, confidenceThreshold float64, logger *zap.Logger) *Engine {
	return &Engine{
		rules:               rules,
		confidenceThreshold: confidenceThreshold,
		logger:              logger.Named("rule_engine"),
	}
}

// Analyze applies all rules to the payload of op and returns matches in rule order.
func (e *Engine) Analyze(op domain.Operation, p domain.Payload) []domain.RuleMatch {
	var matches []domain.RuleMatch

	for _, rule := range e.rules {
		if rule.Match(op, p) {
			e.logger.Debug("rule matched",
				zap.String("operation", string(op)),
				zap.String("rule_id", rule.ID),
				zap.Float64("confidence", rule.Confidence),
			)

			matches = append(matches, domain.RuleMatch{
				RuleID:     rule.ID,
				Confidence: rule.Confidence,
				Advice:     rule.Advice,
			})
		}
	}

	return matches
}

// GetBestMatch returns the highest confidence match that exceeds the threshold.
// Returns nil if no match exceeds the threshold.
func (e *Engine) GetBestMatch(matches []domain.RuleMatch) *domain.RuleMatch {
	var best *domain.RuleMatch
	for i := range matches {
		match := &matches[i]
		if match.Confidence >= e.confidenceThreshold {
			if best == nil || match.Confidence > best.Confidence {
				best = match
			}
		}
	}

	return best
}

// Advice returns the advice of every match at or above the threshold
// without duplicates. The best match leads; the rest follow in rule order.
func (e *Engine) Advice(op domain.Operation, p domain.Payload) []string {
	matches := e.Analyze(op, p)
	best := e.GetBestMatch(matches)
	if best == nil {
		return nil
	}

	advice := make([]string, 0, len(best.Advice))
	seen := make(map[string]struct{})
	add := func(lines []string) {
		for _, line := range lines {
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			advice = append(advice, line)
		}
	}

	add(best.Advice)
	for _, match := range matches {
		if match.Confidence >= e.confidenceThreshold {
			add(match.Advice)
		}
	}

	return advice
}
