// Package quality runs declarative invariant checks over conformed and
// assembled data. The engine never mutates data and never blocks the
// pipeline by itself; blocking behavior is a caller decision based on
// rule severity.
package quality

import (
	"context"
	"log/slog"
	"time"

	"dwcli/pkg/contracts/domain"
)

// Dataset is the immutable snapshot a rule pass evaluates.
type Dataset struct {
	Conformed   domain.ConformedLayer
	Dimensional domain.DimensionalLayer
}

// Rule is one declarative invariant: the predicate's satisfaction is the
// healthy state, and Check returns the identifiers of every record that
// violates it.
type Rule struct {
	Name     string
	Scope    domain.Scope
	Severity domain.Severity
	Check    func(Dataset) []string
}

// maxReportedIDs bounds the identifiers carried per rule result; the
// count always reflects the full violation set.
const maxReportedIDs = 50

// Engine evaluates a fixed ordered rule set. Rules are added at
// construction so new invariants never touch pipeline code.
type Engine struct {
	logger *slog.Logger
	rules  []Rule
}

// NewEngine creates a rule engine over the given rule set.
func NewEngine(logger *slog.Logger, rules []Rule) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger, rules: rules}
}

// Rules returns the registered rules in evaluation order.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Run evaluates every rule matching the scope and returns the ordered
// report. ScopeAll matches rules of every scope.
func (e *Engine) Run(ctx context.Context, scope domain.Scope, ds Dataset) domain.ValidationReport {
	report := domain.ValidationReport{
		Scope:       scope,
		GeneratedAt: time.Now().UTC(),
	}

	for _, rule := range e.rules {
		if scope != domain.ScopeAll && rule.Scope != scope {
			continue
		}

		violating := rule.Check(ds)
		result := domain.RuleResult{
			Rule:     rule.Name,
			Scope:    rule.Scope,
			Severity: rule.Severity,
			Count:    len(violating),
		}
		if len(violating) > maxReportedIDs {
			result.ViolatingIDs = violating[:maxReportedIDs]
		} else {
			result.ViolatingIDs = violating
		}
		report.Results = append(report.Results, result)

		if result.Count > 0 {
			e.logger.WarnContext(ctx, "quality rule violated",
				slog.String("rule", rule.Name),
				slog.String("severity", string(rule.Severity)),
				slog.Int("count", result.Count))
		}
	}

	return report
}
