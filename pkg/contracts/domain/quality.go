package domain

import (
	"time"
)

// Severity classifies a validation rule. Blocking rules flip the run
// status when violated; advisory rules are reported only. The engine
// itself never aborts a run either way.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityAdvisory Severity = "advisory"
)

// Scope selects which layer a quality check targets.
type Scope string

const (
	ScopeConformed   Scope = "conformed"
	ScopeDimensional Scope = "dimensional"
	ScopeAll         Scope = "all"
)

// RuleResult is the outcome of one validation rule: the identifiers of
// every violating record and their count. An empty result means the rule
// held for all records in scope.
type RuleResult struct {
	Rule         string   `json:"rule"`
	Scope        Scope    `json:"scope"`
	Severity     Severity `json:"severity"`
	ViolatingIDs []string `json:"violating_ids,omitempty"`
	Count        int      `json:"count"`
}

// ValidationReport is the ordered output of one quality-engine pass. It
// is produced per run for operator review and is never the system of
// record.
type ValidationReport struct {
	RunID       string       `json:"run_id,omitempty"`
	Scope       Scope        `json:"scope"`
	GeneratedAt time.Time    `json:"generated_at"`
	Results     []RuleResult `json:"results"`
}

// Violations returns the number of rules that reported at least one
// violating record.
func (r ValidationReport) Violations() int {
	n := 0
	for _, res := range r.Results {
		if res.Count > 0 {
			n++
		}
	}
	return n
}

// HasBlocking reports whether any blocking rule was violated.
func (r ValidationReport) HasBlocking() bool {
	for _, res := range r.Results {
		if res.Severity == SeverityBlocking && res.Count > 0 {
			return true
		}
	}
	return false
}
