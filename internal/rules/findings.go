package rules

import "strings"

// Severity grades a finding.
type Severity string

const (
	SeverityPass     Severity = "pass"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rule names reported in findings and audit payloads.
const (
	RuleMassBalance     = "mass_balance"
	RuleCarbComponents  = "carb_components"
	RuleDensity         = "density"
	RuleCategoryOutlier = "category_outlier"
	// RuleOracleValidation is attached by the correction loop when final
	// validation rejects a record the deterministic rules accepted.
	RuleOracleValidation = "oracle_validation"
)

// Finding is the result of one rule against one record.
type Finding struct {
	Rule     string   `json:"rule"`
	Passed   bool     `json:"passed"`
	Severity Severity `json:"severity"`
	Details  string   `json:"details"`
	Hint     string   `json:"hint,omitempty"`
}

// String renders the finding for prompts and logs.
func (f Finding) String() string {
	var b strings.Builder
	b.WriteString(f.Rule)
	b.WriteString(" [")
	b.WriteString(string(f.Severity))
	b.WriteString("]")
	if f.Details != "" {
		b.WriteString(": ")
		b.WriteString(f.Details)
	}
	if f.Hint != "" {
		b.WriteString(" (hint: ")
		b.WriteString(f.Hint)
		b.WriteString(")")
	}
	return b.String()
}

func pass(rule, details string) Finding {
	return Finding{Rule: rule, Passed: true, Severity: SeverityPass, Details: details}
}

func warn(rule, details, hint string) Finding {
	return Finding{Rule: rule, Severity: SeverityWarning, Details: details, Hint: hint}
}

func critical(rule, details, hint string) Finding {
	return Finding{Rule: rule, Severity: SeverityCritical, Details: details, Hint: hint}
}

// Passed reports whether every finding passed.
func Passed(findings []Finding) bool {
	for _, f := range findings {
		if !f.Passed {
			return false
		}
	}
	return true
}

// HasCritical reports whether any finding is critical.
func HasCritical(findings []Finding) bool {
	for _, f := range findings {
		if !f.Passed && f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Failing returns the findings that did not pass.
func Failing(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if !f.Passed {
			out = append(out, f)
		}
	}
	return out
}

// FailingRules returns the distinct rule names among failing findings, in first-seen order.
func FailingRules(findings []Finding) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range findings {
		if f.Passed {
			continue
		}
		if _, ok := seen[f.Rule]; ok {
			continue
		}
		seen[f.Rule] = struct{}{}
		out = append(out, f.Rule)
	}
	return out
}
