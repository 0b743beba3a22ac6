// Package scoring computes the 0-100 record quality score.
package scoring

import (
	"math"

	"nutriverify/internal/catalog"
	"nutriverify/internal/rules"
)

// Weights of each score component.
const (
	requiredMacroPoints  = 5
	micronutrientPoints  = 10
	consistencyPoints    = 30
	pointsPerFailingRule = 10
	oraclePoints         = 10
	// Verified is written for records that passed final validation.
	Verified = 100
)

var tierPoints = map[catalog.SourceTier]float64{
	catalog.TierAuthoritative: 20,
	catalog.TierSecondary:     12,
	catalog.TierUserSubmitted: 5,
	catalog.TierUnknown:       0,
}

// Breakdown itemises a score for audit payloads.
type Breakdown struct {
	Completeness   float64 `json:"completeness"`
	Micronutrients float64 `json:"micronutrients"`
	Consistency    float64 `json:"consistency"`
	Source         float64 `json:"source"`
	Oracle         float64 `json:"oracle"`
}

// Total sums the components, rounded and clamped to [0,100].
func (b Breakdown) Total() int {
	sum := b.Completeness + b.Micronutrients + b.Consistency + b.Source + b.Oracle
	return int(math.Max(0, math.Min(100, math.Round(sum))))
}

// Compute breaks a record's score into components.
func Compute(rec catalog.Record, findings []rules.Finding, oracleConfidence int) Breakdown {
	var b Breakdown

	m := rec.Macros
	for _, v := range []float64{m.Calories, m.ProteinG, m.CarbsG, m.FatG} {
		if v >= 0 {
			b.Completeness += requiredMacroPoints
		}
	}
	if v, ok := m.Fiber(); ok && v >= 0 {
		b.Completeness += requiredMacroPoints
	}
	if v, ok := m.Sugar(); ok && v >= 0 {
		b.Completeness += requiredMacroPoints
	}

	present := catalog.PresentMicronutrients(rec.Micronutrients)
	b.Micronutrients = micronutrientPoints * float64(present) / float64(len(catalog.MicronutrientKeys))

	b.Consistency = math.Max(0, consistencyPoints-pointsPerFailingRule*float64(len(rules.FailingRules(findings))))

	b.Source = tierPoints[rec.Source.Tier()]

	confidence := math.Max(0, math.Min(100, float64(oracleConfidence)))
	b.Oracle = confidence * oraclePoints / 100
	return b
}

// Score returns the quality score for a record given its latest findings
// and the oracle's confidence (0 when the oracle was not consulted).
func Score(rec catalog.Record, findings []rules.Finding, oracleConfidence int) int {
	return Compute(rec, findings, oracleConfidence).Total()
}
