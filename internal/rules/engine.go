package rules

import (
	"fmt"
	"math"
	"strings"

	"nutriverify/internal/catalog"
	"nutriverify/internal/config"
)

// Atwater factors in kcal per gram.
const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// Thresholds tune the deterministic checks.
type Thresholds struct {
	CalorieTolerance        float64
	AlcoholCalorieTolerance float64
	ExemptCalorieCeiling    float64
	DensityBuffer           float64
}

// DefaultThresholds mirrors the configuration defaults.
func DefaultThresholds() Thresholds {
	return ThresholdsFromConfig(config.Default().Rules)
}

// ThresholdsFromConfig converts the [rules] section.
func ThresholdsFromConfig(cfg config.Rules) Thresholds {
	return Thresholds{
		CalorieTolerance:        cfg.CalorieTolerance,
		AlcoholCalorieTolerance: cfg.AlcoholCalorieTolerance,
		ExemptCalorieCeiling:    cfg.ExemptCalorieCeiling,
		DensityBuffer:           cfg.DensityBuffer,
	}
}

// Engine evaluates records against the deterministic rules.
type Engine struct {
	thresholds Thresholds
}

// NewEngine constructs an engine with the provided thresholds.
func NewEngine(thresholds Thresholds) *Engine {
	return &Engine{thresholds: thresholds}
}

// Thresholds returns the engine configuration.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate runs every rule and returns one finding per rule.
func (e *Engine) Evaluate(rec catalog.Record) []Finding {
	return []Finding{
		e.massBalance(rec),
		carbComponents(rec.Macros),
		e.density(rec),
		categoryOutlier(rec),
	}
}

// EstimatedCalories applies the Atwater factors to the macros.
func EstimatedCalories(m catalog.Macros) float64 {
	return kcalPerGramProtein*m.ProteinG + kcalPerGramCarbs*m.CarbsG + kcalPerGramFat*m.FatG
}

func (e *Engine) massBalance(rec catalog.Record) Finding {
	m := rec.Macros
	if negative := negativeFields(m); len(negative) > 0 {
		return warn(RuleMassBalance,
			"negative values: "+strings.Join(negative, ", "),
			"nutrient values cannot be negative")
	}
	if m.Calories <= e.thresholds.ExemptCalorieCeiling {
		return pass(RuleMassBalance, fmt.Sprintf("%.0f kcal is at or below the %.0f kcal exemption", m.Calories, e.thresholds.ExemptCalorieCeiling))
	}
	tolerance := e.thresholds.CalorieTolerance
	alcoholic := IsAlcoholic(rec.Name)
	if alcoholic {
		tolerance = e.thresholds.AlcoholCalorieTolerance
	}
	estimated := EstimatedCalories(m)
	deviation := math.Abs(m.Calories-estimated) / m.Calories
	details := fmt.Sprintf("stated %.0f kcal, estimated %.0f kcal from macros (%.0f%% off, tolerance %.0f%%)",
		m.Calories, estimated, deviation*100, tolerance*100)
	if deviation <= tolerance {
		return pass(RuleMassBalance, details)
	}
	hint := "calories do not match 4/4/9 kcal per gram of protein, carbs and fat"
	if alcoholic {
		hint = "alcohol adds about 7 kcal per gram outside the tracked macros"
	}
	return warn(RuleMassBalance, details, hint)
}

func negativeFields(m catalog.Macros) []string {
	var out []string
	check := func(name string, v float64) {
		if v < 0 {
			out = append(out, name)
		}
	}
	check("calories", m.Calories)
	check("protein_g", m.ProteinG)
	check("carbs_g", m.CarbsG)
	check("fat_g", m.FatG)
	if v, ok := m.Fiber(); ok {
		check("fiber_g", v)
	}
	if v, ok := m.Sugar(); ok {
		check("sugar_g", v)
	}
	return out
}

func carbComponents(m catalog.Macros) Finding {
	var problems []string
	if fiber, ok := m.Fiber(); ok && fiber > m.CarbsG {
		problems = append(problems, fmt.Sprintf("fiber %.1fg exceeds carbs %.1fg", fiber, m.CarbsG))
	}
	if sugar, ok := m.Sugar(); ok && sugar > m.CarbsG {
		problems = append(problems, fmt.Sprintf("sugar %.1fg exceeds carbs %.1fg", sugar, m.CarbsG))
	}
	if len(problems) == 0 {
		return pass(RuleCarbComponents, "fiber and sugar within carbs")
	}
	return warn(RuleCarbComponents, strings.Join(problems, "; "),
		"fiber and sugar are part of total carbohydrate")
}

func (e *Engine) density(rec catalog.Record) Finding {
	total := rec.Macros.TotalGrams()
	var ceiling float64
	switch {
	case rec.Serving.PerHundred():
		ceiling = 100 + 100*e.thresholds.DensityBuffer
	default:
		mass, ok := rec.Serving.MassGrams()
		if !ok {
			return pass(RuleDensity, "serving mass unknown")
		}
		ceiling = mass * (1 + e.thresholds.DensityBuffer)
	}
	details := fmt.Sprintf("macros total %.1fg against a %.1fg ceiling", total, ceiling)
	if total <= ceiling {
		return pass(RuleDensity, details)
	}
	return critical(RuleDensity, details, "macro grams cannot exceed the serving mass")
}
