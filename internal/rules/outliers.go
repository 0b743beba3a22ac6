package rules

import (
	"fmt"
	"strings"

	"nutriverify/internal/catalog"
	"nutriverify/internal/category"
	"nutriverify/internal/textutil"
)

var alcoholTerms = []string{
	"beer", "wine", "vodka", "whiskey", "whisky", "bourbon", "scotch", "rum", "gin", "tequila", "mezcal",
	"liquor", "liqueur", "sake", "hard cider", "brandy", "cognac", "cocktail", "ale", "lager", "stout",
	"ipa", "margarita", "martini", "mojito", "champagne", "prosecco", "sangria", "mead", "hard seltzer",
}

var alcoholExclusions = []string{"vinegar", "non alcoholic", "alcohol free", "root beer", "ginger beer", "ginger ale"}

var leafyGreens = []string{
	"spinach", "kale", "lettuce", "arugula", "chard", "collard", "greens", "romaine", "watercress", "bok choy",
}

var oilTerms = []string{"oil", "olive oil", "canola", "ghee", "lard", "shortening"}

// IsAlcoholic reports whether a food name matches the alcoholic-beverage lexicon.
func IsAlcoholic(name string) bool {
	folded := textutil.Fold(name)
	if folded == "" {
		return false
	}
	for _, term := range alcoholExclusions {
		if textutil.ContainsWord(folded, term) {
			return false
		}
	}
	return matchesAny(folded, alcoholTerms)
}

func matchesAny(folded string, terms []string) bool {
	for _, term := range terms {
		if category.Matches(folded, term) {
			return true
		}
	}
	return false
}

// rangeCheck is a per-100 g assertion for one category.
type rangeCheck struct {
	nutrient string
	value    func(catalog.Macros) float64
	min, max float64
	hasMin   bool
	hasMax   bool
}

func protein(m catalog.Macros) float64 { return m.ProteinG }
func carbs(m catalog.Macros) float64   { return m.CarbsG }
func fat(m catalog.Macros) float64     { return m.FatG }

var categoryRanges = map[category.Category][]rangeCheck{
	category.Vegetables:  {{nutrient: "fat", value: fat, max: 10, hasMax: true}},
	category.MeatPoultry: {{nutrient: "protein", value: protein, min: 10, hasMin: true}},
	category.Seafood:     {{nutrient: "protein", value: protein, min: 10, hasMin: true}},
	category.Grains:      {{nutrient: "carbs", value: carbs, min: 15, hasMin: true}},
	category.FatsOils:    {{nutrient: "fat", value: fat, min: 50, hasMin: true}},
	category.Fruits:      {{nutrient: "protein", value: protein, max: 10, hasMax: true}},
}

func categoryOutlier(rec catalog.Record) Finding {
	cat, known := category.Canonical(rec.Category)
	if !known {
		return pass(RuleCategoryOutlier, fmt.Sprintf("category %q is not in the taxonomy", rec.Category))
	}
	if hint, ok := miscategorised(rec.Name, cat); ok {
		return warn(RuleCategoryOutlier, fmt.Sprintf("%q looks miscategorised as %s", rec.Name, cat), hint)
	}
	checks := categoryRanges[cat]
	if len(checks) == 0 {
		return pass(RuleCategoryOutlier, fmt.Sprintf("no range checks for %s", cat))
	}
	scale, ok := perHundredScale(rec.Serving)
	if !ok {
		return pass(RuleCategoryOutlier, "serving mass unknown")
	}
	var problems []string
	for _, check := range checks {
		v := check.value(rec.Macros) * scale
		switch {
		case check.hasMin && v < check.min:
			problems = append(problems, fmt.Sprintf("%s %.1fg/100g below %.0fg expected for %s", check.nutrient, v, check.min, cat))
		case check.hasMax && v > check.max:
			problems = append(problems, fmt.Sprintf("%s %.1fg/100g above %.0fg expected for %s", check.nutrient, v, check.max, cat))
		}
	}
	if len(problems) == 0 {
		return pass(RuleCategoryOutlier, fmt.Sprintf("values typical for %s", cat))
	}
	return warn(RuleCategoryOutlier, strings.Join(problems, "; "),
		"check the values or the category assignment")
}

// miscategorised catches names that clearly belong elsewhere and returns a specific hint.
func miscategorised(name string, cat category.Category) (string, bool) {
	folded := textutil.Fold(name)
	switch cat {
	case category.Grains:
		if IsAlcoholic(name) {
			return "alcoholic beverage filed as grain; expected " + string(category.Beverages), true
		}
		if matchesAny(folded, oilTerms) {
			return "oil filed as grain; expected " + string(category.FatsOils), true
		}
		if matchesAny(folded, leafyGreens) {
			return "leafy greens filed as grain; expected " + string(category.Vegetables), true
		}
	case category.DairyEggs:
		if matchesAny(folded, oilTerms) {
			return "oil filed as dairy; expected " + string(category.FatsOils), true
		}
	}
	return "", false
}

// perHundredScale returns the factor that converts serving values to per 100 g.
func perHundredScale(s catalog.Serving) (float64, bool) {
	if s.PerHundred() {
		return 1, true
	}
	mass, ok := s.MassGrams()
	if !ok || mass <= 0 {
		return 0, false
	}
	return 100 / mass, true
}
