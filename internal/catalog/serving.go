package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Serving describes the portion a record's nutrient values refer to.
type Serving struct {
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Description string  `json:"description,omitempty"`
}

var gramsPerUnit = map[string]float64{
	"g":    1,
	"kg":   1000,
	"mg":   0.001,
	"oz":   28.3495,
	"lb":   453.592,
	"ml":   1,
	"l":    1000,
	"cup":  240,
	"tbsp": 15,
	"tsp":  5,
}

var unitAliases = map[string]string{
	"g": "g", "gram": "g", "grams": "g", "gr": "g",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg",
	"mg": "mg", "milligram": "mg", "milligrams": "mg",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
	"ml": "ml", "milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"l": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"cup": "cup", "cups": "cup",
	"tbsp": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
}

var (
	parenMassPattern  = regexp.MustCompile(`\(\s*(\d+(?:\.\d+)?)\s*([a-zA-Z]+)\s*\)`)
	leadingQtyPattern = regexp.MustCompile(`^\s*(\d+\s*/\s*\d+|\d+(?:\.\d+)?)\s*([a-zA-Z]*)`)
)

// NormalizeUnit maps unit spellings onto the canonical abbreviations. Unknown
// units are returned lower-cased.
func NormalizeUnit(unit string) string {
	key := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(unit), ".")))
	if canonical, ok := unitAliases[key]; ok {
		return canonical
	}
	return key
}

// MassGrams converts the serving into grams. A parenthesised mass in the
// description ("1 cup (240g)") wins over the quantity and unit. Liquids use a
// density of 1 g/ml.
func (s Serving) MassGrams() (float64, bool) {
	if match := parenMassPattern.FindStringSubmatch(s.Description); match != nil {
		qty, err := strconv.ParseFloat(match[1], 64)
		if err == nil {
			if factor, ok := gramsPerUnit[NormalizeUnit(match[2])]; ok && qty > 0 {
				return qty * factor, true
			}
		}
	}
	if s.Quantity <= 0 {
		return 0, false
	}
	factor, ok := gramsPerUnit[NormalizeUnit(s.Unit)]
	if !ok {
		return 0, false
	}
	return s.Quantity * factor, true
}

// PerHundred reports whether values are normalised per 100 g or 100 ml.
func (s Serving) PerHundred() bool {
	unit := NormalizeUnit(s.Unit)
	return s.Quantity == 100 && (unit == "g" || unit == "ml")
}

// String renders the serving for display.
func (s Serving) String() string {
	if strings.TrimSpace(s.Description) != "" {
		return s.Description
	}
	if s.Quantity <= 0 {
		return ""
	}
	return strconv.FormatFloat(s.Quantity, 'f', -1, 64) + s.Unit
}

// ParseServing reads provider serving strings such as "100g", "1 cup (240g)",
// "2 tbsp" or "1/2 cup".
func ParseServing(description string) (Serving, error) {
	trimmed := strings.TrimSpace(description)
	serving := Serving{Description: trimmed}
	if trimmed == "" {
		return serving, fmt.Errorf("empty serving description")
	}
	match := leadingQtyPattern.FindStringSubmatch(trimmed)
	if match == nil {
		if _, ok := serving.MassGrams(); ok {
			return serving, nil
		}
		return serving, fmt.Errorf("unrecognised serving %q", description)
	}
	qty, err := parseQuantity(match[1])
	if err != nil {
		return serving, fmt.Errorf("serving quantity %q: %w", match[1], err)
	}
	serving.Quantity = qty
	unit := match[2]
	if unit == "" {
		rest := strings.Fields(strings.TrimSpace(trimmed[len(match[0]):]))
		if len(rest) > 0 {
			unit = rest[0]
		}
	}
	serving.Unit = NormalizeUnit(unit)
	return serving, nil
}

func parseQuantity(raw string) (float64, error) {
	raw = strings.ReplaceAll(raw, " ", "")
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return 0, fmt.Errorf("zero denominator")
		}
		return n / d, nil
	}
	return strconv.ParseFloat(raw, 64)
}
