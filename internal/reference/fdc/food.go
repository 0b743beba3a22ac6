package fdc

import (
	"strings"

	"nutriverify/internal/catalog"
)

// SearchResponse models the paginated food search response.
type SearchResponse struct {
	TotalHits   int    `json:"totalHits"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	Foods       []Food `json:"foods"`
}

// Food is one search hit. Nutrient values are per 100 g.
type Food struct {
	FDCID           int64          `json:"fdcId"`
	Description     string         `json:"description"`
	DataType        string         `json:"dataType"`
	BrandOwner      string         `json:"brandOwner"`
	BrandName       string         `json:"brandName"`
	ServingSize     float64        `json:"servingSize"`
	ServingSizeUnit string         `json:"servingSizeUnit"`
	FoodNutrients   []FoodNutrient `json:"foodNutrients"`
}

// FoodNutrient is a single nutrient entry of a search hit.
type FoodNutrient struct {
	NutrientID     int     `json:"nutrientId"`
	NutrientName   string  `json:"nutrientName"`
	NutrientNumber string  `json:"nutrientNumber"`
	UnitName       string  `json:"unitName"`
	Value          float64 `json:"value"`
}

// Brand returns the brand name, falling back to the owner.
func (f Food) Brand() string {
	if name := strings.TrimSpace(f.BrandName); name != "" {
		return name
	}
	return strings.TrimSpace(f.BrandOwner)
}

// Composition is a per-100 g nutrient panel in catalog terms.
type Composition struct {
	Macros         catalog.Macros     `json:"macros"`
	Micronutrients map[string]float64 `json:"micronutrients,omitempty"`
}

// Scale multiplies every value by factor.
func (c Composition) Scale(factor float64) Composition {
	out := Composition{Macros: c.Macros.Clone()}
	out.Macros.Calories *= factor
	out.Macros.ProteinG *= factor
	out.Macros.CarbsG *= factor
	out.Macros.FatG *= factor
	if out.Macros.FiberG != nil {
		*out.Macros.FiberG *= factor
	}
	if out.Macros.SugarG != nil {
		*out.Macros.SugarG *= factor
	}
	if len(c.Micronutrients) > 0 {
		out.Micronutrients = make(map[string]float64, len(c.Micronutrients))
		for key, value := range c.Micronutrients {
			out.Micronutrients[key] = value * factor
		}
	}
	return out
}

// Nutrient numbers used by the search API.
const (
	numberEnergy         = "208"
	numberEnergyAtwater  = "957"
	numberEnergyGeneral  = "958"
	numberProtein        = "203"
	numberCarbs          = "205"
	numberFat            = "204"
	numberFiber          = "291"
	numberSugars         = "269"
	numberSugarsIncluded = "269.3"
)

// Nutrient ids used when a hit carries no nutrient number.
var nutrientIDNumbers = map[int]string{
	1008: numberEnergy,
	2047: numberEnergyAtwater,
	2048: numberEnergyGeneral,
	1003: numberProtein,
	1005: numberCarbs,
	1004: numberFat,
	1079: numberFiber,
	2000: numberSugars,
	1063: numberSugars,
}

var micronutrientNumbers = map[string]string{
	"307": "sodium_mg",
	"306": "potassium_mg",
	"301": "calcium_mg",
	"303": "iron_mg",
	"304": "magnesium_mg",
	"305": "phosphorus_mg",
	"309": "zinc_mg",
	"320": "vitamin_a_ug",
	"401": "vitamin_c_mg",
	"328": "vitamin_d_ug",
	"323": "vitamin_e_mg",
	"430": "vitamin_k_ug",
	"404": "thiamin_mg",
	"405": "riboflavin_mg",
	"406": "niacin_mg",
	"415": "vitamin_b6_mg",
	"417": "folate_ug",
	"418": "vitamin_b12_ug",
	"601": "cholesterol_mg",
	"606": "saturated_fat_g",
}

func (n FoodNutrient) number() string {
	if number := strings.TrimSpace(n.NutrientNumber); number != "" {
		return number
	}
	return nutrientIDNumbers[n.NutrientID]
}

// Composition maps the nutrient panel onto catalog macros and micronutrients.
// Energy falls back to the Atwater factors when the kcal entry is missing;
// energy reported in kJ is ignored.
func (f Food) Composition() Composition {
	var (
		out      Composition
		energy   = map[string]float64{}
		micros   = map[string]float64{}
		hasSugar bool
	)
	for _, nutrient := range f.FoodNutrients {
		number := nutrient.number()
		switch number {
		case numberEnergy, numberEnergyAtwater, numberEnergyGeneral:
			if strings.EqualFold(strings.TrimSpace(nutrient.UnitName), "kj") {
				continue
			}
			energy[number] = nutrient.Value
		case numberProtein:
			out.Macros.ProteinG = nutrient.Value
		case numberCarbs:
			out.Macros.CarbsG = nutrient.Value
		case numberFat:
			out.Macros.FatG = nutrient.Value
		case numberFiber:
			out.Macros.FiberG = catalog.Float(nutrient.Value)
		case numberSugars, numberSugarsIncluded:
			if !hasSugar {
				out.Macros.SugarG = catalog.Float(nutrient.Value)
				hasSugar = true
			}
		default:
			if key, ok := micronutrientNumbers[number]; ok {
				micros[key] = nutrient.Value
			}
		}
	}
	for _, number := range []string{numberEnergy, numberEnergyAtwater, numberEnergyGeneral} {
		if value, ok := energy[number]; ok {
			out.Macros.Calories = value
			break
		}
	}
	if len(micros) > 0 {
		out.Micronutrients = micros
	}
	return out
}
