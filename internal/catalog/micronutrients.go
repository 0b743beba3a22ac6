package catalog

// MicronutrientKeys is the fixed catalogue of tracked micronutrients. Keys
// carry their unit suffix.
var MicronutrientKeys = []string{
	"sodium_mg",
	"potassium_mg",
	"calcium_mg",
	"iron_mg",
	"magnesium_mg",
	"phosphorus_mg",
	"zinc_mg",
	"vitamin_a_ug",
	"vitamin_c_mg",
	"vitamin_d_ug",
	"vitamin_e_mg",
	"vitamin_k_ug",
	"thiamin_mg",
	"riboflavin_mg",
	"niacin_mg",
	"vitamin_b6_mg",
	"folate_ug",
	"vitamin_b12_ug",
	"cholesterol_mg",
	"saturated_fat_g",
}

var micronutrientSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(MicronutrientKeys))
	for _, key := range MicronutrientKeys {
		set[key] = struct{}{}
	}
	return set
}()

// IsMicronutrientKey reports whether key is part of the tracked catalogue.
func IsMicronutrientKey(key string) bool {
	_, ok := micronutrientSet[key]
	return ok
}

// PresentMicronutrients counts catalogue keys that carry a value.
func PresentMicronutrients(values map[string]float64) int {
	count := 0
	for key, value := range values {
		if _, ok := micronutrientSet[key]; ok && value >= 0 {
			count++
		}
	}
	return count
}
