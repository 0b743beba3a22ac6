package testsupport

import "nutriverify/internal/catalog"

// RecordOption customizes a test record.
type RecordOption func(*catalog.Record)

// NewRecord builds an unverified 100 g record with consistent macros:
// 10 g protein, 20 g carbs, 5 g fat and 165 kcal.
func NewRecord(name string, opts ...RecordOption) catalog.Record {
	rec := catalog.Record{
		Name:     name,
		Category: "Other",
		Serving:  catalog.Serving{Quantity: 100, Unit: "g", Description: "100g"},
		Macros: catalog.Macros{
			Calories: 165,
			ProteinG: 10,
			CarbsG:   20,
			FatG:     5,
		},
		Source: catalog.Source{Name: "usda"},
		State:  catalog.StateUnverified,
	}
	for _, opt := range opts {
		opt(&rec)
	}
	return rec
}

// WithMacros replaces calories, protein, carbs and fat.
func WithMacros(calories, protein, carbs, fat float64) RecordOption {
	return func(r *catalog.Record) {
		r.Macros.Calories = calories
		r.Macros.ProteinG = protein
		r.Macros.CarbsG = carbs
		r.Macros.FatG = fat
	}
}

// WithFiberSugar sets the optional carbohydrate components.
func WithFiberSugar(fiber, sugar float64) RecordOption {
	return func(r *catalog.Record) {
		r.Macros.FiberG = catalog.Float(fiber)
		r.Macros.SugarG = catalog.Float(sugar)
	}
}

// WithServing replaces the serving.
func WithServing(quantity float64, unit, description string) RecordOption {
	return func(r *catalog.Record) {
		r.Serving = catalog.Serving{Quantity: quantity, Unit: unit, Description: description}
	}
}

// WithCategory sets the record category.
func WithCategory(category string) RecordOption {
	return func(r *catalog.Record) {
		r.Category = category
	}
}

// WithBrand sets the record brand.
func WithBrand(brand string) RecordOption {
	return func(r *catalog.Record) {
		r.Brand = brand
	}
}

// WithSource sets the provider name.
func WithSource(name string) RecordOption {
	return func(r *catalog.Record) {
		r.Source = catalog.Source{Name: name}
	}
}

// WithState sets the lifecycle state.
func WithState(state catalog.State) RecordOption {
	return func(r *catalog.Record) {
		r.State = state
	}
}

// WithMicronutrients sets micronutrient values.
func WithMicronutrients(values map[string]float64) RecordOption {
	return func(r *catalog.Record) {
		r.Micronutrients = values
	}
}
