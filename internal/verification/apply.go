package verification

import (
	"strings"

	"nutriverify/internal/catalog"
	"nutriverify/internal/category"
	"nutriverify/internal/oracle"
)

// applyProposal overwrites the named fields of rec and clamps fiber and sugar
// to carbohydrates. It returns the names of clamped fields.
func applyProposal(rec *catalog.Record, fields oracle.Fields) []string {
	m := &rec.Macros
	if fields.Calories != nil {
		m.Calories = *fields.Calories
	}
	if fields.ProteinG != nil {
		m.ProteinG = *fields.ProteinG
	}
	if fields.CarbsG != nil {
		m.CarbsG = *fields.CarbsG
	}
	if fields.FatG != nil {
		m.FatG = *fields.FatG
	}
	if fields.FiberG != nil {
		m.FiberG = catalog.Float(*fields.FiberG)
	}
	if fields.SugarG != nil {
		m.SugarG = catalog.Float(*fields.SugarG)
	}
	if fields.ServingQuantity != nil {
		rec.Serving.Quantity = *fields.ServingQuantity
	}
	if fields.ServingUnit != nil {
		rec.Serving.Unit = catalog.NormalizeUnit(*fields.ServingUnit)
	}
	if fields.ServingDescription != nil {
		rec.Serving.Description = strings.TrimSpace(*fields.ServingDescription)
	}
	if fields.Category != nil {
		if cat, ok := category.Canonical(*fields.Category); ok {
			rec.Category = string(cat)
		}
	}

	var clamped []string
	if fiber, ok := m.Fiber(); ok && fiber > m.CarbsG {
		m.FiberG = catalog.Float(m.CarbsG)
		clamped = append(clamped, "fiber_g")
	}
	if sugar, ok := m.Sugar(); ok && sugar > m.CarbsG {
		m.SugarG = catalog.Float(m.CarbsG)
		clamped = append(clamped, "sugar_g")
	}
	return clamped
}
