// Package rules holds the deterministic nutrient checks.
//
// Engine.Evaluate is pure: it reads a catalog record and returns one Finding
// per rule in a fixed order (mass_balance, carb_components, density,
// category_outlier). Density violations are critical; everything else is a
// warning that the correction loop may try to fix.
package rules
