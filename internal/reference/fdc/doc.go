// Package fdc is a small client for the FoodData Central food search API.
//
// Search returns per-100 g nutrient panels; Food.Composition maps the
// provider's nutrient numbers onto catalog macros and the tracked
// micronutrient keys.
package fdc
