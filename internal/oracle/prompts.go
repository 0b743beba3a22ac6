package oracle

import (
	"encoding/json"
	"strings"

	"nutriverify/internal/catalog"
	"nutriverify/internal/category"
	"nutriverify/internal/reference"
	"nutriverify/internal/rules"
)

const correctionSystemPrompt = `You review nutrition facts for a single food serving.
You receive the current values, the failed consistency checks and, when available, a reference composition scaled to the same serving.
Decide whether the values must change to resolve the failed checks.
Respond with JSON only:
{"needs_correction": true|false, "corrections": {"calories": n, "protein_g": n, "carbs_g": n, "fat_g": n, "fiber_g": n, "sugar_g": n, "serving_quantity": n, "serving_unit": "g", "serving_description": "...", "category": "..."}, "rationale": "...", "confidence": 0-100}
Only include the fields you change. Fiber and sugar can never exceed carbohydrates. Calories should be close to 4*protein + 4*carbs + 9*fat unless the food contains alcohol.`

const validationSystemPrompt = `You validate nutrition facts for a single food serving.
Answer whether the values are plausible for the named food and serving.
Respond with JSON only:
{"accurate": true|false, "confidence": 0-100, "issues": ["..."], "rationale": "..."}`

func classificationSystemPrompt() string {
	labels := make([]string, 0, len(category.All()))
	for _, cat := range category.All() {
		labels = append(labels, string(cat))
	}
	return `You assign a food to exactly one category from this list: ` + strings.Join(labels, "; ") + `.
Respond with JSON only:
{"category": "<one of the list>", "confidence": 0-100, "rationale": "..."}`
}

type promptServing struct {
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit"`
	Description string   `json:"description,omitempty"`
	MassGrams   *float64 `json:"mass_grams,omitempty"`
}

type promptRecord struct {
	Name           string             `json:"name"`
	Brand          string             `json:"brand,omitempty"`
	Category       string             `json:"category,omitempty"`
	Serving        promptServing      `json:"serving"`
	Macros         catalog.Macros     `json:"macros"`
	Micronutrients map[string]float64 `json:"micronutrients,omitempty"`
}

type promptFinding struct {
	Rule     string         `json:"rule"`
	Severity rules.Severity `json:"severity"`
	Details  string         `json:"details"`
	Hint     string         `json:"hint,omitempty"`
}

type promptReference struct {
	Description string         `json:"description"`
	DataType    string         `json:"data_type"`
	Brand       string         `json:"brand,omitempty"`
	Scaled      catalog.Macros `json:"macros_for_serving"`
	PerHundred  catalog.Macros `json:"macros_per_100g"`
}

type correctionPrompt struct {
	Record           promptRecord     `json:"record"`
	FailedChecks     []promptFinding  `json:"failed_checks"`
	Reference        *promptReference `json:"reference,omitempty"`
	Attempt          int              `json:"attempt"`
	PreviousAttempts []catalog.Macros `json:"previous_attempts,omitempty"`
}

func newPromptRecord(rec catalog.Record) promptRecord {
	serving := promptServing{
		Quantity:    rec.Serving.Quantity,
		Unit:        rec.Serving.Unit,
		Description: rec.Serving.Description,
	}
	if mass, ok := rec.Serving.MassGrams(); ok {
		serving.MassGrams = &mass
	}
	return promptRecord{
		Name:           rec.Name,
		Brand:          rec.Brand,
		Category:       rec.Category,
		Serving:        serving,
		Macros:         rec.Macros,
		Micronutrients: rec.Micronutrients,
	}
}

func buildCorrectionPrompt(req CorrectionRequest) (string, error) {
	prompt := correctionPrompt{
		Record:           newPromptRecord(req.Record),
		Attempt:          req.Attempt,
		PreviousAttempts: req.Previous,
	}
	for _, f := range rules.Failing(req.Findings) {
		prompt.FailedChecks = append(prompt.FailedChecks, promptFinding{
			Rule:     f.Rule,
			Severity: f.Severity,
			Details:  f.Details,
			Hint:     f.Hint,
		})
	}
	if req.Reference != nil {
		prompt.Reference = newPromptReference(req.Reference)
	}
	return marshalPrompt(prompt)
}

func newPromptReference(match *reference.Match) *promptReference {
	return &promptReference{
		Description: match.Description,
		DataType:    match.DataType,
		Brand:       match.Brand,
		Scaled:      match.Scaled.Macros,
		PerHundred:  match.PerHundred.Macros,
	}
}

func buildValidationPrompt(rec catalog.Record) (string, error) {
	return marshalPrompt(struct {
		Record promptRecord `json:"record"`
	}{Record: newPromptRecord(rec)})
}

func buildClassificationPrompt(name, brand string) (string, error) {
	return marshalPrompt(struct {
		Name  string `json:"name"`
		Brand string `json:"brand,omitempty"`
	}{Name: name, Brand: brand})
}

func marshalPrompt(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
