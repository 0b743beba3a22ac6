package oracle

import (
	"nutriverify/internal/catalog"
	"nutriverify/internal/category"
	"nutriverify/internal/reference"
	"nutriverify/internal/rules"
)

// Verdict is the parsed answer to a correction request: Proposal or NoCorrection.
type Verdict interface {
	isVerdict()
}

// Fields lists replacement values. Nil fields are left unchanged.
type Fields struct {
	Calories           *float64 `json:"calories,omitempty"`
	ProteinG           *float64 `json:"protein_g,omitempty"`
	CarbsG             *float64 `json:"carbs_g,omitempty"`
	FatG               *float64 `json:"fat_g,omitempty"`
	FiberG             *float64 `json:"fiber_g,omitempty"`
	SugarG             *float64 `json:"sugar_g,omitempty"`
	ServingQuantity    *float64 `json:"serving_quantity,omitempty"`
	ServingUnit        *string  `json:"serving_unit,omitempty"`
	ServingDescription *string  `json:"serving_description,omitempty"`
	Category           *string  `json:"category,omitempty"`
}

// Names returns the json names of the fields that carry a value.
func (f Fields) Names() []string {
	var names []string
	add := func(set bool, name string) {
		if set {
			names = append(names, name)
		}
	}
	add(f.Calories != nil, "calories")
	add(f.ProteinG != nil, "protein_g")
	add(f.CarbsG != nil, "carbs_g")
	add(f.FatG != nil, "fat_g")
	add(f.FiberG != nil, "fiber_g")
	add(f.SugarG != nil, "sugar_g")
	add(f.ServingQuantity != nil, "serving_quantity")
	add(f.ServingUnit != nil, "serving_unit")
	add(f.ServingDescription != nil, "serving_description")
	add(f.Category != nil, "category")
	return names
}

// Empty reports whether no field carries a value.
func (f Fields) Empty() bool {
	return len(f.Names()) == 0
}

// Proposal carries replacement values the oracle asserts are needed.
type Proposal struct {
	Fields     Fields  `json:"fields"`
	Rationale  string  `json:"rationale"`
	Confidence float64 `json:"confidence"`
}

// NoCorrection means the oracle declined to change the record.
type NoCorrection struct {
	Rationale  string  `json:"rationale"`
	Confidence float64 `json:"confidence"`
}

func (Proposal) isVerdict()     {}
func (NoCorrection) isVerdict() {}

// Validation is the answer to a final validation question.
type Validation struct {
	Accurate   bool     `json:"accurate"`
	Confidence float64  `json:"confidence"`
	Issues     []string `json:"issues,omitempty"`
	Rationale  string   `json:"rationale,omitempty"`
}

// Classification is the oracle's taxonomy assignment.
type Classification struct {
	Category   category.Category `json:"category"`
	Confidence float64           `json:"confidence"`
	Rationale  string            `json:"rationale,omitempty"`
}

// CorrectionRequest is everything the oracle sees when asked for a fix.
type CorrectionRequest struct {
	Record    catalog.Record
	Findings  []rules.Finding
	Reference *reference.Match
	Attempt   int
	// Previous holds the value sets tried in earlier attempts.
	Previous []catalog.Macros
}
