package catalog

import (
	"strings"
	"time"
)

// State represents the verification lifecycle of a catalog record.
type State string

const (
	StateUnverified State = "unverified"
	StateProcessing State = "processing"
	StateVerified   State = "verified"
	StateFlagged    State = "flagged"
)

var allStates = []State{
	StateUnverified,
	StateProcessing,
	StateVerified,
	StateFlagged,
}

// AllStates returns the ordered list of known states.
func AllStates() []State {
	out := make([]State, len(allStates))
	copy(out, allStates)
	return out
}

// ParseState normalizes user input into a State.
func ParseState(value string) (State, bool) {
	candidate := State(strings.ToLower(strings.TrimSpace(value)))
	for _, state := range allStates {
		if state == candidate {
			return state, true
		}
	}
	return "", false
}

// IsTerminal reports whether the state ends a verification pass.
func (s State) IsTerminal() bool {
	return s == StateVerified || s == StateFlagged
}

// Macros holds the macronutrient values of one serving. Fiber and sugar are
// optional carbohydrate sub-components.
type Macros struct {
	Calories float64  `json:"calories"`
	ProteinG float64  `json:"protein_g"`
	CarbsG   float64  `json:"carbs_g"`
	FatG     float64  `json:"fat_g"`
	FiberG   *float64 `json:"fiber_g,omitempty"`
	SugarG   *float64 `json:"sugar_g,omitempty"`
}

// Fiber returns the fiber value and whether it is known.
func (m Macros) Fiber() (float64, bool) {
	if m.FiberG == nil {
		return 0, false
	}
	return *m.FiberG, true
}

// Sugar returns the sugar value and whether it is known.
func (m Macros) Sugar() (float64, bool) {
	if m.SugarG == nil {
		return 0, false
	}
	return *m.SugarG, true
}

// TotalGrams sums protein, carbs and fat. Fiber and sugar are already part of carbs.
func (m Macros) TotalGrams() float64 {
	return m.ProteinG + m.CarbsG + m.FatG
}

// Clone returns a deep copy of the macros.
func (m Macros) Clone() Macros {
	out := m
	if m.FiberG != nil {
		v := *m.FiberG
		out.FiberG = &v
	}
	if m.SugarG != nil {
		v := *m.SugarG
		out.SugarG = &v
	}
	return out
}

// Float returns a pointer to v for optional macro fields.
func Float(v float64) *float64 {
	return &v
}

// Source identifies the provider a record was ingested from.
type Source struct {
	Name       string `json:"name"`
	ExternalID string `json:"external_id,omitempty"`
}

// SourceTier ranks provider trust.
type SourceTier string

const (
	TierAuthoritative SourceTier = "authoritative"
	TierSecondary     SourceTier = "secondary"
	TierUserSubmitted SourceTier = "user_submitted"
	TierUnknown       SourceTier = "unknown"
)

var sourceTiers = map[string]SourceTier{
	"usda":             TierAuthoritative,
	"fdc":              TierAuthoritative,
	"usda_fdc":         TierAuthoritative,
	"fooddata_central": TierAuthoritative,
	"foundation":       TierAuthoritative,
	"sr_legacy":        TierAuthoritative,
	"cnf":              TierAuthoritative,
	"nevo":             TierAuthoritative,
	"nutritionix":      TierSecondary,
	"open_food_facts":  TierSecondary,
	"openfoodfacts":    TierSecondary,
	"edamam":           TierSecondary,
	"fatsecret":        TierSecondary,
	"manufacturer":     TierSecondary,
	"branded":          TierSecondary,
	"label":            TierSecondary,
	"user":             TierUserSubmitted,
	"user_submitted":   TierUserSubmitted,
	"community":        TierUserSubmitted,
	"manual":           TierUserSubmitted,
	"crowdsourced":     TierUserSubmitted,
}

// Tier maps the source name onto a trust tier.
func (s Source) Tier() SourceTier {
	key := strings.ToLower(strings.TrimSpace(s.Name))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if tier, ok := sourceTiers[key]; ok {
		return tier
	}
	return TierUnknown
}

// Record is one food-serving entry in the catalog. Deferrals counts batches
// that handed the record back because the oracle was unreachable.
type Record struct {
	ID                   int64
	Name                 string
	Brand                string
	Category             string
	Serving              Serving
	Macros               Macros
	Micronutrients       map[string]float64
	Source               Source
	State                State
	QualityScore         int
	VerificationAttempts int
	Deferrals            int
	LastVerifiedAt       *time.Time
	Audit                string
	ReviewFlags          []string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Clone returns a deep copy so callers can mutate values without touching the original.
func (r Record) Clone() Record {
	out := r
	out.Macros = r.Macros.Clone()
	if r.Micronutrients != nil {
		out.Micronutrients = make(map[string]float64, len(r.Micronutrients))
		for k, v := range r.Micronutrients {
			out.Micronutrients[k] = v
		}
	}
	if r.ReviewFlags != nil {
		out.ReviewFlags = append([]string(nil), r.ReviewFlags...)
	}
	if r.LastVerifiedAt != nil {
		ts := *r.LastVerifiedAt
		out.LastVerifiedAt = &ts
	}
	return out
}

// DisplayName joins brand and name for logs and prompts.
func (r Record) DisplayName() string {
	name := strings.TrimSpace(r.Name)
	brand := strings.TrimSpace(r.Brand)
	if brand == "" {
		return name
	}
	return brand + " " + name
}

// DuplicateCandidate is a persisted advisory near-duplicate pair.
type DuplicateCandidate struct {
	LeftID     int64
	RightID    int64
	LeftName   string
	RightName  string
	Similarity float64
	DetectedAt time.Time
}

// ListFilter narrows List results.
type ListFilter struct {
	States []State
	Limit  int
	Offset int
}

// Stats aggregates catalog counts for reporting.
type Stats struct {
	Total               int
	ByState             map[State]int
	StaleProcessing     int
	DuplicateCandidates int
	AverageScore        float64
}
