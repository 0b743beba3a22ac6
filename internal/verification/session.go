package verification

import (
	"time"

	"nutriverify/internal/catalog"
	"nutriverify/internal/oracle"
	"nutriverify/internal/reference"
	"nutriverify/internal/rules"
)

// Phase is a position in the correction loop.
type Phase string

const (
	PhasePending            Phase = "pending"
	PhaseChecking           Phase = "checking"
	PhaseAwaitingCorrection Phase = "awaiting_correction"
	PhaseFinalValidation    Phase = "final_validation"
)

// Outcome is how a session ended.
type Outcome string

const (
	OutcomeVerified Outcome = "verified"
	OutcomeFlagged  Outcome = "flagged"
	// OutcomeRetry leaves the record for a later batch.
	OutcomeRetry Outcome = "retry"
)

// Attempt is one applied correction.
type Attempt struct {
	Number     int             `json:"number"`
	Before     catalog.Macros  `json:"before"`
	After      catalog.Macros  `json:"after"`
	Fields     []string        `json:"fields"`
	Findings   []rules.Finding `json:"findings"`
	Rationale  string          `json:"rationale,omitempty"`
	Confidence float64         `json:"confidence"`
	Clamped    []string        `json:"clamped,omitempty"`
}

type session struct {
	record      catalog.Record
	phase       Phase
	findings    []rules.Finding
	attempts    []Attempt
	oracleCalls int
	validation  *oracle.Validation
	reference   *reference.Match
	refFetched  bool
	confidence  float64
	rationale   string
	started     time.Time
}

// transition is the result of one step: either continue into next or stop
// with an outcome.
type transition struct {
	next    Phase
	done    bool
	outcome Outcome
	err     error
	message string
}

func continueTo(next Phase) transition {
	return transition{next: next}
}

func terminate(outcome Outcome, err error, message string) transition {
	return transition{done: true, outcome: outcome, err: err, message: message}
}
