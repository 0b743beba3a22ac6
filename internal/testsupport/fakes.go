package testsupport

import (
	"context"
	"sync"

	"nutriverify/internal/catalog"
	"nutriverify/internal/oracle"
	"nutriverify/internal/reference"
)

// FakeOracle is a scripted oracle.Oracle. Verdicts and validations are
// returned in order; the last entry repeats once the script runs out.
type FakeOracle struct {
	mu sync.Mutex

	Verdicts       []oracle.Verdict
	VerdictErr     error
	Validations    []oracle.Validation
	ValidationErr  error
	Classification oracle.Classification
	ClassifyErr    error

	CorrectionRequests []oracle.CorrectionRequest
	ValidatedRecords   []catalog.Record
	ClassifyCalls      int
}

var _ oracle.Oracle = (*FakeOracle)(nil)

// ProposeCorrection records the request and returns the next scripted verdict.
func (f *FakeOracle) ProposeCorrection(_ context.Context, req oracle.CorrectionRequest) (oracle.Verdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CorrectionRequests = append(f.CorrectionRequests, req)
	if f.VerdictErr != nil {
		return nil, f.VerdictErr
	}
	if len(f.Verdicts) == 0 {
		return oracle.NoCorrection{Rationale: "no script"}, nil
	}
	idx := min(len(f.CorrectionRequests)-1, len(f.Verdicts)-1)
	return f.Verdicts[idx], nil
}

// FinalValidation records the record and returns the next scripted validation.
func (f *FakeOracle) FinalValidation(_ context.Context, rec catalog.Record) (oracle.Validation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ValidatedRecords = append(f.ValidatedRecords, rec.Clone())
	if f.ValidationErr != nil {
		return oracle.Validation{}, f.ValidationErr
	}
	if len(f.Validations) == 0 {
		return oracle.Validation{Accurate: true, Confidence: 95}, nil
	}
	idx := min(len(f.ValidatedRecords)-1, len(f.Validations)-1)
	return f.Validations[idx], nil
}

// ClassifyCategory returns the scripted classification.
func (f *FakeOracle) ClassifyCategory(context.Context, string, string) (oracle.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClassifyCalls++
	return f.Classification, f.ClassifyErr
}

// Calls returns the total number of oracle invocations.
func (f *FakeOracle) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.CorrectionRequests) + len(f.ValidatedRecords) + f.ClassifyCalls
}

// FakeLookup is a canned reference lookup.
type FakeLookup struct {
	mu      sync.Mutex
	Match   *reference.Match
	Err     error
	Queries []reference.Query
}

// Lookup records the query and returns the canned result.
func (f *FakeLookup) Lookup(_ context.Context, q reference.Query, _ float64) (*reference.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Queries = append(f.Queries, q)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Match == nil {
		return nil, reference.ErrNoMatch
	}
	return f.Match, nil
}

// Proposal builds a correction proposal replacing the four main macros.
func Proposal(calories, protein, carbs, fat float64) oracle.Proposal {
	return oracle.Proposal{
		Fields: oracle.Fields{
			Calories: catalog.Float(calories),
			ProteinG: catalog.Float(protein),
			CarbsG:   catalog.Float(carbs),
			FatG:     catalog.Float(fat),
		},
		Rationale:  "scripted correction",
		Confidence: 80,
	}
}
