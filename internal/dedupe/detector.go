// Package dedupe finds advisory near-duplicate records by name similarity.
// Pairs are reported for human review and never merged automatically.
package dedupe

import (
	"sort"
	"time"

	"nutriverify/internal/catalog"
	"nutriverify/internal/textutil"
)

// DefaultThreshold is the similarity a pair must exceed to be reported.
const DefaultThreshold = 0.8

// Pair is a near-duplicate candidate. LeftID is always the smaller id.
type Pair struct {
	LeftID     int64   `json:"left_id"`
	RightID    int64   `json:"right_id"`
	LeftName   string  `json:"left_name"`
	RightName  string  `json:"right_name"`
	Similarity float64 `json:"similarity"`
}

// Detector compares record names pairwise.
type Detector struct {
	threshold float64
}

// NewDetector returns a detector; non-positive thresholds fall back to DefaultThreshold.
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold}
}

// Threshold returns the configured similarity threshold.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

type folded struct {
	id   int64
	name string
	key  string
}

// Candidates returns every pair whose name similarity exceeds the threshold,
// ordered by similarity descending then by ids.
func (d *Detector) Candidates(records []catalog.Record) []Pair {
	items := foldAll(records)
	var pairs []Pair
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if p, ok := d.compare(items[i], items[j]); ok {
				pairs = append(pairs, p)
			}
		}
	}
	sortPairs(pairs)
	return pairs
}

// Against compares each subject with every record in pool. Pairs found from
// both sides are reported once.
func (d *Detector) Against(subjects, pool []catalog.Record) []Pair {
	left := foldAll(subjects)
	right := foldAll(pool)
	seen := make(map[[2]int64]struct{})
	var pairs []Pair
	for _, a := range left {
		for _, b := range right {
			p, ok := d.compare(a, b)
			if !ok {
				continue
			}
			key := [2]int64{p.LeftID, p.RightID}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			pairs = append(pairs, p)
		}
	}
	sortPairs(pairs)
	return pairs
}

func foldAll(records []catalog.Record) []folded {
	items := make([]folded, 0, len(records))
	for _, rec := range records {
		items = append(items, folded{id: rec.ID, name: rec.Name, key: textutil.Fold(rec.Name)})
	}
	return items
}

func (d *Detector) compare(a, b folded) (Pair, bool) {
	if a.id == b.id {
		return Pair{}, false
	}
	sim := textutil.Similarity(a.key, b.key)
	if sim <= d.threshold {
		return Pair{}, false
	}
	if a.id > b.id {
		a, b = b, a
	}
	return Pair{
		LeftID:     a.id,
		RightID:    b.id,
		LeftName:   a.name,
		RightName:  b.name,
		Similarity: sim,
	}, true
}

func sortPairs(pairs []Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Similarity != pairs[j].Similarity {
			return pairs[i].Similarity > pairs[j].Similarity
		}
		if pairs[i].LeftID != pairs[j].LeftID {
			return pairs[i].LeftID < pairs[j].LeftID
		}
		return pairs[i].RightID < pairs[j].RightID
	})
}

// ToCandidates converts pairs into persisted duplicate candidates.
func ToCandidates(pairs []Pair, detectedAt time.Time) []catalog.DuplicateCandidate {
	out := make([]catalog.DuplicateCandidate, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, catalog.DuplicateCandidate{
			LeftID:     p.LeftID,
			RightID:    p.RightID,
			LeftName:   p.LeftName,
			RightName:  p.RightName,
			Similarity: p.Similarity,
			DetectedAt: detectedAt,
		})
	}
	return out
}
