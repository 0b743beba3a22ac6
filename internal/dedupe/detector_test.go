package dedupe_test

import (
	"testing"
	"time"

	"nutriverify/internal/catalog"
	"nutriverify/internal/dedupe"
	"nutriverify/internal/testsupport"
	"nutriverify/internal/textutil"
)

func withID(id int64, name string) catalog.Record {
	rec := testsupport.NewRecord(name)
	rec.ID = id
	return rec
}

func TestSimilarityExamples(t *testing.T) {
	if sim := textutil.NameSimilarity("Chicken Breast, Raw", "Chicken Breast Raw"); sim <= 0.8 {
		t.Fatalf("expected near-identical names above 0.8, got %.3f", sim)
	}
	if sim := textutil.NameSimilarity("Chicken Breast", "Beef Steak"); sim >= 0.5 {
		t.Fatalf("expected unrelated names far below 0.8, got %.3f", sim)
	}
}

func TestCandidatesOrderedBySimilarity(t *testing.T) {
	detector := dedupe.NewDetector(0.8)
	records := []catalog.Record{
		withID(3, "Chicken Breast Raw"),
		withID(1, "Chicken Breast, Raw"),
		withID(2, "Beef Steak"),
		withID(4, "Chicken Breasts Raw"),
		withID(5, "Greek Yogurt Plain"),
		withID(6, "Greek Yoghurt Plain"),
	}
	pairs := detector.Candidates(records)
	if len(pairs) != 4 {
		t.Fatalf("expected 4 pairs, got %d: %+v", len(pairs), pairs)
	}
	first := pairs[0]
	if first.LeftID != 1 || first.RightID != 3 || first.Similarity != 1 {
		t.Fatalf("unexpected first pair %+v", first)
	}
	for i := 1; i < len(pairs); i++ {
		if pairs[i].Similarity > pairs[i-1].Similarity {
			t.Fatalf("pairs not sorted: %+v", pairs)
		}
	}
	for _, p := range pairs {
		if p.LeftID >= p.RightID {
			t.Fatalf("left id must be smaller: %+v", p)
		}
		if p.LeftID == 2 || p.RightID == 2 {
			t.Fatalf("unrelated record paired: %+v", p)
		}
	}
}

func TestCandidatesThresholdIsExclusive(t *testing.T) {
	detector := dedupe.NewDetector(1)
	pairs := detector.Candidates([]catalog.Record{withID(1, "Oats"), withID(2, "OATS")})
	if len(pairs) != 0 {
		t.Fatalf("similarity equal to threshold must not be reported, got %+v", pairs)
	}
}

func TestNewDetectorDefaults(t *testing.T) {
	if got := dedupe.NewDetector(0).Threshold(); got != dedupe.DefaultThreshold {
		t.Fatalf("threshold = %v, want default", got)
	}
}

func TestToCandidates(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	out := dedupe.ToCandidates([]dedupe.Pair{{LeftID: 1, RightID: 2, LeftName: "a", RightName: "b", Similarity: 0.9}}, now)
	if len(out) != 1 || out[0].LeftID != 1 || out[0].RightID != 2 || !out[0].DetectedAt.Equal(now) {
		t.Fatalf("unexpected candidates %+v", out)
	}
}

func TestAgainstReportsEachPairOnce(t *testing.T) {
	detector := dedupe.NewDetector(0)
	subjects := []catalog.Record{withID(1, "Chicken Breast, Raw"), withID(3, "Chicken Breast Raw")}
	pool := []catalog.Record{
		withID(1, "Chicken Breast, Raw"),
		withID(2, "Beef Steak"),
		withID(3, "Chicken Breast Raw"),
		withID(4, "Chicken Breasts Raw"),
	}
	pairs := detector.Against(subjects, pool)
	seen := map[[2]int64]bool{}
	for _, p := range pairs {
		key := [2]int64{p.LeftID, p.RightID}
		if seen[key] {
			t.Fatalf("pair reported twice: %+v", p)
		}
		seen[key] = true
	}
	if !seen[[2]int64{1, 3}] || !seen[[2]int64{3, 4}] {
		t.Fatalf("expected 1/3 and 3/4 pairs, got %+v", pairs)
	}
	if seen[[2]int64{1, 1}] || seen[[2]int64{1, 2}] {
		t.Fatalf("unexpected pairs %+v", pairs)
	}
}
