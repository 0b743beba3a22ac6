package textutil

import (
	"math"
	"testing"
)

func TestCosineSimilarityNil(t *testing.T) {
	tests := []struct {
		name string
		a    *Fingerprint
		b    *Fingerprint
		want float64
	}{
		{"both nil", nil, nil, 0},
		{"a nil", nil, NewFingerprint("chicken breast"), 0},
		{"b nil", NewFingerprint("chicken breast"), nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	a := NewFingerprint("Chicken, breast, raw")
	b := NewFingerprint("chicken breast RAW")

	got := CosineSimilarity(a, b)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("CosineSimilarity(identical) = %v, want 1.0", got)
	}
}

func TestCosineSimilarityPartial(t *testing.T) {
	a := NewFingerprint("whole milk")
	b := NewFingerprint("milk chocolate bar")
	got := CosineSimilarity(a, b)
	if got <= 0 || got >= 1 {
		t.Errorf("expected partial overlap, got %v", got)
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"crème", "creme", 1},
	}
	for _, tt := range tests {
		if got := EditDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("EditDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := EditDistance(tt.b, tt.a); got != tt.want {
			t.Errorf("EditDistance(%q, %q) not symmetric: %d", tt.b, tt.a, got)
		}
	}
}

func TestSimilarityBounds(t *testing.T) {
	if got := Similarity("", ""); got != 1 {
		t.Errorf("empty strings should be identical, got %v", got)
	}
	if got := Similarity("abc", "xyz"); got != 0 {
		t.Errorf("disjoint strings should score 0, got %v", got)
	}
	if got := Similarity("chicken breast", "chicken breasts"); math.Abs(got-(1-1.0/15)) > 1e-9 {
		t.Errorf("unexpected similarity %v", got)
	}
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Crème Brûlée":         "creme brulee",
		"  Chicken,  Breast! ": "chicken breast",
		"JALAPEÑO-Cheddar":     "jalapeno cheddar",
		"Straße":               "strasse",
		"":                     "",
	}
	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNameSimilarityIgnoresCaseAndAccents(t *testing.T) {
	if got := NameSimilarity("Café Latte", "cafe latte"); got != 1 {
		t.Errorf("expected identical after folding, got %v", got)
	}
}

func TestContainsWord(t *testing.T) {
	if !ContainsWord("red wine vinegar", "wine") {
		t.Error("expected word match")
	}
	if ContainsWord("swine flu", "wine") {
		t.Error("expected no partial-token match")
	}
	if !ContainsWord("extra virgin olive oil", "olive oil") {
		t.Error("expected phrase match")
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("KIRKLAND SIGNATURE"); got != "Kirkland Signature" {
		t.Errorf("TitleCase = %q", got)
	}
}

func TestFoodTokensDropServingNoise(t *testing.T) {
	tests := map[string][]string{
		"Bananas, raw (100 g)":     {"banana", "raw"},
		"Greek Yogurt 150g cup":    {"greek", "yogurt"},
		"Whole Milk, 2.5 oz glass": {"whole", "milk", "glass"},
		"7UP":                      {"7up"},
		"":                         {},
	}
	for in, want := range tests {
		got := FoodTokens(in)
		if len(got) != len(want) {
			t.Errorf("FoodTokens(%q) = %v, want %v", in, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("FoodTokens(%q) = %v, want %v", in, got, want)
				break
			}
		}
	}
}

func TestFingerprintIgnoresPluralsAndServingSize(t *testing.T) {
	a := NewFingerprint("Bananas, raw")
	b := NewFingerprint("banana raw 100g")
	if got := CosineSimilarity(a, b); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("CosineSimilarity = %v, want 1.0", got)
	}
	if NewFingerprint("100 g") != nil {
		t.Error("expected nil fingerprint for a bare serving size")
	}
}
