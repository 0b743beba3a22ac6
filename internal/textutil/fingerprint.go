package textutil

import (
	"math"
	"strings"
)

// Fingerprint is a term-frequency vector over the tokens of a food name.
type Fingerprint struct {
	terms map[string]float64
	norm  float64
}

// NewFingerprint builds a fingerprint from FoodTokens(text). It returns nil
// when nothing descriptive is left, e.g. for "100 g".
func NewFingerprint(text string) *Fingerprint {
	tokens := FoodTokens(text)
	if len(tokens) == 0 {
		return nil
	}
	terms := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		terms[token]++
	}
	var sum float64
	for _, weight := range terms {
		sum += weight * weight
	}
	return &Fingerprint{terms: terms, norm: math.Sqrt(sum)}
}

// servingWords carry serving size rather than identity.
var servingWords = map[string]struct{}{
	"g": {}, "mg": {}, "kg": {}, "oz": {}, "lb": {}, "ml": {}, "cup": {}, "tbsp": {}, "tsp": {},
	"serving": {}, "piece": {}, "slice": {},
}

// FoodTokens folds a food name and keeps the tokens that identify the food:
// single letters, numbers and serving units are dropped and simple plurals
// are reduced, so "Bananas, raw (100 g)" yields [banana raw].
func FoodTokens(text string) []string {
	raw := strings.Fields(Fold(text))
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		if len([]rune(token)) < 2 {
			continue
		}
		// "100", "2.5" and "100g" describe the serving.
		if rest := strings.TrimLeft(token, "0123456789."); rest != token {
			if _, unit := servingWords[rest]; rest == "" || unit {
				continue
			}
		}
		token = singularToken(token)
		if _, unit := servingWords[token]; unit {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func singularToken(token string) string {
	if len(token) > 3 && strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") {
		return strings.TrimSuffix(token, "s")
	}
	return token
}
