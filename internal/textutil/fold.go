package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold normalizes a name for comparison: accents are removed, case is folded,
// and any run of non-alphanumeric characters becomes a single space.
func Fold(text string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		text,
	)
	if err != nil {
		stripped = text
	}
	folded := folder.String(stripped)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// TitleCase capitalises each word, used to tidy shouted provider labels.
func TitleCase(text string) string {
	return cases.Title(language.Und).String(strings.ToLower(strings.TrimSpace(text)))
}

// ContainsWord reports whether folded text contains word as a whole token.
// Both arguments must already be folded.
func ContainsWord(folded, word string) bool {
	if word == "" {
		return false
	}
	if strings.Contains(word, " ") {
		return folded == word ||
			strings.HasPrefix(folded, word+" ") ||
			strings.HasSuffix(folded, " "+word) ||
			strings.Contains(folded, " "+word+" ")
	}
	for _, token := range strings.Fields(folded) {
		if token == word {
			return true
		}
	}
	return false
}
