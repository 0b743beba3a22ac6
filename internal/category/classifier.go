package category

import (
	"strings"

	"nutriverify/internal/textutil"
)

// Classifier assigns taxonomy categories from food names.
type Classifier struct {
	phrases []entry
	words   []entry
	byWord  map[string]Category
	byTwo   map[string]Category
}

type entry struct {
	keyword  string
	category Category
}

// New builds a classifier over the built-in taxonomy.
func New() *Classifier {
	c := &Classifier{
		byWord: make(map[string]Category),
		byTwo:  make(map[string]Category),
	}
	for _, b := range buckets {
		for _, kw := range b.keywords {
			e := entry{keyword: kw, category: b.category}
			if strings.Contains(kw, " ") {
				c.phrases = append(c.phrases, e)
				if _, seen := c.byTwo[kw]; !seen {
					c.byTwo[kw] = b.category
				}
				continue
			}
			c.words = append(c.words, e)
			if _, seen := c.byWord[kw]; !seen {
				c.byWord[kw] = b.category
			}
		}
	}
	return c
}

// Classify returns the category for a food name. Composite dishes take the
// category of their first recognised ingredient, or Prepared Meals.
func (c *Classifier) Classify(name string) Category {
	folded := textutil.Fold(name)
	if folded == "" {
		return Other
	}
	if hasComposite(folded) {
		if cat, ok := c.firstIngredient(folded); ok {
			return cat
		}
		return PreparedMeals
	}
	if cat, ok := c.match(folded); ok {
		return cat
	}
	return Other
}

// Matches reports whether folded text contains keyword, tolerating simple plurals.
func Matches(folded, keyword string) bool {
	return textutil.ContainsWord(folded, keyword) ||
		textutil.ContainsWord(folded, keyword+"s") ||
		textutil.ContainsWord(folded, keyword+"es")
}

func (c *Classifier) match(folded string) (Category, bool) {
	for _, e := range c.phrases {
		if Matches(folded, e.keyword) {
			return e.category, true
		}
	}
	for _, e := range c.words {
		if Matches(folded, e.keyword) {
			return e.category, true
		}
	}
	return "", false
}

func (c *Classifier) firstIngredient(folded string) (Category, bool) {
	tokens := strings.Fields(folded)
	for i, token := range tokens {
		if isComposite(token) {
			continue
		}
		if i+1 < len(tokens) {
			if cat, ok := c.lookupToken(token + " " + singular(tokens[i+1])); ok {
				return cat, true
			}
		}
		if cat, ok := c.lookupToken(singular(token)); ok {
			return cat, true
		}
		if cat, ok := c.lookupToken(token); ok {
			return cat, true
		}
	}
	return "", false
}

func (c *Classifier) lookupToken(token string) (Category, bool) {
	if strings.Contains(token, " ") {
		cat, ok := c.byTwo[token]
		return cat, ok
	}
	cat, ok := c.byWord[token]
	return cat, ok
}

func singular(token string) string {
	switch {
	case strings.HasSuffix(token, "oes"), strings.HasSuffix(token, "ches"), strings.HasSuffix(token, "shes"):
		return strings.TrimSuffix(token, "es")
	case strings.HasSuffix(token, "ies") && len(token) > 4:
		return strings.TrimSuffix(token, "ies") + "y"
	case strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") && len(token) > 3:
		return strings.TrimSuffix(token, "s")
	}
	return token
}

func hasComposite(folded string) bool {
	for _, word := range compositeWords {
		if Matches(folded, word) {
			return true
		}
	}
	return false
}

func isComposite(token string) bool {
	for _, word := range compositeWords {
		if token == word || token == word+"s" || token == word+"es" {
			return true
		}
	}
	return false
}

// Canonical maps a provider label ("grain", "Grains, Bread & Pasta", "meat")
// onto the taxonomy.
func Canonical(label string) (Category, bool) {
	folded := textutil.Fold(label)
	if folded == "" {
		return "", false
	}
	for _, cat := range All() {
		if textutil.Fold(string(cat)) == folded {
			return cat, true
		}
	}
	cat, ok := aliases[folded]
	return cat, ok
}

// Method records how a category was resolved.
type Method string

const (
	MethodProvided Method = "provided"
	MethodLexical  Method = "lexical"
	MethodOracle   Method = "oracle"
)

// Resolution is the outcome of category repair.
type Resolution struct {
	Category Category
	Method   Method
	Changed  bool
}

// Resolve keeps a label that maps onto the taxonomy and otherwise classifies
// the name lexically. Changed is true when the stored label differs from the result.
func (c *Classifier) Resolve(label, name string) Resolution {
	if cat, ok := Canonical(label); ok && cat != Other {
		return Resolution{Category: cat, Method: MethodProvided, Changed: string(cat) != label}
	}
	cat := c.Classify(name)
	return Resolution{Category: cat, Method: MethodLexical, Changed: string(cat) != label}
}
