package category_test

import (
	"testing"

	"nutriverify/internal/category"
)

func TestClassify(t *testing.T) {
	c := category.New()
	tests := map[string]category.Category{
		"Orange Juice":              category.Beverages,
		"Red Wine":                  category.Beverages,
		"Whey Protein Powder":       category.Supplements,
		"Chocolate Chip Cookie":     category.Desserts,
		"Vanilla Ice Cream":         category.Desserts,
		"Atlantic Salmon":           category.Seafood,
		"Chicken Breast, Raw":       category.MeatPoultry,
		"Greek Yogurt":              category.DairyEggs,
		"Large Eggs":                category.DairyEggs,
		"Extra Virgin Olive Oil":    category.FatsOils,
		"Salted Butter":             category.FatsOils,
		"Creamy Peanut Butter":      category.NutsSeeds,
		"Black Beans":               category.Legumes,
		"Almonds":                   category.NutsSeeds,
		"Apples":                    category.Fruits,
		"Baby Spinach":              category.Vegetables,
		"Sweet Potato":              category.Vegetables,
		"Brown Rice":                category.Grains,
		"Whole Wheat Bread":         category.Grains,
		"Chewy Granola Bar":         category.Snacks,
		"Potato Chips":              category.Snacks,
		"Heinz Ketchup":             category.Condiments,
		"Dijon Mustard":             category.Condiments,
		"Red Wine Vinegar":          category.Condiments,
		"Turkey Sandwich":           category.MeatPoultry,
		"Tomato Soup":               category.Vegetables,
		"Chicken Caesar Salad":      category.MeatPoultry,
		"Ice Cream Sandwich":        category.Desserts,
		"Supreme Pizza":             category.PreparedMeals,
		"Quantum Flux Capacitor":    category.Other,
		"":                          category.Other,
		"Crème Brûlée Custard":      category.Desserts,
		"Jalapeño Cheddar Crackers": category.DairyEggs,
	}
	for name, want := range tests {
		if got := c.Classify(name); got != want {
			t.Errorf("Classify(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		label string
		want  category.Category
		ok    bool
	}{
		{"grain", category.Grains, true},
		{"Grains, Bread & Pasta", category.Grains, true},
		{"meat", category.MeatPoultry, true},
		{"FRUITS", category.Fruits, true},
		{"Dairy & Eggs", category.DairyEggs, true},
		{"widgets", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := category.Canonical(tc.label)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Canonical(%q) = %q, %v; want %q, %v", tc.label, got, ok, tc.want, tc.ok)
		}
	}
}

func TestResolve(t *testing.T) {
	c := category.New()

	kept := c.Resolve("Vegetables", "Kale")
	if kept.Method != category.MethodProvided || kept.Changed {
		t.Fatalf("expected provided label to be kept, got %+v", kept)
	}

	normalized := c.Resolve("grain", "Oats")
	if normalized.Category != category.Grains || !normalized.Changed {
		t.Fatalf("expected alias to be normalized, got %+v", normalized)
	}

	repaired := c.Resolve("", "Banana")
	if repaired.Category != category.Fruits || repaired.Method != category.MethodLexical {
		t.Fatalf("expected lexical repair, got %+v", repaired)
	}

	other := c.Resolve("Other", "Mystery Item")
	if other.Category != category.Other || other.Changed {
		t.Fatalf("expected Other to stay Other, got %+v", other)
	}
}

func TestAllEndsWithFallbacks(t *testing.T) {
	all := category.All()
	if all[0] != category.Beverages {
		t.Fatalf("expected Beverages first, got %q", all[0])
	}
	if all[len(all)-1] != category.Other || all[len(all)-2] != category.PreparedMeals {
		t.Fatalf("unexpected fallbacks: %v", all[len(all)-2:])
	}
}
