package catalog_test

import (
	"math"
	"testing"

	"nutriverify/internal/catalog"
)

func TestServingMassGrams(t *testing.T) {
	tests := []struct {
		name    string
		serving catalog.Serving
		want    float64
		ok      bool
	}{
		{"grams", catalog.Serving{Quantity: 100, Unit: "g"}, 100, true},
		{"ounces", catalog.Serving{Quantity: 2, Unit: "oz"}, 56.699, true},
		{"cup", catalog.Serving{Quantity: 1, Unit: "cup"}, 240, true},
		{"parenthesised wins", catalog.Serving{Quantity: 1, Unit: "cup", Description: "1 cup (30g)"}, 30, true},
		{"alias", catalog.Serving{Quantity: 2, Unit: "Tablespoons"}, 30, true},
		{"unknown unit", catalog.Serving{Quantity: 1, Unit: "slice"}, 0, false},
		{"zero quantity", catalog.Serving{Quantity: 0, Unit: "g"}, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.serving.MassGrams()
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if math.Abs(got-tc.want) > 0.01 {
				t.Fatalf("mass = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseServing(t *testing.T) {
	tests := []struct {
		input string
		qty   float64
		unit  string
		mass  float64
	}{
		{"100g", 100, "g", 100},
		{"1 cup (240g)", 1, "cup", 240},
		{"2 tbsp", 2, "tbsp", 30},
		{"1/2 cup", 0.5, "cup", 120},
		{"12 fl oz", 12, "fl", 0},
	}
	for _, tc := range tests {
		serving, err := catalog.ParseServing(tc.input)
		if err != nil {
			t.Fatalf("ParseServing(%q): %v", tc.input, err)
		}
		if serving.Quantity != tc.qty || serving.Unit != tc.unit {
			t.Fatalf("ParseServing(%q) = %v %q", tc.input, serving.Quantity, serving.Unit)
		}
		mass, _ := serving.MassGrams()
		if math.Abs(mass-tc.mass) > 0.01 {
			t.Fatalf("ParseServing(%q) mass = %v, want %v", tc.input, mass, tc.mass)
		}
	}

	if _, err := catalog.ParseServing(""); err == nil {
		t.Fatal("expected error for empty serving")
	}
}

func TestServingPerHundred(t *testing.T) {
	if !(catalog.Serving{Quantity: 100, Unit: "grams"}).PerHundred() {
		t.Fatal("expected 100 grams to be per-hundred")
	}
	if (catalog.Serving{Quantity: 1, Unit: "cup"}).PerHundred() {
		t.Fatal("expected cup serving not to be per-hundred")
	}
}
