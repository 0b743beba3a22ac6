package catalog_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nutriverify/internal/catalog"
)

func TestDecodeImportJSONLines(t *testing.T) {
	input := `
{"name":"Chicken Breast","category":"meat","serving_quantity":100,"serving_unit":"grams","calories":165,"protein_g":31,"carbs_g":0,"fat_g":3.6,"source":"usda","external_id":"171077"}
{"food_name":"Greek Yogurt","brand":"Fage","serving_description":"1 cup (227g)","calories":220,"protein":20,"carbs":9,"fats":11,"fiber":0,"sugar":8,"source":"manufacturer"}
`
	recs, err := catalog.DecodeImport(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeImport: %v", err)
	}
	want := []catalog.Record{
		{
			Name:     "Chicken Breast",
			Category: "meat",
			Serving:  catalog.Serving{Quantity: 100, Unit: "g"},
			Macros:   catalog.Macros{Calories: 165, ProteinG: 31, FatG: 3.6},
			Source:   catalog.Source{Name: "usda", ExternalID: "171077"},
			State:    catalog.StateUnverified,
		},
		{
			Name:    "Greek Yogurt",
			Brand:   "Fage",
			Serving: catalog.Serving{Quantity: 1, Unit: "cup", Description: "1 cup (227g)"},
			Macros: catalog.Macros{
				Calories: 220, ProteinG: 20, CarbsG: 9, FatG: 11,
				FiberG: catalog.Float(0), SugarG: catalog.Float(8),
			},
			Source: catalog.Source{Name: "manufacturer"},
			State:  catalog.StateUnverified,
		},
	}
	if diff := cmp.Diff(want, recs); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestDecodeImportArray(t *testing.T) {
	input := `[{"name":"Apple","serving_description":"100g","calories":52,"protein_g":0.3,"carbs_g":14,"fat_g":0.2}]`
	recs, err := catalog.DecodeImport(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeImport: %v", err)
	}
	if len(recs) != 1 || recs[0].Serving.Quantity != 100 || recs[0].Serving.Unit != "g" {
		t.Fatalf("unexpected records %+v", recs)
	}
}

func TestDecodeImportRejectsInvalidRows(t *testing.T) {
	tests := map[string]string{
		"missing name":     `{"serving_description":"100g","calories":10}`,
		"missing calories": `{"name":"Apple","serving_description":"100g"}`,
		"missing serving":  `{"name":"Apple","calories":52}`,
		"negative serving": `{"name":"Apple","serving_quantity":-1,"calories":52}`,
		"malformed":        `{"name":`,
	}
	for name, input := range tests {
		if _, err := catalog.DecodeImport(strings.NewReader(input)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestDecodeImportEmpty(t *testing.T) {
	recs, err := catalog.DecodeImport(strings.NewReader("  \n"))
	if err != nil || len(recs) != 0 {
		t.Fatalf("expected no records, got %v, %v", recs, err)
	}
}
