package reference

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nutriverify/internal/config"
	"nutriverify/internal/reference/fdc"
)

type searchCall struct {
	query     string
	dataTypes string
}

type fakeSearcher struct {
	mu        sync.Mutex
	calls     []searchCall
	responses map[string]*fdc.SearchResponse
	err       error
}

func (f *fakeSearcher) Search(_ context.Context, query string, opts fdc.SearchOptions) (*fdc.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.Join(opts.DataTypes, ",")
	f.calls = append(f.calls, searchCall{query: query, dataTypes: key})
	if f.err != nil {
		return nil, f.err
	}
	if resp, ok := f.responses[key]; ok {
		return resp, nil
	}
	return &fdc.SearchResponse{}, nil
}

func food(id int64, description, dataType string, kcal, protein float64) fdc.Food {
	return fdc.Food{
		FDCID:       id,
		Description: description,
		DataType:    dataType,
		FoodNutrients: []fdc.FoodNutrient{
			{NutrientNumber: "208", UnitName: "KCAL", Value: kcal},
			{NutrientNumber: "203", UnitName: "G", Value: protein},
		},
	}
}

func newTestLookup(client fdc.Searcher) *Lookup {
	return New(client, WithCache(time.Minute, 0), WithRetry(2, time.Millisecond))
}

func TestLookupFallsBackToStandardReference(t *testing.T) {
	searcher := &fakeSearcher{responses: map[string]*fdc.SearchResponse{
		"Foundation,SR Legacy": {Foods: []fdc.Food{
			food(1, "Beef, ground, raw", fdc.DataTypeSRLegacy, 250, 17),
			food(2, "Oats", fdc.DataTypeSRLegacy, 389, 16.9),
		}},
	}}
	lookup := newTestLookup(searcher)

	match, err := lookup.Lookup(context.Background(), Query{Name: "Rolled Oats", Brand: "Quaker"}, 40)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if match.FDCID != 2 || match.Strategy != StrategyStandard {
		t.Fatalf("unexpected match %+v", match)
	}
	if math.Abs(match.Scaled.Macros.Calories-155.6) > 1e-9 {
		t.Fatalf("expected scaled calories 155.6, got %v", match.Scaled.Macros.Calories)
	}
	if match.PerHundred.Macros.Calories != 389 {
		t.Fatalf("per-100 panel should be unscaled, got %v", match.PerHundred.Macros.Calories)
	}
	if len(searcher.calls) != 2 || searcher.calls[0].query != "Quaker Rolled Oats" || searcher.calls[0].dataTypes != "Branded" {
		t.Fatalf("unexpected calls %+v", searcher.calls)
	}
}

func TestLookupSkipsBrandedStrategyWithoutBrand(t *testing.T) {
	searcher := &fakeSearcher{responses: map[string]*fdc.SearchResponse{
		"": {Foods: []fdc.Food{food(9, "Kale, raw", "Survey (FNDDS)", 35, 2.9)}},
	}}
	lookup := newTestLookup(searcher)

	match, err := lookup.Lookup(context.Background(), Query{Name: "Kale"}, 0)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if match.Strategy != StrategyGeneric || match.Scaled.Macros.Calories != 35 {
		t.Fatalf("unexpected match %+v", match)
	}
	for _, call := range searcher.calls {
		if call.dataTypes == "Branded" {
			t.Fatalf("branded strategy should be skipped: %+v", searcher.calls)
		}
	}
}

func TestLookupPrefersBrandedHit(t *testing.T) {
	branded := food(5, "Old Fashioned Oats", fdc.DataTypeBranded, 379, 13)
	branded.BrandOwner = "Quaker"
	searcher := &fakeSearcher{responses: map[string]*fdc.SearchResponse{
		"Branded":              {Foods: []fdc.Food{branded}},
		"Foundation,SR Legacy": {Foods: []fdc.Food{food(2, "Oats", fdc.DataTypeSRLegacy, 389, 16.9)}},
	}}
	lookup := newTestLookup(searcher)

	match, err := lookup.Lookup(context.Background(), Query{Name: "Old Fashioned Oats", Brand: "Quaker"}, 100)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if match.FDCID != 5 || match.Strategy != StrategyBranded || match.Brand != "Quaker" {
		t.Fatalf("unexpected match %+v", match)
	}
}

func TestLookupNoMatch(t *testing.T) {
	searcher := &fakeSearcher{responses: map[string]*fdc.SearchResponse{
		"": {Foods: []fdc.Food{food(3, "Completely unrelated product", "", 100, 1)}},
	}}
	lookup := newTestLookup(searcher)

	if _, err := lookup.Lookup(context.Background(), Query{Name: "Dragon Fruit"}, 100); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestLookupRetriesAndReportsProviderErrors(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("provider down")}
	lookup := newTestLookup(searcher)

	_, err := lookup.Lookup(context.Background(), Query{Name: "Oats"}, 100)
	if !errors.Is(err, ErrNoMatch) || !strings.Contains(err.Error(), "provider down") {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if len(searcher.calls) < 2 {
		t.Fatalf("expected both strategies to be tried, got %d calls", len(searcher.calls))
	}
}

func TestLookupCachesSearches(t *testing.T) {
	searcher := &fakeSearcher{responses: map[string]*fdc.SearchResponse{
		"Foundation,SR Legacy": {Foods: []fdc.Food{food(2, "Oats", fdc.DataTypeSRLegacy, 389, 16.9)}},
	}}
	lookup := newTestLookup(searcher)

	for i := 0; i < 3; i++ {
		if _, err := lookup.Lookup(context.Background(), Query{Name: "Oats"}, 100); err != nil {
			t.Fatalf("Lookup returned error: %v", err)
		}
	}
	if len(searcher.calls) != 1 {
		t.Fatalf("expected a single provider call, got %d", len(searcher.calls))
	}
}

func TestLookupRejectsEmptyName(t *testing.T) {
	lookup := newTestLookup(&fakeSearcher{})
	if _, err := lookup.Lookup(context.Background(), Query{Name: " "}, 100); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestCachedSearchRateLimits(t *testing.T) {
	searcher := &fakeSearcher{}
	search := newCachedSearch(searcher, 0, 30*time.Millisecond)
	start := time.Now()
	for _, q := range []string{"a", "b"} {
		if _, err := search.search(context.Background(), q, fdc.SearchOptions{}); err != nil {
			t.Fatalf("search returned error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected calls to be spaced, elapsed %v", elapsed)
	}
}

func TestNewFromConfigAgainstServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "fdc-key" {
			t.Fatalf("missing api key: %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"foods":[{"fdcId":42,"description":"Bananas, raw","dataType":"Foundation",
		  "foodNutrients":[{"nutrientNumber":"208","unitName":"KCAL","value":89},{"nutrientNumber":"205","unitName":"G","value":22.8}]}]}`))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Reference.BaseURL = server.URL
	cfg.Reference.APIKey = "fdc-key"
	cfg.Reference.MinIntervalMS = 0
	lookup, err := NewFromConfig(&cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	match, err := lookup.Lookup(context.Background(), Query{Name: "Banana"}, 118)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if match.FDCID != 42 || math.Abs(match.Scaled.Macros.Calories-105.02) > 1e-9 {
		t.Fatalf("unexpected match %+v", match)
	}
}
