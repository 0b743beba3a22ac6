package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"nutriverify/internal/config"
	"nutriverify/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	for _, key := range []string{"FDC_API_KEY", "OPENROUTER_API_KEY", "NUTRIVERIFY_LLM_API_KEY", "NUTRIVERIFY_NTFY_TOPIC"} {
		t.Setenv(key, "")
	}
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (env *cliTestEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (env *cliTestEnv) mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := env.run(t, stdin, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func decodeJSON[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode json output: %v\n%s", err, raw)
	}
	return v
}

// validatingOracle answers every chat completion with an accurate validation.
func validatingOracle(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := `{"accurate": true, "confidence": 95, "issues": [], "rationale": "values match reference data"}`
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

const seedLines = `{"name":"Chicken Breast, Raw","serving_description":"100g","calories":120,"protein_g":22.5,"carbs_g":0,"fat_g":2.6,"source":"usda"}
{"name":"Chicken Breast Raw","serving_description":"100g","calories":120,"protein_g":22.5,"carbs_g":0,"fat_g":2.6,"source":"usda"}
{"food_name":"Protein Brick","serving_size":100,"serving_unit":"g","calories":1020,"protein":60,"carbs":60,"fats":60,"category":"Snacks","source":"user"}
`

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "", "config", "validate")
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out = env.mustRun(t, "", "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := env.run(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
}

func TestImportListAndStats(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, seedLines, "import", "-")
	requireContains(t, out, "Imported 3 records")

	list := decodeJSON[[]recordView](t, env.mustRun(t, "", "list", "--json"))
	if len(list) != 3 || list[2].Name != "Protein Brick" || list[2].Serving.Unit != "g" {
		t.Fatalf("unexpected list %+v", list)
	}

	out = env.mustRun(t, "", "list", "--state", "unverified")
	requireContains(t, out, "Chicken Breast, Raw")

	stats := decodeJSON[map[string]any](t, env.mustRun(t, "", "stats", "--json"))
	if stats["total"] != float64(3) {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if _, err := env.run(t, "", "list", "--state", "bogus"); err == nil {
		t.Fatal("expected unknown state to fail")
	}
}

func TestRunVerifiesAndFlags(t *testing.T) {
	server := validatingOracle(t)
	env := setupCLITestEnv(t, testsupport.WithOracle(server.URL, "test-key"))
	env.mustRun(t, seedLines, "import", "-")

	summary := decodeJSON[map[string]any](t, env.mustRun(t, "", "run", "--json"))
	if summary["processed"] != float64(3) || summary["verified"] != float64(2) || summary["flagged"] != float64(1) {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary["remaining"] != float64(0) || summary["duplicate_candidates"] != float64(1) {
		t.Fatalf("unexpected summary %+v", summary)
	}

	verified := decodeJSON[recordView](t, env.mustRun(t, "", "show", "1", "--json"))
	if verified.State != "verified" || verified.QualityScore != 100 || verified.Audit == nil || verified.Audit.Outcome != "verified" {
		t.Fatalf("unexpected verified record %+v", verified)
	}

	out := env.mustRun(t, "", "show", "3")
	requireContains(t, out, "flagged")
	requireContains(t, out, "data_impossible")

	out = env.mustRun(t, "", "requeue", "3")
	requireContains(t, out, "Requeued 1 records")
	requeued := decodeJSON[recordView](t, env.mustRun(t, "", "show", "3", "--json"))
	if requeued.State != "unverified" || len(requeued.ReviewFlags) != 0 {
		t.Fatalf("unexpected requeued record %+v", requeued)
	}
}

func TestRunRejectsInvalidBatchSize(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "", "run", "--batch-size", "9"); err == nil {
		t.Fatal("expected batch size above five to fail")
	}
}

func TestDedupePersistsCandidates(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, seedLines, "import", "-")

	out := env.mustRun(t, "", "dedupe", "--persist")
	requireContains(t, out, "Recorded 1 candidate pairs")

	pairs := decodeJSON[[]map[string]any](t, env.mustRun(t, "", "dedupe", "--stored", "--json"))
	if len(pairs) != 1 || pairs[0]["left_name"] != "Chicken Breast, Raw" {
		t.Fatalf("unexpected stored pairs %+v", pairs)
	}
}

func TestClassifyLexical(t *testing.T) {
	env := setupCLITestEnv(t)
	results := decodeJSON[[]map[string]any](t, env.mustRun(t, "", "classify", "Banana", "Zorblax Crunch", "--json"))
	if results[0]["category"] != "Fruits" || results[1]["category"] != "Other" {
		t.Fatalf("unexpected classification %+v", results)
	}
	if _, err := env.run(t, "", "classify", "Zorblax Crunch", "--oracle"); err == nil {
		t.Fatal("expected --oracle without an api key to fail")
	}
}

func TestJSONOutputKeepsLabelsAndEmptyLists(t *testing.T) {
	env := setupCLITestEnv(t)
	out := env.mustRun(t, "", "classify", "Greek Yogurt", "--json")
	requireContains(t, out, `"Dairy & Eggs"`)

	out = env.mustRun(t, "", "list", "--state", "flagged", "--json")
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected empty JSON array, got %q", out)
	}
}

func TestLookupRequiresAPIKey(t *testing.T) {
	env := setupCLITestEnv(t)
	_, err := env.run(t, "", "lookup", "banana")
	if err == nil || !strings.Contains(err.Error(), "reference.api_key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestLookupAgainstReferenceServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalHits":1,"foods":[{"fdcId":173944,"description":"Bananas, raw","dataType":"SR Legacy",
			"foodNutrients":[{"nutrientId":1008,"nutrientNumber":"208","unitName":"KCAL","value":89},
			{"nutrientId":1003,"nutrientNumber":"203","unitName":"G","value":1.09},
			{"nutrientId":1005,"nutrientNumber":"205","unitName":"G","value":22.84},
			{"nutrientId":1004,"nutrientNumber":"204","unitName":"G","value":0.33}]}]}`))
	}))
	t.Cleanup(server.Close)
	env := setupCLITestEnv(t, testsupport.WithReference(server.URL, "fdc-key"))

	match := decodeJSON[map[string]any](t, env.mustRun(t, "", "lookup", "banana", "--grams", "200", "--json"))
	if match["fdc_id"] != float64(173944) || match["description"] != "Bananas, raw" {
		t.Fatalf("unexpected match %+v", match)
	}
	scaled := match["scaled"].(map[string]any)["macros"].(map[string]any)
	if scaled["calories"] != float64(178) {
		t.Fatalf("expected 178 kcal for 200 g, got %+v", scaled)
	}
}

func TestTestNotifySendsToTopic(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Title")
	}))
	t.Cleanup(server.Close)

	env := setupCLITestEnv(t)
	if _, err := env.run(t, "", "test-notify"); err == nil {
		t.Fatal("expected test-notify without a topic to fail")
	}
	env.cfg.Notifications.NtfyTopic = server.URL
	writeTestConfig(t, env.configPath, env.cfg)
	out := env.mustRun(t, "", "test-notify")
	requireContains(t, out, "Test notification sent")
	if got != "nutriverify - Test" {
		t.Fatalf("unexpected title %q", got)
	}
}
