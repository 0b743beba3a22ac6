package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"nutriverify/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeysAndExpandsPaths(t *testing.T) {
	t.Setenv("FDC_API_KEY", "fdc-key")
	t.Setenv("OPENROUTER_API_KEY", "router-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "nutriverify")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "catalog.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Reference.APIKey != "fdc-key" {
		t.Fatalf("expected reference key from env, got %q", cfg.Reference.APIKey)
	}
	if cfg.LLM.APIKey != "router-key" {
		t.Fatalf("expected llm key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Pipeline.BatchSize != 5 {
		t.Fatalf("expected default batch size 5, got %d", cfg.Pipeline.BatchSize)
	}
	if cfg.InterRecordDelay() != 1500*time.Millisecond {
		t.Fatalf("unexpected inter-record delay: %s", cfg.InterRecordDelay())
	}
	if cfg.Pipeline.MaxAttempts != 3 {
		t.Fatalf("expected max attempts 3, got %d", cfg.Pipeline.MaxAttempts)
	}
	if cfg.Pipeline.FinalValidationMinConfidence != 80 {
		t.Fatalf("expected final validation confidence 80, got %d", cfg.Pipeline.FinalValidationMinConfidence)
	}
	if cfg.Dedupe.Threshold != 0.8 {
		t.Fatalf("expected dedupe threshold 0.8, got %v", cfg.Dedupe.Threshold)
	}
	if !cfg.OracleEnabled() || !cfg.ReferenceEnabled() {
		t.Fatal("expected oracle and reference enabled when keys are set")
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("FDC_API_KEY", "")
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")

	custom := config.Default()
	custom.Paths.DataDir = filepath.Join(dir, "data")
	custom.Pipeline.BatchSize = 2
	custom.Rules.CalorieTolerance = 0.25
	custom.Reference.BaseURL = "https://fdc.example.test/v1/"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected custom path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(dir, "data") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Pipeline.BatchSize != 2 {
		t.Fatalf("expected batch size 2, got %d", cfg.Pipeline.BatchSize)
	}
	if cfg.Rules.CalorieTolerance != 0.25 {
		t.Fatalf("expected calorie tolerance 0.25, got %v", cfg.Rules.CalorieTolerance)
	}
	if cfg.Reference.BaseURL != "https://fdc.example.test/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Reference.BaseURL)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("[pipeline]\nbatch_sise = 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestConfigFileKeyWinsOverEnv(t *testing.T) {
	t.Setenv("FDC_API_KEY", "env-key")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[reference]\napi_key = \"file-key\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Reference.APIKey != "file-key" {
		t.Fatalf("expected file key, got %q", cfg.Reference.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[pipeline]") {
		t.Fatal("expected pipeline section in sample config")
	}
	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Pipeline.BatchSize != 5 {
		t.Fatalf("expected sample batch size 5, got %d", cfg.Pipeline.BatchSize)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"batch too large", func(c *config.Config) { c.Pipeline.BatchSize = 6 }, "batch_size"},
		{"batch zero", func(c *config.Config) { c.Pipeline.BatchSize = 0 }, "batch_size"},
		{"max attempts", func(c *config.Config) { c.Pipeline.MaxAttempts = -1 }, "max_attempts"},
		{"confidence", func(c *config.Config) { c.Pipeline.FinalValidationMinConfidence = 101 }, "final_validation_min_confidence"},
		{"tolerance", func(c *config.Config) { c.Rules.CalorieTolerance = 0 }, "calorie_tolerance"},
		{"alcohol tolerance", func(c *config.Config) { c.Rules.AlcoholCalorieTolerance = 0.1 }, "alcohol_calorie_tolerance"},
		{"density", func(c *config.Config) { c.Rules.DensityBuffer = 0.9 }, "density_buffer"},
		{"dedupe", func(c *config.Config) { c.Dedupe.Threshold = 1.5 }, "dedupe.threshold"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestNotificationsTopicFromEnv(t *testing.T) {
	t.Setenv("NUTRIVERIFY_NTFY_TOPIC", " https://ntfy.sh/catalog ")
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[notifications]\nrequest_timeout_seconds = 0\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.NotificationsEnabled() || cfg.Notifications.NtfyTopic != "https://ntfy.sh/catalog" {
		t.Fatalf("expected topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Notifications.RequestTimeoutSeconds != 10 {
		t.Fatalf("expected default timeout, got %d", cfg.Notifications.RequestTimeoutSeconds)
	}
	if !cfg.Notifications.NotifyFlagged {
		t.Fatal("expected flagged notifications on by default")
	}
}
