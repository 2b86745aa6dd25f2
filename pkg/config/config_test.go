package config

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/semgate-ai/semgate/pkg/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Listen)
	}
	if cfg.Cache.SimilarityThreshold != 0.92 {
		t.Errorf("expected 0.92 threshold, got %v", cfg.Cache.SimilarityThreshold)
	}
	if cfg.Cache.TTL.Std() != 24*time.Hour {
		t.Errorf("expected 24h TTL, got %v", cfg.Cache.TTL.Std())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_OPENROUTER_KEY", "sk-or-test-123")

	content := `
listen: ":9090"
db_path: "test.db"
paranoid: true
openrouter:
  api_key: ${TEST_OPENROUTER_KEY}
cache:
  enabled: true
  similarity_threshold: 0.90
  max_entries: 500
  ttl: 30m
budget:
  enabled: true
  policies:
    - max_usd: 5.00
      period: daily
audit:
  enabled: true
  db_path: audit.db
  retention_days: 14
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Listen)
	}
	if !cfg.Paranoid {
		t.Error("expected paranoid mode")
	}
	if cfg.OpenRouter.APIKey != "sk-or-test-123" {
		t.Errorf("env var not expanded: got %s", cfg.OpenRouter.APIKey)
	}
	if cfg.Cache.SimilarityThreshold != 0.90 {
		t.Errorf("expected 0.90 threshold, got %v", cfg.Cache.SimilarityThreshold)
	}
	if cfg.Cache.TTL.Std() != 30*time.Minute {
		t.Errorf("expected 30m TTL, got %v", cfg.Cache.TTL.Std())
	}
	if cfg.Cache.MaxEntries != 500 {
		t.Errorf("expected 500 entries, got %d", cfg.Cache.MaxEntries)
	}
	if len(cfg.Budget.Policies) != 1 || cfg.Budget.Policies[0].MaxUSD != 5.00 {
		t.Errorf("unexpected budget policies: %+v", cfg.Budget.Policies)
	}
	if !cfg.Audit.Enabled || cfg.Audit.RetentionDays != 14 {
		t.Errorf("unexpected audit config: %+v", cfg.Audit)
	}

	// Unset fields keep defaults.
	if cfg.Ollama.Model != "llama3.2" {
		t.Errorf("expected default ollama model, got %s", cfg.Ollama.Model)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateThreshold(t *testing.T) {
	for _, bad := range []float32{0.5, 0.995, 1.2} {
		cfg := Default()
		cfg.Cache.SimilarityThreshold = bad
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected validation error for threshold %v", bad)
		}
	}
	for _, ok := range []float32{0.70, 0.92, 0.99} {
		cfg := Default()
		cfg.Cache.SimilarityThreshold = ok
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error for threshold %v: %v", ok, err)
		}
	}
}

func TestValidateWarnsOnLowThreshold(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	cfg := Default()
	cfg.Cache.SimilarityThreshold = 0.72
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "similarity_threshold") {
		t.Error("expected a warning for a low threshold")
	}

	buf.Reset()
	cfg.Cache.SimilarityThreshold = 0.92
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected warning at default threshold: %s", buf.String())
	}
}

func TestValidateBudget(t *testing.T) {
	cfg := Default()
	cfg.Budget.Enabled = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("no policies should validate: %v", err)
	}

	cfg.Budget.Policies = []models.BudgetPolicy{{MaxUSD: 0, Period: models.BudgetDaily}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-positive max_usd")
	}

	cfg.Budget.Policies = []models.BudgetPolicy{{MaxUSD: 1, Period: "weekly"}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown period")
	}
}

func TestInvalidDuration(t *testing.T) {
	content := "cache:\n  ttl: nonsense\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid duration")
	}
}
