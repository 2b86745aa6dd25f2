// Package config loads semgate configuration from YAML with environment
// variable expansion.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/semgate-ai/semgate/pkg/models"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30m" or "24h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(dur)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all semgate configuration.
type Config struct {
	Listen     string             `yaml:"listen"`
	DBPath     string             `yaml:"db_path"`
	Paranoid   bool               `yaml:"paranoid"`
	Ollama     OllamaConfig       `yaml:"ollama"`
	OpenRouter OpenRouterConfig   `yaml:"openrouter"`
	Cache      CacheConfig        `yaml:"cache"`
	Budget     BudgetConfig       `yaml:"budget"`
	Audit      models.AuditConfig `yaml:"audit"`
}

// OllamaConfig points at the local inference server.
type OllamaConfig struct {
	URL        string   `yaml:"url"`
	Model      string   `yaml:"model"`
	EmbedModel string   `yaml:"embed_model"`
	Timeout    Duration `yaml:"timeout"`
}

// OpenRouterConfig points at the cloud inference provider.
type OpenRouterConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// CacheConfig controls the semantic response cache.
type CacheConfig struct {
	Enabled             bool     `yaml:"enabled"`
	SimilarityThreshold float32  `yaml:"similarity_threshold"`
	MaxEntries          int      `yaml:"max_entries"`
	TTL                 Duration `yaml:"ttl"`
	EmbedTimeout        Duration `yaml:"embed_timeout"`
	EmbedCacheSize      int      `yaml:"embed_cache_size"`
}

// BudgetConfig controls cloud spend caps.
type BudgetConfig struct {
	Enabled  bool                  `yaml:"enabled"`
	Policies []models.BudgetPolicy `yaml:"policies"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "semgate.db",
		Ollama: OllamaConfig{
			URL:        "http://localhost:11434",
			Model:      "llama3.2",
			EmbedModel: "nomic-embed-text",
			Timeout:    Duration(60 * time.Second),
		},
		OpenRouter: OpenRouterConfig{
			URL:   "https://openrouter.ai/api",
			Model: "openrouter/auto",
		},
		Cache: CacheConfig{
			Enabled:             true,
			SimilarityThreshold: 0.92,
			MaxEntries:          1000,
			TTL:                 Duration(24 * time.Hour),
			EmbedTimeout:        Duration(60 * time.Second),
			EmbedCacheSize:      256,
		},
		Budget: BudgetConfig{
			Enabled: false,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// lowThreshold marks the point below which semantic matches start
// returning unrelated responses often enough to notice.
const lowThreshold = 0.80

// Validate rejects configuration the gateway cannot run with.
func (c *Config) Validate() error {
	t := c.Cache.SimilarityThreshold
	if t < 0.70 || t > 0.99 {
		return fmt.Errorf("cache.similarity_threshold %.2f out of range [0.70, 0.99]", t)
	}
	if c.Cache.Enabled && t < lowThreshold {
		log.Printf("cache.similarity_threshold %.2f is low; semantic matches may be false positives", t)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive")
	}
	if c.Budget.Enabled {
		for i, p := range c.Budget.Policies {
			if p.MaxUSD <= 0 {
				return fmt.Errorf("budget.policies[%d].max_usd must be positive", i)
			}
			if p.Period != models.BudgetDaily && p.Period != models.BudgetMonthly {
				return fmt.Errorf("budget.policies[%d].period must be daily or monthly", i)
			}
		}
	}
	return nil
}
