// Package config loads ERIK configuration from .erik/config.yaml with sane
// defaults when the file is absent. Service base URLs can be overridden from
// the environment for testing against local instances.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all ERIK configuration.
type Config struct {
	Name string `yaml:"name"`

	// External service endpoints
	Services ServicesConfig `yaml:"services"`

	// Answer formatting
	Output OutputConfig `yaml:"output"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServicesConfig configures the outbound adapters. Every call carries the
// adapter timeout; there are no retries.
type ServicesConfig struct {
	Search    ServiceConfig `yaml:"search"`
	Scholar   ServiceConfig `yaml:"scholar"`
	Translate ServiceConfig `yaml:"translate"`

	// AdapterTimeout bounds every outbound call. Stored as a string
	// ("5s") like the rest of the duration fields.
	AdapterTimeout string `yaml:"adapter_timeout"`
}

// ServiceConfig configures one external service endpoint.
type ServiceConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// OutputConfig bounds rendered answers.
type OutputConfig struct {
	ShortWords     int `yaml:"short_words"`
	LongWords      int `yaml:"long_words"`
	DocPreviewRune int `yaml:"doc_preview_runes"`
	ScholarTopK    int `yaml:"scholar_top_k"`
	KeywordMax     int `yaml:"keyword_max"`
	KeywordMinLen  int `yaml:"keyword_min_len"`
	SummaryWords   int `yaml:"summary_words"`
}

// LoggingConfig controls the file-backed logger.
type LoggingConfig struct {
	Debug bool   `yaml:"debug"`
	Path  string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Name: "ERIK",
		Services: ServicesConfig{
			Search:         ServiceConfig{BaseURL: "https://html.duckduckgo.com/html", Timeout: "5s"},
			Scholar:        ServiceConfig{BaseURL: "https://export.arxiv.org/api/query", Timeout: "5s"},
			Translate:      ServiceConfig{BaseURL: "https://libretranslate.com", Timeout: "5s"},
			AdapterTimeout: "5s",
		},
		Output: OutputConfig{
			ShortWords:     75,
			LongWords:      350,
			DocPreviewRune: 1000,
			ScholarTopK:    3,
			KeywordMax:     8,
			KeywordMinLen:  4,
			SummaryWords:   40,
		},
		Logging: LoggingConfig{
			Debug: false,
			Path:  filepath.Join(".erik", "erik.log"),
		},
	}
}

// Load reads .erik/config.yaml under workspace, falling back to defaults for
// a missing file. Environment overrides are applied last.
func Load(workspace string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(workspace, ".erik", "config.yaml")
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ERIK_SEARCH_URL"); v != "" {
		cfg.Services.Search.BaseURL = v
	}
	if v := os.Getenv("ERIK_SCHOLAR_URL"); v != "" {
		cfg.Services.Scholar.BaseURL = v
	}
	if v := os.Getenv("ERIK_TRANSLATE_URL"); v != "" {
		cfg.Services.Translate.BaseURL = v
	}
	if v := os.Getenv("ERIK_ADAPTER_TIMEOUT"); v != "" {
		cfg.Services.AdapterTimeout = v
	}
}

// AdapterTimeout parses the configured adapter timeout, defaulting to 5s on
// a missing or malformed value. Indefinite blocking on an outbound call is
// never acceptable, so zero is not honored.
func (c *Config) AdapterTimeout() time.Duration {
	d, err := time.ParseDuration(c.Services.AdapterTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
