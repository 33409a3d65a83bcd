// Package config loads runtime configuration from defaults, an optional
// YAML file, and environment variable overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/codessa-project/inkwell/internal/gcp"
)

// AlgoliaConfig holds search index credentials. Either the direct values
// or the Secret Manager secret ids may be set; secrets win at startup
// when the direct values are empty.
type AlgoliaConfig struct {
	AppID        string `yaml:"app_id"`
	APIKey       string `yaml:"api_key"`
	AppIDSecret  string `yaml:"app_id_secret"`
	APIKeySecret string `yaml:"api_key_secret"`
}

// LoggingConfig mirrors the logger setup knobs.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Config is the full runtime configuration for the API and its commands.
type Config struct {
	ProjectID        string        `yaml:"project_id"`
	VertexAIRegion   string        `yaml:"vertex_ai_region"`
	GeminiModel      string        `yaml:"gemini_model"`
	ScrollCollection string        `yaml:"scroll_collection"`
	SearchIndexName  string        `yaml:"search_index_name"`
	PageSize         int           `yaml:"page_size"`
	Port             string        `yaml:"port"`
	Algolia          AlgoliaConfig `yaml:"algolia"`
	Logging          LoggingConfig `yaml:"logging"`
}

// Default returns the configuration used when nothing else is specified.
func Default() *Config {
	return &Config{
		VertexAIRegion:   "us-central1",
		GeminiModel:      "gemini-1.5-pro",
		ScrollCollection: "scrolls",
		SearchIndexName:  "codessa_scrolls",
		PageSize:         5,
		Port:             "8080",
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file at
// path, and environment overrides. An empty path skips the file step.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required (set PROJECT_ID or the config file)")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page_size must be positive, got %d", cfg.PageSize)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ProjectID = gcp.GetEnv("PROJECT_ID", cfg.ProjectID)
	cfg.VertexAIRegion = gcp.GetEnv("VERTEX_AI_REGION", cfg.VertexAIRegion)
	cfg.GeminiModel = gcp.GetEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.ScrollCollection = gcp.GetEnv("FIRESTORE_COLLECTION", cfg.ScrollCollection)
	cfg.SearchIndexName = gcp.GetEnv("ALGOLIA_INDEX", cfg.SearchIndexName)
	cfg.Algolia.AppID = gcp.GetEnv("ALGOLIA_APP_ID", cfg.Algolia.AppID)
	cfg.Algolia.APIKey = gcp.GetEnv("ALGOLIA_API_KEY", cfg.Algolia.APIKey)
	cfg.Port = gcp.GetEnv("PORT", cfg.Port)
	cfg.Logging.Level = gcp.GetEnv("LOG_LEVEL", cfg.Logging.Level)

	if raw := gcp.GetEnv("PAGE_SIZE", ""); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			cfg.PageSize = n
		}
	}
}
