package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Store    StoreConfig    `toml:"store"`
	AI       AIConfig       `toml:"ai"`
	Criteria CriteriaConfig `toml:"criteria"`
	Export   ExportConfig   `toml:"export"`
	Ingest   IngestConfig   `toml:"ingest"`
}

// CriteriaConfig locates the read-only rule database.
type CriteriaConfig struct {
	RulesPath string `toml:"rules_path"`
}

// StoreConfig holds project-store configuration. DSN selects the backend:
// a plain path opens SQLite, a postgres:// URL opens Postgres via pgx.
type StoreConfig struct {
	DSN         string        `toml:"dsn"`
	DialTimeout time.Duration `toml:"dial_timeout"`
}

// AIConfig holds AI-capability configuration
type AIConfig struct {
	APIKey          string        `toml:"api_key"`
	BaseURL         string        `toml:"base_url"`
	ExtractionModel string        `toml:"extraction_model"`
	CriteriaModel   string        `toml:"criteria_model"`
	Timeout         time.Duration `toml:"timeout"`
	RequestsPerMin  int           `toml:"requests_per_min"`
}

// ExportConfig holds export-assembler configuration
type ExportConfig struct {
	TemplatePath string `toml:"template_path"`
	OutputDir    string `toml:"output_dir"`
	FontDir      string `toml:"font_dir"`
}

// IngestConfig holds watcher configuration
type IngestConfig struct {
	WatchRoot string        `toml:"watch_root"`
	Debounce  time.Duration `toml:"debounce"`
}

// LoadConfig reads an optional TOML file, then applies environment overrides.
// Environment always wins so deployments can patch a shared file.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Store: StoreConfig{
			DSN:         "./data/filing.db",
			DialTimeout: 3 * time.Second,
		},
		AI: AIConfig{
			BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
			ExtractionModel: "gemini-2.5-flash",
			CriteriaModel:   "gemini-2.0-flash",
			Timeout:         45 * time.Second,
			RequestsPerMin:  30,
		},
		Criteria: CriteriaConfig{
			RulesPath: "./config/criteria.json",
		},
		Export: ExportConfig{
			TemplatePath: "./config/report.yaml",
			OutputDir:    "./exports",
		},
		Ingest: IngestConfig{
			Debounce: 500 * time.Millisecond,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Store.DSN = getEnv("FILING_STORE_DSN", cfg.Store.DSN)
	cfg.AI.APIKey = getEnv("GEMINI_API_KEY", cfg.AI.APIKey)
	cfg.AI.BaseURL = getEnv("GEMINI_BASE_URL", cfg.AI.BaseURL)
	cfg.AI.ExtractionModel = getEnv("GEMINI_EXTRACTION_MODEL", cfg.AI.ExtractionModel)
	cfg.AI.CriteriaModel = getEnv("GEMINI_CRITERIA_MODEL", cfg.AI.CriteriaModel)
	cfg.AI.Timeout = getEnvAsDuration("GEMINI_TIMEOUT", cfg.AI.Timeout)
	cfg.AI.RequestsPerMin = getEnvAsInt("GEMINI_REQUESTS_PER_MIN", cfg.AI.RequestsPerMin)
	cfg.Criteria.RulesPath = getEnv("FILING_CRITERIA_RULES", cfg.Criteria.RulesPath)
	cfg.Export.TemplatePath = getEnv("FILING_REPORT_TEMPLATE", cfg.Export.TemplatePath)
	cfg.Export.OutputDir = getEnv("FILING_EXPORT_DIR", cfg.Export.OutputDir)
	cfg.Export.FontDir = getEnv("FILING_FONT_DIR", cfg.Export.FontDir)
	cfg.Ingest.WatchRoot = getEnv("FILING_WATCH_ROOT", cfg.Ingest.WatchRoot)

	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Store.DSN == "" {
		return NewAppError("CONFIG_ERROR", "store DSN is required", ErrInvalidInput)
	}
	if c.AI.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	return nil
}
