// Package config provides configuration loading and validation for the service and CLI.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"encoding/json"
)

// Config holds startup configuration. Values can come from a JSON file,
// environment variables, or CLI flags; later sources win via Merge.
type Config struct {
	// Connections
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key

	// Server
	Port int `json:"port,omitempty"` // HTTP listen port

	// Documents
	DataDir string `json:"data_dir,omitempty"` // Directory holding registered PDF files

	// Compliance defaults
	Region    string `json:"region,omitempty"`    // Default region for rule promotion (e.g. "US-CA")
	Frequency string `json:"frequency,omitempty"` // Default training frequency for promoted rules
}

// Load reads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config from environment variables.
// Callers typically load .env via godotenv before calling this.
func FromEnv() Config {
	cfg := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		DataDir:     os.Getenv("DATA_DIR"),
		Region:      os.Getenv("DEFAULT_REGION"),
		Frequency:   os.Getenv("DEFAULT_FREQUENCY"),
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	return cfg
}

// Merge returns a new Config with empty fields filled from defaults.
func (c *Config) Merge(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.Region == "" {
		result.Region = defaults.Region
	}
	if result.Frequency == "" {
		result.Frequency = defaults.Frequency
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Port == 0 {
		result.Port = 8000
	}
	if result.Frequency == "" {
		result.Frequency = "annual"
	}

	return result
}

// Validate checks that the configuration has valid values.
// Required fields are enforced by the callers that need them; this only
// rejects values that are present but malformed.
func (c *Config) Validate() error {
	if c.DatabaseURL != "" {
		if _, err := url.Parse(c.DatabaseURL); err != nil {
			return fmt.Errorf("config error: invalid database_url: %w", err)
		}
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: port must be in [0, 65535]")
	}

	switch c.Frequency {
	case "", "annual", "every_3_years", "none":
	default:
		return fmt.Errorf("config error: unknown frequency %q", c.Frequency)
	}

	if c.DataDir != "" {
		if info, err := os.Stat(c.DataDir); err == nil && !info.IsDir() {
			return fmt.Errorf("config error: data_dir is not a directory: %s", c.DataDir)
		}
	}

	return nil
}
