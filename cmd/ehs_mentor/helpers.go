package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mkravets/ehs-mentor/internal/analysis"
	"github.com/mkravets/ehs-mentor/internal/config"
	"github.com/mkravets/ehs-mentor/internal/db"
	"github.com/mkravets/ehs-mentor/internal/llm"
	"github.com/mkravets/ehs-mentor/internal/pipeline"
)

// loadConfig merges an optional --config file over environment values.
func loadConfig(path string) (config.Config, error) {
	env := config.FromEnv()
	if path == "" {
		cfg := env.Merge(config.Config{})
		return cfg, cfg.Validate()
	}

	fileCfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	cfg := fileCfg.Merge(env)
	return cfg, cfg.Validate()
}

// openStore connects to the database from config.
func openStore(ctx context.Context, cfg config.Config) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required (set DATABASE_URL or database_url in the config file)")
	}
	return db.Connect(ctx, cfg.DatabaseURL)
}

// newPipeline builds the full processing pipeline, including the model client.
// The returned closer releases the model client.
func newPipeline(ctx context.Context, cfg config.Config, store *db.DB) (*pipeline.Pipeline, func(), error) {
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("API key is required (set GEMINI_API_KEY or api_key in the config file)")
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create model client: %w", err)
	}

	closer := func() {
		if err := client.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close model client: %v\n", err)
		}
	}
	return pipeline.New(store, analysis.New(client)), closer, nil
}

// printJSON writes a result as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
