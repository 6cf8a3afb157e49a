package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkravets/ehs-mentor/internal/observability"
	"github.com/mkravets/ehs-mentor/internal/pipeline"
)

var recomputeUrgencyCmd = &cobra.Command{
	Use:   "recompute-urgency",
	Short: "Reclassify urgency for every open assignment",
	Long:  "Scan open assignments, reclassify each one's urgency from its due date, and write only the rows whose stored level changed. Intended to run daily from cron.",
	RunE:  runRecomputeUrgency,
}

var (
	recomputeConfig  string
	recomputeVerbose bool
)

func init() {
	recomputeUrgencyCmd.Flags().StringVar(&recomputeConfig, "config", "", "Path to JSON config file")
	recomputeUrgencyCmd.Flags().BoolVar(&recomputeVerbose, "verbose", false, "Print a formatted summary to stderr")

	rootCmd.AddCommand(recomputeUrgencyCmd)
}

func runRecomputeUrgency(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(recomputeConfig)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	p := pipeline.New(store, nil)

	result, err := p.RecomputeUrgency(ctx)
	if err != nil {
		return err
	}
	if recomputeVerbose {
		observability.NewPrinter(os.Stderr).PrintUrgencyResult(result)
	}
	return printJSON(result)
}
