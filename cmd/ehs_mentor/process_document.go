package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkravets/ehs-mentor/internal/observability"
)

var processDocumentCmd = &cobra.Command{
	Use:   "process-document",
	Short: "Run the full compliance chain for a document",
	Long: `Extract training requirements chunk by chunk, match courses and roles,
persist course mappings, promote compliance rules for confident roles, and
sync assignments for the affected workforce.`,
	RunE: runProcessDocument,
}

var (
	processDocID      int
	processRegion     string
	processFrequency  string
	processPagesLimit int
	processConfig     string
	processVerbose    bool
)

func init() {
	processDocumentCmd.Flags().IntVar(&processDocID, "doc-id", 0, "Document ID (required)")
	processDocumentCmd.Flags().StringVar(&processRegion, "region", "", "Region for promoted rules (defaults to DEFAULT_REGION)")
	processDocumentCmd.Flags().StringVar(&processFrequency, "frequency", "", "Training frequency for promoted rules (annual, every_3_years, none)")
	processDocumentCmd.Flags().IntVar(&processPagesLimit, "pages-limit", 0, "Max pages to read (0 = all)")
	processDocumentCmd.Flags().StringVar(&processConfig, "config", "", "Path to JSON config file")
	processDocumentCmd.Flags().BoolVar(&processVerbose, "verbose", false, "Print a formatted summary to stderr")
	_ = processDocumentCmd.MarkFlagRequired("doc-id")

	rootCmd.AddCommand(processDocumentCmd)
}

func runProcessDocument(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(processConfig)
	if err != nil {
		return err
	}

	region := processRegion
	if region == "" {
		region = cfg.Region
	}
	frequency := processFrequency
	if frequency == "" {
		frequency = cfg.Frequency
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	p, closer, err := newPipeline(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer closer()

	result, err := p.ProcessDocument(ctx, processDocID, region, frequency, processPagesLimit)
	if err != nil {
		return err
	}
	if processVerbose {
		observability.NewPrinter(os.Stderr).PrintProcessResult(result)
	}
	return printJSON(result)
}
