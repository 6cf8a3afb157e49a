package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkravets/ehs-mentor/internal/observability"
	"github.com/mkravets/ehs-mentor/internal/pipeline"
)

var mapDocumentCmd = &cobra.Command{
	Use:   "map-document",
	Short: "Map a document to courses with the keyword rule table",
	Long:  "Run the deterministic keyword matcher over a registered document and replace its stored course mappings. No model calls are made.",
	RunE:  runMapDocument,
}

var (
	mapDocID      int
	mapPagesLimit int
	mapConfig     string
	mapVerbose    bool
)

func init() {
	mapDocumentCmd.Flags().IntVar(&mapDocID, "doc-id", 0, "Document ID (required)")
	mapDocumentCmd.Flags().IntVar(&mapPagesLimit, "pages-limit", 0, "Max pages to read (0 = all)")
	mapDocumentCmd.Flags().StringVar(&mapConfig, "config", "", "Path to JSON config file")
	mapDocumentCmd.Flags().BoolVar(&mapVerbose, "verbose", false, "Print a formatted summary to stderr")
	_ = mapDocumentCmd.MarkFlagRequired("doc-id")

	rootCmd.AddCommand(mapDocumentCmd)
}

func runMapDocument(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(mapConfig)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Deterministic mapping needs no model client.
	p := pipeline.New(store, nil)

	result, err := p.MapDocument(ctx, mapDocID, mapPagesLimit)
	if err != nil {
		return err
	}
	if mapVerbose {
		printer := observability.NewPrinter(os.Stderr)
		printer.PrintMapResult(result)
		printer.PrintCandidates(result.Candidates)
	}
	return printJSON(result)
}
