package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkravets/ehs-mentor/internal/observability"
)

var extractDocumentCmd = &cobra.Command{
	Use:   "extract-document",
	Short: "Match a document to courses with the model",
	Long:  "Run model-assisted course matching over a registered document and append the results to its course mappings. Existing mappings are kept; confidences are only ever raised.",
	RunE:  runExtractDocument,
}

var (
	extractDocID      int
	extractPagesLimit int
	extractConfig     string
	extractVerbose    bool
)

func init() {
	extractDocumentCmd.Flags().IntVar(&extractDocID, "doc-id", 0, "Document ID (required)")
	extractDocumentCmd.Flags().IntVar(&extractPagesLimit, "pages-limit", 0, "Max pages to read (0 = all)")
	extractDocumentCmd.Flags().StringVar(&extractConfig, "config", "", "Path to JSON config file")
	extractDocumentCmd.Flags().BoolVar(&extractVerbose, "verbose", false, "Print a formatted summary to stderr")
	_ = extractDocumentCmd.MarkFlagRequired("doc-id")

	rootCmd.AddCommand(extractDocumentCmd)
}

func runExtractDocument(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(extractConfig)
	if err != nil {
		return err
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

	result, err := p.ExtractDocument(ctx, extractDocID, extractPagesLimit)
	if err != nil {
		return err
	}
	if extractVerbose {
		observability.NewPrinter(os.Stderr).PrintExtractResult(result)
	}
	return printJSON(result)
}
