package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mkravets/ehs-mentor/internal/pipeline"
)

var registerDocumentCmd = &cobra.Command{
	Use:   "register-document",
	Short: "Register a PDF in the document inventory",
	Long:  "Hash a PDF, count its pages, and insert a document row. Registering the same file twice is rejected by content hash.",
	RunE:  runRegisterDocument,
}

var (
	registerPath   string
	registerSource string
	registerTitle  string
	registerConfig string
)

func init() {
	registerDocumentCmd.Flags().StringVar(&registerPath, "path", "", "Path to the PDF file (required)")
	registerDocumentCmd.Flags().StringVar(&registerSource, "source", "upload", "Document source label (e.g. osha, cal-osha, internal)")
	registerDocumentCmd.Flags().StringVar(&registerTitle, "title", "", "Document title (defaults to the file name)")
	registerDocumentCmd.Flags().StringVar(&registerConfig, "config", "", "Path to JSON config file")
	_ = registerDocumentCmd.MarkFlagRequired("path")

	rootCmd.AddCommand(registerDocumentCmd)
}

func runRegisterDocument(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(registerConfig)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	title := registerTitle
	if title == "" {
		title = filepath.Base(registerPath)
	}

	// Registration needs no model client; build a bare pipeline around the store.
	p := pipeline.New(store, nil)

	doc, err := p.RegisterDocument(ctx, registerSource, title, registerPath)
	if err != nil {
		return fmt.Errorf("failed to register document: %w", err)
	}

	return printJSON(doc)
}
