// Package extract provides PDF text extraction and chunking for regulatory documents.
package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageText holds the normalized text of a single PDF page.
type PageText struct {
	Page int    // 1-based page number
	Text string
}

// ExtractionError indicates the PDF could not be opened or parsed.
// Extraction failures are fatal for a document run; there is no partial result.
type ExtractionError struct {
	Path  string
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Path, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// ReadPages extracts normalized text from a PDF file, one entry per page.
// pagesLimit caps the number of pages read; 0 means all pages.
// Pages that yield no text are skipped.
func ReadPages(path string, pagesLimit int) ([]PageText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Cause: err}
	}
	defer f.Close()

	total := reader.NumPage()
	if pagesLimit > 0 && pagesLimit < total {
		total = pagesLimit
	}

	var pages []PageText
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, &ExtractionError{Path: path, Cause: fmt.Errorf("page %d: %w", i, err)}
		}

		text = Normalize(text)
		if text == "" {
			continue
		}
		pages = append(pages, PageText{Page: i, Text: text})
	}

	return pages, nil
}

// pdfCleaner removes artifacts common in extracted PDF text: soft hyphens,
// non-breaking spaces, and the fi/fl ligatures.
var pdfCleaner = strings.NewReplacer(
	"­", "",
	" ", " ",
	"ﬁ", "fi",
	"ﬂ", "fl",
)

// Normalize collapses all runs of whitespace to single spaces and strips
// PDF extraction artifacts.
func Normalize(text string) string {
	text = pdfCleaner.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
