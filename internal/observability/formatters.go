// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/mkravets/ehs-mentor/internal/matcher"
	"github.com/mkravets/ehs-mentor/internal/pipeline"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintMapResult outputs a summary of a deterministic mapping pass.
func (p *Printer) PrintMapResult(result *pipeline.MapResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Document: %d  (%d pages)\n", result.DocID, result.Pages))
	sb.WriteString(fmt.Sprintf("Mappings written: %d\n", result.Inserted))

	if len(result.Candidates) > 0 {
		sb.WriteString("\nMatched courses:\n")
		count := min(len(result.Candidates), maxItemsToShow)
		for i := 0; i < count; i++ {
			c := result.Candidates[i]
			sb.WriteString(fmt.Sprintf("  • %s (%.2f)\n", c.CourseID, c.Confidence))
		}
		if len(result.Candidates) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Candidates)-maxItemsToShow))
		}
	}

	p.printBox("KEYWORD COURSE MAPPING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCandidates outputs matched course candidates with evidence excerpts.
func (p *Printer) PrintCandidates(candidates []matcher.Candidate) {
	if len(candidates) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total candidates: %d\n\n", len(candidates)))

	count := min(len(candidates), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := candidates[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, c.CourseID))
		sb.WriteString(fmt.Sprintf("    Confidence: %.2f\n", c.Confidence))
		if c.Evidence != "" {
			evidence := c.Evidence
			if len(evidence) > 40 {
				evidence = evidence[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf("    Evidence: %s\n", evidence))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(candidates) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more candidates", len(candidates)-maxItemsToShow))
	}

	p.printBox("COURSE CANDIDATES", sb.String())
}

// PrintExtractResult outputs a summary of a model-assisted mapping pass.
func (p *Printer) PrintExtractResult(result *pipeline.ExtractResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Document: %d  (%d pages)\n", result.DocID, result.Pages))
	sb.WriteString(fmt.Sprintf("Inserted: %d  Raised: %d  Skipped: %d  Dropped: %d\n",
		result.Counts.Inserted, result.Counts.Raised, result.Counts.Skipped, result.Counts.Dropped))

	if len(result.Matches) > 0 {
		sb.WriteString("\nModel matches:\n")
		count := min(len(result.Matches), maxItemsToShow)
		for i := 0; i < count; i++ {
			m := result.Matches[i]
			sb.WriteString(fmt.Sprintf("  • %s (%.2f)\n", m.CourseID, m.Confidence))
		}
		if len(result.Matches) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Matches)-maxItemsToShow))
		}
	}

	if result.Degraded {
		sb.WriteString(fmt.Sprintf("\n⚠ Degraded: %s\n", result.Reason))
	}

	p.printBox("MODEL COURSE MAPPING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProcessResult outputs the full processing chain summary.
func (p *Printer) PrintProcessResult(result *pipeline.ProcessResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Document: %d  (%d pages, %d chunks)\n", result.DocID, result.Pages, result.Chunks))
	sb.WriteString(fmt.Sprintf("Requirements: %d  Courses: %d  Roles: %d\n",
		len(result.Requirements), len(result.Matches), len(result.Roles)))
	sb.WriteString("\n")

	if len(result.Requirements) > 0 {
		sb.WriteString("Requirements:\n")
		count := min(len(result.Requirements), maxItemsToShow)
		for i := 0; i < count; i++ {
			req := result.Requirements[i]
			title := req.Title
			if len(title) > 40 {
				title = title[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • [%s] %s\n", req.Severity, title))
		}
		if len(result.Requirements) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Requirements)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(result.RolesApplied) > 0 {
		roles := strings.Join(result.RolesApplied, ", ")
		if len(roles) > 45 {
			roles = roles[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("Roles applied: %s\n", roles))
	}
	if len(result.RolesUnknown) > 0 {
		roles := strings.Join(result.RolesUnknown, ", ")
		if len(roles) > 45 {
			roles = roles[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("Roles unknown: %s\n", roles))
	}

	sb.WriteString(fmt.Sprintf("Rules promoted: %d  Assignments created: %d\n",
		result.Promotion.Inserted, result.Assigned))

	if result.Degraded {
		sb.WriteString(fmt.Sprintf("\n⚠ Degraded: %s\n", result.Reason))
	}

	p.printBox("DOCUMENT PROCESSING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSyncResult outputs an assignment synchronization summary.
func (p *Printer) PrintSyncResult(result *pipeline.SyncResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	role := result.Role
	if role == "" {
		role = "(all roles)"
	}
	sb.WriteString(fmt.Sprintf("Role:    %s\n", role))
	if result.Region != "" {
		sb.WriteString(fmt.Sprintf("Region:  %s\n", result.Region))
	}
	sb.WriteString(fmt.Sprintf("Created: %d\n", result.Created))

	p.printBox("ASSIGNMENT SYNC", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintUrgencyResult outputs an urgency reconciliation summary.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintUrgencyResult(result *pipeline.UrgencyResult) {
	if result == nil {
		return
	}
	if result.Scanned == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO OPEN ASSIGNMENTS")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Scanned: %d  Updated: %d\n", result.Scanned, result.Updated))

	if len(result.Buckets) > 0 {
		sb.WriteString("\nBuckets:\n")
		for _, level := range []string{"overdue", "urgent", "soon", "normal", "none"} {
			if n, ok := result.Buckets[level]; ok {
				sb.WriteString(fmt.Sprintf("  %-8s %d\n", level, n))
			}
		}
	}

	p.printBox("URGENCY RECONCILIATION", strings.TrimSuffix(sb.String(), "\n"))
}
