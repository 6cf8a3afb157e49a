package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkravets/ehs-mentor/internal/analysis"
	"github.com/mkravets/ehs-mentor/internal/db"
	"github.com/mkravets/ehs-mentor/internal/matcher"
	"github.com/mkravets/ehs-mentor/internal/pipeline"
)

func TestPrintMapResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &pipeline.MapResult{
		DocID: 3,
		Pages: 12,
		Candidates: []matcher.Candidate{
			{CourseID: "PPE-201", Confidence: 0.75},
			{CourseID: "LOTO-1910.147", Confidence: 0.5},
		},
		Inserted: 2,
	}

	p.PrintMapResult(result)
	output := buf.String()

	assert.Contains(t, output, "KEYWORD COURSE MAPPING")
	assert.Contains(t, output, "PPE-201")
	assert.Contains(t, output, "0.75")
	assert.Contains(t, output, "Mappings written: 2")
}

func TestPrintMapResult_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintMapResult(nil)

	assert.Empty(t, buf.String())
}

func TestPrintCandidates(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	candidates := []matcher.Candidate{
		{CourseID: "BBP-1910.1030", Confidence: 1.0, Evidence: "exposure to bloodborne pathogens requires annual training"},
		{CourseID: "FIRE-101", Confidence: 0.5},
	}

	p.PrintCandidates(candidates)
	output := buf.String()

	assert.Contains(t, output, "COURSE CANDIDATES")
	assert.Contains(t, output, "BBP-1910.1030")
	assert.Contains(t, output, "1.00")
	assert.Contains(t, output, "Evidence:")
	assert.Contains(t, output, "...")
}

func TestPrintCandidates_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCandidates(nil)

	assert.Empty(t, buf.String())
}

func TestPrintExtractResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &pipeline.ExtractResult{
		DocID: 7,
		Pages: 4,
		Matches: []analysis.CourseMatch{
			{CourseID: "LAB-SAFETY-101", Confidence: 0.9},
		},
		Counts: db.MappingCounts{Inserted: 1, Skipped: 2},
	}

	p.PrintExtractResult(result)
	output := buf.String()

	assert.Contains(t, output, "MODEL COURSE MAPPING")
	assert.Contains(t, output, "LAB-SAFETY-101")
	assert.Contains(t, output, "Inserted: 1")
	assert.Contains(t, output, "Skipped: 2")
	assert.NotContains(t, output, "Degraded")
}

func TestPrintExtractResult_Degraded(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &pipeline.ExtractResult{
		DocID:    7,
		Degraded: true,
		Reason:   "model throttled",
	}

	p.PrintExtractResult(result)
	output := buf.String()

	assert.Contains(t, output, "Degraded: model throttled")
}

func TestPrintProcessResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &pipeline.ProcessResult{
		DocID:  1,
		Pages:  10,
		Chunks: 3,
		Requirements: []analysis.Requirement{
			{ID: "R-20260828-abcd1234", Title: "Annual bloodborne pathogen training", Severity: "high"},
		},
		Matches:      []analysis.CourseMatch{{CourseID: "BBP-1910.1030", Confidence: 0.9}},
		Roles:        []analysis.RoleMatch{{RoleName: "Lab Technician", Confidence: 0.8}},
		RolesApplied: []string{"Lab Technician"},
		RolesUnknown: []string{"Astronaut"},
		Promotion:    db.PromotionCounts{Inserted: 1},
		Assigned:     2,
	}

	p.PrintProcessResult(result)
	output := buf.String()

	assert.Contains(t, output, "DOCUMENT PROCESSING")
	assert.Contains(t, output, "[high]")
	assert.Contains(t, output, "Roles applied: Lab Technician")
	assert.Contains(t, output, "Roles unknown: Astronaut")
	assert.Contains(t, output, "Rules promoted: 1")
	assert.Contains(t, output, "Assignments created: 2")
}

func TestPrintSyncResult_AllRoles(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSyncResult(&pipeline.SyncResult{Region: "CA", Created: 5})
	output := buf.String()

	assert.Contains(t, output, "ASSIGNMENT SYNC")
	assert.Contains(t, output, "(all roles)")
	assert.Contains(t, output, "CA")
	assert.Contains(t, output, "Created: 5")
}

func TestPrintUrgencyResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &pipeline.UrgencyResult{
		Scanned: 4,
		Updated: 2,
		Buckets: map[string]int{"overdue": 1, "urgent": 1, "normal": 2},
	}

	p.PrintUrgencyResult(result)
	output := buf.String()

	assert.Contains(t, output, "URGENCY RECONCILIATION")
	assert.Contains(t, output, "Scanned: 4")
	assert.Contains(t, output, "overdue")

	// Buckets print in severity order.
	assert.Less(t, strings.Index(output, "overdue"), strings.Index(output, "urgent"))
	assert.Less(t, strings.Index(output, "urgent"), strings.Index(output, "normal"))
}

func TestPrintUrgencyResult_NoOpenAssignments(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintUrgencyResult(&pipeline.UrgencyResult{})

	assert.Contains(t, buf.String(), "NO OPEN ASSIGNMENTS")
}
