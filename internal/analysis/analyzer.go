package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mkravets/ehs-mentor/internal/extract"
	"github.com/mkravets/ehs-mentor/internal/llm"
	"github.com/mkravets/ehs-mentor/internal/prompts"
	"github.com/mkravets/ehs-mentor/internal/schemas"
)

// Input caps keep prompts inside model context windows. Oversized inputs are
// truncated, not rejected.
const (
	maxChunkChars   = 7000
	maxMatchChars   = 20000
	maxRoleChars    = 15000
	maxCatalogLines = 200
	maxRoleLines    = 50

	maxEvidenceLen  = 500
	maxReasoningLen = 300
)

// Analyzer wraps an LLM client with the extraction prompts and retry policy.
type Analyzer struct {
	Client llm.Client
	Retry  llm.BackoffPolicy
}

// New returns an Analyzer with the default backoff policy.
func New(client llm.Client) *Analyzer {
	return &Analyzer{Client: client, Retry: llm.DefaultBackoff()}
}

// generate runs one JSON model call through the retry policy and validates
// the reply against the named schema. ok=false means the model answered but
// the reply was unusable; the caller should continue without it.
func (a *Analyzer) generate(ctx context.Context, prompt string, tier llm.ModelTier, maxTokens int32, schema string) (string, bool, error) {
	reply, err := llm.WithRetry(ctx, a.Retry, func() (string, error) {
		return a.Client.GenerateJSON(ctx, prompt, tier, maxTokens)
	})
	if err != nil {
		return "", false, err
	}

	if err := schemas.Validate(schema, reply); err != nil {
		// A schema that fails to compile is a broken build, not a bad model
		// reply; surface it instead of degrading.
		var loadErr *schemas.SchemaLoadError
		if errors.As(err, &loadErr) {
			return "", false, err
		}
		return "", false, nil
	}
	return reply, true, nil
}

// ExtractRequirements extracts training requirements from one chunk.
// A malformed model reply yields (nil, false, nil): the chunk is skipped and
// the run is marked degraded, but processing continues.
func (a *Analyzer) ExtractRequirements(ctx context.Context, chunk extract.Chunk) ([]Requirement, bool, error) {
	template, err := prompts.Get("analysis.json", "extract-requirements")
	if err != nil {
		return nil, false, err
	}

	prompt := prompts.Format(template, map[string]string{
		"Page": strconv.Itoa(chunk.Page),
		"Text": truncate(chunk.Text, maxChunkChars),
	})

	reply, ok, err := a.generate(ctx, prompt, llm.TierLite, 2048, schemas.Requirements)
	if err != nil || !ok {
		return nil, ok, err
	}

	var parsed struct {
		Requirements []Requirement `json:"requirements"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		return nil, false, nil
	}

	reqs := make([]Requirement, 0, len(parsed.Requirements))
	for _, r := range parsed.Requirements {
		r.Title = strings.TrimSpace(r.Title)
		if r.Title == "" {
			continue
		}
		if r.Page <= 0 {
			r.Page = chunk.Page
		}
		r.Severity = normalizeSeverity(r.Severity)
		reqs = append(reqs, r)
	}
	return reqs, true, nil
}

// MatchCourses asks the model which catalog courses the document text calls
// for. Confidence values are clamped to [0, 1] and evidence is truncated.
func (a *Analyzer) MatchCourses(ctx context.Context, text string, catalog []CatalogEntry) ([]CourseMatch, bool, error) {
	if len(catalog) == 0 {
		return nil, true, nil
	}
	if len(catalog) > maxCatalogLines {
		catalog = catalog[:maxCatalogLines]
	}

	lines := make([]string, len(catalog))
	for i, c := range catalog {
		lines[i] = fmt.Sprintf("%s :: %s", c.ID, c.Title)
	}

	template, err := prompts.Get("analysis.json", "match-courses")
	if err != nil {
		return nil, false, err
	}

	prompt := prompts.Format(template, map[string]string{
		"Catalog": strings.Join(lines, "\n"),
		"Text":    truncate(text, maxMatchChars),
	})

	reply, ok, err := a.generate(ctx, prompt, llm.TierStandard, 4096, schemas.CourseMatches)
	if err != nil || !ok {
		return nil, ok, err
	}

	var parsed struct {
		Matches []CourseMatch `json:"matches"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		return nil, false, nil
	}

	matches := make([]CourseMatch, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		m.CourseID = strings.TrimSpace(m.CourseID)
		if m.CourseID == "" {
			continue
		}
		m.Confidence = clamp01(m.Confidence)
		m.Evidence = truncate(m.Evidence, maxEvidenceLen)
		matches = append(matches, m)
	}
	return matches, true, nil
}

// MatchRoles asks the model which known roles the document text applies to.
func (a *Analyzer) MatchRoles(ctx context.Context, text string, roles []string) ([]RoleMatch, bool, error) {
	if len(roles) == 0 {
		return nil, true, nil
	}
	if len(roles) > maxRoleLines {
		roles = roles[:maxRoleLines]
	}

	template, err := prompts.Get("analysis.json", "match-roles")
	if err != nil {
		return nil, false, err
	}

	prompt := prompts.Format(template, map[string]string{
		"Roles": strings.Join(roles, "\n"),
		"Text":  truncate(text, maxRoleChars),
	})

	reply, ok, err := a.generate(ctx, prompt, llm.TierStandard, 2048, schemas.RoleMatches)
	if err != nil || !ok {
		return nil, ok, err
	}

	var parsed struct {
		Roles []RoleMatch `json:"roles"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		return nil, false, nil
	}

	matches := make([]RoleMatch, 0, len(parsed.Roles))
	for _, m := range parsed.Roles {
		m.RoleName = strings.TrimSpace(m.RoleName)
		if m.RoleName == "" {
			continue
		}
		m.Confidence = clamp01(m.Confidence)
		m.Reasoning = truncate(m.Reasoning, maxReasoningLen)
		matches = append(matches, m)
	}
	return matches, true, nil
}

// truncate caps s at max bytes without splitting a multibyte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
