package analysis

import (
	"context"
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/ehs-mentor/internal/extract"
	"github.com/mkravets/ehs-mentor/internal/llm"
	"github.com/mkravets/ehs-mentor/internal/schemas"
)

// mockClient returns canned replies in order and records prompts.
type mockClient struct {
	replies []string
	errs    []error
	prompts []string
	calls   int
}

func (m *mockClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return m.GenerateJSON(ctx, prompt, tier, 0)
}

func (m *mockClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier, maxTokens int32) (string, error) {
	m.prompts = append(m.prompts, prompt)
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i < len(m.replies) {
		return m.replies[i], nil
	}
	return "", errors.New("no reply configured")
}

func (m *mockClient) GetModel(tier llm.ModelTier) string { return "mock" }
func (m *mockClient) Close() error                       { return nil }

func fastAnalyzer(c *mockClient) *Analyzer {
	return &Analyzer{Client: c, Retry: llm.BackoffPolicy{MaxAttempts: 3, Base: time.Millisecond}}
}

func TestExtractRequirements_ParsesReply(t *testing.T) {
	client := &mockClient{replies: []string{
		`{"requirements": [{"title": "Forklift refresher", "page": 3, "severity": "high", "tags": ["forklift"]}]}`,
	}}

	reqs, ok, err := fastAnalyzer(client).ExtractRequirements(context.Background(), extract.Chunk{
		ID: "p3_c0", Page: 3, Text: "operators of powered industrial trucks...",
	})

	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Forklift refresher", reqs[0].Title)
	assert.Equal(t, 3, reqs[0].Page)
	assert.Contains(t, client.prompts[0], "page 3")
}

func TestExtractRequirements_DefaultsPageAndSeverity(t *testing.T) {
	client := &mockClient{replies: []string{
		`{"requirements": [{"title": "Eye wash station training"}]}`,
	}}

	reqs, ok, err := fastAnalyzer(client).ExtractRequirements(context.Background(), extract.Chunk{Page: 7, Text: "x"})

	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, reqs, 1)
	assert.Equal(t, 7, reqs[0].Page)
	assert.Equal(t, "medium", reqs[0].Severity)
}

func TestExtractRequirements_MalformedReplyDegrades(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "the document requires annual training"},
		{"wrong shape", `{"results": []}`},
		{"missing title", `{"requirements": [{"page": 1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{replies: []string{tt.reply}}
			reqs, ok, err := fastAnalyzer(client).ExtractRequirements(context.Background(), extract.Chunk{Page: 1, Text: "x"})

			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, reqs)
		})
	}
}

func TestExtractRequirements_RetriesThrottle(t *testing.T) {
	client := &mockClient{
		errs: []error{
			&llm.ThrottledError{StatusCode: 429, Cause: errors.New("quota")},
			nil,
		},
		replies: []string{
			"",
			`{"requirements": []}`,
		},
	}

	reqs, ok, err := fastAnalyzer(client).ExtractRequirements(context.Background(), extract.Chunk{Page: 1, Text: "x"})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, reqs)
	assert.Equal(t, 2, client.calls)
}

func TestExtractRequirements_ThrottleExhaustionPropagates(t *testing.T) {
	throttle := &llm.ThrottledError{StatusCode: 503, Cause: errors.New("overloaded")}
	client := &mockClient{errs: []error{throttle, throttle, throttle}}

	_, _, err := fastAnalyzer(client).ExtractRequirements(context.Background(), extract.Chunk{Page: 1, Text: "x"})

	require.Error(t, err)
	assert.True(t, llm.IsThrottled(err))
	assert.Equal(t, 3, client.calls)
}

func TestGenerate_SchemaLoadErrorPropagates(t *testing.T) {
	// A schema that cannot be loaded is a broken build, not a model failure.
	// It must surface as an error rather than a degraded result.
	client := &mockClient{replies: []string{`{}`}}

	_, ok, err := fastAnalyzer(client).generate(context.Background(), "prompt", llm.TierLite, 0, "nonexistent")

	require.Error(t, err)
	assert.False(t, ok)
	var loadErr *schemas.SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestTruncate_RuneBoundary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"ascii unaffected", "abc", 2, "ab"},
		{"cut before section sign", "a§b", 2, "a"},
		{"cut inside section sign", "§§", 3, "§"},
		{"single rune too wide", "§", 1, ""},
		{"under the cap", "§1910.134", 20, "§1910.134"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestMatchCourses_ClampsAndTruncates(t *testing.T) {
	longEvidence := make([]byte, 600)
	for i := range longEvidence {
		longEvidence[i] = 'e'
	}
	client := &mockClient{replies: []string{
		`{"matches": [
			{"course_id": "PPE-201", "confidence": 1.7, "evidence": "` + string(longEvidence) + `"},
			{"course_id": "FIRE-101", "confidence": -0.2},
			{"course_id": "  ", "confidence": 0.5}
		]}`,
	}}

	catalog := []CatalogEntry{{ID: "PPE-201", Title: "PPE Basics"}, {ID: "FIRE-101", Title: "Fire Safety"}}
	matches, ok, err := fastAnalyzer(client).MatchCourses(context.Background(), "text", catalog)

	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, matches, 2)
	assert.Equal(t, 1.0, matches[0].Confidence)
	assert.Len(t, matches[0].Evidence, 500)
	assert.Equal(t, 0.0, matches[1].Confidence)

	assert.Contains(t, client.prompts[0], "PPE-201 :: PPE Basics")
}

func TestMatchCourses_EmptyCatalogSkipsModel(t *testing.T) {
	client := &mockClient{}
	matches, ok, err := fastAnalyzer(client).MatchCourses(context.Background(), "text", nil)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, matches)
	assert.Zero(t, client.calls)
}

func TestMatchRoles_ParsesReply(t *testing.T) {
	client := &mockClient{replies: []string{
		`{"roles": [{"role_name": "Lab Technician", "confidence": 0.85, "reasoning": "handles specimens"}]}`,
	}}

	matches, ok, err := fastAnalyzer(client).MatchRoles(context.Background(), "text", []string{"Lab Technician", "Forklift Operator"})

	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, matches, 1)
	assert.Equal(t, "Lab Technician", matches[0].RoleName)
	assert.InDelta(t, 0.85, matches[0].Confidence, 1e-9)
	assert.Contains(t, client.prompts[0], "Forklift Operator")
}

func TestMatchRoles_SchemaMismatchDegrades(t *testing.T) {
	client := &mockClient{replies: []string{`{"roles": "none apply"}`}}

	matches, ok, err := fastAnalyzer(client).MatchRoles(context.Background(), "text", []string{"Nurse"})

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, matches)
}
