package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/ehs-mentor/internal/analysis"
	"github.com/mkravets/ehs-mentor/internal/db"
	"github.com/mkravets/ehs-mentor/internal/extract"
	"github.com/mkravets/ehs-mentor/internal/llm"
	"github.com/mkravets/ehs-mentor/internal/matcher"
)

// scriptedClient answers by prompt kind so concurrent calls stay deterministic.
type scriptedClient struct {
	requirements string
	courses      string
	roles        string
	err          error
}

func (s *scriptedClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return s.GenerateJSON(ctx, prompt, tier, 0)
}

func (s *scriptedClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier, maxTokens int32) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	switch {
	case strings.Contains(prompt, "training requirements"):
		return s.requirements, nil
	case strings.Contains(prompt, "Course catalog"):
		return s.courses, nil
	case strings.Contains(prompt, "Known roles"):
		return s.roles, nil
	}
	return "", errors.New("unexpected prompt")
}

func (s *scriptedClient) GetModel(tier llm.ModelTier) string { return "scripted" }
func (s *scriptedClient) Close() error                       { return nil }

// fakeStore is an in-memory Store.
type fakeStore struct {
	doc      db.Document
	courses  []db.Course
	roles    []db.Role
	open     []db.Assignment
	mappings map[string]matcher.Candidate

	replaced      []matcher.Candidate
	promotedRoles []int
	promotedCours []string
	syncedRoles   []string
	urgencyWrites  map[int]string
	syncCreated    int
	registeredHash string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		doc: db.Document{DocID: 1, Title: "Lab Safety Manual", Path: "/data/lab.pdf"},
		courses: []db.Course{
			{CourseID: "PPE-201", Title: "PPE Basics"},
			{CourseID: "LAB-SAFETY-101", Title: "Laboratory Safety"},
		},
		roles: []db.Role{
			{RoleID: 10, Name: "Lab Technician"},
			{RoleID: 11, Name: "Forklift Operator"},
		},
		mappings:      make(map[string]matcher.Candidate),
		urgencyWrites: make(map[int]string),
		syncCreated:   2,
	}
}

func (f *fakeStore) RegisterDocument(ctx context.Context, source, title, path, fileHash string, pageCount int) (*db.Document, error) {
	if f.registeredHash == fileHash && fileHash != "" {
		return nil, &db.ConflictError{Entity: "document", Key: "1"}
	}
	f.registeredHash = fileHash
	return &db.Document{DocID: 2, Source: source, Title: title, Path: path, FileHash: &fileHash}, nil
}

func (f *fakeStore) GetDocument(ctx context.Context, docID int) (*db.Document, error) {
	if docID != f.doc.DocID {
		return nil, &db.NotFoundError{Entity: "document", Key: "?"}
	}
	return &f.doc, nil
}

func (f *fakeStore) ListCourses(ctx context.Context) ([]db.Course, error) { return f.courses, nil }

func (f *fakeStore) CourseIDSet(ctx context.Context) (map[string]bool, error) {
	ids := make(map[string]bool)
	for _, c := range f.courses {
		ids[c.CourseID] = true
	}
	return ids, nil
}

func (f *fakeStore) ListRoles(ctx context.Context) ([]db.Role, error) { return f.roles, nil }

func (f *fakeStore) ReplaceCourseMappings(ctx context.Context, docID int, candidates []matcher.Candidate) (int, error) {
	f.replaced = candidates
	return len(candidates), nil
}

func (f *fakeStore) UpsertCourseMappings(ctx context.Context, docID int, candidates []matcher.Candidate, catalogIDs map[string]bool) (db.MappingCounts, error) {
	var counts db.MappingCounts
	for _, c := range candidates {
		if !catalogIDs[c.CourseID] {
			counts.Dropped++
			continue
		}
		if prev, ok := f.mappings[c.CourseID]; ok {
			if c.Confidence > prev.Confidence {
				f.mappings[c.CourseID] = c
				counts.Raised++
			} else {
				counts.Skipped++
			}
			continue
		}
		f.mappings[c.CourseID] = c
		counts.Inserted++
	}
	return counts, nil
}

func (f *fakeStore) PromoteRules(ctx context.Context, roleIDs []int, courseIDs []string, frequency, region string) (db.PromotionCounts, error) {
	f.promotedRoles = roleIDs
	f.promotedCours = courseIDs
	return db.PromotionCounts{Inserted: len(roleIDs) * len(courseIDs)}, nil
}

func (f *fakeStore) SyncAssignments(ctx context.Context, roleName, region string) (int, error) {
	f.syncedRoles = append(f.syncedRoles, roleName)
	return f.syncCreated, nil
}

func (f *fakeStore) ListOpenAssignments(ctx context.Context) ([]db.Assignment, error) {
	return f.open, nil
}

func (f *fakeStore) UpdateAssignmentUrgency(ctx context.Context, assignmentID int, level string) error {
	f.urgencyWrites[assignmentID] = level
	return nil
}

func testPipeline(store Store, client llm.Client, pages []extract.PageText) *Pipeline {
	p := New(store, &analysis.Analyzer{
		Client: client,
		Retry:  llm.BackoffPolicy{MaxAttempts: 2, Base: time.Millisecond},
	})
	p.ReadPages = func(path string, pagesLimit int) ([]extract.PageText, error) {
		return pages, nil
	}
	p.HashFile = func(path string) (string, error) { return "hash-" + path, nil }
	p.Now = func() time.Time { return time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestRegisterDocument_DuplicateHashConflicts(t *testing.T) {
	store := newFakeStore()
	pages := []extract.PageText{{Page: 1, Text: "content"}}
	p := testPipeline(store, &scriptedClient{}, pages)

	doc, err := p.RegisterDocument(context.Background(), "osha", "Ladder Rule", "/data/ladder.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.DocID)

	_, err = p.RegisterDocument(context.Background(), "osha", "Ladder Rule again", "/data/ladder.pdf")
	var conflict *db.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestMapDocument_ReplacesWithKeywordMatches(t *testing.T) {
	store := newFakeStore()
	pages := []extract.PageText{{Page: 1, Text: "workers must wear personal protective equipment near forklift traffic"}}
	p := testPipeline(store, &scriptedClient{}, pages)

	result, err := p.MapDocument(context.Background(), 1, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 2, result.Inserted)

	ids := make([]string, len(store.replaced))
	for i, c := range store.replaced {
		ids[i] = c.CourseID
	}
	assert.ElementsMatch(t, []string{"PPE-201", "FORKLIFT-OP-120"}, ids)
}

func TestMapDocument_UnknownDocument(t *testing.T) {
	p := testPipeline(newFakeStore(), &scriptedClient{}, nil)

	_, err := p.MapDocument(context.Background(), 99, 0)

	var nfe *db.NotFoundError
	assert.ErrorAs(t, err, &nfe)
}

func TestExtractDocument_UpsertsModelMatches(t *testing.T) {
	store := newFakeStore()
	client := &scriptedClient{
		courses: `{"matches": [
			{"course_id": "PPE-201", "confidence": 0.9, "evidence": "shall wear PPE"},
			{"course_id": "GHOST-999", "confidence": 0.8, "evidence": "not in catalog"}
		]}`,
	}
	pages := []extract.PageText{{Page: 1, Text: "ppe text"}}
	p := testPipeline(store, client, pages)

	result, err := p.ExtractDocument(context.Background(), 1, 0)

	require.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Equal(t, 1, result.Counts.Inserted)
	assert.Equal(t, 1, result.Counts.Dropped, "unknown catalog IDs are dropped")
	assert.Contains(t, store.mappings, "PPE-201")
	assert.NotContains(t, store.mappings, "GHOST-999")
}

func TestExtractDocument_SecondRunSkips(t *testing.T) {
	store := newFakeStore()
	client := &scriptedClient{
		courses: `{"matches": [{"course_id": "PPE-201", "confidence": 0.9, "evidence": "e"}]}`,
	}
	pages := []extract.PageText{{Page: 1, Text: "ppe text"}}
	p := testPipeline(store, client, pages)

	first, err := p.ExtractDocument(context.Background(), 1, 0)
	require.NoError(t, err)
	second, err := p.ExtractDocument(context.Background(), 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Counts.Inserted)
	assert.Equal(t, 0, second.Counts.Inserted)
	assert.Equal(t, 1, second.Counts.Skipped)
}

func TestExtractDocument_ThrottleDegrades(t *testing.T) {
	store := newFakeStore()
	client := &scriptedClient{err: &llm.ThrottledError{StatusCode: 429, Cause: errors.New("quota")}}
	pages := []extract.PageText{{Page: 1, Text: "text"}}
	p := testPipeline(store, client, pages)

	result, err := p.ExtractDocument(context.Background(), 1, 0)

	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Empty(t, result.Matches)
	assert.Empty(t, store.mappings)
}

func TestProcessDocument_FullChain(t *testing.T) {
	store := newFakeStore()
	client := &scriptedClient{
		requirements: `{"requirements": [
			{"title": "Annual lab safety refresher", "page": 1, "severity": "high", "tags": ["lab"]},
			{"title": "annual lab safety refresher", "page": 2, "severity": "low", "tags": ["refresher"]}
		]}`,
		courses: `{"matches": [{"course_id": "LAB-SAFETY-101", "confidence": 0.95, "evidence": "lab workers shall"}]}`,
		roles: `{"roles": [
			{"role_name": "Lab Technician", "confidence": 0.9, "reasoning": "lab context"},
			{"role_name": "Forklift Operator", "confidence": 0.3, "reasoning": "weak"},
			{"role_name": "Astronaut", "confidence": 0.95, "reasoning": "not a known role"}
		]}`,
	}
	pages := []extract.PageText{{Page: 1, Text: "laboratory safety text"}}
	p := testPipeline(store, client, pages)

	result, err := p.ProcessDocument(context.Background(), 1, "US-CA", "annual", 0)

	require.NoError(t, err)
	assert.False(t, result.Degraded)

	// Duplicate requirement titles merge.
	require.Len(t, result.Requirements, 1)
	assert.Equal(t, "high", result.Requirements[0].Severity)
	assert.Equal(t, 1, result.Requirements[0].Page)

	// Only the confident, known role is applied.
	assert.Equal(t, []string{"Lab Technician"}, result.RolesApplied)
	assert.Equal(t, []string{"Astronaut"}, result.RolesUnknown)
	assert.Equal(t, []int{10}, store.promotedRoles)
	assert.Equal(t, []string{"LAB-SAFETY-101"}, store.promotedCours)
	assert.Equal(t, 1, result.Promotion.Inserted)

	// Sync ran once, for the applied role.
	assert.Equal(t, []string{"Lab Technician"}, store.syncedRoles)
	assert.Equal(t, 2, result.Assigned)

	assert.Equal(t, 1, result.Mapping.Inserted)
}

func TestProcessDocument_ThrottleDegradesButPersists(t *testing.T) {
	store := newFakeStore()
	client := &scriptedClient{err: &llm.ThrottledError{StatusCode: 503, Cause: errors.New("overloaded")}}
	pages := []extract.PageText{{Page: 1, Text: "laboratory safety text"}}
	p := testPipeline(store, client, pages)

	result, err := p.ProcessDocument(context.Background(), 1, "", "annual", 0)

	require.NoError(t, err, "throttling must not fail the run")
	assert.True(t, result.Degraded)
	assert.NotEmpty(t, result.Reason)
	assert.Empty(t, result.Requirements)
	assert.Empty(t, result.RolesApplied)
	assert.Empty(t, store.syncedRoles, "no promotion or sync without confident roles")
}

func TestProcessDocument_NonThrottleErrorFails(t *testing.T) {
	store := newFakeStore()
	client := &scriptedClient{err: errors.New("invalid api key")}
	pages := []extract.PageText{{Page: 1, Text: "text"}}
	p := testPipeline(store, client, pages)

	_, err := p.ProcessDocument(context.Background(), 1, "", "annual", 0)

	require.Error(t, err)
}

func TestSyncAssignments_PassThrough(t *testing.T) {
	store := newFakeStore()
	store.syncCreated = 7
	p := testPipeline(store, &scriptedClient{}, nil)

	result, err := p.SyncAssignments(context.Background(), "Nurse", "US-CA")

	require.NoError(t, err)
	assert.Equal(t, 7, result.Created)
	assert.Equal(t, []string{"Nurse"}, store.syncedRoles)
}

func TestRecomputeUrgency_UpdatesOnlyChangedRows(t *testing.T) {
	store := newFakeStore()
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	day := func(offset int) *time.Time {
		d := today.AddDate(0, 0, offset)
		return &d
	}
	level := func(s string) *string { return &s }

	store.open = []db.Assignment{
		{AssignmentID: 1, DueDate: day(-3), UrgencyLevel: level("normal")},  // now overdue
		{AssignmentID: 2, DueDate: day(5), UrgencyLevel: level("urgent")},   // unchanged
		{AssignmentID: 3, DueDate: day(20), UrgencyLevel: level("normal")},  // now soon
		{AssignmentID: 4, DueDate: nil, UrgencyLevel: nil},                  // none, first write
		{AssignmentID: 5, DueDate: day(90), UrgencyLevel: level("normal")},  // unchanged
	}
	p := testPipeline(store, &scriptedClient{}, nil)

	result, err := p.RecomputeUrgency(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, result.Scanned)
	assert.Equal(t, 3, result.Updated)
	assert.Equal(t, map[string]int{
		"overdue": 1, "urgent": 1, "soon": 1, "none": 1, "normal": 1,
	}, result.Buckets)
	assert.Equal(t, "overdue", store.urgencyWrites[1])
	assert.Equal(t, "soon", store.urgencyWrites[3])
	assert.Equal(t, "none", store.urgencyWrites[4])
	assert.NotContains(t, store.urgencyWrites, 2)
	assert.NotContains(t, store.urgencyWrites, 5)
}
