// Package pipeline orchestrates the document processing operations: text
// extraction, course mapping, requirement analysis, rule promotion, and
// assignment synchronization. Each stage commits independently so a failure
// late in the chain keeps the work of earlier stages.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkravets/ehs-mentor/internal/analysis"
	"github.com/mkravets/ehs-mentor/internal/db"
	"github.com/mkravets/ehs-mentor/internal/extract"
	"github.com/mkravets/ehs-mentor/internal/llm"
	"github.com/mkravets/ehs-mentor/internal/matcher"
	"github.com/mkravets/ehs-mentor/internal/urgency"
)

// roleConfidenceFloor is the minimum model confidence for a role match to
// drive rule promotion and assignment sync.
const roleConfidenceFloor = 0.6

// defaultConcurrency bounds parallel per-chunk model calls.
const defaultConcurrency = 4

// Store is the persistence surface the pipeline needs. *db.DB implements it;
// tests substitute an in-memory fake.
type Store interface {
	RegisterDocument(ctx context.Context, source, title, path, fileHash string, pageCount int) (*db.Document, error)
	GetDocument(ctx context.Context, docID int) (*db.Document, error)
	ListCourses(ctx context.Context) ([]db.Course, error)
	CourseIDSet(ctx context.Context) (map[string]bool, error)
	ListRoles(ctx context.Context) ([]db.Role, error)
	ReplaceCourseMappings(ctx context.Context, docID int, candidates []matcher.Candidate) (int, error)
	UpsertCourseMappings(ctx context.Context, docID int, candidates []matcher.Candidate, catalogIDs map[string]bool) (db.MappingCounts, error)
	PromoteRules(ctx context.Context, roleIDs []int, courseIDs []string, frequency, region string) (db.PromotionCounts, error)
	SyncAssignments(ctx context.Context, roleName, region string) (int, error)
	ListOpenAssignments(ctx context.Context) ([]db.Assignment, error)
	UpdateAssignmentUrgency(ctx context.Context, assignmentID int, level string) error
}

// Pipeline wires the stores, the analyzer, and the deterministic matcher.
type Pipeline struct {
	Store    Store
	Analyzer *analysis.Analyzer
	Rules    []matcher.Rule

	// ReadPages is swappable for tests; defaults to extract.ReadPages.
	ReadPages func(path string, pagesLimit int) ([]extract.PageText, error)
	// HashFile is swappable for tests; defaults to db.HashFile.
	HashFile func(path string) (string, error)
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
	// Concurrency bounds parallel model calls; 0 uses the default.
	Concurrency int
}

// New returns a Pipeline with production defaults.
func New(store Store, analyzer *analysis.Analyzer) *Pipeline {
	return &Pipeline{
		Store:     store,
		Analyzer:  analyzer,
		Rules:     matcher.DefaultRules(),
		ReadPages: extract.ReadPages,
		HashFile:  db.HashFile,
		Now:       time.Now,
	}
}

// RegisterDocument hashes a PDF, counts its readable pages, and inserts the
// document row. A file whose hash is already registered returns the store's
// conflict error untouched.
func (p *Pipeline) RegisterDocument(ctx context.Context, source, title, path string) (*db.Document, error) {
	hash, err := p.HashFile(path)
	if err != nil {
		return nil, err
	}

	pages, err := p.ReadPages(path, 0)
	if err != nil {
		return nil, err
	}

	return p.Store.RegisterDocument(ctx, source, title, path, hash, len(pages))
}

// readDocument loads a document row and its page text.
func (p *Pipeline) readDocument(ctx context.Context, docID, pagesLimit int) (*db.Document, []extract.PageText, error) {
	doc, err := p.Store.GetDocument(ctx, docID)
	if err != nil {
		return nil, nil, err
	}

	pages, err := p.ReadPages(doc.Path, pagesLimit)
	if err != nil {
		return nil, nil, err
	}
	return doc, pages, nil
}

// joinPages concatenates page texts for whole-document analysis.
func joinPages(pages []extract.PageText) string {
	parts := make([]string, len(pages))
	for i, page := range pages {
		parts[i] = page.Text
	}
	return strings.Join(parts, " ")
}

// MapDocument runs the deterministic keyword matcher over a document and
// replaces its stored course mappings with the result.
func (p *Pipeline) MapDocument(ctx context.Context, docID, pagesLimit int) (*MapResult, error) {
	_, pages, err := p.readDocument(ctx, docID, pagesLimit)
	if err != nil {
		return nil, err
	}

	candidates := matcher.Match(joinPages(pages), p.Rules)

	inserted, err := p.Store.ReplaceCourseMappings(ctx, docID, candidates)
	if err != nil {
		return nil, err
	}

	return &MapResult{
		DocID:      docID,
		Pages:      len(pages),
		Candidates: candidates,
		Inserted:   inserted,
	}, nil
}

// ExtractDocument runs model-assisted course matching over a document and
// appends the results idempotently. Model throttle exhaustion or an unusable
// reply degrades to an empty match set instead of failing.
func (p *Pipeline) ExtractDocument(ctx context.Context, docID, pagesLimit int) (*ExtractResult, error) {
	_, pages, err := p.readDocument(ctx, docID, pagesLimit)
	if err != nil {
		return nil, err
	}

	result := &ExtractResult{DocID: docID, Pages: len(pages)}

	courses, err := p.Store.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	catalog := make([]analysis.CatalogEntry, len(courses))
	for i, c := range courses {
		catalog[i] = analysis.CatalogEntry{ID: c.CourseID, Title: c.Title}
	}

	matches, ok, err := p.Analyzer.MatchCourses(ctx, joinPages(pages), catalog)
	switch {
	case err != nil && llm.IsThrottled(err):
		result.Degraded = true
		result.Reason = "model throttled"
	case err != nil:
		return nil, err
	case !ok:
		result.Degraded = true
		result.Reason = "unusable model reply"
	}
	result.Matches = matches

	catalogIDs, err := p.Store.CourseIDSet(ctx)
	if err != nil {
		return nil, err
	}

	result.Counts, err = p.Store.UpsertCourseMappings(ctx, docID, toCandidates(matches), catalogIDs)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// toCandidates adapts model course matches to the mapping write format.
func toCandidates(matches []analysis.CourseMatch) []matcher.Candidate {
	candidates := make([]matcher.Candidate, len(matches))
	for i, m := range matches {
		candidates[i] = matcher.Candidate{
			CourseID:   m.CourseID,
			Confidence: m.Confidence,
			Evidence:   m.Evidence,
		}
	}
	return candidates
}

// ProcessDocument runs the full chain: chunked requirement extraction, course
// and role matching, mapping persistence, rule promotion, and assignment sync
// for the applied roles. Throttling degrades the model-dependent stages; the
// deterministic stages still run and commit.
func (p *Pipeline) ProcessDocument(ctx context.Context, docID int, region, frequency string, pagesLimit int) (*ProcessResult, error) {
	_, pages, err := p.readDocument(ctx, docID, pagesLimit)
	if err != nil {
		return nil, err
	}

	chunks := extract.ChunkPages(pages)
	result := &ProcessResult{DocID: docID, Pages: len(pages), Chunks: len(chunks)}

	raw, degraded, err := p.extractAllChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if degraded {
		result.Degraded = true
		result.Reason = "requirement extraction degraded"
	}
	result.Requirements = analysis.Deduplicate(raw, p.Now())

	text := joinPages(pages)

	courses, err := p.Store.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	catalog := make([]analysis.CatalogEntry, len(courses))
	for i, c := range courses {
		catalog[i] = analysis.CatalogEntry{ID: c.CourseID, Title: c.Title}
	}

	matches, ok, err := p.Analyzer.MatchCourses(ctx, text, catalog)
	if err != nil {
		if !llm.IsThrottled(err) {
			return nil, err
		}
		result.Degraded = true
		result.Reason = appendReason(result.Reason, "course matching throttled")
	} else if !ok {
		result.Degraded = true
		result.Reason = appendReason(result.Reason, "unusable course matching reply")
	}
	result.Matches = matches

	catalogIDs, err := p.Store.CourseIDSet(ctx)
	if err != nil {
		return nil, err
	}
	result.Mapping, err = p.Store.UpsertCourseMappings(ctx, docID, toCandidates(matches), catalogIDs)
	if err != nil {
		return nil, err
	}

	roles, err := p.Store.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	roleNames := make([]string, len(roles))
	roleIDByName := make(map[string]int, len(roles))
	for i, r := range roles {
		roleNames[i] = r.Name
		roleIDByName[r.Name] = r.RoleID
	}

	roleMatches, ok, err := p.Analyzer.MatchRoles(ctx, text, roleNames)
	if err != nil {
		if !llm.IsThrottled(err) {
			return nil, err
		}
		result.Degraded = true
		result.Reason = appendReason(result.Reason, "role matching throttled")
	} else if !ok {
		result.Degraded = true
		result.Reason = appendReason(result.Reason, "unusable role matching reply")
	}
	result.Roles = roleMatches

	// Promotion: confident, known roles x mapped courses. Unknown role names
	// are reported, never auto-created.
	var roleIDs []int
	for _, rm := range roleMatches {
		if rm.Confidence < roleConfidenceFloor {
			continue
		}
		id, known := roleIDByName[rm.RoleName]
		if !known {
			result.RolesUnknown = append(result.RolesUnknown, rm.RoleName)
			continue
		}
		roleIDs = append(roleIDs, id)
		result.RolesApplied = append(result.RolesApplied, rm.RoleName)
	}

	courseIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		if catalogIDs[m.CourseID] {
			courseIDs = append(courseIDs, m.CourseID)
		}
	}

	if len(roleIDs) > 0 && len(courseIDs) > 0 {
		result.Promotion, err = p.Store.PromoteRules(ctx, roleIDs, courseIDs, frequency, region)
		if err != nil {
			return nil, err
		}

		for _, roleName := range result.RolesApplied {
			created, err := p.Store.SyncAssignments(ctx, roleName, region)
			if err != nil {
				return nil, err
			}
			result.Assigned += created
		}
	}

	return result, nil
}

// extractAllChunks runs requirement extraction concurrently over chunks.
// Throttle exhaustion or an unusable reply on any chunk marks the run
// degraded; other errors abort.
func (p *Pipeline) extractAllChunks(ctx context.Context, chunks []extract.Chunk) ([]analysis.Requirement, bool, error) {
	limit := p.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	var (
		mu       sync.Mutex
		reqs     []analysis.Requirement
		degraded bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			extracted, ok, err := p.Analyzer.ExtractRequirements(gctx, chunk)
			if err != nil {
				if llm.IsThrottled(err) {
					mu.Lock()
					degraded = true
					mu.Unlock()
					return nil
				}
				return fmt.Errorf("chunk %s: %w", chunk.ID, err)
			}

			mu.Lock()
			if !ok {
				degraded = true
			}
			reqs = append(reqs, extracted...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	return reqs, degraded, nil
}

// SyncAssignments creates missing assignments for one role, or for every role
// when roleName is empty.
func (p *Pipeline) SyncAssignments(ctx context.Context, roleName, region string) (*SyncResult, error) {
	created, err := p.Store.SyncAssignments(ctx, roleName, region)
	if err != nil {
		return nil, err
	}
	return &SyncResult{Role: roleName, Region: region, Created: created}, nil
}

// RecomputeUrgency reclassifies every open assignment's urgency and writes
// only the rows whose stored level differs.
func (p *Pipeline) RecomputeUrgency(ctx context.Context) (*UrgencyResult, error) {
	assignments, err := p.Store.ListOpenAssignments(ctx)
	if err != nil {
		return nil, err
	}

	result := &UrgencyResult{
		Scanned: len(assignments),
		Buckets: make(map[string]int),
	}
	today := p.Now()

	for _, a := range assignments {
		level := string(urgency.Classify(a.DueDate, today))
		result.Buckets[level]++

		if a.UrgencyLevel != nil && *a.UrgencyLevel == level {
			continue
		}
		if err := p.Store.UpdateAssignmentUrgency(ctx, a.AssignmentID, level); err != nil {
			return nil, err
		}
		result.Updated++
	}
	return result, nil
}

// appendReason joins degradation reasons for reporting.
func appendReason(existing, reason string) string {
	if existing == "" {
		return reason
	}
	if strings.Contains(existing, reason) {
		return existing
	}
	return existing + "; " + reason
}
