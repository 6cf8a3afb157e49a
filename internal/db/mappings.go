package db

import (
	"context"
	"fmt"

	"github.com/mkravets/ehs-mentor/internal/matcher"
)

// ReplaceCourseMappings deletes all existing mappings for a document and
// inserts the given candidates. Used by the deterministic remap operation.
func (db *DB) ReplaceCourseMappings(ctx context.Context, docID int, candidates []matcher.Candidate) (int, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin remap: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM doc_course_map WHERE doc_id = $1`, docID); err != nil {
		return 0, fmt.Errorf("failed to clear mappings: %w", err)
	}

	inserted := 0
	for _, c := range candidates {
		if _, err := tx.Exec(ctx,
			`INSERT INTO doc_course_map (doc_id, course_id, confidence, rule_text)
			 VALUES ($1, $2, $3, $4)`,
			docID, c.CourseID, c.Confidence, c.Evidence); err != nil {
			return 0, fmt.Errorf("failed to insert mapping %s: %w", c.CourseID, err)
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit remap: %w", err)
	}
	return inserted, nil
}

// UpsertCourseMappings appends candidate mappings idempotently. Candidates
// referencing IDs outside catalogIDs are dropped. An existing (doc, course)
// pair is skipped, except that its confidence is raised when the new
// candidate's is higher; confidence is never lowered.
func (db *DB) UpsertCourseMappings(ctx context.Context, docID int, candidates []matcher.Candidate, catalogIDs map[string]bool) (MappingCounts, error) {
	var counts MappingCounts

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to begin mapping upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range candidates {
		if !catalogIDs[c.CourseID] {
			counts.Dropped++
			continue
		}

		tag, err := tx.Exec(ctx,
			`INSERT INTO doc_course_map (doc_id, course_id, confidence, rule_text)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (doc_id, course_id) DO NOTHING`,
			docID, c.CourseID, c.Confidence, c.Evidence)
		if err != nil {
			return counts, fmt.Errorf("failed to upsert mapping %s: %w", c.CourseID, err)
		}
		if tag.RowsAffected() > 0 {
			counts.Inserted++
			continue
		}

		raised, err := tx.Exec(ctx,
			`UPDATE doc_course_map
			 SET confidence = $3, rule_text = $4
			 WHERE doc_id = $1 AND course_id = $2 AND confidence < $3`,
			docID, c.CourseID, c.Confidence, c.Evidence)
		if err != nil {
			return counts, fmt.Errorf("failed to raise confidence for %s: %w", c.CourseID, err)
		}
		if raised.RowsAffected() > 0 {
			counts.Raised++
		} else {
			counts.Skipped++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return counts, fmt.Errorf("failed to commit mapping upsert: %w", err)
	}
	return counts, nil
}

// ListCourseMappings retrieves the mappings stored for a document.
func (db *DB) ListCourseMappings(ctx context.Context, docID int) ([]CourseMapping, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, doc_id, course_id, confidence, rule_text
		 FROM doc_course_map WHERE doc_id = $1 ORDER BY confidence DESC, course_id`,
		docID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	defer rows.Close()

	var mappings []CourseMapping
	for rows.Next() {
		var m CourseMapping
		if err := rows.Scan(&m.ID, &m.DocID, &m.CourseID, &m.Confidence, &m.RuleText); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}
