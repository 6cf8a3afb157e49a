package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ListCourses retrieves the full course catalog ordered by ID.
func (db *DB) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT course_id, title, description, category, duration_minutes, provider
		 FROM courses ORDER BY course_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.CourseID, &c.Title, &c.Description, &c.Category, &c.DurationMinutes, &c.Provider); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// GetCourse retrieves one catalog entry. Returns a NotFoundError when absent.
func (db *DB) GetCourse(ctx context.Context, courseID string) (*Course, error) {
	var c Course
	err := db.pool.QueryRow(ctx,
		`SELECT course_id, title, description, category, duration_minutes, provider
		 FROM courses WHERE course_id = $1`,
		courseID,
	).Scan(&c.CourseID, &c.Title, &c.Description, &c.Category, &c.DurationMinutes, &c.Provider)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Entity: "course", Key: courseID}
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &c, nil
}

// CourseIDSet returns the catalog IDs as a set for candidate filtering.
func (db *DB) CourseIDSet(ctx context.Context) (map[string]bool, error) {
	rows, err := db.pool.Query(ctx, `SELECT course_id FROM courses`)
	if err != nil {
		return nil, fmt.Errorf("failed to list course ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan course id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
