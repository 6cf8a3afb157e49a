package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mkravets/ehs-mentor/internal/urgency"
)

// SyncAssignments creates assignments for every user whose role has an active
// compliance rule and who has neither a completion record nor a live
// assignment for the rule's course. One set-based statement; the unique
// (user_id, course_id) constraint makes concurrent syncs safe.
//
// roleName narrows the sync to one role; empty syncs all roles. region
// matches global rules (region '' or legacy NULL) and rules for the given
// region; empty matches everything. Returns the number of assignments created.
func (db *DB) SyncAssignments(ctx context.Context, roleName, region string) (int, error) {
	tag, err := db.pool.Exec(ctx,
		`INSERT INTO assignments (user_id, course_id, status, due_date, urgency_level, assigned_by)
		 SELECT u.user_id,
		        rr.course_id,
		        'assigned',
		        CASE rr.frequency
		            WHEN 'annual'        THEN CURRENT_DATE + INTERVAL '365 days'
		            WHEN 'every_3_years' THEN CURRENT_DATE + INTERVAL '1095 days'
		            WHEN 'none'          THEN NULL
		            ELSE CURRENT_DATE + INTERVAL '365 days'
		        END,
		        CASE rr.frequency WHEN 'none' THEN 'none' ELSE 'normal' END,
		        'system'
		 FROM rule_requirements rr
		 JOIN roles r ON r.role_id = rr.role_id
		 JOIN users u ON u.role = r.name
		 WHERE rr.active
		   AND ($1 = '' OR r.name = $1)
		   AND ($2 = '' OR COALESCE(rr.region, '') = '' OR rr.region = $2)
		   AND NOT EXISTS (
		       SELECT 1 FROM user_courses uc
		       WHERE uc.user_id = u.user_id AND uc.course_id = rr.course_id
		   )
		   AND NOT EXISTS (
		       SELECT 1 FROM assignments a
		       WHERE a.user_id = u.user_id
		         AND a.course_id = rr.course_id
		         AND a.status IN ('assigned', 'in_progress', 'completed', 'overdue')
		   )
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		roleName, region)
	if err != nil {
		return 0, fmt.Errorf("failed to sync assignments: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// GetAssignment retrieves one user's assignment for a course.
func (db *DB) GetAssignment(ctx context.Context, userID, courseID string) (*Assignment, error) {
	var a Assignment
	err := db.pool.QueryRow(ctx,
		`SELECT assignment_id, user_id, course_id, status, due_date, urgency_level,
		        assigned_by, created_at, updated_at
		 FROM assignments WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	).Scan(&a.AssignmentID, &a.UserID, &a.CourseID, &a.Status, &a.DueDate,
		&a.UrgencyLevel, &a.AssignedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Entity: "assignment", Key: userID + "/" + courseID}
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &a, nil
}

// ListAssignments retrieves a user's assignments with course titles, most
// urgent first.
func (db *DB) ListAssignments(ctx context.Context, userID string) ([]Assignment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT a.assignment_id, a.user_id, a.course_id, c.title, a.status,
		        a.due_date, a.urgency_level, a.assigned_by, a.created_at, a.updated_at
		 FROM assignments a
		 JOIN courses c ON c.course_id = a.course_id
		 WHERE a.user_id = $1
		 ORDER BY a.due_date NULLS LAST, a.course_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.AssignmentID, &a.UserID, &a.CourseID, &a.CourseTitle, &a.Status,
			&a.DueDate, &a.UrgencyLevel, &a.AssignedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// restartsClock reports whether a status transition reopens a finished
// assignment. Only completed work moving back to assigned or in_progress
// starts a new compliance cycle.
func restartsClock(current, next string) bool {
	return current == StatusCompleted &&
		(next == StatusAssigned || next == StatusInProgress)
}

// restartDueDate computes the due date for a restarted assignment, today plus
// the rule's interval. A one-time course (frequency none) has no deadline and
// returns nil. An unknown or empty frequency falls back to the annual
// interval.
func restartDueDate(frequency string, today time.Time) *time.Time {
	switch frequency {
	case FrequencyNone:
		return nil
	case FrequencyEvery3Years:
		due := today.AddDate(0, 0, 1095)
		return &due
	default:
		due := today.AddDate(0, 0, 365)
		return &due
	}
}

// Reassign updates an assignment's status. Moving a completed assignment back
// to assigned or in_progress extends the due date to today plus the governing
// rule's interval (365 days when no rule is found, none for one-time courses);
// every other transition leaves the due date alone, so an overdue assignment
// stays overdue.
func (db *DB) Reassign(ctx context.Context, userID, courseID, newStatus string) (*Assignment, error) {
	current, err := db.GetAssignment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	if restartsClock(current.Status, newStatus) {
		freq, err := db.RuleFrequency(ctx, userID, courseID)
		if err != nil {
			return nil, err
		}
		due := restartDueDate(freq, time.Now())
		level := urgency.Normal
		if due == nil {
			level = urgency.None
		}

		_, err = db.pool.Exec(ctx,
			`UPDATE assignments
			 SET status = $3, due_date = $4, urgency_level = $5, updated_at = NOW()
			 WHERE user_id = $1 AND course_id = $2`,
			userID, courseID, newStatus, due, string(level))
		if err != nil {
			return nil, fmt.Errorf("failed to reassign: %w", err)
		}
	} else {
		_, err = db.pool.Exec(ctx,
			`UPDATE assignments SET status = $3, updated_at = NOW()
			 WHERE user_id = $1 AND course_id = $2`,
			userID, courseID, newStatus)
		if err != nil {
			return nil, fmt.Errorf("failed to update assignment status: %w", err)
		}
	}

	return db.GetAssignment(ctx, userID, courseID)
}

// ListOpenAssignments retrieves every assignment that is not completed, for
// urgency reconciliation.
func (db *DB) ListOpenAssignments(ctx context.Context) ([]Assignment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT assignment_id, user_id, course_id, status, due_date, urgency_level,
		        assigned_by, created_at, updated_at
		 FROM assignments WHERE status <> 'completed'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list open assignments: %w", err)
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.AssignmentID, &a.UserID, &a.CourseID, &a.Status, &a.DueDate,
			&a.UrgencyLevel, &a.AssignedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// UpdateAssignmentUrgency writes a recomputed urgency level.
func (db *DB) UpdateAssignmentUrgency(ctx context.Context, assignmentID int, level string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE assignments SET urgency_level = $2, updated_at = NOW()
		 WHERE assignment_id = $1`,
		assignmentID, level)
	if err != nil {
		return fmt.Errorf("failed to update urgency for assignment %d: %w", assignmentID, err)
	}
	return nil
}

// Recommend returns the courses a user's role requires that the user has not
// completed. Purely a read model; nothing is written.
func (db *DB) Recommend(ctx context.Context, userID string) ([]Recommendation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT rr.course_id, c.title, rr.frequency, rr.region
		 FROM rule_requirements rr
		 JOIN roles r ON r.role_id = rr.role_id
		 JOIN users u ON u.role = r.name
		 JOIN courses c ON c.course_id = rr.course_id
		 WHERE u.user_id = $1 AND rr.active
		   AND NOT EXISTS (
		       SELECT 1 FROM user_courses uc
		       WHERE uc.user_id = u.user_id AND uc.course_id = rr.course_id
		   )
		 ORDER BY rr.course_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build recommendations: %w", err)
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		var rec Recommendation
		if err := rows.Scan(&rec.CourseID, &rec.Title, &rec.Frequency, &rec.Region); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
