package db

import (
	"context"
	"fmt"
)

// PromoteRules inserts compliance rules for every (role, course) pair.
// Existing rules are left untouched via ON CONFLICT DO NOTHING, so promotion
// is idempotent and safe to repeat.
//
// A global rule stores region as '' rather than NULL: the unique index on
// (role_id, course_id, region) treats NULLs as distinct, so a NULL region
// would slip past the conflict arbiter and duplicate on every re-run.
func (db *DB) PromoteRules(ctx context.Context, roleIDs []int, courseIDs []string, frequency, region string) (PromotionCounts, error) {
	var counts PromotionCounts

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to begin promotion: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, roleID := range roleIDs {
		for _, courseID := range courseIDs {
			tag, err := tx.Exec(ctx,
				`INSERT INTO rule_requirements (role_id, course_id, frequency, region, active)
				 VALUES ($1, $2, $3, $4, true)
				 ON CONFLICT (role_id, course_id, region) DO NOTHING`,
				roleID, courseID, frequency, region)
			if err != nil {
				return counts, fmt.Errorf("failed to promote rule (%d, %s): %w", roleID, courseID, err)
			}
			if tag.RowsAffected() > 0 {
				counts.Inserted++
			} else {
				counts.Skipped++
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return counts, fmt.Errorf("failed to commit promotion: %w", err)
	}
	return counts, nil
}

// RuleFrequency looks up the frequency of the active rule governing a user's
// course obligation via the user's role. Returns "" when no rule applies.
func (db *DB) RuleFrequency(ctx context.Context, userID, courseID string) (string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT rr.frequency
		 FROM rule_requirements rr
		 JOIN roles r ON r.role_id = rr.role_id
		 JOIN users u ON u.role = r.name
		 WHERE u.user_id = $1 AND rr.course_id = $2 AND rr.active
		 ORDER BY rr.id
		 LIMIT 1`,
		userID, courseID)
	if err != nil {
		return "", fmt.Errorf("failed to look up rule frequency: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		var freq string
		if err := rows.Scan(&freq); err != nil {
			return "", fmt.Errorf("failed to scan frequency: %w", err)
		}
		return freq, nil
	}
	return "", rows.Err()
}
