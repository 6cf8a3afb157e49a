package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ListRoles retrieves all known roles ordered by name.
func (db *DB) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT role_id, name, description, risk_level FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.RoleID, &r.Name, &r.Description, &r.RiskLevel); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// GetRoleByName retrieves a role by its unique name.
// Returns a NotFoundError when absent; roles are never auto-created.
func (db *DB) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	var r Role
	err := db.pool.QueryRow(ctx,
		`SELECT role_id, name, description, risk_level FROM roles WHERE name = $1`,
		name,
	).Scan(&r.RoleID, &r.Name, &r.Description, &r.RiskLevel)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{Entity: "role", Key: name}
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &r, nil
}
