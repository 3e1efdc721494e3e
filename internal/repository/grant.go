package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communityos/ticketing/internal/model"
)

// GrantRepository handles persistence for the (role, permission) grant
// table. It implements policy.GrantStore.
type GrantRepository struct {
	db *pgxpool.Pool
}

// NewGrantRepository constructs a GrantRepository.
func NewGrantRepository(db *pgxpool.Pool) *GrantRepository {
	return &GrantRepository{db: db}
}

// ListGrants returns every grant row.
func (r *GrantRepository) ListGrants(ctx context.Context) ([]model.PermissionGrant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT role, permission_id FROM role_permissions`)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	var grants []model.PermissionGrant
	for rows.Next() {
		var g model.PermissionGrant
		if err := rows.Scan(&g.Role, &g.PermissionID); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// Insert records a grant. Re-granting an existing pair is a no-op.
func (r *GrantRepository) Insert(ctx context.Context, g model.PermissionGrant) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO role_permissions (role, permission_id)
		 VALUES ($1, $2)
		 ON CONFLICT (role, permission_id) DO NOTHING`,
		g.Role, g.PermissionID)
	if err != nil {
		return fmt.Errorf("insert grant: %w", err)
	}
	return nil
}

// Delete removes a grant. Revoking a missing pair is a no-op.
func (r *GrantRepository) Delete(ctx context.Context, g model.PermissionGrant) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM role_permissions WHERE role = $1 AND permission_id = $2`,
		g.Role, g.PermissionID)
	if err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	return nil
}
