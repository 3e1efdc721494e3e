package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communityos/ticketing/internal/model"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, display_name, role, created_at`

// Create inserts a new user; a taken email returns model.ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *model.AppUser) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, email, display_name, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.DisplayName, u.Role, u.CreatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return model.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID returns a user or model.ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.AppUser, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns a user or model.ErrNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.AppUser, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// UpdateRole sets the role and returns the updated user.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role model.Role) (*model.AppUser, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE users SET role = $2 WHERE id = $1 RETURNING `+userColumns,
		id, role)
	return scanUser(row)
}

// Delete removes a user; registrations and tickets cascade via FKs.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*model.AppUser, error) {
	var u model.AppUser
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
