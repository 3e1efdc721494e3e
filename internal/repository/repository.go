// Package repository implements the store ports on PostgreSQL using pgx
// directly (no ORM). Uniqueness violations surface as model.ErrDuplicate
// so the engines can treat them as the authoritative conflict signal.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint hit.
const uniqueViolation = "23505"

// isDuplicate reports whether err is a unique-constraint violation.
func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
