// Package ports declares the persistence interfaces the services consume.
// The pgx repositories implement them in production; tests substitute
// in-memory fakes.
package ports

import (
	"context"

	"github.com/communityos/ticketing/internal/model"
)

type UserRepo interface {
	GetByID(ctx context.Context, id string) (*model.AppUser, error)
	GetByEmail(ctx context.Context, email string) (*model.AppUser, error)
	// Create returns model.ErrDuplicate when the email is already taken.
	Create(ctx context.Context, u *model.AppUser) error
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.AppUser, error)
	// Delete cascades to the user's registrations and tickets.
	Delete(ctx context.Context, id string) error
}
