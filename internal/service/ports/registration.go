package ports

import (
	"context"

	"github.com/communityos/ticketing/internal/model"
)

type RegistrationRepo interface {
	// Create returns model.ErrDuplicate when the (user, event) or
	// (guest email, event) pair is already registered. That store-level
	// conflict is the authoritative duplicate signal under concurrency.
	Create(ctx context.Context, r *model.Registration) error
	GetByID(ctx context.Context, id string) (*model.Registration, error)
	GetByUser(ctx context.Context, eventID, userID string) (*model.Registration, error)
	GetByGuestEmail(ctx context.Context, eventID, email string) (*model.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	// Update rewrites descriptive fields only; identity fields are
	// immutable after creation.
	Update(ctx context.Context, r *model.Registration) error
	Delete(ctx context.Context, id string) error
}
