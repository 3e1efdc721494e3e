package ports

import (
	"context"

	"github.com/communityos/ticketing/internal/model"
)

type TicketRepo interface {
	// Create returns model.ErrDuplicate when a ticket already exists for
	// the (user, event) or (guest email, event) pair.
	Create(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	GetByUser(ctx context.Context, eventID, userID string) (*model.Ticket, error)
	GetByGuestEmail(ctx context.Context, eventID, email string) (*model.Ticket, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Ticket, error)
	// UpdateConditional writes t only when the stored version equals
	// expectedVersion, incrementing t.Version on success. A mismatch
	// returns model.ErrInvalidTransition (concurrent modification).
	UpdateConditional(ctx context.Context, t *model.Ticket, expectedVersion int64) error
}
