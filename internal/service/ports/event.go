package ports

import (
	"context"

	"github.com/communityos/ticketing/internal/model"
)

type EventRepo interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	UpdateStatus(ctx context.Context, id string, status model.EventStatus) (*model.Event, error)
	// Delete cascades to the event's registrations and tickets.
	Delete(ctx context.Context, id string) error
}
