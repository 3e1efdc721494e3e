package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/communityos/ticketing/internal/model"
	"github.com/communityos/ticketing/internal/policy"
	"github.com/communityos/ticketing/internal/service/ports"
	"github.com/communityos/ticketing/internal/validate"
)

// EventService handles event CRUD, gated through the policy layer.
type EventService struct {
	events        ports.EventRepo
	registrations ports.RegistrationRepo
	policy        *policy.Policy
	log           *slog.Logger
	now           func() time.Time
}

// NewEventService constructs an EventService.
func NewEventService(
	events ports.EventRepo,
	registrations ports.RegistrationRepo,
	pol *policy.Policy,
	log *slog.Logger,
	now func() time.Time,
) *EventService {
	if now == nil {
		now = time.Now
	}
	return &EventService{events: events, registrations: registrations, policy: pol, log: log, now: now}
}

// CreateEvent creates a new event in upcoming status. Admin only.
func (s *EventService) CreateEvent(ctx context.Context, caller *model.AppUser, req model.CreateEventRequest) (*model.Event, error) {
	if err := validate.EventInput(req); err != nil {
		return nil, err
	}
	if !policy.CanCreateEvent(caller) {
		if caller == nil {
			return nil, model.ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: admin role required to create events", model.ErrForbidden)
	}

	event := &model.Event{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		PriceCents:  req.PriceCents,
		Status:      model.EventUpcoming,
		StartsAt:    req.StartsAt,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	s.log.Info("event created",
		slog.String("event_id", event.ID),
		slog.String("name", event.Name),
	)
	return event, nil
}

// ListEvents returns all events visible to the caller. Archived events
// are hidden from non-staff rather than denied.
func (s *EventService) ListEvents(ctx context.Context, caller *model.AppUser) ([]model.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	visible := events[:0]
	for _, e := range events {
		e := e
		if policy.CanViewEvent(caller, &e) {
			visible = append(visible, e)
		}
	}
	return visible, nil
}

// GetEvent returns a single event. Events the caller may not view are
// reported as not found rather than forbidden.
func (s *EventService) GetEvent(ctx context.Context, caller *model.AppUser, id string) (*model.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: field \"id\" is required", model.ErrValidation)
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewEvent(caller, event) {
		return nil, model.ErrNotFound
	}
	return event, nil
}

// UpdateEventStatus moves an event through its lifecycle. Admin only.
func (s *EventService) UpdateEventStatus(ctx context.Context, caller *model.AppUser, id string, status model.EventStatus) (*model.Event, error) {
	if err := validate.EventStatus(status); err != nil {
		return nil, err
	}
	if err := s.policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	event, err := s.events.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.log.Info("event status updated",
		slog.String("event_id", id),
		slog.String("status", string(status)),
	)
	return event, nil
}

// DeleteEvent removes an event and, through the store cascade, its
// registrations and tickets. Admin only.
func (s *EventService) DeleteEvent(ctx context.Context, caller *model.AppUser, id string) error {
	if err := s.policy.RequireAdmin(caller); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("event deleted", slog.String("event_id", id))
	return nil
}

// ListRegistrations returns all registrations for an event. Staff tier.
func (s *EventService) ListRegistrations(ctx context.Context, caller *model.AppUser, eventID string) ([]model.Registration, error) {
	if err := s.policy.RequireOrganizerOrAbove(caller); err != nil {
		return nil, err
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.registrations.ListByEvent(ctx, eventID)
}

// ExportAttendees returns the attendee list for callers holding the
// export permission grant. This is the fine-grained layer at work: the
// capability is configured per role at runtime, not compiled in.
func (s *EventService) ExportAttendees(ctx context.Context, caller *model.AppUser, eventID string) ([]model.Registration, error) {
	if err := s.policy.RequireAuth(caller); err != nil {
		return nil, err
	}
	ok, err := s.policy.HasPermission(ctx, caller, policy.PermExportAttendees)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: missing permission %q", model.ErrForbidden, policy.PermExportAttendees)
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.registrations.ListByEvent(ctx, eventID)
}
