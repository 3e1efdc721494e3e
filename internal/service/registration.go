package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/communityos/ticketing/internal/model"
	"github.com/communityos/ticketing/internal/policy"
	"github.com/communityos/ticketing/internal/service/ports"
	"github.com/communityos/ticketing/internal/validate"
)

// RegistrationService turns validated registration requests into persisted
// registrations and triggers ticket issuance.
//
// Check order is fixed across all operations: validation, then
// authorization, then existence, then business rules. Error responses are
// therefore deterministic regardless of which invalid combination the
// caller supplies.
type RegistrationService struct {
	registrations ports.RegistrationRepo
	events        ports.EventRepo
	tickets       *TicketService
	policy        *policy.Policy
	log           *slog.Logger
	now           func() time.Time
}

// NewRegistrationService constructs a RegistrationService. A nil now
// falls back to time.Now.
func NewRegistrationService(
	registrations ports.RegistrationRepo,
	events ports.EventRepo,
	tickets *TicketService,
	pol *policy.Policy,
	log *slog.Logger,
	now func() time.Time,
) *RegistrationService {
	if now == nil {
		now = time.Now
	}
	return &RegistrationService{
		registrations: registrations,
		events:        events,
		tickets:       tickets,
		policy:        pol,
		log:           log,
		now:           now,
	}
}

// RegisterForEvent registers an authenticated identity for an event and
// issues a ticket. Registration success is the primary contract: a
// ticket-issuance failure is logged, not surfaced, and issuance is
// retried lazily because IssueTicket is idempotent.
func (s *RegistrationService) RegisterForEvent(ctx context.Context, caller *model.AppUser, eventID string, form model.RegistrationForm) (*model.Registration, error) {
	if err := validate.RegistrationForm(form); err != nil {
		return nil, err
	}
	if err := s.policy.RequireAuth(caller); err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := registrationOpen(event); err != nil {
		return nil, err
	}

	if existing, err := s.registrations.GetByUser(ctx, eventID, caller.ID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: already registered for this event", model.ErrDuplicate)
	} else if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("check existing registration: %w", err)
	}

	reg := &model.Registration{
		ID:            uuid.New().String(),
		EventID:       eventID,
		UserID:        caller.ID,
		AttendeeCount: form.AttendeeCount,
		Notes:         form.Notes,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.registrations.Create(ctx, reg); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			// The store constraint is the authoritative duplicate signal;
			// a concurrent attempt beat us past the pre-check.
			return nil, fmt.Errorf("%w: already registered for this event", model.ErrDuplicate)
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	s.log.Info("registration created",
		slog.String("registration_id", reg.ID),
		slog.String("event_id", eventID),
		slog.String("user_id", caller.ID),
	)

	if _, err := s.tickets.IssueTicket(ctx, reg); err != nil {
		s.log.Error("ticket issuance failed after registration",
			slog.String("registration_id", reg.ID),
			slog.String("event_id", eventID),
			slog.String("error", err.Error()),
		)
	}
	return reg, nil
}

// RegisterGuest registers an unauthenticated identity keyed by email.
// Unlike the member path, ticket issuance is part of the contract: there
// is no account to retry from later, so an issuance failure fails the
// call.
func (s *RegistrationService) RegisterGuest(ctx context.Context, eventID string, form model.RegistrationForm) (*model.Registration, *model.Ticket, error) {
	if err := validate.GuestForm(form); err != nil {
		return nil, nil, err
	}
	email := validate.NormalizeEmail(form.GuestEmail)

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if err := registrationOpen(event); err != nil {
		return nil, nil, err
	}

	if existing, err := s.registrations.GetByGuestEmail(ctx, eventID, email); err == nil && existing != nil {
		return nil, nil, fmt.Errorf("%w: email already registered for this event", model.ErrDuplicate)
	} else if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, nil, fmt.Errorf("check existing registration: %w", err)
	}

	reg := &model.Registration{
		ID:            uuid.New().String(),
		EventID:       eventID,
		GuestEmail:    email,
		AttendeeCount: form.AttendeeCount,
		Notes:         form.Notes,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.registrations.Create(ctx, reg); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, nil, fmt.Errorf("%w: email already registered for this event", model.ErrDuplicate)
		}
		return nil, nil, fmt.Errorf("insert registration: %w", err)
	}

	ticket, err := s.tickets.IssueTicket(ctx, reg)
	if err != nil {
		return nil, nil, fmt.Errorf("issue guest ticket: %w", err)
	}

	s.log.Info("guest registration created",
		slog.String("registration_id", reg.ID),
		slog.String("event_id", eventID),
		slog.String("ticket_id", ticket.ID),
	)
	return reg, ticket, nil
}

// CancelRegistration deletes a registration. The caller must be the
// registrant or an admin, and archived events are immutable. Any
// already-issued ticket is retained for record-keeping.
func (s *RegistrationService) CancelRegistration(ctx context.Context, caller *model.AppUser, eventID, registrantID string) error {
	if err := s.policy.RequireAuth(caller); err != nil {
		return err
	}
	if registrantID == "" {
		registrantID = caller.ID
	}
	if registrantID != caller.ID {
		if err := s.policy.RequireAdmin(caller); err != nil {
			return err
		}
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status == model.EventArchive {
		return fmt.Errorf("%w: event is archived, registrations are immutable", model.ErrPrecondition)
	}

	reg, err := s.registrations.GetByUser(ctx, eventID, registrantID)
	if err != nil {
		return err
	}
	if err := s.registrations.Delete(ctx, reg.ID); err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}

	s.log.Info("registration cancelled",
		slog.String("registration_id", reg.ID),
		slog.String("event_id", eventID),
		slog.String("cancelled_by", caller.ID),
	)
	return nil
}

// UpdateRegistration rewrites the descriptive fields of a registration.
// Admin only; identity fields never change.
func (s *RegistrationService) UpdateRegistration(ctx context.Context, caller *model.AppUser, registrationID string, form model.RegistrationForm) (*model.Registration, error) {
	if err := validate.RegistrationForm(form); err != nil {
		return nil, err
	}
	if err := s.policy.RequireAdmin(caller); err != nil {
		return nil, err
	}

	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	reg.AttendeeCount = form.AttendeeCount
	reg.Notes = form.Notes
	if err := s.registrations.Update(ctx, reg); err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	return reg, nil
}

// registrationOpen maps event status to the registration gate.
// Registration is only accepted while the event is ongoing.
func registrationOpen(event *model.Event) error {
	switch event.Status {
	case model.EventOngoing:
		return nil
	case model.EventUpcoming:
		return fmt.Errorf("%w: registration is not open yet", model.ErrPrecondition)
	default:
		return fmt.Errorf("%w: registration is no longer accepted", model.ErrPrecondition)
	}
}
