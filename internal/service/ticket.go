// Package service implements the registration and ticket lifecycle
// engines that sit between the access-control policy and the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/communityos/ticketing/internal/message"
	"github.com/communityos/ticketing/internal/model"
	"github.com/communityos/ticketing/internal/policy"
	"github.com/communityos/ticketing/internal/service/ports"
)

// paymentDeadline is how long an attendee has to pay after the payment
// request is sent.
const paymentDeadline = 72 * time.Hour

// TicketService drives the ticket lifecycle: issuance, staff assignment,
// payment confirmation, and boarding. Stage is always derived from the
// ticket's fields, never stored.
type TicketService struct {
	tickets  ports.TicketRepo
	events   ports.EventRepo
	policy   *policy.Policy
	renderer *message.Renderer
	log      *slog.Logger
	now      func() time.Time
}

// NewTicketService constructs a TicketService. A nil now falls back to
// time.Now.
func NewTicketService(
	tickets ports.TicketRepo,
	events ports.EventRepo,
	pol *policy.Policy,
	renderer *message.Renderer,
	log *slog.Logger,
	now func() time.Time,
) *TicketService {
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:  tickets,
		events:   events,
		policy:   pol,
		renderer: renderer,
		log:      log,
		now:      now,
	}
}

// IssueTicket creates the ticket for a registration. Idempotent: when a
// ticket already exists for the same identity and event, the existing
// ticket is returned unchanged rather than duplicated.
func (s *TicketService) IssueTicket(ctx context.Context, reg *model.Registration) (*model.Ticket, error) {
	t := &model.Ticket{
		ID:         uuid.New().String(),
		EventID:    reg.EventID,
		UserID:     reg.UserID,
		GuestEmail: reg.GuestEmail,
		CreatedAt:  s.now().UTC(),
	}

	err := s.tickets.Create(ctx, t)
	if err == nil {
		s.log.Info("ticket issued",
			slog.String("ticket_id", t.ID),
			slog.String("event_id", t.EventID),
		)
		return t, nil
	}
	if !errors.Is(err, model.ErrDuplicate) {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}

	// Lost the race or already issued earlier; return the existing row.
	if reg.UserID != "" {
		return s.tickets.GetByUser(ctx, reg.EventID, reg.UserID)
	}
	return s.tickets.GetByGuestEmail(ctx, reg.EventID, reg.GuestEmail)
}

// Assign sets the staff member responsible for the ticket. Legal from any
// stage except boarded; re-assignment never rolls back payment or
// boarding progress.
func (s *TicketService) Assign(ctx context.Context, actor *model.AppUser, ticketID, assigneeID string) (*model.Ticket, error) {
	if assigneeID == "" {
		return nil, fmt.Errorf("%w: field \"assignee_id\" is required", model.ErrValidation)
	}
	if err := s.policy.RequireOrganizerOrAbove(actor); err != nil {
		return nil, err
	}

	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Stage() == model.StageBoarded {
		return nil, fmt.Errorf("%w: cannot reassign a boarded ticket", model.ErrInvalidTransition)
	}

	prev := t.Version
	now := s.now().UTC()
	t.AssignedToID = assigneeID
	t.AssignedAt = &now
	if err := s.tickets.UpdateConditional(ctx, t, prev); err != nil {
		return nil, err
	}
	return t, nil
}

// MarkPaymentSent records that the payment request went out and returns
// the rendered payment message. Legal only when the ticket is assigned
// and no payment action has happened yet.
func (s *TicketService) MarkPaymentSent(ctx context.Context, actor *model.AppUser, ticketID string) (*model.Ticket, message.Message, error) {
	if err := s.policy.RequireOrganizerOrAbove(actor); err != nil {
		return nil, message.Message{}, err
	}

	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, message.Message{}, err
	}
	if t.AssignedToID == "" {
		return nil, message.Message{}, fmt.Errorf("%w: ticket is not assigned yet", model.ErrPrecondition)
	}
	if t.PaymentStatus != model.PaymentNone {
		return nil, message.Message{}, fmt.Errorf("%w: payment already %s", model.ErrPrecondition, t.PaymentStatus)
	}

	prev := t.Version
	now := s.now().UTC()
	t.PaymentStatus = model.PaymentSent
	t.PaymentSentAt = &now
	if err := s.tickets.UpdateConditional(ctx, t, prev); err != nil {
		return nil, message.Message{}, err
	}

	msg, err := s.renderPayment(ctx, t, now)
	if err != nil {
		// The transition is committed; a rendering failure must not undo it.
		s.log.Error("render payment message",
			slog.String("ticket_id", t.ID),
			slog.String("error", err.Error()),
		)
		return t, message.Message{}, nil
	}
	return t, msg, nil
}

// MarkPaid confirms payment. Legal only when the payment request has been
// sent and not yet confirmed.
func (s *TicketService) MarkPaid(ctx context.Context, actor *model.AppUser, ticketID string) (*model.Ticket, error) {
	if err := s.policy.RequireOrganizerOrAbove(actor); err != nil {
		return nil, err
	}

	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	switch t.PaymentStatus {
	case model.PaymentNone:
		return nil, fmt.Errorf("%w: payment has not been sent yet", model.ErrPrecondition)
	case model.PaymentPaid:
		return nil, fmt.Errorf("%w: ticket is already paid", model.ErrPrecondition)
	}

	prev := t.Version
	now := s.now().UTC()
	t.PaymentStatus = model.PaymentPaid
	t.PaidAt = &now
	if err := s.tickets.UpdateConditional(ctx, t, prev); err != nil {
		return nil, err
	}
	return t, nil
}

// MarkBoarded records entrance boarding. Legal only when the ticket is
// paid and not yet boarded. The boarder is an audit field, distinct from
// the assignee.
func (s *TicketService) MarkBoarded(ctx context.Context, actor *model.AppUser, ticketID, boarderID string) (*model.Ticket, error) {
	if boarderID == "" {
		return nil, fmt.Errorf("%w: field \"boarder_id\" is required", model.ErrValidation)
	}
	if err := s.policy.RequireOrganizerOrAbove(actor); err != nil {
		return nil, err
	}

	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.BoardingStatus == model.BoardingBoarded {
		return nil, fmt.Errorf("%w: ticket is already boarded", model.ErrPrecondition)
	}
	if t.PaymentStatus != model.PaymentPaid {
		return nil, fmt.Errorf("%w: ticket is not paid yet", model.ErrPrecondition)
	}

	prev := t.Version
	now := s.now().UTC()
	t.BoardingStatus = model.BoardingBoarded
	t.BoardedAt = &now
	t.BoardedByID = boarderID
	if err := s.tickets.UpdateConditional(ctx, t, prev); err != nil {
		return nil, err
	}
	return t, nil
}

// SetStage is the admin-only override that forces a ticket to an exact
// stage, bypassing the transition guards. It computes the complete field
// set for the target: downstream fields are reset, missing upstream
// fields are stamped, so the derived stage always equals the target.
func (s *TicketService) SetStage(ctx context.Context, actor *model.AppUser, ticketID string, target model.Stage) (*model.Ticket, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: field \"stage\": unknown stage %q", model.ErrValidation, target)
	}
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if target != model.StageNew && t.AssignedToID == "" {
		return nil, fmt.Errorf("%w: ticket has no assignee on record", model.ErrPrecondition)
	}

	prev := t.Version
	now := s.now().UTC()
	switch target {
	case model.StageNew:
		t.AssignedToID = ""
		t.AssignedAt = nil
		clearPayment(t)
		clearBoarding(t)
	case model.StageAssigned:
		clearPayment(t)
		clearBoarding(t)
	case model.StagePaymentSent:
		t.PaymentStatus = model.PaymentSent
		if t.PaymentSentAt == nil {
			t.PaymentSentAt = &now
		}
		t.PaidAt = nil
		clearBoarding(t)
	case model.StagePaid:
		t.PaymentStatus = model.PaymentPaid
		if t.PaymentSentAt == nil {
			t.PaymentSentAt = &now
		}
		if t.PaidAt == nil {
			t.PaidAt = &now
		}
		clearBoarding(t)
	case model.StageBoarded:
		t.PaymentStatus = model.PaymentPaid
		if t.PaymentSentAt == nil {
			t.PaymentSentAt = &now
		}
		if t.PaidAt == nil {
			t.PaidAt = &now
		}
		t.BoardingStatus = model.BoardingBoarded
		if t.BoardedAt == nil {
			t.BoardedAt = &now
		}
		if t.BoardedByID == "" {
			t.BoardedByID = actor.ID
		}
	}

	if err := s.tickets.UpdateConditional(ctx, t, prev); err != nil {
		return nil, err
	}
	s.log.Info("ticket stage overridden",
		slog.String("ticket_id", t.ID),
		slog.String("stage", string(target)),
		slog.String("admin_id", actor.ID),
	)
	return t, nil
}

// GetTicket returns the ticket for staff inspection.
func (s *TicketService) GetTicket(ctx context.Context, actor *model.AppUser, ticketID string) (*model.Ticket, error) {
	if err := s.policy.RequireOrganizerOrAbove(actor); err != nil {
		return nil, err
	}
	return s.tickets.GetByID(ctx, ticketID)
}

// ListByEvent returns all tickets for an event, for staff.
func (s *TicketService) ListByEvent(ctx context.Context, actor *model.AppUser, eventID string) ([]model.Ticket, error) {
	if err := s.policy.RequireOrganizerOrAbove(actor); err != nil {
		return nil, err
	}
	return s.tickets.ListByEvent(ctx, eventID)
}

func (s *TicketService) renderPayment(ctx context.Context, t *model.Ticket, sentAt time.Time) (message.Message, error) {
	event, err := s.events.GetByID(ctx, t.EventID)
	if err != nil {
		return message.Message{}, fmt.Errorf("load event for payment message: %w", err)
	}
	data := map[string]string{
		"EventName": event.Name,
		"Amount":    fmt.Sprintf("%.2f", float64(event.PriceCents)/100),
		"Reference": t.ID,
		"Deadline":  sentAt.Add(paymentDeadline).Format("2006-01-02 15:04 MST"),
	}
	return s.renderer.Render(message.KeyPaymentRequest, message.ChannelEmail, data)
}

func clearPayment(t *model.Ticket) {
	t.PaymentStatus = model.PaymentNone
	t.PaymentSentAt = nil
	t.PaidAt = nil
}

func clearBoarding(t *model.Ticket) {
	t.BoardingStatus = model.BoardingNone
	t.BoardedAt = nil
	t.BoardedByID = ""
}
