package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communityos/ticketing/internal/model"
)

// TicketRepository handles persistence for tickets.
type TicketRepository struct {
	db *pgxpool.Pool
}

// NewTicketRepository constructs a TicketRepository.
func NewTicketRepository(db *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, event_id, user_id, guest_email,
	assigned_to_id, assigned_at,
	payment_status, payment_sent_at, paid_at,
	boarding_status, boarded_at, boarded_by_id,
	version, created_at`

// Create inserts a ticket. The partial unique indexes on
// (user_id, event_id) and (guest_email, event_id) return
// model.ErrDuplicate when a ticket already exists, which the engine uses
// for idempotent issuance.
func (r *TicketRepository) Create(ctx context.Context, t *model.Ticket) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tickets (id, event_id, user_id, guest_email,
			assigned_to_id, assigned_at,
			payment_status, payment_sent_at, paid_at,
			boarding_status, boarded_at, boarded_by_id,
			version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.EventID, t.UserID, t.GuestEmail,
		t.AssignedToID, t.AssignedAt,
		t.PaymentStatus, t.PaymentSentAt, t.PaidAt,
		t.BoardingStatus, t.BoardedAt, t.BoardedByID,
		t.Version, t.CreatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return model.ErrDuplicate
		}
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// GetByID returns a ticket or model.ErrNotFound.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	return scanTicket(row)
}

// GetByUser returns the ticket for (event, user) or model.ErrNotFound.
func (r *TicketRepository) GetByUser(ctx context.Context, eventID, userID string) (*model.Ticket, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE event_id = $1 AND user_id = $2`,
		eventID, userID)
	return scanTicket(row)
}

// GetByGuestEmail returns the guest ticket for (event, email) or
// model.ErrNotFound.
func (r *TicketRepository) GetByGuestEmail(ctx context.Context, eventID, email string) (*model.Ticket, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE event_id = $1 AND guest_email = $2`,
		eventID, email)
	return scanTicket(row)
}

// ListByEvent returns all tickets for an event, oldest first.
func (r *TicketRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Ticket, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE event_id = $1 ORDER BY created_at ASC`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

// UpdateConditional writes the ticket's lifecycle fields only when the
// stored version still equals expectedVersion, turning check-then-write
// transitions into a compare-and-swap. A version mismatch is reported as
// model.ErrInvalidTransition (concurrent modification); the caller's read
// is stale and must not silently overwrite.
func (r *TicketRepository) UpdateConditional(ctx context.Context, t *model.Ticket, expectedVersion int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tickets SET
			assigned_to_id = $2, assigned_at = $3,
			payment_status = $4, payment_sent_at = $5, paid_at = $6,
			boarding_status = $7, boarded_at = $8, boarded_by_id = $9,
			version = version + 1
		 WHERE id = $1 AND version = $10`,
		t.ID,
		t.AssignedToID, t.AssignedAt,
		t.PaymentStatus, t.PaymentSentAt, t.PaidAt,
		t.BoardingStatus, t.BoardedAt, t.BoardedByID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM tickets WHERE id = $1)`, t.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check ticket existence: %w", err)
		}
		if !exists {
			return model.ErrNotFound
		}
		return fmt.Errorf("%w: ticket modified concurrently", model.ErrInvalidTransition)
	}
	t.Version = expectedVersion + 1
	return nil
}

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(
		&t.ID, &t.EventID, &t.UserID, &t.GuestEmail,
		&t.AssignedToID, &t.AssignedAt,
		&t.PaymentStatus, &t.PaymentSentAt, &t.PaidAt,
		&t.BoardingStatus, &t.BoardedAt, &t.BoardedByID,
		&t.Version, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("scan ticket: %w", err)
	}
	return &t, nil
}
