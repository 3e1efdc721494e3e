package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communityos/ticketing/internal/model"
)

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `id, event_id, user_id, guest_email, attendee_count, notes, created_at`

// Create inserts a registration. The partial unique indexes on
// (user_id, event_id) and (guest_email, event_id) make the insert the
// authoritative dedup point; violations return model.ErrDuplicate.
func (r *RegistrationRepository) Create(ctx context.Context, reg *model.Registration) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO registrations (id, event_id, user_id, guest_email, attendee_count, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		reg.ID, reg.EventID, reg.UserID, reg.GuestEmail, reg.AttendeeCount, reg.Notes, reg.CreatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return model.ErrDuplicate
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// GetByID returns a registration or model.ErrNotFound.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id)
	return scanRegistration(row)
}

// GetByUser returns the registration for (event, user) or model.ErrNotFound.
func (r *RegistrationRepository) GetByUser(ctx context.Context, eventID, userID string) (*model.Registration, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID)
	return scanRegistration(row)
}

// GetByGuestEmail returns the guest registration for (event, email) or
// model.ErrNotFound.
func (r *RegistrationRepository) GetByGuestEmail(ctx context.Context, eventID, email string) (*model.Registration, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 AND guest_email = $2`,
		eventID, email)
	return scanRegistration(row)
}

// ListByEvent returns all registrations for an event, oldest first.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 ORDER BY created_at ASC`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// Update rewrites the descriptive fields only.
func (r *RegistrationRepository) Update(ctx context.Context, reg *model.Registration) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE registrations SET attendee_count = $2, notes = $3 WHERE id = $1`,
		reg.ID, reg.AttendeeCount, reg.Notes)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes a registration. The ticket, if any, is untouched.
func (r *RegistrationRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.GuestEmail, &reg.AttendeeCount, &reg.Notes, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	return &reg, nil
}
