package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communityos/ticketing/internal/model"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, name, description, capacity, price_cents, status, starts_at, created_at`

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, name, description, capacity, price_cents, status, starts_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Name, e.Description, e.Capacity, e.PriceCents, e.Status, e.StartsAt, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns a single event or model.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

// List returns all events ordered by start time ascending.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY starts_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// UpdateStatus sets the lifecycle status and returns the updated event.
func (r *EventRepository) UpdateStatus(ctx context.Context, id string, status model.EventStatus) (*model.Event, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE events SET status = $2 WHERE id = $1 RETURNING `+eventColumns,
		id, status)
	return scanEvent(row)
}

// Delete removes an event; registrations and tickets cascade via FKs.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Capacity, &e.PriceCents, &e.Status, &e.StartsAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return &e, nil
}
