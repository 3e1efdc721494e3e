package model

import "time"

// EventStatus gates whether an event accepts registrations.
type EventStatus string

const (
	// EventUpcoming means registration has not opened yet.
	EventUpcoming EventStatus = "upcoming"
	// EventOngoing means registration is open.
	EventOngoing EventStatus = "ongoing"
	// EventTicketClosed means registration is no longer accepted.
	EventTicketClosed EventStatus = "ticket_closed"
	// EventArchive means the event is historical and immutable.
	EventArchive EventStatus = "archive"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventUpcoming, EventOngoing, EventTicketClosed, EventArchive:
		return true
	}
	return false
}

// Event represents a community event users can register for.
type Event struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Capacity    int         `json:"capacity"`
	PriceCents  int64       `json:"price_cents"`
	Status      EventStatus `json:"status"`
	StartsAt    time.Time   `json:"starts_at"`
	CreatedAt   time.Time   `json:"created_at"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Capacity    int       `json:"capacity"`
	PriceCents  int64     `json:"price_cents"`
	StartsAt    time.Time `json:"starts_at"`
}
