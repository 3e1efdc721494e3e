package model

import "time"

// PaymentStatus tracks the payment leg of a ticket. Empty means no payment
// action has happened yet.
type PaymentStatus string

const (
	PaymentNone PaymentStatus = ""
	PaymentSent PaymentStatus = "payment_sent"
	PaymentPaid PaymentStatus = "paid"
)

// BoardingStatus tracks whether the attendee physically boarded.
type BoardingStatus string

const (
	BoardingNone    BoardingStatus = ""
	BoardingBoarded BoardingStatus = "boarded"
)

// Stage is the derived lifecycle stage of a ticket. It is never stored;
// it is always computed from the ticket's fields.
type Stage string

const (
	StageNew         Stage = "new"
	StageAssigned    Stage = "assigned"
	StagePaymentSent Stage = "payment_sent"
	StagePaid        Stage = "paid"
	StageBoarded     Stage = "boarded"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageNew, StageAssigned, StagePaymentSent, StagePaid, StageBoarded:
		return true
	}
	return false
}

// Ticket is issued once per (identity, event) upon successful registration.
// Exactly one of UserID and GuestEmail is set, mirroring the registration.
//
// Version supports conditional transition writes: every update increments
// it, and writes are rejected when the stored version no longer matches
// the one the caller read.
type Ticket struct {
	ID         string `json:"id"`
	EventID    string `json:"event_id"`
	UserID     string `json:"user_id,omitempty"`
	GuestEmail string `json:"guest_email,omitempty"`

	AssignedToID string     `json:"assigned_to_id,omitempty"`
	AssignedAt   *time.Time `json:"assigned_at,omitempty"`

	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	PaymentSentAt *time.Time    `json:"payment_sent_at,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`

	BoardingStatus BoardingStatus `json:"boarding_status,omitempty"`
	BoardedAt      *time.Time     `json:"boarded_at,omitempty"`
	BoardedByID    string         `json:"boarded_by_id,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// Stage derives the lifecycle stage from the ticket's fields. Checks run
// from the most advanced stage backwards so partial field combinations
// still derive deterministically.
func (t *Ticket) Stage() Stage {
	switch {
	case t.BoardingStatus == BoardingBoarded:
		return StageBoarded
	case t.PaymentStatus == PaymentPaid:
		return StagePaid
	case t.PaymentStatus == PaymentSent:
		return StagePaymentSent
	case t.AssignedToID != "":
		return StageAssigned
	default:
		return StageNew
	}
}
