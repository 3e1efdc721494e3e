package model

import "time"

// Registration represents one identity's intent to attend one event.
// Identity fields (UserID/GuestEmail, EventID) are immutable after
// creation; descriptive fields are editable by admin.
//
// Exactly one of UserID and GuestEmail is set: UserID for authenticated
// registrants, GuestEmail for the guest path. Uniqueness on
// (user_id, event_id) and (guest_email, event_id) is enforced by the store.
type Registration struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id,omitempty"`
	GuestEmail    string    `json:"guest_email,omitempty"`
	AttendeeCount int       `json:"attendee_count"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// RegistrationForm is the caller-supplied payload for a registration.
type RegistrationForm struct {
	GuestEmail    string `json:"guest_email,omitempty"`
	AttendeeCount int    `json:"attendee_count"`
	Notes         string `json:"notes,omitempty"`
}
