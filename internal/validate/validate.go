// Package validate checks event and registration payloads before any
// authorization or store access. Every failure wraps model.ErrValidation
// and names the offending field.
package validate

import (
	"fmt"
	"strings"

	"github.com/communityos/ticketing/internal/model"
)

const (
	maxEventCapacity = 100_000
	maxAttendeeCount = 10
	maxNotesLength   = 1000
)

// EventInput validates a create-event payload.
func EventInput(req model.CreateEventRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: field \"name\" is required", model.ErrValidation)
	}
	if req.Capacity <= 0 {
		return fmt.Errorf("%w: field \"capacity\" must be a positive integer", model.ErrValidation)
	}
	if req.Capacity > maxEventCapacity {
		return fmt.Errorf("%w: field \"capacity\" cannot exceed %d", model.ErrValidation, maxEventCapacity)
	}
	if req.StartsAt.IsZero() {
		return fmt.Errorf("%w: field \"starts_at\" is required", model.ErrValidation)
	}
	return nil
}

// EventStatus validates a status value supplied by an admin.
func EventStatus(status model.EventStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: field \"status\": unknown status %q", model.ErrValidation, status)
	}
	return nil
}

// RegistrationForm validates the descriptive fields of a registration.
func RegistrationForm(form model.RegistrationForm) error {
	if form.AttendeeCount <= 0 {
		return fmt.Errorf("%w: field \"attendee_count\" must be a positive integer", model.ErrValidation)
	}
	if form.AttendeeCount > maxAttendeeCount {
		return fmt.Errorf("%w: field \"attendee_count\" cannot exceed %d", model.ErrValidation, maxAttendeeCount)
	}
	if len(form.Notes) > maxNotesLength {
		return fmt.Errorf("%w: field \"notes\" cannot exceed %d characters", model.ErrValidation, maxNotesLength)
	}
	return nil
}

// GuestForm validates a guest registration, which additionally requires a
// well-formed email address.
func GuestForm(form model.RegistrationForm) error {
	email := strings.TrimSpace(strings.ToLower(form.GuestEmail))
	if email == "" {
		return fmt.Errorf("%w: field \"guest_email\" is required", model.ErrValidation)
	}
	if !isValidEmail(email) {
		return fmt.Errorf("%w: field \"guest_email\" is not a valid email address", model.ErrValidation)
	}
	return RegistrationForm(form)
}

// isValidEmail does a structural check: one local part, one domain with a dot.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}

// NormalizeEmail lowercases and trims an email for use as a dedup key.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
