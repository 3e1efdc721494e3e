package model

import "errors"

// Sentinel errors classifying every failure the engines can produce.
// Callers test with errors.Is; detail is attached by wrapping, e.g.
// fmt.Errorf("%w: capacity must be positive", ErrValidation).
var (
	// ErrUnauthenticated means no caller identity was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the caller lacks the required role tier or
	// permission. The wrapped message names the missing capability.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation means the input is structurally invalid. The wrapped
	// message names the offending field.
	ErrValidation = errors.New("validation error")

	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate means a uniqueness constraint was violated (already
	// registered, already has a ticket). An expected outcome, not a
	// system failure.
	ErrDuplicate = errors.New("duplicate")

	// ErrPrecondition means a lifecycle guard rejected the operation. The
	// wrapped message distinguishes "too early" from "already done".
	ErrPrecondition = errors.New("precondition failed")

	// ErrInvalidTransition means a structurally impossible stage move,
	// including concurrent-modification conflicts detected by the version
	// check.
	ErrInvalidTransition = errors.New("invalid transition")
)
