// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer. Authentication
// session mechanics live outside this service; the caller identity
// arrives as a trusted X-User-ID header set by the auth proxy.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/communityos/ticketing/internal/model"
	"github.com/communityos/ticketing/internal/policy"
	"github.com/communityos/ticketing/internal/service"
)

// Handler holds all HTTP handlers for the ticketing API.
type Handler struct {
	events        *service.EventService
	registrations *service.RegistrationService
	tickets       *service.TicketService
	users         *service.UserService
	policy        *policy.Policy
}

// New constructs a Handler.
func New(
	events *service.EventService,
	registrations *service.RegistrationService,
	tickets *service.TicketService,
	users *service.UserService,
	pol *policy.Policy,
) *Handler {
	return &Handler{
		events:        events,
		registrations: registrations,
		tickets:       tickets,
		users:         users,
		policy:        pol,
	}
}

// errorResponse is the standard JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrPrecondition):
		writeError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, model.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// caller resolves the request identity from the X-User-ID header. Absent
// or unknown IDs yield a nil caller; the policy layer decides whether
// that is acceptable for the operation.
func (h *Handler) caller(r *http.Request) *model.AppUser {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		return nil
	}
	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		return nil
	}
	return user
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
