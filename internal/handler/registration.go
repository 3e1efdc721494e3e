package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/communityos/ticketing/internal/model"
)

// Register handles POST /events/{id}/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var form model.RegistrationForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.registrations.RegisterForEvent(r.Context(), h.caller(r), chi.URLParam(r, "id"), form)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// RegisterGuest handles POST /events/{id}/register-guest
func (h *Handler) RegisterGuest(w http.ResponseWriter, r *http.Request) {
	var form model.RegistrationForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, ticket, err := h.registrations.RegisterGuest(r.Context(), chi.URLParam(r, "id"), form)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"registration": reg,
		"ticket":       ticket,
	})
}

// CancelRegistration handles DELETE /events/{id}/registrations/{userID}
// An empty userID path segment is not routable; self-cancellation uses
// DELETE /events/{id}/registration instead.
func (h *Handler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	err := h.registrations.CancelRegistration(
		r.Context(), h.caller(r),
		chi.URLParam(r, "id"), chi.URLParam(r, "userID"),
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateRegistration handles PATCH /registrations/{id}
func (h *Handler) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	var form model.RegistrationForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.registrations.UpdateRegistration(r.Context(), h.caller(r), chi.URLParam(r, "id"), form)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}
