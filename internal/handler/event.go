package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/communityos/ticketing/internal/model"
)

// CreateEvent handles POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.CreateEvent(r.Context(), h.caller(r), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context(), h.caller(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), h.caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEventStatus handles PATCH /events/{id}/status
func (h *Handler) UpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status model.EventStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.UpdateEventStatus(r.Context(), h.caller(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{id}
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.DeleteEvent(r.Context(), h.caller(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRegistrations handles GET /events/{id}/registrations
func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.events.ListRegistrations(r.Context(), h.caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// ExportAttendees handles GET /events/{id}/attendees/export
func (h *Handler) ExportAttendees(w http.ResponseWriter, r *http.Request) {
	regs, err := h.events.ExportAttendees(r.Context(), h.caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}
