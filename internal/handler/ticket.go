package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/communityos/ticketing/internal/model"
)

// GetTicket handles GET /tickets/{id}
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.tickets.GetTicket(r.Context(), h.caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticketView(t))
}

// ListTickets handles GET /events/{id}/tickets
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.tickets.ListByEvent(r.Context(), h.caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]map[string]any, 0, len(tickets))
	for i := range tickets {
		views = append(views, ticketView(&tickets[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

// AssignTicket handles POST /tickets/{id}/assign
func (h *Handler) AssignTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssigneeID string `json:"assignee_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := h.tickets.Assign(r.Context(), h.caller(r), chi.URLParam(r, "id"), req.AssigneeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticketView(t))
}

// MarkPaymentSent handles POST /tickets/{id}/payment-sent
// The response carries the rendered payment message alongside the ticket.
func (h *Handler) MarkPaymentSent(w http.ResponseWriter, r *http.Request) {
	t, msg, err := h.tickets.MarkPaymentSent(r.Context(), h.caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	view := ticketView(t)
	view["payment_message"] = map[string]string{
		"subject": msg.Subject,
		"body":    msg.Body,
	}
	writeJSON(w, http.StatusOK, view)
}

// MarkPaid handles POST /tickets/{id}/paid
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	t, err := h.tickets.MarkPaid(r.Context(), h.caller(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticketView(t))
}

// MarkBoarded handles POST /tickets/{id}/board
// The boarder defaults to the caller and is recorded as an audit field.
func (h *Handler) MarkBoarded(w http.ResponseWriter, r *http.Request) {
	caller := h.caller(r)
	boarderID := ""
	if caller != nil {
		boarderID = caller.ID
	}

	t, err := h.tickets.MarkBoarded(r.Context(), caller, chi.URLParam(r, "id"), boarderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticketView(t))
}

// SetTicketStage handles PUT /tickets/{id}/stage — the admin override.
func (h *Handler) SetTicketStage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stage model.Stage `json:"stage"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := h.tickets.SetStage(r.Context(), h.caller(r), chi.URLParam(r, "id"), req.Stage)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticketView(t))
}

// ticketView augments the ticket JSON with its derived stage, which is
// never stored and so never serialized from the model directly.
func ticketView(t *model.Ticket) map[string]any {
	raw, _ := json.Marshal(t)
	var view map[string]any
	_ = json.Unmarshal(raw, &view)
	view["stage"] = t.Stage()
	return view
}
