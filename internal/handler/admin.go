package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/communityos/ticketing/internal/model"
)

// EnsureUser handles POST /users/ensure — called by the auth layer after
// a successful authentication to bootstrap the user record.
func (h *Handler) EnsureUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	user, err := h.users.EnsureUser(r.Context(), req.Email, req.DisplayName)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SetUserRole handles PUT /users/{id}/role
func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role model.Role `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	user, err := h.users.SetRole(r.Context(), h.caller(r), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteUser(r.Context(), h.caller(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// grantRequest is the payload for grant and revoke operations.
type grantRequest struct {
	Role         model.Role `json:"role"`
	PermissionID string     `json:"permission_id"`
}

// GrantPermission handles POST /permissions/grant
func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.policy.Grant(r.Context(), h.caller(r), req.Role, req.PermissionID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevokePermission handles POST /permissions/revoke
func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.policy.Revoke(r.Context(), h.caller(r), req.Role, req.PermissionID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
