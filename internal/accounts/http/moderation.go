package http

import (
	"net/http"
	"time"

	"github.com/karwaan/bazaar/internal/accounts/domain"
	"github.com/karwaan/bazaar/internal/accounts/service"
)

// ModerationHandler serves the admin role/status lifecycle endpoints.
type ModerationHandler struct {
	Policy *service.PolicyService
}

func (h *ModerationHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	acct, err := h.Policy.UpdateAccountRole(r.Context(), r.PathValue("id"), domain.Role(req.Role), requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountResponse(acct))
}

func (h *ModerationHandler) HandleBan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	acct, err := h.Policy.BanAccount(r.Context(), r.PathValue("id"), req.Reason, requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountResponse(acct))
}

func (h *ModerationHandler) HandleUnban(w http.ResponseWriter, r *http.Request) {
	acct, err := h.Policy.UnbanAccount(r.Context(), r.PathValue("id"), requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountResponse(acct))
}

func (h *ModerationHandler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string    `json:"reason"`
		Until  time.Time `json:"until"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Until.IsZero() {
		writeBadRequest(w, "suspension end time is required")
		return
	}

	acct, err := h.Policy.SuspendAccount(r.Context(), r.PathValue("id"), req.Reason, req.Until, requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountResponse(acct))
}

// HandleBulk applies a batch of patches in one transaction. Items share a
// single updated_at stamp and skip per-item version checks.
func (h *ModerationHandler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []struct {
			ID    string              `json:"id"`
			Patch accountPatchRequest `json:"patch"`
		} `json:"items"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeBadRequest(w, "at least one item is required")
		return
	}

	items := make([]service.BulkUpdateItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.BulkUpdateItem{ID: item.ID, Patch: item.Patch.toDomain()}
	}

	if err := h.Policy.BulkUpdate(r.Context(), items, requester(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"updated": len(items)})
}
