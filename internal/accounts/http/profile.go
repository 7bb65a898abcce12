package http

import (
	"net/http"

	"github.com/karwaan/bazaar/internal/accounts/service"
)

// ProfileHandler serves the self-or-admin account endpoints.
type ProfileHandler struct {
	Policy *service.PolicyService
}

// HandleGet returns the account profile.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	acct, err := h.Policy.GetProfile(r.Context(), r.PathValue("id"), requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountResponse(acct))
}

// HandlePatch applies a partial profile update, honouring the optional
// expected_version field for optimistic concurrency.
func (h *ProfileHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var req accountPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	acct, err := h.Policy.UpdateProfile(r.Context(), r.PathValue("id"), req.toDomain(), requester(r), req.ExpectedVersion)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountResponse(acct))
}

// HandleDelete soft-deletes the account (status becomes inactive; the record
// and its history remain).
func (h *ProfileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Policy.DeleteAccount(r.Context(), r.PathValue("id"), requester(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
