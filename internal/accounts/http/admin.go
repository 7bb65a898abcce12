package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/karwaan/bazaar/internal/accounts/domain"
	"github.com/karwaan/bazaar/internal/accounts/service"
)

// AdminHandler serves the admin account-management endpoints.
type AdminHandler struct {
	Policy *service.PolicyService
}

// parseListQuery reads the common filter query parameters. Unknown enum
// values and malformed dates pass through as typed-but-invalid or are
// ignored; the policy layer decides what is an error.
func parseListQuery(r *http.Request) service.ListQuery {
	q := r.URL.Query()

	query := service.ListQuery{Search: q.Get("search")}
	if v := q.Get("role"); v != "" {
		role := domain.Role(v)
		query.Role = &role
	}
	if v := q.Get("status"); v != "" {
		status := domain.Status(v)
		query.Status = &status
	}
	if v := q.Get("email_verified"); v != "" {
		verified := v == "true"
		query.EmailVerified = &verified
	}
	if v := q.Get("start_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			query.StartDate = &t
		}
	}
	if v := q.Get("end_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			query.EndDate = &t
		}
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		query.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		query.Offset = v
	}
	return query
}

func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	accts, err := h.Policy.ListAccounts(r.Context(), parseListQuery(r), requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountResponses(accts))
}

func (h *AdminHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)

	accts, err := h.Policy.SearchAccounts(r.Context(), r.URL.Query().Get("q"), q.Role, q.Status, requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountResponses(accts))
}

func (h *AdminHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)

	count, err := h.Policy.CountAccounts(r.Context(), service.CountFilter{
		Role:          q.Role,
		Status:        q.Status,
		EmailVerified: q.EmailVerified,
		StartDate:     q.StartDate,
		EndDate:       q.EndDate,
	}, requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *AdminHandler) HandleGetByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeBadRequest(w, "email query parameter is required")
		return
	}

	acct, err := h.Policy.GetAccountByEmail(r.Context(), email, requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountResponse(acct))
}

func (h *AdminHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	acct, err := h.Policy.GetAccountByID(r.Context(), r.PathValue("id"), requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountResponse(acct))
}

// HandleCreate backfills an account record for an identity that already
// exists in the external auth system.
func (h *AdminHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	acct, err := h.Policy.CreateAccountAdmin(r.Context(), req.toInput(), requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toAccountResponse(acct))
}

func (h *AdminHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var req accountPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	acct, err := h.Policy.AdminUpdate(r.Context(), r.PathValue("id"), req.toDomain(), requester(r), req.ExpectedVersion)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAccountResponse(acct))
}
