package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/karwaan/bazaar/internal/accounts/service"
)

// LoginTrackingHandler records a successful login. Only trusted internal
// callers (the identity service) may hit it, gated by a shared token header
// rather than a user credential.
type LoginTrackingHandler struct {
	Policy *service.PolicyService

	// InternalToken guards the endpoint. Empty disables it entirely.
	InternalToken string
}

func (h *LoginTrackingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.InternalToken == "" {
		http.NotFound(w, r)
		return
	}
	provided := r.Header.Get("X-Internal-Token")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.InternalToken)) != 1 {
		httpError(w, http.StatusUnauthorized, "invalid internal token")
		return
	}

	var req struct {
		IPAddress string `json:"ip_address"`
	}
	// Body is optional; a bare POST still counts the login.
	_ = decodeJSON(w, r, &req)

	// Best-effort by contract: never fails the login flow.
	h.Policy.UpdateLastLogin(r.Context(), r.PathValue("id"), req.IPAddress)

	w.WriteHeader(http.StatusAccepted)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	http.Error(w, msg, code)
}
