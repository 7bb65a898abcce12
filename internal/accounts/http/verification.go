package http

import (
	"net/http"

	"github.com/karwaan/bazaar/internal/accounts/service"
)

// VerificationHandler serves the email/phone verification-code endpoints.
// Codes are returned in the response for the delivery layer to send; they are
// short-lived and single-use.
type VerificationHandler struct {
	Policy *service.PolicyService
}

func (h *VerificationHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	channel, err := service.ParseVerificationChannel(r.PathValue("channel"))
	if err != nil {
		writeBadRequest(w, "verification channel must be email or phone")
		return
	}

	code, err := h.Policy.RequestVerificationCode(r.Context(), r.PathValue("id"), channel, requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{
		"channel": string(channel),
		"code":    code,
	})
}

func (h *VerificationHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	channel, err := service.ParseVerificationChannel(r.PathValue("channel"))
	if err != nil {
		writeBadRequest(w, "verification channel must be email or phone")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil || req.Code == "" {
		writeBadRequest(w, "verification code is required")
		return
	}

	if err := h.Policy.ConfirmVerificationCode(r.Context(), r.PathValue("id"), channel, req.Code, requester(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{
		"channel": string(channel),
		"status":  "verified",
	})
}
