package http

import (
	"net/http"

	"github.com/karwaan/bazaar/internal/accounts/domain"
	"github.com/karwaan/bazaar/internal/accounts/service"
)

// SettingsHandler serves the settings and preferences views of an account.
type SettingsHandler struct {
	Policy *service.PolicyService
}

type settingsResponse struct {
	Preferences       preferencesResponse `json:"preferences"`
	PreferredCurrency string              `json:"preferred_currency"`
	EmailVerified     bool                `json:"email_verified"`
	PhoneVerified     bool                `json:"phone_verified"`
}

func toSettingsResponse(s service.AccountSettings) settingsResponse {
	return settingsResponse{
		Preferences:       toPreferencesResponse(s.Preferences),
		PreferredCurrency: s.PreferredCurrency.String(),
		EmailVerified:     s.EmailVerified,
		PhoneVerified:     s.PhoneVerified,
	}
}

type settingsPatchRequest struct {
	Preferences       *preferencesPatchRequest `json:"preferences"`
	PreferredCurrency *string                  `json:"preferred_currency"`
}

func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Policy.GetAccountSettings(r.Context(), r.PathValue("id"), requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toSettingsResponse(settings))
}

func (h *SettingsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req settingsPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	patch := service.SettingsPatch{}
	if req.Preferences != nil {
		patch.Preferences = req.Preferences.toDomain()
	}
	if req.PreferredCurrency != nil {
		cur := domain.Currency(*req.PreferredCurrency)
		patch.PreferredCurrency = &cur
	}

	settings, err := h.Policy.UpdateAccountSettings(r.Context(), r.PathValue("id"), patch, requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toSettingsResponse(settings))
}

func (h *SettingsHandler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.Policy.GetPreferences(r.Context(), r.PathValue("id"), requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toPreferencesResponse(prefs))
}

func (h *SettingsHandler) HandlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	prefs, err := h.Policy.UpdatePreferences(r.Context(), r.PathValue("id"), *req.toDomain(), requester(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toPreferencesResponse(prefs))
}
