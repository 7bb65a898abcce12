package http

import (
	"net/http"

	"github.com/karwaan/bazaar/internal/accounts/apperr"
	"github.com/karwaan/bazaar/pkg/httpx"
	"github.com/karwaan/bazaar/pkg/slogx"
)

// envelope is the uniform response wrapper. Error responses carry a display
// message only; internal detail stays in the logs.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, code int, data any) {
	httpx.WriteJSON(w, code, envelope{Success: true, Data: data})
}

// writeError maps a service error to an HTTP status via its kind and writes
// the error envelope. Unexpected errors are logged and surface as a generic
// 500 message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusForKind(apperr.KindOf(err))
	if code == http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed", "error", err, "path", r.URL.Path)
	}
	httpx.WriteJSON(w, code, envelope{Success: false, Error: apperr.MessageOf(err)})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	httpx.WriteJSON(w, http.StatusBadRequest, envelope{Success: false, Error: msg})
}
