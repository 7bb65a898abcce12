package http

import (
	"encoding/json"
	"net/http"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeJSON decodes the request body into target, rejecting unknown fields
// and oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
