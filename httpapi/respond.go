// Package httpapi exposes the REST and websocket boundary. Handlers decode,
// delegate to services, and encode; no business rule lives here.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"zchat/errors"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errors.MapToHTTPStatus(err)
	body := errorBody{Error: err.Error()}
	if status == http.StatusInternalServerError {
		// Internal details stay in the log, not on the wire.
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

func decodeBody[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return v, nil
}
