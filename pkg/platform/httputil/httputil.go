// Package httputil centralizes JSON response writing so every handler emits
// the same envelopes and the same domain-error translation.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "trustbase/pkg/domain-errors"
)

var codeStatus = map[dErrors.Code]int{
	dErrors.CodeBadRequest:   http.StatusBadRequest,
	dErrors.CodeValidation:   http.StatusBadRequest,
	dErrors.CodeUnauthorized: http.StatusUnauthorized,
	dErrors.CodeForbidden:    http.StatusForbidden,
	dErrors.CodeNotFound:     http.StatusNotFound,
	dErrors.CodeConflict:     http.StatusConflict,
	dErrors.CodeTimeout:      http.StatusGatewayTimeout,
	dErrors.CodeUnavailable:  http.StatusServiceUnavailable,
	dErrors.CodeInternal:     http.StatusInternalServerError,
}

// ToHTTPStatus maps a domain error code to its HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into a JSON error envelope. Internal
// errors omit the description so storage details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		body["error_description"] = err.Error()
	}
	WriteJSON(w, ToHTTPStatus(code), body)
}
