package httpapi

import (
	"encoding/json"
	"net/http"

	"inferd/internal/manager"
	"inferd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps a service error to the HTTP status of its failure kind.
func statusFor(err error) int {
	switch {
	case manager.IsValidation(err):
		return http.StatusBadRequest
	case manager.IsGateTimeout(err):
		return http.StatusServiceUnavailable
	case manager.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case manager.IsEngineTimeout(err):
		return http.StatusGatewayTimeout
	case manager.IsInference(err):
		return http.StatusInternalServerError
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeJSONError writes the error envelope every failing endpoint uses.
func writeJSONError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: kind, Message: msg})
}

// writeServiceError maps err through the manager error taxonomy and writes
// the envelope.
func writeServiceError(w http.ResponseWriter, err error) int {
	status := statusFor(err)
	writeJSONError(w, status, manager.Kind(err), err.Error())
	return status
}
