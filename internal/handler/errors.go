package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/avirmani/fleet-manager/internal/domain"
)

// errorResponse is the uniform error body: {"error": {"code", "message"}}.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON serializes v with the given status. Encoding failures are logged
// rather than surfaced; the status line has already been written.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encoding failed", "error", err)
	}
}

// writeErrorBody writes an errorResponse with an explicit code and message,
// for failures detected before the service layer runs.
func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// writeError maps a service error onto the HTTP status and error code the
// API contract promises. Unknown errors become an opaque 500; the detail
// goes to the log, not the client.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, "not_found", unwrapMessage(err))
	case errors.Is(err, domain.ErrConflict):
		writeErrorBody(w, http.StatusConflict, "conflict", unwrapMessage(err))
	case errors.Is(err, domain.ErrNoRoute):
		writeErrorBody(w, http.StatusUnprocessableEntity, "no_route", unwrapMessage(err))
	case errors.Is(err, domain.ErrDataIntegrity):
		slog.Error("data integrity failure", "error", err)
		writeErrorBody(w, http.StatusInternalServerError, "data_integrity_error", unwrapMessage(err))
	default:
		slog.Error("unhandled error", "error", err)
		writeErrorBody(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// errBadParam describes a query parameter that failed to parse.
func errBadParam(name string) error {
	return fmt.Errorf("%s is missing or malformed", name)
}

// unwrapMessage strips the wrapping prefixes from a sentinel error chain so
// the client sees "route RT-X is Completed" rather than the full call path.
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{
		domain.ErrValidation, domain.ErrNotFound, domain.ErrConflict,
		domain.ErrNoRoute, domain.ErrDataIntegrity,
	} {
		prefix := sentinel.Error() + ": "
		if i := strings.Index(msg, prefix); i >= 0 {
			return msg[i+len(prefix):]
		}
	}
	return msg
}
