package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/ammotrack/internal/repo"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, errorBody{Error: message})
}

// JSONValidationError adds field-level details, e.g. {"capacity": "gte=0"}.
// status is typically http.StatusBadRequest (400).
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	writeJSON(w, status, errorBody{Error: message, Fields: fields})
}

// repoErrors maps repository sentinels to a status and message. what names
// the resource, e.g. "depot".
var repoErrors = []struct {
	err     error
	status  int
	message func(what string) string
}{
	{repo.ErrNotFound, http.StatusNotFound, func(what string) string { return what + " not found" }},
	{repo.ErrConflict, http.StatusConflict, func(what string) string { return what + " already exists" }},
	{repo.ErrInUse, http.StatusConflict, func(what string) string { return what + " is referenced by other records" }},
	{repo.ErrInsufficientStock, http.StatusConflict, func(string) string { return "insufficient stock" }},
	{repo.ErrInvalidTransition, http.StatusConflict, func(string) string { return "invalid status transition" }},
	{repo.ErrUnknownReference, http.StatusBadRequest, func(string) string { return "referenced record does not exist" }},
}

// writeRepoError answers with the mapped status for a repository error and
// logs anything unmapped as a 500.
func writeRepoError(w http.ResponseWriter, r *http.Request, err error, what string) {
	for _, m := range repoErrors {
		if errors.Is(err, m.err) {
			JSONError(w, m.message(what), m.status)
			return
		}
	}
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "resource", what, "err", err)
	JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
}
