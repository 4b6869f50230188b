package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/crucial707/ammotrack/internal/middleware"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeAndValidate reads a JSON body into dst and validates it. On failure it
// writes the 400 response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, false)
}

// decodeOptional is decodeAndValidate for endpoints whose body may be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, true)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !(optional && errors.Is(err, io.EOF)) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			JSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return false
	}
	if fields := validationFields(validate.Struct(dst)); len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return false
	}
	return true
}

// validationFields turns validator errors into field -> rule, e.g. "quantity": "gte=0".
func validationFields(err error) map[string]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fieldPath(fe.Namespace())
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[name] = rule
	}
	return fields
}

// fieldPath drops the struct name from a validator namespace: "input.items[0].quantity" -> "items[0].quantity".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// pageFromQuery reads limit (default 50, at most 200) and offset (default 0).
func pageFromQuery(r *http.Request) repo.Page {
	p := repo.Page{Limit: defaultLimit}
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= maxLimit {
			p.Limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			p.Offset = val
		}
	}
	return p
}

func listResponse(items any, p repo.Page) map[string]any {
	return map[string]any{
		"items":  items,
		"limit":  p.Limit,
		"offset": p.Offset,
	}
}

func urlID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

// recordAudit writes one audit entry for a mutation. opErr decides the status;
// a failure to write the entry is logged and otherwise ignored.
func recordAudit(r *http.Request, audit *repo.AuditRepo, action, resourceType, resourceID string, opErr error) {
	if audit == nil {
		return
	}
	e := models.AuditEntry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Status:       models.AuditSuccess,
	}
	if u, ok := middleware.GetUser(r.Context()); ok {
		e.UserID = u.ID
		e.Username = u.Username
	}
	if opErr != nil {
		e.Status = models.AuditFailure
		e.Details = opErr.Error()
		slog.Warn("mutation failed", "action", action, "resource_type", resourceType, "resource_id", resourceID, "err", opErr)
	}
	if err := audit.Log(r.Context(), e); err != nil {
		slog.Error("audit log write failed", "action", action, "resource_type", resourceType, "err", err)
	}
}
