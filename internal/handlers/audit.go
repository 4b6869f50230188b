package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/ammotrack/internal/csvexport"
	"github.com/crucial707/ammotrack/internal/repo"
)

// AuditHandler serves audit log endpoints.
type AuditHandler struct {
	Repo *repo.AuditRepo
}

func auditFilter(r *http.Request) repo.AuditFilter {
	q := r.URL.Query()
	return repo.AuditFilter{
		ResourceType: q.Get("resource_type"),
		Status:       q.Get("status"),
		Username:     q.Get("username"),
	}
}

// ListAudit returns recent audit log entries. Query: limit (default 50), offset (default 0),
// resource_type, status, username.
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	p := pageFromQuery(r)
	entries, err := h.Repo.List(r.Context(), auditFilter(r), p)
	if err != nil {
		writeRepoError(w, r, err, "audit log")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(entries, p))
}

// ExportAudit streams every matching entry as CSV, oldest first.
func (h *AuditHandler) ExportAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Repo.All(r.Context(), auditFilter(r))
	if err != nil {
		writeRepoError(w, r, err, "audit log")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+csvexport.Filename("audit-log", time.Now())+`"`)
	if err := csvexport.Audit(w, entries); err != nil {
		slog.Error("audit export failed", "err", err)
	}
}
