package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/ammotrack/internal/models"
)

// AuditRepo persists audit log entries.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// AuditFilter narrows List and All. Empty fields match everything.
type AuditFilter struct {
	ResourceType string
	Status       string
	Username     string
}

func (f AuditFilter) where() *where {
	w := &where{}
	w.eq("resource_type", f.ResourceType)
	w.eq("status", f.Status)
	w.eq("username", f.Username)
	return w
}

// Log records an audit entry. The id and timestamp are assigned here.
func (r *AuditRepo) Log(ctx context.Context, e models.AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, user_id, username, action, resource_type, resource_id, status, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		newID(e.ID), e.UserID, e.Username, e.Action, e.ResourceType, e.ResourceID, e.Status, e.Details,
	)
	return err
}

const auditColumns = `id, created_at, user_id, username, action, resource_type, resource_id, status, details`

// List returns recent audit entries, newest first.
func (r *AuditRepo) List(ctx context.Context, f AuditFilter, p Page) ([]models.AuditEntry, error) {
	w := f.where()
	lim, args := w.paginate(p)
	return r.query(ctx, `SELECT `+auditColumns+` FROM audit_log`+w.String()+` ORDER BY created_at DESC, id`+lim, args...)
}

// All returns every matching entry, oldest first, for export.
func (r *AuditRepo) All(ctx context.Context, f AuditFilter) ([]models.AuditEntry, error) {
	w := f.where()
	return r.query(ctx, `SELECT `+auditColumns+` FROM audit_log`+w.String()+` ORDER BY created_at, id`, w.args...)
}

func (r *AuditRepo) query(ctx context.Context, q string, args ...any) ([]models.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.UserID, &e.Username, &e.Action, &e.ResourceType, &e.ResourceID, &e.Status, &e.Details); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
