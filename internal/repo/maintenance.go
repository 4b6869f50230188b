package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/ammotrack/internal/models"
)

// MaintenanceRepo persists firearm maintenance logs.
type MaintenanceRepo struct {
	DB *sql.DB
}

func NewMaintenanceRepo(db *sql.DB) *MaintenanceRepo {
	return &MaintenanceRepo{DB: db}
}

type MaintenanceFilter struct {
	FirearmID string
	Status    string
}

const maintenanceColumns = `id, firearm_id, type, description, performed_by, performed_at, next_due_at, status, created_at, updated_at`

func scanMaintenance(row interface{ Scan(...any) error }, m *models.MaintenanceLog) error {
	return row.Scan(&m.ID, &m.FirearmID, &m.Type, &m.Description, &m.PerformedBy, &m.PerformedAt,
		&m.NextDueAt, &m.Status, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MaintenanceRepo) Create(ctx context.Context, m models.MaintenanceLog) (models.MaintenanceLog, error) {
	m.ID = newID(m.ID)
	if m.Status == "" {
		m.Status = models.MaintenanceCompleted
	}
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO maintenance_logs (id, firearm_id, type, description, performed_by, performed_at, next_due_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+maintenanceColumns,
		m.ID, m.FirearmID, m.Type, m.Description, m.PerformedBy, m.PerformedAt, m.NextDueAt, m.Status,
	)
	var out models.MaintenanceLog
	if err := scanMaintenance(row, &out); err != nil {
		return models.MaintenanceLog{}, classify(err, "create maintenance log "+m.ID)
	}
	return out, nil
}

func (r *MaintenanceRepo) Get(ctx context.Context, id string) (models.MaintenanceLog, error) {
	var m models.MaintenanceLog
	err := scanMaintenance(r.DB.QueryRowContext(ctx, `SELECT `+maintenanceColumns+` FROM maintenance_logs WHERE id = $1`, id), &m)
	if err != nil {
		return models.MaintenanceLog{}, classify(err, "maintenance log "+id)
	}
	return m, nil
}

// List returns logs, most recently performed first.
func (r *MaintenanceRepo) List(ctx context.Context, f MaintenanceFilter, p Page) ([]models.MaintenanceLog, error) {
	var w where
	w.eq("firearm_id", f.FirearmID)
	w.eq("status", f.Status)
	lim, args := w.paginate(p)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+maintenanceColumns+` FROM maintenance_logs`+w.String()+` ORDER BY performed_at DESC, id`+lim, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.MaintenanceLog{}
	for rows.Next() {
		var m models.MaintenanceLog
		if err := scanMaintenance(rows, &m); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *MaintenanceRepo) Update(ctx context.Context, m models.MaintenanceLog) (models.MaintenanceLog, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE maintenance_logs
		 SET firearm_id = $1, type = $2, description = $3, performed_by = $4, performed_at = $5,
		     next_due_at = $6, status = $7, updated_at = NOW()
		 WHERE id = $8
		 RETURNING `+maintenanceColumns,
		m.FirearmID, m.Type, m.Description, m.PerformedBy, m.PerformedAt, m.NextDueAt, m.Status, m.ID,
	)
	var out models.MaintenanceLog
	if err := scanMaintenance(row, &out); err != nil {
		return models.MaintenanceLog{}, classify(err, "update maintenance log "+m.ID)
	}
	return out, nil
}

func (r *MaintenanceRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM maintenance_logs WHERE id = $1`, id)
	if err != nil {
		return classifyDelete(err, "delete maintenance log "+id)
	}
	return requireAffected(res, "maintenance log "+id)
}
