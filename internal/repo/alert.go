package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/ammotrack/internal/models"
)

// AlertRepo persists alert definitions.
type AlertRepo struct {
	DB *sql.DB
}

func NewAlertRepo(db *sql.DB) *AlertRepo {
	return &AlertRepo{DB: db}
}

const alertColumns = `id, name, item_type, caliber, depot_id, threshold, enabled, created_at, updated_at`

func scanAlert(row interface{ Scan(...any) error }, a *models.AlertDefinition) error {
	return row.Scan(&a.ID, &a.Name, &a.ItemType, &a.Caliber, &a.DepotID, &a.Threshold, &a.Enabled, &a.CreatedAt, &a.UpdatedAt)
}

func (r *AlertRepo) Create(ctx context.Context, a models.AlertDefinition) (models.AlertDefinition, error) {
	a.ID = newID(a.ID)
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO alert_definitions (id, name, item_type, caliber, depot_id, threshold, enabled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+alertColumns,
		a.ID, a.Name, a.ItemType, a.Caliber, a.DepotID, a.Threshold, a.Enabled,
	)
	var out models.AlertDefinition
	if err := scanAlert(row, &out); err != nil {
		return models.AlertDefinition{}, classify(err, "create alert "+a.ID)
	}
	return out, nil
}

func (r *AlertRepo) Get(ctx context.Context, id string) (models.AlertDefinition, error) {
	var a models.AlertDefinition
	err := scanAlert(r.DB.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alert_definitions WHERE id = $1`, id), &a)
	if err != nil {
		return models.AlertDefinition{}, classify(err, "alert "+id)
	}
	return a, nil
}

func (r *AlertRepo) List(ctx context.Context, p Page) ([]models.AlertDefinition, error) {
	var w where
	lim, args := w.paginate(p)
	return r.query(ctx, `SELECT `+alertColumns+` FROM alert_definitions ORDER BY name, id`+lim, args...)
}

// ListEnabled returns all enabled definitions (for the alert scheduler).
func (r *AlertRepo) ListEnabled(ctx context.Context) ([]models.AlertDefinition, error) {
	return r.query(ctx, `SELECT `+alertColumns+` FROM alert_definitions WHERE enabled = true ORDER BY id`)
}

func (r *AlertRepo) query(ctx context.Context, q string, args ...any) ([]models.AlertDefinition, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.AlertDefinition{}
	for rows.Next() {
		var a models.AlertDefinition
		if err := scanAlert(rows, &a); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *AlertRepo) Update(ctx context.Context, a models.AlertDefinition) (models.AlertDefinition, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE alert_definitions
		 SET name = $1, item_type = $2, caliber = $3, depot_id = $4, threshold = $5, enabled = $6, updated_at = NOW()
		 WHERE id = $7
		 RETURNING `+alertColumns,
		a.Name, a.ItemType, a.Caliber, a.DepotID, a.Threshold, a.Enabled, a.ID,
	)
	var out models.AlertDefinition
	if err := scanAlert(row, &out); err != nil {
		return models.AlertDefinition{}, classify(err, "update alert "+a.ID)
	}
	return out, nil
}

func (r *AlertRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM alert_definitions WHERE id = $1`, id)
	if err != nil {
		return classifyDelete(err, "delete alert "+id)
	}
	return requireAffected(res, "alert "+id)
}
