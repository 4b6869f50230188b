package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/ammotrack/internal/models"
)

// MagazineRepo persists magazines.
type MagazineRepo struct {
	DB *sql.DB
}

func NewMagazineRepo(db *sql.DB) *MagazineRepo {
	return &MagazineRepo{DB: db}
}

type MagazineFilter struct {
	DepotID   string
	Caliber   string
	FirearmID string
	Status    string
}

func (f MagazineFilter) where() *where {
	w := &where{}
	w.eq("depot_id", f.DepotID)
	w.eq("caliber", f.Caliber)
	w.eq("firearm_id", f.FirearmID)
	w.eq("status", f.Status)
	return w
}

const magazineColumns = `id, name, caliber, capacity, COALESCE(firearm_id, ''), depot_id, quantity, status, created_at, updated_at`

func scanMagazine(row interface{ Scan(...any) error }, m *models.Magazine) error {
	return row.Scan(&m.ID, &m.Name, &m.Caliber, &m.Capacity, &m.FirearmID, &m.DepotID,
		&m.Quantity, &m.Status, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MagazineRepo) Create(ctx context.Context, m models.Magazine) (models.Magazine, error) {
	m.ID = newID(m.ID)
	if m.Status == "" {
		m.Status = models.MagazineServiceable
	}
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO magazines (id, name, caliber, capacity, firearm_id, depot_id, quantity, status)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
		 RETURNING `+magazineColumns,
		m.ID, m.Name, m.Caliber, m.Capacity, m.FirearmID, m.DepotID, m.Quantity, m.Status,
	)
	var out models.Magazine
	if err := scanMagazine(row, &out); err != nil {
		return models.Magazine{}, classify(err, "create magazine "+m.ID)
	}
	return out, nil
}

func (r *MagazineRepo) Get(ctx context.Context, id string) (models.Magazine, error) {
	var m models.Magazine
	err := scanMagazine(r.DB.QueryRowContext(ctx, `SELECT `+magazineColumns+` FROM magazines WHERE id = $1`, id), &m)
	if err != nil {
		return models.Magazine{}, classify(err, "magazine "+id)
	}
	return m, nil
}

func (r *MagazineRepo) List(ctx context.Context, f MagazineFilter, p Page) ([]models.Magazine, error) {
	w := f.where()
	lim, args := w.paginate(p)
	return r.query(ctx, `SELECT `+magazineColumns+` FROM magazines`+w.String()+` ORDER BY name, id`+lim, args...)
}

func (r *MagazineRepo) All(ctx context.Context) ([]models.Magazine, error) {
	return r.query(ctx, `SELECT `+magazineColumns+` FROM magazines ORDER BY name, id`)
}

func (r *MagazineRepo) query(ctx context.Context, q string, args ...any) ([]models.Magazine, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Magazine{}
	for rows.Next() {
		var m models.Magazine
		if err := scanMagazine(rows, &m); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *MagazineRepo) Update(ctx context.Context, m models.Magazine) (models.Magazine, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE magazines
		 SET name = $1, caliber = $2, capacity = $3, firearm_id = NULLIF($4, ''), depot_id = $5,
		     quantity = $6, status = $7, updated_at = NOW()
		 WHERE id = $8
		 RETURNING `+magazineColumns,
		m.Name, m.Caliber, m.Capacity, m.FirearmID, m.DepotID, m.Quantity, m.Status, m.ID,
	)
	var out models.Magazine
	if err := scanMagazine(row, &out); err != nil {
		return models.Magazine{}, classify(err, "update magazine "+m.ID)
	}
	return out, nil
}

func (r *MagazineRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM magazines WHERE id = $1`, id)
	if err != nil {
		return classifyDelete(err, "delete magazine "+id)
	}
	return requireAffected(res, "magazine "+id)
}
