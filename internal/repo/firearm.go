package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/ammotrack/internal/models"
)

// FirearmRepo persists firearm definitions.
type FirearmRepo struct {
	DB *sql.DB
}

func NewFirearmRepo(db *sql.DB) *FirearmRepo {
	return &FirearmRepo{DB: db}
}

// FirearmFilter narrows List results. Empty fields match everything.
type FirearmFilter struct {
	DepotID string
	Caliber string
	Status  string
	Type    string
}

const firearmColumns = `id, name, manufacturer, type, caliber, COALESCE(serial_number, ''), depot_id, quantity, status, notes, created_at, updated_at`

func scanFirearm(row interface{ Scan(...any) error }, f *models.Firearm) error {
	return row.Scan(&f.ID, &f.Name, &f.Manufacturer, &f.Type, &f.Caliber, &f.SerialNumber,
		&f.DepotID, &f.Quantity, &f.Status, &f.Notes, &f.CreatedAt, &f.UpdatedAt)
}

// Create inserts a firearm. Duplicate id or serial number yields ErrConflict;
// an unknown depot yields ErrUnknownReference.
func (r *FirearmRepo) Create(ctx context.Context, f models.Firearm) (models.Firearm, error) {
	f.ID = newID(f.ID)
	if f.Status == "" {
		f.Status = models.FirearmOperational
	}
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO firearms (id, name, manufacturer, type, caliber, serial_number, depot_id, quantity, status, notes)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)
		 RETURNING `+firearmColumns,
		f.ID, f.Name, f.Manufacturer, f.Type, f.Caliber, f.SerialNumber, f.DepotID, f.Quantity, f.Status, f.Notes,
	)
	var out models.Firearm
	if err := scanFirearm(row, &out); err != nil {
		return models.Firearm{}, classify(err, "create firearm "+f.ID)
	}
	return out, nil
}

func (r *FirearmRepo) Get(ctx context.Context, id string) (models.Firearm, error) {
	var f models.Firearm
	err := scanFirearm(r.DB.QueryRowContext(ctx, `SELECT `+firearmColumns+` FROM firearms WHERE id = $1`, id), &f)
	if err != nil {
		return models.Firearm{}, classify(err, "firearm "+id)
	}
	return f, nil
}

func (r *FirearmRepo) List(ctx context.Context, f FirearmFilter, p Page) ([]models.Firearm, error) {
	w := f.where()
	lim, args := w.paginate(p)
	return r.query(ctx, `SELECT `+firearmColumns+` FROM firearms`+w.String()+` ORDER BY name, id`+lim, args...)
}

// All returns every firearm matching f; used by CSV export and snapshots.
func (r *FirearmRepo) All(ctx context.Context, f FirearmFilter) ([]models.Firearm, error) {
	w := f.where()
	return r.query(ctx, `SELECT `+firearmColumns+` FROM firearms`+w.String()+` ORDER BY name, id`, w.args...)
}

func (f FirearmFilter) where() *where {
	w := &where{}
	w.eq("depot_id", f.DepotID)
	w.eq("caliber", f.Caliber)
	w.eq("status", f.Status)
	w.eq("type", f.Type)
	return w
}

func (r *FirearmRepo) query(ctx context.Context, q string, args ...any) ([]models.Firearm, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Firearm{}
	for rows.Next() {
		var f models.Firearm
		if err := scanFirearm(rows, &f); err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

func (r *FirearmRepo) Update(ctx context.Context, f models.Firearm) (models.Firearm, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE firearms
		 SET name = $1, manufacturer = $2, type = $3, caliber = $4, serial_number = NULLIF($5, ''),
		     depot_id = $6, quantity = $7, status = $8, notes = $9, updated_at = NOW()
		 WHERE id = $10
		 RETURNING `+firearmColumns,
		f.Name, f.Manufacturer, f.Type, f.Caliber, f.SerialNumber, f.DepotID, f.Quantity, f.Status, f.Notes, f.ID,
	)
	var out models.Firearm
	if err := scanFirearm(row, &out); err != nil {
		return models.Firearm{}, classify(err, "update firearm "+f.ID)
	}
	return out, nil
}

// Delete removes a firearm; magazines or maintenance logs pointing at it yield ErrInUse.
func (r *FirearmRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM firearms WHERE id = $1`, id)
	if err != nil {
		return classifyDelete(err, "delete firearm "+id)
	}
	return requireAffected(res, "firearm "+id)
}
