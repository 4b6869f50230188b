package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/ammotrack/internal/models"
)

// AmmunitionRepo persists ammunition lots.
type AmmunitionRepo struct {
	DB *sql.DB
}

func NewAmmunitionRepo(db *sql.DB) *AmmunitionRepo {
	return &AmmunitionRepo{DB: db}
}

type AmmunitionFilter struct {
	DepotID string
	Caliber string
	Type    string
	// LowOnly keeps lots at or below their own low-stock threshold.
	LowOnly bool
}

func (f AmmunitionFilter) where() *where {
	w := &where{}
	w.eq("depot_id", f.DepotID)
	w.eq("caliber", f.Caliber)
	w.eq("type", f.Type)
	if f.LowOnly {
		w.clauses = append(w.clauses, "low_stock_threshold > 0 AND quantity <= low_stock_threshold")
	}
	return w
}

const ammunitionColumns = `id, name, caliber, type, lot_number, depot_id, quantity, low_stock_threshold, expiry_date, created_at, updated_at`

func scanAmmunition(row interface{ Scan(...any) error }, a *models.Ammunition) error {
	return row.Scan(&a.ID, &a.Name, &a.Caliber, &a.Type, &a.LotNumber, &a.DepotID,
		&a.Quantity, &a.LowStockThreshold, &a.ExpiryDate, &a.CreatedAt, &a.UpdatedAt)
}

func (r *AmmunitionRepo) Create(ctx context.Context, a models.Ammunition) (models.Ammunition, error) {
	return createAmmunition(ctx, r.DB, a)
}

func createAmmunition(ctx context.Context, q dbtx, a models.Ammunition) (models.Ammunition, error) {
	a.ID = newID(a.ID)
	row := q.QueryRowContext(ctx,
		`INSERT INTO ammunition (id, name, caliber, type, lot_number, depot_id, quantity, low_stock_threshold, expiry_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+ammunitionColumns,
		a.ID, a.Name, a.Caliber, a.Type, a.LotNumber, a.DepotID, a.Quantity, a.LowStockThreshold, a.ExpiryDate,
	)
	var out models.Ammunition
	if err := scanAmmunition(row, &out); err != nil {
		return models.Ammunition{}, classify(err, "create ammunition "+a.ID)
	}
	return out, nil
}

func (r *AmmunitionRepo) Get(ctx context.Context, id string) (models.Ammunition, error) {
	var a models.Ammunition
	err := scanAmmunition(r.DB.QueryRowContext(ctx, `SELECT `+ammunitionColumns+` FROM ammunition WHERE id = $1`, id), &a)
	if err != nil {
		return models.Ammunition{}, classify(err, "ammunition "+id)
	}
	return a, nil
}

func (r *AmmunitionRepo) List(ctx context.Context, f AmmunitionFilter, p Page) ([]models.Ammunition, error) {
	w := f.where()
	lim, args := w.paginate(p)
	return r.query(ctx, `SELECT `+ammunitionColumns+` FROM ammunition`+w.String()+` ORDER BY caliber, name, id`+lim, args...)
}

func (r *AmmunitionRepo) All(ctx context.Context, f AmmunitionFilter) ([]models.Ammunition, error) {
	w := f.where()
	return r.query(ctx, `SELECT `+ammunitionColumns+` FROM ammunition`+w.String()+` ORDER BY caliber, name, id`, w.args...)
}

func (r *AmmunitionRepo) query(ctx context.Context, q string, args ...any) ([]models.Ammunition, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Ammunition{}
	for rows.Next() {
		var a models.Ammunition
		if err := scanAmmunition(rows, &a); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *AmmunitionRepo) Update(ctx context.Context, a models.Ammunition) (models.Ammunition, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE ammunition
		 SET name = $1, caliber = $2, type = $3, lot_number = $4, depot_id = $5, quantity = $6,
		     low_stock_threshold = $7, expiry_date = $8, updated_at = NOW()
		 WHERE id = $9
		 RETURNING `+ammunitionColumns,
		a.Name, a.Caliber, a.Type, a.LotNumber, a.DepotID, a.Quantity, a.LowStockThreshold, a.ExpiryDate, a.ID,
	)
	var out models.Ammunition
	if err := scanAmmunition(row, &out); err != nil {
		return models.Ammunition{}, classify(err, "update ammunition "+a.ID)
	}
	return out, nil
}

// Delete removes a lot; usage logs referencing it yield ErrInUse.
func (r *AmmunitionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM ammunition WHERE id = $1`, id)
	if err != nil {
		return classifyDelete(err, "delete ammunition "+id)
	}
	return requireAffected(res, "ammunition "+id)
}
