package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crucial707/ammotrack/internal/models"
)

// UsageLogRepo persists ammunition usage and keeps lot quantities in step.
type UsageLogRepo struct {
	DB *sql.DB
}

func NewUsageLogRepo(db *sql.DB) *UsageLogRepo {
	return &UsageLogRepo{DB: db}
}

type UsageFilter struct {
	DepotID string
	Caliber string
	// From is inclusive and To exclusive. Zero values leave the range open.
	From time.Time
	To   time.Time
}

func (f UsageFilter) where() *where {
	w := &where{}
	w.eq("depot_id", f.DepotID)
	w.eq("caliber", f.Caliber)
	if !f.From.IsZero() {
		w.add("used_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		w.add("used_at < $%d", f.To)
	}
	return w
}

const usageColumns = `id, ammunition_id, depot_id, caliber, quantity, COALESCE(scenario_id, ''), used_at, notes, created_at`

func scanUsage(row interface{ Scan(...any) error }, u *models.UsageLog) error {
	return row.Scan(&u.ID, &u.AmmunitionID, &u.DepotID, &u.Caliber, &u.Quantity, &u.ScenarioID,
		&u.UsedAt, &u.Notes, &u.CreatedAt)
}

// Create records usage from an ammunition lot and decrements the lot. The
// depot and caliber are taken from the lot. A shortage yields ErrInsufficientStock.
func (r *UsageLogRepo) Create(ctx context.Context, u models.UsageLog) (models.UsageLog, error) {
	u.ID = newID(u.ID)
	if u.UsedAt.IsZero() {
		u.UsedAt = time.Now().UTC()
	}
	t := stockTables[models.ItemAmmunition]

	var out models.UsageLog
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		lot, err := lockStockItem(ctx, tx, t, u.AmmunitionID)
		if err != nil {
			return err
		}
		if err := decrementStock(ctx, tx, t, lot.ID, u.Quantity); err != nil {
			return err
		}
		row := tx.QueryRowContext(ctx,
			`INSERT INTO usage_logs (id, ammunition_id, depot_id, caliber, quantity, scenario_id, used_at, notes)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
			 RETURNING `+usageColumns,
			u.ID, lot.ID, lot.DepotID, lot.Caliber, u.Quantity, u.ScenarioID, u.UsedAt, u.Notes,
		)
		return scanUsage(row, &out)
	})
	if err != nil {
		return models.UsageLog{}, classify(err, "record usage "+u.ID)
	}
	return out, nil
}

func (r *UsageLogRepo) List(ctx context.Context, f UsageFilter, p Page) ([]models.UsageLog, error) {
	w := f.where()
	lim, args := w.paginate(p)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+usageColumns+` FROM usage_logs`+w.String()+` ORDER BY used_at DESC, id`+lim, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.UsageLog{}
	for rows.Next() {
		var u models.UsageLog
		if err := scanUsage(rows, &u); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// SumByCaliber totals rounds used per caliber, largest first.
func (r *UsageLogRepo) SumByCaliber(ctx context.Context, f UsageFilter) ([]models.CaliberUsage, error) {
	w := f.where()
	rows, err := r.DB.QueryContext(ctx,
		`SELECT caliber, SUM(quantity) FROM usage_logs`+w.String()+` GROUP BY caliber ORDER BY SUM(quantity) DESC, caliber`,
		w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CaliberUsage{}
	for rows.Next() {
		var c models.CaliberUsage
		if err := rows.Scan(&c.Caliber, &c.Rounds); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a usage log and returns its rounds to the lot.
func (r *UsageLogRepo) Delete(ctx context.Context, id string) error {
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var lotID string
		var qty int
		err := tx.QueryRowContext(ctx,
			`DELETE FROM usage_logs WHERE id = $1 RETURNING ammunition_id, quantity`, id,
		).Scan(&lotID, &qty)
		if err != nil {
			return err
		}
		return incrementStock(ctx, tx, stockTables[models.ItemAmmunition], lotID, qty)
	})
	if err != nil {
		return classify(err, fmt.Sprintf("usage log %s", id))
	}
	return nil
}
