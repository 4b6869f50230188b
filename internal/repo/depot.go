package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/crucial707/ammotrack/internal/models"
)

// DepotRepo persists depots.
type DepotRepo struct {
	DB *sql.DB
}

func NewDepotRepo(db *sql.DB) *DepotRepo {
	return &DepotRepo{DB: db}
}

const depotColumns = `id, name, location, capacity, status, notes, created_at, updated_at`

func scanDepot(row interface{ Scan(...any) error }, d *models.Depot) error {
	return row.Scan(&d.ID, &d.Name, &d.Location, &d.Capacity, &d.Status, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
}

// Create inserts a depot. A duplicate id yields ErrConflict.
func (r *DepotRepo) Create(ctx context.Context, d models.Depot) (models.Depot, error) {
	d.ID = newID(d.ID)
	if d.Status == "" {
		d.Status = models.DepotActive
	}
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO depots (id, name, location, capacity, status, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+depotColumns,
		d.ID, d.Name, d.Location, d.Capacity, d.Status, d.Notes,
	)
	var out models.Depot
	if err := scanDepot(row, &out); err != nil {
		return models.Depot{}, classify(err, "create depot "+d.ID)
	}
	return out, nil
}

func (r *DepotRepo) Get(ctx context.Context, id string) (models.Depot, error) {
	var d models.Depot
	err := scanDepot(r.DB.QueryRowContext(ctx, `SELECT `+depotColumns+` FROM depots WHERE id = $1`, id), &d)
	if err != nil {
		return models.Depot{}, classify(err, "depot "+id)
	}
	return d, nil
}

// List returns depots ordered by id.
func (r *DepotRepo) List(ctx context.Context, status string, p Page) ([]models.Depot, error) {
	var w where
	w.eq("status", status)
	lim, args := w.paginate(p)
	return r.query(ctx, `SELECT `+depotColumns+` FROM depots`+w.String()+` ORDER BY id`+lim, args...)
}

// All returns every depot; the depot count is small by nature.
func (r *DepotRepo) All(ctx context.Context) ([]models.Depot, error) {
	return r.query(ctx, `SELECT `+depotColumns+` FROM depots ORDER BY id`)
}

func (r *DepotRepo) query(ctx context.Context, q string, args ...any) ([]models.Depot, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Depot{}
	for rows.Next() {
		var d models.Depot
		if err := scanDepot(rows, &d); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

func (r *DepotRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM depots").Scan(&n)
	return n, err
}

// Update replaces the mutable fields of a depot.
func (r *DepotRepo) Update(ctx context.Context, d models.Depot) (models.Depot, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE depots
		 SET name = $1, location = $2, capacity = $3, status = $4, notes = $5, updated_at = NOW()
		 WHERE id = $6
		 RETURNING `+depotColumns,
		d.Name, d.Location, d.Capacity, d.Status, d.Notes, d.ID,
	)
	var out models.Depot
	if err := scanDepot(row, &out); err != nil {
		return models.Depot{}, classify(err, "update depot "+d.ID)
	}
	return out, nil
}

// References counts rows in other collections that point at the depot.
func (r *DepotRepo) References(ctx context.Context, id string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM firearms WHERE depot_id = $1) +
		   (SELECT COUNT(*) FROM magazines WHERE depot_id = $1) +
		   (SELECT COUNT(*) FROM ammunition WHERE depot_id = $1) +
		   (SELECT COUNT(*) FROM usage_logs WHERE depot_id = $1) +
		   (SELECT COUNT(*) FROM shipments WHERE from_depot_id = $1 OR to_depot_id = $1)`,
		id,
	).Scan(&n)
	return n, err
}

// Delete removes a depot. It fails with ErrInUse while inventory, usage logs
// or shipments still reference it.
func (r *DepotRepo) Delete(ctx context.Context, id string) error {
	refs, err := r.References(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("depot %s has %d references: %w", id, refs, ErrInUse)
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM depots WHERE id = $1`, id)
	if err != nil {
		return classifyDelete(err, "delete depot "+id)
	}
	return requireAffected(res, "depot "+id)
}
