package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/crucial707/ammotrack/internal/models"
)

// ShipmentRepo persists shipments and applies their stock movements on delivery.
type ShipmentRepo struct {
	DB *sql.DB
}

func NewShipmentRepo(db *sql.DB) *ShipmentRepo {
	return &ShipmentRepo{DB: db}
}

type ShipmentFilter struct {
	Status  string
	Type    string
	DepotID string // matches either end
}

const shipmentColumns = `id, type, COALESCE(from_depot_id, ''), COALESCE(to_depot_id, ''), supplier, items, status, shipped_at, delivered_at, notes, created_at, updated_at`

func scanShipment(row interface{ Scan(...any) error }, s *models.Shipment) error {
	var items []byte
	if err := row.Scan(&s.ID, &s.Type, &s.FromDepotID, &s.ToDepotID, &s.Supplier, &items, &s.Status,
		&s.ShippedAt, &s.DeliveredAt, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	s.Items = []models.ShipmentItem{}
	if len(items) == 0 {
		return nil
	}
	return json.Unmarshal(items, &s.Items)
}

// Create inserts a pending shipment after checking that every item exists at
// the depot it leaves from (transfer, dispatch) or arrives at (receipt).
func (r *ShipmentRepo) Create(ctx context.Context, s models.Shipment) (models.Shipment, error) {
	s.ID = newID(s.ID)
	s.Status = models.ShipmentPending
	items, err := json.Marshal(s.Items)
	if err != nil {
		return models.Shipment{}, err
	}

	var out models.Shipment
	err = withTx(ctx, r.DB, func(tx *sql.Tx) error {
		at := s.FromDepotID
		if s.Type == models.ShipmentReceipt {
			at = s.ToDepotID
		}
		for _, item := range s.Items {
			if err := checkStockItem(ctx, tx, item, at); err != nil {
				return err
			}
		}
		row := tx.QueryRowContext(ctx,
			`INSERT INTO shipments (id, type, from_depot_id, to_depot_id, supplier, items, status, notes)
			 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8)
			 RETURNING `+shipmentColumns,
			s.ID, s.Type, s.FromDepotID, s.ToDepotID, s.Supplier, string(items), s.Status, s.Notes,
		)
		return scanShipment(row, &out)
	})
	if err != nil {
		return models.Shipment{}, classify(err, "create shipment "+s.ID)
	}
	return out, nil
}

func (r *ShipmentRepo) Get(ctx context.Context, id string) (models.Shipment, error) {
	var s models.Shipment
	err := scanShipment(r.DB.QueryRowContext(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id), &s)
	if err != nil {
		return models.Shipment{}, classify(err, "shipment "+id)
	}
	return s, nil
}

// List returns shipments, newest first.
func (r *ShipmentRepo) List(ctx context.Context, f ShipmentFilter, p Page) ([]models.Shipment, error) {
	var w where
	w.eq("status", f.Status)
	w.eq("type", f.Type)
	if f.DepotID != "" {
		w.add("(from_depot_id = $%[1]d OR to_depot_id = $%[1]d)", f.DepotID)
	}
	lim, args := w.paginate(p)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments`+w.String()+` ORDER BY created_at DESC, id`+lim, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Shipment{}
	for rows.Next() {
		var s models.Shipment
		if err := scanShipment(rows, &s); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// UpdateStatus moves a shipment to status. Delivery applies the stock
// movements in the same transaction, so a shortage leaves nothing changed.
func (r *ShipmentRepo) UpdateStatus(ctx context.Context, id, status string) (models.Shipment, error) {
	var out models.Shipment
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var cur models.Shipment
		row := tx.QueryRowContext(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1 FOR UPDATE`, id)
		if err := scanShipment(row, &cur); err != nil {
			return err
		}
		if !models.CanTransition(cur.Status, status) {
			return fmt.Errorf("%s -> %s: %w", cur.Status, status, ErrInvalidTransition)
		}
		if status == models.ShipmentDelivered {
			if err := applyShipment(ctx, tx, cur); err != nil {
				return err
			}
		}
		row = tx.QueryRowContext(ctx,
			`UPDATE shipments
			 SET status = $1,
			     shipped_at = CASE WHEN $1::text IN ('in_transit', 'delivered') THEN COALESCE(shipped_at, NOW()) ELSE shipped_at END,
			     delivered_at = CASE WHEN $1::text = 'delivered' THEN NOW() ELSE delivered_at END,
			     updated_at = NOW()
			 WHERE id = $2
			 RETURNING `+shipmentColumns,
			status, id,
		)
		return scanShipment(row, &out)
	})
	if err != nil {
		return models.Shipment{}, classify(err, "shipment "+id)
	}
	return out, nil
}

// Delete removes a shipment that has not been delivered.
func (r *ShipmentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM shipments WHERE id = $1 AND status <> 'delivered'`, id)
	if err != nil {
		return classifyDelete(err, "delete shipment "+id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("shipment %s is delivered: %w", id, ErrInvalidTransition)
}
