package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crucial707/ammotrack/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// stockTable describes how stock of one item type is stored.
type stockTable struct {
	name string
	// copySQL clones a row into another depot: $1 new id, $2 depot, $3 quantity, $4 source id.
	copySQL string
}

var stockTables = map[string]stockTable{
	models.ItemFirearm: {
		name: "firearms",
		copySQL: `INSERT INTO firearms (id, name, manufacturer, type, caliber, serial_number, depot_id, quantity, status, notes)
		          SELECT $1, name, manufacturer, type, caliber, NULL, $2, $3, status, notes FROM firearms WHERE id = $4`,
	},
	models.ItemMagazine: {
		name: "magazines",
		copySQL: `INSERT INTO magazines (id, name, caliber, capacity, firearm_id, depot_id, quantity, status)
		          SELECT $1, name, caliber, capacity, firearm_id, $2, $3, status FROM magazines WHERE id = $4`,
	},
	models.ItemAmmunition: {
		name: "ammunition",
		copySQL: `INSERT INTO ammunition (id, name, caliber, type, lot_number, depot_id, quantity, low_stock_threshold, expiry_date)
		          SELECT $1, name, caliber, type, lot_number, $2, $3, low_stock_threshold, expiry_date FROM ammunition WHERE id = $4`,
	},
}

func tableFor(itemType string) (stockTable, error) {
	t, ok := stockTables[itemType]
	if !ok {
		return stockTable{}, fmt.Errorf("item type %q: %w", itemType, ErrUnknownReference)
	}
	return t, nil
}

// stockItem is the identity of a stock row used to match it across depots.
type stockItem struct {
	ID       string
	Name     string
	Caliber  string
	DepotID  string
	Quantity int
}

func lockStockItem(ctx context.Context, q dbtx, t stockTable, id string) (stockItem, error) {
	var it stockItem
	err := q.QueryRowContext(ctx,
		`SELECT id, name, caliber, depot_id, quantity FROM `+t.name+` WHERE id = $1 FOR UPDATE`, id,
	).Scan(&it.ID, &it.Name, &it.Caliber, &it.DepotID, &it.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return it, fmt.Errorf("%s %s: %w", t.name, id, ErrUnknownReference)
	}
	return it, err
}

// checkStockItem verifies the item exists and, when depotID is set, is stocked there.
func checkStockItem(ctx context.Context, q dbtx, item models.ShipmentItem, depotID string) error {
	t, err := tableFor(item.ItemType)
	if err != nil {
		return err
	}
	var at string
	err = q.QueryRowContext(ctx, `SELECT depot_id FROM `+t.name+` WHERE id = $1`, item.ItemID).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", item.ItemType, item.ItemID, ErrUnknownReference)
	}
	if err != nil {
		return err
	}
	if depotID != "" && at != depotID {
		return fmt.Errorf("%s %s is stocked at %s, not %s: %w", item.ItemType, item.ItemID, at, depotID, ErrUnknownReference)
	}
	return nil
}

func decrementStock(ctx context.Context, q dbtx, t stockTable, id string, qty int) error {
	res, err := q.ExecContext(ctx,
		`UPDATE `+t.name+` SET quantity = quantity - $1, updated_at = NOW() WHERE id = $2 AND quantity >= $1`,
		qty, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s needs %d: %w", t.name, id, qty, ErrInsufficientStock)
	}
	return nil
}

func incrementStock(ctx context.Context, q dbtx, t stockTable, id string, qty int) error {
	_, err := q.ExecContext(ctx,
		`UPDATE `+t.name+` SET quantity = quantity + $1, updated_at = NOW() WHERE id = $2`,
		qty, id,
	)
	return err
}

// transferStock moves qty of src into depot, merging into a row with the same
// name and caliber when one exists there, otherwise cloning src.
func transferStock(ctx context.Context, q dbtx, t stockTable, src stockItem, depot string, qty int) error {
	if err := decrementStock(ctx, q, t, src.ID, qty); err != nil {
		return err
	}
	var destID string
	err := q.QueryRowContext(ctx,
		`SELECT id FROM `+t.name+` WHERE depot_id = $1 AND name = $2 AND caliber = $3 ORDER BY id LIMIT 1`,
		depot, src.Name, src.Caliber,
	).Scan(&destID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = q.ExecContext(ctx, t.copySQL, uuid.NewString(), depot, qty, src.ID)
		return err
	case err != nil:
		return err
	}
	return incrementStock(ctx, q, t, destID, qty)
}

// applyShipment performs the stock movements of a delivered shipment.
func applyShipment(ctx context.Context, q dbtx, s models.Shipment) error {
	for _, item := range s.Items {
		t, err := tableFor(item.ItemType)
		if err != nil {
			return err
		}
		it, err := lockStockItem(ctx, q, t, item.ItemID)
		if err != nil {
			return err
		}
		// The row may have been moved to another depot since the shipment was created.
		at := s.FromDepotID
		if s.Type == models.ShipmentReceipt {
			at = s.ToDepotID
		}
		if it.DepotID != at {
			return fmt.Errorf("%s %s is not at %s: %w", item.ItemType, it.ID, at, ErrUnknownReference)
		}
		switch s.Type {
		case models.ShipmentTransfer:
			err = transferStock(ctx, q, t, it, s.ToDepotID, item.Quantity)
		case models.ShipmentReceipt:
			err = incrementStock(ctx, q, t, it.ID, item.Quantity)
		case models.ShipmentDispatch:
			err = decrementStock(ctx, q, t, it.ID, item.Quantity)
		default:
			err = fmt.Errorf("shipment type %q: %w", s.Type, ErrInvalidTransition)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// InventoryRepo reads across the stock collections.
type InventoryRepo struct {
	Depots     *DepotRepo
	Firearms   *FirearmRepo
	Magazines  *MagazineRepo
	Ammunition *AmmunitionRepo
}

func NewInventoryRepo(db *sql.DB) *InventoryRepo {
	return &InventoryRepo{
		Depots:     NewDepotRepo(db),
		Firearms:   NewFirearmRepo(db),
		Magazines:  NewMagazineRepo(db),
		Ammunition: NewAmmunitionRepo(db),
	}
}

// Snapshot loads every depot and stock row concurrently.
func (r *InventoryRepo) Snapshot(ctx context.Context) (models.Snapshot, error) {
	var s models.Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.Depots, err = r.Depots.All(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.Firearms, err = r.Firearms.All(ctx, FirearmFilter{})
		return err
	})
	g.Go(func() (err error) {
		s.Magazines, err = r.Magazines.All(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.Ammunition, err = r.Ammunition.All(ctx, AmmunitionFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Snapshot{}, fmt.Errorf("inventory snapshot: %w", err)
	}
	return s, nil
}
