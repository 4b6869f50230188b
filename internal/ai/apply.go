package ai

import (
	"fmt"
	"strings"

	"github.com/crucial707/ammotrack/internal/models"
)

// LotAllocation is the part of a move drawn from one ammunition lot.
type LotAllocation struct {
	AmmunitionID string `json:"ammunition_id" validate:"required"`
	Quantity     int    `json:"quantity" validate:"gt=0"`
}

// ApplyRequest is an accepted recommendation to turn into a shipment. It
// names either a single lot and quantity or the Lots a suggestion draws on.
type ApplyRequest struct {
	FromDepotID  string          `json:"from_depot_id" validate:"required"`
	ToDepotID    string          `json:"to_depot_id" validate:"required,nefield=FromDepotID"`
	AmmunitionID string          `json:"ammunition_id" validate:"required_without=Lots"`
	Quantity     int             `json:"quantity" validate:"required_without=Lots,gte=0"`
	Lots         []LotAllocation `json:"lots,omitempty" validate:"omitempty,min=1,dive"`
	Reason       string          `json:"reason"`
}

// Allocations returns the lots to ship, preferring Lots when set.
func (r ApplyRequest) Allocations() []LotAllocation {
	if len(r.Lots) > 0 {
		return r.Lots
	}
	return []LotAllocation{{AmmunitionID: r.AmmunitionID, Quantity: r.Quantity}}
}

// Shipment builds the pending transfer that carries out r.
func (r ApplyRequest) Shipment() models.Shipment {
	notes := "AI recommendation"
	if reason := strings.TrimSpace(r.Reason); reason != "" {
		notes = fmt.Sprintf("AI recommendation: %s", reason)
	}
	allocs := r.Allocations()
	items := make([]models.ShipmentItem, 0, len(allocs))
	for _, a := range allocs {
		items = append(items, models.ShipmentItem{ItemType: models.ItemAmmunition, ItemID: a.AmmunitionID, Quantity: a.Quantity})
	}
	return models.Shipment{
		Type:        models.ShipmentTransfer,
		FromDepotID: r.FromDepotID,
		ToDepotID:   r.ToDepotID,
		Items:       items,
		Notes:       notes,
	}
}
