package models

import "time"

const (
	ShipmentTransfer = "transfer"
	ShipmentReceipt  = "receipt"
	ShipmentDispatch = "dispatch"
)

const (
	ShipmentPending   = "pending"
	ShipmentInTransit = "in_transit"
	ShipmentDelivered = "delivered"
	ShipmentCancelled = "cancelled"
)

// Shipment records a transfer between depots, a receipt from a supplier, or a dispatch out of a depot.
type Shipment struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	FromDepotID string         `json:"from_depot_id,omitempty"`
	ToDepotID   string         `json:"to_depot_id,omitempty"`
	Supplier    string         `json:"supplier,omitempty"`
	Items       []ShipmentItem `json:"items"`
	Status      string         `json:"status"`
	ShippedAt   *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type ShipmentItem struct {
	ItemType string `json:"item_type"`
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// IsFinal reports whether the shipment can no longer change status.
func (s Shipment) IsFinal() bool {
	return s.Status == ShipmentDelivered || s.Status == ShipmentCancelled
}

// CanTransition reports whether a shipment in status from may move to status to.
func CanTransition(from, to string) bool {
	switch from {
	case ShipmentPending:
		return to == ShipmentInTransit || to == ShipmentDelivered || to == ShipmentCancelled
	case ShipmentInTransit:
		return to == ShipmentDelivered || to == ShipmentCancelled
	}
	return false
}
