package models

import "time"

// AlertDefinition triggers when the summed quantity of matching items drops below Threshold.
// Empty Caliber or DepotID match everything.
type AlertDefinition struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ItemType  string    `json:"item_type"`
	Caliber   string    `json:"caliber,omitempty"`
	DepotID   string    `json:"depot_id,omitempty"`
	Threshold int       `json:"threshold"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TriggeredAlert is an alert definition whose condition currently holds.
type TriggeredAlert struct {
	Alert    AlertDefinition `json:"alert"`
	Quantity int             `json:"quantity"`
}
