package models

import "time"

const (
	DepotActive   = "active"
	DepotInactive = "inactive"
)

// Depot is a named storage location holding firearms, magazines and ammunition.
type Depot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Capacity  int       `json:"capacity"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
