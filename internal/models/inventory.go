package models

import "time"

// Item types used by shipments and alert definitions.
const (
	ItemFirearm    = "firearm"
	ItemMagazine   = "magazine"
	ItemAmmunition = "ammunition"
)

const (
	FirearmOperational    = "operational"
	FirearmMaintenance    = "maintenance"
	FirearmDecommissioned = "decommissioned"
)

// Firearm is a firearm definition stocked at a depot.
type Firearm struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Type         string    `json:"type"`
	Caliber      string    `json:"caliber"`
	SerialNumber string    `json:"serial_number,omitempty"`
	DepotID      string    `json:"depot_id"`
	Quantity     int       `json:"quantity"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	MagazineServiceable = "serviceable"
	MagazineDamaged     = "damaged"
	MagazineRetired     = "retired"
)

type Magazine struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Caliber   string    `json:"caliber"`
	Capacity  int       `json:"capacity"`
	FirearmID string    `json:"firearm_id,omitempty"`
	DepotID   string    `json:"depot_id"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ammunition is a lot of rounds of one caliber at one depot. Quantity counts rounds.
type Ammunition struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Caliber           string     `json:"caliber"`
	Type              string     `json:"type"`
	LotNumber         string     `json:"lot_number,omitempty"`
	DepotID           string     `json:"depot_id"`
	Quantity          int        `json:"quantity"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsLow reports whether the lot is at or below its own low-stock threshold.
func (a Ammunition) IsLow() bool {
	return a.LowStockThreshold > 0 && a.Quantity <= a.LowStockThreshold
}

// Snapshot is the full inventory view used by the dashboard and AI flows.
type Snapshot struct {
	Depots     []Depot      `json:"depots"`
	Firearms   []Firearm    `json:"firearms"`
	Magazines  []Magazine   `json:"magazines"`
	Ammunition []Ammunition `json:"ammunition"`
}

// DepotByID returns the depot with the given id.
func (s Snapshot) DepotByID(id string) (Depot, bool) {
	for _, d := range s.Depots {
		if d.ID == id {
			return d, true
		}
	}
	return Depot{}, false
}
