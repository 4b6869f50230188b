package models

import (
	"sort"
	"time"
)

// UsageScenario is a consumption profile: rounds per person by caliber.
type UsageScenario struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	RoundsPerPerson map[string]int `json:"rounds_per_person"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Calibers returns the scenario's calibers in sorted order.
func (s UsageScenario) Calibers() []string {
	out := make([]string, 0, len(s.RoundsPerPerson))
	for c := range s.RoundsPerPerson {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// UsageLog records rounds consumed from an ammunition lot.
type UsageLog struct {
	ID           string    `json:"id"`
	AmmunitionID string    `json:"ammunition_id"`
	DepotID      string    `json:"depot_id"`
	Caliber      string    `json:"caliber"`
	Quantity     int       `json:"quantity"`
	ScenarioID   string    `json:"scenario_id,omitempty"`
	UsedAt       time.Time `json:"used_at"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CaliberUsage is the total rounds used for one caliber.
type CaliberUsage struct {
	Caliber string `json:"caliber"`
	Rounds  int    `json:"rounds"`
}

// CaliberNeed is the projected requirement for one caliber.
type CaliberNeed struct {
	Caliber   string `json:"caliber"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
	Shortfall int    `json:"shortfall"`
}

// Projection is the result of applying a scenario to a number of personnel.
type Projection struct {
	ScenarioID string        `json:"scenario_id"`
	Personnel  int           `json:"personnel"`
	DepotID    string        `json:"depot_id,omitempty"`
	Needs      []CaliberNeed `json:"needs"`
	Sufficient bool          `json:"sufficient"`
}
