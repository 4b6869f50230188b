// Package stock holds the pure inventory computations shared by the API,
// the alert scheduler and the AI flows.
package stock

import (
	"sort"
	"time"

	"github.com/crucial707/ammotrack/internal/models"
)

// DepotCaliberTotal is the number of rounds of one caliber held at one depot.
type DepotCaliberTotal struct {
	DepotID string `json:"depot_id"`
	Caliber string `json:"caliber"`
	Rounds  int    `json:"rounds"`
}

// AvailableByCaliber sums ammunition rounds per caliber. An empty depotID
// counts every depot.
func AvailableByCaliber(ammo []models.Ammunition, depotID string) map[string]int {
	out := map[string]int{}
	for _, a := range ammo {
		if depotID != "" && a.DepotID != depotID {
			continue
		}
		out[a.Caliber] += a.Quantity
	}
	return out
}

// ProjectNeeds applies a scenario to personnel and compares the required
// rounds with what is on hand. Needs are returned in caliber order.
func ProjectNeeds(s models.UsageScenario, personnel int, depotID string, ammo []models.Ammunition) models.Projection {
	avail := AvailableByCaliber(ammo, depotID)
	p := models.Projection{
		ScenarioID: s.ID,
		Personnel:  personnel,
		DepotID:    depotID,
		Needs:      []models.CaliberNeed{},
		Sufficient: true,
	}
	for _, c := range s.Calibers() {
		need := models.CaliberNeed{
			Caliber:   c,
			Required:  s.RoundsPerPerson[c] * personnel,
			Available: avail[c],
		}
		if need.Required > need.Available {
			need.Shortfall = need.Required - need.Available
			p.Sufficient = false
		}
		p.Needs = append(p.Needs, need)
	}
	return p
}

// TotalsByDepotCaliber groups ammunition by depot and caliber, ordered by
// depot then caliber.
func TotalsByDepotCaliber(ammo []models.Ammunition) []DepotCaliberTotal {
	type key struct{ depot, caliber string }
	sums := map[key]int{}
	for _, a := range ammo {
		sums[key{a.DepotID, a.Caliber}] += a.Quantity
	}
	out := make([]DepotCaliberTotal, 0, len(sums))
	for k, n := range sums {
		out = append(out, DepotCaliberTotal{DepotID: k.depot, Caliber: k.caliber, Rounds: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DepotID != out[j].DepotID {
			return out[i].DepotID < out[j].DepotID
		}
		return out[i].Caliber < out[j].Caliber
	})
	return out
}

// SumUsage totals rounds per caliber, largest first.
func SumUsage(logs []models.UsageLog) []models.CaliberUsage {
	sums := map[string]int{}
	for _, l := range logs {
		sums[l.Caliber] += l.Quantity
	}
	out := make([]models.CaliberUsage, 0, len(sums))
	for c, n := range sums {
		out = append(out, models.CaliberUsage{Caliber: c, Rounds: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rounds != out[j].Rounds {
			return out[i].Rounds > out[j].Rounds
		}
		return out[i].Caliber < out[j].Caliber
	})
	return out
}

// LowStock returns the lots at or below their own threshold.
func LowStock(ammo []models.Ammunition) []models.Ammunition {
	out := []models.Ammunition{}
	for _, a := range ammo {
		if a.IsLow() {
			out = append(out, a)
		}
	}
	return out
}

// Expiring returns lots whose expiry date falls before now+within.
func Expiring(ammo []models.Ammunition, now time.Time, within time.Duration) []models.Ammunition {
	cutoff := now.Add(within)
	out := []models.Ammunition{}
	for _, a := range ammo {
		if a.ExpiryDate != nil && a.ExpiryDate.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

// QuantityFor sums the stock an alert definition watches.
func QuantityFor(def models.AlertDefinition, snap models.Snapshot) int {
	match := func(depot, caliber string) bool {
		return (def.DepotID == "" || def.DepotID == depot) && (def.Caliber == "" || def.Caliber == caliber)
	}
	n := 0
	switch def.ItemType {
	case models.ItemAmmunition:
		for _, a := range snap.Ammunition {
			if match(a.DepotID, a.Caliber) {
				n += a.Quantity
			}
		}
	case models.ItemMagazine:
		for _, m := range snap.Magazines {
			if match(m.DepotID, m.Caliber) {
				n += m.Quantity
			}
		}
	case models.ItemFirearm:
		for _, f := range snap.Firearms {
			if match(f.DepotID, f.Caliber) {
				n += f.Quantity
			}
		}
	}
	return n
}

// EvaluateAlerts returns the enabled definitions whose watched quantity is
// below their threshold.
func EvaluateAlerts(defs []models.AlertDefinition, snap models.Snapshot) []models.TriggeredAlert {
	out := []models.TriggeredAlert{}
	for _, d := range defs {
		if !d.Enabled {
			continue
		}
		if q := QuantityFor(d, snap); q < d.Threshold {
			out = append(out, models.TriggeredAlert{Alert: d, Quantity: q})
		}
	}
	return out
}
