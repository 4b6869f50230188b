package handlers

import (
	"net/http"
	"time"

	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/repo"
	"github.com/crucial707/ammotrack/internal/stock"
)

// InventoryHandler serves the cross-collection snapshot used by the dashboard.
type InventoryHandler struct {
	Repo *repo.InventoryRepo
}

const expiryHorizon = 90 * 24 * time.Hour

type snapshotResponse struct {
	models.Snapshot
	Totals   []stock.DepotCaliberTotal `json:"totals"`
	LowStock []models.Ammunition       `json:"low_stock"`
	Expiring []models.Ammunition       `json:"expiring"`
}

func (h *InventoryHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Repo.Snapshot(r.Context())
	if err != nil {
		writeRepoError(w, r, err, "inventory")
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{
		Snapshot: snap,
		Totals:   stock.TotalsByDepotCaliber(snap.Ammunition),
		LowStock: stock.LowStock(snap.Ammunition),
		Expiring: stock.Expiring(snap.Ammunition, time.Now(), expiryHorizon),
	})
}
