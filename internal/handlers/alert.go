package handlers

import (
	"net/http"

	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/repo"
	"github.com/crucial707/ammotrack/internal/stock"
)

// AlertHandler manages alert definitions and reports which are triggered.
type AlertHandler struct {
	Repo      *repo.AlertRepo
	Inventory *repo.InventoryRepo
	AuditRepo *repo.AuditRepo
}

type alertInput struct {
	ID        string `json:"id" validate:"omitempty,max=64"`
	Name      string `json:"name" validate:"required,max=255"`
	ItemType  string `json:"item_type" validate:"required,oneof=firearm magazine ammunition"`
	Caliber   string `json:"caliber" validate:"max=64"`
	DepotID   string `json:"depot_id"`
	Threshold int    `json:"threshold" validate:"gte=0"`
	Enabled   *bool  `json:"enabled"`
}

func (in alertInput) model() models.AlertDefinition {
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	return models.AlertDefinition{
		ID: in.ID, Name: in.Name, ItemType: in.ItemType, Caliber: in.Caliber,
		DepotID: in.DepotID, Threshold: in.Threshold, Enabled: enabled,
	}
}

func (h *AlertHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var input alertInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	a, err := h.Repo.Create(r.Context(), input.model())
	recordAudit(r, h.AuditRepo, "create", "alert", firstNonEmpty(a.ID, input.ID), err)
	if err != nil {
		writeRepoError(w, r, err, "alert")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	p := pageFromQuery(r)
	list, err := h.Repo.List(r.Context(), p)
	if err != nil {
		writeRepoError(w, r, err, "alert")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(list, p))
}

func (h *AlertHandler) GetAlert(w http.ResponseWriter, r *http.Request) {
	a, err := h.Repo.Get(r.Context(), urlID(r))
	if err != nil {
		writeRepoError(w, r, err, "alert")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AlertHandler) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	var input alertInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	a := input.model()
	a.ID = urlID(r)
	out, err := h.Repo.Update(r.Context(), a)
	recordAudit(r, h.AuditRepo, "update", "alert", a.ID, err)
	if err != nil {
		writeRepoError(w, r, err, "alert")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AlertHandler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	err := h.Repo.Delete(r.Context(), id)
	recordAudit(r, h.AuditRepo, "delete", "alert", id, err)
	if err != nil {
		writeRepoError(w, r, err, "alert")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActiveAlerts evaluates enabled definitions against current stock.
func (h *AlertHandler) ActiveAlerts(w http.ResponseWriter, r *http.Request) {
	defs, err := h.Repo.ListEnabled(r.Context())
	if err != nil {
		writeRepoError(w, r, err, "alert")
		return
	}
	snap, err := h.Inventory.Snapshot(r.Context())
	if err != nil {
		writeRepoError(w, r, err, "inventory")
		return
	}
	writeJSON(w, http.StatusOK, stock.EvaluateAlerts(defs, snap))
}
