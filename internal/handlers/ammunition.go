package handlers

import (
	"net/http"
	"time"

	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/repo"
)

// AmmunitionHandler serves /ammunition. Quantities are rounds.
type AmmunitionHandler struct {
	Repo      *repo.AmmunitionRepo
	AuditRepo *repo.AuditRepo
}

type ammunitionInput struct {
	ID                string     `json:"id" validate:"omitempty,max=64"`
	Name              string     `json:"name" validate:"required,max=255"`
	Caliber           string     `json:"caliber" validate:"required,max=64"`
	Type              string     `json:"type" validate:"required,oneof=fmj hp ap tracer blank other"`
	LotNumber         string     `json:"lot_number" validate:"max=128"`
	DepotID           string     `json:"depot_id" validate:"required"`
	Quantity          int        `json:"quantity" validate:"gte=0"`
	LowStockThreshold int        `json:"low_stock_threshold" validate:"gte=0"`
	ExpiryDate        *time.Time `json:"expiry_date"`
}

func (in ammunitionInput) model() models.Ammunition {
	return models.Ammunition{
		ID: in.ID, Name: in.Name, Caliber: in.Caliber, Type: in.Type, LotNumber: in.LotNumber,
		DepotID: in.DepotID, Quantity: in.Quantity, LowStockThreshold: in.LowStockThreshold, ExpiryDate: in.ExpiryDate,
	}
}

func (h *AmmunitionHandler) CreateAmmunition(w http.ResponseWriter, r *http.Request) {
	var input ammunitionInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	a, err := h.Repo.Create(r.Context(), input.model())
	recordAudit(r, h.AuditRepo, "create", "ammunition", firstNonEmpty(a.ID, input.ID), err)
	if err != nil {
		writeRepoError(w, r, err, "ammunition")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ListAmmunition supports depot_id, caliber, type and low=true filters.
func (h *AmmunitionHandler) ListAmmunition(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := pageFromQuery(r)
	list, err := h.Repo.List(r.Context(), repo.AmmunitionFilter{
		DepotID: q.Get("depot_id"),
		Caliber: q.Get("caliber"),
		Type:    q.Get("type"),
		LowOnly: q.Get("low") == "true",
	}, p)
	if err != nil {
		writeRepoError(w, r, err, "ammunition")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(list, p))
}

func (h *AmmunitionHandler) GetAmmunition(w http.ResponseWriter, r *http.Request) {
	a, err := h.Repo.Get(r.Context(), urlID(r))
	if err != nil {
		writeRepoError(w, r, err, "ammunition")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AmmunitionHandler) UpdateAmmunition(w http.ResponseWriter, r *http.Request) {
	var input ammunitionInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	a := input.model()
	a.ID = urlID(r)
	out, err := h.Repo.Update(r.Context(), a)
	recordAudit(r, h.AuditRepo, "update", "ammunition", a.ID, err)
	if err != nil {
		writeRepoError(w, r, err, "ammunition")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AmmunitionHandler) DeleteAmmunition(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	err := h.Repo.Delete(r.Context(), id)
	recordAudit(r, h.AuditRepo, "delete", "ammunition", id, err)
	if err != nil {
		writeRepoError(w, r, err, "ammunition")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
