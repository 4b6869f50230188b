package handlers

import (
	"net/http"

	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/repo"
)

// MagazineHandler serves /magazines.
type MagazineHandler struct {
	Repo      *repo.MagazineRepo
	AuditRepo *repo.AuditRepo
}

type magazineInput struct {
	ID        string `json:"id" validate:"omitempty,max=64"`
	Name      string `json:"name" validate:"required,max=255"`
	Caliber   string `json:"caliber" validate:"required,max=64"`
	Capacity  int    `json:"capacity" validate:"gt=0"`
	FirearmID string `json:"firearm_id"`
	DepotID   string `json:"depot_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
	Status    string `json:"status" validate:"omitempty,oneof=serviceable damaged retired"`
}

func (in magazineInput) model() models.Magazine {
	status := in.Status
	if status == "" {
		status = models.MagazineServiceable
	}
	return models.Magazine{
		ID: in.ID, Name: in.Name, Caliber: in.Caliber, Capacity: in.Capacity, FirearmID: in.FirearmID,
		DepotID: in.DepotID, Quantity: in.Quantity, Status: status,
	}
}

func (h *MagazineHandler) CreateMagazine(w http.ResponseWriter, r *http.Request) {
	var input magazineInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	m, err := h.Repo.Create(r.Context(), input.model())
	recordAudit(r, h.AuditRepo, "create", "magazine", firstNonEmpty(m.ID, input.ID), err)
	if err != nil {
		writeRepoError(w, r, err, "magazine")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ListMagazines supports depot_id, caliber, firearm_id and status filters.
func (h *MagazineHandler) ListMagazines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := pageFromQuery(r)
	list, err := h.Repo.List(r.Context(), repo.MagazineFilter{
		DepotID:   q.Get("depot_id"),
		Caliber:   q.Get("caliber"),
		FirearmID: q.Get("firearm_id"),
		Status:    q.Get("status"),
	}, p)
	if err != nil {
		writeRepoError(w, r, err, "magazine")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(list, p))
}

func (h *MagazineHandler) GetMagazine(w http.ResponseWriter, r *http.Request) {
	m, err := h.Repo.Get(r.Context(), urlID(r))
	if err != nil {
		writeRepoError(w, r, err, "magazine")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MagazineHandler) UpdateMagazine(w http.ResponseWriter, r *http.Request) {
	var input magazineInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	m := input.model()
	m.ID = urlID(r)
	out, err := h.Repo.Update(r.Context(), m)
	recordAudit(r, h.AuditRepo, "update", "magazine", m.ID, err)
	if err != nil {
		writeRepoError(w, r, err, "magazine")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *MagazineHandler) DeleteMagazine(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	err := h.Repo.Delete(r.Context(), id)
	recordAudit(r, h.AuditRepo, "delete", "magazine", id, err)
	if err != nil {
		writeRepoError(w, r, err, "magazine")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
