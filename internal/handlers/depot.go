package handlers

import (
	"errors"
	"net/http"

	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/repo"
)

// ==========================
// DepotHandler
// ==========================
type DepotHandler struct {
	Repo      *repo.DepotRepo
	AuditRepo *repo.AuditRepo
}

type depotInput struct {
	ID       string `json:"id" validate:"omitempty,max=64"`
	Name     string `json:"name" validate:"required,max=255"`
	Location string `json:"location" validate:"max=255"`
	Capacity int    `json:"capacity" validate:"gte=0"`
	Status   string `json:"status" validate:"omitempty,oneof=active inactive"`
	Notes    string `json:"notes" validate:"max=2000"`
}

func (in depotInput) model() models.Depot {
	status := in.Status
	if status == "" {
		status = models.DepotActive
	}
	return models.Depot{ID: in.ID, Name: in.Name, Location: in.Location, Capacity: in.Capacity, Status: status, Notes: in.Notes}
}

// ==========================
// Create Depot
// ==========================
func (h *DepotHandler) CreateDepot(w http.ResponseWriter, r *http.Request) {
	var input depotInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	d, err := h.Repo.Create(r.Context(), input.model())
	recordAudit(r, h.AuditRepo, "create", "depot", firstNonEmpty(d.ID, input.ID), err)
	if err != nil {
		writeRepoError(w, r, err, "depot")
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// ==========================
// List Depots (filter: status)
// ==========================
func (h *DepotHandler) ListDepots(w http.ResponseWriter, r *http.Request) {
	p := pageFromQuery(r)
	depots, err := h.Repo.List(r.Context(), r.URL.Query().Get("status"), p)
	if err != nil {
		writeRepoError(w, r, err, "depot")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(depots, p))
}

// ==========================
// Get Depot
// ==========================
func (h *DepotHandler) GetDepot(w http.ResponseWriter, r *http.Request) {
	d, err := h.Repo.Get(r.Context(), urlID(r))
	if err != nil {
		writeRepoError(w, r, err, "depot")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ==========================
// Update Depot (id in the body is ignored)
// ==========================
func (h *DepotHandler) UpdateDepot(w http.ResponseWriter, r *http.Request) {
	var input depotInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	d := input.model()
	d.ID = urlID(r)

	out, err := h.Repo.Update(r.Context(), d)
	recordAudit(r, h.AuditRepo, "update", "depot", d.ID, err)
	if err != nil {
		writeRepoError(w, r, err, "depot")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ==========================
// Delete Depot (refused while inventory references it)
// ==========================
func (h *DepotHandler) DeleteDepot(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	err := h.Repo.Delete(r.Context(), id)
	recordAudit(r, h.AuditRepo, "delete", "depot", id, err)
	if errors.Is(err, repo.ErrInUse) {
		JSONError(w, "depot is referenced by inventory items", http.StatusConflict)
		return
	}
	if err != nil {
		writeRepoError(w, r, err, "depot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
