package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/ammotrack/internal/csvexport"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/repo"
)

// ==========================
// FirearmHandler
// ==========================
type FirearmHandler struct {
	Repo      *repo.FirearmRepo
	AuditRepo *repo.AuditRepo
}

type firearmInput struct {
	ID           string `json:"id" validate:"omitempty,max=64"`
	Name         string `json:"name" validate:"required,max=255"`
	Manufacturer string `json:"manufacturer" validate:"max=255"`
	Type         string `json:"type" validate:"required,oneof=rifle pistol shotgun machine_gun sniper_rifle other"`
	Caliber      string `json:"caliber" validate:"required,max=64"`
	SerialNumber string `json:"serial_number" validate:"max=128"`
	DepotID      string `json:"depot_id" validate:"required"`
	Quantity     int    `json:"quantity" validate:"gte=0"`
	Status       string `json:"status" validate:"omitempty,oneof=operational maintenance decommissioned"`
	Notes        string `json:"notes" validate:"max=2000"`
}

func (in firearmInput) model() models.Firearm {
	status := in.Status
	if status == "" {
		status = models.FirearmOperational
	}
	return models.Firearm{
		ID: in.ID, Name: in.Name, Manufacturer: in.Manufacturer, Type: in.Type, Caliber: in.Caliber,
		SerialNumber: in.SerialNumber, DepotID: in.DepotID, Quantity: in.Quantity, Status: status, Notes: in.Notes,
	}
}

func firearmFilter(r *http.Request) repo.FirearmFilter {
	q := r.URL.Query()
	return repo.FirearmFilter{
		DepotID: q.Get("depot_id"),
		Caliber: q.Get("caliber"),
		Status:  q.Get("status"),
		Type:    q.Get("type"),
	}
}

// ==========================
// Create Firearm
// ==========================
func (h *FirearmHandler) CreateFirearm(w http.ResponseWriter, r *http.Request) {
	var input firearmInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	f, err := h.Repo.Create(r.Context(), input.model())
	recordAudit(r, h.AuditRepo, "create", "firearm", firstNonEmpty(f.ID, input.ID), err)
	if err != nil {
		writeRepoError(w, r, err, "firearm")
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// ==========================
// List Firearms (filters: depot_id, caliber, status, type)
// ==========================
func (h *FirearmHandler) ListFirearms(w http.ResponseWriter, r *http.Request) {
	p := pageFromQuery(r)
	list, err := h.Repo.List(r.Context(), firearmFilter(r), p)
	if err != nil {
		writeRepoError(w, r, err, "firearm")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(list, p))
}

func (h *FirearmHandler) GetFirearm(w http.ResponseWriter, r *http.Request) {
	f, err := h.Repo.Get(r.Context(), urlID(r))
	if err != nil {
		writeRepoError(w, r, err, "firearm")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// ==========================
// Update Firearm
// ==========================
func (h *FirearmHandler) UpdateFirearm(w http.ResponseWriter, r *http.Request) {
	var input firearmInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	f := input.model()
	f.ID = urlID(r)

	out, err := h.Repo.Update(r.Context(), f)
	recordAudit(r, h.AuditRepo, "update", "firearm", f.ID, err)
	if err != nil {
		writeRepoError(w, r, err, "firearm")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ==========================
// Delete Firearm
// ==========================
func (h *FirearmHandler) DeleteFirearm(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	err := h.Repo.Delete(r.Context(), id)
	recordAudit(r, h.AuditRepo, "delete", "firearm", id, err)
	if err != nil {
		writeRepoError(w, r, err, "firearm")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ==========================
// Export Firearms as CSV (same filters as list, no pagination)
// ==========================
func (h *FirearmHandler) ExportFirearms(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.All(r.Context(), firearmFilter(r))
	if err != nil {
		writeRepoError(w, r, err, "firearm")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+csvexport.Filename("firearms", time.Now())+`"`)
	if err := csvexport.Firearms(w, list); err != nil {
		slog.Error("firearm export failed", "err", err)
	}
	recordAudit(r, h.AuditRepo, "export", "firearm", "", nil)
}
