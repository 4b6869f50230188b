package handlers

import (
	"net/http"
	"time"

	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/repo"
)

// MaintenanceHandler serves /maintenance.
type MaintenanceHandler struct {
	Repo      *repo.MaintenanceRepo
	AuditRepo *repo.AuditRepo
}

type maintenanceInput struct {
	FirearmID   string     `json:"firearm_id" validate:"required"`
	Type        string     `json:"type" validate:"required,oneof=inspection cleaning repair replacement"`
	Description string     `json:"description" validate:"required,max=2000"`
	PerformedBy string     `json:"performed_by" validate:"max=255"`
	PerformedAt time.Time  `json:"performed_at"`
	NextDueAt   *time.Time `json:"next_due_at"`
	Status      string     `json:"status" validate:"omitempty,oneof=scheduled completed"`
}

func (in maintenanceInput) model() models.MaintenanceLog {
	m := models.MaintenanceLog{
		FirearmID: in.FirearmID, Type: in.Type, Description: in.Description, PerformedBy: in.PerformedBy,
		PerformedAt: in.PerformedAt, NextDueAt: in.NextDueAt, Status: in.Status,
	}
	if m.PerformedAt.IsZero() {
		m.PerformedAt = time.Now().UTC()
	}
	if m.Status == "" {
		m.Status = models.MaintenanceCompleted
	}
	return m
}

func (h *MaintenanceHandler) CreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var input maintenanceInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	m, err := h.Repo.Create(r.Context(), input.model())
	recordAudit(r, h.AuditRepo, "create", "maintenance_log", m.ID, err)
	if err != nil {
		writeRepoError(w, r, err, "maintenance log")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MaintenanceHandler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := pageFromQuery(r)
	list, err := h.Repo.List(r.Context(), repo.MaintenanceFilter{FirearmID: q.Get("firearm_id"), Status: q.Get("status")}, p)
	if err != nil {
		writeRepoError(w, r, err, "maintenance log")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(list, p))
}

func (h *MaintenanceHandler) GetMaintenance(w http.ResponseWriter, r *http.Request) {
	m, err := h.Repo.Get(r.Context(), urlID(r))
	if err != nil {
		writeRepoError(w, r, err, "maintenance log")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MaintenanceHandler) UpdateMaintenance(w http.ResponseWriter, r *http.Request) {
	var input maintenanceInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	m := input.model()
	m.ID = urlID(r)
	out, err := h.Repo.Update(r.Context(), m)
	recordAudit(r, h.AuditRepo, "update", "maintenance_log", m.ID, err)
	if err != nil {
		writeRepoError(w, r, err, "maintenance log")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *MaintenanceHandler) DeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	err := h.Repo.Delete(r.Context(), id)
	recordAudit(r, h.AuditRepo, "delete", "maintenance_log", id, err)
	if err != nil {
		writeRepoError(w, r, err, "maintenance log")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
