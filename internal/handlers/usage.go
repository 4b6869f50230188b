package handlers

import (
	"net/http"
	"time"

	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/repo"
)

// UsageHandler records ammunition consumption.
type UsageHandler struct {
	Repo      *repo.UsageLogRepo
	AuditRepo *repo.AuditRepo
}

const defaultUsageWindow = 30 * 24 * time.Hour

// parseTime accepts RFC 3339 timestamps and plain dates. dateOnly reports
// which form s was in.
func parseTime(s string) (t time.Time, dateOnly, ok bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}

// usageFilter reads depot_id, caliber, from and to. fields collects bad dates.
// A plain to date includes that whole day.
func usageFilter(r *http.Request, fields map[string]string) repo.UsageFilter {
	q := r.URL.Query()
	f := repo.UsageFilter{DepotID: q.Get("depot_id"), Caliber: q.Get("caliber")}
	for name, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		t, dateOnly, ok := parseTime(v)
		if !ok {
			fields[name] = "datetime"
			continue
		}
		if name == "to" && dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		*dst = t
	}
	return f
}

func (h *UsageHandler) CreateUsage(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AmmunitionID string    `json:"ammunition_id" validate:"required"`
		Quantity     int       `json:"quantity" validate:"gt=0"`
		ScenarioID   string    `json:"scenario_id"`
		UsedAt       time.Time `json:"used_at"`
		Notes        string    `json:"notes" validate:"max=2000"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}

	u, err := h.Repo.Create(r.Context(), models.UsageLog{
		AmmunitionID: input.AmmunitionID,
		Quantity:     input.Quantity,
		ScenarioID:   input.ScenarioID,
		UsedAt:       input.UsedAt,
		Notes:        input.Notes,
	})
	recordAudit(r, h.AuditRepo, "create", "usage_log", u.ID, err)
	if err != nil {
		writeRepoError(w, r, err, "usage log")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UsageHandler) ListUsage(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{}
	f := usageFilter(r, fields)
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}
	p := pageFromQuery(r)
	list, err := h.Repo.List(r.Context(), f, p)
	if err != nil {
		writeRepoError(w, r, err, "usage log")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(list, p))
}

// DeleteUsage removes a log and returns its rounds to the lot.
func (h *UsageHandler) DeleteUsage(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	err := h.Repo.Delete(r.Context(), id)
	recordAudit(r, h.AuditRepo, "delete", "usage_log", id, err)
	if err != nil {
		writeRepoError(w, r, err, "usage log")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UsageSummary totals rounds used per caliber; from defaults to 30 days ago.
func (h *UsageHandler) UsageSummary(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{}
	f := usageFilter(r, fields)
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}
	if f.From.IsZero() {
		f.From = time.Now().UTC().Add(-defaultUsageWindow)
	}
	totals, err := h.Repo.SumByCaliber(r.Context(), f)
	if err != nil {
		writeRepoError(w, r, err, "usage log")
		return
	}
	out := map[string]any{
		"from":   f.From,
		"totals": totals,
	}
	if !f.To.IsZero() {
		out["to"] = f.To
	}
	if f.DepotID != "" {
		out["depot_id"] = f.DepotID
	}
	writeJSON(w, http.StatusOK, out)
}
