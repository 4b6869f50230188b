package handlers

import (
	"net/http"

	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/repo"
	"github.com/crucial707/ammotrack/internal/stock"
)

// ScenarioHandler serves /scenarios and needs projections.
type ScenarioHandler struct {
	Repo       *repo.ScenarioRepo
	Ammunition *repo.AmmunitionRepo
	AuditRepo  *repo.AuditRepo
}

type scenarioInput struct {
	ID              string         `json:"id" validate:"omitempty,max=64"`
	Name            string         `json:"name" validate:"required,max=255"`
	Description     string         `json:"description" validate:"max=2000"`
	RoundsPerPerson map[string]int `json:"rounds_per_person" validate:"required,min=1,dive,keys,required,max=64,endkeys,gt=0"`
}

func (in scenarioInput) model() models.UsageScenario {
	return models.UsageScenario{ID: in.ID, Name: in.Name, Description: in.Description, RoundsPerPerson: in.RoundsPerPerson}
}

func (h *ScenarioHandler) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var input scenarioInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	s, err := h.Repo.Create(r.Context(), input.model())
	recordAudit(r, h.AuditRepo, "create", "usage_scenario", firstNonEmpty(s.ID, input.ID), err)
	if err != nil {
		writeRepoError(w, r, err, "scenario")
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *ScenarioHandler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	p := pageFromQuery(r)
	list, err := h.Repo.List(r.Context(), p)
	if err != nil {
		writeRepoError(w, r, err, "scenario")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(list, p))
}

func (h *ScenarioHandler) GetScenario(w http.ResponseWriter, r *http.Request) {
	s, err := h.Repo.Get(r.Context(), urlID(r))
	if err != nil {
		writeRepoError(w, r, err, "scenario")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *ScenarioHandler) UpdateScenario(w http.ResponseWriter, r *http.Request) {
	var input scenarioInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	s := input.model()
	s.ID = urlID(r)
	out, err := h.Repo.Update(r.Context(), s)
	recordAudit(r, h.AuditRepo, "update", "usage_scenario", s.ID, err)
	if err != nil {
		writeRepoError(w, r, err, "scenario")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ScenarioHandler) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	err := h.Repo.Delete(r.Context(), id)
	recordAudit(r, h.AuditRepo, "delete", "usage_scenario", id, err)
	if err != nil {
		writeRepoError(w, r, err, "scenario")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProjectScenario multiplies the scenario's rounds per person by personnel and
// compares the result with ammunition on hand, at one depot or across all.
func (h *ScenarioHandler) ProjectScenario(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Personnel int    `json:"personnel" validate:"gte=0"`
		DepotID   string `json:"depot_id"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}
	s, err := h.Repo.Get(r.Context(), urlID(r))
	if err != nil {
		writeRepoError(w, r, err, "scenario")
		return
	}
	ammo, err := h.Ammunition.All(r.Context(), repo.AmmunitionFilter{DepotID: input.DepotID})
	if err != nil {
		writeRepoError(w, r, err, "ammunition")
		return
	}
	writeJSON(w, http.StatusOK, stock.ProjectNeeds(s, input.Personnel, input.DepotID, ammo))
}
