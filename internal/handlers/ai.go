package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/ammotrack/internal/ai"
	"github.com/crucial707/ammotrack/internal/repo"
)

// ==========================
// AIHandler
// ==========================
type AIHandler struct {
	StockBalancing *ai.StockBalancingFlow
	Rebalancing    *ai.RebalancingFlow
	Inventory      *repo.InventoryRepo
	Scenarios      *repo.ScenarioRepo
	Usage          *repo.UsageLogRepo
	Shipments      *repo.ShipmentRepo
	AuditRepo      *repo.AuditRepo
	Timeout        time.Duration
}

func (h *AIHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.Timeout)
}

func writeAIError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ai.ErrDisabled):
		JSONError(w, "ai is not configured", http.StatusServiceUnavailable)
	case errors.Is(err, ai.ErrInvalidInput):
		JSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ai.ErrProvider), errors.Is(err, context.DeadlineExceeded):
		slog.Error("ai flow failed", "path", r.URL.Path, "err", err)
		JSONError(w, "ai provider error", http.StatusBadGateway)
	default:
		writeRepoError(w, r, err, "ai")
	}
}

// ==========================
// Stock Balancing
// ==========================
func (h *AIHandler) StockBalancingRun(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ScenarioID string         `json:"scenario_id" validate:"required"`
		Personnel  map[string]int `json:"personnel" validate:"required,min=1,dive,keys,required,endkeys,gte=0"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}
	scenario, err := h.Scenarios.Get(r.Context(), input.ScenarioID)
	if err != nil {
		writeRepoError(w, r, err, "scenario")
		return
	}
	snap, err := h.Inventory.Snapshot(r.Context())
	if err != nil {
		writeRepoError(w, r, err, "inventory")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	out, err := h.StockBalancing.Run(ctx, ai.StockBalancingInput{
		Scenario:  scenario,
		Personnel: input.Personnel,
		Snapshot:  snap,
	})
	recordAudit(r, h.AuditRepo, "run", "ai_stock_balancing", input.ScenarioID, err)
	if err != nil {
		writeAIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ==========================
// Rebalancing Suggestions
// ==========================
func (h *AIHandler) RebalancingRun(w http.ResponseWriter, r *http.Request) {
	var input struct {
		WindowDays int `json:"window_days" validate:"omitempty,gte=1,lte=365"`
	}
	if !decodeOptional(w, r, &input) {
		return
	}
	if input.WindowDays == 0 {
		input.WindowDays = ai.DefaultWindowDays
	}
	snap, err := h.Inventory.Snapshot(r.Context())
	if err != nil {
		writeRepoError(w, r, err, "inventory")
		return
	}
	since := time.Now().UTC().AddDate(0, 0, -input.WindowDays)
	usage, err := h.Usage.SumByCaliber(r.Context(), repo.UsageFilter{From: since})
	if err != nil {
		writeRepoError(w, r, err, "usage log")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	out, err := h.Rebalancing.Run(ctx, ai.RebalancingInput{
		Snapshot:   snap,
		Usage:      usage,
		WindowDays: input.WindowDays,
	})
	recordAudit(r, h.AuditRepo, "run", "ai_rebalancing", "", err)
	if err != nil {
		writeAIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ==========================
// Apply Recommendation (creates a pending transfer)
// ==========================
func (h *AIHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var input ai.ApplyRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}
	s, err := h.Shipments.Create(r.Context(), input.Shipment())
	recordAudit(r, h.AuditRepo, "apply_ai_recommendation", "shipment", s.ID, err)
	if err != nil {
		writeRepoError(w, r, err, "shipment")
		return
	}
	writeJSON(w, http.StatusCreated, s)
}
