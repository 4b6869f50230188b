package handlers

import (
	"net/http"

	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/repo"
)

// ==========================
// ShipmentHandler
// ==========================
type ShipmentHandler struct {
	Repo      *repo.ShipmentRepo
	AuditRepo *repo.AuditRepo
}

type shipmentItemInput struct {
	ItemType string `json:"item_type" validate:"required,oneof=firearm magazine ammunition"`
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

type shipmentInput struct {
	Type        string              `json:"type" validate:"required,oneof=transfer receipt dispatch"`
	FromDepotID string              `json:"from_depot_id"`
	ToDepotID   string              `json:"to_depot_id"`
	Supplier    string              `json:"supplier" validate:"max=255"`
	Items       []shipmentItemInput `json:"items" validate:"required,min=1,dive"`
	Notes       string              `json:"notes" validate:"max=2000"`
}

// check enforces the depot fields each shipment type needs.
func (in shipmentInput) check() map[string]string {
	fields := map[string]string{}
	switch in.Type {
	case models.ShipmentTransfer:
		if in.FromDepotID == "" {
			fields["from_depot_id"] = "required"
		}
		if in.ToDepotID == "" {
			fields["to_depot_id"] = "required"
		}
		if in.FromDepotID != "" && in.FromDepotID == in.ToDepotID {
			fields["to_depot_id"] = "nefield=from_depot_id"
		}
	case models.ShipmentReceipt:
		if in.ToDepotID == "" {
			fields["to_depot_id"] = "required"
		}
		if in.FromDepotID != "" {
			fields["from_depot_id"] = "excluded"
		}
	case models.ShipmentDispatch:
		if in.FromDepotID == "" {
			fields["from_depot_id"] = "required"
		}
		if in.ToDepotID != "" {
			fields["to_depot_id"] = "excluded"
		}
	}
	if in.Supplier != "" && in.Type != models.ShipmentReceipt {
		fields["supplier"] = "excluded"
	}
	return fields
}

func (in shipmentInput) model() models.Shipment {
	items := make([]models.ShipmentItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, models.ShipmentItem{ItemType: it.ItemType, ItemID: it.ItemID, Quantity: it.Quantity})
	}
	return models.Shipment{
		Type: in.Type, FromDepotID: in.FromDepotID, ToDepotID: in.ToDepotID,
		Supplier: in.Supplier, Items: items, Notes: in.Notes,
	}
}

// ==========================
// Create Shipment (always starts pending)
// ==========================
func (h *ShipmentHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	var input shipmentInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	if fields := input.check(); len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	s, err := h.Repo.Create(r.Context(), input.model())
	recordAudit(r, h.AuditRepo, "create", "shipment", s.ID, err)
	if err != nil {
		writeRepoError(w, r, err, "shipment")
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// ==========================
// List Shipments (filters: status, type, depot_id)
// ==========================
func (h *ShipmentHandler) ListShipments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := pageFromQuery(r)
	list, err := h.Repo.List(r.Context(), repo.ShipmentFilter{
		Status:  q.Get("status"),
		Type:    q.Get("type"),
		DepotID: q.Get("depot_id"),
	}, p)
	if err != nil {
		writeRepoError(w, r, err, "shipment")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(list, p))
}

func (h *ShipmentHandler) GetShipment(w http.ResponseWriter, r *http.Request) {
	s, err := h.Repo.Get(r.Context(), urlID(r))
	if err != nil {
		writeRepoError(w, r, err, "shipment")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ==========================
// Update Shipment Status (delivery moves stock)
// ==========================
func (h *ShipmentHandler) UpdateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status string `json:"status" validate:"required,oneof=in_transit delivered cancelled"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}
	id := urlID(r)

	s, err := h.Repo.UpdateStatus(r.Context(), id, input.Status)
	recordAudit(r, h.AuditRepo, "status_"+input.Status, "shipment", id, err)
	if err != nil {
		writeRepoError(w, r, err, "shipment")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ==========================
// Delete Shipment (delivered shipments are kept)
// ==========================
func (h *ShipmentHandler) DeleteShipment(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	err := h.Repo.Delete(r.Context(), id)
	recordAudit(r, h.AuditRepo, "delete", "shipment", id, err)
	if err != nil {
		writeRepoError(w, r, err, "shipment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
