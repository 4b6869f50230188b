package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/crucial707/ammotrack/internal/ai"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/stock"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// ==========================
// Dashboard
// ==========================

type depotRow struct {
	DepotID string
	Rounds  []stock.DepotCaliberTotal
}

func dashboard(api *apiClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := token(r)
		var (
			snap struct {
				models.Snapshot
				Totals   []stock.DepotCaliberTotal `json:"totals"`
				LowStock []models.Ammunition       `json:"low_stock"`
				Expiring []models.Ammunition       `json:"expiring"`
			}
			alerts []models.TriggeredAlert
			usage  struct {
				Totals []models.CaliberUsage `json:"totals"`
			}
		)
		var g errgroup.Group
		g.Go(func() error { return api.getJSON("/inventory/snapshot", tok, &snap) })
		g.Go(func() error { return api.getJSON("/alerts/active", tok, &alerts) })
		g.Go(func() error { return api.getJSON("/usage/summary", tok, &usage) })
		if err := g.Wait(); err != nil {
			if handleAPIFailure(w, r, err) {
				return
			}
			page(w, r, "dashboard.html", map[string]any{"Error": err.Error()})
			return
		}

		page(w, r, "dashboard.html", map[string]any{
			"DepotCount":    len(snap.Depots),
			"FirearmCount":  len(snap.Firearms),
			"MagazineCount": len(snap.Magazines),
			"LotCount":      len(snap.Ammunition),
			"Depots":        groupByDepot(snap.Totals),
			"LowStock":      snap.LowStock,
			"Expiring":      snap.Expiring,
			"Alerts":        alerts,
			"Usage":         usage.Totals,
		})
	}
}

// groupByDepot keeps the depot order of totals, which is already sorted.
func groupByDepot(totals []stock.DepotCaliberTotal) []depotRow {
	var rows []depotRow
	for _, t := range totals {
		if len(rows) == 0 || rows[len(rows)-1].DepotID != t.DepotID {
			rows = append(rows, depotRow{DepotID: t.DepotID})
		}
		rows[len(rows)-1].Rounds = append(rows[len(rows)-1].Rounds, t)
	}
	return rows
}

// ==========================
// Shipments
// ==========================

func shipmentDetail(api *apiClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var s models.Shipment
		if err := api.getJSON("/shipments/"+url.PathEscape(id), token(r), &s); err != nil {
			if handleAPIFailure(w, r, err) {
				return
			}
			redirectWithFlash(w, r, "/shipments", "error", err.Error())
			return
		}
		var next []string
		for _, st := range []string{models.ShipmentInTransit, models.ShipmentDelivered, models.ShipmentCancelled} {
			if models.CanTransition(s.Status, st) {
				next = append(next, st)
			}
		}
		page(w, r, "shipment.html", map[string]any{"Shipment": s, "Next": next})
	}
}

func shipmentStatus(api *apiClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		back := "/shipments/" + url.PathEscape(id)
		status := r.FormValue("status")
		data, code, err := api.post(back+"/status", token(r), map[string]string{"status": status})
		switch {
		case err != nil:
			redirectWithFlash(w, r, back, "error", "Cannot reach API: "+err.Error())
		case code == http.StatusUnauthorized:
			clearAuthAndRedirectToLogin(w, r)
		case code != http.StatusOK:
			redirectWithFlash(w, r, back, "error", "Status change failed: "+newAPIError(code, data).Message)
		default:
			redirectWithFlash(w, r, back, "success", "Shipment marked "+humanize(status)+".")
		}
	}
}

// ==========================
// Scenario projection
// ==========================

func scenarioProjectForm(api *apiClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s models.UsageScenario
		if err := api.getJSON("/scenarios/"+url.PathEscape(chi.URLParam(r, "id")), token(r), &s); err != nil {
			if handleAPIFailure(w, r, err) {
				return
			}
			redirectWithFlash(w, r, "/scenarios", "error", err.Error())
			return
		}
		page(w, r, "project.html", map[string]any{"Scenario": s})
	}
}

func scenarioProject(api *apiClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := url.PathEscape(chi.URLParam(r, "id"))
		tok := token(r)
		var s models.UsageScenario
		if err := api.getJSON("/scenarios/"+id, tok, &s); err != nil {
			if handleAPIFailure(w, r, err) {
				return
			}
			redirectWithFlash(w, r, "/scenarios", "error", err.Error())
			return
		}
		personnel, err := strconv.Atoi(strings.TrimSpace(r.FormValue("personnel")))
		if err != nil || personnel < 0 {
			page(w, r, "project.html", map[string]any{"Scenario": s, "Error": "Personnel must be a whole number of 0 or more."})
			return
		}
		depotID := strings.TrimSpace(r.FormValue("depot_id"))

		data, code, err := api.post("/scenarios/"+id+"/project", tok, map[string]any{"personnel": personnel, "depot_id": depotID})
		if err != nil {
			page(w, r, "project.html", map[string]any{"Scenario": s, "Error": err.Error()})
			return
		}
		if code != http.StatusOK {
			page(w, r, "project.html", map[string]any{"Scenario": s, "Error": newAPIError(code, data).Message})
			return
		}
		var p models.Projection
		if err := decodeJSON(data, &p); err != nil {
			page(w, r, "project.html", map[string]any{"Scenario": s, "Error": "Invalid projection response"})
			return
		}
		page(w, r, "project.html", map[string]any{
			"Scenario":   s,
			"Projection": p,
			"Personnel":  personnel,
			"DepotID":    depotID,
		})
	}
}

// ==========================
// Audit log and CSV exports
// ==========================

func auditList(api *apiClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := url.Values{}
		for _, k := range []string{"resource_type", "status", "username"} {
			if v := r.URL.Query().Get(k); v != "" {
				q.Set(k, v)
			}
		}
		q.Set("limit", "100")
		var out struct {
			Items []models.AuditEntry `json:"items"`
		}
		data := map[string]any{
			"ResourceType": q.Get("resource_type"),
			"Status":       q.Get("status"),
			"Username":     q.Get("username"),
		}
		if err := api.getJSON("/audit?"+q.Encode(), token(r), &out); err != nil {
			if handleAPIFailure(w, r, err) {
				return
			}
			data["Error"] = err.Error()
		}
		data["Entries"] = out.Items
		page(w, r, "audit.html", data)
	}
}

// exportCSV streams a CSV download from the API, which needs the bearer token
// a plain link cannot carry.
func exportCSV(api *apiClient, apiPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, api.base+apiPath+"?"+r.URL.RawQuery, nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		req.Header.Set("Authorization", "Bearer "+token(r))
		resp, err := api.hc.Do(req)
		if err != nil {
			http.Error(w, "cannot reach API", http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusUnauthorized {
			clearAuthAndRedirectToLogin(w, r)
			return
		}
		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(resp.Body)
			redirectWithFlash(w, r, "/dashboard", "error", "Export failed: "+newAPIError(resp.StatusCode, data).Message)
			return
		}
		for _, h := range []string{"Content-Type", "Content-Disposition"} {
			w.Header().Set(h, resp.Header.Get(h))
		}
		io.Copy(w, resp.Body)
	}
}

// ==========================
// AI
// ==========================

func aiPage(api *apiClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page(w, r, "ai.html", aiPageData(api, r))
	}
}

// aiPageData loads the scenario and depot choices shown by both AI forms.
func aiPageData(api *apiClient, r *http.Request) map[string]any {
	tok := token(r)
	var scenarios, depots struct {
		Items []map[string]any `json:"items"`
	}
	data := map[string]any{"WindowDays": ai.DefaultWindowDays, "ScenarioID": ""}
	if err := api.getJSON("/scenarios?limit=200", tok, &scenarios); err != nil {
		data["Error"] = err.Error()
	}
	if err := api.getJSON("/depots?limit=200", tok, &depots); err != nil {
		data["Error"] = err.Error()
	}
	data["Scenarios"] = scenarios.Items
	data["Depots"] = depots.Items
	return data
}

func aiStockBalancing(api *apiClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := aiPageData(api, r)
		scenarioID := r.FormValue("scenario_id")
		personnel, err := parsePersonnel(r.FormValue("personnel"))
		data["ScenarioID"] = scenarioID
		data["PersonnelText"] = r.FormValue("personnel")
		if err != nil {
			data["Error"] = err.Error()
			page(w, r, "ai.html", data)
			return
		}

		body, code, err := api.post("/ai/stock-balancing", token(r), map[string]any{
			"scenario_id": scenarioID,
			"personnel":   personnel,
		})
		if err != nil || code != http.StatusOK {
			data["Error"] = aiFailure(code, body, err)
			page(w, r, "ai.html", data)
			return
		}
		var out ai.StockBalancingOutput
		if err := decodeJSON(body, &out); err != nil {
			data["Error"] = "Invalid AI response"
		}
		data["Balancing"] = out
		page(w, r, "ai.html", data)
	}
}

func aiRebalancing(api *apiClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := aiPageData(api, r)
		days, err := strconv.Atoi(r.FormValue("window_days"))
		if err != nil || days <= 0 {
			days = ai.DefaultWindowDays
		}
		data["WindowDays"] = days

		body, code, err := api.post("/ai/rebalancing", token(r), map[string]int{"window_days": days})
		if err != nil || code != http.StatusOK {
			data["Error"] = aiFailure(code, body, err)
			page(w, r, "ai.html", data)
			return
		}
		var out ai.RebalancingOutput
		if err := decodeJSON(body, &out); err != nil {
			data["Error"] = "Invalid AI response"
		}
		data["Rebalancing"] = out
		page(w, r, "ai.html", data)
	}
}

func aiApply(api *apiClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithFlash(w, r, "/ai", "error", "Invalid form submission.")
			return
		}
		lots, err := parseLots(r.PostForm["lots"])
		if err != nil {
			redirectWithFlash(w, r, "/ai", "error", err.Error())
			return
		}
		qty, _ := strconv.Atoi(r.FormValue("quantity"))
		data, code, err := api.post("/ai/apply", token(r), ai.ApplyRequest{
			FromDepotID:  r.FormValue("from_depot_id"),
			ToDepotID:    r.FormValue("to_depot_id"),
			AmmunitionID: r.FormValue("ammunition_id"),
			Quantity:     qty,
			Lots:         lots,
			Reason:       r.FormValue("reason"),
		})
		switch {
		case err != nil:
			redirectWithFlash(w, r, "/ai", "error", "Cannot reach API: "+err.Error())
		case code == http.StatusUnauthorized:
			clearAuthAndRedirectToLogin(w, r)
		case code != http.StatusCreated:
			redirectWithFlash(w, r, "/ai", "error", "Apply failed: "+newAPIError(code, data).Message)
		default:
			var s models.Shipment
			_ = decodeJSON(data, &s)
			redirectWithFlash(w, r, "/shipments/"+url.PathEscape(s.ID), "success", "Pending transfer created from the recommendation.")
		}
	}
}

// parseLots reads "LOT-ID=rounds" values posted by the apply forms.
func parseLots(values []string) ([]ai.LotAllocation, error) {
	var lots []ai.LotAllocation
	for _, v := range values {
		id, n, ok := strings.Cut(v, "=")
		qty, err := strconv.Atoi(strings.TrimSpace(n))
		if !ok || strings.TrimSpace(id) == "" || err != nil || qty <= 0 {
			return nil, fmt.Errorf("invalid lot %q", v)
		}
		lots = append(lots, ai.LotAllocation{AmmunitionID: strings.TrimSpace(id), Quantity: qty})
	}
	return lots, nil
}

func aiFailure(code int, body []byte, err error) string {
	if err != nil {
		return "Cannot reach API: " + err.Error()
	}
	if code == http.StatusServiceUnavailable {
		return "AI is not configured on the server."
	}
	return newAPIError(code, body).Message
}

// parsePersonnel reads "DEPOT-A=120" lines into depot -> personnel.
func parsePersonnel(s string) (map[string]int, error) {
	m, err := parseRounds(s)
	if err != nil {
		return nil, fmt.Errorf("personnel: %w", err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("personnel: enter at least one depot=count line")
	}
	return m, nil
}

// sortedKeys is used by templates that list map entries in order.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
