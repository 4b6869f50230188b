package main

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindNumber
	kindSelect
	kindDate
	kindTextarea
	kindCheckbox
	kindPassword
	// kindRounds is a textarea of "caliber=rounds" lines, sent as a map.
	kindRounds
	// kindItems is a textarea of "item_type item_id quantity" lines, sent as shipment items.
	kindItems
)

// field is one input of a resource form. Name is the JSON key the API expects.
type field struct {
	Name       string
	Label      string
	Kind       fieldKind
	Options    []string
	Required   bool
	CreateOnly bool
	Help       string
}

func (f field) IsSelect() bool   { return f.Kind == kindSelect }
func (f field) IsTextarea() bool { return f.Kind == kindTextarea || f.Kind == kindRounds || f.Kind == kindItems }
func (f field) IsCheckbox() bool { return f.Kind == kindCheckbox }

// InputType is the HTML input type for single-line fields.
func (f field) InputType() string {
	switch f.Kind {
	case kindNumber:
		return "number"
	case kindDate:
		return "date"
	case kindPassword:
		return "password"
	}
	return "text"
}

type column struct {
	Label string
	Key   string
}

// resource describes a CRUD section of the UI backed by the API path of the same name.
type resource struct {
	Name     string // URL segment, e.g. "depots"
	Title    string
	Singular string
	Columns  []column
	Fields   []field
	// Filters are query parameters passed through to the API list call.
	Filters []string
	// NoEdit hides edit pages for records the API only creates and deletes.
	NoEdit bool
	// Export is a CSV download link shown on the list page.
	Export string
}

var (
	depotStatuses    = []string{"active", "inactive"}
	firearmTypes     = []string{"rifle", "pistol", "shotgun", "machine_gun", "sniper_rifle", "other"}
	firearmStatuses  = []string{"operational", "maintenance", "decommissioned"}
	magazineStatuses = []string{"serviceable", "damaged", "retired"}
	ammoTypes        = []string{"fmj", "hp", "ap", "tracer", "blank", "other"}
	itemTypes        = []string{"firearm", "magazine", "ammunition"}
)

var resources = []resource{
	{
		Name: "depots", Title: "Depots", Singular: "depot",
		Columns: []column{{"ID", "id"}, {"Name", "name"}, {"Location", "location"}, {"Capacity", "capacity"}, {"Status", "status"}},
		Fields: []field{
			{Name: "id", Label: "ID", CreateOnly: true, Help: "e.g. DEPOT-A; generated when empty"},
			{Name: "name", Label: "Name", Required: true},
			{Name: "location", Label: "Location"},
			{Name: "capacity", Label: "Capacity", Kind: kindNumber},
			{Name: "status", Label: "Status", Kind: kindSelect, Options: depotStatuses},
			{Name: "notes", Label: "Notes", Kind: kindTextarea},
		},
		Filters: []string{"status"},
	},
	{
		Name: "firearms", Title: "Firearms", Singular: "firearm",
		Columns: []column{{"ID", "id"}, {"Name", "name"}, {"Type", "type"}, {"Caliber", "caliber"}, {"Depot", "depot_id"}, {"Qty", "quantity"}, {"Status", "status"}},
		Fields: []field{
			{Name: "id", Label: "ID", CreateOnly: true},
			{Name: "name", Label: "Name", Required: true},
			{Name: "manufacturer", Label: "Manufacturer"},
			{Name: "type", Label: "Type", Kind: kindSelect, Options: firearmTypes, Required: true},
			{Name: "caliber", Label: "Caliber", Required: true},
			{Name: "serial_number", Label: "Serial number"},
			{Name: "depot_id", Label: "Depot", Required: true},
			{Name: "quantity", Label: "Quantity", Kind: kindNumber},
			{Name: "status", Label: "Status", Kind: kindSelect, Options: firearmStatuses},
			{Name: "notes", Label: "Notes", Kind: kindTextarea},
		},
		Filters: []string{"depot_id", "caliber", "status", "type"},
		Export:  "/export/firearms.csv",
	},
	{
		Name: "magazines", Title: "Magazines", Singular: "magazine",
		Columns: []column{{"ID", "id"}, {"Name", "name"}, {"Caliber", "caliber"}, {"Capacity", "capacity"}, {"Depot", "depot_id"}, {"Qty", "quantity"}, {"Status", "status"}},
		Fields: []field{
			{Name: "id", Label: "ID", CreateOnly: true},
			{Name: "name", Label: "Name", Required: true},
			{Name: "caliber", Label: "Caliber", Required: true},
			{Name: "capacity", Label: "Capacity (rounds)", Kind: kindNumber, Required: true},
			{Name: "firearm_id", Label: "Firearm"},
			{Name: "depot_id", Label: "Depot", Required: true},
			{Name: "quantity", Label: "Quantity", Kind: kindNumber},
			{Name: "status", Label: "Status", Kind: kindSelect, Options: magazineStatuses},
		},
		Filters: []string{"depot_id", "caliber", "status"},
	},
	{
		Name: "ammunition", Title: "Ammunition", Singular: "ammunition lot",
		Columns: []column{{"ID", "id"}, {"Name", "name"}, {"Caliber", "caliber"}, {"Type", "type"}, {"Lot", "lot_number"}, {"Depot", "depot_id"}, {"Rounds", "quantity"}, {"Low at", "low_stock_threshold"}, {"Expires", "expiry_date"}},
		Fields: []field{
			{Name: "id", Label: "ID", CreateOnly: true},
			{Name: "name", Label: "Name", Required: true},
			{Name: "caliber", Label: "Caliber", Required: true},
			{Name: "type", Label: "Type", Kind: kindSelect, Options: ammoTypes, Required: true},
			{Name: "lot_number", Label: "Lot number"},
			{Name: "depot_id", Label: "Depot", Required: true},
			{Name: "quantity", Label: "Rounds", Kind: kindNumber},
			{Name: "low_stock_threshold", Label: "Low stock threshold", Kind: kindNumber},
			{Name: "expiry_date", Label: "Expiry date", Kind: kindDate},
		},
		Filters: []string{"depot_id", "caliber", "low"},
	},
	{
		Name: "shipments", Title: "Shipments", Singular: "shipment",
		Columns: []column{{"ID", "id"}, {"Type", "type"}, {"From", "from_depot_id"}, {"To", "to_depot_id"}, {"Items", "items"}, {"Status", "status"}, {"Created", "created_at"}},
		Fields: []field{
			{Name: "type", Label: "Type", Kind: kindSelect, Options: []string{"transfer", "receipt", "dispatch"}, Required: true},
			{Name: "from_depot_id", Label: "From depot", Help: "transfers and dispatches"},
			{Name: "to_depot_id", Label: "To depot", Help: "transfers and receipts"},
			{Name: "supplier", Label: "Supplier", Help: "receipts only"},
			{Name: "items", Label: "Items", Kind: kindItems, Required: true, Help: "one per line: item_type item_id quantity"},
			{Name: "notes", Label: "Notes", Kind: kindTextarea},
		},
		Filters: []string{"status", "type", "depot_id"},
		NoEdit:  true,
	},
	{
		Name: "scenarios", Title: "Usage scenarios", Singular: "scenario",
		Columns: []column{{"ID", "id"}, {"Name", "name"}, {"Rounds per person", "rounds_per_person"}},
		Fields: []field{
			{Name: "id", Label: "ID", CreateOnly: true},
			{Name: "name", Label: "Name", Required: true},
			{Name: "description", Label: "Description", Kind: kindTextarea},
			{Name: "rounds_per_person", Label: "Rounds per person", Kind: kindRounds, Required: true, Help: "one per line: caliber=rounds"},
		},
	},
	{
		Name: "usage", Title: "Usage logs", Singular: "usage log",
		Columns: []column{{"Used", "used_at"}, {"Lot", "ammunition_id"}, {"Depot", "depot_id"}, {"Caliber", "caliber"}, {"Rounds", "quantity"}, {"Scenario", "scenario_id"}},
		Fields: []field{
			{Name: "ammunition_id", Label: "Ammunition lot", Required: true},
			{Name: "quantity", Label: "Rounds used", Kind: kindNumber, Required: true},
			{Name: "scenario_id", Label: "Scenario"},
			{Name: "used_at", Label: "Date", Kind: kindDate},
			{Name: "notes", Label: "Notes", Kind: kindTextarea},
		},
		Filters: []string{"depot_id", "caliber", "from", "to"},
		NoEdit:  true,
	},
	{
		Name: "maintenance", Title: "Maintenance logs", Singular: "maintenance log",
		Columns: []column{{"Performed", "performed_at"}, {"Firearm", "firearm_id"}, {"Type", "type"}, {"Description", "description"}, {"Status", "status"}, {"Next due", "next_due_at"}},
		Fields: []field{
			{Name: "firearm_id", Label: "Firearm", Required: true},
			{Name: "type", Label: "Type", Kind: kindSelect, Options: []string{"inspection", "cleaning", "repair", "replacement"}, Required: true},
			{Name: "description", Label: "Description", Kind: kindTextarea, Required: true},
			{Name: "performed_by", Label: "Performed by"},
			{Name: "performed_at", Label: "Performed on", Kind: kindDate},
			{Name: "next_due_at", Label: "Next due", Kind: kindDate},
			{Name: "status", Label: "Status", Kind: kindSelect, Options: []string{"completed", "scheduled"}},
		},
		Filters: []string{"firearm_id", "status"},
	},
	{
		Name: "alerts", Title: "Alerts", Singular: "alert",
		Columns: []column{{"ID", "id"}, {"Name", "name"}, {"Item", "item_type"}, {"Caliber", "caliber"}, {"Depot", "depot_id"}, {"Threshold", "threshold"}, {"Enabled", "enabled"}},
		Fields: []field{
			{Name: "id", Label: "ID", CreateOnly: true},
			{Name: "name", Label: "Name", Required: true},
			{Name: "item_type", Label: "Item type", Kind: kindSelect, Options: itemTypes, Required: true},
			{Name: "caliber", Label: "Caliber", Help: "empty matches every caliber"},
			{Name: "depot_id", Label: "Depot", Help: "empty matches every depot"},
			{Name: "threshold", Label: "Alert below", Kind: kindNumber, Required: true},
			{Name: "enabled", Label: "Enabled", Kind: kindCheckbox},
		},
	},
	{
		Name: "users", Title: "Users", Singular: "user",
		Columns: []column{{"Username", "username"}, {"Role", "role"}},
		Fields: []field{
			{Name: "username", Label: "Username", Required: true},
			{Name: "password", Label: "Password", Kind: kindPassword, CreateOnly: true, Required: true},
			{Name: "role", Label: "Role", Kind: kindSelect, Options: []string{"viewer", "admin"}},
		},
	},
}

// formFields returns the fields shown on the create or edit form.
func (res resource) formFields(create bool) []field {
	out := make([]field, 0, len(res.Fields))
	for _, f := range res.Fields {
		if f.CreateOnly && !create {
			continue
		}
		out = append(out, f)
	}
	return out
}

// formToJSON converts submitted form values into the API request body.
// Empty optional values are left out so the API applies its defaults.
// Conversion problems are returned as field -> message.
func formToJSON(fields []field, form url.Values) (map[string]any, map[string]string) {
	body := map[string]any{}
	errs := map[string]string{}
	for _, f := range fields {
		raw := strings.TrimSpace(form.Get(f.Name))
		if f.Kind == kindCheckbox {
			body[f.Name] = raw == "on" || raw == "true"
			continue
		}
		if raw == "" {
			if f.Required {
				errs[f.Name] = "required"
			}
			continue
		}
		switch f.Kind {
		case kindNumber:
			n, err := strconv.Atoi(raw)
			if err != nil {
				errs[f.Name] = "must be a whole number"
				continue
			}
			body[f.Name] = n
		case kindDate:
			t, err := time.Parse(time.DateOnly, raw)
			if err != nil {
				errs[f.Name] = "must be a date (YYYY-MM-DD)"
				continue
			}
			body[f.Name] = t.UTC().Format(time.RFC3339)
		case kindRounds:
			m, err := parseRounds(raw)
			if err != nil {
				errs[f.Name] = err.Error()
				continue
			}
			body[f.Name] = m
		case kindItems:
			items, err := parseItems(raw)
			if err != nil {
				errs[f.Name] = err.Error()
				continue
			}
			body[f.Name] = items
		default:
			body[f.Name] = raw
		}
	}
	return body, errs
}

// parseRounds reads "caliber=rounds" lines.
func parseRounds(s string) (map[string]int, error) {
	out := map[string]int{}
	for i, line := range nonEmptyLines(s) {
		cal, n, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: want caliber=rounds", i+1)
		}
		rounds, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil, fmt.Errorf("line %d: rounds must be a whole number", i+1)
		}
		out[strings.TrimSpace(cal)] = rounds
	}
	return out, nil
}

// parseItems reads "item_type item_id quantity" lines.
func parseItems(s string) ([]map[string]any, error) {
	var out []map[string]any
	for i, line := range nonEmptyLines(s) {
		parts := strings.Fields(line)
		if len(parts) != 3 {
			return nil, fmt.Errorf("line %d: want item_type item_id quantity", i+1)
		}
		qty, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: quantity must be a whole number", i+1)
		}
		out = append(out, map[string]any{"item_type": parts[0], "item_id": parts[1], "quantity": qty})
	}
	return out, nil
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// formValues turns a decoded API record back into form values for editing.
func formValues(fields []field, rec map[string]any) map[string]string {
	out := map[string]string{}
	for _, f := range fields {
		v, ok := rec[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Kind {
		case kindDate:
			out[f.Name] = formatDate(v)
		case kindCheckbox:
			if b, _ := v.(bool); b {
				out[f.Name] = "on"
			}
		case kindRounds:
			m, _ := v.(map[string]any)
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			lines := make([]string, 0, len(keys))
			for _, k := range keys {
				lines = append(lines, k+"="+cell(m[k]))
			}
			out[f.Name] = strings.Join(lines, "\n")
		default:
			out[f.Name] = cell(v)
		}
	}
	return out
}

// submittedValues echoes the form back after a failed submit.
func submittedValues(fields []field, form url.Values) map[string]string {
	out := map[string]string{}
	for _, f := range fields {
		if f.Kind == kindPassword {
			continue
		}
		out[f.Name] = form.Get(f.Name)
	}
	return out
}
