package main

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
)

//go:embed templates
var templatesFS embed.FS

var funcs = template.FuncMap{
	"cell":  cell,
	"human": humanize,
	"field": func(m map[string]string, k string) string { return m[k] },
	"date":  formatDate,
	"keys":  sortedKeys,
}

// page renders name inside the layout, adding the pending flash and the
// caller's role to data.
func page(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if f := popFlash(w, r); f != nil {
		data["Flash"] = f
	}
	data["IsAdmin"] = isAdmin(r)
	data["Path"] = r.URL.Path
	renderTemplate(w, name, data)
}

func renderTemplate(w http.ResponseWriter, name string, data any) {
	content, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if name == "login.html" {
		t := template.Must(template.New("").Funcs(funcs).Parse(string(content)))
		if err := t.ExecuteTemplate(w, "login", data); err != nil {
			slog.Error("template execute", "template", name, "err", err)
		}
		return
	}

	layout, _ := templatesFS.ReadFile("templates/layout.html")
	t := template.Must(template.New("").Funcs(funcs).Parse(string(layout)))
	t = template.Must(t.New("").Parse(string(content)))
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("template execute", "template", name, "err", err)
	}
}

// cell formats a decoded JSON value for a table cell.
func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return t.Local().Format("2006-01-02 15:04")
		}
		return x
	case float64:
		return fmt.Sprintf("%.0f", x)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+cell(x[k]))
		}
		return strings.Join(parts, ", ")
	case []any:
		parts := make([]string, 0, len(x))
		for _, it := range x {
			if m, ok := it.(map[string]any); ok && m["item_id"] != nil {
				parts = append(parts, fmt.Sprintf("%s %s x%s", cell(m["item_type"]), cell(m["item_id"]), cell(m["quantity"])))
				continue
			}
			parts = append(parts, cell(it))
		}
		return strings.Join(parts, "; ")
	}
	return fmt.Sprint(v)
}

// humanize turns "in_transit" into "In transit".
func humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatDate(v any) string {
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.DateOnly)
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format(time.DateOnly)
	case string:
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return t.Format(time.DateOnly)
		}
		return x
	}
	return ""
}
