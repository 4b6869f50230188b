package ai

import (
	"bytes"
	"encoding/json"
	"text/template"
)

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.MarshalIndent(v, "", "  ")
		return string(b), err
	},
}

var stockBalancingPrompt = template.Must(template.New("stock_balancing").Funcs(funcs).Parse(
	`You are a military logistics officer balancing ammunition stock between depots.

Usage scenario "{{.Scenario.Name}}" ({{.Scenario.ID}}) requires these rounds per person, by caliber:
{{json .Scenario.RoundsPerPerson}}

Personnel assigned to each depot:
{{json .Personnel}}

Projected requirement against stock on hand, per depot:
{{json .Projections}}

Current inventory snapshot:
{{json .Snapshot}}

Recommend ammunition transfers between depots so that every depot can cover
its projected requirement. Only move stock from a depot that has a surplus for
that caliber. Each recommendation must name the source lot (ammunition_id), an
existing source and destination depot id, the caliber, and a positive quantity
of rounds. Explain each move in one sentence in "reason". If no transfer is
needed, return an empty list and say so in "summary".`))

var rebalancingPrompt = template.Must(template.New("rebalancing").Funcs(funcs).Parse(
	`You are a military logistics officer reviewing ammunition distribution.

Rounds used per caliber over the last {{.WindowDays}} days:
{{json .Usage}}

Rounds on hand per depot and caliber:
{{json .Totals}}

Lots at or below their low-stock threshold:
{{json .LowStock}}

Current inventory snapshot:
{{json .Snapshot}}

Suggest transfers that bring stock in line with consumption. Each suggestion
must name an existing source and destination depot id, the caliber, a positive
quantity of rounds, a priority of "high", "medium" or "low", and a one-sentence
reason. Summarise the overall position in "summary".`))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
