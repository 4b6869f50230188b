package ai

import (
	"context"
	"strings"

	"github.com/crucial707/ammotrack/internal/metrics"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/stock"
	"google.golang.org/genai"
)

const (
	flowRebalancing = "rebalancing"

	// DefaultWindowDays is the usage window when the caller does not set one.
	DefaultWindowDays = 30
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// RebalancingInput describes current stock and recent consumption.
type RebalancingInput struct {
	Snapshot   models.Snapshot
	Usage      []models.CaliberUsage
	WindowDays int
}

// Suggestion is one proposed transfer with a priority.
type Suggestion struct {
	FromDepotID string `json:"from_depot_id"`
	ToDepotID   string `json:"to_depot_id"`
	Caliber     string `json:"caliber"`
	Quantity    int    `json:"quantity"`
	Priority    string `json:"priority"`
	Reason      string `json:"reason"`
	// Lots is filled in after validation with the lots the rounds come from.
	Lots []LotAllocation `json:"lots,omitempty"`
}

type RebalancingOutput struct {
	Suggestions []Suggestion `json:"suggestions"`
	Summary     string       `json:"summary"`
	Discarded   []Discarded  `json:"discarded"`
	Cached      bool         `json:"cached"`
}

var rebalancingSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"suggestions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"from_depot_id": {Type: genai.TypeString},
					"to_depot_id":   {Type: genai.TypeString},
					"caliber":       {Type: genai.TypeString},
					"quantity":      {Type: genai.TypeInteger},
					"priority":      {Type: genai.TypeString, Enum: []string{PriorityHigh, PriorityMedium, PriorityLow}},
					"reason":        {Type: genai.TypeString},
				},
				Required: []string{"from_depot_id", "to_depot_id", "caliber", "quantity", "priority", "reason"},
			},
		},
		"summary": {Type: genai.TypeString},
	},
	Required: []string{"suggestions", "summary"},
}

// RebalancingFlow suggests transfers that follow consumption.
type RebalancingFlow struct {
	Gen  Generator
	Opts Options
}

func (f *RebalancingFlow) Run(ctx context.Context, in RebalancingInput) (RebalancingOutput, error) {
	if in.WindowDays <= 0 {
		in.WindowDays = DefaultWindowDays
	}
	usage := in.Usage
	if usage == nil {
		usage = []models.CaliberUsage{}
	}
	prompt, err := render(rebalancingPrompt, map[string]any{
		"WindowDays": in.WindowDays,
		"Usage":      usage,
		"Totals":     stock.TotalsByDepotCaliber(in.Snapshot.Ammunition),
		"LowStock":   stock.LowStock(in.Snapshot.Ammunition),
		"Snapshot":   in.Snapshot,
	})
	if err != nil {
		return RebalancingOutput{}, err
	}

	var raw struct {
		Suggestions []Suggestion `json:"suggestions"`
		Summary     string       `json:"summary"`
	}
	cached, err := generate(ctx, flowRebalancing, f.Gen, f.Opts, prompt, rebalancingSchema, &raw)
	if err != nil {
		return RebalancingOutput{}, err
	}

	out := RebalancingOutput{
		Suggestions: []Suggestion{},
		Summary:     raw.Summary,
		Discarded:   []Discarded{},
		Cached:      cached,
	}
	lots := newLotLedger(in.Snapshot)
	for _, s := range raw.Suggestions {
		s.Priority = strings.ToLower(strings.TrimSpace(s.Priority))
		switch s.Priority {
		case PriorityHigh, PriorityMedium, PriorityLow:
		default:
			out.Discarded = append(out.Discarded, Discarded{Item: s, Reason: "priority must be high, medium or low"})
			continue
		}
		allocs, reason := lots.checkTransfer(in.Snapshot, s.FromDepotID, s.ToDepotID, s.Caliber, "", s.Quantity)
		if reason != "" {
			out.Discarded = append(out.Discarded, Discarded{Item: s, Reason: reason})
			continue
		}
		s.Caliber = lots.caliberOf(allocs)
		s.Lots = allocs
		out.Suggestions = append(out.Suggestions, s)
	}
	metrics.AddAIDiscarded(flowRebalancing, len(out.Discarded))
	return out, nil
}
