package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/crucial707/ammotrack/internal/metrics"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/stock"
	"google.golang.org/genai"
)

const flowStockBalancing = "stock_balancing"

// StockBalancingInput asks how to cover a scenario at each depot.
type StockBalancingInput struct {
	Scenario  models.UsageScenario
	Personnel map[string]int // depot id -> personnel
	Snapshot  models.Snapshot
}

// Recommendation is one proposed ammunition transfer.
type Recommendation struct {
	FromDepotID  string `json:"from_depot_id"`
	ToDepotID    string `json:"to_depot_id"`
	Caliber      string `json:"caliber"`
	AmmunitionID string `json:"ammunition_id"`
	Quantity     int    `json:"quantity"`
	Reason       string `json:"reason"`
	// Lots is filled in after validation with the lots the rounds come from.
	Lots []LotAllocation `json:"lots,omitempty"`
}

type StockBalancingOutput struct {
	Recommendations []Recommendation    `json:"recommendations"`
	Summary         string              `json:"summary"`
	Projections     []models.Projection `json:"projections"`
	Discarded       []Discarded         `json:"discarded"`
	Cached          bool                `json:"cached"`
}

var stockBalancingSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"recommendations": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"from_depot_id": {Type: genai.TypeString},
					"to_depot_id":   {Type: genai.TypeString},
					"caliber":       {Type: genai.TypeString},
					"ammunition_id": {Type: genai.TypeString},
					"quantity":      {Type: genai.TypeInteger},
					"reason":        {Type: genai.TypeString},
				},
				Required: []string{"from_depot_id", "to_depot_id", "caliber", "quantity", "reason"},
			},
		},
		"summary": {Type: genai.TypeString},
	},
	Required: []string{"recommendations", "summary"},
}

// StockBalancingFlow recommends transfers that let every depot meet a usage scenario.
type StockBalancingFlow struct {
	Gen  Generator
	Opts Options
}

func (f *StockBalancingFlow) Run(ctx context.Context, in StockBalancingInput) (StockBalancingOutput, error) {
	if len(in.Scenario.RoundsPerPerson) == 0 {
		return StockBalancingOutput{}, fmt.Errorf("scenario %q has no calibers: %w", in.Scenario.ID, ErrInvalidInput)
	}
	for depot, n := range in.Personnel {
		if _, ok := in.Snapshot.DepotByID(depot); !ok {
			return StockBalancingOutput{}, fmt.Errorf("unknown depot %q: %w", depot, ErrInvalidInput)
		}
		if n < 0 {
			return StockBalancingOutput{}, fmt.Errorf("personnel for %s must be >= 0: %w", depot, ErrInvalidInput)
		}
	}

	projections := projectByDepot(in)
	prompt, err := render(stockBalancingPrompt, map[string]any{
		"Scenario":    in.Scenario,
		"Personnel":   in.Personnel,
		"Projections": projections,
		"Snapshot":    in.Snapshot,
	})
	if err != nil {
		return StockBalancingOutput{}, err
	}

	var raw struct {
		Recommendations []Recommendation `json:"recommendations"`
		Summary         string           `json:"summary"`
	}
	cached, err := generate(ctx, flowStockBalancing, f.Gen, f.Opts, prompt, stockBalancingSchema, &raw)
	if err != nil {
		return StockBalancingOutput{}, err
	}

	out := StockBalancingOutput{
		Recommendations: []Recommendation{},
		Summary:         raw.Summary,
		Projections:     projections,
		Discarded:       []Discarded{},
		Cached:          cached,
	}
	lots := newLotLedger(in.Snapshot)
	for _, rec := range raw.Recommendations {
		rec, reason := lots.checkRecommendation(in.Snapshot, rec)
		if reason != "" {
			out.Discarded = append(out.Discarded, Discarded{Item: rec, Reason: reason})
			continue
		}
		out.Recommendations = append(out.Recommendations, rec)
	}
	metrics.AddAIDiscarded(flowStockBalancing, len(out.Discarded))
	return out, nil
}

func projectByDepot(in StockBalancingInput) []models.Projection {
	depots := make([]string, 0, len(in.Personnel))
	for d := range in.Personnel {
		depots = append(depots, d)
	}
	sort.Strings(depots)
	out := make([]models.Projection, 0, len(depots))
	for _, d := range depots {
		out = append(out, stock.ProjectNeeds(in.Scenario, in.Personnel[d], d, in.Snapshot.Ammunition))
	}
	return out
}

// lotLedger tracks rounds still available per lot while recommendations are
// accepted, so two moves cannot spend the same rounds.
type lotLedger struct {
	lots      map[string]models.Ammunition
	remaining map[string]int
}

func newLotLedger(s models.Snapshot) *lotLedger {
	l := &lotLedger{lots: map[string]models.Ammunition{}, remaining: map[string]int{}}
	for _, a := range s.Ammunition {
		l.lots[a.ID] = a
		l.remaining[a.ID] = a.Quantity
	}
	return l
}

// allocate reserves qty rounds of caliber at depot, drawing on the lots with
// the most remaining rounds first.
func (l *lotLedger) allocate(depot, caliber string, qty int) ([]LotAllocation, string) {
	var ids []string
	total := 0
	for id, a := range l.lots {
		if a.DepotID != depot || !strings.EqualFold(a.Caliber, caliber) || l.remaining[id] <= 0 {
			continue
		}
		ids = append(ids, id)
		total += l.remaining[id]
	}
	if len(ids) == 0 {
		return nil, fmt.Sprintf("no %s stock at %s", caliber, depot)
	}
	if total < qty {
		return nil, fmt.Sprintf("%s has %d rounds of %s, %d requested", depot, total, caliber, qty)
	}
	sort.Slice(ids, func(i, j int) bool {
		ri, rj := l.remaining[ids[i]], l.remaining[ids[j]]
		if ri != rj {
			return ri > rj
		}
		return ids[i] < ids[j]
	})
	var out []LotAllocation
	for _, id := range ids {
		if qty == 0 {
			break
		}
		n := min(qty, l.remaining[id])
		l.remaining[id] -= n
		qty -= n
		out = append(out, LotAllocation{AmmunitionID: id, Quantity: n})
	}
	return out, ""
}

// checkTransfer validates a move of qty rounds and reserves them. A named lot
// must cover the whole move; otherwise the rounds come from any lots of the
// caliber at the source depot. It returns the lots drawn on and an empty
// reason on success.
func (l *lotLedger) checkTransfer(s models.Snapshot, from, to, caliber, lotID string, qty int) ([]LotAllocation, string) {
	if qty <= 0 {
		return nil, "quantity must be positive"
	}
	if from == to {
		return nil, "source and destination depot are the same"
	}
	if _, ok := s.DepotByID(from); !ok {
		return nil, fmt.Sprintf("unknown source depot %q", from)
	}
	if _, ok := s.DepotByID(to); !ok {
		return nil, fmt.Sprintf("unknown destination depot %q", to)
	}
	if lotID == "" {
		return l.allocate(from, caliber, qty)
	}
	a, ok := l.lots[lotID]
	if !ok {
		return nil, fmt.Sprintf("unknown ammunition lot %q", lotID)
	}
	if a.DepotID != from {
		return nil, fmt.Sprintf("lot %s is not stocked at %s", lotID, from)
	}
	if caliber != "" && !strings.EqualFold(a.Caliber, caliber) {
		return nil, fmt.Sprintf("lot %s is %s, not %s", lotID, a.Caliber, caliber)
	}
	if l.remaining[lotID] < qty {
		return nil, fmt.Sprintf("lot %s has %d rounds, %d requested", lotID, l.remaining[lotID], qty)
	}
	l.remaining[lotID] -= qty
	return []LotAllocation{{AmmunitionID: lotID, Quantity: qty}}, ""
}

// caliberOf returns the stored caliber spelling of the lots in allocs.
func (l *lotLedger) caliberOf(allocs []LotAllocation) string {
	return l.lots[allocs[0].AmmunitionID].Caliber
}

func (l *lotLedger) checkRecommendation(s models.Snapshot, rec Recommendation) (Recommendation, string) {
	allocs, reason := l.checkTransfer(s, rec.FromDepotID, rec.ToDepotID, rec.Caliber, rec.AmmunitionID, rec.Quantity)
	if reason != "" {
		return rec, reason
	}
	rec.Caliber = l.caliberOf(allocs)
	rec.Lots = allocs
	if len(allocs) == 1 {
		rec.AmmunitionID = allocs[0].AmmunitionID
	}
	return rec, ""
}
