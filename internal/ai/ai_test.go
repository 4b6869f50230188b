package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/crucial707/ammotrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
	schemas  []*genai.Schema
}

func (g *fakeGenerator) GenerateJSON(_ context.Context, prompt string, schema *genai.Schema) ([]byte, error) {
	g.prompts = append(g.prompts, prompt)
	g.schemas = append(g.schemas, schema)
	if g.err != nil {
		return nil, g.err
	}
	return []byte(g.response), nil
}

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[key]
	return b, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string][]byte{}
	}
	c.m[key] = value
	return nil
}

func testSnapshot() models.Snapshot {
	return models.Snapshot{
		Depots: []models.Depot{
			{ID: "DEPOT-A", Name: "Alpha", Status: models.DepotActive},
			{ID: "DEPOT-B", Name: "Bravo", Status: models.DepotActive},
		},
		Ammunition: []models.Ammunition{
			{ID: "AM-A-556", Name: "5.56 Ball", Caliber: "5.56x45mm", DepotID: "DEPOT-A", Quantity: 10000},
			{ID: "AM-B-556", Name: "5.56 Ball", Caliber: "5.56x45mm", DepotID: "DEPOT-B", Quantity: 500, LowStockThreshold: 1000},
			{ID: "AM-A-9", Name: "9mm Ball", Caliber: "9mm", DepotID: "DEPOT-A", Quantity: 2000},
		},
	}
}

func TestStockBalancingFlow_PromptCarriesSnapshot(t *testing.T) {
	gen := &fakeGenerator{response: `{"recommendations":[],"summary":"balanced"}`}
	flow := &StockBalancingFlow{Gen: gen}

	out, err := flow.Run(context.Background(), StockBalancingInput{
		Scenario:  models.UsageScenario{ID: "patrol", Name: "Patrol", RoundsPerPerson: map[string]int{"5.56x45mm": 210}},
		Personnel: map[string]int{"DEPOT-B": 10},
		Snapshot:  testSnapshot(),
	})
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `"id": "AM-B-556"`)
	assert.Contains(t, gen.prompts[0], `"DEPOT-B": 10`)
	assert.Contains(t, gen.prompts[0], "Patrol")
	assert.Same(t, stockBalancingSchema, gen.schemas[0])

	assert.Equal(t, "balanced", out.Summary)
	assert.Empty(t, out.Recommendations)
	require.Len(t, out.Projections, 1)
	assert.Equal(t, 2100, out.Projections[0].Needs[0].Required)
	assert.Equal(t, 1600, out.Projections[0].Needs[0].Shortfall)
}

func TestStockBalancingFlow_DiscardsInvalidRecommendations(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"recommendations": [
			{"from_depot_id":"DEPOT-A","to_depot_id":"DEPOT-B","caliber":"5.56x45mm","ammunition_id":"AM-A-556","quantity":1600,"reason":"cover patrol"},
			{"from_depot_id":"DEPOT-A","to_depot_id":"DEPOT-A","caliber":"5.56x45mm","ammunition_id":"AM-A-556","quantity":10,"reason":"loop"},
			{"from_depot_id":"DEPOT-Z","to_depot_id":"DEPOT-B","caliber":"5.56x45mm","quantity":10,"reason":"ghost"},
			{"from_depot_id":"DEPOT-A","to_depot_id":"DEPOT-B","caliber":"9mm","quantity":-5,"reason":"negative"},
			{"from_depot_id":"DEPOT-A","to_depot_id":"DEPOT-B","caliber":"9mm","quantity":5000,"reason":"too many"},
			{"from_depot_id":"DEPOT-A","to_depot_id":"DEPOT-B","caliber":"9mm","quantity":500,"reason":"lot picked"}
		],
		"summary": "move 5.56 to Bravo"
	}`}
	flow := &StockBalancingFlow{Gen: gen}

	out, err := flow.Run(context.Background(), StockBalancingInput{
		Scenario:  models.UsageScenario{ID: "patrol", RoundsPerPerson: map[string]int{"5.56x45mm": 210}},
		Personnel: map[string]int{"DEPOT-B": 10},
		Snapshot:  testSnapshot(),
	})
	require.NoError(t, err)

	require.Len(t, out.Recommendations, 2)
	assert.Equal(t, "AM-A-556", out.Recommendations[0].AmmunitionID)
	assert.Equal(t, 1600, out.Recommendations[0].Quantity)
	assert.Equal(t, "AM-A-9", out.Recommendations[1].AmmunitionID)
	assert.Equal(t, []LotAllocation{{AmmunitionID: "AM-A-9", Quantity: 500}}, out.Recommendations[1].Lots)

	require.Len(t, out.Discarded, 4)
	assert.Contains(t, out.Discarded[0].Reason, "same")
	assert.Contains(t, out.Discarded[1].Reason, "unknown source depot")
	assert.Contains(t, out.Discarded[2].Reason, "positive")
	assert.Contains(t, out.Discarded[3].Reason, "2000 rounds")
}

func TestStockBalancingFlow_RejectsUnknownDepot(t *testing.T) {
	gen := &fakeGenerator{}
	flow := &StockBalancingFlow{Gen: gen}

	_, err := flow.Run(context.Background(), StockBalancingInput{
		Scenario:  models.UsageScenario{RoundsPerPerson: map[string]int{"9mm": 1}},
		Personnel: map[string]int{"DEPOT-X": 1},
		Snapshot:  testSnapshot(),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, gen.prompts)
}

func TestFlows_ProviderError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	flow := &RebalancingFlow{Gen: gen}

	_, err := flow.Run(context.Background(), RebalancingInput{Snapshot: testSnapshot()})
	assert.ErrorIs(t, err, ErrProvider)
}

func TestFlows_MalformedResponse(t *testing.T) {
	gen := &fakeGenerator{response: `not json`}
	flow := &RebalancingFlow{Gen: gen}

	_, err := flow.Run(context.Background(), RebalancingInput{Snapshot: testSnapshot()})
	assert.ErrorIs(t, err, ErrProvider)
}

func TestFlows_Disabled(t *testing.T) {
	flow := &RebalancingFlow{}
	_, err := flow.Run(context.Background(), RebalancingInput{Snapshot: testSnapshot()})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestRebalancingFlow_ValidatesAndCaches(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"suggestions": [
			{"from_depot_id":"DEPOT-A","to_depot_id":"DEPOT-B","caliber":"5.56x45mm","quantity":3000,"priority":"HIGH","reason":"Bravo below threshold"},
			{"from_depot_id":"DEPOT-A","to_depot_id":"DEPOT-B","caliber":"9mm","quantity":100,"priority":"urgent","reason":"bad priority"},
			{"from_depot_id":"DEPOT-B","to_depot_id":"DEPOT-A","caliber":"7.62x51mm","quantity":100,"priority":"low","reason":"no such lot"}
		],
		"summary": "Bravo is short on 5.56"
	}`}
	c := &memCache{}
	flow := &RebalancingFlow{Gen: gen, Opts: Options{Cache: c, TTL: time.Minute, Model: "test"}}
	in := RebalancingInput{
		Snapshot: testSnapshot(),
		Usage:    []models.CaliberUsage{{Caliber: "5.56x45mm", Rounds: 4200}},
	}

	out, err := flow.Run(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, out.Cached)
	require.Len(t, out.Suggestions, 1)
	assert.Equal(t, PriorityHigh, out.Suggestions[0].Priority)
	require.Len(t, out.Discarded, 2)
	assert.Contains(t, gen.prompts[0], "last 30 days")
	assert.Contains(t, gen.prompts[0], `"rounds": 4200`)

	again, err := flow.Run(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Len(t, gen.prompts, 1, "second run should be served from cache")
	assert.Equal(t, out.Suggestions, again.Suggestions)
}

func TestApplyRequest_Shipment(t *testing.T) {
	s := ApplyRequest{FromDepotID: "DEPOT-A", ToDepotID: "DEPOT-B", AmmunitionID: "AM-A-556", Quantity: 1600, Reason: "cover patrol"}.Shipment()

	assert.Equal(t, models.ShipmentTransfer, s.Type)
	assert.Equal(t, "DEPOT-A", s.FromDepotID)
	assert.Equal(t, "DEPOT-B", s.ToDepotID)
	assert.Equal(t, []models.ShipmentItem{{ItemType: models.ItemAmmunition, ItemID: "AM-A-556", Quantity: 1600}}, s.Items)
	assert.Equal(t, "AI recommendation: cover patrol", s.Notes)
}

func TestRebalancingFlow_SplitsAcrossLots(t *testing.T) {
	snap := models.Snapshot{
		Depots: []models.Depot{{ID: "DEPOT-A"}, {ID: "DEPOT-B"}},
		Ammunition: []models.Ammunition{
			{ID: "L1", Caliber: "5.56x45mm", DepotID: "DEPOT-A", Quantity: 600},
			{ID: "L2", Caliber: "5.56x45mm", DepotID: "DEPOT-A", Quantity: 700},
			{ID: "L3", Caliber: "5.56x45mm", DepotID: "DEPOT-B", Quantity: 50},
		},
	}
	gen := &fakeGenerator{response: `{
		"suggestions": [
			{"from_depot_id":"DEPOT-A","to_depot_id":"DEPOT-B","caliber":"5.56X45MM","quantity":1000,"priority":"high","reason":"Bravo is nearly out"},
			{"from_depot_id":"DEPOT-A","to_depot_id":"DEPOT-B","caliber":"5.56x45mm","quantity":400,"priority":"low","reason":"top up"}
		],
		"summary": "move 5.56 to Bravo"
	}`}
	flow := &RebalancingFlow{Gen: gen}

	out, err := flow.Run(context.Background(), RebalancingInput{Snapshot: snap})
	require.NoError(t, err)

	require.Len(t, out.Suggestions, 1)
	s := out.Suggestions[0]
	assert.Equal(t, "5.56x45mm", s.Caliber)
	assert.Equal(t, []LotAllocation{
		{AmmunitionID: "L2", Quantity: 700},
		{AmmunitionID: "L1", Quantity: 300},
	}, s.Lots)

	// 300 rounds are left at DEPOT-A after the first suggestion.
	require.Len(t, out.Discarded, 1)
	assert.Contains(t, out.Discarded[0].Reason, "DEPOT-A has 300 rounds of 5.56x45mm, 400 requested")
}

func TestApplyRequest_ShipmentFromLots(t *testing.T) {
	req := ApplyRequest{
		FromDepotID: "DEPOT-A",
		ToDepotID:   "DEPOT-B",
		Lots:        []LotAllocation{{AmmunitionID: "L2", Quantity: 700}, {AmmunitionID: "L1", Quantity: 300}},
	}
	s := req.Shipment()

	assert.Equal(t, []models.ShipmentItem{
		{ItemType: models.ItemAmmunition, ItemID: "L2", Quantity: 700},
		{ItemType: models.ItemAmmunition, ItemID: "L1", Quantity: 300},
	}, s.Items)
	assert.Equal(t, "AI recommendation", s.Notes)
}
