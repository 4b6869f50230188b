package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crucial707/ammotrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAlerts struct {
	defs []models.AlertDefinition
	err  error
}

func (f *fakeAlerts) ListEnabled(ctx context.Context) ([]models.AlertDefinition, error) {
	return f.defs, f.err
}

type fakeInventory struct {
	snap  models.Snapshot
	calls int
}

func (f *fakeInventory) Snapshot(ctx context.Context) (models.Snapshot, error) {
	f.calls++
	return f.snap, nil
}

type fakeAudit struct {
	entries []models.AuditEntry
}

func (f *fakeAudit) Log(ctx context.Context, e models.AuditEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func lowNineMil() []models.AlertDefinition {
	return []models.AlertDefinition{{
		ID: "AL1", Name: "9mm low", ItemType: models.ItemAmmunition, Caliber: "9mm", Threshold: 1000, Enabled: true,
	}}
}

func TestAlertChecker_AuditsTransitions(t *testing.T) {
	inv := &fakeInventory{snap: models.Snapshot{
		Ammunition: []models.Ammunition{{ID: "AM1", Caliber: "9mm", DepotID: "DEPOT-A", Quantity: 400}},
	}}
	audit := &fakeAudit{}
	c := &AlertChecker{Alerts: &fakeAlerts{defs: lowNineMil()}, Inventory: inv, Audit: audit}

	got, err := c.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 400, got[0].Quantity)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "alert_triggered", audit.entries[0].Action)
	assert.Equal(t, "AL1", audit.entries[0].ResourceID)

	// Still firing: no new entry.
	_, err = c.Check(context.Background())
	require.NoError(t, err)
	assert.Len(t, audit.entries, 1)

	inv.snap.Ammunition[0].Quantity = 5000
	got, err = c.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	require.Len(t, audit.entries, 2)
	assert.Equal(t, "alert_cleared", audit.entries[1].Action)
}

func TestAlertChecker_NoDefinitionsSkipsSnapshot(t *testing.T) {
	inv := &fakeInventory{}
	c := &AlertChecker{Alerts: &fakeAlerts{}, Inventory: inv}

	got, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, inv.calls)
}

func TestAlertChecker_ListError(t *testing.T) {
	c := &AlertChecker{Alerts: &fakeAlerts{err: errors.New("db down")}, Inventory: &fakeInventory{}}
	_, err := c.Check(context.Background())
	assert.Error(t, err)
}

func TestRun_InvalidSpec(t *testing.T) {
	c := &AlertChecker{Alerts: &fakeAlerts{}, Inventory: &fakeInventory{}}
	err := Run(context.Background(), "not a cron spec", c, time.Second)
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	inv := &fakeInventory{}
	c := &AlertChecker{Alerts: &fakeAlerts{defs: lowNineMil()}, Inventory: inv}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, "@every 1h", c, time.Second) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
