// Package scheduler runs the periodic stock alert check.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/crucial707/ammotrack/internal/metrics"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/crucial707/ammotrack/internal/stock"
	"github.com/robfig/cron/v3"
)

type AlertSource interface {
	ListEnabled(ctx context.Context) ([]models.AlertDefinition, error)
}

type SnapshotSource interface {
	Snapshot(ctx context.Context) (models.Snapshot, error)
}

type AuditLogger interface {
	Log(ctx context.Context, e models.AuditEntry) error
}

// AlertChecker evaluates enabled alert definitions against current stock and
// records an audit entry when an alert starts or stops firing.
type AlertChecker struct {
	Alerts    AlertSource
	Inventory SnapshotSource
	// Audit is optional.
	Audit AuditLogger

	mu     sync.Mutex
	firing map[string]bool // alert id -> triggered on the previous check
}

// Check runs one evaluation and returns the alerts that currently hold.
func (c *AlertChecker) Check(ctx context.Context) ([]models.TriggeredAlert, error) {
	triggered, err := c.evaluate(ctx)
	if err != nil {
		metrics.IncAlertChecks("error")
		return nil, err
	}
	metrics.IncAlertChecks("ok")
	metrics.SetActiveAlerts(len(triggered))

	c.mu.Lock()
	defer c.mu.Unlock()
	now := make(map[string]bool, len(triggered))
	for _, t := range triggered {
		now[t.Alert.ID] = true
		if c.firing[t.Alert.ID] {
			continue
		}
		slog.Warn("stock alert triggered",
			"alert_id", t.Alert.ID,
			"alert", t.Alert.Name,
			"item_type", t.Alert.ItemType,
			"caliber", t.Alert.Caliber,
			"depot_id", t.Alert.DepotID,
			"quantity", t.Quantity,
			"threshold", t.Alert.Threshold)
		c.audit(ctx, "alert_triggered", t.Alert.ID,
			"quantity "+strconv.Itoa(t.Quantity)+" below threshold "+strconv.Itoa(t.Alert.Threshold))
	}
	for id := range c.firing {
		if !now[id] {
			slog.Info("stock alert cleared", "alert_id", id)
			c.audit(ctx, "alert_cleared", id, "")
		}
	}
	c.firing = now
	return triggered, nil
}

func (c *AlertChecker) evaluate(ctx context.Context) ([]models.TriggeredAlert, error) {
	defs, err := c.Alerts.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled alerts: %w", err)
	}
	if len(defs) == 0 {
		return []models.TriggeredAlert{}, nil
	}
	snap, err := c.Inventory.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return stock.EvaluateAlerts(defs, snap), nil
}

func (c *AlertChecker) audit(ctx context.Context, action, alertID, details string) {
	if c.Audit == nil {
		return
	}
	err := c.Audit.Log(ctx, models.AuditEntry{
		Username:     "scheduler",
		Action:       action,
		ResourceType: "alert",
		ResourceID:   alertID,
		Status:       models.AuditSuccess,
		Details:      details,
	})
	if err != nil {
		slog.Error("scheduler: audit log write failed", "action", action, "alert_id", alertID, "err", err)
	}
}

// Run checks alerts on the cron spec until ctx is cancelled. It performs one
// check immediately so the active-alerts gauge is populated at startup.
func Run(ctx context.Context, spec string, checker *AlertChecker, timeout time.Duration) error {
	check := func() {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if _, err := checker.Check(cctx); err != nil {
			slog.Error("scheduler: alert check failed", "err", err)
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, check); err != nil {
		return fmt.Errorf("scheduler: invalid cron spec %q: %w", spec, err)
	}
	slog.Info("scheduler: alert checks scheduled", "cron", spec)

	check()
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
