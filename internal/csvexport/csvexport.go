// Package csvexport writes firearm definitions and audit log entries as CSV.
package csvexport

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/crucial707/ammotrack/internal/models"
)

var (
	FirearmHeader = []string{"id", "name", "manufacturer", "type", "caliber", "serial_number", "depot_id", "quantity", "status", "notes"}
	AuditHeader   = []string{"timestamp", "user_id", "username", "action", "resource_type", "resource_id", "status", "details"}
)

// Firearms writes a header row followed by one row per firearm.
func Firearms(w io.Writer, list []models.Firearm) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FirearmHeader); err != nil {
		return err
	}
	for _, f := range list {
		row := []string{f.ID, f.Name, f.Manufacturer, f.Type, f.Caliber, f.SerialNumber, f.DepotID,
			strconv.Itoa(f.Quantity), f.Status, f.Notes}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Audit writes a header row followed by one row per entry. Timestamps are RFC 3339 in UTC.
func Audit(w io.Writer, entries []models.AuditEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AuditHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{e.Timestamp.UTC().Format(time.RFC3339), e.UserID, e.Username, e.Action,
			e.ResourceType, e.ResourceID, e.Status, e.Details}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename returns a dated download name such as firearms-2026-01-31.csv.
func Filename(prefix string, now time.Time) string {
	return prefix + "-" + now.UTC().Format("2006-01-02") + ".csv"
}
