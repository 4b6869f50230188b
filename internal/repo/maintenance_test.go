package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/lib/pq"
)

var maintenanceCols = []string{"id", "firearm_id", "type", "description", "performed_by", "performed_at",
	"next_due_at", "status", "created_at", "updated_at"}

func TestMaintenanceRepo_Create_DefaultsCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	performed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO maintenance_logs`).
		WithArgs("ML1", "F1", "cleaning", "field strip", "Sgt. Ortiz", performed, nil, "completed").
		WillReturnRows(sqlmock.NewRows(maintenanceCols).
			AddRow("ML1", "F1", "cleaning", "field strip", "Sgt. Ortiz", performed, nil, "completed", now, now))

	r := NewMaintenanceRepo(db)
	m, err := r.Create(context.Background(), models.MaintenanceLog{
		ID: "ML1", FirearmID: "F1", Type: "cleaning", Description: "field strip", PerformedBy: "Sgt. Ortiz", PerformedAt: performed,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Status != models.MaintenanceCompleted || m.NextDueAt != nil {
		t.Errorf("unexpected log: %+v", m)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMaintenanceRepo_Create_UnknownFirearm(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO maintenance_logs`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "maintenance_logs_firearm_id_fkey"})

	r := NewMaintenanceRepo(db)
	_, err = r.Create(context.Background(), models.MaintenanceLog{FirearmID: "F404", Type: "repair", PerformedAt: time.Now()})
	if !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("Create: got %v, want ErrUnknownReference", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMaintenanceRepo_List_ByFirearm(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	due := now.AddDate(0, 3, 0)
	mock.ExpectQuery(`FROM maintenance_logs WHERE firearm_id = \$1 ORDER BY performed_at DESC, id LIMIT \$2 OFFSET \$3`).
		WithArgs("F1", 50, 0).
		WillReturnRows(sqlmock.NewRows(maintenanceCols).
			AddRow("ML2", "F1", "inspection", "", "", now, due, "scheduled", now, now).
			AddRow("ML1", "F1", "cleaning", "", "", now.AddDate(0, -1, 0), nil, "completed", now, now))

	r := NewMaintenanceRepo(db)
	list, err := r.List(context.Background(), MaintenanceFilter{FirearmID: "F1"}, Page{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].NextDueAt == nil || list[1].NextDueAt != nil {
		t.Errorf("unexpected list: %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
