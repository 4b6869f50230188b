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

var magazineCols = []string{"id", "name", "caliber", "capacity", "firearm_id", "depot_id", "quantity", "status", "created_at", "updated_at"}

func TestMagazineRepo_Create_DefaultsStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO magazines`).
		WithArgs("MG1", "STANAG 30", "5.56x45mm", 30, "F1", "DEPOT-A", 200, "serviceable").
		WillReturnRows(sqlmock.NewRows(magazineCols).
			AddRow("MG1", "STANAG 30", "5.56x45mm", 30, "F1", "DEPOT-A", 200, "serviceable", now, now))

	r := NewMagazineRepo(db)
	m, err := r.Create(context.Background(), models.Magazine{
		ID: "MG1", Name: "STANAG 30", Caliber: "5.56x45mm", Capacity: 30, FirearmID: "F1", DepotID: "DEPOT-A", Quantity: 200,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Status != models.MagazineServiceable || m.FirearmID != "F1" {
		t.Errorf("unexpected magazine: %+v", m)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMagazineRepo_Update_UnknownFirearm(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE magazines`).
		WithArgs("STANAG 30", "5.56x45mm", 30, "F9", "DEPOT-A", 200, "serviceable", "MG1").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "magazines_firearm_id_fkey"})

	r := NewMagazineRepo(db)
	_, err = r.Update(context.Background(), models.Magazine{
		ID: "MG1", Name: "STANAG 30", Caliber: "5.56x45mm", Capacity: 30, FirearmID: "F9", DepotID: "DEPOT-A", Quantity: 200, Status: "serviceable",
	})
	if !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("Update: got %v, want ErrUnknownReference", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMagazineRepo_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM magazines WHERE id = \$1`).
		WithArgs("MG404").
		WillReturnRows(sqlmock.NewRows(magazineCols))

	r := NewMagazineRepo(db)
	if _, err := r.Get(context.Background(), "MG404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get: got %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
