package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/ammotrack/internal/models"
	"github.com/lib/pq"
)

var depotCols = []string{"id", "name", "location", "capacity", "status", "notes", "created_at", "updated_at"}

func TestDepotRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO depots \(id, name, location, capacity, status, notes\)`).
		WithArgs("DEPOT-A", "Alpha", "North ridge", 5000, "active", "").
		WillReturnRows(sqlmock.NewRows(depotCols).
			AddRow("DEPOT-A", "Alpha", "North ridge", 5000, "active", "", now, now))

	r := NewDepotRepo(db)
	d, err := r.Create(context.Background(), models.Depot{ID: "DEPOT-A", Name: "Alpha", Location: "North ridge", Capacity: 5000})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.ID != "DEPOT-A" || d.Status != models.DepotActive || d.Capacity != 5000 {
		t.Errorf("unexpected depot: %+v", d)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestDepotRepo_Create_DuplicateID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO depots`).
		WithArgs("DEPOT-A", "Alpha", "", 0, "active", "").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "depots_pkey"})

	r := NewDepotRepo(db)
	_, err = r.Create(context.Background(), models.Depot{ID: "DEPOT-A", Name: "Alpha"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Create duplicate: got %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestDepotRepo_Create_GeneratesID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO depots`).
		WithArgs(sqlmock.AnyArg(), "Bravo", "", 0, "active", "").
		WillReturnRows(sqlmock.NewRows(depotCols).
			AddRow("generated", "Bravo", "", 0, "active", "", now, now))

	r := NewDepotRepo(db)
	if _, err := r.Create(context.Background(), models.Depot{Name: "Bravo"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestDepotRepo_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM depots WHERE id = \$1`).
		WithArgs("NOPE").
		WillReturnError(sql.ErrNoRows)

	r := NewDepotRepo(db)
	_, err = r.Get(context.Background(), "NOPE")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get: got %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestDepotRepo_List_StatusFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM depots WHERE status = \$1 ORDER BY id LIMIT \$2 OFFSET \$3`).
		WithArgs("active", 20, 40).
		WillReturnRows(sqlmock.NewRows(depotCols).
			AddRow("DEPOT-A", "Alpha", "", 0, "active", "", now, now).
			AddRow("DEPOT-B", "Bravo", "", 0, "active", "", now, now))

	r := NewDepotRepo(db)
	list, err := r.List(context.Background(), "active", Page{Limit: 20, Offset: 40})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[1].ID != "DEPOT-B" {
		t.Errorf("unexpected list: %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestDepotRepo_Delete_Referenced(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT \(SELECT COUNT\(\*\) FROM firearms WHERE depot_id = \$1\)`).
		WithArgs("DEPOT-A").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))

	r := NewDepotRepo(db)
	err = r.Delete(context.Background(), "DEPOT-A")
	if !errors.Is(err, ErrInUse) {
		t.Fatalf("Delete: got %v, want ErrInUse", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestDepotRepo_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT \(SELECT COUNT\(\*\) FROM firearms`).
		WithArgs("DEPOT-C").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM depots WHERE id = \$1`).
		WithArgs("DEPOT-C").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := NewDepotRepo(db)
	if err := r.Delete(context.Background(), "DEPOT-C"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestDepotRepo_Delete_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT \(SELECT COUNT\(\*\) FROM firearms`).
		WithArgs("DEPOT-Z").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM depots WHERE id = \$1`).
		WithArgs("DEPOT-Z").
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := NewDepotRepo(db)
	if err := r.Delete(context.Background(), "DEPOT-Z"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete: got %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
