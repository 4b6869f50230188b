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

var scenarioCols = []string{"id", "name", "description", "rounds_per_person", "created_at", "updated_at"}

func TestScenarioRepo_Create_StoresRoundsAsJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rounds := `{"5.56x45mm":210,"9mm":30}`
	mock.ExpectQuery(`INSERT INTO usage_scenarios`).
		WithArgs("patrol", "Patrol", "", rounds).
		WillReturnRows(sqlmock.NewRows(scenarioCols).AddRow("patrol", "Patrol", "", []byte(rounds), now, now))

	r := NewScenarioRepo(db)
	s, err := r.Create(context.Background(), models.UsageScenario{
		ID: "patrol", Name: "Patrol", RoundsPerPerson: map[string]int{"9mm": 30, "5.56x45mm": 210},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.RoundsPerPerson["5.56x45mm"] != 210 || s.RoundsPerPerson["9mm"] != 30 {
		t.Errorf("unexpected rounds: %v", s.RoundsPerPerson)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestScenarioRepo_Create_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO usage_scenarios`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "usage_scenarios_pkey"})

	r := NewScenarioRepo(db)
	_, err = r.Create(context.Background(), models.UsageScenario{ID: "patrol", Name: "Patrol", RoundsPerPerson: map[string]int{"9mm": 1}})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Create: got %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestScenarioRepo_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM usage_scenarios WHERE id = \$1`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(scenarioCols))

	r := NewScenarioRepo(db)
	if _, err := r.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get: got %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
