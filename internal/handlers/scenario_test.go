package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/ammotrack/internal/repo"
)

var (
	scenarioCols   = []string{"id", "name", "description", "rounds_per_person", "created_at", "updated_at"}
	ammunitionCols = []string{"id", "name", "caliber", "type", "lot_number", "depot_id", "quantity",
		"low_stock_threshold", "expiry_date", "created_at", "updated_at"}
)

func TestScenarioHandler_ProjectScenario(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM usage_scenarios WHERE id = \$1`).
		WithArgs("patrol").
		WillReturnRows(sqlmock.NewRows(scenarioCols).
			AddRow("patrol", "Patrol", "", []byte(`{"5.56x45mm":210,"9mm":30}`), now, now))
	mock.ExpectQuery(`SELECT (.+) FROM ammunition WHERE depot_id = \$1`).
		WithArgs("DEPOT-B").
		WillReturnRows(sqlmock.NewRows(ammunitionCols).
			AddRow("AM1", "5.56 Ball", "5.56x45mm", "fmj", "", "DEPOT-B", 500, 0, nil, now, now).
			AddRow("AM2", "9mm Ball", "9mm", "fmj", "", "DEPOT-B", 400, 0, nil, now, now))

	h := &ScenarioHandler{Repo: repo.NewScenarioRepo(db), Ammunition: repo.NewAmmunitionRepo(db)}
	body := mustJSON(t, map[string]any{"personnel": 10, "depot_id": "DEPOT-B"})
	req := requestWithChiURLParams("POST", "/scenarios/patrol/project", body, map[string]string{"id": "patrol"})
	rr := httptest.NewRecorder()
	h.ProjectScenario(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("ProjectScenario status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	out := decodeBody(t, rr)
	if out["sufficient"] != false || out["personnel"] != float64(10) {
		t.Errorf("unexpected projection: %v", out)
	}
	needs, _ := out["needs"].([]any)
	if len(needs) != 2 {
		t.Fatalf("needs: got %v", out["needs"])
	}
	rifle := needs[0].(map[string]any)
	if rifle["caliber"] != "5.56x45mm" || rifle["required"] != float64(2100) || rifle["available"] != float64(500) || rifle["shortfall"] != float64(1600) {
		t.Errorf("5.56 need: got %v", rifle)
	}
	pistol := needs[1].(map[string]any)
	if pistol["required"] != float64(300) || pistol["shortfall"] != float64(0) {
		t.Errorf("9mm need: got %v", pistol)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestScenarioHandler_ProjectScenario_NegativePersonnel(t *testing.T) {
	h := &ScenarioHandler{}
	body := mustJSON(t, map[string]any{"personnel": -3})
	req := requestWithChiURLParams("POST", "/scenarios/patrol/project", body, map[string]string{"id": "patrol"})
	rr := httptest.NewRecorder()
	h.ProjectScenario(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	fields, _ := decodeBody(t, rr)["fields"].(map[string]any)
	if fields["personnel"] != "gte=0" {
		t.Errorf("fields: got %v", fields)
	}
}

func TestScenarioHandler_ProjectScenario_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM usage_scenarios WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(scenarioCols))

	h := &ScenarioHandler{Repo: repo.NewScenarioRepo(db)}
	req := requestWithChiURLParams("POST", "/scenarios/ghost/project", []byte(`{"personnel":1}`), map[string]string{"id": "ghost"})
	rr := httptest.NewRecorder()
	h.ProjectScenario(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
