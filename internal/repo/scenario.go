package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/crucial707/ammotrack/internal/models"
)

// ScenarioRepo persists usage scenarios.
type ScenarioRepo struct {
	DB *sql.DB
}

func NewScenarioRepo(db *sql.DB) *ScenarioRepo {
	return &ScenarioRepo{DB: db}
}

const scenarioColumns = `id, name, description, rounds_per_person, created_at, updated_at`

func scanScenario(row interface{ Scan(...any) error }, s *models.UsageScenario) error {
	var rounds []byte
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &rounds, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	s.RoundsPerPerson = map[string]int{}
	if len(rounds) == 0 {
		return nil
	}
	return json.Unmarshal(rounds, &s.RoundsPerPerson)
}

func (r *ScenarioRepo) Create(ctx context.Context, s models.UsageScenario) (models.UsageScenario, error) {
	s.ID = newID(s.ID)
	rounds, err := json.Marshal(s.RoundsPerPerson)
	if err != nil {
		return models.UsageScenario{}, err
	}
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO usage_scenarios (id, name, description, rounds_per_person)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+scenarioColumns,
		s.ID, s.Name, s.Description, string(rounds),
	)
	var out models.UsageScenario
	if err := scanScenario(row, &out); err != nil {
		return models.UsageScenario{}, classify(err, "create scenario "+s.ID)
	}
	return out, nil
}

func (r *ScenarioRepo) Get(ctx context.Context, id string) (models.UsageScenario, error) {
	var s models.UsageScenario
	err := scanScenario(r.DB.QueryRowContext(ctx, `SELECT `+scenarioColumns+` FROM usage_scenarios WHERE id = $1`, id), &s)
	if err != nil {
		return models.UsageScenario{}, classify(err, "scenario "+id)
	}
	return s, nil
}

func (r *ScenarioRepo) List(ctx context.Context, p Page) ([]models.UsageScenario, error) {
	var w where
	lim, args := w.paginate(p)
	rows, err := r.DB.QueryContext(ctx, `SELECT `+scenarioColumns+` FROM usage_scenarios ORDER BY name, id`+lim, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.UsageScenario{}
	for rows.Next() {
		var s models.UsageScenario
		if err := scanScenario(rows, &s); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *ScenarioRepo) Update(ctx context.Context, s models.UsageScenario) (models.UsageScenario, error) {
	rounds, err := json.Marshal(s.RoundsPerPerson)
	if err != nil {
		return models.UsageScenario{}, err
	}
	row := r.DB.QueryRowContext(ctx,
		`UPDATE usage_scenarios
		 SET name = $1, description = $2, rounds_per_person = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING `+scenarioColumns,
		s.Name, s.Description, string(rounds), s.ID,
	)
	var out models.UsageScenario
	if err := scanScenario(row, &out); err != nil {
		return models.UsageScenario{}, classify(err, "update scenario "+s.ID)
	}
	return out, nil
}

// Delete removes a scenario; usage logs keep their rows with the scenario cleared.
func (r *ScenarioRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM usage_scenarios WHERE id = $1`, id)
	if err != nil {
		return classifyDelete(err, "delete scenario "+id)
	}
	return requireAffected(res, "scenario "+id)
}
