package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/takwin-center/takwin-api/internal/models"
	"github.com/takwin-center/takwin-api/internal/timetable"
)

// TrainerRepository manages the per-module trainer rosters.
type TrainerRepository struct {
	db *sqlx.DB
}

// NewTrainerRepository constructs a TrainerRepository.
func NewTrainerRepository(db *sqlx.DB) *TrainerRepository {
	return &TrainerRepository{db: db}
}

func (r *TrainerRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListAll returns every registered trainer ordered by module and key.
func (r *TrainerRepository) ListAll(ctx context.Context) ([]models.Trainer, error) {
	const query = `SELECT id, module_id, trainer_key, display_name, created_at, updated_at
FROM trainers ORDER BY module_id, trainer_key`
	var trainers []models.Trainer
	if err := r.db.SelectContext(ctx, &trainers, query); err != nil {
		return nil, fmt.Errorf("list trainers: %w", err)
	}
	return trainers, nil
}

// ListByModule returns one module's roster ordered by key.
func (r *TrainerRepository) ListByModule(ctx context.Context, moduleID int) ([]models.Trainer, error) {
	const query = `SELECT id, module_id, trainer_key, display_name, created_at, updated_at
FROM trainers WHERE module_id = $1 ORDER BY trainer_key`
	var trainers []models.Trainer
	if err := r.db.SelectContext(ctx, &trainers, query, moduleID); err != nil {
		return nil, fmt.Errorf("list trainers for module %d: %w", moduleID, err)
	}
	return trainers, nil
}

// Directory materialises the full roster into the scheduling directory shape.
func (r *TrainerRepository) Directory(ctx context.Context) (timetable.Directory, error) {
	trainers, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	dir := make(timetable.Directory)
	for _, t := range trainers {
		if dir[t.ModuleID] == nil {
			dir[t.ModuleID] = make(map[string]string)
		}
		dir[t.ModuleID][t.TrainerKey] = t.DisplayName
	}
	return dir, nil
}

// ReplaceModule swaps one module's roster wholesale inside the caller's
// transaction. Keys missing from the new roster are removed.
func (r *TrainerRepository) ReplaceModule(ctx context.Context, exec sqlx.ExtContext, moduleID int, names map[string]string) error {
	target := r.exec(exec)

	if _, err := target.ExecContext(ctx, `DELETE FROM trainers WHERE module_id = $1`, moduleID); err != nil {
		return fmt.Errorf("clear trainers for module %d: %w", moduleID, err)
	}

	const insertQuery = `
INSERT INTO trainers (id, module_id, trainer_key, display_name, created_at, updated_at)
VALUES (:id, :module_id, :trainer_key, :display_name, :created_at, :updated_at)`
	keys := make([]string, 0, len(names))
	for key := range names {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := time.Now().UTC()
	for _, key := range keys {
		row := models.Trainer{
			ID:          uuid.NewString(),
			ModuleID:    moduleID,
			TrainerKey:  key,
			DisplayName: names[key],
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, row); err != nil {
			return fmt.Errorf("insert trainer %s for module %d: %w", key, moduleID, err)
		}
	}
	return nil
}
