package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/takwin-center/takwin-api/internal/models"
	"github.com/takwin-center/takwin-api/internal/timetable"
)

// InstitutionRepository stores cycle-level configuration: how many trainee
// groups each rank runs.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository constructs an InstitutionRepository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

func (r *InstitutionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// GroupCounts returns the configured group count per rank.
func (r *InstitutionRepository) GroupCounts(ctx context.Context) (map[timetable.Rank]int, error) {
	const query = `SELECT rank, group_count, updated_at FROM rank_group_counts ORDER BY rank`
	var rows []models.RankGroupCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list rank group counts: %w", err)
	}
	counts := make(map[timetable.Rank]int, len(rows))
	for _, row := range rows {
		counts[timetable.Rank(row.Rank)] = row.GroupCount
	}
	return counts, nil
}

// SetGroupCounts upserts the group counts inside the caller's transaction.
func (r *InstitutionRepository) SetGroupCounts(ctx context.Context, exec sqlx.ExtContext, counts map[timetable.Rank]int) error {
	target := r.exec(exec)

	ranks := make([]string, 0, len(counts))
	for rank := range counts {
		ranks = append(ranks, string(rank))
	}
	sort.Strings(ranks)

	const query = `
INSERT INTO rank_group_counts (rank, group_count, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (rank) DO UPDATE SET group_count = EXCLUDED.group_count, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for _, rank := range ranks {
		if _, err := target.ExecContext(ctx, query, rank, counts[timetable.Rank(rank)], now); err != nil {
			return fmt.Errorf("upsert group count for rank %s: %w", rank, err)
		}
	}
	return nil
}
