package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/takwin-center/takwin-api/internal/catalog"
	"github.com/takwin-center/takwin-api/internal/dto"
	"github.com/takwin-center/takwin-api/internal/models"
	"github.com/takwin-center/takwin-api/internal/timetable"
	appErrors "github.com/takwin-center/takwin-api/pkg/errors"
)

type trainerRosterRepository interface {
	Directory(ctx context.Context) (timetable.Directory, error)
	ListByModule(ctx context.Context, moduleID int) ([]models.Trainer, error)
	ReplaceModule(ctx context.Context, exec sqlx.ExtContext, moduleID int, names map[string]string) error
}

type groupCountRepository interface {
	GroupCounts(ctx context.Context) (map[timetable.Rank]int, error)
	SetGroupCounts(ctx context.Context, exec sqlx.ExtContext, counts map[timetable.Rank]int) error
}

// TrainerService manages the per-module trainer rosters and the per-rank
// group counts that feed generation.
type TrainerService struct {
	trainers  trainerRosterRepository
	groups    groupCountRepository
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTrainerService wires the trainer configuration dependencies.
func NewTrainerService(
	trainers trainerRosterRepository,
	groups groupCountRepository,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *TrainerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainerService{
		trainers:  trainers,
		groups:    groups,
		tx:        tx,
		validator: validate,
		logger:    logger,
	}
}

// Roster returns the full trainer directory keyed by module.
func (s *TrainerService) Roster(ctx context.Context) (*dto.TrainerConfigResponse, error) {
	dir, err := s.trainers.Directory(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer roster")
	}
	modules := make(map[int]map[string]string, len(dir))
	for moduleID, names := range dir {
		modules[moduleID] = names
	}
	return &dto.TrainerConfigResponse{Modules: modules}, nil
}

// ModuleRoster returns one module's trainer list.
func (s *TrainerService) ModuleRoster(ctx context.Context, moduleID int) (*dto.ModuleRosterResponse, error) {
	if _, ok := catalog.ModuleByID(moduleID); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("module %d is not defined", moduleID))
	}
	trainers, err := s.trainers.ListByModule(ctx, moduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module roster")
	}
	names := make(map[string]string, len(trainers))
	for _, t := range trainers {
		names[t.TrainerKey] = t.DisplayName
	}
	return &dto.ModuleRosterResponse{ModuleID: moduleID, Trainers: names}, nil
}

// ReplaceModuleRoster swaps one module's trainer list wholesale. Display
// names drive cross-module trainer identity, so a rename here changes
// conflict detection for the next generation run.
func (s *TrainerService) ReplaceModuleRoster(ctx context.Context, req dto.TrainerConfigRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trainer roster payload")
	}
	if _, ok := catalog.ModuleByID(req.ModuleID); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("module %d is not defined", req.ModuleID))
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.trainers.ReplaceModule(ctx, tx, req.ModuleID, req.Trainers); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace trainer roster")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit trainer roster")
		return err
	}

	s.logger.Info("trainer roster replaced",
		zap.Int("module_id", req.ModuleID),
		zap.Int("trainers", len(req.Trainers)))
	return nil
}

// GroupCounts returns the configured group counts per rank.
func (s *TrainerService) GroupCounts(ctx context.Context) (*dto.GroupCountsResponse, error) {
	counts, err := s.groups.GroupCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group counts")
	}
	out := make(map[string]int, len(counts))
	for rank, count := range counts {
		out[string(rank)] = count
	}
	return &dto.GroupCountsResponse{Counts: out}, nil
}

// SetGroupCounts replaces the per-rank group counts for the cycle.
func (s *TrainerService) SetGroupCounts(ctx context.Context, req dto.GroupCountsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group counts payload")
	}

	counts := make(map[timetable.Rank]int, len(req.Counts))
	for rank, count := range req.Counts {
		if count < 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("rank %s has a negative group count", rank))
		}
		if _, err := catalog.Curriculum(timetable.Rank(rank)); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown rank %q", rank))
		}
		counts[timetable.Rank(rank)] = count
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.groups.SetGroupCounts(ctx, tx, counts); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store group counts")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit group counts")
		return err
	}
	return nil
}
