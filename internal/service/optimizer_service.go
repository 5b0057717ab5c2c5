package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/takwin-center/takwin-api/internal/dto"
	"github.com/takwin-center/takwin-api/internal/models"
	"github.com/takwin-center/takwin-api/internal/timetable"
	appErrors "github.com/takwin-center/takwin-api/pkg/errors"
)

// OptimizerService exposes gap analysis and conflict-free corrective swaps
// over the active timetable of a session.
type OptimizerService struct {
	trainers  trainerDirectorySource
	versions  timetableVersionRepository
	cache     timetableCache
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	weekday   time.Weekday
}

// NewOptimizerService wires the optimizer dependencies.
func NewOptimizerService(
	trainers trainerDirectorySource,
	versions timetableVersionRepository,
	cache timetableCache,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	weekday time.Weekday,
) *OptimizerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if weekday == 0 {
		weekday = time.Saturday
	}
	return &OptimizerService{
		trainers:  trainers,
		versions:  versions,
		cache:     cache,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		weekday:   weekday,
	}
}

// Analyze reports trainer fragmentation issues in the session's active
// timetable, worst first.
func (s *OptimizerService) Analyze(ctx context.Context, sessionID int) (*dto.AnalyzeResponse, error) {
	version, assignments, _, err := s.loadActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	directory, err := s.trainers.Directory(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer roster")
	}

	opt := timetable.NewOptimizer(nil, directory)
	issues := opt.Analyze(assignments, sessionID)

	s.logger.Info("timetable analysed",
		zap.Int("session_id", sessionID),
		zap.String("version_id", version.ID),
		zap.Int("issues", len(issues)))
	return &dto.AnalyzeResponse{SessionID: sessionID, Issues: issues}, nil
}

// Propose finds the best corrective swap for a reported issue. A response
// with a nil proposal means no automatic fix exists.
func (s *OptimizerService) Propose(ctx context.Context, req dto.ProposeSwapRequest) (*dto.ProposeSwapResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap proposal payload")
	}
	_, assignments, _, err := s.loadActive(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	directory, err := s.trainers.Directory(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer roster")
	}

	opt := timetable.NewOptimizer(nil, directory)
	proposal, err := opt.Propose(assignments, req.SessionID, req.Issue)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, err.Error())
	}
	return &dto.ProposeSwapResponse{Proposal: proposal}, nil
}

// ApplySwap re-validates and commits a proposed swap: both assignment rows
// change hour, and the group's daily mirror is rewritten in the same
// transaction.
func (s *OptimizerService) ApplySwap(ctx context.Context, req dto.ApplySwapRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap payload")
	}
	version, assignments, rows, err := s.loadActive(ctx, req.SessionID)
	if err != nil {
		return err
	}
	directory, err := s.trainers.Directory(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer roster")
	}

	opt := timetable.NewOptimizer(nil, directory)
	if err := opt.Validate(assignments, req.SessionID, req.Proposal); err != nil {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, err.Error())
	}

	target := req.Proposal.Target
	partner := req.Proposal.Partner
	targetRow, ok := findAssignmentRow(rows, target)
	if !ok {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "swap target no longer exists; re-run the analysis")
	}
	partnerRow, ok := findAssignmentRow(rows, partner)
	if !ok {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "swap partner no longer exists; re-run the analysis")
	}

	dayRows, err := s.versions.ListGroupDays(ctx, version.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load daily schedules")
	}
	groupDays, err := rowsToGroupDays(dayRows)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode daily schedules")
	}

	tt := &timetable.Timetable{Assignments: assignments, Days: groupDays}
	dayDate, err := sessionDate(req.SessionID, target.DayIndex, s.weekday)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid session calendar")
	}
	if err := tt.SwapHours(target, partner, dayDate); err != nil {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, err.Error())
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

	if err = s.versions.UpdateAssignmentSlot(ctx, tx, targetRow.ID, target.DayIndex, partner.HourIndex); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update swap target")
		return err
	}
	if err = s.versions.UpdateAssignmentSlot(ctx, tx, partnerRow.ID, partner.DayIndex, target.HourIndex); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update swap partner")
		return err
	}
	if err = s.rewriteGroupDay(ctx, tx, version.ID, tt, target.GroupID, dayDate); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit swap")
		return err
	}

	if s.metrics != nil {
		s.metrics.ObserveSwapApplied()
	}
	if cacheErr := s.cache.Delete(ctx, timetableCacheKey(req.SessionID)); cacheErr != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.Error(cacheErr))
	}
	s.logger.Info("swap applied",
		zap.Int("session_id", req.SessionID),
		zap.String("group_id", target.GroupID),
		zap.Int("day_index", target.DayIndex),
		zap.Int("from_hour", target.HourIndex),
		zap.Int("to_hour", partner.HourIndex))
	return nil
}

func (s *OptimizerService) loadActive(ctx context.Context, sessionID int) (*models.TimetableVersion, []timetable.Assignment, []models.AssignmentRow, error) {
	version, err := s.versions.FindActive(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "no timetable generated for this session yet")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable version")
	}
	rows, err := s.versions.ListAssignments(ctx, version.ID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	return version, rowsToAssignments(rows), rows, nil
}

// rewriteGroupDay persists one group's updated slot list for the affected
// date, taken from the staged timetable.
func (s *OptimizerService) rewriteGroupDay(ctx context.Context, exec sqlx.ExtContext, versionID string, tt *timetable.Timetable, groupID string, date time.Time) error {
	for _, day := range tt.Days[groupID] {
		if !sameDate(day.Date, date) {
			continue
		}
		slots, marshalErr := json.Marshal(day.Slots)
		if marshalErr != nil {
			return appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode daily schedule")
		}
		if err := s.versions.UpdateGroupDaySlots(ctx, exec, versionID, groupID, date, types.JSONText(slots)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rewrite daily schedule")
		}
		return nil
	}
	return appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("group %s has no schedule entry for %s", groupID, date.Format("2006-01-02")))
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func findAssignmentRow(rows []models.AssignmentRow, a timetable.Assignment) (models.AssignmentRow, bool) {
	for _, row := range rows {
		if row.SessionID == a.SessionID && row.ModuleID == a.ModuleID && row.TrainerKey == a.TrainerKey &&
			row.GroupID == a.GroupID && row.DayIndex == a.DayIndex && row.HourIndex == a.HourIndex {
			return row, true
		}
	}
	return models.AssignmentRow{}, false
}

func sessionDate(sessionID, dayIndex int, weekday time.Weekday) (time.Time, error) {
	days, err := sessionCalendar(sessionID, weekday)
	if err != nil {
		return time.Time{}, err
	}
	if dayIndex < 0 || dayIndex >= len(days) {
		return time.Time{}, fmt.Errorf("day index %d outside session calendar", dayIndex)
	}
	return days[dayIndex], nil
}
