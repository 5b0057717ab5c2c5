package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/takwin-center/takwin-api/internal/catalog"
	"github.com/takwin-center/takwin-api/internal/dto"
	"github.com/takwin-center/takwin-api/internal/timetable"
	appErrors "github.com/takwin-center/takwin-api/pkg/errors"
)

// EditorService validates and commits manual slot moves against the active
// timetable of a session.
type EditorService struct {
	trainers  trainerDirectorySource
	versions  timetableVersionRepository
	cache     timetableCache
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	weekday   time.Weekday
}

// NewEditorService wires the editor dependencies.
func NewEditorService(
	trainers trainerDirectorySource,
	versions timetableVersionRepository,
	cache timetableCache,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	weekday time.Weekday,
) *EditorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if weekday == 0 {
		weekday = time.Saturday
	}
	return &EditorService{
		trainers:  trainers,
		versions:  versions,
		cache:     cache,
		tx:        tx,
		validator: validate,
		logger:    logger,
		weekday:   weekday,
	}
}

// MoveSlot relocates one group slot, displacing any occupant of the target
// cell back to the source. The move is rejected when it would double-book a
// trainer across groups in either direction.
func (s *EditorService) MoveSlot(ctx context.Context, req dto.MoveSlotRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}

	version, err := s.versions.FindActive(ctx, req.SessionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "no timetable generated for this session yet")
	}
	rows, err := s.versions.ListAssignments(ctx, version.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	assignments := rowsToAssignments(rows)

	directory, err := s.trainers.Directory(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer roster")
	}

	editor := timetable.NewEditor(nil, directory)
	moveReq := timetable.MoveRequest{
		SessionID: req.SessionID,
		GroupID:   req.GroupID,
		SrcDay:    req.SrcDay,
		SrcHour:   req.SrcHour,
		DstDay:    req.DstDay,
		DstHour:   req.DstHour,
	}
	if err := editor.ValidateMove(assignments, moveReq); err != nil {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, err.Error())
	}

	sessionDays, err := sessionCalendar(req.SessionID, s.weekday)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid session calendar")
	}
	if req.SrcDay >= len(sessionDays) || req.DstDay >= len(sessionDays) {
		return appErrors.Clone(appErrors.ErrValidation, "day index outside the session calendar")
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
	moved, ok := tt.AssignmentAt(req.SessionID, req.GroupID, req.SrcDay, req.SrcHour)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "no slot at the source cell")
	}
	displaced, hasDisplaced := tt.AssignmentAt(req.SessionID, req.GroupID, req.DstDay, req.DstHour)

	if err := tt.MoveSlot(req.SessionID, req.GroupID, req.SrcDay, req.SrcHour, req.DstDay, req.DstHour,
		sessionDays[req.SrcDay], sessionDays[req.DstDay]); err != nil {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, err.Error())
	}

	movedRow, ok := findAssignmentRow(rows, moved)
	if !ok {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "slot changed since it was loaded; reload the timetable")
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

	if err = s.versions.UpdateAssignmentSlot(ctx, tx, movedRow.ID, req.DstDay, req.DstHour); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move slot")
		return err
	}
	if hasDisplaced {
		displacedRow, found := findAssignmentRow(rows, displaced)
		if !found {
			err = appErrors.Clone(appErrors.ErrPreconditionFailed, "displaced slot changed since it was loaded; reload the timetable")
			return err
		}
		if err = s.versions.UpdateAssignmentSlot(ctx, tx, displacedRow.ID, req.SrcDay, req.SrcHour); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move displaced slot")
			return err
		}
	}

	if err = s.rewriteDay(ctx, tx, version.ID, tt, req.GroupID, sessionDays[req.SrcDay]); err != nil {
		return err
	}
	if req.DstDay != req.SrcDay {
		if err = s.rewriteDay(ctx, tx, version.ID, tt, req.GroupID, sessionDays[req.DstDay]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit move")
		return err
	}

	if cacheErr := s.cache.Delete(ctx, timetableCacheKey(req.SessionID)); cacheErr != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.Error(cacheErr))
	}
	s.logger.Info("slot moved",
		zap.Int("session_id", req.SessionID),
		zap.String("group_id", req.GroupID),
		zap.Int("src_day", req.SrcDay), zap.Int("src_hour", req.SrcHour),
		zap.Int("dst_day", req.DstDay), zap.Int("dst_hour", req.DstHour),
		zap.Bool("displaced", hasDisplaced))
	return nil
}

func (s *EditorService) rewriteDay(ctx context.Context, exec sqlx.ExtContext, versionID string, tt *timetable.Timetable, groupID string, date time.Time) error {
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

func sessionCalendar(sessionID int, weekday time.Weekday) ([]time.Time, error) {
	session, ok := catalog.SessionByID(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %d is not defined", sessionID)
	}
	return timetable.ParseSessionDays(session.StartDate, session.EndDate, weekday)
}
