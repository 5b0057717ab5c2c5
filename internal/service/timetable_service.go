package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/takwin-center/takwin-api/internal/catalog"
	"github.com/takwin-center/takwin-api/internal/dto"
	"github.com/takwin-center/takwin-api/internal/models"
	"github.com/takwin-center/takwin-api/internal/timetable"
	appErrors "github.com/takwin-center/takwin-api/pkg/errors"
)

type trainerDirectorySource interface {
	Directory(ctx context.Context) (timetable.Directory, error)
}

type groupCountSource interface {
	GroupCounts(ctx context.Context) (map[timetable.Rank]int, error)
}

type timetableVersionRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, version *models.TimetableVersion) error
	InsertAssignments(ctx context.Context, exec sqlx.ExtContext, rows []models.AssignmentRow) error
	InsertGroupDays(ctx context.Context, exec sqlx.ExtContext, rows []models.GroupDayRow) error
	FindActive(ctx context.Context, sessionID int) (*models.TimetableVersion, error)
	FindByID(ctx context.Context, id string) (*models.TimetableVersion, error)
	ListVersions(ctx context.Context, sessionID int) ([]models.TimetableVersion, error)
	ListAssignments(ctx context.Context, versionID string) ([]models.AssignmentRow, error)
	ListGroupDays(ctx context.Context, versionID string) ([]models.GroupDayRow, error)
	UpdateAssignmentSlot(ctx context.Context, exec sqlx.ExtContext, id string, dayIndex, hourIndex int) error
	UpdateGroupDaySlots(ctx context.Context, exec sqlx.ExtContext, versionID, groupID string, date time.Time, slots types.JSONText) error
	Publish(ctx context.Context, exec sqlx.ExtContext, sessionID int, versionID string) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableServiceConfig governs the generation pipeline.
type TimetableServiceConfig struct {
	Generator       timetable.GeneratorConfig
	TeachingWeekday time.Weekday
	CacheTTL        time.Duration
}

// TimetableService orchestrates timetable generation for a session: it turns
// the stored trainer roster and group counts into a generation request, runs
// the randomized search and persists the outcome as a new draft version.
type TimetableService struct {
	trainers  trainerDirectorySource
	groups    groupCountSource
	versions  timetableVersionRepository
	cache     timetableCache
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableServiceConfig
}

// NewTimetableService wires the timetable pipeline.
func NewTimetableService(
	trainers trainerDirectorySource,
	groups groupCountSource,
	versions timetableVersionRepository,
	cache timetableCache,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TeachingWeekday == 0 {
		cfg.TeachingWeekday = time.Saturday
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &TimetableService{
		trainers:  trainers,
		groups:    groups,
		versions:  versions,
		cache:     cache,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate runs a fresh generation for one session and stores it as a new
// draft version. Prior versions are untouched until publication.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	session, ok := catalog.SessionByID(req.SessionID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d is not defined", req.SessionID))
	}

	workingDays, err := timetable.ParseSessionDays(session.StartDate, session.EndDate, s.cfg.TeachingWeekday)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid session calendar")
	}

	directory, err := s.trainers.Directory(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer roster")
	}
	if len(directory) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no trainers registered; configure module rosters first")
	}

	counts, err := s.groups.GroupCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group counts")
	}
	groupNeeds, err := catalog.GroupNeedsFor(req.SessionID, counts)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expand group needs")
	}
	if len(groupNeeds) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no trainee groups configured; set group counts per rank first")
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	gen := timetable.NewGenerator(s.cfg.Generator, nil, rand.New(rand.NewSource(seed)))

	start := time.Now()
	result, err := gen.Generate(timetable.Request{
		SessionID:   req.SessionID,
		WorkingDays: workingDays,
		Groups:      groupNeeds,
		Directory:   directory,
	})
	if s.metrics != nil {
		s.metrics.ObserveGeneration(req.SessionID, time.Since(start), err == nil)
	}
	if err != nil {
		var infeasible *timetable.InfeasibilityError
		if errors.As(err, &infeasible) {
			s.logger.Warn("timetable generation exhausted retries",
				zap.Int("session_id", req.SessionID),
				zap.Int64("seed", seed),
				zap.Strings("hints", infeasible.Hints))
			return nil, appErrors.Wrap(err, appErrors.ErrInfeasible.Code, appErrors.ErrInfeasible.Status, infeasible.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable generation failed")
	}

	s.logger.Info("timetable generated",
		zap.Int("session_id", req.SessionID),
		zap.Int64("seed", seed),
		zap.Int("assignments", len(result.Assignments)),
		zap.String("distribution", result.Describe()),
		zap.Duration("took", time.Since(start)))

	version, err := s.persist(ctx, req.SessionID, seed, result)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cache.Delete(ctx, timetableCacheKey(req.SessionID)); cacheErr != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.Error(cacheErr))
	}

	return s.buildResponse(version, result.Assignments, result.GroupDays), nil
}

func (s *TimetableService) persist(ctx context.Context, sessionID int, seed int64, result *timetable.Result) (*models.TimetableVersion, error) {
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	meta, marshalErr := json.Marshal(map[string]any{
		"distribution": result.Describe(),
		"generated_at": time.Now().UTC(),
	})
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode version metadata")
		return nil, err
	}

	version := &models.TimetableVersion{
		SessionID: sessionID,
		Seed:      seed,
		Status:    models.TimetableVersionStatusDraft,
		Meta:      types.JSONText(meta),
	}
	if err = s.versions.CreateVersioned(ctx, tx, version); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable version")
		return nil, err
	}

	assignmentRows := make([]models.AssignmentRow, 0, len(result.Assignments))
	for _, a := range result.Assignments {
		assignmentRows = append(assignmentRows, models.AssignmentRow{
			VersionID:  version.ID,
			SessionID:  a.SessionID,
			ModuleID:   a.ModuleID,
			TrainerKey: a.TrainerKey,
			GroupID:    a.GroupID,
			DayIndex:   a.DayIndex,
			HourIndex:  a.HourIndex,
		})
	}
	if err = s.versions.InsertAssignments(ctx, tx, assignmentRows); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist assignments")
		return nil, err
	}

	dayRows, convErr := groupDaysToRows(version.ID, result.GroupDays)
	if convErr != nil {
		err = appErrors.Wrap(convErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode daily schedules")
		return nil, err
	}
	if err = s.versions.InsertGroupDays(ctx, tx, dayRows); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist daily schedules")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable version")
		return nil, err
	}
	return version, nil
}

// Get returns the active timetable of a session, serving from cache when
// possible.
func (s *TimetableService) Get(ctx context.Context, sessionID int) (*dto.TimetableResponse, error) {
	if _, ok := catalog.SessionByID(sessionID); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %d is not defined", sessionID))
	}

	var cached dto.TimetableResponse
	if err := s.cache.Get(ctx, timetableCacheKey(sessionID), &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("timetable cache read failed", zap.Error(err))
	}

	version, err := s.versions.FindActive(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no timetable generated for this session yet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable version")
	}

	resp, err := s.loadVersion(ctx, version)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cache.Set(ctx, timetableCacheKey(sessionID), resp, s.cfg.CacheTTL); cacheErr != nil {
		s.logger.Warn("timetable cache write failed", zap.Error(cacheErr))
	}
	return resp, nil
}

// TrainerSchedules projects the active timetable of a session by trainer:
// assignments grouped per person (name-resolved across modules) in
// chronological order.
func (s *TimetableService) TrainerSchedules(ctx context.Context, sessionID int) (*dto.TrainerScheduleResponse, error) {
	active, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	directory, err := s.trainers.Directory(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer roster")
	}

	resolver := timetable.NewNameResolver(directory)
	byIdentity := make(map[string]*dto.TrainerScheduleEntry)
	for _, a := range active.Assignments {
		if a.ModuleID == timetable.MergeModuleID {
			continue
		}
		identity := resolver.Identity(a.ModuleID, a.TrainerKey)
		entry, ok := byIdentity[identity]
		if !ok {
			entry = &dto.TrainerScheduleEntry{TrainerName: directory.DisplayName(a.ModuleID, a.TrainerKey)}
			byIdentity[identity] = entry
		}
		entry.Assignments = append(entry.Assignments, a)
	}

	trainers := make([]dto.TrainerScheduleEntry, 0, len(byIdentity))
	for _, entry := range byIdentity {
		sort.Slice(entry.Assignments, func(i, j int) bool {
			if entry.Assignments[i].DayIndex != entry.Assignments[j].DayIndex {
				return entry.Assignments[i].DayIndex < entry.Assignments[j].DayIndex
			}
			return entry.Assignments[i].HourIndex < entry.Assignments[j].HourIndex
		})
		trainers = append(trainers, *entry)
	}
	sort.Slice(trainers, func(i, j int) bool { return trainers[i].TrainerName < trainers[j].TrainerName })

	return &dto.TrainerScheduleResponse{
		SessionID: sessionID,
		VersionID: active.VersionID,
		Trainers:  trainers,
	}, nil
}

// GetVersion returns one stored version in full, active or not.
func (s *TimetableService) GetVersion(ctx context.Context, versionID string) (*dto.TimetableResponse, error) {
	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable version not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable version")
	}
	return s.loadVersion(ctx, version)
}

// Versions lists stored version metadata for a session.
func (s *TimetableService) Versions(ctx context.Context, sessionID int) (*dto.TimetableVersionListResponse, error) {
	versions, err := s.versions.ListVersions(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable versions")
	}
	metas := make([]models.TimetableVersionMeta, 0, len(versions))
	for _, v := range versions {
		metas = append(metas, models.TimetableVersionMeta{
			ID:        v.ID,
			Version:   v.Version,
			Status:    v.Status,
			CreatedAt: v.CreatedAt,
		})
	}
	return &dto.TimetableVersionListResponse{SessionID: sessionID, Versions: metas}, nil
}

// Publish promotes a draft version to the published timetable of its session
// and archives the previously published one.
func (s *TimetableService) Publish(ctx context.Context, versionID string) error {
	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable version not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable version")
	}
	if version.Status == models.TimetableVersionStatusArchived {
		return appErrors.Clone(appErrors.ErrConflict, "archived versions cannot be published")
	}

	if err := s.versions.Publish(ctx, nil, version.SessionID, versionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable version")
	}

	if cacheErr := s.cache.Delete(ctx, timetableCacheKey(version.SessionID)); cacheErr != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.Error(cacheErr))
	}
	return nil
}

func (s *TimetableService) loadVersion(ctx context.Context, version *models.TimetableVersion) (*dto.TimetableResponse, error) {
	assignmentRows, err := s.versions.ListAssignments(ctx, version.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	dayRows, err := s.versions.ListGroupDays(ctx, version.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load daily schedules")
	}

	groupDays, err := rowsToGroupDays(dayRows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode daily schedules")
	}
	return s.buildResponse(version, rowsToAssignments(assignmentRows), groupDays), nil
}

func (s *TimetableService) buildResponse(version *models.TimetableVersion, assignments []timetable.Assignment, groupDays map[string][]timetable.Day) *dto.TimetableResponse {
	return &dto.TimetableResponse{
		VersionID:   version.ID,
		SessionID:   version.SessionID,
		Version:     version.Version,
		Status:      version.Status,
		Seed:        version.Seed,
		Assignments: assignments,
		GroupDays:   groupDays,
	}
}

func timetableCacheKey(sessionID int) string {
	return fmt.Sprintf("timetable:session:%d", sessionID)
}

func rowsToAssignments(rows []models.AssignmentRow) []timetable.Assignment {
	out := make([]timetable.Assignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, timetable.Assignment{
			SessionID:  row.SessionID,
			ModuleID:   row.ModuleID,
			TrainerKey: row.TrainerKey,
			GroupID:    row.GroupID,
			DayIndex:   row.DayIndex,
			HourIndex:  row.HourIndex,
		})
	}
	return out
}

func rowsToGroupDays(rows []models.GroupDayRow) (map[string][]timetable.Day, error) {
	out := make(map[string][]timetable.Day)
	for _, row := range rows {
		var slots []timetable.Slot
		if len(row.Slots) > 0 {
			if err := json.Unmarshal(row.Slots, &slots); err != nil {
				return nil, fmt.Errorf("decode slots for group %s on %s: %w", row.GroupID, row.Date.Format("2006-01-02"), err)
			}
		}
		out[row.GroupID] = append(out[row.GroupID], timetable.Day{Date: row.Date, Slots: slots})
	}
	return out, nil
}

func groupDaysToRows(versionID string, groupDays map[string][]timetable.Day) ([]models.GroupDayRow, error) {
	groups := make([]string, 0, len(groupDays))
	for groupID := range groupDays {
		groups = append(groups, groupID)
	}
	sort.Strings(groups)

	var rows []models.GroupDayRow
	for _, groupID := range groups {
		for _, day := range groupDays[groupID] {
			slots, err := json.Marshal(day.Slots)
			if err != nil {
				return nil, fmt.Errorf("encode slots for group %s: %w", groupID, err)
			}
			rows = append(rows, models.GroupDayRow{
				VersionID: versionID,
				GroupID:   groupID,
				Date:      day.Date,
				Slots:     types.JSONText(slots),
			})
		}
	}
	return rows, nil
}
