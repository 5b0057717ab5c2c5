package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takwin-center/takwin-api/internal/dto"
	"github.com/takwin-center/takwin-api/internal/models"
	"github.com/takwin-center/takwin-api/internal/timetable"
	appErrors "github.com/takwin-center/takwin-api/pkg/errors"
)

type stubTrainerSource struct {
	dir timetable.Directory
	err error
}

func (s *stubTrainerSource) Directory(ctx context.Context) (timetable.Directory, error) {
	return s.dir, s.err
}

type stubGroupSource struct {
	counts map[timetable.Rank]int
	err    error
}

func (s *stubGroupSource) GroupCounts(ctx context.Context) (map[timetable.Rank]int, error) {
	return s.counts, s.err
}

type stubVersionRepo struct {
	versions    map[string]*models.TimetableVersion
	assignments map[string][]models.AssignmentRow
	groupDays   map[string][]models.GroupDayRow
	active      *models.TimetableVersion
	published   []string
	nextVersion int
}

func newStubVersionRepo() *stubVersionRepo {
	return &stubVersionRepo{
		versions:    make(map[string]*models.TimetableVersion),
		assignments: make(map[string][]models.AssignmentRow),
		groupDays:   make(map[string][]models.GroupDayRow),
		nextVersion: 1,
	}
}

func (s *stubVersionRepo) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, version *models.TimetableVersion) error {
	version.ID = uuid.NewString()
	version.Version = s.nextVersion
	s.nextVersion++
	stored := *version
	s.versions[version.ID] = &stored
	return nil
}

func (s *stubVersionRepo) InsertAssignments(ctx context.Context, exec sqlx.ExtContext, rows []models.AssignmentRow) error {
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		s.assignments[rows[i].VersionID] = append(s.assignments[rows[i].VersionID], rows[i])
	}
	return nil
}

func (s *stubVersionRepo) InsertGroupDays(ctx context.Context, exec sqlx.ExtContext, rows []models.GroupDayRow) error {
	for i := range rows {
		s.groupDays[rows[i].VersionID] = append(s.groupDays[rows[i].VersionID], rows[i])
	}
	return nil
}

func (s *stubVersionRepo) FindActive(ctx context.Context, sessionID int) (*models.TimetableVersion, error) {
	if s.active == nil {
		return nil, sql.ErrNoRows
	}
	return s.active, nil
}

func (s *stubVersionRepo) FindByID(ctx context.Context, id string) (*models.TimetableVersion, error) {
	version, ok := s.versions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return version, nil
}

func (s *stubVersionRepo) ListVersions(ctx context.Context, sessionID int) ([]models.TimetableVersion, error) {
	var out []models.TimetableVersion
	for _, v := range s.versions {
		if v.SessionID == sessionID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *stubVersionRepo) ListAssignments(ctx context.Context, versionID string) ([]models.AssignmentRow, error) {
	return s.assignments[versionID], nil
}

func (s *stubVersionRepo) ListGroupDays(ctx context.Context, versionID string) ([]models.GroupDayRow, error) {
	return s.groupDays[versionID], nil
}

func (s *stubVersionRepo) UpdateAssignmentSlot(ctx context.Context, exec sqlx.ExtContext, id string, dayIndex, hourIndex int) error {
	for versionID := range s.assignments {
		for i := range s.assignments[versionID] {
			if s.assignments[versionID][i].ID == id {
				s.assignments[versionID][i].DayIndex = dayIndex
				s.assignments[versionID][i].HourIndex = hourIndex
				return nil
			}
		}
	}
	return sql.ErrNoRows
}

func (s *stubVersionRepo) UpdateGroupDaySlots(ctx context.Context, exec sqlx.ExtContext, versionID, groupID string, date time.Time, slots types.JSONText) error {
	for i := range s.groupDays[versionID] {
		row := &s.groupDays[versionID][i]
		if row.GroupID == groupID && row.Date.Equal(date) {
			row.Slots = slots
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *stubVersionRepo) Publish(ctx context.Context, exec sqlx.ExtContext, sessionID int, versionID string) error {
	version, ok := s.versions[versionID]
	if !ok {
		return sql.ErrNoRows
	}
	version.Status = models.TimetableVersionStatusPublished
	s.published = append(s.published, versionID)
	return nil
}

func (s *stubVersionRepo) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	delete(s.versions, id)
	return nil
}

type stubCache struct {
	data    map[string][]byte
	sets    []string
	deletes []string
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string][]byte)}
}

func (s *stubCache) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (s *stubCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.sets = append(s.sets, key)
	return nil
}

func (s *stubCache) Delete(ctx context.Context, keys ...string) error {
	s.deletes = append(s.deletes, keys...)
	return nil
}

func newTxProviderMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func singleGroupFixture() (*stubTrainerSource, *stubGroupSource) {
	trainers := &stubTrainerSource{dir: timetable.Directory{
		1: {"a": "Samir Haddad"},
		2: {"a": "Nadia Brahimi"},
		3: {"a": "Karim Ziani"},
		4: {"a": "Farid Mansouri"},
		5: {"a": "Yacine Belkacem"},
	}}
	groups := &stubGroupSource{counts: map[timetable.Rank]int{timetable.RankClassOne: 1}}
	return trainers, groups
}

func newTimetableServiceFixture(t *testing.T, trainers *stubTrainerSource, groups *stubGroupSource, repo *stubVersionRepo, cache *stubCache, mockSetup func(sqlmock.Sqlmock)) *TimetableService {
	tx, mock := newTxProviderMock(t)
	if mockSetup != nil {
		mockSetup(mock)
	}
	return NewTimetableService(trainers, groups, repo, cache, tx, nil, nil, nil, TimetableServiceConfig{
		TeachingWeekday: time.Saturday,
	})
}

func TestTimetableServiceGeneratePersistsDraftVersion(t *testing.T) {
	trainers, groups := singleGroupFixture()
	repo := newStubVersionRepo()
	cache := newStubCache()
	seed := int64(11)
	svc := newTimetableServiceFixture(t, trainers, groups, repo, cache, func(mock sqlmock.Sqlmock) {
		mock.ExpectBegin()
		mock.ExpectCommit()
	})

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SessionID: 1, Seed: &seed})
	require.NoError(t, err)

	// A single class-1 group must complete exactly 40 hours in session 1.
	assert.Len(t, resp.Assignments, 40)
	assert.Equal(t, 1, resp.Version)
	assert.Equal(t, models.TimetableVersionStatusDraft, resp.Status)
	assert.Equal(t, seed, resp.Seed)

	// The group's mirror covers all eight Saturdays of the session.
	days := resp.GroupDays[timetable.GroupID(timetable.RankClassOne, 1)]
	assert.Len(t, days, 8)

	require.Len(t, repo.versions, 1)
	assert.Len(t, repo.assignments[resp.VersionID], 40)
	assert.Contains(t, cache.deletes, "timetable:session:1")
}

func TestTimetableServiceGenerateIsReproducibleWithSeed(t *testing.T) {
	trainers, groups := singleGroupFixture()
	seed := int64(7)

	run := func() []timetable.Assignment {
		repo := newStubVersionRepo()
		svc := newTimetableServiceFixture(t, trainers, groups, repo, newStubCache(), func(mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectCommit()
		})
		resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SessionID: 1, Seed: &seed})
		require.NoError(t, err)
		return resp.Assignments
	}

	assert.Equal(t, run(), run())
}

func TestTimetableServiceGenerateInfeasibleRoster(t *testing.T) {
	// One person teaching every module cannot open the day for two groups at
	// once.
	trainers := &stubTrainerSource{dir: timetable.Directory{
		1: {"a": "Samir Haddad"},
		2: {"a": "Samir Haddad"},
		3: {"a": "Samir Haddad"},
		4: {"a": "Samir Haddad"},
		5: {"a": "Samir Haddad"},
	}}
	groups := &stubGroupSource{counts: map[timetable.Rank]int{timetable.RankClassOne: 2}}
	repo := newStubVersionRepo()
	seed := int64(3)
	svc := NewTimetableService(trainers, groups, repo, newStubCache(), nil, nil, nil, nil, TimetableServiceConfig{
		Generator:       timetable.GeneratorConfig{OuterRetries: 3, DayRetries: 3},
		TeachingWeekday: time.Saturday,
	})

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SessionID: 1, Seed: &seed})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInfeasible.Code, appErr.Code)
	assert.Empty(t, repo.versions, "failed runs must not persist versions")
}

func TestTimetableServiceGenerateRejectsUnknownSession(t *testing.T) {
	trainers, groups := singleGroupFixture()
	svc := NewTimetableService(trainers, groups, newStubVersionRepo(), newStubCache(), nil, nil, nil, nil, TimetableServiceConfig{})

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SessionID: 3})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceGenerateRequiresTrainers(t *testing.T) {
	groups := &stubGroupSource{counts: map[timetable.Rank]int{timetable.RankClassOne: 1}}
	svc := NewTimetableService(&stubTrainerSource{dir: timetable.Directory{}}, groups, newStubVersionRepo(), newStubCache(), nil, nil, nil, nil, TimetableServiceConfig{})

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SessionID: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceGetLoadsActiveVersionAndCaches(t *testing.T) {
	trainers, groups := singleGroupFixture()
	repo := newStubVersionRepo()
	cache := newStubCache()
	seed := int64(5)
	svc := newTimetableServiceFixture(t, trainers, groups, repo, cache, func(mock sqlmock.Sqlmock) {
		mock.ExpectBegin()
		mock.ExpectCommit()
	})

	generated, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SessionID: 1, Seed: &seed})
	require.NoError(t, err)
	repo.active = repo.versions[generated.VersionID]

	resp, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, generated.VersionID, resp.VersionID)
	assert.Len(t, resp.Assignments, 40)
	assert.Contains(t, cache.sets, "timetable:session:1")
}

func TestTimetableServiceTrainerSchedulesProjectByPerson(t *testing.T) {
	trainers, groups := singleGroupFixture()
	repo := newStubVersionRepo()
	seed := int64(9)
	svc := newTimetableServiceFixture(t, trainers, groups, repo, newStubCache(), func(mock sqlmock.Sqlmock) {
		mock.ExpectBegin()
		mock.ExpectCommit()
	})

	generated, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SessionID: 1, Seed: &seed})
	require.NoError(t, err)
	repo.active = repo.versions[generated.VersionID]

	resp, err := svc.TrainerSchedules(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, generated.VersionID, resp.VersionID)
	require.Len(t, resp.Trainers, 5)

	total := 0
	for i, entry := range resp.Trainers {
		assert.NotEmpty(t, entry.TrainerName)
		if i > 0 {
			assert.LessOrEqual(t, resp.Trainers[i-1].TrainerName, entry.TrainerName)
		}
		for j := 1; j < len(entry.Assignments); j++ {
			prev, cur := entry.Assignments[j-1], entry.Assignments[j]
			ordered := prev.DayIndex < cur.DayIndex ||
				(prev.DayIndex == cur.DayIndex && prev.HourIndex < cur.HourIndex)
			assert.True(t, ordered, "trainer %s assignments out of order", entry.TrainerName)
		}
		total += len(entry.Assignments)
	}
	assert.Equal(t, 40, total)
}

func TestTimetableServiceGetWithoutTimetable(t *testing.T) {
	trainers, groups := singleGroupFixture()
	svc := NewTimetableService(trainers, groups, newStubVersionRepo(), newStubCache(), nil, nil, nil, nil, TimetableServiceConfig{})

	_, err := svc.Get(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServicePublishArchivedVersion(t *testing.T) {
	trainers, groups := singleGroupFixture()
	repo := newStubVersionRepo()
	version := &models.TimetableVersion{ID: "v-1", SessionID: 1, Status: models.TimetableVersionStatusArchived}
	repo.versions["v-1"] = version
	svc := NewTimetableService(trainers, groups, repo, newStubCache(), nil, nil, nil, nil, TimetableServiceConfig{})

	err := svc.Publish(context.Background(), "v-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTimetableServicePublishInvalidatesCache(t *testing.T) {
	trainers, groups := singleGroupFixture()
	repo := newStubVersionRepo()
	repo.versions["v-1"] = &models.TimetableVersion{ID: "v-1", SessionID: 1, Status: models.TimetableVersionStatusDraft}
	cache := newStubCache()
	svc := NewTimetableService(trainers, groups, repo, cache, nil, nil, nil, nil, TimetableServiceConfig{})

	require.NoError(t, svc.Publish(context.Background(), "v-1"))
	assert.Equal(t, []string{"v-1"}, repo.published)
	assert.Contains(t, cache.deletes, "timetable:session:1")
}
