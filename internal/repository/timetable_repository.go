package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/takwin-center/takwin-api/internal/models"
)

// TimetableRepository persists versioned session timetables: the version
// header, the flat assignment rows and the per-group daily mirror.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a timetable version assigning the next version
// number for the session.
func (r *TimetableRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, version *models.TimetableVersion) error {
	if version == nil {
		return fmt.Errorf("timetable version payload is nil")
	}
	if version.SessionID == 0 {
		return fmt.Errorf("session_id is required")
	}
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.Status == "" {
		version.Status = models.TimetableVersionStatusDraft
	}
	if len(version.Meta) == 0 {
		version.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if version.CreatedAt.IsZero() {
		version.CreatedAt = now
	}
	version.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM timetable_versions WHERE session_id = $1`
	if err := sqlx.GetContext(ctx, target, &version.Version, nextVersionQuery, version.SessionID); err != nil {
		return fmt.Errorf("compute next timetable version: %w", err)
	}

	const insertQuery = `
INSERT INTO timetable_versions (id, session_id, version, status, seed, meta, created_at, updated_at)
VALUES (:id, :session_id, :version, :status, :seed, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, version); err != nil {
		return fmt.Errorf("insert timetable version: %w", err)
	}
	return nil
}

// InsertAssignments stores a version's assignment rows.
func (r *TimetableRepository) InsertAssignments(ctx context.Context, exec sqlx.ExtContext, rows []models.AssignmentRow) error {
	target := r.exec(exec)

	const query = `
INSERT INTO timetable_assignments (id, version_id, session_id, module_id, trainer_key, group_id, day_index, hour_index, created_at)
VALUES (:id, :version_id, :session_id, :module_id, :trainer_key, :group_id, :day_index, :hour_index, :created_at)`
	now := time.Now().UTC()
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, rows[i]); err != nil {
			return fmt.Errorf("insert timetable assignment: %w", err)
		}
	}
	return nil
}

// InsertGroupDays stores a version's per-group daily mirror.
func (r *TimetableRepository) InsertGroupDays(ctx context.Context, exec sqlx.ExtContext, rows []models.GroupDayRow) error {
	target := r.exec(exec)

	const query = `
INSERT INTO timetable_group_days (id, version_id, group_id, date, slots, created_at)
VALUES (:id, :version_id, :group_id, :date, :slots, :created_at)`
	now := time.Now().UTC()
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = now
		}
		if len(rows[i].Slots) == 0 {
			rows[i].Slots = types.JSONText(`[]`)
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, rows[i]); err != nil {
			return fmt.Errorf("insert timetable group day: %w", err)
		}
	}
	return nil
}

// FindActive loads the published version of a session, falling back to the
// latest draft when nothing has been published yet.
func (r *TimetableRepository) FindActive(ctx context.Context, sessionID int) (*models.TimetableVersion, error) {
	const query = `SELECT id, session_id, version, status, seed, meta, created_at, updated_at
FROM timetable_versions WHERE session_id = $1 AND status != 'ARCHIVED'
ORDER BY CASE status WHEN 'PUBLISHED' THEN 0 ELSE 1 END, version DESC LIMIT 1`
	var version models.TimetableVersion
	if err := r.db.GetContext(ctx, &version, query, sessionID); err != nil {
		return nil, err
	}
	return &version, nil
}

// FindByID loads a version by its identifier.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableVersion, error) {
	const query = `SELECT id, session_id, version, status, seed, meta, created_at, updated_at
FROM timetable_versions WHERE id = $1`
	var version models.TimetableVersion
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		return nil, err
	}
	return &version, nil
}

// ListVersions returns version metadata for a session, newest first.
func (r *TimetableRepository) ListVersions(ctx context.Context, sessionID int) ([]models.TimetableVersion, error) {
	const query = `SELECT id, session_id, version, status, seed, meta, created_at, updated_at
FROM timetable_versions WHERE session_id = $1 ORDER BY version DESC`
	var versions []models.TimetableVersion
	if err := r.db.SelectContext(ctx, &versions, query, sessionID); err != nil {
		return nil, fmt.Errorf("list timetable versions: %w", err)
	}
	return versions, nil
}

// ListAssignments loads the assignment rows of one version ordered by day,
// hour and group.
func (r *TimetableRepository) ListAssignments(ctx context.Context, versionID string) ([]models.AssignmentRow, error) {
	const query = `SELECT id, version_id, session_id, module_id, trainer_key, group_id, day_index, hour_index, created_at
FROM timetable_assignments WHERE version_id = $1 ORDER BY day_index, hour_index, group_id`
	var rows []models.AssignmentRow
	if err := r.db.SelectContext(ctx, &rows, query, versionID); err != nil {
		return nil, fmt.Errorf("list timetable assignments: %w", err)
	}
	return rows, nil
}

// ListGroupDays loads the daily mirror rows of one version ordered by group
// and date.
func (r *TimetableRepository) ListGroupDays(ctx context.Context, versionID string) ([]models.GroupDayRow, error) {
	const query = `SELECT id, version_id, group_id, date, slots, created_at
FROM timetable_group_days WHERE version_id = $1 ORDER BY group_id, date`
	var rows []models.GroupDayRow
	if err := r.db.SelectContext(ctx, &rows, query, versionID); err != nil {
		return nil, fmt.Errorf("list timetable group days: %w", err)
	}
	return rows, nil
}

// UpdateAssignmentSlot rewrites the cell of one stored assignment after a
// swap or a manual move.
func (r *TimetableRepository) UpdateAssignmentSlot(ctx context.Context, exec sqlx.ExtContext, id string, dayIndex, hourIndex int) error {
	target := r.exec(exec)

	const query = `UPDATE timetable_assignments SET day_index = $1, hour_index = $2 WHERE id = $3`
	result, err := target.ExecContext(ctx, query, dayIndex, hourIndex, id)
	if err != nil {
		return fmt.Errorf("update timetable assignment slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable assignment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateGroupDaySlots rewrites the slot list of one stored group day.
func (r *TimetableRepository) UpdateGroupDaySlots(ctx context.Context, exec sqlx.ExtContext, versionID, groupID string, date time.Time, slots types.JSONText) error {
	target := r.exec(exec)

	const query = `UPDATE timetable_group_days SET slots = $1 WHERE version_id = $2 AND group_id = $3 AND date = $4`
	result, err := target.ExecContext(ctx, query, slots, versionID, groupID, date)
	if err != nil {
		return fmt.Errorf("update timetable group day: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable group day rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Publish marks one version published and archives every other version of
// the same session.
func (r *TimetableRepository) Publish(ctx context.Context, exec sqlx.ExtContext, sessionID int, versionID string) error {
	target := r.exec(exec)
	now := time.Now().UTC()

	const archiveQuery = `UPDATE timetable_versions SET status = 'ARCHIVED', updated_at = $1
WHERE session_id = $2 AND id != $3 AND status = 'PUBLISHED'`
	if _, err := target.ExecContext(ctx, archiveQuery, now, sessionID, versionID); err != nil {
		return fmt.Errorf("archive superseded timetable versions: %w", err)
	}

	const publishQuery = `UPDATE timetable_versions SET status = 'PUBLISHED', updated_at = $1 WHERE id = $2`
	result, err := target.ExecContext(ctx, publishQuery, now, versionID)
	if err != nil {
		return fmt.Errorf("publish timetable version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("publish timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a stored version together with its rows.
func (r *TimetableRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	target := r.exec(exec)

	if _, err := target.ExecContext(ctx, `DELETE FROM timetable_assignments WHERE version_id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable assignments: %w", err)
	}
	if _, err := target.ExecContext(ctx, `DELETE FROM timetable_group_days WHERE version_id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable group days: %w", err)
	}
	result, err := target.ExecContext(ctx, `DELETE FROM timetable_versions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete timetable version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable version rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
