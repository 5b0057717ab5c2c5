package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableVersionStatus represents lifecycle phases for generated timetables.
type TimetableVersionStatus string

const (
	TimetableVersionStatusDraft     TimetableVersionStatus = "DRAFT"
	TimetableVersionStatusPublished TimetableVersionStatus = "PUBLISHED"
	TimetableVersionStatusArchived  TimetableVersionStatus = "ARCHIVED"
)

// TimetableVersion captures one generated timetable for a session. Each
// regeneration produces a fresh version; publishing archives its siblings.
type TimetableVersion struct {
	ID        string                 `db:"id" json:"id"`
	SessionID int                    `db:"session_id" json:"session_id"`
	Version   int                    `db:"version" json:"version"`
	Status    TimetableVersionStatus `db:"status" json:"status"`
	Seed      int64                  `db:"seed" json:"seed"`
	Meta      types.JSONText         `db:"meta" json:"meta"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt time.Time              `db:"updated_at" json:"updated_at"`
}

// AssignmentRow is the persisted form of one scheduled hour.
type AssignmentRow struct {
	ID         string    `db:"id" json:"id"`
	VersionID  string    `db:"version_id" json:"version_id"`
	SessionID  int       `db:"session_id" json:"session_id"`
	ModuleID   int       `db:"module_id" json:"module_id"`
	TrainerKey string    `db:"trainer_key" json:"trainer_key"`
	GroupID    string    `db:"group_id" json:"group_id"`
	DayIndex   int       `db:"day_index" json:"day_index"`
	HourIndex  int       `db:"hour_index" json:"hour_index"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// GroupDayRow is one group's schedule for one calendar day, with the slot
// list stored as JSONB.
type GroupDayRow struct {
	ID        string         `db:"id" json:"id"`
	VersionID string         `db:"version_id" json:"version_id"`
	GroupID   string         `db:"group_id" json:"group_id"`
	Date      time.Time      `db:"date" json:"date"`
	Slots     types.JSONText `db:"slots" json:"slots"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// TimetableVersionMeta is lightweight metadata for version list views.
type TimetableVersionMeta struct {
	ID        string                 `json:"id"`
	Version   int                    `json:"version"`
	Status    TimetableVersionStatus `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
}
