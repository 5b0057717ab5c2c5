package dto

import (
	"github.com/takwin-center/takwin-api/internal/catalog"
	"github.com/takwin-center/takwin-api/internal/models"
	"github.com/takwin-center/takwin-api/internal/timetable"
)

// GenerateTimetableRequest triggers a full regeneration of one session. A
// fixed seed makes the run reproducible; omitting it seeds from the clock.
type GenerateTimetableRequest struct {
	SessionID int    `json:"session_id" validate:"required,min=1,max=2"`
	Seed      *int64 `json:"seed,omitempty"`
}

// TimetableResponse carries one stored timetable version in full.
type TimetableResponse struct {
	VersionID   string                        `json:"version_id"`
	SessionID   int                           `json:"session_id"`
	Version     int                           `json:"version"`
	Status      models.TimetableVersionStatus `json:"status"`
	Seed        int64                         `json:"seed"`
	Assignments []timetable.Assignment        `json:"assignments"`
	GroupDays   map[string][]timetable.Day    `json:"group_days"`
}

// TrainerScheduleEntry is one trainer's placements across the session, with
// assignments in chronological order.
type TrainerScheduleEntry struct {
	TrainerName string                 `json:"trainer_name"`
	Assignments []timetable.Assignment `json:"assignments"`
}

// TrainerScheduleResponse projects the active timetable by trainer instead of
// by group.
type TrainerScheduleResponse struct {
	SessionID int                    `json:"session_id"`
	VersionID string                 `json:"version_id"`
	Trainers  []TrainerScheduleEntry `json:"trainers"`
}

// TimetableVersionListResponse lists the stored versions of one session.
type TimetableVersionListResponse struct {
	SessionID int                           `json:"session_id"`
	Versions  []models.TimetableVersionMeta `json:"versions"`
}

// AnalyzeResponse returns the optimizer's findings for a session.
type AnalyzeResponse struct {
	SessionID int               `json:"session_id"`
	Issues    []timetable.Issue `json:"issues"`
}

// ProposeSwapRequest asks for a corrective swap for one reported issue.
type ProposeSwapRequest struct {
	SessionID int             `json:"session_id" validate:"required,min=1,max=2"`
	Issue     timetable.Issue `json:"issue" validate:"required"`
}

// ProposeSwapResponse carries the best swap found, if any.
type ProposeSwapResponse struct {
	Proposal *timetable.SwapProposal `json:"proposal"`
}

// ApplySwapRequest commits a previously proposed swap.
type ApplySwapRequest struct {
	SessionID int                    `json:"session_id" validate:"required,min=1,max=2"`
	Proposal  timetable.SwapProposal `json:"proposal" validate:"required"`
}

// MoveSlotRequest is a manual drag of one group slot to another cell.
type MoveSlotRequest struct {
	SessionID int    `json:"session_id" validate:"required,min=1,max=2"`
	GroupID   string `json:"group_id" validate:"required"`
	SrcDay    int    `json:"src_day" validate:"gte=0"`
	SrcHour   int    `json:"src_hour" validate:"gte=0,lt=6"`
	DstDay    int    `json:"dst_day" validate:"gte=0"`
	DstHour   int    `json:"dst_hour" validate:"gte=0,lt=6"`
}

// TrainerConfigRequest replaces the trainer roster of one module: key to
// typed display name.
type TrainerConfigRequest struct {
	ModuleID int               `json:"module_id" validate:"required"`
	Trainers map[string]string `json:"trainers" validate:"required,min=1"`
}

// TrainerConfigResponse returns the stored roster per module.
type TrainerConfigResponse struct {
	Modules map[int]map[string]string `json:"modules"`
}

// ModuleRosterResponse returns one module's trainer list.
type ModuleRosterResponse struct {
	ModuleID int               `json:"module_id"`
	Trainers map[string]string `json:"trainers"`
}

// SyllabusResponse returns one module's topic list for a session.
type SyllabusResponse struct {
	ModuleID  int             `json:"module_id"`
	SessionID int             `json:"session_id"`
	Topics    []catalog.Topic `json:"topics"`
}

// GroupCountsRequest sets how many groups each rank runs this cycle.
type GroupCountsRequest struct {
	Counts map[string]int `json:"counts" validate:"required,min=1"`
}

// GroupCountsResponse returns the configured group counts per rank.
type GroupCountsResponse struct {
	Counts map[string]int `json:"counts"`
}
