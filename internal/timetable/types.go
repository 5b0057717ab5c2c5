package timetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rank identifies a trainee cohort category. The curriculum applicable to a
// group is fully determined by its rank.
type Rank string

const (
	RankClassOne      Rank = "class-1"
	RankClassTwo      Rank = "class-2"
	RankDistinguished Rank = "distinguished"
)

// MergeModuleID marks deliberate cross-group merge slots (one trainer teaching
// two groups at once). Assignments carrying it are exempt from gap analysis
// and double-booking checks.
const MergeModuleID = 999

// Group is a trainee cohort: a rank plus a sequence number within that rank.
type Group struct {
	ID     string
	Rank   Rank
	Number int
}

// GroupID builds the canonical group identifier used across assignments and
// the daily-schedule mirror.
func GroupID(rank Rank, number int) string {
	return fmt.Sprintf("%s-%d", rank, number)
}

// NewGroup constructs a Group with its canonical ID.
func NewGroup(rank Rank, number int) Group {
	return Group{ID: GroupID(rank, number), Rank: rank, Number: number}
}

// ModuleNeed is the remaining hour demand of a group for one module within a
// session.
type ModuleNeed struct {
	ModuleID int
	Hours    int
}

// GroupNeed couples a group with its per-module hour quotas for one session.
type GroupNeed struct {
	Group    Group
	Required []ModuleNeed
}

// Assignment is the atomic scheduling fact: one trainer teaching one group one
// module during one hour slot of one working day.
type Assignment struct {
	SessionID  int    `json:"sessionId"`
	ModuleID   int    `json:"moduleId"`
	TrainerKey string `json:"trainerKey"`
	GroupID    string `json:"groupId"`
	DayIndex   int    `json:"dayIndex"`
	HourIndex  int    `json:"hourIndex"`
}

// Slot is one occupied cell of a group's daily schedule.
type Slot struct {
	Time     string `json:"time"`
	ModuleID int    `json:"moduleId"`
	Duration int    `json:"duration"`
}

// Day is a group's schedule for one calendar working day. Buffer days beyond
// the usable-day cap appear with an empty slot list.
type Day struct {
	Date  time.Time `json:"date"`
	Slots []Slot    `json:"slots"`
}

// Directory maps module ID to the trainer keys registered for that module and
// their display names. An empty display name means the trainer has no
// human-readable identity configured.
type Directory map[int]map[string]string

// DisplayName resolves the configured name for a trainer key, falling back to
// the raw key.
func (d Directory) DisplayName(moduleID int, key string) string {
	if names, ok := d[moduleID]; ok {
		if name := strings.TrimSpace(names[key]); name != "" {
			return name
		}
	}
	return key
}

// SlotTime renders the wall-clock label of an hour index on the fixed grid
// (hour 0 starts at 08:00).
func SlotTime(hourIndex int) string {
	return fmt.Sprintf("%02d:00", 8+hourIndex)
}

// SlotHour parses a wall-clock label back into an hour index. Returns -1 for
// labels outside the grid.
func SlotHour(label string) int {
	head, _, ok := strings.Cut(label, ":")
	if !ok {
		return -1
	}
	clock, err := strconv.Atoi(head)
	if err != nil || clock < 8 {
		return -1
	}
	return clock - 8
}
