// Package catalog holds the training centre's fixed curriculum: the module
// list, the per-rank module allocations, the per-session hour splits and the
// session calendar boundaries. The data changes once per training cycle at
// most, so it ships compiled in rather than living in the database.
package catalog

import (
	"fmt"

	"github.com/takwin-center/takwin-api/internal/timetable"
)

// Module is one curriculum subject.
type Module struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ShortTitle  string `json:"shortTitle"`
	Hours       int    `json:"hours"`
	Coefficient int    `json:"coefficient"`
}

// Session is one teaching period of the training cycle.
type Session struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	TotalHours int    `json:"totalHours"`
}

// Allocation binds a module to its total hours and coefficient inside a rank's
// curriculum.
type Allocation struct {
	ModuleID    int `json:"moduleId"`
	Hours       int `json:"hours"`
	Coefficient int `json:"coefficient"`
}

// Modules lists the full curriculum in display order. Modules 3, 6 and 7 are
// rank-specific variants of the management track; the rest are shared.
var Modules = []Module{
	{ID: 1, Title: "Assessment and Pedagogical Remediation", ShortTitle: "Assessment", Hours: 25, Coefficient: 3},
	{ID: 2, Title: "Teaching Curricula", ShortTitle: "Curricula", Hours: 20, Coefficient: 3},
	{ID: 3, Title: "Educational Management (Class 1)", ShortTitle: "Management 1", Hours: 15, Coefficient: 2},
	{ID: 6, Title: "Supervision and Follow-up (Class 2)", ShortTitle: "Supervision", Hours: 15, Coefficient: 2},
	{ID: 7, Title: "Educational Management and Facilitation (Distinguished)", ShortTitle: "Facilitation", Hours: 15, Coefficient: 2},
	{ID: 4, Title: "Information and Communication Technologies", ShortTitle: "ICT", Hours: 10, Coefficient: 1},
	{ID: 5, Title: "School Legislation and Disputes", ShortTitle: "Legislation", Hours: 10, Coefficient: 1},
}

// Sessions are the two fixed teaching periods of the cycle.
var Sessions = []Session{
	{ID: 1, Name: "First Session", StartDate: "2026-01-24", EndDate: "2026-03-14", TotalHours: 40},
	{ID: 2, Name: "Second Session", StartDate: "2026-04-04", EndDate: "2026-05-23", TotalHours: 40},
}

// sessionSplit carries how a module's total hours divide across the two
// sessions. The splits are hand-balanced so every rank's session quota sums
// to exactly 40 hours.
type sessionSplit struct {
	s1 int
	s2 int
}

var splits = map[int]sessionSplit{
	1: {s1: 13, s2: 12},
	2: {s1: 10, s2: 10},
	3: {s1: 7, s2: 8},
	6: {s1: 7, s2: 8},
	7: {s1: 7, s2: 8},
	4: {s1: 5, s2: 5},
	5: {s1: 5, s2: 5},
}

// rankCurricula maps each rank to its five modules. Every rank takes the two
// shared core modules, one management-track variant, and the two shared
// one-coefficient modules.
var rankCurricula = map[timetable.Rank][]Allocation{
	timetable.RankClassOne: {
		{ModuleID: 1, Hours: 25, Coefficient: 3},
		{ModuleID: 2, Hours: 20, Coefficient: 3},
		{ModuleID: 3, Hours: 15, Coefficient: 2},
		{ModuleID: 4, Hours: 10, Coefficient: 1},
		{ModuleID: 5, Hours: 10, Coefficient: 1},
	},
	timetable.RankClassTwo: {
		{ModuleID: 1, Hours: 25, Coefficient: 3},
		{ModuleID: 2, Hours: 20, Coefficient: 3},
		{ModuleID: 6, Hours: 15, Coefficient: 2},
		{ModuleID: 4, Hours: 10, Coefficient: 1},
		{ModuleID: 5, Hours: 10, Coefficient: 1},
	},
	timetable.RankDistinguished: {
		{ModuleID: 1, Hours: 25, Coefficient: 3},
		{ModuleID: 2, Hours: 20, Coefficient: 3},
		{ModuleID: 7, Hours: 15, Coefficient: 2},
		{ModuleID: 4, Hours: 10, Coefficient: 1},
		{ModuleID: 5, Hours: 10, Coefficient: 1},
	},
}

// ModuleByID looks up a module definition.
func ModuleByID(id int) (Module, bool) {
	for _, m := range Modules {
		if m.ID == id {
			return m, true
		}
	}
	return Module{}, false
}

// SessionByID looks up a session definition.
func SessionByID(id int) (Session, bool) {
	for _, s := range Sessions {
		if s.ID == id {
			return s, true
		}
	}
	return Session{}, false
}

// Curriculum returns a rank's module allocations.
func Curriculum(rank timetable.Rank) ([]Allocation, error) {
	alloc, ok := rankCurricula[rank]
	if !ok {
		return nil, fmt.Errorf("unknown rank %q", rank)
	}
	return alloc, nil
}

// SessionNeeds resolves the per-module hour quotas a rank must complete inside
// one session, in curriculum order.
func SessionNeeds(rank timetable.Rank, sessionID int) ([]timetable.ModuleNeed, error) {
	alloc, err := Curriculum(rank)
	if err != nil {
		return nil, err
	}
	needs := make([]timetable.ModuleNeed, 0, len(alloc))
	for _, a := range alloc {
		split, ok := splits[a.ModuleID]
		if !ok {
			return nil, fmt.Errorf("module %d has no session split", a.ModuleID)
		}
		var hours int
		switch sessionID {
		case 1:
			hours = split.s1
		case 2:
			hours = split.s2
		default:
			return nil, fmt.Errorf("unknown session %d", sessionID)
		}
		needs = append(needs, timetable.ModuleNeed{ModuleID: a.ModuleID, Hours: hours})
	}
	return needs, nil
}

// GroupNeedsFor expands per-rank group counts into the generator's group-need
// list, numbering groups from 1 within each rank.
func GroupNeedsFor(sessionID int, groupCounts map[timetable.Rank]int) ([]timetable.GroupNeed, error) {
	ranks := []timetable.Rank{timetable.RankClassOne, timetable.RankClassTwo, timetable.RankDistinguished}
	var out []timetable.GroupNeed
	for _, rank := range ranks {
		count := groupCounts[rank]
		if count <= 0 {
			continue
		}
		needs, err := SessionNeeds(rank, sessionID)
		if err != nil {
			return nil, err
		}
		for n := 1; n <= count; n++ {
			required := make([]timetable.ModuleNeed, len(needs))
			copy(required, needs)
			out = append(out, timetable.GroupNeed{
				Group:    timetable.NewGroup(rank, n),
				Required: required,
			})
		}
	}
	return out, nil
}
