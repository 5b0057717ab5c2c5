package timetable

import (
	"fmt"
	"sort"
	"time"
)

// Timetable is the single aggregate owning both representations of a
// schedule: the flat assignment list and the per-group daily mirror. All
// mutations go through its methods so the two can never drift apart.
type Timetable struct {
	Assignments []Assignment
	// Days holds each group's calendar, sorted by date. Entries for days
	// beyond the usable-day cap carry empty slot lists.
	Days map[string][]Day
}

// New returns an empty timetable.
func New() *Timetable {
	return &Timetable{Days: make(map[string][]Day)}
}

// Clone deep-copies the timetable so callers can stage mutations without
// touching committed state.
func (t *Timetable) Clone() *Timetable {
	out := &Timetable{
		Assignments: make([]Assignment, len(t.Assignments)),
		Days:        make(map[string][]Day, len(t.Days)),
	}
	copy(out.Assignments, t.Assignments)
	for groupID, days := range t.Days {
		cloned := make([]Day, len(days))
		for i, day := range days {
			slots := make([]Slot, len(day.Slots))
			copy(slots, day.Slots)
			cloned[i] = Day{Date: day.Date, Slots: slots}
		}
		out.Days[groupID] = cloned
	}
	return out
}

// SessionAssignments returns the assignments belonging to one session.
func (t *Timetable) SessionAssignments(sessionID int) []Assignment {
	var out []Assignment
	for _, a := range t.Assignments {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out
}

// AssignmentAt finds a group's assignment occupying a slot within a session.
func (t *Timetable) AssignmentAt(sessionID int, groupID string, dayIndex, hourIndex int) (Assignment, bool) {
	for _, a := range t.Assignments {
		if a.SessionID == sessionID && a.GroupID == groupID && a.DayIndex == dayIndex && a.HourIndex == hourIndex {
			return a, true
		}
	}
	return Assignment{}, false
}

// ReplaceSession supersedes one session's content: assignments for the session
// are swapped wholesale, and each generated group's calendar keeps only its
// days outside the session's date range before the fresh days are merged in.
// Groups absent from the new result drop out of the mirror, matching a roster
// reconfiguration.
func (t *Timetable) ReplaceSession(sessionID int, sessionStart, sessionEnd time.Time, res *Result) {
	kept := t.Assignments[:0:0]
	for _, a := range t.Assignments {
		if a.SessionID != sessionID {
			kept = append(kept, a)
		}
	}
	t.Assignments = append(kept, res.Assignments...)

	start := truncateToDate(sessionStart)
	end := truncateToDate(sessionEnd)

	merged := make(map[string][]Day, len(res.GroupDays))
	for groupID, freshDays := range res.GroupDays {
		var days []Day
		for _, day := range t.Days[groupID] {
			d := truncateToDate(day.Date)
			if d.Before(start) || d.After(end) {
				days = append(days, day)
			}
		}
		days = append(days, freshDays...)
		sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
		merged[groupID] = days
	}
	t.Days = merged
}

// SwapHours exchanges the hour indices of two same-day assignments of one
// group and mirrors the exchange into the group's daily schedule. This is the
// primitive behind optimizer swaps.
func (t *Timetable) SwapHours(target, partner Assignment, date time.Time) error {
	if target.GroupID != partner.GroupID || target.DayIndex != partner.DayIndex || target.SessionID != partner.SessionID {
		return fmt.Errorf("swap requires two slots of the same group and day")
	}

	ti := t.indexOf(target)
	pi := t.indexOf(partner)
	if ti < 0 || pi < 0 {
		return fmt.Errorf("swap target no longer present in timetable")
	}

	t.Assignments[ti].HourIndex, t.Assignments[pi].HourIndex = partner.HourIndex, target.HourIndex

	day := t.dayByDate(target.GroupID, date)
	if day == nil {
		return fmt.Errorf("group %s has no schedule entry for %s", target.GroupID, date.Format("2006-01-02"))
	}
	for i, slot := range day.Slots {
		switch SlotHour(slot.Time) {
		case target.HourIndex:
			day.Slots[i].ModuleID = partner.ModuleID
		case partner.HourIndex:
			day.Slots[i].ModuleID = target.ModuleID
		}
	}
	return nil
}

// MoveSlot relocates one group slot to another cell, displacing the target
// cell's occupant (if any) back to the source. Both the assignment list and
// the daily mirror are updated together. Conflict validation happens before
// this call; MoveSlot only refuses structurally impossible moves.
func (t *Timetable) MoveSlot(sessionID int, groupID string, srcDay, srcHour, dstDay, dstHour int, srcDate, dstDate time.Time) error {
	moved, ok := t.AssignmentAt(sessionID, groupID, srcDay, srcHour)
	if !ok {
		return fmt.Errorf("no slot at day %d hour %d for group %s", srcDay, srcHour, groupID)
	}
	displaced, hasDisplaced := t.AssignmentAt(sessionID, groupID, dstDay, dstHour)

	mi := t.indexOf(moved)
	t.Assignments[mi].DayIndex = dstDay
	t.Assignments[mi].HourIndex = dstHour
	if hasDisplaced {
		di := t.indexOf(displaced)
		t.Assignments[di].DayIndex = srcDay
		t.Assignments[di].HourIndex = srcHour
	}

	source := t.dayByDate(groupID, srcDate)
	dest := t.dayByDate(groupID, dstDate)
	if source == nil || dest == nil {
		return fmt.Errorf("group %s is missing schedule entries for the affected days", groupID)
	}

	removeSlot(source, srcHour)
	if hasDisplaced {
		removeSlot(dest, dstHour)
	}
	dest.Slots = append(dest.Slots, Slot{Time: SlotTime(dstHour), ModuleID: moved.ModuleID, Duration: 1})
	if hasDisplaced {
		source.Slots = append(source.Slots, Slot{Time: SlotTime(srcHour), ModuleID: displaced.ModuleID, Duration: 1})
	}
	sortSlots(source)
	sortSlots(dest)
	return nil
}

// CheckConsistency verifies that every assignment has a matching mirror slot
// and vice versa. Used by tests and as a guard after bulk loads.
func (t *Timetable) CheckConsistency(sessionDays map[int][]time.Time) error {
	type cell struct {
		group string
		date  string
		hour  int
	}
	fromAssignments := make(map[cell]int)
	for _, a := range t.Assignments {
		days := sessionDays[a.SessionID]
		if a.DayIndex >= len(days) {
			return fmt.Errorf("assignment day index %d outside session %d calendar", a.DayIndex, a.SessionID)
		}
		key := cell{a.GroupID, days[a.DayIndex].Format("2006-01-02"), a.HourIndex}
		fromAssignments[key] = a.ModuleID
	}

	fromMirror := make(map[cell]int)
	for groupID, days := range t.Days {
		for _, day := range days {
			for _, slot := range day.Slots {
				key := cell{groupID, day.Date.Format("2006-01-02"), SlotHour(slot.Time)}
				fromMirror[key] = slot.ModuleID
			}
		}
	}

	for key, moduleID := range fromAssignments {
		if got, ok := fromMirror[key]; !ok || got != moduleID {
			return fmt.Errorf("mirror missing slot for group %s %s hour %d", key.group, key.date, key.hour)
		}
	}
	for key, moduleID := range fromMirror {
		if got, ok := fromAssignments[key]; !ok || got != moduleID {
			return fmt.Errorf("mirror has orphan slot for group %s %s hour %d", key.group, key.date, key.hour)
		}
	}
	return nil
}

func (t *Timetable) indexOf(a Assignment) int {
	for i, candidate := range t.Assignments {
		if candidate == a {
			return i
		}
	}
	return -1
}

func (t *Timetable) dayByDate(groupID string, date time.Time) *Day {
	want := truncateToDate(date)
	days := t.Days[groupID]
	for i := range days {
		if truncateToDate(days[i].Date).Equal(want) {
			return &days[i]
		}
	}
	return nil
}

func removeSlot(day *Day, hourIndex int) {
	for i, slot := range day.Slots {
		if SlotHour(slot.Time) == hourIndex {
			day.Slots = append(day.Slots[:i], day.Slots[i+1:]...)
			return
		}
	}
}

func sortSlots(day *Day) {
	sort.Slice(day.Slots, func(i, j int) bool {
		return SlotHour(day.Slots[i].Time) < SlotHour(day.Slots[j].Time)
	})
}
