package timetable

import (
	"fmt"
	"time"
)

// MoveRequest describes one manual drag of a group slot to another cell of the
// same group's grid. Dates identify the affected days in the daily mirror.
type MoveRequest struct {
	SessionID int
	GroupID   string
	SrcDay    int
	SrcHour   int
	DstDay    int
	DstHour   int
}

// Editor validates manual slot moves before they touch the timetable. The
// generator guarantees a conflict-free grid; the editor's job is to keep
// manual edits from breaking that guarantee.
type Editor struct {
	resolver IdentityResolver
	dir      Directory
}

// NewEditor builds an editor over the trainer directory.
func NewEditor(resolver IdentityResolver, dir Directory) *Editor {
	if resolver == nil {
		resolver = NewNameResolver(dir)
	}
	return &Editor{resolver: resolver, dir: dir}
}

// ValidateMove checks a requested move against the current assignment list.
// The moved trainer must be free at the destination across all other groups,
// and, if the destination cell is occupied, the displaced trainer must be free
// at the vacated source cell. Merge placeholder slots skip the trainer checks:
// they deliberately double-book.
func (e *Editor) ValidateMove(assignments []Assignment, req MoveRequest) error {
	if req.SrcDay == req.DstDay && req.SrcHour == req.DstHour {
		return fmt.Errorf("source and destination are the same cell")
	}

	moved, ok := findAssignment(assignments, req.SessionID, req.GroupID, req.SrcDay, req.SrcHour)
	if !ok {
		return fmt.Errorf("no slot to move at day %d hour %d for group %s", req.SrcDay, req.SrcHour, req.GroupID)
	}

	if moved.ModuleID != MergeModuleID {
		identity := e.resolver.Identity(moved.ModuleID, moved.TrainerKey)
		if conflict, busy := e.conflictAt(assignments, req.SessionID, identity, req.DstDay, req.DstHour, req.GroupID); busy {
			return fmt.Errorf("%s already teaches group %s at the destination hour",
				e.dir.DisplayName(moved.ModuleID, moved.TrainerKey), conflict.GroupID)
		}
	}

	if displaced, hasDisplaced := findAssignment(assignments, req.SessionID, req.GroupID, req.DstDay, req.DstHour); hasDisplaced {
		if displaced.ModuleID != MergeModuleID {
			identity := e.resolver.Identity(displaced.ModuleID, displaced.TrainerKey)
			if conflict, busy := e.conflictAt(assignments, req.SessionID, identity, req.SrcDay, req.SrcHour, req.GroupID); busy {
				return fmt.Errorf("%s already teaches group %s at the vacated hour",
					e.dir.DisplayName(displaced.ModuleID, displaced.TrainerKey), conflict.GroupID)
			}
		}
	}
	return nil
}

// Apply validates and then performs the move on the timetable, looking up the
// affected dates from the session calendar.
func (e *Editor) Apply(t *Timetable, sessionDays []time.Time, req MoveRequest) error {
	if err := e.ValidateMove(t.SessionAssignments(req.SessionID), req); err != nil {
		return err
	}
	if req.SrcDay >= len(sessionDays) || req.DstDay >= len(sessionDays) {
		return fmt.Errorf("day index outside the session calendar")
	}
	return t.MoveSlot(req.SessionID, req.GroupID, req.SrcDay, req.SrcHour, req.DstDay, req.DstHour,
		sessionDays[req.SrcDay], sessionDays[req.DstDay])
}

func (e *Editor) conflictAt(assignments []Assignment, sessionID int, identity string, dayIdx, hourIdx int, ignoreGroup string) (Assignment, bool) {
	for _, a := range assignments {
		if a.SessionID == sessionID && a.DayIndex == dayIdx && a.HourIndex == hourIdx &&
			a.GroupID != ignoreGroup && a.ModuleID != MergeModuleID &&
			e.resolver.Identity(a.ModuleID, a.TrainerKey) == identity {
			return a, true
		}
	}
	return Assignment{}, false
}

func findAssignment(assignments []Assignment, sessionID int, groupID string, dayIdx, hourIdx int) (Assignment, bool) {
	for _, a := range assignments {
		if a.SessionID == sessionID && a.GroupID == groupID && a.DayIndex == dayIdx && a.HourIndex == hourIdx {
			return a, true
		}
	}
	return Assignment{}, false
}
