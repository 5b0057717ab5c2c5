package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func editorFixture() (*Timetable, []time.Time, Directory) {
	dir := Directory{
		101: {"t1": "Samir Haddad"},
		102: {"t9": "Samir Haddad"},
		103: {"t4": "Farid Mansouri"},
	}
	days := []time.Time{date(2026, time.January, 24), date(2026, time.January, 31)}
	tt := New()
	tt.Assignments = []Assignment{
		{SessionID: 1, ModuleID: 101, TrainerKey: "t1", GroupID: "g1", DayIndex: 0, HourIndex: 0},
		{SessionID: 1, ModuleID: 103, TrainerKey: "t4", GroupID: "g1", DayIndex: 0, HourIndex: 1},
		{SessionID: 1, ModuleID: 102, TrainerKey: "t9", GroupID: "g2", DayIndex: 0, HourIndex: 2},
	}
	tt.Days = map[string][]Day{
		"g1": {
			{Date: days[0], Slots: []Slot{
				{Time: SlotTime(0), ModuleID: 101, Duration: 1},
				{Time: SlotTime(1), ModuleID: 103, Duration: 1},
			}},
			{Date: days[1]},
		},
		"g2": {
			{Date: days[0], Slots: []Slot{
				{Time: SlotTime(2), ModuleID: 102, Duration: 1},
			}},
			{Date: days[1]},
		},
	}
	return tt, days, dir
}

func TestValidateMoveAllowsFreeDestination(t *testing.T) {
	tt, _, dir := editorFixture()
	e := NewEditor(nil, dir)

	err := e.ValidateMove(tt.Assignments, MoveRequest{
		SessionID: 1, GroupID: "g1",
		SrcDay: 0, SrcHour: 1, DstDay: 0, DstHour: 3,
	})
	assert.NoError(t, err)
}

func TestValidateMoveRejectsTrainerConflictAtDestination(t *testing.T) {
	tt, _, dir := editorFixture()
	e := NewEditor(nil, dir)

	// Samir teaches g2 at hour 2 under another module and key; moving his g1
	// slot there would double-book him.
	err := e.ValidateMove(tt.Assignments, MoveRequest{
		SessionID: 1, GroupID: "g1",
		SrcDay: 0, SrcHour: 0, DstDay: 0, DstHour: 2,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Samir Haddad")
}

func TestValidateMoveChecksTheDisplacedTrainerToo(t *testing.T) {
	tt, _, dir := editorFixture()
	// Farid also teaches g2 at hour 0, so displacing his g1 hour 1 slot back
	// to hour 0 double-books him.
	tt.Assignments = append(tt.Assignments,
		Assignment{SessionID: 1, ModuleID: 103, TrainerKey: "t4", GroupID: "g2", DayIndex: 0, HourIndex: 0})
	e := NewEditor(nil, dir)

	err := e.ValidateMove(tt.Assignments, MoveRequest{
		SessionID: 1, GroupID: "g1",
		SrcDay: 0, SrcHour: 0, DstDay: 0, DstHour: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Farid Mansouri")
}

func TestValidateMoveRejectsNoopAndEmptySource(t *testing.T) {
	tt, _, dir := editorFixture()
	e := NewEditor(nil, dir)

	err := e.ValidateMove(tt.Assignments, MoveRequest{
		SessionID: 1, GroupID: "g1",
		SrcDay: 0, SrcHour: 1, DstDay: 0, DstHour: 1,
	})
	assert.Error(t, err)

	err = e.ValidateMove(tt.Assignments, MoveRequest{
		SessionID: 1, GroupID: "g1",
		SrcDay: 1, SrcHour: 0, DstDay: 0, DstHour: 3,
	})
	assert.Error(t, err)
}

func TestValidateMoveExemptsMergeSlots(t *testing.T) {
	tt, _, dir := editorFixture()
	// A merge slot moving onto an hour where its trainer key appears
	// elsewhere is still fine: merges double-book on purpose.
	tt.Assignments = append(tt.Assignments,
		Assignment{SessionID: 1, ModuleID: MergeModuleID, TrainerKey: "t1", GroupID: "g1", DayIndex: 0, HourIndex: 4})
	e := NewEditor(nil, dir)

	err := e.ValidateMove(tt.Assignments, MoveRequest{
		SessionID: 1, GroupID: "g1",
		SrcDay: 0, SrcHour: 4, DstDay: 0, DstHour: 2,
	})
	assert.NoError(t, err)
}

func TestApplyMovesSlotAndKeepsMirrorInSync(t *testing.T) {
	tt, days, dir := editorFixture()
	e := NewEditor(nil, dir)

	err := e.Apply(tt, days, MoveRequest{
		SessionID: 1, GroupID: "g1",
		SrcDay: 0, SrcHour: 1, DstDay: 1, DstHour: 0,
	})
	require.NoError(t, err)

	moved, ok := tt.AssignmentAt(1, "g1", 1, 0)
	require.True(t, ok)
	assert.Equal(t, 103, moved.ModuleID)
	require.NoError(t, tt.CheckConsistency(map[int][]time.Time{1: days}))
}

func TestApplyRejectsDaysOutsideTheCalendar(t *testing.T) {
	tt, days, dir := editorFixture()
	e := NewEditor(nil, dir)

	err := e.Apply(tt, days, MoveRequest{
		SessionID: 1, GroupID: "g1",
		SrcDay: 0, SrcHour: 1, DstDay: 9, DstHour: 0,
	})
	assert.Error(t, err)
}
