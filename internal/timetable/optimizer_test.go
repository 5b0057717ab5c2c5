package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optimizerDirectory() Directory {
	return Directory{
		101: {"t1": "Samir Haddad"},
		102: {"t9": "Samir Haddad"}, // same person under another module
		103: {"t4": "Farid Mansouri"},
		104: {"t5": "Yacine Belkacem"},
		105: {"t2": "Nadia Brahimi"},
		106: {"t3": "Karim Ziani"},
	}
}

func TestAnalyzeClassifiesGapsAndIsolation(t *testing.T) {
	dir := optimizerDirectory()
	assignments := []Assignment{
		// Samir: hours 0 and 4 on day 0, a three-hour gap.
		{SessionID: 1, ModuleID: 101, TrainerKey: "t1", GroupID: "g1", DayIndex: 0, HourIndex: 0},
		{SessionID: 1, ModuleID: 101, TrainerKey: "t1", GroupID: "g1", DayIndex: 0, HourIndex: 4},
		// Nadia: hours 0 and 3 on day 1, a two-hour wait.
		{SessionID: 1, ModuleID: 105, TrainerKey: "t2", GroupID: "g1", DayIndex: 1, HourIndex: 0},
		{SessionID: 1, ModuleID: 105, TrainerKey: "t2", GroupID: "g2", DayIndex: 1, HourIndex: 3},
		// Karim: one isolated hour on day 2.
		{SessionID: 1, ModuleID: 106, TrainerKey: "t3", GroupID: "g1", DayIndex: 2, HourIndex: 2},
		// Merge placeholder: never analysed.
		{SessionID: 1, ModuleID: MergeModuleID, TrainerKey: "t1", GroupID: "g2", DayIndex: 3, HourIndex: 0},
		// Another session: out of scope.
		{SessionID: 2, ModuleID: 101, TrainerKey: "t1", GroupID: "g1", DayIndex: 0, HourIndex: 5},
	}

	issues := NewOptimizer(nil, dir).Analyze(assignments, 1)

	require.Len(t, issues, 3)
	assert.Equal(t, IssueCriticalGap, issues[0].Type)
	assert.Equal(t, SeverityHigh, issues[0].Severity)
	assert.Equal(t, 3, issues[0].GapSize)
	assert.Equal(t, "Samir Haddad", issues[0].TrainerName)

	assert.Equal(t, IssueIsolated, issues[1].Type)
	assert.Equal(t, SeverityMedium, issues[1].Severity)
	assert.Equal(t, "Karim Ziani", issues[1].TrainerName)

	assert.Equal(t, IssueLongWait, issues[2].Type)
	assert.Equal(t, SeverityLow, issues[2].Severity)
	assert.Equal(t, 2, issues[2].GapSize)
}

func TestAnalyzeUnifiesTrainerAcrossModules(t *testing.T) {
	dir := optimizerDirectory()
	// Samir teaches module 101 at hour 0 and module 102 at hour 4. The name
	// resolver must see one person with a three-hour gap, not two trainers
	// with isolated hours.
	assignments := []Assignment{
		{SessionID: 1, ModuleID: 101, TrainerKey: "t1", GroupID: "g1", DayIndex: 0, HourIndex: 0},
		{SessionID: 1, ModuleID: 102, TrainerKey: "t9", GroupID: "g2", DayIndex: 0, HourIndex: 4},
	}

	issues := NewOptimizer(nil, dir).Analyze(assignments, 1)

	require.Len(t, issues, 1)
	assert.Equal(t, IssueCriticalGap, issues[0].Type)
}

func gapFixture() []Assignment {
	// Group g1, day 0: Samir at hours 0 and 4, Farid at 1, Yacine at 2.
	return []Assignment{
		{SessionID: 1, ModuleID: 101, TrainerKey: "t1", GroupID: "g1", DayIndex: 0, HourIndex: 0},
		{SessionID: 1, ModuleID: 103, TrainerKey: "t4", GroupID: "g1", DayIndex: 0, HourIndex: 1},
		{SessionID: 1, ModuleID: 104, TrainerKey: "t5", GroupID: "g1", DayIndex: 0, HourIndex: 2},
		{SessionID: 1, ModuleID: 101, TrainerKey: "t1", GroupID: "g1", DayIndex: 0, HourIndex: 4},
	}
}

func criticalGapIssue() Issue {
	return Issue{
		TrainerIdentity: "NAME:samir haddad",
		TrainerName:     "Samir Haddad",
		Type:            IssueCriticalGap,
		DayIndex:        0,
		Hours:           []int{0, 4},
		GapSize:         3,
		Severity:        SeverityHigh,
	}
}

func TestProposePicksSmallestResultingGap(t *testing.T) {
	opt := NewOptimizer(nil, optimizerDirectory())

	proposal, err := opt.Propose(gapFixture(), 1, criticalGapIssue())
	require.NoError(t, err)
	require.NotNil(t, proposal)

	// Swapping hour 4 with hour 1 yields adjacent hours; hour 2 would leave
	// a one-hour gap, so hour 1 wins.
	assert.Equal(t, 4, proposal.Target.HourIndex)
	assert.Equal(t, 1, proposal.Partner.HourIndex)
	assert.Equal(t, 0, proposal.ResultingMaxGap)
	assert.Equal(t, "Farid Mansouri", proposal.PartnerTrainerName)
}

func TestProposeSkipsSlotsWhereEitherTrainerIsBusy(t *testing.T) {
	assignments := append(gapFixture(),
		// Samir teaches g2 at hour 1, so the best candidate is blocked and
		// the hour 2 swap (gap of one) is chosen instead.
		Assignment{SessionID: 1, ModuleID: 102, TrainerKey: "t9", GroupID: "g2", DayIndex: 0, HourIndex: 1},
	)
	opt := NewOptimizer(nil, optimizerDirectory())

	proposal, err := opt.Propose(assignments, 1, criticalGapIssue())
	require.NoError(t, err)
	require.NotNil(t, proposal)
	assert.Equal(t, 2, proposal.Partner.HourIndex)
	assert.Equal(t, 1, proposal.ResultingMaxGap)
}

func TestProposeReturnsNilWhenNoSwapHelps(t *testing.T) {
	// Samir is busy with g2 at both candidate hours: no automatic solution,
	// and that is not an error.
	assignments := append(gapFixture(),
		Assignment{SessionID: 1, ModuleID: 102, TrainerKey: "t9", GroupID: "g2", DayIndex: 0, HourIndex: 1},
		Assignment{SessionID: 1, ModuleID: 102, TrainerKey: "t9", GroupID: "g2", DayIndex: 0, HourIndex: 2},
	)
	opt := NewOptimizer(nil, optimizerDirectory())

	proposal, err := opt.Propose(assignments, 1, criticalGapIssue())
	require.NoError(t, err)
	assert.Nil(t, proposal)
}

func TestProposeAcceptsAnyValidSwapForIsolatedHours(t *testing.T) {
	assignments := []Assignment{
		{SessionID: 1, ModuleID: 106, TrainerKey: "t3", GroupID: "g1", DayIndex: 0, HourIndex: 3},
		{SessionID: 1, ModuleID: 103, TrainerKey: "t4", GroupID: "g1", DayIndex: 0, HourIndex: 0},
	}
	issue := Issue{
		TrainerIdentity: "NAME:karim ziani",
		TrainerName:     "Karim Ziani",
		Type:            IssueIsolated,
		DayIndex:        0,
		Hours:           []int{3},
		Severity:        SeverityMedium,
	}
	opt := NewOptimizer(nil, optimizerDirectory())

	proposal, err := opt.Propose(assignments, 1, issue)
	require.NoError(t, err)
	require.NotNil(t, proposal)
	assert.Equal(t, 0, proposal.Partner.HourIndex)
}

func TestValidateRejectsStaleProposals(t *testing.T) {
	assignments := gapFixture()
	opt := NewOptimizer(nil, optimizerDirectory())

	proposal, err := opt.Propose(assignments, 1, criticalGapIssue())
	require.NoError(t, err)
	require.NotNil(t, proposal)

	require.NoError(t, opt.Validate(assignments, 1, *proposal))

	// The schedule changed after the proposal was produced.
	assignments[3].HourIndex = 5
	assert.Error(t, opt.Validate(assignments, 1, *proposal))
}

func TestProposedSwapAppliesThroughTheTimetable(t *testing.T) {
	tt := New()
	tt.Assignments = gapFixture()
	day := Day{Date: date(2026, time.January, 24)}
	for _, a := range tt.Assignments {
		day.Slots = append(day.Slots, Slot{Time: SlotTime(a.HourIndex), ModuleID: a.ModuleID, Duration: 1})
	}
	tt.Days = map[string][]Day{"g1": {day}}

	opt := NewOptimizer(nil, optimizerDirectory())
	proposal, err := opt.Propose(tt.Assignments, 1, criticalGapIssue())
	require.NoError(t, err)
	require.NotNil(t, proposal)

	require.NoError(t, tt.SwapHours(proposal.Target, proposal.Partner, day.Date))

	// Samir now teaches back-to-back hours and the analysis comes up clean
	// apart from the partner's new placement.
	issues := opt.Analyze(tt.Assignments, 1)
	for _, issue := range issues {
		assert.NotEqual(t, "NAME:samir haddad", issue.TrainerIdentity)
	}
}
