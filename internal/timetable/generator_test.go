package timetable

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saturdaysFrom(start time.Time, n int) []time.Time {
	days := make([]time.Time, n)
	for i := range days {
		days[i] = start.AddDate(0, 0, 7*i)
	}
	return days
}

func fixtureRequest(workingDays int) Request {
	start := time.Date(2026, time.January, 24, 0, 0, 0, 0, time.UTC)
	needs := []ModuleNeed{
		{ModuleID: 101, Hours: 4},
		{ModuleID: 102, Hours: 2},
	}
	groups := []GroupNeed{
		{Group: NewGroup(RankClassOne, 1), Required: append([]ModuleNeed(nil), needs...)},
		{Group: NewGroup(RankClassOne, 2), Required: append([]ModuleNeed(nil), needs...)},
	}
	return Request{
		SessionID:   1,
		WorkingDays: saturdaysFrom(start, workingDays),
		Groups:      groups,
		Directory: Directory{
			101: {"a": "Alice Amrani", "b": "Bilal Cherif"},
			102: {"c": "Chafik Daoud", "d": "Dalila Ferhat"},
		},
	}
}

func fixtureConfig() GeneratorConfig {
	return GeneratorConfig{UsableDays: 3, SlotsPerDay: 2, OuterRetries: 20, DayRetries: 20}
}

func TestGenerateMeetsEveryQuotaExactly(t *testing.T) {
	gen := NewGenerator(fixtureConfig(), nil, rand.New(rand.NewSource(1)))
	req := fixtureRequest(3)

	res, err := gen.Generate(req)
	require.NoError(t, err)

	counts := make(map[string]map[int]int)
	for _, a := range res.Assignments {
		if counts[a.GroupID] == nil {
			counts[a.GroupID] = make(map[int]int)
		}
		counts[a.GroupID][a.ModuleID]++
	}
	for _, gn := range req.Groups {
		for _, need := range gn.Required {
			assert.Equal(t, need.Hours, counts[gn.Group.ID][need.ModuleID],
				"group %s module %d", gn.Group.ID, need.ModuleID)
		}
	}
}

func TestGenerateNeverDoubleBooksAnIdentity(t *testing.T) {
	gen := NewGenerator(fixtureConfig(), nil, rand.New(rand.NewSource(2)))
	req := fixtureRequest(3)

	res, err := gen.Generate(req)
	require.NoError(t, err)

	resolver := NewNameResolver(req.Directory)
	type slot struct{ day, hour int }
	seen := make(map[slot]map[string]string)
	for _, a := range res.Assignments {
		identity := resolver.Identity(a.ModuleID, a.TrainerKey)
		key := slot{a.DayIndex, a.HourIndex}
		if seen[key] == nil {
			seen[key] = make(map[string]string)
		}
		if prev, taken := seen[key][identity]; taken {
			t.Fatalf("identity %s teaches groups %s and %s at day %d hour %d",
				identity, prev, a.GroupID, a.DayIndex, a.HourIndex)
		}
		seen[key][identity] = a.GroupID
	}
}

func TestGenerateHonoursDailyModuleCap(t *testing.T) {
	gen := NewGenerator(fixtureConfig(), nil, rand.New(rand.NewSource(3)))
	req := fixtureRequest(3)

	res, err := gen.Generate(req)
	require.NoError(t, err)

	type cell struct {
		groupID  string
		moduleID int
		dayIndex int
	}
	counts := make(map[cell]int)
	for _, a := range res.Assignments {
		counts[cell{a.GroupID, a.ModuleID, a.DayIndex}]++
	}
	for key, n := range counts {
		assert.LessOrEqual(t, n, 2, "group %s module %d day %d", key.groupID, key.moduleID, key.dayIndex)
	}
}

func TestGenerateEveryGroupStartsAtFirstHour(t *testing.T) {
	gen := NewGenerator(fixtureConfig(), nil, rand.New(rand.NewSource(4)))
	req := fixtureRequest(3)

	res, err := gen.Generate(req)
	require.NoError(t, err)

	type opening struct {
		groupID string
		day     int
	}
	firstHour := make(map[opening]bool)
	for _, a := range res.Assignments {
		if a.HourIndex == 0 {
			firstHour[opening{a.GroupID, a.DayIndex}] = true
		}
	}
	for _, gn := range req.Groups {
		for day := 0; day < 3; day++ {
			assert.True(t, firstHour[opening{gn.Group.ID, day}],
				"group %s has no first-hour slot on day %d", gn.Group.ID, day)
		}
	}
}

func TestGenerateEmitsBufferDays(t *testing.T) {
	gen := NewGenerator(fixtureConfig(), nil, rand.New(rand.NewSource(5)))
	req := fixtureRequest(5) // two days beyond the usable cap

	res, err := gen.Generate(req)
	require.NoError(t, err)

	for _, gn := range req.Groups {
		days := res.GroupDays[gn.Group.ID]
		require.Len(t, days, 5)
		assert.Empty(t, days[3].Slots)
		assert.Empty(t, days[4].Slots)
		assert.True(t, days[4].Date.Equal(req.WorkingDays[4]))
	}
}

func TestGenerateIsDeterministicForASeed(t *testing.T) {
	req := fixtureRequest(3)

	first, err := NewGenerator(fixtureConfig(), nil, rand.New(rand.NewSource(42))).Generate(req)
	require.NoError(t, err)
	second, err := NewGenerator(fixtureConfig(), nil, rand.New(rand.NewSource(42))).Generate(req)
	require.NoError(t, err)

	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.GroupDays, second.GroupDays)
}

func TestGenerateFailsWhenOneTrainerServesTwoGroups(t *testing.T) {
	start := time.Date(2026, time.January, 24, 0, 0, 0, 0, time.UTC)
	req := Request{
		SessionID:   1,
		WorkingDays: saturdaysFrom(start, 2),
		Groups: []GroupNeed{
			{Group: NewGroup(RankClassOne, 1), Required: []ModuleNeed{{ModuleID: 101, Hours: 2}}},
			{Group: NewGroup(RankClassOne, 2), Required: []ModuleNeed{{ModuleID: 101, Hours: 2}}},
		},
		// A single registered trainer: both groups resolve to the same
		// identity, so the uniform first-hour start can never be satisfied.
		Directory: Directory{101: {"a": "Alice Amrani"}},
	}
	cfg := GeneratorConfig{UsableDays: 2, SlotsPerDay: 2, OuterRetries: 3, DayRetries: 3}

	_, err := NewGenerator(cfg, nil, rand.New(rand.NewSource(6))).Generate(req)
	require.Error(t, err)

	var infeasible *InfeasibilityError
	require.True(t, errors.As(err, &infeasible))
	assert.NotEmpty(t, infeasible.Hints)
}

func TestGenerateRejectsEmptyGroupList(t *testing.T) {
	gen := NewGenerator(fixtureConfig(), nil, rand.New(rand.NewSource(7)))

	_, err := gen.Generate(Request{SessionID: 1})
	var infeasible *InfeasibilityError
	require.True(t, errors.As(err, &infeasible))
}

func TestGenerateMirrorsAssignmentsIntoGroupDays(t *testing.T) {
	gen := NewGenerator(fixtureConfig(), nil, rand.New(rand.NewSource(8)))
	req := fixtureRequest(3)

	res, err := gen.Generate(req)
	require.NoError(t, err)

	tt := New()
	tt.ReplaceSession(req.SessionID, req.WorkingDays[0], req.WorkingDays[len(req.WorkingDays)-1], res)
	require.NoError(t, tt.CheckConsistency(map[int][]time.Time{req.SessionID: req.WorkingDays}))
}
