package timetable

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// GeneratorConfig bounds the randomized search. Zero values fall back to the
// institution's standard grid: 7 usable teaching days of 6 hour slots, with
// 100 retries at both the day and session level.
type GeneratorConfig struct {
	UsableDays   int
	SlotsPerDay  int
	OuterRetries int
	DayRetries   int
}

func (c GeneratorConfig) withDefaults() GeneratorConfig {
	if c.UsableDays <= 0 {
		c.UsableDays = 7
	}
	if c.SlotsPerDay <= 0 {
		c.SlotsPerDay = 6
	}
	if c.OuterRetries <= 0 {
		c.OuterRetries = 100
	}
	if c.DayRetries <= 0 {
		c.DayRetries = 100
	}
	return c
}

// Request carries everything one generation run needs. WorkingDays is the full
// session calendar; only the first UsableDays of it are filled, the rest are
// emitted as empty buffer days.
type Request struct {
	SessionID   int
	WorkingDays []time.Time
	Groups      []GroupNeed
	Directory   Directory
}

// Result is the product of a successful generation: the session's assignment
// list plus each group's daily schedule covering every working day.
type Result struct {
	Assignments []Assignment
	GroupDays   map[string][]Day
}

// InfeasibilityError reports that the bounded search exhausted its retries
// without satisfying every quota. Hints are user-displayable diagnostics.
type InfeasibilityError struct {
	Hints []string
}

func (e *InfeasibilityError) Error() string {
	return strings.Join(e.Hints, "; ")
}

// Generator runs the randomized constructive timetable search. The PRNG is
// injected so tests can pin outcomes; production callers seed from the clock.
type Generator struct {
	cfg      GeneratorConfig
	resolver IdentityResolver
	rng      *rand.Rand
}

// NewGenerator wires a generator. A nil resolver defaults to name-based
// identity over the request directory at generation time.
func NewGenerator(cfg GeneratorConfig, resolver IdentityResolver, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{cfg: cfg.withDefaults(), resolver: resolver, rng: rng}
}

type ownerKey struct {
	groupID  string
	moduleID int
}

// Generate builds a full feasible assignment for one session or fails with
// diagnostics. It never returns a partial result: either every (group, module)
// quota is exactly met, or no assignments are produced at all.
func (g *Generator) Generate(req Request) (*Result, error) {
	if len(req.Groups) == 0 {
		return nil, &InfeasibilityError{Hints: []string{"no trainee groups configured; set group counts per rank before generating"}}
	}

	resolver := g.resolver
	if resolver == nil {
		resolver = NewNameResolver(req.Directory)
	}

	for attempt := 0; attempt < g.cfg.OuterRetries; attempt++ {
		needs := seedNeeds(req.Groups)
		owners := g.preAssignTrainers(req)

		var assignments []Assignment
		groupDays := make(map[string][]Day, len(req.Groups))
		for _, gn := range req.Groups {
			groupDays[gn.Group.ID] = nil
		}

		sessionPossible := true

		for dayIdx, date := range req.WorkingDays {
			if dayIdx >= g.cfg.UsableDays {
				for _, gn := range req.Groups {
					groupDays[gn.Group.ID] = append(groupDays[gn.Group.ID], Day{Date: date})
				}
				continue
			}

			daySlots, snapshot, ok := g.buildDay(req, resolver, owners, needs, dayIdx)
			if !ok {
				sessionPossible = false
				break
			}

			needs = snapshot
			assignments = append(assignments, daySlots...)
			for _, gn := range req.Groups {
				day := Day{Date: date}
				for _, a := range daySlots {
					if a.GroupID == gn.Group.ID {
						day.Slots = append(day.Slots, Slot{Time: SlotTime(a.HourIndex), ModuleID: a.ModuleID, Duration: 1})
					}
				}
				groupDays[gn.Group.ID] = append(groupDays[gn.Group.ID], day)
			}
		}

		if sessionPossible && remainingTotal(needs) == 0 {
			return &Result{Assignments: assignments, GroupDays: groupDays}, nil
		}
	}

	return nil, &InfeasibilityError{Hints: []string{
		"could not find an assignment giving every group a uniform 08:00 start with the current trainer pool",
		"hint: high-coefficient modules need at least two trainers once the roster grows, otherwise the first hours of each day bottleneck",
	}}
}

// buildDay attempts to fill one working day, retrying with fresh shuffles
// until every group receives a first-hour slot or the retry budget runs out.
// On success it returns the day's assignments and the updated needs snapshot.
func (g *Generator) buildDay(
	req Request,
	resolver IdentityResolver,
	owners map[ownerKey]string,
	needs map[string]map[int]int,
	dayIdx int,
) ([]Assignment, map[string]map[int]int, bool) {
	for try := 0; try < g.cfg.DayRetries; try++ {
		snapshot := copyNeeds(needs)
		dailyCount := make(map[ownerKey]int)
		var daySlots []Assignment
		aborted := false

		for hour := 0; hour < g.cfg.SlotsPerDay && !aborted; hour++ {
			busy := make(map[string]struct{})
			order := g.rng.Perm(len(req.Groups))

			for _, gi := range order {
				gn := req.Groups[gi]
				groupNeeds := snapshot[gn.Group.ID]
				if totalFor(groupNeeds) == 0 {
					continue
				}

				candidates := candidateModules(gn, groupNeeds, dailyCount)
				assigned := false
				for _, moduleID := range candidates {
					key, ok := owners[ownerKey{gn.Group.ID, moduleID}]
					if !ok {
						continue
					}
					identity := resolver.Identity(moduleID, key)
					if _, taken := busy[identity]; taken {
						continue
					}
					busy[identity] = struct{}{}
					groupNeeds[moduleID]--
					dailyCount[ownerKey{gn.Group.ID, moduleID}]++
					daySlots = append(daySlots, Assignment{
						SessionID:  req.SessionID,
						ModuleID:   moduleID,
						TrainerKey: key,
						GroupID:    gn.Group.ID,
						DayIndex:   dayIdx,
						HourIndex:  hour,
					})
					assigned = true
					break
				}

				// Every group must open its day at the first hour;
				// later hours may legitimately leave a group idle.
				if hour == 0 && !assigned {
					aborted = true
					break
				}
			}
		}

		if !aborted {
			return daySlots, snapshot, true
		}
	}
	return nil, nil, false
}

// preAssignTrainers fixes, for one attempt, which trainer owns which group in
// each module: requiring groups are shuffled and trainers dealt round-robin.
// Modules without any registered trainer are skipped; their quotas surface as
// an infeasibility at the end of the attempt.
func (g *Generator) preAssignTrainers(req Request) map[ownerKey]string {
	owners := make(map[ownerKey]string)

	for _, moduleID := range sortedModuleIDs(req.Directory) {
		trainers := sortedTrainerKeys(req.Directory[moduleID])
		if len(trainers) == 0 {
			continue
		}

		var requiring []GroupNeed
		for _, gn := range req.Groups {
			for _, need := range gn.Required {
				if need.ModuleID == moduleID {
					requiring = append(requiring, gn)
					break
				}
			}
		}
		g.rng.Shuffle(len(requiring), func(i, j int) {
			requiring[i], requiring[j] = requiring[j], requiring[i]
		})

		for i, gn := range requiring {
			owners[ownerKey{gn.Group.ID, moduleID}] = trainers[i%len(trainers)]
		}
	}
	return owners
}

// candidateModules ranks a group's schedulable modules by descending remaining
// need, honouring the two-hours-per-module daily cap. Ties keep curriculum
// order.
func candidateModules(gn GroupNeed, groupNeeds map[int]int, dailyCount map[ownerKey]int) []int {
	var candidates []int
	for _, need := range gn.Required {
		if groupNeeds[need.ModuleID] > 0 && dailyCount[ownerKey{gn.Group.ID, need.ModuleID}] < 2 {
			candidates = append(candidates, need.ModuleID)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return groupNeeds[candidates[i]] > groupNeeds[candidates[j]]
	})
	return candidates
}

func seedNeeds(groups []GroupNeed) map[string]map[int]int {
	needs := make(map[string]map[int]int, len(groups))
	for _, gn := range groups {
		per := make(map[int]int, len(gn.Required))
		for _, need := range gn.Required {
			per[need.ModuleID] = need.Hours
		}
		needs[gn.Group.ID] = per
	}
	return needs
}

func copyNeeds(needs map[string]map[int]int) map[string]map[int]int {
	out := make(map[string]map[int]int, len(needs))
	for groupID, per := range needs {
		cloned := make(map[int]int, len(per))
		for moduleID, hours := range per {
			cloned[moduleID] = hours
		}
		out[groupID] = cloned
	}
	return out
}

func totalFor(per map[int]int) int {
	total := 0
	for _, hours := range per {
		total += hours
	}
	return total
}

func remainingTotal(needs map[string]map[int]int) int {
	total := 0
	for _, per := range needs {
		total += totalFor(per)
	}
	return total
}

func sortedModuleIDs(dir Directory) []int {
	ids := make([]int, 0, len(dir))
	for id := range dir {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func sortedTrainerKeys(names map[string]string) []string {
	keys := make([]string, 0, len(names))
	for key := range names {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Describe summarises a result for logs: slot count per group.
func (r *Result) Describe() string {
	counts := make(map[string]int)
	for _, a := range r.Assignments {
		counts[a.GroupID]++
	}
	groups := make([]string, 0, len(counts))
	for groupID := range counts {
		groups = append(groups, groupID)
	}
	sort.Strings(groups)
	parts := make([]string, 0, len(groups))
	for _, groupID := range groups {
		parts = append(parts, fmt.Sprintf("%s=%d", groupID, counts[groupID]))
	}
	return strings.Join(parts, " ")
}
