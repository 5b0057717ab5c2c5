package timetable

import (
	"fmt"
	"sort"
)

// IssueType classifies a trainer-day fragmentation problem.
type IssueType string

const (
	IssueCriticalGap IssueType = "CRITICAL_GAP"
	IssueIsolated    IssueType = "ISOLATED"
	IssueLongWait    IssueType = "LONG_WAIT"
)

// Severity orders issues for presentation.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

var severityWeight = map[Severity]int{
	SeverityHigh:   3,
	SeverityMedium: 2,
	SeverityLow:    1,
}

// Issue flags one trainer's awkward daily schedule: an isolated single hour,
// or a multi-hour idle gap between two teaching slots.
type Issue struct {
	TrainerIdentity string    `json:"trainerIdentity"`
	TrainerName     string    `json:"trainerName"`
	Type            IssueType `json:"type"`
	DayIndex        int       `json:"dayIndex"`
	Hours           []int     `json:"hours"`
	GapSize         int       `json:"gapSize,omitempty"`
	Severity        Severity  `json:"severity"`
	Description     string    `json:"description"`
}

// SwapProposal is a single local exchange that repairs an issue: the issue
// trainer's slot at Target trades hours with the same group's slot at Partner.
type SwapProposal struct {
	Target             Assignment `json:"target"`
	Partner            Assignment `json:"partner"`
	ResultingMaxGap    int        `json:"resultingMaxGap"`
	PartnerTrainerName string     `json:"partnerTrainerName"`
}

// Optimizer analyses finalized session assignments for trainer fragmentation
// and proposes conflict-free corrective swaps. It never mutates anything on
// its own; applying a proposal goes through Timetable.SwapHours.
type Optimizer struct {
	resolver IdentityResolver
	dir      Directory
}

// NewOptimizer builds an optimizer over the trainer directory.
func NewOptimizer(resolver IdentityResolver, dir Directory) *Optimizer {
	if resolver == nil {
		resolver = NewNameResolver(dir)
	}
	return &Optimizer{resolver: resolver, dir: dir}
}

// Analyze scans one session's assignments and returns issues sorted by
// severity (high first, stable within a class). Merge placeholder slots are
// exempt: a deliberately doubled trainer is not fragmented.
func (o *Optimizer) Analyze(assignments []Assignment, sessionID int) []Issue {
	type trainerDays struct {
		name string
		days map[int][]int
	}
	schedules := make(map[string]*trainerDays)
	var identityOrder []string

	for _, a := range assignments {
		if a.SessionID != sessionID || a.ModuleID == MergeModuleID {
			continue
		}
		identity := o.resolver.Identity(a.ModuleID, a.TrainerKey)
		sched, ok := schedules[identity]
		if !ok {
			sched = &trainerDays{name: o.dir.DisplayName(a.ModuleID, a.TrainerKey), days: make(map[int][]int)}
			schedules[identity] = sched
			identityOrder = append(identityOrder, identity)
		}
		sched.days[a.DayIndex] = append(sched.days[a.DayIndex], a.HourIndex)
	}

	var issues []Issue
	for _, identity := range identityOrder {
		sched := schedules[identity]
		dayIndices := make([]int, 0, len(sched.days))
		for dayIdx := range sched.days {
			dayIndices = append(dayIndices, dayIdx)
		}
		sort.Ints(dayIndices)

		for _, dayIdx := range dayIndices {
			hours := sched.days[dayIdx]
			sort.Ints(hours)

			if len(hours) == 1 {
				issues = append(issues, Issue{
					TrainerIdentity: identity,
					TrainerName:     sched.name,
					Type:            IssueIsolated,
					DayIndex:        dayIdx,
					Hours:           hours,
					Severity:        SeverityMedium,
					Description:     fmt.Sprintf("%s travels in for a single hour on day %d", sched.name, dayIdx+1),
				})
			}

			for i := 0; i < len(hours)-1; i++ {
				wait := hours[i+1] - hours[i] - 1
				switch {
				case wait >= 3:
					issues = append(issues, Issue{
						TrainerIdentity: identity,
						TrainerName:     sched.name,
						Type:            IssueCriticalGap,
						DayIndex:        dayIdx,
						Hours:           hours,
						GapSize:         wait,
						Severity:        SeverityHigh,
						Description:     fmt.Sprintf("%s waits %d idle hours between slots on day %d", sched.name, wait, dayIdx+1),
					})
				case wait == 2:
					issues = append(issues, Issue{
						TrainerIdentity: identity,
						TrainerName:     sched.name,
						Type:            IssueLongWait,
						DayIndex:        dayIdx,
						Hours:           hours,
						GapSize:         wait,
						Severity:        SeverityLow,
						Description:     fmt.Sprintf("%s has a two hour wait between slots on day %d", sched.name, dayIdx+1),
					})
				}
			}
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return severityWeight[issues[i].Severity] > severityWeight[issues[j].Severity]
	})
	return issues
}

// Propose searches for the best corrective swap for an issue: the trainer's
// last occupied hour of the flagged day trades places with another slot of the
// same group that day. Both trainers must be free at their new hour across all
// other groups, and the exchange must strictly shrink the issue trainer's
// maximum gap (any valid exchange qualifies for isolated slots). A nil return
// with nil error means no automatic solution exists — a benign outcome
// deferring to manual editing.
func (o *Optimizer) Propose(assignments []Assignment, sessionID int, issue Issue) (*SwapProposal, error) {
	if len(issue.Hours) == 0 {
		return nil, fmt.Errorf("issue carries no occupied hours")
	}
	hourToMove := issue.Hours[len(issue.Hours)-1]

	target, ok := o.findIdentitySlot(assignments, sessionID, issue.TrainerIdentity, issue.DayIndex, hourToMove)
	if !ok {
		return nil, fmt.Errorf("flagged slot is no longer present; re-run the analysis")
	}

	var best *SwapProposal
	for _, alt := range assignments {
		if alt.SessionID != sessionID || alt.GroupID != target.GroupID || alt.DayIndex != issue.DayIndex {
			continue
		}
		if alt.HourIndex == hourToMove {
			continue
		}

		altIdentity := o.resolver.Identity(alt.ModuleID, alt.TrainerKey)
		if altIdentity == issue.TrainerIdentity {
			// Trading two slots of the same person rearranges nothing.
			continue
		}
		if o.identityBusyAt(assignments, sessionID, issue.TrainerIdentity, issue.DayIndex, alt.HourIndex, target.GroupID) {
			continue
		}
		if o.identityBusyAt(assignments, sessionID, altIdentity, issue.DayIndex, hourToMove, alt.GroupID) {
			continue
		}

		newHours := make([]int, 0, len(issue.Hours))
		for _, h := range issue.Hours {
			if h != hourToMove {
				newHours = append(newHours, h)
			}
		}
		newHours = append(newHours, alt.HourIndex)
		sort.Ints(newHours)

		newMaxGap := 0
		for i := 0; i < len(newHours)-1; i++ {
			if gap := newHours[i+1] - newHours[i] - 1; gap > newMaxGap {
				newMaxGap = gap
			}
		}

		if newMaxGap < issue.GapSize || issue.Type == IssueIsolated {
			if best == nil || newMaxGap < best.ResultingMaxGap {
				best = &SwapProposal{
					Target:             target,
					Partner:            alt,
					ResultingMaxGap:    newMaxGap,
					PartnerTrainerName: o.dir.DisplayName(alt.ModuleID, alt.TrainerKey),
				}
			}
		}
	}
	return best, nil
}

// Validate re-checks a proposal against the current assignment list, so a
// stale proposal (state changed since Propose) is rejected before any
// mutation.
func (o *Optimizer) Validate(assignments []Assignment, sessionID int, proposal SwapProposal) error {
	target := proposal.Target
	partner := proposal.Partner

	if !containsAssignment(assignments, target) || !containsAssignment(assignments, partner) {
		return fmt.Errorf("proposal refers to slots that no longer exist")
	}

	targetIdentity := o.resolver.Identity(target.ModuleID, target.TrainerKey)
	partnerIdentity := o.resolver.Identity(partner.ModuleID, partner.TrainerKey)

	if o.identityBusyAt(assignments, sessionID, targetIdentity, target.DayIndex, partner.HourIndex, target.GroupID) {
		return fmt.Errorf("trainer is already teaching another group at the proposed hour")
	}
	if o.identityBusyAt(assignments, sessionID, partnerIdentity, partner.DayIndex, target.HourIndex, partner.GroupID) {
		return fmt.Errorf("the exchanged trainer is already teaching another group at the vacated hour")
	}
	return nil
}

func (o *Optimizer) findIdentitySlot(assignments []Assignment, sessionID int, identity string, dayIdx, hourIdx int) (Assignment, bool) {
	for _, a := range assignments {
		if a.SessionID == sessionID && a.DayIndex == dayIdx && a.HourIndex == hourIdx &&
			o.resolver.Identity(a.ModuleID, a.TrainerKey) == identity {
			return a, true
		}
	}
	return Assignment{}, false
}

// identityBusyAt reports whether an identity teaches any group other than
// ignoreGroup at the given slot. Slots of ignoreGroup do not count: the group
// being edited vacates its own cell as part of the exchange.
func (o *Optimizer) identityBusyAt(assignments []Assignment, sessionID int, identity string, dayIdx, hourIdx int, ignoreGroup string) bool {
	for _, a := range assignments {
		if a.SessionID == sessionID && a.DayIndex == dayIdx && a.HourIndex == hourIdx &&
			a.GroupID != ignoreGroup &&
			o.resolver.Identity(a.ModuleID, a.TrainerKey) == identity {
			return true
		}
	}
	return false
}

func containsAssignment(assignments []Assignment, target Assignment) bool {
	for _, a := range assignments {
		if a == target {
			return true
		}
	}
	return false
}
