package timetable

import (
	"strconv"
	"strings"
)

// IdentityResolver collapses a (module, trainer key) pair into the canonical
// identity string used for every "same human, different slot" conflict check.
// Two pairs resolving to the same identity are treated as one person.
type IdentityResolver interface {
	Identity(moduleID int, trainerKey string) string
}

// NameResolver unifies trainers across modules by their configured display
// name, case-insensitively. A person registered under different keys in
// different modules collapses to a single identity as long as the same name
// is typed for each key; pairs without a usable name fall back to a raw
// module-scoped token.
//
// The name heuristic is deliberately inherited from the institution's
// established workflow: it produces false positives when two distinct
// trainers share the exact typed name. Swap in a different IdentityResolver
// if stable trainer IDs ever become available upstream.
type NameResolver struct {
	dir Directory
}

// NewNameResolver builds a NameResolver over the trainer directory.
func NewNameResolver(dir Directory) *NameResolver {
	return &NameResolver{dir: dir}
}

// Identity implements IdentityResolver.
func (r *NameResolver) Identity(moduleID int, trainerKey string) string {
	if names, ok := r.dir[moduleID]; ok {
		name := strings.TrimSpace(names[trainerKey])
		if len(name) > 1 {
			return "NAME:" + strings.ToLower(name)
		}
	}
	return rawIdentity(moduleID, trainerKey)
}

func rawIdentity(moduleID int, trainerKey string) string {
	return "RAW:" + strconv.Itoa(moduleID) + "-" + trainerKey
}
