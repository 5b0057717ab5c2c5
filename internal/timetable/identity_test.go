package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameResolverUnifiesAcrossModules(t *testing.T) {
	dir := Directory{
		1: {"t1": "Samir Haddad"},
		2: {"x9": "samir haddad"},
	}
	r := NewNameResolver(dir)

	// Same typed name, different modules and keys: one person.
	assert.Equal(t, r.Identity(1, "t1"), r.Identity(2, "x9"))
	assert.Equal(t, "NAME:samir haddad", r.Identity(1, "t1"))
}

func TestNameResolverTrimsWhitespace(t *testing.T) {
	dir := Directory{1: {"t1": "  Nadia Brahimi  "}}
	r := NewNameResolver(dir)

	assert.Equal(t, "NAME:nadia brahimi", r.Identity(1, "t1"))
}

func TestNameResolverFallsBackToRawIdentity(t *testing.T) {
	dir := Directory{
		1: {"t1": "", "t2": "X"},
	}
	r := NewNameResolver(dir)

	// Empty and single-character names are not trusted as identities.
	assert.Equal(t, "RAW:1-t1", r.Identity(1, "t1"))
	assert.Equal(t, "RAW:1-t2", r.Identity(1, "t2"))

	// Unknown module or key behaves the same way.
	assert.Equal(t, "RAW:5-ghost", r.Identity(5, "ghost"))
}

func TestNameResolverRawIdentitiesStayModuleScoped(t *testing.T) {
	r := NewNameResolver(Directory{})

	// Without a name there is no evidence two keys are the same person, so
	// the same key under different modules stays two identities.
	assert.NotEqual(t, r.Identity(1, "t1"), r.Identity(2, "t1"))
}

func TestDirectoryDisplayNameFallsBackToKey(t *testing.T) {
	dir := Directory{1: {"t1": "Samir Haddad", "t2": "  "}}

	assert.Equal(t, "Samir Haddad", dir.DisplayName(1, "t1"))
	assert.Equal(t, "t2", dir.DisplayName(1, "t2"))
	assert.Equal(t, "ghost", dir.DisplayName(9, "ghost"))
}
