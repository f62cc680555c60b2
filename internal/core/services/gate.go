package services

import (
	"sync/atomic"

	"github.com/custodia-labs/cmdbridge/internal/core/domain"
)

// AllowListGate decides whether a command may be executed.
// The allow-list snapshot is swapped atomically, so concurrent readers
// always see either the old or the new list in full.
type AllowListGate struct {
	list atomic.Pointer[domain.AllowList]
}

// NewAllowListGate creates a gate with the given patterns.
func NewAllowListGate(patterns []string) *AllowListGate {
	g := &AllowListGate{}
	g.Replace(patterns)
	return g
}

// IsAllowed reports whether command may run.
// An empty allow-list permits everything.
func (g *AllowListGate) IsAllowed(command string) bool {
	return g.Snapshot().Allows(command)
}

// Replace installs a new allow-list.
func (g *AllowListGate) Replace(patterns []string) {
	list := domain.AllowList(patterns).Normalise()
	g.list.Store(&list)
}

// Snapshot returns the current allow-list.
func (g *AllowListGate) Snapshot() domain.AllowList {
	if list := g.list.Load(); list != nil {
		return *list
	}
	return nil
}
