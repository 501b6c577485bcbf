// Package system implements the system/access descriptor model, deferred
// command buffers, events, hierarchy, and resources that sit above the
// entity store and query packages (spec §4.3-§4.6).
package system

import (
	"github.com/TheBitDrifter/mask"
	"github.com/kilnforge/core/archetype"
)

// WorldAccess classifies how exclusively a system needs the world.
type WorldAccess uint8

const (
	// Pure systems touch no component or resource state directly (rare;
	// mostly diagnostics/logging systems).
	Pure WorldAccess = iota
	// Shared systems only touch the components/resources in their
	// descriptor and may run alongside any system whose sets don't
	// conflict.
	Shared
	// Exclusive systems conflict with every other system (spec §4.3 rule
	// 1) and are effectively serialized against the rest of the frame.
	Exclusive
)

// AccessDescriptor is the only input the scheduler uses to compute
// ordering edges (spec §4.3).
type AccessDescriptor struct {
	Reads     mask.Mask
	Writes    mask.Mask
	ResReads  map[string]struct{}
	ResWrites map[string]struct{}
	World     WorldAccess
}

// NewAccessDescriptor returns an access descriptor with its resource sets
// allocated and ready to populate.
func NewAccessDescriptor() AccessDescriptor {
	return AccessDescriptor{
		ResReads:  make(map[string]struct{}),
		ResWrites: make(map[string]struct{}),
	}
}

// MarkRead registers c as read by the owning system, given the
// component's assigned bit in reg.
func (a *AccessDescriptor) MarkRead(reg *archetype.Registry, c archetype.Component) {
	a.Reads.Mark(reg.Register(c))
}

// MarkWrite registers c as written by the owning system.
func (a *AccessDescriptor) MarkWrite(reg *archetype.Registry, c archetype.Component) {
	a.Writes.Mark(reg.Register(c))
}

// MarkResourceRead records a resource name as read.
func (a *AccessDescriptor) MarkResourceRead(name string) {
	if a.ResReads == nil {
		a.ResReads = make(map[string]struct{})
	}
	a.ResReads[name] = struct{}{}
}

// MarkResourceWrite records a resource name as written.
func (a *AccessDescriptor) MarkResourceWrite(name string) {
	if a.ResWrites == nil {
		a.ResWrites = make(map[string]struct{})
	}
	a.ResWrites[name] = struct{}{}
}

// Conflicts implements the three-rule conflict test from spec §4.3:
// either side being Exclusive conflicts with everything; a write on
// either side overlapping the other's reads-or-writes conflicts, for
// both components and resources. Reads-reads never conflict.
func (a AccessDescriptor) Conflicts(b AccessDescriptor) bool {
	if a.World == Exclusive || b.World == Exclusive {
		return true
	}
	if a.Writes.ContainsAny(b.Reads) || a.Writes.ContainsAny(b.Writes) {
		return true
	}
	if b.Writes.ContainsAny(a.Reads) || b.Writes.ContainsAny(a.Writes) {
		return true
	}
	if mapIntersects(a.ResWrites, b.ResReads) || mapIntersects(a.ResWrites, b.ResWrites) {
		return true
	}
	if mapIntersects(b.ResWrites, a.ResReads) {
		return true
	}
	return false
}

func mapIntersects(a, b map[string]struct{}) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	for k := range small {
		if _, ok := big[k]; ok {
			return true
		}
	}
	return false
}
