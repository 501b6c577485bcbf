// Package query compiles a set of terms (required, excluded, optional,
// each read or write) into an archetype match predicate, and provides a
// Cursor to iterate the matching tables (spec §4.2).
package query

import (
	"github.com/TheBitDrifter/mask"
	"github.com/kilnforge/core/archetype"
	"github.com/kilnforge/core/internal/coltable"
)

// AccessMode records whether a query term reads or writes its component;
// it is folded into the owning system's access descriptor (spec §4.3).
type AccessMode uint8

const (
	Read AccessMode = iota
	Write
)

// Term is one declared query component and how it is accessed.
type Term struct {
	ID     coltable.TypeID
	Access AccessMode
}

// Descriptor is the compiled form of a query: required/excluded/optional
// type-id sets plus the ordered access list terms were declared in.
type Descriptor struct {
	Required []Term
	Excluded []coltable.TypeID
	Optional []Term
}

// Builder incrementally assembles a Descriptor.
type Builder struct {
	d Descriptor
}

// New starts an empty query builder.
func New() *Builder { return &Builder{} }

// WithRead declares c as required and read-only.
func WithRead[T any](b *Builder, c archetype.Column[T]) *Builder {
	b.d.Required = append(b.d.Required, Term{ID: c.TypeID(), Access: Read})
	return b
}

// WithWrite declares c as required and mutably accessed.
func WithWrite[T any](b *Builder, c archetype.Column[T]) *Builder {
	b.d.Required = append(b.d.Required, Term{ID: c.TypeID(), Access: Write})
	return b
}

// Without excludes entities carrying c.
func Without[T any](b *Builder, c archetype.Column[T]) *Builder {
	b.d.Excluded = append(b.d.Excluded, c.TypeID())
	return b
}

// WithOptionalRead declares c as optional and read-only when present.
func WithOptionalRead[T any](b *Builder, c archetype.Column[T]) *Builder {
	b.d.Optional = append(b.d.Optional, Term{ID: c.TypeID(), Access: Read})
	return b
}

// WithOptionalWrite declares c as optional and mutably accessed when
// present.
func WithOptionalWrite[T any](b *Builder, c archetype.Column[T]) *Builder {
	b.d.Optional = append(b.d.Optional, Term{ID: c.TypeID(), Access: Write})
	return b
}

// Build freezes the Descriptor.
func (b *Builder) Build() Descriptor { return b.d }

// requiredMask builds the bitmask of required component bits. Terms whose
// component was never registered are left out; Matches rejects those
// descriptors before using the mask.
func requiredMask(reg *archetype.Registry, terms []Term) mask.Mask {
	var m mask.Mask
	for _, t := range terms {
		if bit, ok := reg.BitFor(t.ID); ok {
			m.Mark(bit)
		}
	}
	return m
}

func excludedMask(reg *archetype.Registry, ids []coltable.TypeID) mask.Mask {
	var m mask.Mask
	for _, id := range ids {
		if bit, ok := reg.BitFor(id); ok {
			m.Mark(bit)
		}
	}
	return m
}

// Matches reports whether a's signature satisfies d: every required bit
// present, no excluded bit present. Optional terms never affect the
// predicate — they're surfaced, not filtered on (spec §4.2).
func (d Descriptor) Matches(reg *archetype.Registry, a *archetype.Archetype) bool {
	for _, t := range d.Required {
		if _, ok := reg.BitFor(t.ID); !ok {
			// A never-registered component is carried by no archetype.
			return false
		}
	}
	req := requiredMask(reg, d.Required)
	if !a.Signature().ContainsAll(req) {
		return false
	}
	exc := excludedMask(reg, d.Excluded)
	if !exc.IsEmpty() && a.Signature().ContainsAny(exc) {
		return false
	}
	return true
}

// FindMatchingArchetypes returns every archetype in g whose signature
// satisfies d (spec §4.2).
func FindMatchingArchetypes(reg *archetype.Registry, g *archetype.Graph, d Descriptor) []*archetype.Archetype {
	all := g.All()
	out := make([]*archetype.Archetype, 0, len(all))
	for _, a := range all {
		if d.Matches(reg, a) {
			out = append(out, a)
		}
	}
	return out
}
