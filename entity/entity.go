// Package entity implements the generational Entity handle, its
// allocator, and the World façade that ties the handle allocator to the
// archetype graph (spec §3, §4.1).
package entity

// Entity is a 64-bit opaque handle packing an index, a generation, and
// flag bits. Equality and hashing use only index+generation; flags never
// affect identity (spec §3) — use Equal, not ==, when flags may differ
// between two copies of a logically identical handle.
type Entity uint64

const (
	indexBits = 32
	genBits   = 28
	flagBits  = 4

	genShift  = indexBits
	flagShift = indexBits + genBits

	indexMask = uint64(1)<<indexBits - 1
	genMask   = uint64(1)<<genBits - 1
	flagMask  = uint64(1)<<flagBits - 1
)

// Flags are the per-handle bits carried alongside index+generation. The
// canonical value lives on the allocator's slot, not on any particular
// copy of an Entity a caller is holding — see World.Flags/SetDisabled.
type Flags uint8

const (
	FlagAlive Flags = 1 << iota
	FlagDisabled
)

// pack builds an Entity from its constituent fields. Index and generation
// are truncated to their bit widths; callers never construct these
// directly outside this package's allocator.
func pack(index, generation uint32, flags Flags) Entity {
	return Entity(uint64(index)&indexMask |
		(uint64(generation)&genMask)<<genShift |
		(uint64(flags)&flagMask)<<flagShift)
}

// Index returns the slot index this handle refers to.
func (e Entity) Index() uint32 { return uint32(uint64(e) & indexMask) }

// Generation returns the generation stamped into this handle.
func (e Entity) Generation() uint32 { return uint32((uint64(e) >> genShift) & genMask) }

// EntityFlags returns the flag bits carried by this specific handle copy.
func (e Entity) EntityFlags() Flags { return Flags((uint64(e) >> flagShift) & flagMask) }

// withFlags returns a copy of e with flags replaced.
func (e Entity) withFlags(f Flags) Entity {
	return pack(e.Index(), e.Generation(), f)
}

// key returns the index+generation bits with flags masked to zero, the
// basis for Equal and Hash.
func (e Entity) key() uint64 {
	return uint64(e) &^ (flagMask << flagShift)
}

// Equal reports whether two handles refer to the same (index, generation)
// pair, ignoring flags.
func (e Entity) Equal(o Entity) bool { return e.key() == o.key() }

// Hash returns a hash suitable for map keys that is stable across flag
// changes, since Equal ignores flags.
func (e Entity) Hash() uint64 { return e.key() }
