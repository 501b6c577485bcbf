package query

import (
	"github.com/kilnforge/core/archetype"
	"github.com/kilnforge/core/entity"
)

// Cursor iterates every row of every archetype matching a Descriptor,
// exactly once per call (spec §4.2's "Result contract"). Structural
// edits are forbidden while a Cursor is live; route them through a
// command buffer instead (enforced by convention, not a runtime lock).
type Cursor struct {
	world *entity.World
	desc  Descriptor

	matched      []*archetype.Archetype
	archIndex    int
	row          int
	initialized  bool
}

// NewCursor returns a Cursor over world for d. The matching archetypes
// are collected from world's graph at the first Next or TotalMatched
// call (and again after Reset), not here.
func NewCursor(world *entity.World, d Descriptor) *Cursor {
	return &Cursor{world: world, desc: d}
}

func (c *Cursor) init() {
	if c.initialized {
		return
	}
	c.matched = FindMatchingArchetypes(c.world.Registry(), c.world.Graph(), c.desc)
	c.archIndex = 0
	c.row = -1
	c.initialized = true
}

// Next advances to the next matching row, returning false once every
// matched archetype has been exhausted.
func (c *Cursor) Next() bool {
	c.init()
	for c.archIndex < len(c.matched) {
		tbl := c.matched[c.archIndex].Table
		c.row++
		if c.row < tbl.Len() {
			return true
		}
		c.archIndex++
		c.row = -1
	}
	return false
}

// Reset rewinds the cursor so it can be iterated again.
func (c *Cursor) Reset() {
	c.initialized = false
	c.matched = nil
	c.archIndex = 0
	c.row = -1
}

// CurrentArchetype returns the archetype the cursor currently points
// into.
func (c *Cursor) CurrentArchetype() *archetype.Archetype { return c.matched[c.archIndex] }

// Row returns the current row index within the current table.
func (c *Cursor) Row() int { return c.row }

// CurrentEntity returns the Entity handle at the cursor's current
// position.
func (c *Cursor) CurrentEntity() entity.Entity {
	tbl := c.matched[c.archIndex].Table
	return entity.Entity(tbl.EntityAt(c.row))
}

// TotalMatched returns how many rows in total satisfy the query, across
// every matching archetype. Resets the cursor afterward.
func (c *Cursor) TotalMatched() int {
	c.init()
	total := 0
	for _, a := range c.matched {
		total += a.Table.Len()
	}
	c.Reset()
	return total
}
