package query

import (
	"github.com/kilnforge/core/archetype"
	"github.com/kilnforge/core/entity"
)

// Each1 visits every matching row, handing fn a pointer to A (spec
// §4.2's each). Each matching entity is visited exactly once.
func Each1[A any](c *Cursor, a archetype.Column[A], fn func(*A)) {
	for c.Next() {
		tbl := c.CurrentArchetype().Table
		fn(a.Get(tbl, c.Row()))
	}
}

// Each2 is Each1 generalized to two components.
func Each2[A, B any](c *Cursor, ca archetype.Column[A], cb archetype.Column[B], fn func(*A, *B)) {
	for c.Next() {
		tbl := c.CurrentArchetype().Table
		fn(ca.Get(tbl, c.Row()), cb.Get(tbl, c.Row()))
	}
}

// Each3 is Each1 generalized to three components.
func Each3[A, B, D any](c *Cursor, ca archetype.Column[A], cb archetype.Column[B], cd archetype.Column[D], fn func(*A, *B, *D)) {
	for c.Next() {
		tbl := c.CurrentArchetype().Table
		fn(ca.Get(tbl, c.Row()), cb.Get(tbl, c.Row()), cd.Get(tbl, c.Row()))
	}
}

// EachWithEntity1 is Each1 prefixed with the row's Entity handle (spec
// §4.2's each_with_entity).
func EachWithEntity1[A any](c *Cursor, a archetype.Column[A], fn func(entity.Entity, *A)) {
	for c.Next() {
		tbl := c.CurrentArchetype().Table
		fn(c.CurrentEntity(), a.Get(tbl, c.Row()))
	}
}

// EachWithEntity2 is Each2 prefixed with the row's Entity handle.
func EachWithEntity2[A, B any](c *Cursor, ca archetype.Column[A], cb archetype.Column[B], fn func(entity.Entity, *A, *B)) {
	for c.Next() {
		tbl := c.CurrentArchetype().Table
		fn(c.CurrentEntity(), ca.Get(tbl, c.Row()), cb.Get(tbl, c.Row()))
	}
}

// Optional retrieves T at the cursor's current position if the current
// archetype carries it, or nil otherwise — the nullable-pointer contract
// for optional query terms (spec §4.2).
func Optional[T any](c *Cursor, col archetype.Column[T]) *T {
	tbl := c.CurrentArchetype().Table
	if !col.Has(tbl) {
		return nil
	}
	return col.Get(tbl, c.Row())
}

// Changed reports whether the component at the cursor's current row was
// written (added or set) after lastRunTick — the change-detection
// predicate from spec §3.
func Changed[T any](c *Cursor, col archetype.Column[T], lastRunTick uint32) bool {
	tbl := c.CurrentArchetype().Table
	idx := tbl.ColumnIndex(col.TypeID())
	if idx < 0 {
		return false
	}
	return tbl.TicksAt(idx, c.Row()).Changed > lastRunTick
}

// Added reports whether the component at the cursor's current row was
// added to its table after lastRunTick.
func Added[T any](c *Cursor, col archetype.Column[T], lastRunTick uint32) bool {
	tbl := c.CurrentArchetype().Table
	idx := tbl.ColumnIndex(col.TypeID())
	if idx < 0 {
		return false
	}
	return tbl.TicksAt(idx, c.Row()).Added > lastRunTick
}
