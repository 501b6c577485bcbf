package system

import (
	"github.com/kilnforge/core/archetype"
	"github.com/kilnforge/core/query"
)

// EachWithCommands is query.Each1 generalized with access to this
// worker's CommandBuffer, for systems that issue structural edits while
// iterating instead of mutating components directly (spec §4.2's
// each_with_commands). It lives here rather than in query because
// CommandBuffer is a system-package type and query must not import
// system.
func EachWithCommands[A any](c *query.Cursor, a archetype.Column[A], cmds *CommandBuffer, fn func(*A, *CommandBuffer)) {
	for c.Next() {
		tbl := c.CurrentArchetype().Table
		fn(a.Get(tbl, c.Row()), cmds)
	}
}

// EachWithRes is Each1 generalized with read-only access to a resource
// of type R, looked up once per row (spec §4.2's each_with_res).
func EachWithRes[A, R any](c *query.Cursor, a archetype.Column[A], res *Resources, fn func(*A, R)) {
	for c.Next() {
		tbl := c.CurrentArchetype().Table
		r, _ := GetResource[R](res)
		fn(a.Get(tbl, c.Row()), r)
	}
}

// EachWithResMut is EachWithRes with mutable resource access: fn receives
// a pointer to one copy of the resource shared by every row, and that
// copy is stored back into res once iteration ends, so later readers of
// res see the changes.
func EachWithResMut[A, R any](c *query.Cursor, a archetype.Column[A], res *Resources, fn func(*A, *R)) {
	r, ok := GetResource[R](res)
	if !ok {
		var zero R
		r = zero
	}
	for c.Next() {
		tbl := c.CurrentArchetype().Table
		fn(a.Get(tbl, c.Row()), &r)
	}
	SetResource(res, r)
}
