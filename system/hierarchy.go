package system

import (
	"github.com/kilnforge/core/archetype"
	"github.com/kilnforge/core/entity"
)

// maxHierarchyDepth bounds ancestor-cycle checks in SetParent (spec
// §4.6): a parent chain this deep is treated as a cycle rather than
// walked indefinitely.
const maxHierarchyDepth = 256

// Parent names the entity this one is attached to, if any.
type Parent struct {
	Entity entity.Entity
	Valid  bool
}

// Children lists the entities currently parented to this one.
type Children struct {
	Entities []entity.Entity
}

var (
	parentColumn   = archetype.ComponentFor[Parent]()
	childrenColumn = archetype.ComponentFor[Children]()
)

// ParentColumn exposes the Parent component descriptor for building
// queries over hierarchy relationships.
func ParentColumn() archetype.Column[Parent] { return parentColumn }

// ChildrenColumn exposes the Children component descriptor.
func ChildrenColumn() archetype.Column[Children] { return childrenColumn }

// SetParent attaches child to parent, detaching child from any previous
// parent first. Returns an error if parent is among child's own
// descendants (spec §4.6: cycles are rejected) or if either handle is
// stale.
func SetParent(w *entity.World, child, parent entity.Entity) error {
	if !w.IsAlive(child) || !w.IsAlive(parent) {
		return entity.StaleHandleError{Entity: child}
	}
	if child.Equal(parent) {
		return HierarchyCycleError{Entity: child}
	}
	depth := 0
	for cur, ok := currentParent(w, parent); ok; cur, ok = currentParent(w, cur) {
		if cur.Equal(child) {
			return HierarchyCycleError{Entity: child}
		}
		depth++
		if depth > maxHierarchyDepth {
			return HierarchyCycleError{Entity: child}
		}
	}

	if prev, ok := currentParent(w, child); ok {
		detachChild(w, prev, child)
	}

	if err := entity.AddComponent(w, child, parentColumn, Parent{Entity: parent, Valid: true}); err != nil {
		return err
	}
	attachChild(w, parent, child)
	return nil
}

func currentParent(w *entity.World, e entity.Entity) (entity.Entity, bool) {
	p := entity.GetComponent(w, e, parentColumn)
	if p == nil || !p.Valid {
		return entity.Entity(0), false
	}
	return p.Entity, true
}

func attachChild(w *entity.World, parent, child entity.Entity) {
	if c := entity.GetComponent(w, parent, childrenColumn); c != nil {
		c.Entities = append(c.Entities, child)
		return
	}
	_ = entity.AddComponent(w, parent, childrenColumn, Children{Entities: []entity.Entity{child}})
}

func detachChild(w *entity.World, parent, child entity.Entity) {
	c := entity.GetComponent(w, parent, childrenColumn)
	if c == nil {
		return
	}
	for i, e := range c.Entities {
		if e.Equal(child) {
			c.Entities = append(c.Entities[:i], c.Entities[i+1:]...)
			return
		}
	}
}

// GetRoot walks e's parent chain and returns the topmost ancestor. The
// walk is bounded by maxHierarchyDepth (spec §4.6/§4.9's "all tree walks
// are bounded" invariant): Parent can be set directly through
// entity.AddComponent/SetComponent, bypassing SetParent's cycle guard,
// so a malformed chain built that way must not hang this walk. If the
// cap is hit, the ancestor reached so far is returned rather than
// looping forever.
func GetRoot(w *entity.World, e entity.Entity) entity.Entity {
	cur := e
	for depth := 0; depth < maxHierarchyDepth; depth++ {
		p, ok := currentParent(w, cur)
		if !ok {
			return cur
		}
		cur = p
	}
	return cur
}

// Depth returns how many ancestors e has (0 for a root entity), capped
// at maxHierarchyDepth for the same reason GetRoot is bounded.
func Depth(w *entity.World, e entity.Entity) int {
	depth := 0
	cur := e
	for depth < maxHierarchyDepth {
		p, ok := currentParent(w, cur)
		if !ok {
			return depth
		}
		cur = p
		depth++
	}
	return depth
}

// DespawnRecursive despawns e and every descendant, children first
// (spec §4.6). The descent is bounded by maxHierarchyDepth: Children can
// also be set directly bypassing SetParent, so a malformed cyclic
// children graph must not recurse forever.
func DespawnRecursive(w *entity.World, e entity.Entity) error {
	return despawnRecursive(w, e, 0)
}

func despawnRecursive(w *entity.World, e entity.Entity, depth int) error {
	if depth > maxHierarchyDepth {
		return HierarchyCycleError{Entity: e}
	}
	if c := entity.GetComponent(w, e, childrenColumn); c != nil {
		children := append([]entity.Entity(nil), c.Entities...)
		for _, child := range children {
			if err := despawnRecursive(w, child, depth+1); err != nil {
				return err
			}
		}
	}
	if p, ok := currentParent(w, e); ok {
		detachChild(w, p, e)
	}
	return w.Despawn(e)
}

// HierarchyCycleError reports that SetParent would introduce a cycle.
type HierarchyCycleError struct {
	Entity entity.Entity
}

func (e HierarchyCycleError) Error() string {
	return "system: parenting would introduce a hierarchy cycle"
}
