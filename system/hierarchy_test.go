package system

import (
	"testing"
	"time"

	"github.com/kilnforge/core/entity"
)

func TestSetParentAttachesChild(t *testing.T) {
	w := entity.NewWorld()
	parent := w.Spawn()
	child := w.Spawn()

	if err := SetParent(w, child, parent); err != nil {
		t.Fatalf("SetParent: %v", err)
	}
	p := entity.GetComponent(w, child, parentColumn)
	if p == nil || !p.Valid || !p.Entity.Equal(parent) {
		t.Fatalf("expected child's Parent to point at parent, got %+v", p)
	}
	c := entity.GetComponent(w, parent, childrenColumn)
	if c == nil || len(c.Entities) != 1 || !c.Entities[0].Equal(child) {
		t.Fatalf("expected parent's Children to list child, got %+v", c)
	}
}

func TestSetParentRejectsDirectCycle(t *testing.T) {
	w := entity.NewWorld()
	e := w.Spawn()
	if err := SetParent(w, e, e); err == nil {
		t.Fatalf("expected self-parenting to be rejected")
	}
}

func TestSetParentRejectsIndirectCycle(t *testing.T) {
	w := entity.NewWorld()
	a := w.Spawn()
	b := w.Spawn()
	c := w.Spawn()
	if err := SetParent(w, b, a); err != nil {
		t.Fatalf("SetParent(b,a): %v", err)
	}
	if err := SetParent(w, c, b); err != nil {
		t.Fatalf("SetParent(c,b): %v", err)
	}
	if err := SetParent(w, a, c); err == nil {
		t.Fatalf("expected parenting a under its own descendant c to be rejected as a cycle")
	}
}

func TestSetParentReassignDetachesFromPrevious(t *testing.T) {
	w := entity.NewWorld()
	p1 := w.Spawn()
	p2 := w.Spawn()
	child := w.Spawn()

	if err := SetParent(w, child, p1); err != nil {
		t.Fatalf("SetParent(child,p1): %v", err)
	}
	if err := SetParent(w, child, p2); err != nil {
		t.Fatalf("SetParent(child,p2): %v", err)
	}
	if c := entity.GetComponent(w, p1, childrenColumn); c != nil && len(c.Entities) != 0 {
		t.Fatalf("expected child detached from p1, got %+v", c)
	}
	if c := entity.GetComponent(w, p2, childrenColumn); c == nil || len(c.Entities) != 1 {
		t.Fatalf("expected child attached to p2, got %+v", c)
	}
}

func TestDespawnRecursiveRemovesWholeSubtree(t *testing.T) {
	w := entity.NewWorld()
	root := w.Spawn()
	child := w.Spawn()
	grandchild := w.Spawn()
	if err := SetParent(w, child, root); err != nil {
		t.Fatalf("SetParent(child,root): %v", err)
	}
	if err := SetParent(w, grandchild, child); err != nil {
		t.Fatalf("SetParent(grandchild,child): %v", err)
	}
	if err := DespawnRecursive(w, root); err != nil {
		t.Fatalf("DespawnRecursive: %v", err)
	}
	if w.IsAlive(root) || w.IsAlive(child) || w.IsAlive(grandchild) {
		t.Fatalf("expected entire subtree despawned")
	}
}

func TestGetRootAndDepth(t *testing.T) {
	w := entity.NewWorld()
	root := w.Spawn()
	child := w.Spawn()
	grandchild := w.Spawn()
	_ = SetParent(w, child, root)
	_ = SetParent(w, grandchild, child)

	if got := GetRoot(w, grandchild); !got.Equal(root) {
		t.Fatalf("expected GetRoot(grandchild) == root")
	}
	if got := Depth(w, grandchild); got != 2 {
		t.Fatalf("expected depth 2, got %d", got)
	}
	if got := Depth(w, root); got != 0 {
		t.Fatalf("expected root depth 0, got %d", got)
	}
}

func TestGetRootAndDepthTerminateOnCycleBypassingSetParent(t *testing.T) {
	w := entity.NewWorld()
	a := w.Spawn()
	b := w.Spawn()

	// Build a 2-cycle directly through AddComponent, bypassing
	// SetParent's guard entirely.
	if err := entity.AddComponent(w, a, parentColumn, Parent{Entity: b, Valid: true}); err != nil {
		t.Fatalf("AddComponent(a): %v", err)
	}
	if err := entity.AddComponent(w, b, parentColumn, Parent{Entity: a, Valid: true}); err != nil {
		t.Fatalf("AddComponent(b): %v", err)
	}

	done := make(chan struct{})
	go func() {
		GetRoot(w, a)
		Depth(w, a)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("GetRoot/Depth did not terminate on a cyclic parent chain")
	}
}

func TestDespawnRecursiveTerminatesOnCycleBypassingSetParent(t *testing.T) {
	w := entity.NewWorld()
	a := w.Spawn()
	b := w.Spawn()

	if err := entity.AddComponent(w, a, childrenColumn, Children{Entities: []entity.Entity{b}}); err != nil {
		t.Fatalf("AddComponent(a): %v", err)
	}
	if err := entity.AddComponent(w, b, childrenColumn, Children{Entities: []entity.Entity{a}}); err != nil {
		t.Fatalf("AddComponent(b): %v", err)
	}

	done := make(chan struct{})
	go func() {
		_ = DespawnRecursive(w, a)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("DespawnRecursive did not terminate on a cyclic children graph")
	}
}
