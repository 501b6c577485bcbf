package system

import (
	"testing"

	"github.com/kilnforge/core/archetype"
)

type velocity struct{ X, Y float64 }

func TestAccessDescriptorReadsNeverConflict(t *testing.T) {
	reg := archetype.NewRegistry()
	pos := archetype.ComponentFor[position]()

	a := NewAccessDescriptor()
	a.MarkRead(reg, pos)
	b := NewAccessDescriptor()
	b.MarkRead(reg, pos)

	if a.Conflicts(b) {
		t.Fatalf("expected two reads of the same component not to conflict")
	}
}

func TestAccessDescriptorWriteReadConflicts(t *testing.T) {
	reg := archetype.NewRegistry()
	pos := archetype.ComponentFor[position]()

	a := NewAccessDescriptor()
	a.MarkWrite(reg, pos)
	b := NewAccessDescriptor()
	b.MarkRead(reg, pos)

	if !a.Conflicts(b) {
		t.Fatalf("expected write vs read on the same component to conflict")
	}
	if !b.Conflicts(a) {
		t.Fatalf("expected conflict to be symmetric")
	}
}

func TestAccessDescriptorDisjointComponentsDontConflict(t *testing.T) {
	reg := archetype.NewRegistry()
	pos := archetype.ComponentFor[position]()
	vel := archetype.ComponentFor[velocity]()

	a := NewAccessDescriptor()
	a.MarkWrite(reg, pos)
	b := NewAccessDescriptor()
	b.MarkWrite(reg, vel)

	if a.Conflicts(b) {
		t.Fatalf("expected disjoint component writes not to conflict")
	}
}

func TestAccessDescriptorExclusiveConflictsWithEverything(t *testing.T) {
	a := NewAccessDescriptor()
	a.World = Exclusive
	b := NewAccessDescriptor()

	if !a.Conflicts(b) {
		t.Fatalf("expected an exclusive system to conflict with an unrelated shared system")
	}
}

func TestAccessDescriptorResourceWriteConflicts(t *testing.T) {
	a := NewAccessDescriptor()
	a.MarkResourceWrite("clock")
	b := NewAccessDescriptor()
	b.MarkResourceRead("clock")

	if !a.Conflicts(b) {
		t.Fatalf("expected resource write vs read to conflict")
	}
}
