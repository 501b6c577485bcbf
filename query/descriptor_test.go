package query

import (
	"testing"

	"github.com/kilnforge/core/archetype"
	"github.com/kilnforge/core/entity"
)

type qPos struct{ X, Y float64 }
type qVel struct{ X, Y float64 }
type qDead struct{}

func TestDescriptorMatchesRequiredAndExcludes(t *testing.T) {
	world := entity.NewWorld()
	pos := archetype.ComponentFor[qPos]()
	vel := archetype.ComponentFor[qVel]()
	dead := archetype.ComponentFor[qDead]()

	world.SpawnWith(entity.Attach(pos, qPos{1, 1}), entity.Attach(vel, qVel{2, 2}))
	world.SpawnWith(entity.Attach(pos, qPos{3, 3}))
	world.SpawnWith(entity.Attach(pos, qPos{4, 4}), entity.Attach(dead, qDead{}))

	b := New()
	WithRead(b, pos)
	Without(b, dead)
	d := b.Build()

	matched := FindMatchingArchetypes(world.Registry(), world.Graph(), d)
	total := 0
	for _, a := range matched {
		total += a.Table.Len()
	}
	if total != 2 {
		t.Fatalf("expected 2 matching rows (pos-only and pos+vel, excluding dead), got %d", total)
	}
}

func TestDescriptorRequiresAllTerms(t *testing.T) {
	world := entity.NewWorld()
	pos := archetype.ComponentFor[qPos]()
	vel := archetype.ComponentFor[qVel]()

	world.SpawnWith(entity.Attach(pos, qPos{1, 1}))
	world.SpawnWith(entity.Attach(pos, qPos{2, 2}), entity.Attach(vel, qVel{3, 3}))

	b := New()
	WithRead(b, pos)
	WithWrite(b, vel)
	d := b.Build()

	matched := FindMatchingArchetypes(world.Registry(), world.Graph(), d)
	total := 0
	for _, a := range matched {
		total += a.Table.Len()
	}
	if total != 1 {
		t.Fatalf("expected only the pos+vel archetype to match, got total rows %d", total)
	}
}

func TestOptionalTermsDoNotFilter(t *testing.T) {
	world := entity.NewWorld()
	pos := archetype.ComponentFor[qPos]()
	vel := archetype.ComponentFor[qVel]()

	world.SpawnWith(entity.Attach(pos, qPos{1, 1}))
	world.SpawnWith(entity.Attach(pos, qPos{2, 2}), entity.Attach(vel, qVel{3, 3}))

	b := New()
	WithRead(b, pos)
	WithOptionalRead(b, vel)
	d := b.Build()

	matched := FindMatchingArchetypes(world.Registry(), world.Graph(), d)
	total := 0
	for _, a := range matched {
		total += a.Table.Len()
	}
	if total != 2 {
		t.Fatalf("expected both archetypes to match since vel is optional, got %d", total)
	}
}
