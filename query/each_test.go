package query

import (
	"testing"

	"github.com/kilnforge/core/archetype"
	"github.com/kilnforge/core/entity"
)

func TestEach1VisitsEveryMatchingRowExactlyOnce(t *testing.T) {
	world := entity.NewWorld()
	pos := archetype.ComponentFor[qPos]()

	world.SpawnWith(entity.Attach(pos, qPos{1, 0}))
	world.SpawnWith(entity.Attach(pos, qPos{2, 0}))
	world.SpawnWith(entity.Attach(pos, qPos{3, 0}))

	b := New()
	WithWrite(b, pos)
	d := b.Build()
	c := NewCursor(world, d)

	var sum float64
	var visits int
	Each1(c, pos, func(p *qPos) {
		sum += p.X
		visits++
		p.X *= 10
	})
	if visits != 3 || sum != 6 {
		t.Fatalf("expected 3 visits summing to 6, got %d visits summing to %v", visits, sum)
	}

	c.Reset()
	var after float64
	Each1(c, pos, func(p *qPos) { after += p.X })
	if after != 60 {
		t.Fatalf("expected mutations through Each1 to persist, got sum %v", after)
	}
}

func TestEach2PairsComponentsFromTheSameRow(t *testing.T) {
	world := entity.NewWorld()
	pos := archetype.ComponentFor[qPos]()
	vel := archetype.ComponentFor[qVel]()

	world.SpawnWith(entity.Attach(pos, qPos{0, 0}), entity.Attach(vel, qVel{1, 2}))
	world.SpawnWith(entity.Attach(pos, qPos{0, 0}), entity.Attach(vel, qVel{3, 4}))

	b := New()
	WithWrite(b, pos)
	WithRead(b, vel)
	d := b.Build()
	c := NewCursor(world, d)

	Each2(c, pos, vel, func(p *qPos, v *qVel) {
		p.X += v.X
		p.Y += v.Y
	})

	c.Reset()
	var total float64
	Each1(c, pos, func(p *qPos) { total += p.X + p.Y })
	if total != 10 {
		t.Fatalf("expected integrated positions to sum to 10, got %v", total)
	}
}

func TestEachWithEntity1ExposesTheRowsEntity(t *testing.T) {
	world := entity.NewWorld()
	pos := archetype.ComponentFor[qPos]()
	e1 := world.SpawnWith(entity.Attach(pos, qPos{1, 1}))
	e2 := world.SpawnWith(entity.Attach(pos, qPos{2, 2}))

	b := New()
	WithRead(b, pos)
	d := b.Build()
	c := NewCursor(world, d)

	seen := map[entity.Entity]bool{}
	EachWithEntity1(c, pos, func(e entity.Entity, p *qPos) {
		seen[e] = true
	})
	if !seen[e1] || !seen[e2] || len(seen) != 2 {
		t.Fatalf("expected both spawned entities visited exactly once, got %v", seen)
	}
}

func TestOptionalReturnsNilWhenArchetypeLacksComponent(t *testing.T) {
	world := entity.NewWorld()
	pos := archetype.ComponentFor[qPos]()
	vel := archetype.ComponentFor[qVel]()

	world.SpawnWith(entity.Attach(pos, qPos{1, 1}))
	world.SpawnWith(entity.Attach(pos, qPos{2, 2}), entity.Attach(vel, qVel{5, 5}))

	b := New()
	WithRead(b, pos)
	d := b.Build()
	c := NewCursor(world, d)

	var withVel, withoutVel int
	for c.Next() {
		if v := Optional(c, vel); v != nil {
			withVel++
		} else {
			withoutVel++
		}
	}
	if withVel != 1 || withoutVel != 1 {
		t.Fatalf("expected one row with vel and one without, got withVel=%d withoutVel=%d", withVel, withoutVel)
	}
}

func TestCursorTotalMatchedResetsAfterCounting(t *testing.T) {
	world := entity.NewWorld()
	pos := archetype.ComponentFor[qPos]()
	world.SpawnWith(entity.Attach(pos, qPos{1, 1}))
	world.SpawnWith(entity.Attach(pos, qPos{2, 2}))

	b := New()
	WithRead(b, pos)
	d := b.Build()
	c := NewCursor(world, d)

	if n := c.TotalMatched(); n != 2 {
		t.Fatalf("expected TotalMatched=2, got %d", n)
	}

	var visits int
	Each1(c, pos, func(*qPos) { visits++ })
	if visits != 2 {
		t.Fatalf("expected the cursor to be iterable again after TotalMatched, got %d visits", visits)
	}
}
