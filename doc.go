/*
Package core provides a concurrent ECS runtime for games and simulations:
archetype-based component storage, a query/system model with automatic
access-conflict detection, a work-stealing parallel scheduler, and a
budget-driven asset runtime.

Core Concepts:

  - Entity: a generational handle identifying a row across its component
    archetype (package entity).
  - Archetype: a group of entities sharing the same component set, stored
    column-major for cache-friendly iteration (package archetype).
  - Query: a read/write/optional access descriptor compiled to a bitmask
    predicate over archetypes (package query).
  - System: a named unit of work with a declared access descriptor; two
    systems whose descriptors conflict never run concurrently (package
    system).
  - Scheduler: builds the dependency DAG from a system.Registry and
    dispatches ready systems onto a work-stealing thread pool (package
    scheduler).
  - Asset: typed, ref-counted, budget-and-GC-managed storage for loaded
    game data, with an async priority I/O pump (package asset).

Basic Usage:

	world := entity.NewWorld()
	position := archetype.ComponentFor[Position]()
	velocity := archetype.ComponentFor[Velocity]()

	registry := system.NewRegistry()
	registry.Register(system.Descriptor{
		Name:    "move",
		Enabled: true,
		Exec: func(ctx *system.Context) error {
			// iterate and mutate via query.Cursor / query.EachWith*
			return nil
		},
	})

	rt, err := Factory.NewRuntime(registry, DefaultConfig())
	if err != nil {
		panic(err)
	}
	defer rt.Close()

	if err := rt.Update(world); err != nil {
		panic(err)
	}

core is the top-level facade; each concern also works standalone by
importing its package directly.
*/
package core
