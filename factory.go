package core

import (
	"github.com/kilnforge/core/entity"
	"github.com/kilnforge/core/system"
)

// factory implements the factory pattern for core's top-level
// constructors: a single global instance whose methods delegate to
// unexported constructors, generalized to the runtime's fuller set of
// collaborators.
type factory struct{}

// Factory is the global factory instance for creating core runtimes.
var Factory factory

// NewWorld creates a new, empty entity.World.
func (f factory) NewWorld() *entity.World {
	return entity.NewWorld()
}

// NewRegistry creates a new, empty system.Registry.
func (f factory) NewRegistry() *system.Registry {
	return system.NewRegistry()
}

// NewRuntime wires a thread pool, scheduler, resources, events, and
// asset server around registry according to cfg.
func (f factory) NewRuntime(registry *system.Registry, cfg Config) (*Runtime, error) {
	return newRuntime(registry, cfg)
}
