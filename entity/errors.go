package entity

import (
	"fmt"

	"github.com/kilnforge/core/internal/coltable"
)

// StaleHandleError is returned when a handle's generation no longer
// matches its slot's current generation — the entity has been despawned
// (or never existed). Per spec §7 this is "not found", never fatal.
type StaleHandleError struct {
	Entity Entity
}

func (e StaleHandleError) Error() string {
	return fmt.Sprintf("entity: stale handle (index=%d generation=%d)", e.Entity.Index(), e.Entity.Generation())
}

// ComponentNotFoundError is returned when an operation that requires a
// component (SetComponent) targets an entity that does not carry it.
type ComponentNotFoundError struct {
	TypeID coltable.TypeID
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("entity: component %d not present on entity", e.TypeID)
}
