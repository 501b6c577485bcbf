package alloc

import (
	"sync/atomic"
	"unsafe"
)

// Stdlib is a thin adapter over Go's own runtime allocator. It exists so
// tests and examples can exercise the engine without a real arena
// allocator wired in; it is not a production allocator (buddy/pool/slab
// implementations remain out of scope for this module) and never returns
// memory to the OS on Deallocate — it relies on the garbage collector.
type Stdlib struct {
	used atomic.Uintptr
}

// NewStdlib returns a ready-to-use Stdlib allocator.
func NewStdlib() *Stdlib {
	return &Stdlib{}
}

// Allocate satisfies Allocator by delegating to make([]byte, n) and
// tracking the requested size as "used". Alignment is honored by Go's
// allocator for any size class at or above align; callers that need
// stricter guarantees should round size up themselves.
func (s *Stdlib) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	buf := make([]byte, size)
	s.used.Add(size)
	return unsafe.Pointer(&buf[0]), nil
}

// Deallocate is a no-op: the Go garbage collector reclaims the backing
// array once nothing references it. Used-memory accounting is therefore
// only an upper bound, which is documented behavior for this test double.
func (s *Stdlib) Deallocate(ptr unsafe.Pointer) {}

// Reset always fails: there is nothing to reset, since Stdlib does not own
// an arena it could release in one step.
func (s *Stdlib) Reset() error {
	return ErrResetUnsupported
}

// UsedMemory reports cumulative bytes requested via Allocate.
func (s *Stdlib) UsedMemory() uintptr {
	return s.used.Load()
}

// TotalMemory has no real ceiling for a GC-backed allocator; it mirrors
// UsedMemory so callers computing headroom see zero rather than a
// misleading budget.
func (s *Stdlib) TotalMemory() uintptr {
	return s.used.Load()
}

// Name identifies this allocator in diagnostics.
func (s *Stdlib) Name() string {
	return "stdlib"
}

var _ Allocator = (*Stdlib)(nil)
