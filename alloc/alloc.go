// Package alloc declares the allocator trait consumed by the rest of the
// module. The allocator implementations themselves (linear, stack, buddy,
// pool, slab) are out of scope here; this package only declares the
// interface. The module's containers allocate with ordinary Go slices and
// do not call it.
package alloc

import (
	"errors"
	"unsafe"
)

// ErrResetUnsupported is returned by allocators that cannot discard their
// whole arena in one step (pool, slab, buddy) when Reset is called.
var ErrResetUnsupported = errors.New("alloc: reset not supported by this allocator")

// Allocator is the trait a real arena allocator (linear, stack, buddy, pool,
// slab) would implement to back the engine's containers instead of going
// through make([]byte, n) and the garbage collector. None of those
// implementations ship with this module; Stdlib is the only concrete type,
// and it exists purely so call sites can be written against Allocator today
// without blocking on an arena implementation landing later.
type Allocator interface {
	Allocate(size, align uintptr) (unsafe.Pointer, error)
	Deallocate(ptr unsafe.Pointer)

	// Reset releases everything allocated so far in one step. Linear and
	// stack allocators implement this; pool/slab/buddy allocators may
	// return ErrResetUnsupported.
	Reset() error

	UsedMemory() uintptr
	TotalMemory() uintptr
	Name() string
}
