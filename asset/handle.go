package asset

// rawHandle identifies a slot inside a single Storage[T] the way
// entity.Entity identifies a row inside a World: a dense index plus a
// generation that invalidates stale references once the slot is
// reused (spec §4.10, mirroring spec §4.2's entity handles).
type rawHandle struct {
	index      uint32
	generation uint32
}

// StrongHandle keeps its slot alive: the Storage only considers a slot
// a GC candidate once no StrongHandle references it. Spec §4.10
// describes it as RAII — "copy bumps the ref count; drop decrements" —
// which Go cannot express directly since values have no copy
// constructor or destructor hook. The substitute used throughout this
// package: Clone bumps the ref count explicitly in place of an
// implicit copy, and Release decrements it in place of an implicit
// drop. An ordinary Go copy (assignment, passing by value) does
// NOT bump the count — callers that fan a handle out to another
// goroutine or store it past the original's lifetime must call Clone
// themselves, the same discipline context.CancelFunc and io.Closer
// already ask of callers.
type StrongHandle[T any] struct {
	raw     rawHandle
	storage *Storage[T]
}

// Raw exposes the handle's index/generation pair for equality checks
// and as a cheap cache key (spec §8 scenario 5: two loads of the same
// memory asset must report equal Raw()).
func (h StrongHandle[T]) Raw() (index, generation uint32) { return h.raw.index, h.raw.generation }

// Valid reports whether h was ever populated by a Storage. The zero
// StrongHandle is never valid.
func (h StrongHandle[T]) Valid() bool { return h.storage != nil }

// Clone increments the slot's reference count and returns a new
// strong handle to the same slot — the explicit substitute for RAII
// copy semantics.
func (h StrongHandle[T]) Clone() StrongHandle[T] {
	if h.storage != nil {
		h.storage.incRef(h.raw.index)
	}
	return h
}

// Release decrements the slot's reference count — the explicit
// substitute for RAII drop semantics. Calling Release on the zero
// value is a no-op. Each StrongHandle obtained from Load, Clone, or
// Lock must have Release called on it exactly once.
func (h StrongHandle[T]) Release() {
	if h.storage != nil {
		h.storage.decRef(h.raw.index)
	}
}

// Weak derives a non-owning handle that can outlive this strong
// handle but must be re-validated (Lock) before use.
func (h StrongHandle[T]) Weak() WeakHandle[T] {
	return WeakHandle[T]{raw: h.raw, storage: h.storage}
}

// WeakHandle references a slot without keeping it alive. It can be
// stored long-term (e.g. inside another asset) without preventing GC.
type WeakHandle[T any] struct {
	raw     rawHandle
	storage *Storage[T]
}

// Raw exposes the handle's index/generation pair.
func (h WeakHandle[T]) Raw() (index, generation uint32) { return h.raw.index, h.raw.generation }

// Valid reports whether h was ever populated by a Storage.
func (h WeakHandle[T]) Valid() bool { return h.storage != nil }

// Lock attempts to upgrade to a StrongHandle, incrementing the ref
// count on success. It fails if the slot's generation has moved on
// (the asset was unloaded and its slot reused or retired).
func (h WeakHandle[T]) Lock() (StrongHandle[T], bool) {
	if h.storage == nil || !h.storage.validGeneration(h.raw) {
		return StrongHandle[T]{}, false
	}
	h.storage.incRef(h.raw.index)
	return StrongHandle[T]{raw: h.raw, storage: h.storage}, true
}
