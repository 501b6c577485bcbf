package asset

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Loader decodes raw bytes into a value of type T. Cooking, import
// pipelines, and the content-addressed store that would normally feed
// bytes to a Loader are out of scope (spec §1) — Storage only knows
// how to run whatever Loader it was given.
type Loader[T any] func(data []byte) (T, error)

// SizeFunc reports the budget weight of a decoded value. Storages
// default to a fixed weight of 1 per asset when none is supplied,
// which is enough to exercise the GC policy in terms of "item count"
// rather than true byte size.
type SizeFunc[T any] func(T) int64

type slot[T any] struct {
	generation  uint32
	refCount    int32
	status      Status
	value       T
	err         error
	persistent  bool
	size        int64
	key         string
	gcCountdown int32 // -1: not yet started a grace countdown
	ioID        uuid.UUID
}

// Storage holds every slot of asset type T: a capacity-free-list table
// in the style of edwinsyarief-lazyecs's resource pool, generalized
// from a flat resource slice to a full load/ref-count/GC lifecycle
// (spec §4.10).
type Storage[T any] struct {
	mu     sync.Mutex
	slots  []slot[T]
	free   []uint32
	byKey  map[string]uint32
	events []Event[T]
	loader Loader[T]
	sizeFn SizeFunc[T]
	server *Server
}

func newStorage[T any](srv *Server, loader Loader[T], sizeFn SizeFunc[T]) *Storage[T] {
	if sizeFn == nil {
		sizeFn = func(T) int64 { return 1 }
	}
	return &Storage[T]{
		byKey:  make(map[string]uint32),
		loader: loader,
		sizeFn: sizeFn,
		server: srv,
	}
}

func (s *Storage[T]) allocSlot(key string) uint32 {
	if n := len(s.free); n > 0 {
		idx := s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[idx].key = key
		s.slots[idx].gcCountdown = -1
		return idx
	}
	s.slots = append(s.slots, slot[T]{key: key, gcCountdown: -1})
	return uint32(len(s.slots) - 1)
}

func (s *Storage[T]) handleFor(idx uint32) StrongHandle[T] {
	return StrongHandle[T]{raw: rawHandle{index: idx, generation: s.slots[idx].generation}, storage: s}
}

func (s *Storage[T]) weakHandleFor(idx uint32) WeakHandle[T] {
	return WeakHandle[T]{raw: rawHandle{index: idx, generation: s.slots[idx].generation}, storage: s}
}

func (s *Storage[T]) validGeneration(h rawHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(h.index) < len(s.slots) && s.slots[h.index].generation == h.generation
}

func (s *Storage[T]) incRef(idx uint32) {
	s.mu.Lock()
	s.slots[idx].refCount++
	s.slots[idx].gcCountdown = -1
	s.mu.Unlock()
}

func (s *Storage[T]) decRef(idx uint32) {
	s.mu.Lock()
	s.slots[idx].refCount--
	s.mu.Unlock()
}

// LoadFromMemory synchronously installs value under name, deduplicated
// by name: a second LoadFromMemory with the same name returns a new
// strong handle to the same slot rather than allocating another one
// (spec §8 scenario 5).
func (s *Storage[T]) LoadFromMemory(name string, value T) StrongHandle[T] {
	key := "mem:" + name
	s.mu.Lock()
	if idx, ok := s.byKey[key]; ok {
		s.slots[idx].refCount++
		s.slots[idx].gcCountdown = -1
		h := s.handleFor(idx)
		s.mu.Unlock()
		return h
	}
	idx := s.allocSlot(key)
	sl := &s.slots[idx]
	sl.status = Ready
	sl.value = value
	sl.err = nil
	sl.refCount = 1
	sl.size = s.sizeFn(value)
	s.byKey[key] = idx
	s.server.addBytesUsed(sl.size)
	h := s.handleFor(idx)
	s.mu.Unlock()
	return h
}

// Load is LoadWithPriority at Normal priority: a synchronous read when
// no IOScheduler is attached, an async one when it is (spec §4.10).
func (s *Storage[T]) Load(path string) (StrongHandle[T], error) {
	return s.LoadWithPriority(path, Normal)
}

// LoadWithPriority resolves path through the server's synchronous
// reader (no IOScheduler attached) or schedules an async read+decode
// at the given priority (IOScheduler attached), returning a strong
// handle immediately; the handle's status is Queued or Loading until
// the data arrives (spec §4.10).
func (s *Storage[T]) LoadWithPriority(path string, priority Priority) (StrongHandle[T], error) {
	key := "path:" + path
	s.mu.Lock()
	if idx, ok := s.byKey[key]; ok {
		s.slots[idx].refCount++
		s.slots[idx].gcCountdown = -1
		h := s.handleFor(idx)
		s.mu.Unlock()
		return h, nil
	}
	idx := s.allocSlot(key)
	sl := &s.slots[idx]
	sl.refCount = 1
	sl.status = Queued
	s.byKey[key] = idx
	h := s.handleFor(idx)
	gen := sl.generation
	s.mu.Unlock()

	complete := func(data []byte, err error) {
		s.applyLoad(idx, gen, data, err)
	}

	if s.server.io != nil {
		id := s.server.io.submit(path, priority, complete)
		s.mu.Lock()
		if s.slots[idx].generation == gen {
			s.slots[idx].ioID = id
		}
		s.mu.Unlock()
		return h, nil
	}

	data, rerr := s.server.reader.ReadFile(path)
	if rerr != nil {
		complete(nil, rerr)
		return h, nil
	}
	complete(data, nil)
	return h, nil
}

// CancelLoad cancels an in-flight async load for h. It is a no-op
// once the load has already completed or if no IOScheduler is
// attached (spec §4.10's cancellation semantics: "skip if not yet
// dispatched, drop the completion if already dispatched").
func (s *Storage[T]) CancelLoad(h StrongHandle[T]) {
	if s.server.io == nil {
		return
	}
	s.mu.Lock()
	if !s.live(h.raw) {
		s.mu.Unlock()
		return
	}
	id := s.slots[h.raw.index].ioID
	s.mu.Unlock()
	s.server.io.Cancel(id)
}

func (s *Storage[T]) applyLoad(idx uint32, gen uint32, data []byte, rerr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := &s.slots[idx]
	if sl.generation != gen {
		return // slot was unloaded and recycled before the I/O completed
	}
	if rerr != nil {
		sl.status = Failed
		sl.err = AssetError{Path: strings.TrimPrefix(sl.key, "path:"), Err: rerr}
		s.events = append(s.events, Event[T]{Kind: EventFailed, Handle: s.weakHandleFor(idx)})
		return
	}
	sl.status = Loading
	value, derr := s.loader(data)
	if derr != nil {
		sl.status = Failed
		sl.err = AssetError{Path: strings.TrimPrefix(sl.key, "path:"), Err: derr}
		s.events = append(s.events, Event[T]{Kind: EventFailed, Handle: s.weakHandleFor(idx)})
		return
	}
	sl.value = value
	sl.status = Ready
	sl.err = nil
	sl.size = s.sizeFn(value)
	s.server.addBytesUsed(sl.size)
}

// Reload re-runs the loader over data against an already-loaded slot
// and emits EventReloaded on success (spec §4.10).
func (s *Storage[T]) Reload(h StrongHandle[T], data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live(h.raw) {
		return StaleAssetHandleError{}
	}
	idx := h.raw.index
	sl := &s.slots[idx]
	value, err := s.loader(data)
	if err != nil {
		sl.status = Failed
		sl.err = err
		s.events = append(s.events, Event[T]{Kind: EventFailed, Handle: s.weakHandleFor(idx)})
		return err
	}
	oldSize := sl.size
	sl.value = value
	sl.status = Ready
	sl.err = nil
	sl.size = s.sizeFn(value)
	s.server.addBytesUsed(sl.size - oldSize)
	s.events = append(s.events, Event[T]{Kind: EventReloaded, Handle: s.weakHandleFor(idx)})
	return nil
}

func (s *Storage[T]) live(h rawHandle) bool {
	return int(h.index) < len(s.slots) && s.slots[h.index].generation == h.generation
}

// Get returns a pointer to the slot's current value, or nil if the
// slot isn't Ready (still loading, failed, or unloaded).
func (s *Storage[T]) Get(h StrongHandle[T]) *T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live(h.raw) || s.slots[h.raw.index].status != Ready {
		return nil
	}
	return &s.slots[h.raw.index].value
}

// GetStatus reports h's current lifecycle state.
func (s *Storage[T]) GetStatus(h StrongHandle[T]) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live(h.raw) {
		return Unloaded
	}
	return s.slots[h.raw.index].status
}

// GetError reports the load/decode error for a Failed slot, if any.
func (s *Storage[T]) GetError(h StrongHandle[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live(h.raw) {
		return nil
	}
	return s.slots[h.raw.index].err
}

// SetPersistent marks or unmarks h's slot as exempt from GC.
func (s *Storage[T]) SetPersistent(h StrongHandle[T], persistent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live(h.raw) {
		s.slots[h.raw.index].persistent = persistent
	}
}

// PollEvents drains the next pending lifecycle event for this asset
// type, FIFO, or reports false when none are pending.
func (s *Storage[T]) PollEvents() (Event[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return Event[T]{}, false
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, true
}

func (s *Storage[T]) unloadLocked(idx uint32) int64 {
	sl := &s.slots[idx]
	freed := sl.size
	delete(s.byKey, sl.key)
	sl.status = Unloaded
	sl.value = *new(T)
	sl.size = 0
	sl.persistent = false
	sl.gcCountdown = -1
	sl.generation++
	s.events = append(s.events, Event[T]{Kind: EventUnloaded, Handle: s.weakHandleFor(idx)})
	s.free = append(s.free, idx)
	return freed
}

// sweepOverBudget immediately unloads every eligible slot (ref_count
// == 0, Ready, not persistent) to bring bytes_used back under budget,
// per spec §4.10's over-budget GC branch. It stops as soon as the
// caller-reported running total no longer needs help, but the return
// value is always the total actually freed so the caller can track
// bytes_used precisely.
func (s *Storage[T]) sweepOverBudget(stillOver func() bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var freed int64
	for idx := range s.slots {
		if !stillOver() {
			break
		}
		sl := &s.slots[idx]
		if sl.status == Ready && sl.refCount == 0 && !sl.persistent {
			f := s.unloadLocked(uint32(idx))
			freed += f
		}
	}
	return freed
}

// tickGrace advances the grace-frame countdown for every eligible
// slot under budget (spec §4.10's normal-budget GC branch), unloading
// any whose countdown has elapsed and resetting the countdown for
// slots whose ref_count rose back above zero.
func (s *Storage[T]) tickGrace(graceFrames int32) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var freed int64
	for idx := range s.slots {
		sl := &s.slots[idx]
		if sl.status != Ready || sl.persistent {
			continue
		}
		if sl.refCount > 0 {
			sl.gcCountdown = -1
			continue
		}
		if sl.gcCountdown < 0 {
			sl.gcCountdown = graceFrames
		}
		if sl.gcCountdown <= 0 {
			freed += s.unloadLocked(uint32(idx))
			continue
		}
		sl.gcCountdown--
	}
	return freed
}

// Count reports the number of live (non-Unloaded) slots currently
// tracked, mostly useful for tests.
func (s *Storage[T]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.slots {
		if s.slots[i].status != Unloaded {
			n++
		}
	}
	return n
}
