package asset

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// erasedStorage lets Server drive GC passes across every registered
// Storage[T] without Go generics allowing a single heterogeneous
// slice of Storage[T].
type erasedStorage interface {
	sweepOverBudget(stillOver func() bool) int64
	tickGrace(graceFrames int32) int64
}

// ServerOption configures a Server at construction time.
type ServerOption func(*Server)

// WithReader overrides the synchronous file reader used when no
// IOScheduler is attached.
func WithReader(r Reader) ServerOption {
	return func(s *Server) { s.reader = r }
}

// WithIOScheduler attaches an IOScheduler so Load calls dispatch
// asynchronously instead of blocking the caller.
func WithIOScheduler(io *IOScheduler) ServerOption {
	return func(s *Server) { s.io = io }
}

// WithBudget sets the initial byte budget (spec §4.10's set_budget).
func WithBudget(budget int64) ServerOption {
	return func(s *Server) { s.budget.Store(budget) }
}

// WithGCGraceFrames sets the initial grace-frame count (spec §4.10's
// set_gc_grace_frames).
func WithGCGraceFrames(frames int32) ServerOption {
	return func(s *Server) { s.gcGraceFrames.Store(frames) }
}

// Server aggregates one Storage[T] per asset type behind a single
// budget and GC policy, plus the optional IOScheduler that backs
// async loads (spec §4.10).
type Server struct {
	mu       sync.Mutex
	storages map[reflect.Type]erasedStorage

	reader Reader
	io     *IOScheduler

	bytesUsed     atomic.Int64
	budget        atomic.Int64
	gcGraceFrames atomic.Int32
}

// NewServer constructs a Server with no budget limit: the budget starts
// at -1 (unlimited) until WithBudget/SetBudget sets a ceiling. A zero
// budget is a real ceiling of zero bytes, not "unlimited".
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		storages: make(map[reflect.Type]erasedStorage),
		reader:   osReader{},
	}
	s.budget.Store(-1) // -1: unlimited until SetBudget is called
	s.gcGraceFrames.Store(0)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StorageFor returns the Storage[T] for asset type T, creating it on
// first use with the given loader and optional size function.
func StorageFor[T any](s *Server, loader Loader[T], sizeFn SizeFunc[T]) *Storage[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.storages[t]; ok {
		return existing.(*Storage[T])
	}
	st := newStorage[T](s, loader, sizeFn)
	s.storages[t] = st
	return st
}

func (s *Server) addBytesUsed(delta int64) { s.bytesUsed.Add(delta) }

// SetBudget sets the total byte budget every storage's accounting is
// measured against. A negative value disables the budget (no
// over-budget immediate-unload pass ever runs; grace-frame unloads
// still do).
func (s *Server) SetBudget(budget int64) { s.budget.Store(budget) }

// SetGCGraceFrames sets how many Update passes an eligible zero-ref
// slot survives before being unloaded.
func (s *Server) SetGCGraceFrames(frames int32) { s.gcGraceFrames.Store(frames) }

// BytesUsed reports the current aggregate size of all Ready slots
// across every storage.
func (s *Server) BytesUsed() int64 { return s.bytesUsed.Load() }

// Update runs one GC pass over every registered storage (spec
// §4.10): if bytes_used exceeds the budget, eligible slots are
// unloaded immediately until back under budget or candidates are
// exhausted; otherwise every eligible slot's grace countdown advances.
func (s *Server) Update() {
	s.mu.Lock()
	storages := make([]erasedStorage, 0, len(s.storages))
	for _, st := range s.storages {
		storages = append(storages, st)
	}
	s.mu.Unlock()

	budget := s.budget.Load()
	if budget >= 0 && s.bytesUsed.Load() > budget {
		for _, st := range storages {
			freed := st.sweepOverBudget(func() bool { return s.bytesUsed.Load() > budget })
			if freed != 0 {
				s.bytesUsed.Add(-freed)
			}
			if s.bytesUsed.Load() <= budget {
				break
			}
		}
		return
	}

	grace := s.gcGraceFrames.Load()
	for _, st := range storages {
		freed := st.tickGrace(grace)
		if freed != 0 {
			s.bytesUsed.Add(-freed)
		}
	}
}

// Shutdown idempotently tears down the attached IOScheduler, if any.
func (s *Server) Shutdown() {
	if s.io != nil {
		s.io.Shutdown()
	}
}
