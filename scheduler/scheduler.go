// Package scheduler builds a dependency DAG from a system registry's
// access descriptors and dispatches ready systems onto a work-stealing
// thread pool, following spec §4.9 exactly.
package scheduler

import (
	"sync"
	"sync/atomic"

	"github.com/kilnforge/core/entity"
	"github.com/kilnforge/core/internal/wsqueue"
	"github.com/kilnforge/core/system"
)

// NodeState tracks one system's position in the current update (spec
// §4.9).
type NodeState int32

const (
	Pending NodeState = iota
	Ready
	Running
	Complete
)

type node struct {
	entry       system.Entry
	initialDeps int32
	remaining   atomic.Int32
	state       atomic.Int32
	outEdges    []int
}

// Scheduler owns the DAG derived from a system.Registry and the thread
// pool used to dispatch it (spec §4.9).
type Scheduler struct {
	registry  *system.Registry
	pool      *wsqueue.Pool
	resources *system.Resources
	events    *system.Events
	commands  *system.Commands

	mu           sync.Mutex
	nodes        []*node
	needsRebuild bool
}

// New builds a scheduler over registry, dispatching onto pool. pool must
// already be started (Pool.Start).
func New(registry *system.Registry, pool *wsqueue.Pool, resources *system.Resources, events *system.Events) *Scheduler {
	return &Scheduler{
		registry:     registry,
		pool:         pool,
		resources:    resources,
		events:       events,
		commands:     system.NewCommands(pool.Workers()),
		needsRebuild: true,
	}
}

// Invalidate marks the scheduler's DAG stale; the next Update rebuilds it
// before dispatching (spec §4.9: "any structural change to the system
// set... marks the scheduler needs_rebuild"). Call this after any
// Registry.Register/Remove/SetEnabled.
func (s *Scheduler) Invalidate() {
	s.mu.Lock()
	s.needsRebuild = true
	s.mu.Unlock()
}

// build constructs one node per enabled system, in registration order,
// and adds an edge A→B for every ordered pair where B was registered
// after A and their access descriptors conflict (spec §4.9). Because
// edges only ever point from an earlier index to a later one, the graph
// is acyclic by construction — no separate cycle check is needed.
func (s *Scheduler) build() {
	entries := s.registry.EnabledInOrder()
	nodes := make([]*node, len(entries))
	for i, e := range entries {
		nodes[i] = &node{entry: e}
	}
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if nodes[i].entry.Desc.Access.Conflicts(nodes[j].entry.Desc.Access) {
				nodes[i].outEdges = append(nodes[i].outEdges, j)
				nodes[j].initialDeps++
			}
		}
	}
	s.nodes = nodes
	s.needsRebuild = false
}

// Update runs exactly spec §4.9 steps 1-8: reset nodes, seed roots,
// dispatch ready systems onto the pool, wait for completion, flush
// commands, swap events, advance the tick.
func (s *Scheduler) Update(world *entity.World) error {
	s.mu.Lock()
	if s.needsRebuild {
		s.build()
	}
	nodes := s.nodes
	s.mu.Unlock()

	for _, n := range nodes {
		n.state.Store(int32(Pending))
		n.remaining.Store(n.initialDeps)
	}

	tick := world.CurrentTick()
	var errOnce sync.Once
	var firstErr error

	var dispatch func(i int)
	dispatch = func(i int) {
		n := nodes[i]
		n.state.Store(int32(Ready))
		s.pool.Submit(func(wc *wsqueue.WorkerContext) {
			n.state.Store(int32(Running))
			ctx := &system.Context{
				World:       world,
				Resources:   s.resources,
				Commands:    s.commands.For(wc.Index),
				Tick:        tick,
				WorkerIndex: wc.Index,
			}
			if err := n.entry.Desc.Exec(ctx); err != nil {
				errOnce.Do(func() { firstErr = err })
			}
			n.state.Store(int32(Complete))
			for _, succ := range n.outEdges {
				sn := nodes[succ]
				if sn.remaining.Add(-1) == 0 {
					dispatch(succ)
				}
			}
		})
	}

	for i, n := range nodes {
		if n.initialDeps == 0 {
			dispatch(i)
		}
	}
	s.pool.WaitAll()

	if firstErr != nil {
		return firstErr
	}
	if err := s.commands.FlushAll(world); err != nil {
		return err
	}
	s.events.SwapAll()
	world.AdvanceTick()
	return nil
}

// Commands exposes the per-worker command buffers this scheduler flushes
// each update, so systems registered outside a running Update (e.g. in
// tests) can still queue structural edits through the same buffers.
func (s *Scheduler) Commands() *system.Commands { return s.commands }

// NodeCount reports how many systems are in the current DAG, rebuilding
// first if stale. Mostly useful for tests and diagnostics.
func (s *Scheduler) NodeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.needsRebuild {
		s.build()
	}
	return len(s.nodes)
}
