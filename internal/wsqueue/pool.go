package wsqueue

import (
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
)

// IdleStrategy selects how a worker backs off once its own deque, the
// global queue, and every steal attempt have come up empty (spec §4.8).
type IdleStrategy uint8

const (
	// Spin busy-loops, minimizing latency at the cost of a spinning CPU.
	Spin IdleStrategy = iota
	// Yield calls runtime.Gosched between attempts.
	Yield
	// Park blocks on a condition variable, woken by the next Submit.
	Park
)

// spinAttempts is how many consecutive empty rounds a worker tries
// before applying its configured idle strategy (spec §4.8: "for a
// configurable number of attempts").
const spinAttempts = 64

// Task is one unit of work submitted to a Pool. It receives the
// WorkerContext of whichever worker ends up running it — Go has no
// native thread-local storage, so a worker's index is threaded to task
// bodies explicitly instead (spec §4.8).
type Task func(wc *WorkerContext)

// WorkerContext is handed to a Task by the worker executing it. It is
// the only way to obtain a legitimate worker index, which is what makes
// SubmitTo's hint honorable: a caller holding a WorkerContext really is
// running on that worker's own goroutine.
type WorkerContext struct {
	pool  *Pool
	Index int
}

// SubmitTo pushes t as a single-producer push onto worker's own deque
// when worker equals wc.Index — the caller genuinely is that worker, so
// this is safe Chase-Lev single-producer use. Otherwise it falls back to
// the global queue, since an external goroutine (or a different worker)
// pushing directly onto someone else's deque would violate the
// single-producer invariant (spec §4.8's resolved open question).
func (wc *WorkerContext) SubmitTo(worker int, t Task) {
	if worker == wc.Index {
		wc.pool.pending.Add(1)
		wc.pool.workers[worker].Push(t)
		wc.pool.wake()
		return
	}
	wc.pool.Submit(t)
}

type workerDeque = Deque[Task]

// Pool is the work-stealing thread pool (spec §4.8): N workers, each
// owning a Deque[Task], draining their own deque first, then the global
// MPMC queue, then stealing from a random sibling.
type Pool struct {
	workers []*workerDeque
	global  *MPMCQueue[Task]
	idle    IdleStrategy

	pending atomic.Int64
	closed  atomic.Bool

	mu   sync.Mutex
	cond *sync.Cond
	wg   sync.WaitGroup
}

// NewPool builds a pool with the given worker count (default: hardware
// concurrency if <= 0) and a global queue of the given capacity (rounded
// up to a power of two).
func NewPool(workers int, idle IdleStrategy, globalCapacity int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if globalCapacity <= 0 {
		globalCapacity = 1024
	}
	p := &Pool{
		workers: make([]*workerDeque, workers),
		global:  NewMPMCQueue[Task](globalCapacity),
		idle:    idle,
	}
	p.cond = sync.NewCond(&p.mu)
	for i := range p.workers {
		p.workers[i] = NewDeque[Task]()
	}
	return p
}

// Workers reports how many worker goroutines this pool runs.
func (p *Pool) Workers() int { return len(p.workers) }

// Start launches one goroutine per worker. Must be called once before
// Submit/SubmitTo/WaitAll are used.
func (p *Pool) Start() {
	p.wg.Add(len(p.workers))
	for i := range p.workers {
		go p.run(i)
	}
}

// Close signals every worker to exit once its queues are drained, then
// waits for them to stop.
func (p *Pool) Close() {
	p.closed.Store(true)
	p.wake()
	p.wg.Wait()
	for _, d := range p.workers {
		d.Close()
	}
}

func (p *Pool) wake() {
	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Submit pushes t onto the global queue; the counter used by WaitAll is
// incremented before the push and decremented after the task runs (spec
// §4.8).
func (p *Pool) Submit(t Task) {
	p.pending.Add(1)
	for !p.global.Push(t) {
		runtime.Gosched()
	}
	p.wake()
}

// WaitAll blocks until the outstanding-task counter reaches zero,
// honoring the pool's configured IdleStrategy the same way a worker's
// own backoff does (spec §4.8): Spin busy-loops, Yield calls
// runtime.Gosched, and Park blocks on the pool's condition variable
// instead of busy-waiting, woken by exec once the counter hits zero or
// by the next Submit/SubmitTo/Close.
func (p *Pool) WaitAll() {
	for {
		if p.pending.Load() == 0 {
			return
		}
		switch p.idle {
		case Spin:
		case Yield:
			runtime.Gosched()
		case Park:
			p.mu.Lock()
			if p.pending.Load() != 0 {
				p.cond.Wait()
			}
			p.mu.Unlock()
		}
	}
}

func (p *Pool) run(idx int) {
	defer p.wg.Done()
	wc := &WorkerContext{pool: p, Index: idx}
	own := p.workers[idx]
	src := rand.New(rand.NewSource(int64(idx) + 1))
	misses := 0

	for {
		if t, ok := own.Pop(); ok {
			p.exec(t, wc)
			misses = 0
			continue
		}
		if t, ok := p.global.Pop(); ok {
			p.exec(t, wc)
			misses = 0
			continue
		}
		if t, ok := p.stealOne(idx, src); ok {
			p.exec(t, wc)
			misses = 0
			continue
		}
		if p.closed.Load() {
			return
		}
		misses++
		if misses < spinAttempts {
			continue
		}
		p.backoff()
		misses = 0
	}
}

func (p *Pool) stealOne(self int, src *rand.Rand) (Task, bool) {
	n := len(p.workers)
	if n <= 1 {
		var zero Task
		return zero, false
	}
	start := src.Intn(n)
	for i := 0; i < n; i++ {
		victim := (start + i) % n
		if victim == self {
			continue
		}
		if t, ok := p.workers[victim].Steal(); ok {
			return t, true
		}
	}
	var zero Task
	return zero, false
}

func (p *Pool) exec(t Task, wc *WorkerContext) {
	defer func() {
		if p.pending.Add(-1) == 0 {
			// Wake any WaitAll parked on the Park idle strategy; a
			// Submit/SubmitTo/Close wake is not guaranteed to follow.
			p.wake()
		}
	}()
	t(wc)
}

func (p *Pool) backoff() {
	switch p.idle {
	case Spin:
		return
	case Yield:
		runtime.Gosched()
	case Park:
		p.mu.Lock()
		if !p.closed.Load() {
			p.cond.Wait()
		}
		p.mu.Unlock()
	}
}
