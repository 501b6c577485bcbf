package asset

import (
	"container/heap"
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Priority orders pending I/O requests; lower values run first (spec
// §4.10).
type Priority uint8

const (
	Critical Priority = iota
	High
	Normal
	Low
)

// Reader performs the raw byte read an async or sync Load ultimately
// needs. The default osReader wraps os.ReadFile; tests and embedded
// asset sources can supply their own.
type Reader interface {
	ReadFile(path string) ([]byte, error)
}

type osReader struct{}

func (osReader) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

type ioRequest struct {
	id       uuid.UUID
	path     string
	priority Priority
	seq      uint64
	complete func(data []byte, err error)
	canceled atomic.Bool
}

// ioHeap is a container/heap.Interface ordering requests by priority
// then by submission order within a priority tier.
type ioHeap []*ioRequest

func (h ioHeap) Len() int            { return len(h) }
func (h ioHeap) Less(i, j int) bool  { return h.less(i, j) }
func (h ioHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *ioHeap) Push(x interface{}) { *h = append(*h, x.(*ioRequest)) }
func (h *ioHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
func (h ioHeap) less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

// IOScheduler pumps async asset loads through a priority heap across a
// fixed pool of workers, bounding concurrent in-flight reads with a
// weighted semaphore.
type IOScheduler struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   ioHeap
	pending map[uuid.UUID]*ioRequest
	nextSeq uint64

	sem    *semaphore.Weighted
	reader Reader
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewIOScheduler starts workers goroutines pulling from a shared
// priority queue, each read bounded by a semaphore of width
// concurrency. A nil reader defaults to os.ReadFile.
func NewIOScheduler(reader Reader, concurrency int64, workers int) *IOScheduler {
	if reader == nil {
		reader = osReader{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &IOScheduler{
		pending: make(map[uuid.UUID]*ioRequest),
		sem:     semaphore.NewWeighted(concurrency),
		reader:  reader,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.cond = sync.NewCond(&s.mu)
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.run()
	}
	return s
}

func (s *IOScheduler) submit(path string, priority Priority, complete func([]byte, error)) uuid.UUID {
	s.mu.Lock()
	req := &ioRequest{id: uuid.New(), path: path, priority: priority, seq: s.nextSeq, complete: complete}
	s.nextSeq++
	s.pending[req.id] = req
	heap.Push(&s.queue, req)
	s.cond.Signal()
	s.mu.Unlock()
	return req.id
}

// Cancel skips a request that has not yet been popped off the queue,
// or marks an in-flight request's completion to be dropped once its
// read finishes (spec §4.10).
func (s *IOScheduler) Cancel(id uuid.UUID) {
	s.mu.Lock()
	req, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if ok {
		req.canceled.Store(true)
	}
}

func (s *IOScheduler) run() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for s.queue.Len() == 0 && !s.closed.Load() {
			s.cond.Wait()
		}
		if s.queue.Len() == 0 && s.closed.Load() {
			s.mu.Unlock()
			return
		}
		req := heap.Pop(&s.queue).(*ioRequest)
		s.mu.Unlock()

		if req.canceled.Load() {
			continue
		}
		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			continue // scheduler shutting down; drop the completion
		}
		data, err := s.reader.ReadFile(req.path)
		s.sem.Release(1)
		s.mu.Lock()
		delete(s.pending, req.id)
		s.mu.Unlock()
		if req.canceled.Load() {
			continue
		}
		req.complete(data, err)
	}
}

// Shutdown stops every worker and waits for in-flight reads to drain.
// Safe to call more than once; only the first call does any work.
func (s *IOScheduler) Shutdown() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.cancel()
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
	s.wg.Wait()
}
