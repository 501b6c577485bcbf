package system

import (
	"github.com/kilnforge/core/archetype"
	"github.com/kilnforge/core/entity"
)

// blockCapacity approximates "≈4 KiB blocks" from spec §4.4 in operation
// count rather than bytes: command payloads are heterogeneous Go
// closures (interface values), so they cannot be carved out of a raw
// byte arena the way the source's POD command structs can. A block
// holding ~64 such closures is the same order of magnitude as a 4 KiB
// block of small structs.
const blockCapacity = 64

// noCopy triggers `go vet`'s copylocks check if a CommandBuffer is ever
// copied by value, the idiomatic Go substitute for the move-constructor
// discipline spec §4.4/§9 calls for ("a move constructor must null the
// source's resource pointers") — Go has no move constructors, so
// CommandBuffer is instead never handled by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// resolver maps a SpawnToken to the real Entity it resolved to once its
// Spawn command has executed (spec §4.4).
type resolver func(SpawnToken) (entity.Entity, bool)

// operation is one deferred structural edit.
type operation func(w *entity.World, resolve resolver) error

type opBlock struct {
	ops  []operation
	next *opBlock
}

// SpawnToken is a per-buffer key for a deferred Spawn command. No entity
// exists for it before flush; it maps to the real Entity once the
// command executes.
type SpawnToken uint32

// CommandBuffer is a per-worker queue of deferred structural edits (spec
// §4.4). Always handled through a pointer; see noCopy.
type CommandBuffer struct {
	_ noCopy

	head, tail *opBlock
	count      int

	nextToken uint32
	resolved  map[SpawnToken]entity.Entity
}

// NewCommandBuffer returns an empty buffer.
func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{resolved: make(map[SpawnToken]entity.Entity)}
}

// Len reports the number of queued, unflushed operations.
func (cb *CommandBuffer) Len() int { return cb.count }

func (cb *CommandBuffer) push(op operation) {
	if cb.tail == nil || len(cb.tail.ops) >= blockCapacity {
		nb := &opBlock{ops: make([]operation, 0, blockCapacity)}
		if cb.tail != nil {
			cb.tail.next = nb
		} else {
			cb.head = nb
		}
		cb.tail = nb
	}
	cb.tail.ops = append(cb.tail.ops, op)
	cb.count++
}

// Spawn queues the creation of one entity carrying values, returning a
// token that resolves to the real Entity after this buffer is flushed
// (spec §4.4).
func (cb *CommandBuffer) Spawn(values ...entity.WithValue) SpawnToken {
	tok := SpawnToken(cb.nextToken)
	cb.nextToken++
	cb.push(func(w *entity.World, _ resolver) error {
		e := w.SpawnWith(values...)
		cb.resolved[tok] = e
		return nil
	})
	return tok
}

// Resolve looks up the Entity a SpawnToken resolved to; only valid after
// this buffer's commands have been flushed in the same batch the token
// was issued in (spec §4.4).
func (cb *CommandBuffer) Resolve(tok SpawnToken) (entity.Entity, bool) {
	e, ok := cb.resolved[tok]
	return e, ok
}

// Despawn queues a despawn of e.
func (cb *CommandBuffer) Despawn(e entity.Entity) {
	cb.push(func(w *entity.World, _ resolver) error {
		return w.Despawn(e)
	})
}

// Add queues AddComponent(e, c, v).
func Add[T any](cb *CommandBuffer, e entity.Entity, c archetype.Column[T], v T) {
	cb.push(func(w *entity.World, _ resolver) error {
		return entity.AddComponent(w, e, c, v)
	})
}

// Remove queues RemoveComponent(e, c).
func Remove[T any](cb *CommandBuffer, e entity.Entity, c archetype.Column[T]) {
	cb.push(func(w *entity.World, _ resolver) error {
		return entity.RemoveComponent(w, e, c)
	})
}

// Set queues SetComponent(e, c, v).
func Set[T any](cb *CommandBuffer, e entity.Entity, c archetype.Column[T], v T) {
	cb.push(func(w *entity.World, _ resolver) error {
		return entity.SetComponent(w, e, c, v)
	})
}

// flush applies every queued operation, in insertion order, then clears
// the buffer (spec §4.4/§5: "within a buffer in insertion order").
func (cb *CommandBuffer) flush(w *entity.World) error {
	resolve := func(tok SpawnToken) (entity.Entity, bool) {
		e, ok := cb.resolved[tok]
		return e, ok
	}
	for b := cb.head; b != nil; b = b.next {
		for _, op := range b.ops {
			if err := op(w, resolve); err != nil {
				return err
			}
		}
	}
	cb.Clear()
	return nil
}

// Clear drops every queued block, releasing their slices for collection
// (spec §4.4: "the buffer owns these blocks and drops them on clear").
// It does not clear resolved tokens, so callers can still Resolve()
// spawn tokens from the batch that was just flushed.
func (cb *CommandBuffer) Clear() {
	cb.head = nil
	cb.tail = nil
	cb.count = 0
}

// Commands aggregates per-worker command buffers (spec §4.4).
type Commands struct {
	buffers []*CommandBuffer
}

// NewCommands allocates one CommandBuffer per worker.
func NewCommands(workers int) *Commands {
	buffers := make([]*CommandBuffer, workers)
	for i := range buffers {
		buffers[i] = NewCommandBuffer()
	}
	return &Commands{buffers: buffers}
}

// For returns the buffer owned by worker index w. Access is lock-free for
// the common case because each worker only ever touches its own buffer
// (spec §4.4).
func (c *Commands) For(worker int) *CommandBuffer { return c.buffers[worker] }

// FlushAll applies every worker's buffer in worker-id order, and within
// each buffer in insertion order (spec §4.4/§5).
func (c *Commands) FlushAll(w *entity.World) error {
	for _, buf := range c.buffers {
		if err := buf.flush(w); err != nil {
			return err
		}
	}
	return nil
}
