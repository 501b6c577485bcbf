package core

import (
	"runtime"

	"github.com/kilnforge/core/internal/wsqueue"
)

// Config holds the knobs Factory.NewRuntime needs to wire a thread
// pool, scheduler, and asset server together.
type Config struct {
	// Workers is the number of pool goroutines the scheduler dispatches
	// onto. Must be at least 1: Factory.NewRuntime rejects zero with
	// InvalidWorkerCountError. DefaultConfig sets runtime.NumCPU().
	Workers int

	// Idle is the backoff strategy idle pool workers use while waiting
	// for work (spec §4.8).
	Idle wsqueue.IdleStrategy

	// GlobalQueueCapacity bounds the pool's shared MPMC overflow queue.
	GlobalQueueCapacity int

	// AssetBudget caps total bytes_used across every asset storage.
	// Negative disables the budget (spec §4.10).
	AssetBudget int64

	// AssetGCGraceFrames is how many Runtime.Update passes a zero-ref
	// asset survives before being unloaded.
	AssetGCGraceFrames int32

	// AssetIOWorkers is the number of goroutines pumping async asset
	// loads. Zero disables async loading (Storage.Load falls back to a
	// synchronous read).
	AssetIOWorkers int

	// AssetIOConcurrency bounds how many asset reads may be in flight
	// at once across all AssetIOWorkers.
	AssetIOConcurrency int64
}

// DefaultConfig returns a Config sized to the host machine with no
// asset budget and immediate (zero grace frame) asset GC.
func DefaultConfig() Config {
	return Config{
		Workers:             runtime.NumCPU(),
		Idle:                wsqueue.Spin,
		GlobalQueueCapacity: 256,
		AssetBudget:         -1,
		AssetGCGraceFrames:  0,
		AssetIOWorkers:      2,
		AssetIOConcurrency:  4,
	}
}
