package core

import (
	"sync"

	"github.com/kilnforge/core/asset"
	"github.com/kilnforge/core/entity"
	"github.com/kilnforge/core/internal/wsqueue"
	"github.com/kilnforge/core/scheduler"
	"github.com/kilnforge/core/system"
)

// Runtime bundles the thread pool, scheduler, resources, events, and
// asset server a game loop needs into the one object Factory.NewRuntime
// hands back.
type Runtime struct {
	Pool      *wsqueue.Pool
	Scheduler *scheduler.Scheduler
	Resources *system.Resources
	Events    *system.Events
	Assets    *asset.Server

	closeOnce sync.Once
}

func newRuntime(registry *system.Registry, cfg Config) (*Runtime, error) {
	if registry == nil {
		return nil, NilRegistryError{}
	}
	if cfg.Workers < 1 {
		return nil, InvalidWorkerCountError{Count: cfg.Workers}
	}

	pool := wsqueue.NewPool(cfg.Workers, cfg.Idle, cfg.GlobalQueueCapacity)
	pool.Start()

	resources := system.NewResources()
	events := system.NewEvents()
	sched := scheduler.New(registry, pool, resources, events)

	assetOpts := []asset.ServerOption{
		asset.WithBudget(cfg.AssetBudget),
		asset.WithGCGraceFrames(cfg.AssetGCGraceFrames),
	}
	if cfg.AssetIOWorkers > 0 {
		assetOpts = append(assetOpts, asset.WithIOScheduler(
			asset.NewIOScheduler(nil, cfg.AssetIOConcurrency, cfg.AssetIOWorkers)))
	}
	assets := asset.NewServer(assetOpts...)

	return &Runtime{
		Pool:      pool,
		Scheduler: sched,
		Resources: resources,
		Events:    events,
		Assets:    assets,
	}, nil
}

// Update runs one scheduler pass over world (spec §4.9 steps 1-8) and
// then one asset GC pass (spec §4.10).
func (r *Runtime) Update(world *entity.World) error {
	if err := r.Scheduler.Update(world); err != nil {
		return err
	}
	r.Assets.Update()
	return nil
}

// Close idempotently shuts down the thread pool and asset I/O
// scheduler. Safe to call more than once.
func (r *Runtime) Close() {
	r.closeOnce.Do(func() {
		r.Pool.Close()
		r.Assets.Shutdown()
	})
}
