// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/toniewert/toniewert/internal/catalog"
	"github.com/toniewert/toniewert/internal/market"
	"github.com/toniewert/toniewert/internal/platform/apperr"
	"github.com/toniewert/toniewert/internal/platform/validate"
)

// CoordinatorOptions tune run sizing and pacing.
type CoordinatorOptions struct {
	// ItemDelay is the pause between entities inside a run, so a
	// catalog-wide run does not hammer the marketplaces.
	ItemDelay time.Duration

	// ProgressEvery controls how often run progress is persisted.
	ProgressEvery int
}

// inflightRun tracks one executing run. Waiters observe completion via
// done without being able to cancel the run; mu guards the mutating run
// record against concurrent status reads.
type inflightRun struct {
	mu   sync.Mutex
	run  *Run
	done chan struct{}
}

func (handle *inflightRun) update(mutate func(*Run)) {
	handle.mu.Lock()
	mutate(handle.run)
	handle.mu.Unlock()
}

func (handle *inflightRun) snapshot() *Run {
	handle.mu.Lock()
	defer handle.mu.Unlock()
	return handle.run.clone()
}

/*
Coordinator enforces single-flight refresh execution per scope.

Scope semantics: the empty scope means the whole catalog and conflicts
with every per-entity scope; a per-entity scope conflicts with itself
and with a catalog-wide run. The scope map is the only shared mutable
state; status reads always work on a cloned snapshot.

A run's writes (listings, run record, prune) are persisted before its
scope is released, so any run that starts afterwards observes them.
*/
type Coordinator struct {
	catalog *catalog.Service
	market  *market.Service
	repo    Repository
	opts    CoordinatorOptions
	logger  *slog.Logger

	mutex    sync.Mutex
	inflight map[string]*inflightRun
	lastRun  *Run
}

// NewCoordinator builds the refresh coordinator.
func NewCoordinator(
	catalogService *catalog.Service,
	marketService *market.Service,
	repo Repository,
	opts CoordinatorOptions,
	logger *slog.Logger,
) *Coordinator {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 10
	}
	return &Coordinator{
		catalog:  catalogService,
		market:   marketService,
		repo:     repo,
		opts:     opts,
		logger:   logger,
		inflight: make(map[string]*inflightRun),
	}
}

// # Triggering

/*
Trigger starts a refresh for the scope.

background=true detaches execution and returns the accepted run
immediately; background=false blocks until the run finishes. A
conflicting in-flight run yields apperr.Conflict either way — the
caller decides whether to retry, it is never retried here.

limit caps the number of entities in a catalog-wide run (0 = all).
*/
func (coordinator *Coordinator) Trigger(ctx context.Context, scope string, limit int, background bool) (*Run, error) {
	v := &validate.Validator{}
	if scope != "" {
		v.CatalogID("scope", scope)
	}
	if err := v.Range("limit", limit, 0, 10000).Err(); err != nil {
		return nil, err
	}

	handle, err := coordinator.acquire(scope)
	if err != nil {
		return nil, err
	}

	if background {
		// The run must survive the triggering request.
		detached := context.WithoutCancel(ctx)
		go coordinator.execute(detached, handle, limit)
		return handle.snapshot(), nil
	}

	coordinator.execute(ctx, handle, limit)
	return handle.snapshot(), nil
}

/*
RefreshEntity refreshes a single entity synchronously.

When a run for the same scope (or a catalog-wide run) is already in
flight, the caller waits for that shared run instead of starting its
own. The wait is cancellable through ctx, but cancelling the wait never
cancels the shared run other callers depend on.
*/
func (coordinator *Coordinator) RefreshEntity(ctx context.Context, catalogID string) error {
	handle, err := coordinator.acquire(catalogID)
	if err != nil {
		waiting := coordinator.inflightFor(catalogID)
		if waiting == nil {
			return err
		}
		select {
		case <-waiting.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	coordinator.execute(ctx, handle, 0)

	final := handle.snapshot()
	if final.Failed > 0 {
		return fmt.Errorf("refresh %s: %d of %d entities failed", catalogID, final.Failed, final.Total)
	}
	return nil
}

// acquire claims the scope or reports a conflict.
func (coordinator *Coordinator) acquire(scope string) (*inflightRun, error) {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if scope == "" {
		if len(coordinator.inflight) > 0 {
			return nil, apperr.Conflict("A refresh is already running")
		}
	} else {
		if _, catalogWide := coordinator.inflight[""]; catalogWide {
			return nil, apperr.Conflict("A catalog-wide refresh is already running")
		}
		if _, running := coordinator.inflight[scope]; running {
			return nil, apperr.Conflict("A refresh for this scope is already running")
		}
	}

	handle := &inflightRun{run: newRun(scope), done: make(chan struct{})}
	coordinator.inflight[scope] = handle
	return handle, nil
}

// inflightFor returns the run a waiter for the scope should observe.
func (coordinator *Coordinator) inflightFor(scope string) *inflightRun {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if handle, found := coordinator.inflight[scope]; found {
		return handle
	}
	return coordinator.inflight[""]
}

func (coordinator *Coordinator) release(handle *inflightRun) {
	final := handle.snapshot()

	coordinator.mutex.Lock()
	delete(coordinator.inflight, final.Scope)
	coordinator.lastRun = final
	coordinator.mutex.Unlock()

	close(handle.done)
}

// # Execution

func (coordinator *Coordinator) execute(ctx context.Context, handle *inflightRun, limit int) {
	// Persistence happens before the scope is released; see type doc.
	defer coordinator.release(handle)

	scope := handle.snapshot().Scope
	logger := coordinator.logger.With(
		slog.String("run_id", handle.snapshot().RunID), slog.String("scope", scope))
	logger.Info("refresh_run_started")

	targets, err := coordinator.targets(ctx, scope, limit)
	if err != nil {
		handle.update(func(run *Run) {
			run.Failed = 1
			run.Failures = append(run.Failures, fmt.Sprintf("load targets: %v", err))
			run.finish()
		})
		coordinator.persist(ctx, handle.snapshot(), logger)
		return
	}

	handle.update(func(run *Run) { run.Total = len(targets) })
	coordinator.persist(ctx, handle.snapshot(), logger)

	for index, target := range targets {
		if ctx.Err() != nil {
			handle.update(func(run *Run) {
				run.Failed++
				run.Failures = append(run.Failures, fmt.Sprintf("cancelled after %d entities", run.Processed))
			})
			break
		}

		saved, err := coordinator.market.CollectForEntity(ctx, target)
		handle.update(func(run *Run) {
			run.Processed++
			if err != nil {
				run.Failed++
				run.Failures = append(run.Failures, fmt.Sprintf("%s: %v", target.CatalogID, err))
			} else {
				run.Successful++
				run.SavedRows += saved
			}
		})
		if err != nil {
			logger.Warn("refresh_entity_failed",
				slog.String("catalog_id", target.CatalogID), slog.String("error", err.Error()))
		}

		if handle.snapshot().Processed%coordinator.opts.ProgressEvery == 0 {
			coordinator.persist(ctx, handle.snapshot(), logger)
		}

		if coordinator.opts.ItemDelay > 0 && index < len(targets)-1 {
			select {
			case <-time.After(coordinator.opts.ItemDelay):
			case <-ctx.Done():
			}
		}
	}

	if pruned, err := coordinator.market.Prune(ctx); err == nil {
		handle.update(func(run *Run) { run.PrunedRows = pruned })
	} else {
		logger.Warn("refresh_prune_failed", slog.String("error", err.Error()))
	}

	handle.update(func(run *Run) { run.finish() })

	final := handle.snapshot()
	coordinator.persist(ctx, final, logger)
	logger.Info("refresh_run_finished",
		slog.String("status", final.Status),
		slog.Int("successful", final.Successful),
		slog.Int("failed", final.Failed),
		slog.Int("saved_rows", final.SavedRows))
}

// targets resolves the scope into the entity list to refresh.
func (coordinator *Coordinator) targets(ctx context.Context, scope string, limit int) ([]market.Target, error) {
	if scope != "" {
		entity, err := coordinator.catalog.GetEntity(ctx, scope)
		if err != nil {
			return nil, err
		}
		return []market.Target{targetFromEntity(entity)}, nil
	}

	entities, err := coordinator.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(entities) {
		entities = entities[:limit]
	}

	targets := make([]market.Target, 0, len(entities))
	for _, entity := range entities {
		targets = append(targets, targetFromEntity(entity))
	}
	return targets, nil
}

func targetFromEntity(entity *catalog.Entity) market.Target {
	return market.Target{
		CatalogID: entity.ID,
		Title:     entity.Title,
		Series:    entity.Series,
		Aliases:   entity.Aliases,
	}
}

func (coordinator *Coordinator) persist(ctx context.Context, run *Run, logger *slog.Logger) {
	if err := coordinator.repo.UpsertRun(ctx, run); err != nil {
		logger.Warn("refresh_run_persist_failed", slog.String("error", err.Error()))
	}
}

// # Status

// StatusReport describes the coordinator's current activity: the
// running run, or idle with the last finished run attached.
type StatusReport struct {
	Status  string `json:"status"`
	Current *Run   `json:"current,omitempty"`
	Last    *Run   `json:"last,omitempty"`
}

func (coordinator *Coordinator) Status() *StatusReport {
	coordinator.mutex.Lock()
	running := make([]*inflightRun, 0, len(coordinator.inflight))
	catalogWide := coordinator.inflight[""]
	for _, handle := range coordinator.inflight {
		running = append(running, handle)
	}
	last := coordinator.lastRun
	coordinator.mutex.Unlock()

	if len(running) > 0 {
		handle := catalogWide
		if handle == nil {
			handle = running[0]
		}
		return &StatusReport{Status: StatusRunning, Current: handle.snapshot()}
	}

	report := &StatusReport{Status: StatusIdle}
	if last != nil {
		report.Last = last.clone()
	}
	return report
}

// Runs lists the persisted run history, newest first.
func (coordinator *Coordinator) Runs(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return coordinator.repo.ListRecent(ctx, limit)
}
