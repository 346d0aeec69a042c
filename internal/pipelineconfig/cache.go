package pipelineconfig

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"review-backend/internal/pipeline"
	"review-backend/internal/shared/telemetry"
)

// Cache wraps a Repo with a TTL-bounded immutable snapshot per run type.
// Readers always see a fully-built snapshot, never a partial update; a
// refresh builds the replacement aside and swaps it atomically. On refresh
// failure the stale snapshot is served, so a flaky configuration store
// degrades to stale-but-consistent reads.
type Cache struct {
	Repo Repo
	TTL  time.Duration

	mu        sync.Mutex // serializes refreshes only, not reads
	snapshots atomic.Value
}

type snapshotMap map[string]snapshotEntry

type snapshotEntry struct {
	steps     []pipeline.StepConfig
	refreshed time.Time
}

// NewCache constructs a Cache with the given TTL. A non-positive TTL disables
// caching and every read hits the repo.
func NewCache(repo Repo, ttl time.Duration) *Cache {
	c := &Cache{Repo: repo, TTL: ttl}
	c.snapshots.Store(snapshotMap{})
	return c
}

// ListEnabledSteps implements pipeline.ConfigSource.
func (c *Cache) ListEnabledSteps(ctx context.Context, runType string) ([]pipeline.StepConfig, error) {
	if c.TTL <= 0 {
		return c.load(ctx, runType)
	}

	snaps := c.snapshots.Load().(snapshotMap)
	if entry, ok := snaps[runType]; ok && time.Since(entry.refreshed) < c.TTL {
		return entry.steps, nil
	}
	return c.refresh(ctx, runType)
}

// Invalidate drops all cached snapshots; the next read rebuilds them.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots.Store(snapshotMap{})
}

func (c *Cache) refresh(ctx context.Context, runType string) ([]pipeline.StepConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another refresh may have won the lock first.
	snaps := c.snapshots.Load().(snapshotMap)
	if entry, ok := snaps[runType]; ok && time.Since(entry.refreshed) < c.TTL {
		return entry.steps, nil
	}

	steps, err := c.load(ctx, runType)
	if err != nil {
		if entry, ok := snaps[runType]; ok {
			telemetry.Warn("pipeline.config.refresh_failed", map[string]any{
				"run_type": runType,
				"error":    err.Error(),
			})
			return entry.steps, nil
		}
		return nil, err
	}

	next := make(snapshotMap, len(snaps)+1)
	for k, v := range snaps {
		next[k] = v
	}
	next[runType] = snapshotEntry{steps: steps, refreshed: time.Now()}
	c.snapshots.Store(next)
	return steps, nil
}

func (c *Cache) load(ctx context.Context, runType string) ([]pipeline.StepConfig, error) {
	rows, err := c.Repo.ListEnabled(ctx, runType)
	if err != nil {
		return nil, err
	}
	steps := make([]pipeline.StepConfig, len(rows))
	for i, row := range rows {
		steps[i] = pipeline.StepConfig{
			Key:    row.StepKey,
			Order:  row.Order,
			Params: pipeline.Params(row.Params),
		}
	}
	return steps, nil
}

var _ pipeline.ConfigSource = (*Cache)(nil)
