package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/maisonvera/concierge/internal/domain/providers"
	"github.com/maisonvera/concierge/internal/infrastructure/observability"
)

// idempotencyEntry tracks one dedup key. done is closed when the first
// execution finishes; waiters then read result/err under the guard's lock.
type idempotencyEntry struct {
	done        chan struct{}
	result      *entities.ActionResult
	err         error
	completedAt time.Time
}

// IdempotencyGuard guarantees at-most-once execution per dedup key.
// Concurrent calls with the same key serialize: the first runs fn, later
// callers wait for it and receive the cached result flagged as duplicate.
// Failed executions are not retained, so a retry may run fn again.
type IdempotencyGuard struct {
	mu        sync.Mutex
	entries   map[string]*idempotencyEntry
	retention time.Duration
	cache     providers.CacheProvider
	now       func() time.Time
}

// NewIdempotencyGuard creates a guard with the given retention window. The
// optional cache persists completed results so replays survive restarts.
func NewIdempotencyGuard(retention time.Duration, cache providers.CacheProvider) *IdempotencyGuard {
	return &IdempotencyGuard{
		entries:   make(map[string]*idempotencyEntry),
		retention: retention,
		cache:     cache,
		now:       time.Now,
	}
}

// Execute runs fn at most once per key within the retention window. The
// returned bool is true when the result came from a previous execution.
func (g *IdempotencyGuard) Execute(ctx context.Context, key string, fn func(context.Context) (*entities.ActionResult, error)) (*entities.ActionResult, bool, error) {
	g.mu.Lock()

	if entry, ok := g.entries[key]; ok {
		g.mu.Unlock()
		select {
		case <-entry.done:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
		g.mu.Lock()
		result, err := entry.result, entry.err
		g.mu.Unlock()
		if err != nil {
			// The original execution failed and was evicted; the
			// caller may retry under the same key.
			return nil, false, err
		}
		return result, true, nil
	}

	entry := &idempotencyEntry{done: make(chan struct{})}
	g.entries[key] = entry
	g.mu.Unlock()

	// The persisted-result read runs outside the lock: same-key callers
	// wait on the reserved entry, other keys proceed.
	if persisted := g.lookupPersisted(ctx, key); persisted != nil {
		g.mu.Lock()
		entry.result = persisted
		entry.completedAt = g.now()
		close(entry.done)
		g.mu.Unlock()
		return persisted, true, nil
	}

	result, err := fn(ctx)

	g.mu.Lock()
	entry.result = result
	entry.err = err
	entry.completedAt = g.now()
	if err != nil {
		// Do not retain failures: a later retry must be able to run.
		delete(g.entries, key)
	}
	close(entry.done)
	g.mu.Unlock()

	if err == nil {
		g.persist(ctx, key, result)
	}
	return result, false, err
}

// Sweep evicts entries older than the retention window and returns how
// many were removed. Intended to run from a background ticker.
func (g *IdempotencyGuard) Sweep() int {
	cutoff := g.now().Add(-g.retention)

	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for key, entry := range g.entries {
		select {
		case <-entry.done:
		default:
			continue // still executing
		}
		if entry.completedAt.Before(cutoff) {
			delete(g.entries, key)
			removed++
		}
	}
	return removed
}

func (g *IdempotencyGuard) lookupPersisted(ctx context.Context, key string) *entities.ActionResult {
	if g.cache == nil {
		return nil
	}
	data, err := g.cache.Get(ctx, cacheKeyFor(key))
	if err != nil {
		return nil
	}
	var result entities.ActionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}

func (g *IdempotencyGuard) persist(ctx context.Context, key string, result *entities.ActionResult) {
	if g.cache == nil || result == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, cacheKeyFor(key), data, int(g.retention.Seconds())); err != nil {
		observability.GetLogger().Warn().Err(err).Msg("failed to persist idempotency result")
	}
}

func cacheKeyFor(key string) string {
	return "idempotency:" + key
}
