package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"phora/internal/observability"
)

// Region names. The default region lives in process memory; the shared
// region lives in Redis and is visible across processes.
const (
	RegionDefault = "default"
	RegionShared  = "shared"
)

// Region is a named cache configuration unit: a backend plus the TTL
// applied when a caller does not override it.
type Region struct {
	Name    string
	Backend Backend
	TTL     time.Duration
}

// Manager routes get/set/invalidate calls to named regions. It is
// constructed once and injected into whatever needs caching; there is
// no package-level registry.
type Manager struct {
	regions map[string]Region
	timeout time.Duration
	log     *slog.Logger
}

// NewManager builds a manager over the given regions. timeout bounds
// every backend call; on expiry reads degrade to misses.
func NewManager(log *slog.Logger, timeout time.Duration, regions ...Region) *Manager {
	m := &Manager{
		regions: make(map[string]Region, len(regions)),
		timeout: timeout,
		log:     log,
	}
	for _, r := range regions {
		m.regions[r.Name] = r
	}
	return m
}

// NewDefaultManager wires the standard two-region setup: an in-process
// LRU "default" region and a Redis-backed "shared" region. redisBackend
// may wrap a nil client when Redis is down.
func NewDefaultManager(log *slog.Logger, timeout time.Duration, localSize int, redisBackend *RedisBackend) (*Manager, error) {
	local, err := NewLocalBackend(localSize)
	if err != nil {
		return nil, err
	}
	return NewManager(log, timeout,
		Region{Name: RegionDefault, Backend: local, TTL: 30 * time.Second},
		Region{Name: RegionShared, Backend: redisBackend, TTL: 5 * time.Minute},
	), nil
}

func (m *Manager) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}

// Get returns the raw cached bytes for key in region. Any backend error
// is treated as a miss; the caller recomputes from persistence.
func (m *Manager) Get(ctx context.Context, region, key string) ([]byte, bool) {
	r, ok := m.regions[region]
	if !ok {
		return nil, false
	}
	ctx, cancel := m.bound(ctx)
	defer cancel()

	val, found, err := r.Backend.Get(ctx, region+":"+key)
	if err != nil {
		observability.CacheLookups.WithLabelValues(region, "error").Inc()
		m.log.DebugContext(ctx, "cache read degraded to miss",
			slog.String("region", region), slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	if !found {
		observability.CacheLookups.WithLabelValues(region, "miss").Inc()
		return nil, false
	}
	observability.CacheLookups.WithLabelValues(region, "hit").Inc()
	return val, true
}

// GetJSON reads key from region and unmarshals into dest, reporting
// whether a fresh value was found.
func (m *Manager) GetJSON(ctx context.Context, region, key string, dest any) bool {
	raw, found := m.Get(ctx, region, key)
	if !found {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// Corrupt entry: drop it and recompute.
		m.Invalidate(ctx, region, key)
		return false
	}
	return true
}

// SetJSON marshals v and stores it under key in region. ttl <= 0 uses
// the region default. Failures are logged, never raised.
func (m *Manager) SetJSON(ctx context.Context, region, key string, v any, ttl time.Duration) {
	r, ok := m.regions[region]
	if !ok {
		return
	}
	if ttl <= 0 {
		ttl = r.TTL
	}
	raw, err := json.Marshal(v)
	if err != nil {
		m.log.WarnContext(ctx, "cache marshal failed",
			slog.String("region", region), slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	ctx, cancel := m.bound(ctx)
	defer cancel()
	if err := r.Backend.Set(ctx, region+":"+key, raw, ttl); err != nil {
		m.log.WarnContext(ctx, "cache write failed",
			slog.String("region", region), slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Invalidate removes a single key from a region. Failures are logged,
// never raised.
func (m *Manager) Invalidate(ctx context.Context, region, key string) {
	r, ok := m.regions[region]
	if !ok {
		return
	}
	ctx, cancel := m.bound(ctx)
	defer cancel()
	if err := r.Backend.Delete(ctx, region+":"+key); err != nil {
		m.log.WarnContext(ctx, "cache invalidation failed",
			slog.String("region", region), slog.String("key", key), slog.String("error", err.Error()))
	}
}

// InvalidateEntity evicts every cached attribute of one entity instance
// from every region. Called by the write hooks so the writer's own
// subsequent reads always observe fresh state.
func (m *Manager) InvalidateEntity(ctx context.Context, entity string, pk interface{}) {
	prefix := EntityPrefix(entity, pk)
	for name, r := range m.regions {
		bctx, cancel := m.bound(ctx)
		if err := r.Backend.DeletePrefix(bctx, name+":"+prefix); err != nil {
			m.log.WarnContext(ctx, "cache entity invalidation failed",
				slog.String("region", name), slog.String("prefix", prefix), slog.String("error", err.Error()))
		}
		cancel()
	}
}

// Aside is the cache-aside helper: read key from region into dest, on a
// miss run fetch (which must populate dest) and store the result with
// ttl. fetch errors propagate; cache errors do not.
func (m *Manager) Aside(ctx context.Context, region, key string, dest any, ttl time.Duration, fetch func() error) error {
	if m.GetJSON(ctx, region, key, dest) {
		return nil
	}
	if err := fetch(); err != nil {
		return err
	}
	m.SetJSON(ctx, region, key, dest, ttl)
	return nil
}
