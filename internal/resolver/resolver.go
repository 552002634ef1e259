// Package resolver computes derived entity attributes behind a
// per-attribute memoization layer.
//
// Each attribute pairs a cache region with its own TTL: volatile values
// like vote scores expire in seconds, near-static ones like link domains
// in minutes. On a miss the attribute is computed from the primary
// column; when the column is unset (rows predating it) the value is
// backfilled from the legacy key/value metadata table and materialized
// into the column, once, idempotently.
package resolver

import (
	"context"
	"log/slog"
	"time"

	"phora/internal/cache"
	"phora/internal/database"

	"gorm.io/gorm"
)

// Attr describes one derived attribute: its cache key segment, the
// region it is memoized in, and how long a memoized value stays fresh.
type Attr struct {
	Name   string
	Region string
	TTL    time.Duration
}

// Attribute descriptors. TTLs follow how often each value changes:
// scores move with every vote, domains never move.
var (
	AttrScore        = Attr{Name: "score", Region: cache.RegionDefault, TTL: 5 * time.Second}
	AttrSticky       = Attr{Name: "sticky", Region: cache.RegionDefault, TTL: 30 * time.Second}
	AttrNSFW         = Attr{Name: "nsfw", Region: cache.RegionDefault, TTL: 30 * time.Second}
	AttrDeleted      = Attr{Name: "deleted", Region: cache.RegionDefault, TTL: 30 * time.Second}
	AttrThumbnail    = Attr{Name: "thumbnail", Region: cache.RegionShared, TTL: 300 * time.Second}
	AttrDomain       = Attr{Name: "domain", Region: cache.RegionShared, TTL: 300 * time.Second}
	AttrMedia        = Attr{Name: "media", Region: cache.RegionShared, TTL: 300 * time.Second}
	AttrAnnouncement = Attr{Name: "announcement", Region: cache.RegionShared, TTL: 600 * time.Second}
	AttrUserPref     = Attr{Name: "pref", Region: cache.RegionDefault, TTL: 20 * time.Second}
)

// Resolver resolves derived attributes for posts, subs and users.
type Resolver struct {
	db        *gorm.DB
	cache     *cache.Manager
	log       *slog.Logger
	dbTimeout time.Duration
}

// New creates a resolver. dbTimeout bounds every persistence call made
// while computing or backfilling an attribute.
func New(db *gorm.DB, cacheManager *cache.Manager, log *slog.Logger, dbTimeout time.Duration) *Resolver {
	return &Resolver{
		db:        db,
		cache:     cacheManager,
		log:       log,
		dbTimeout: dbTimeout,
	}
}

func (r *Resolver) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.dbTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.dbTimeout)
}

// memo is the cache-aside wrapper every attribute accessor goes
// through: look up {region}:{entity}:{pk}:{attr}:{arghash}, on a miss
// run compute (which must populate dest) and store the result with the
// attribute's TTL. compute runs under the bounded DB timeout; its
// errors are mapped to the storage taxonomy.
func (r *Resolver) memo(ctx context.Context, entity string, pk interface{}, attr Attr, dest any, compute func(context.Context) error, args ...interface{}) error {
	key := cache.Key(entity, pk, attr.Name, args...)
	if r.cache.GetJSON(ctx, attr.Region, key, dest) {
		return nil
	}

	cctx, cancel := r.bound(ctx)
	defer cancel()
	if err := compute(cctx); err != nil {
		return database.MapError(err)
	}

	r.cache.SetJSON(ctx, attr.Region, key, dest, attr.TTL)
	return nil
}

// InvalidateAttr evicts one memoized attribute of one entity.
func (r *Resolver) InvalidateAttr(ctx context.Context, entity string, pk interface{}, attr Attr, args ...interface{}) {
	r.cache.Invalidate(ctx, attr.Region, cache.Key(entity, pk, attr.Name, args...))
}
