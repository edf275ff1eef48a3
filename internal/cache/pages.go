package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pageKeyPrefix     = "page_cache:"
	revalidateChannel = "revalidate"
)

// Revalidator marks cached renders of a logical path as stale. Calls are
// fire-and-forget: failures are logged, never surfaced.
type Revalidator interface {
	Revalidate(ctx context.Context, path string)
}

// Pages is a redis-backed response cache keyed by request path. A nil redis
// client degrades every method to a no-op, mirroring how the rest of the
// codebase treats an absent redis.
type Pages struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPages(rdb *redis.Client, ttl time.Duration) *Pages {
	return &Pages{rdb: rdb, ttl: ttl}
}

func (p *Pages) Get(ctx context.Context, path string) ([]byte, bool) {
	if p == nil || p.rdb == nil {
		return nil, false
	}

	payload, err := p.rdb.Get(ctx, pageKeyPrefix+path).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (p *Pages) Set(ctx context.Context, path string, payload []byte) {
	if p == nil || p.rdb == nil {
		return
	}

	if err := p.rdb.Set(ctx, pageKeyPrefix+path, payload, p.ttl).Err(); err != nil {
		log.Printf("page cache: failed to store %s: %v", path, err)
	}
}

// Revalidate clears the page cache and announces the logical path on the
// revalidate channel so external renderers can refresh their own copies.
// Cached entries are keyed by request URI while callers pass logical paths,
// and a mutation can change any cached listing, so eviction covers every
// cached page rather than a single key.
func (p *Pages) Revalidate(ctx context.Context, path string) {
	if p == nil || p.rdb == nil {
		return
	}

	iter := p.rdb.Scan(ctx, 0, pageKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("page cache: failed to scan keys for %s: %v", path, err)
	}
	if len(keys) > 0 {
		if err := p.rdb.Del(ctx, keys...).Err(); err != nil {
			log.Printf("page cache: failed to invalidate %s: %v", path, err)
		}
	}

	if err := p.rdb.Publish(ctx, revalidateChannel, path).Err(); err != nil {
		log.Printf("page cache: failed to publish revalidation of %s: %v", path, err)
	}
}
