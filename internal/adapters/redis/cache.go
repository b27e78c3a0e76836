package redisad

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"paraiso_verde/internal/adapters/observability"
)

// Cache is the catalog cache. Values are stored as JSON under a "paraiso:"
// prefix so the instance can be shared.
type Cache struct{ c *redis.Client }

const prefix = "paraiso:"

func New(addr, pass string, db int) *Cache {
	return NewFromClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewFromClient(c *redis.Client) *Cache { return &Cache{c: c} }

func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Cache) Close() error { return r.c.Close() }

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, prefix+key).Bytes()
	if err == redis.Nil {
		observability.ObserveCache(label(key), "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		// stale shape from an older deploy; treat as a miss
		_ = r.c.Del(ctx, prefix+key).Err()
		observability.ObserveCache(label(key), "miss")
		return false, nil
	}
	observability.ObserveCache(label(key), "hit")
	return true, nil
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache(label(key), "set")
	return r.c.Set(ctx, prefix+key, b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = prefix + k
		observability.ObserveCache(label(k), "del")
	}
	return r.c.Del(ctx, full...).Err()
}

// label keeps metric cardinality bounded: "stats:mes" -> "stats".
func label(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
