package lockstore

import (
    "context"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when its value matches the
// caller's holder.  GET and DEL must happen in one script: a plain
// GET-then-DEL would let a caller whose lock expired in between
// delete a lock freshly acquired by someone else.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// RedisStore implements Store on top of a shared Redis instance.
// Keys are namespaced with a prefix so the lock keyspace does not
// collide with the rate limiter's.
type RedisStore struct {
    rdb    *redis.Client
    prefix string
}

// NewRedisStore returns a RedisStore using the given client.  The
// client must be non-nil; config.NewRedisClient may return nil when
// Redis is unreachable at startup, and callers should fail hard in
// that case because the service cannot grant locks without it.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
    if rdb == nil {
        panic("nil redis client passed to NewRedisStore")
    }
    if prefix == "" {
        prefix = "lock"
    }
    return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(k string) string { return s.prefix + ":" + k }

// TryAcquire maps directly onto SET NX PX, which is atomic on the
// Redis side.
func (s *RedisStore) TryAcquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
    ok, err := s.rdb.SetNX(ctx, s.key(key), holder, ttl).Result()
    if err != nil {
        return false, fmt.Errorf("%w: setnx: %v", ErrUnavailable, err)
    }
    return ok, nil
}

// Release runs the compare-and-delete script.  It returns false for
// both "no entry" and "held by someone else"; neither case is an
// error at this layer.
func (s *RedisStore) Release(ctx context.Context, key, holder string) (bool, error) {
    n, err := releaseScript.Run(ctx, s.rdb, []string{s.key(key)}, holder).Int()
    if err != nil {
        return false, fmt.Errorf("%w: release script: %v", ErrUnavailable, err)
    }
    return n == 1, nil
}

// RemainingTTL uses PTTL.  Redis returns a negative duration when the
// key is missing or has no expiry; both mean no live lock.
func (s *RedisStore) RemainingTTL(ctx context.Context, key string) (time.Duration, bool, error) {
    d, err := s.rdb.PTTL(ctx, s.key(key)).Result()
    if err != nil {
        return 0, false, fmt.Errorf("%w: pttl: %v", ErrUnavailable, err)
    }
    if d <= 0 {
        return 0, false, nil
    }
    return d, true, nil
}
