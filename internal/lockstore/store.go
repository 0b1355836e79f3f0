// Package lockstore provides the TTL key-value store backing slot
// locks.  The store is the single source of truth for lock existence:
// the slots table's status column is only a display mirror derived
// from it.  Implementations must give atomic acquire-if-absent and
// holder-checked delete so that mutual exclusion holds across
// replicated server processes without any in-process coordination.
package lockstore

import (
    "context"
    "errors"
    "time"
)

// ErrUnavailable is returned when the underlying store cannot be
// reached.  Callers must treat it as an infrastructure failure,
// never as "lock held by someone else": reporting an outage as a
// denial would wrongly block a free slot.
var ErrUnavailable = errors.New("lock store unavailable")

// Store is the minimal contract the slot lock manager needs.  All
// expiry is enforced by the store itself; an expired entry simply
// stops existing, no reaper process is involved.
type Store interface {
    // TryAcquire atomically creates the entry for key with the given
    // holder and TTL, only if no live entry exists.  It reports
    // whether the acquisition succeeded.  The check and the write
    // must be one atomic operation.
    TryAcquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)

    // Release deletes the entry for key only when it exists and its
    // recorded holder matches.  It reports whether a deletion
    // occurred.  A mismatched or absent entry is left untouched so a
    // stale caller can never delete a newer holder's lock.
    Release(ctx context.Context, key, holder string) (bool, error)

    // RemainingTTL returns the time until automatic expiry of the
    // entry for key.  The boolean is false when no live entry exists.
    RemainingTTL(ctx context.Context, key string) (time.Duration, bool, error)
}
