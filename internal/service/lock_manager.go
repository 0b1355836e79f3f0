package service

import (
    "context"
    "log"
    "math"
    "strconv"
    "time"

    "github.com/iliyamo/parking-slot-reservation/internal/lockstore"
    "github.com/iliyamo/parking-slot-reservation/internal/model"
)

// LockTTL is the fixed lifetime of a slot lock.  A lock is never
// renewed: 300 seconds from the grant is a hard ceiling on the time
// a customer has to complete the booking form.
const LockTTL = 300 * time.Second

// SlotRegistry is the slice of the slot repository the lock services
// need.  The registry's status column is a display mirror; the lock
// store remains the source of truth for mutual exclusion.
type SlotRegistry interface {
    GetByID(ctx context.Context, id uint64) (*model.Slot, error)
    SetStatusIf(ctx context.Context, slotID uint64, to string, from ...string) (bool, error)
    CountByStatus(ctx context.Context, lotID uint64, status string) (uint32, error)
}

// StatusNotifier receives display status transitions for fan-out to
// live viewers.  Implementations must not block.
type StatusNotifier interface {
    NotifySlotStatus(lotID, slotID uint64, slotNumber, status string)
}

// LockGrant is the result of a successful acquisition.
type LockGrant struct {
    Granted   bool
    ExpiresIn time.Duration
}

// LockStatus reports whether a slot is currently locked and for how
// much longer.  Clients that lost their countdown (page reload) use
// it to resync.
type LockStatus struct {
    Locked      bool
    SecondsLeft int64
}

// LockManager exposes the domain locking protocol on top of the lock
// store.  It may be replicated freely: every exclusion decision is
// delegated to the store's atomic primitives, never to an in-process
// mutex.
type LockManager struct {
    store  lockstore.Store
    slots  SlotRegistry
    notify StatusNotifier // optional
}

// NewLockManager constructs a LockManager.  store and slots must be
// non-nil; notify may be nil when no live viewers are wired up.
func NewLockManager(store lockstore.Store, slots SlotRegistry, notify StatusNotifier) *LockManager {
    if store == nil || slots == nil {
        panic("nil dependency passed to NewLockManager")
    }
    return &LockManager{store: store, slots: slots, notify: notify}
}

func slotKey(slotID uint64) string { return strconv.FormatUint(slotID, 10) }

// AcquireLock grants the caller a 300-second exclusive claim on the
// slot, or fails with ErrSlotTaken (registry says reserved/occupied),
// ErrLockDenied (another live lock exists) or a store error.  Exactly
// one of any set of concurrent calls for the same slot succeeds; the
// rest are denied synchronously, never queued.
//
// On success the registry status is mirrored to locked best-effort: a
// mirror failure is logged but never rolls back the lock, which is
// authoritative on its own.
func (m *LockManager) AcquireLock(ctx context.Context, slotID uint64, holder string) (LockGrant, error) {
    slot, err := m.slots.GetByID(ctx, slotID)
    if err != nil {
        return LockGrant{}, err
    }
    // The reserved check is the one transition where the mirror
    // overrides the store: a committed booking must keep the slot
    // unavailable even after its lock entry expired.
    if slot.Status == model.SlotReserved || slot.Status == model.SlotOccupied {
        return LockGrant{}, ErrSlotTaken
    }
    ok, err := m.store.TryAcquire(ctx, slotKey(slotID), holder, LockTTL)
    if err != nil {
        // Store outages propagate as-is; retrying here could open a
        // double-grant window and a denial would wrongly mark the
        // slot as taken.
        return LockGrant{}, err
    }
    if !ok {
        return LockGrant{}, ErrLockDenied
    }
    if updated, err := m.slots.SetStatusIf(ctx, slotID, model.SlotLocked, model.SlotAvailable); err != nil {
        log.Printf("lock-manager: mirror update to locked failed for slot %d: %v", slotID, err)
    } else if updated && m.notify != nil {
        m.notify.NotifySlotStatus(slot.LotID, slot.ID, slot.SlotNumber, model.SlotLocked)
    }
    return LockGrant{Granted: true, ExpiresIn: LockTTL}, nil
}

// ReleaseLock gives the slot back.  It reports whether a lock was
// actually removed; a missing lock or a holder mismatch is a no-op
// returning false, keeping release idempotent and harmless to a
// newer holder.  The registry is reset to available only from
// locked, so a release racing a completed booking can never
// downgrade a reserved slot.
func (m *LockManager) ReleaseLock(ctx context.Context, slotID uint64, holder string) (bool, error) {
    released, err := m.store.Release(ctx, slotKey(slotID), holder)
    if err != nil {
        return false, err
    }
    if !released {
        return false, nil
    }
    if updated, err := m.slots.SetStatusIf(ctx, slotID, model.SlotAvailable, model.SlotLocked); err != nil {
        log.Printf("lock-manager: mirror reset to available failed for slot %d: %v", slotID, err)
    } else if updated && m.notify != nil {
        if slot, err := m.slots.GetByID(ctx, slotID); err == nil {
            m.notify.NotifySlotStatus(slot.LotID, slot.ID, slot.SlotNumber, model.SlotAvailable)
        }
    }
    return true, nil
}

// QueryRemaining reports the live lock state for a slot straight
// from the store.
func (m *LockManager) QueryRemaining(ctx context.Context, slotID uint64) (LockStatus, error) {
    d, live, err := m.store.RemainingTTL(ctx, slotKey(slotID))
    if err != nil {
        return LockStatus{}, err
    }
    if !live {
        return LockStatus{}, nil
    }
    return LockStatus{Locked: true, SecondsLeft: int64(math.Ceil(d.Seconds()))}, nil
}
