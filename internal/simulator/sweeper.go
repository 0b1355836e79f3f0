// Package simulator models the IoT occupancy feed during development:
// a periodic sweep that flips a few free slots between available and
// occupied per lot, the way real sensor churn would.  The same sweep
// reconciles the display mirror: a slot shown as locked whose store
// entry has expired is returned to available, so an abandoned lock
// never leaves the slot dark.  Beyond that reconciliation the sweeper
// must never touch a slot that is locked or reserved.
package simulator

import (
    "context"
    "log"
    "math/rand"
    "strconv"
    "time"

    "github.com/iliyamo/parking-slot-reservation/internal/broadcast"
    "github.com/iliyamo/parking-slot-reservation/internal/model"
)

// LotSource lists the lots to sweep.
type LotSource interface {
    List(ctx context.Context, city, search string) ([]model.Lot, error)
}

// LockProber is the read-only slice of the lock store the sweeper
// needs to tell a live lock from a stale mirror entry.
type LockProber interface {
    RemainingTTL(ctx context.Context, key string) (time.Duration, bool, error)
}

// SlotRegistry is the slice of the slot repository the sweeper needs.
type SlotRegistry interface {
    ListByLot(ctx context.Context, lotID uint64) ([]model.Slot, error)
    SetStatusIf(ctx context.Context, slotID uint64, to string, from ...string) (bool, error)
    CountByStatus(ctx context.Context, lotID uint64, status string) (uint32, error)
}

// Sweepable reports whether the sweeper is allowed to mutate the
// slot.  Locked and reserved slots belong to the booking flow and
// are excluded as a rule, not by scattered status comparisons.
func Sweepable(s model.Slot) bool {
    return s.Status == model.SlotAvailable || s.Status == model.SlotOccupied
}

// Sweeper drives the periodic occupancy simulation.  The exclusion
// predicate is injected so tests can assert it is consulted for
// every mutation.
type Sweeper struct {
    lots     LotSource
    slots    SlotRegistry
    locks    LockProber
    hub      *broadcast.Hub
    interval time.Duration
    allow    func(model.Slot) bool
    rng      *rand.Rand
}

// NewSweeper constructs a Sweeper publishing into hub every interval.
// All dependencies must be non-nil.
func NewSweeper(lots LotSource, slots SlotRegistry, locks LockProber, hub *broadcast.Hub, interval time.Duration) *Sweeper {
    if lots == nil || slots == nil || locks == nil || hub == nil {
        panic("nil dependency passed to NewSweeper")
    }
    return &Sweeper{
        lots:     lots,
        slots:    slots,
        locks:    locks,
        hub:      hub,
        interval: interval,
        allow:    Sweepable,
        rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
    }
}

// Run sweeps until the context is cancelled.  Intended to be started
// as a goroutine from main.
func (w *Sweeper) Run(ctx context.Context) {
    t := time.NewTicker(w.interval)
    defer t.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-t.C:
            if err := w.SweepOnce(ctx); err != nil {
                log.Printf("occupancy-sweeper: sweep failed: %v", err)
            }
        }
    }
}

// SweepOnce runs a single sweep over all lots, flipping one to three
// eligible slots per lot and publishing a summary event when
// anything changed.
func (w *Sweeper) SweepOnce(ctx context.Context) error {
    lots, err := w.lots.List(ctx, "", "")
    if err != nil {
        return err
    }
    for _, lot := range lots {
        if err := w.sweepLot(ctx, lot); err != nil {
            return err
        }
    }
    return nil
}

func (w *Sweeper) sweepLot(ctx context.Context, lot model.Lot) error {
    slots, err := w.slots.ListByLot(ctx, lot.ID)
    if err != nil {
        return err
    }
    if len(slots) == 0 {
        return nil
    }
    changed := false
    // Reconcile before simulating: a locked row whose store entry
    // expired is a leftover from an abandoned flow, not a held slot.
    for _, s := range slots {
        if s.Status != model.SlotLocked {
            continue
        }
        _, live, err := w.locks.RemainingTTL(ctx, strconv.FormatUint(s.ID, 10))
        if err != nil {
            log.Printf("occupancy-sweeper: lock probe failed for slot %d: %v", s.ID, err)
            continue
        }
        if live {
            continue
        }
        updated, err := w.slots.SetStatusIf(ctx, s.ID, model.SlotAvailable, model.SlotLocked)
        if err != nil {
            return err
        }
        if !updated {
            continue
        }
        changed = true
        w.hub.Publish(broadcast.SlotStatusEvent{
            LotID:      lot.ID,
            SlotID:     s.ID,
            SlotNumber: s.SlotNumber,
            Status:     model.SlotAvailable,
        })
    }
    n := w.rng.Intn(3) + 1
    for i := 0; i < n; i++ {
        s := slots[w.rng.Intn(len(slots))]
        if !w.allow(s) {
            continue
        }
        next := model.SlotOccupied
        flipChance := 0.3 // mostly stay available
        if s.Status == model.SlotOccupied {
            next = model.SlotAvailable
            flipChance = 0.6 // cars leave more often than they arrive
        }
        if w.rng.Float64() > flipChance {
            continue
        }
        // Conditional on the current status: a lock granted between
        // the list and this update wins and the flip is skipped.
        updated, err := w.slots.SetStatusIf(ctx, s.ID, next, s.Status)
        if err != nil {
            return err
        }
        if !updated {
            continue
        }
        changed = true
        w.hub.Publish(broadcast.SlotStatusEvent{
            LotID:      lot.ID,
            SlotID:     s.ID,
            SlotNumber: s.SlotNumber,
            Status:     next,
        })
    }
    if changed {
        available, err := w.slots.CountByStatus(ctx, lot.ID, model.SlotAvailable)
        if err != nil {
            return err
        }
        occupied, err := w.slots.CountByStatus(ctx, lot.ID, model.SlotOccupied)
        if err != nil {
            return err
        }
        pct := uint32(0)
        if lot.TotalSlots > 0 {
            pct = occupied * 100 / lot.TotalSlots
        }
        w.hub.Publish(broadcast.SlotStatusEvent{
            LotID: lot.ID,
            Summary: &broadcast.LotSummary{
                Available:        available,
                Occupied:         occupied,
                Total:            lot.TotalSlots,
                OccupancyPercent: pct,
            },
        })
    }
    return nil
}
