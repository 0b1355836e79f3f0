package service

import (
    "context"
    "errors"
    "log"
    "math"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/parking-slot-reservation/internal/lockstore"
    "github.com/iliyamo/parking-slot-reservation/internal/model"
    "github.com/iliyamo/parking-slot-reservation/internal/queue"
)

// ErrInvalidWindow is returned when the requested booking window is
// empty or inverted.
var ErrInvalidWindow = errors.New("end time must be after start time")

// LotReader is the slice of the lot repository the finalizer needs
// to price a booking.
type LotReader interface {
    GetByID(ctx context.Context, id uint64) (*model.Lot, error)
}

// BookingWriter persists a confirmed booking together with the
// slot's reserved transition in one transaction.
type BookingWriter interface {
    CreateConfirmed(ctx context.Context, b *model.Booking) error
}

// EventPublisher pushes booking events to the message broker.
// Failures are logged by the finalizer and never fail the booking.
type EventPublisher interface {
    PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// BookingDetails is what the customer submits while holding the lock.
type BookingDetails struct {
    StartTime     time.Time
    EndTime       time.Time
    VehicleNumber string
}

// BookingFinalizer converts a held lock into a durable booking
// exactly once.  The commit point is the atomic compare-and-delete
// of the lock entry: once one Commit consumes the lock, any
// concurrent Commit for the same slot finds it gone and fails with
// ErrLockExpired, and a fresh AcquireLock is blocked by the
// registry's reserved status.
type BookingFinalizer struct {
    store    lockstore.Store
    slots    SlotRegistry
    lots     LotReader
    bookings BookingWriter
    publish  EventPublisher // optional
    notify   StatusNotifier // optional
}

// NewBookingFinalizer constructs a BookingFinalizer.  store, slots,
// lots and bookings must be non-nil.
func NewBookingFinalizer(store lockstore.Store, slots SlotRegistry, lots LotReader,
    bookings BookingWriter, publish EventPublisher, notify StatusNotifier) *BookingFinalizer {
    if store == nil || slots == nil || lots == nil || bookings == nil {
        panic("nil dependency passed to NewBookingFinalizer")
    }
    return &BookingFinalizer{store: store, slots: slots, lots: lots,
        bookings: bookings, publish: publish, notify: notify}
}

// Commit finalizes a booking for the slot the caller has locked.
//
// Sequence: cheap registry pre-check, then the authoritative
// consume-the-lock step, then the booking transaction.  If the lock
// is gone at the consume step (expired, released, or already
// consumed by an earlier Commit) the call fails with ErrLockExpired
// and no partial booking exists.
func (f *BookingFinalizer) Commit(ctx context.Context, slotID uint64, userID uint64, holder string, details BookingDetails) (*model.Booking, error) {
    if !details.EndTime.After(details.StartTime) {
        return nil, ErrInvalidWindow
    }
    slot, err := f.slots.GetByID(ctx, slotID)
    if err != nil {
        return nil, err
    }
    if slot.Status == model.SlotReserved {
        // Someone else's booking already owns this slot; reserved is
        // final and outranks whatever the lock store says.
        return nil, ErrSlotTaken
    }
    lot, err := f.lots.GetByID(ctx, slot.LotID)
    if err != nil {
        return nil, err
    }
    occupied, err := f.slots.CountByStatus(ctx, lot.ID, model.SlotOccupied)
    if err != nil {
        return nil, err
    }
    occupancyPct := uint32(0)
    if lot.TotalSlots > 0 {
        occupancyPct = occupied * 100 / lot.TotalSlots
    }

    hours := uint32(math.Ceil(details.EndTime.Sub(details.StartTime).Hours()))
    if hours == 0 {
        hours = 1
    }
    hourly := QuoteHourlyCents(lot.PricePerHourCents, details.StartTime.UTC().Hour(), occupancyPct)

    // Consume the lock. This is the authoritative re-validation and
    // the point of no return: it only succeeds when a live entry for
    // this slot is still held by this caller.
    consumed, err := f.store.Release(ctx, slotKey(slotID), holder)
    if err != nil {
        return nil, err
    }
    if !consumed {
        return nil, ErrLockExpired
    }

    b := &model.Booking{
        Reference:      uuid.NewString(),
        UserID:         userID,
        SlotID:         slot.ID,
        LotID:          lot.ID,
        StartTime:      details.StartTime.UTC(),
        EndTime:        details.EndTime.UTC(),
        DurationHours:  hours,
        TotalCostCents: hourly * hours,
        VehicleNumber:  details.VehicleNumber,
        Status:         model.BookingConfirmed,
    }
    if err := f.bookings.CreateConfirmed(ctx, b); err != nil {
        // The lock is already consumed, so no booking exists and the
        // slot is immediately lockable again; the reconciliation
        // sweep returns the stale locked mirror to available.  The
        // customer is told to restart.
        return nil, err
    }

    if f.notify != nil {
        f.notify.NotifySlotStatus(lot.ID, slot.ID, slot.SlotNumber, model.SlotReserved)
    }
    if f.publish != nil {
        ev := queue.BookingConfirmedEvent{
            BookingID:      b.ID,
            Reference:      b.Reference,
            UserID:         b.UserID,
            SlotID:         b.SlotID,
            SlotNumber:     slot.SlotNumber,
            LotID:          lot.ID,
            LotName:        lot.Name,
            StartsAt:       b.StartTime.Format(time.RFC3339),
            EndsAt:         b.EndTime.Format(time.RFC3339),
            TotalCostCents: b.TotalCostCents,
            ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
        }
        if err := f.publish.PublishBookingConfirmed(ctx, ev); err != nil {
            log.Printf("booking-finalizer: publish confirmed event failed: %v", err)
        }
    }
    return b, nil
}
