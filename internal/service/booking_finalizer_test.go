package service

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/iliyamo/parking-slot-reservation/internal/lockstore"
    "github.com/iliyamo/parking-slot-reservation/internal/model"
    "github.com/iliyamo/parking-slot-reservation/internal/queue"
)

type fakeLots struct {
    lots map[uint64]model.Lot
}

func (f *fakeLots) GetByID(_ context.Context, id uint64) (*model.Lot, error) {
    l, ok := f.lots[id]
    if !ok {
        return nil, errors.New("lot not found")
    }
    cp := l
    return &cp, nil
}

// fakeBookingWriter mimics the transactional repository: it stores
// the booking and flips the registry slot to reserved as one step.
type fakeBookingWriter struct {
    mu      sync.Mutex
    reg     *fakeRegistry
    fail    bool
    created []model.Booking
}

func (w *fakeBookingWriter) CreateConfirmed(ctx context.Context, b *model.Booking) error {
    w.mu.Lock()
    defer w.mu.Unlock()
    if w.fail {
        return errors.New("database unavailable")
    }
    b.ID = uint64(len(w.created) + 1)
    w.created = append(w.created, *b)
    _, _ = w.reg.SetStatusIf(ctx, b.SlotID, model.SlotReserved)
    return nil
}

type fakePublisher struct {
    mu     sync.Mutex
    events []queue.BookingConfirmedEvent
}

func (p *fakePublisher) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
    return nil
}

func testLot(id uint64, totalSlots, baseCents uint32) model.Lot {
    return model.Lot{ID: id, Name: "Central Lot", City: "Jaipur",
        TotalSlots: totalSlots, PricePerHourCents: baseCents}
}

// window returns a same-day booking window starting at the given
// hour, hours long.
func window(hour, hours int) (time.Time, time.Time) {
    start := time.Date(2025, 6, 1, hour, 0, 0, 0, time.UTC)
    return start, start.Add(time.Duration(hours) * time.Hour)
}

func newFinalizerFixture(slot model.Slot, lot model.Lot) (*BookingFinalizer, *LockManager, *lockstore.MemoryStore, *fakeRegistry, *fakeBookingWriter, *fakePublisher, *testClock) {
    clock := newTestClock()
    store := lockstore.NewMemoryStore().WithClock(clock.Now)
    reg := newFakeRegistry(slot)
    lots := &fakeLots{lots: map[uint64]model.Lot{lot.ID: lot}}
    writer := &fakeBookingWriter{reg: reg}
    pub := &fakePublisher{}
    notify := &fakeNotifier{}
    f := NewBookingFinalizer(store, reg, lots, writer, pub, notify)
    m := NewLockManager(store, reg, notify)
    return f, m, store, reg, writer, pub, clock
}

func TestCommit_CreatesConfirmedBooking(t *testing.T) {
    ctx := context.Background()
    f, m, store, reg, writer, pub, _ := newFinalizerFixture(availableSlot(7, 1), testLot(1, 10, 1000))

    if _, err := m.AcquireLock(ctx, 7, "user:3"); err != nil {
        t.Fatalf("acquire: %v", err)
    }
    start, end := window(12, 2) // normal hours, empty lot
    b, err := f.Commit(ctx, 7, 3, "user:3", BookingDetails{StartTime: start, EndTime: end, VehicleNumber: "RJ14AB1234"})
    if err != nil {
        t.Fatalf("Commit: %v", err)
    }
    if b.Status != model.BookingConfirmed {
        t.Fatalf("status = %q, want confirmed", b.Status)
    }
    if b.Reference == "" {
        t.Fatal("booking must carry a reference")
    }
    if b.DurationHours != 2 || b.TotalCostCents != 2000 {
        t.Fatalf("duration=%d cost=%d, want 2h at 1000c/h", b.DurationHours, b.TotalCostCents)
    }
    if got := reg.status(7); got != model.SlotReserved {
        t.Fatalf("slot status = %q, want reserved", got)
    }
    if _, live, _ := store.RemainingTTL(ctx, "7"); live {
        t.Fatal("lock entry must be consumed by the commit")
    }
    if len(writer.created) != 1 {
        t.Fatalf("bookings created = %d, want 1", len(writer.created))
    }
    if len(pub.events) != 1 || pub.events[0].Reference != b.Reference {
        t.Fatalf("published events = %+v, want one for %s", pub.events, b.Reference)
    }
}

func TestCommit_PeakHourPricing(t *testing.T) {
    ctx := context.Background()
    f, m, _, _, _, _, _ := newFinalizerFixture(availableSlot(7, 1), testLot(1, 10, 1000))

    _, _ = m.AcquireLock(ctx, 7, "user:3")
    start, end := window(9, 1) // morning rush
    b, err := f.Commit(ctx, 7, 3, "user:3", BookingDetails{StartTime: start, EndTime: end, VehicleNumber: "RJ14AB1234"})
    if err != nil {
        t.Fatalf("Commit: %v", err)
    }
    if b.TotalCostCents != 1500 {
        t.Fatalf("cost = %d, want 1500 (1.5x peak)", b.TotalCostCents)
    }
}

func TestCommit_FailsAfterExpiry(t *testing.T) {
    ctx := context.Background()
    f, m, _, _, writer, _, clock := newFinalizerFixture(availableSlot(7, 1), testLot(1, 10, 1000))

    _, _ = m.AcquireLock(ctx, 7, "user:3")
    clock.Advance(301 * time.Second)

    start, end := window(12, 1)
    _, err := f.Commit(ctx, 7, 3, "user:3", BookingDetails{StartTime: start, EndTime: end, VehicleNumber: "RJ14AB1234"})
    if !errors.Is(err, ErrLockExpired) {
        t.Fatalf("err = %v, want ErrLockExpired", err)
    }
    if len(writer.created) != 0 {
        t.Fatal("no partial booking may exist after an expired commit")
    }
}

func TestCommit_ExactlyOnce(t *testing.T) {
    ctx := context.Background()
    f, m, _, _, writer, _, _ := newFinalizerFixture(availableSlot(7, 1), testLot(1, 10, 1000))

    _, _ = m.AcquireLock(ctx, 7, "user:3")
    start, end := window(12, 1)
    details := BookingDetails{StartTime: start, EndTime: end, VehicleNumber: "RJ14AB1234"}

    if _, err := f.Commit(ctx, 7, 3, "user:3", details); err != nil {
        t.Fatalf("first commit: %v", err)
    }
    _, err := f.Commit(ctx, 7, 3, "user:3", details)
    if !errors.Is(err, ErrSlotTaken) && !errors.Is(err, ErrLockExpired) {
        t.Fatalf("second commit: err = %v, want slot taken or lock expired", err)
    }
    if len(writer.created) != 1 {
        t.Fatalf("bookings created = %d, want exactly 1", len(writer.created))
    }
}

func TestCommit_ReservedBlocksFreshAcquire(t *testing.T) {
    ctx := context.Background()
    f, m, store, _, _, _, _ := newFinalizerFixture(availableSlot(7, 1), testLot(1, 10, 1000))

    if _, err := m.AcquireLock(ctx, 7, "user:carol"); err != nil {
        t.Fatalf("carol acquire: %v", err)
    }
    start, end := window(12, 1)
    if _, err := f.Commit(ctx, 7, 30, "user:carol", BookingDetails{StartTime: start, EndTime: end, VehicleNumber: "RJ14XY9999"}); err != nil {
        t.Fatalf("carol commit: %v", err)
    }
    // The lock entry is gone, but the registry's reserved status
    // outranks the store for this one transition.
    if _, live, _ := store.RemainingTTL(ctx, "7"); live {
        t.Fatal("lock entry should have been consumed")
    }
    _, err := m.AcquireLock(ctx, 7, "user:dave")
    if !errors.Is(err, ErrSlotTaken) {
        t.Fatalf("dave: err = %v, want ErrSlotTaken", err)
    }
}

func TestCommit_HighOccupancySurcharge(t *testing.T) {
    ctx := context.Background()
    // 9 of 10 slots occupied puts the lot at the surcharge threshold.
    slots := []model.Slot{availableSlot(7, 1)}
    for i := uint64(0); i < 9; i++ {
        s := availableSlot(100+i, 1)
        s.Status = model.SlotOccupied
        slots = append(slots, s)
    }
    clock := newTestClock()
    store := lockstore.NewMemoryStore().WithClock(clock.Now)
    reg := newFakeRegistry(slots...)
    lots := &fakeLots{lots: map[uint64]model.Lot{1: testLot(1, 10, 1000)}}
    writer := &fakeBookingWriter{reg: reg}
    f := NewBookingFinalizer(store, reg, lots, writer, nil, nil)
    m := NewLockManager(store, reg, nil)

    _, _ = m.AcquireLock(ctx, 7, "user:3")
    start, end := window(12, 1)
    b, err := f.Commit(ctx, 7, 3, "user:3", BookingDetails{StartTime: start, EndTime: end, VehicleNumber: "RJ14AB1234"})
    if err != nil {
        t.Fatalf("Commit: %v", err)
    }
    if b.TotalCostCents != 1200 {
        t.Fatalf("cost = %d, want 1200 (occupancy surcharge)", b.TotalCostCents)
    }
}

func TestCommit_RejectsInvalidWindow(t *testing.T) {
    ctx := context.Background()
    f, m, _, _, _, _, _ := newFinalizerFixture(availableSlot(7, 1), testLot(1, 10, 1000))

    _, _ = m.AcquireLock(ctx, 7, "user:3")
    start, _ := window(12, 1)
    _, err := f.Commit(ctx, 7, 3, "user:3", BookingDetails{StartTime: start, EndTime: start, VehicleNumber: "RJ14AB1234"})
    if !errors.Is(err, ErrInvalidWindow) {
        t.Fatalf("err = %v, want ErrInvalidWindow", err)
    }
}

func TestCommit_PartialHourRoundsUp(t *testing.T) {
    ctx := context.Background()
    f, m, _, _, _, _, _ := newFinalizerFixture(availableSlot(7, 1), testLot(1, 10, 1000))

    _, _ = m.AcquireLock(ctx, 7, "user:3")
    start, _ := window(12, 1)
    end := start.Add(90 * time.Minute)
    b, err := f.Commit(ctx, 7, 3, "user:3", BookingDetails{StartTime: start, EndTime: end, VehicleNumber: "RJ14AB1234"})
    if err != nil {
        t.Fatalf("Commit: %v", err)
    }
    if b.DurationHours != 2 || b.TotalCostCents != 2000 {
        t.Fatalf("duration=%d cost=%d, want 90min billed as 2h", b.DurationHours, b.TotalCostCents)
    }
}
