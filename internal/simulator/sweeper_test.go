package simulator

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/parking-slot-reservation/internal/broadcast"
	"github.com/iliyamo/parking-slot-reservation/internal/lockstore"
	"github.com/iliyamo/parking-slot-reservation/internal/model"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeLotSource struct {
	lots []model.Lot
}

func (f *fakeLotSource) List(_ context.Context, _, _ string) ([]model.Lot, error) {
	return f.lots, nil
}

type fakeSlots struct {
	mu    sync.Mutex
	slots map[uint64]model.Slot
	order []uint64
}

func newFakeSlots(slots ...model.Slot) *fakeSlots {
	f := &fakeSlots{slots: make(map[uint64]model.Slot, len(slots))}
	for _, s := range slots {
		f.slots[s.ID] = s
		f.order = append(f.order, s.ID)
	}
	return f
}

func (f *fakeSlots) ListByLot(_ context.Context, lotID uint64) ([]model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Slot
	for _, id := range f.order {
		if s := f.slots[id]; s.LotID == lotID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSlots) SetStatusIf(_ context.Context, slotID uint64, to string, from ...string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[slotID]
	if !ok {
		return false, nil
	}
	match := len(from) == 0
	for _, fr := range from {
		if s.Status == fr {
			match = true
			break
		}
	}
	if !match {
		return false, nil
	}
	s.Status = to
	f.slots[slotID] = s
	return true, nil
}

func (f *fakeSlots) CountByStatus(_ context.Context, lotID uint64, status string) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n uint32
	for _, s := range f.slots {
		if s.LotID == lotID && s.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeSlots) status(id uint64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slots[id].Status
}

func slot(id, lotID uint64, status string) model.Slot {
	return model.Slot{ID: id, LotID: lotID, SlotNumber: "A-1", Floor: 1,
		SlotType: model.SlotTypeRegular, Status: status}
}

func TestSweepable(t *testing.T) {
	cases := map[string]bool{
		model.SlotAvailable: true,
		model.SlotOccupied:  true,
		model.SlotLocked:    false,
		model.SlotReserved:  false,
	}
	for status, want := range cases {
		if got := Sweepable(slot(1, 1, status)); got != want {
			t.Errorf("Sweepable(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestSweeper_NeverTouchesHeldSlots(t *testing.T) {
	ctx := context.Background()
	slots := newFakeSlots(
		slot(1, 1, model.SlotLocked),
		slot(2, 1, model.SlotReserved),
		slot(3, 1, model.SlotLocked),
	)
	locks := lockstore.NewMemoryStore()
	_, _ = locks.TryAcquire(ctx, "1", "user:alice", time.Hour)
	_, _ = locks.TryAcquire(ctx, "3", "user:bob", time.Hour)
	lots := &fakeLotSource{lots: []model.Lot{{ID: 1, Name: "Central", TotalSlots: 3}}}
	w := NewSweeper(lots, slots, locks, broadcast.NewHub(), time.Second)
	w.rng = rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		if err := w.SweepOnce(ctx); err != nil {
			t.Fatalf("SweepOnce: %v", err)
		}
	}
	if got := slots.status(1); got != model.SlotLocked {
		t.Fatalf("slot 1 = %q, sweeper must not mutate locked slots", got)
	}
	if got := slots.status(2); got != model.SlotReserved {
		t.Fatalf("slot 2 = %q, sweeper must not mutate reserved slots", got)
	}
	if got := slots.status(3); got != model.SlotLocked {
		t.Fatalf("slot 3 = %q, sweeper must not mutate locked slots", got)
	}
}

func TestSweeper_FlipsStayWithinAvailableAndOccupied(t *testing.T) {
	ctx := context.Background()
	slots := newFakeSlots(
		slot(1, 1, model.SlotAvailable),
		slot(2, 1, model.SlotOccupied),
		slot(3, 1, model.SlotAvailable),
	)
	lots := &fakeLotSource{lots: []model.Lot{{ID: 1, Name: "Central", TotalSlots: 3}}}
	hub := broadcast.NewHub()
	w := NewSweeper(lots, slots, lockstore.NewMemoryStore(), hub, time.Second)
	w.rng = rand.New(rand.NewSource(7))

	sub := hub.Subscribe(1)
	defer sub.Close()

	for i := 0; i < 200; i++ {
		if err := w.SweepOnce(ctx); err != nil {
			t.Fatalf("SweepOnce: %v", err)
		}
	}
	for _, id := range []uint64{1, 2, 3} {
		got := slots.status(id)
		if got != model.SlotAvailable && got != model.SlotOccupied {
			t.Fatalf("slot %d = %q, only available and occupied are valid sweep results", id, got)
		}
	}

	sawSlotEvent := false
	sawSummary := false
	for {
		select {
		case ev := <-sub.Events():
			if ev.Summary != nil {
				sawSummary = true
				if ev.Summary.Available+ev.Summary.Occupied != 3 {
					t.Fatalf("summary %+v does not account for all 3 slots", ev.Summary)
				}
				continue
			}
			sawSlotEvent = true
			if ev.Status != model.SlotAvailable && ev.Status != model.SlotOccupied {
				t.Fatalf("event status = %q, want available or occupied", ev.Status)
			}
		default:
			if !sawSlotEvent || !sawSummary {
				t.Fatalf("sawSlotEvent=%v sawSummary=%v, want both after 200 sweeps", sawSlotEvent, sawSummary)
			}
			return
		}
	}
}

func TestSweeper_SkipsFlipWhenStatusMovedUnderneath(t *testing.T) {
	ctx := context.Background()
	slots := newFakeSlots(slot(1, 1, model.SlotAvailable))
	locks := lockstore.NewMemoryStore()
	lots := &fakeLotSource{lots: []model.Lot{{ID: 1, Name: "Central", TotalSlots: 1}}}
	w := NewSweeper(lots, slots, locks, broadcast.NewHub(), time.Second)
	w.rng = rand.New(rand.NewSource(3))
	// A lock lands between the sweeper's read and its update; the
	// conditional write must lose and leave the lock's status alone.
	w.allow = func(s model.Slot) bool {
		_, _ = locks.TryAcquire(ctx, "1", "user:alice", time.Hour)
		_, _ = slots.SetStatusIf(ctx, s.ID, model.SlotLocked, model.SlotAvailable)
		return Sweepable(s)
	}

	for i := 0; i < 50; i++ {
		if err := w.SweepOnce(ctx); err != nil {
			t.Fatalf("SweepOnce: %v", err)
		}
	}
	if got := slots.status(1); got != model.SlotLocked {
		t.Fatalf("slot 1 = %q, want locked preserved against a stale flip", got)
	}
}

func TestSweeper_HealsExpiredLockMirror(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	locks := lockstore.NewMemoryStore().WithClock(clock.Now)
	slots := newFakeSlots(slot(42, 1, model.SlotAvailable))
	lots := &fakeLotSource{lots: []model.Lot{{ID: 1, Name: "Central", TotalSlots: 1}}}
	hub := broadcast.NewHub()
	w := NewSweeper(lots, slots, locks, hub, time.Second)
	w.rng = rand.New(rand.NewSource(1))
	// Occupancy churn off; this test watches reconciliation only.
	w.allow = func(model.Slot) bool { return false }

	// A customer locks the slot, the mirror follows, and then the
	// customer walks away without releasing or booking.
	if ok, _ := locks.TryAcquire(ctx, "42", "user:alice", 300*time.Second); !ok {
		t.Fatal("expected acquire to succeed")
	}
	if _, err := slots.SetStatusIf(ctx, 42, model.SlotLocked, model.SlotAvailable); err != nil {
		t.Fatalf("mirror update: %v", err)
	}

	sub := hub.Subscribe(1)
	defer sub.Close()

	// While the lock is live the sweeper must leave the slot alone.
	clock.Advance(299 * time.Second)
	if err := w.SweepOnce(ctx); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if got := slots.status(42); got != model.SlotLocked {
		t.Fatalf("slot = %q before expiry, want locked", got)
	}

	// Once the entry expires the next sweep returns it to available.
	clock.Advance(2 * time.Second)
	if err := w.SweepOnce(ctx); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if got := slots.status(42); got != model.SlotAvailable {
		t.Fatalf("slot = %q after expiry, want available", got)
	}

	healed := false
	for len(sub.Events()) > 0 {
		ev := <-sub.Events()
		if ev.SlotID == 42 && ev.Status == model.SlotAvailable {
			healed = true
		}
	}
	if !healed {
		t.Fatal("expected an available event for the healed slot")
	}
}
