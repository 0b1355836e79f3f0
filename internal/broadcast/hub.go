// Package broadcast fans slot status changes out to live viewers of
// a lot.  The hub is a pure observer of the lock subsystem: it only
// ever receives events, it never mutates slot or lock state.
package broadcast

import (
    "sync"
)

// LotSummary carries aggregate occupancy for a lot, attached to
// events produced by the occupancy sweeper.
type LotSummary struct {
    Available        uint32 `json:"available"`
    Occupied         uint32 `json:"occupied"`
    Total            uint32 `json:"total"`
    OccupancyPercent uint32 `json:"occupancy_percent"`
}

// SlotStatusEvent is delivered to every subscriber of the slot's lot
// when its display status changes.
type SlotStatusEvent struct {
    LotID      uint64      `json:"lot_id"`
    SlotID     uint64      `json:"slot_id"`
    SlotNumber string      `json:"slot_number,omitempty"`
    Status     string      `json:"status"`
    Summary    *LotSummary `json:"summary,omitempty"`
}

// subscriberBuffer bounds how many undelivered events a slow
// subscriber may accumulate before the hub starts dropping for it.
const subscriberBuffer = 32

// Hub maintains per-lot subscriber sets.  Delivery is best-effort:
// a subscriber that cannot keep up loses events rather than blocking
// the publisher.  Publish holds the hub mutex for the duration of a
// fan-out, so events for the same slot are enqueued in publish order
// on every subscriber channel.
type Hub struct {
    mu   sync.Mutex
    subs map[uint64]map[*Subscriber]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
    return &Hub{subs: make(map[uint64]map[*Subscriber]struct{})}
}

// Subscriber is one viewer's registration for a single lot.  Callers
// must Close it when done or the hub will keep delivering into its
// buffer forever.
type Subscriber struct {
    hub   *Hub
    lotID uint64
    ch    chan SlotStatusEvent
    once  sync.Once
}

// Subscribe registers a new viewer for the given lot.
func (h *Hub) Subscribe(lotID uint64) *Subscriber {
    s := &Subscriber{hub: h, lotID: lotID, ch: make(chan SlotStatusEvent, subscriberBuffer)}
    h.mu.Lock()
    defer h.mu.Unlock()
    set, ok := h.subs[lotID]
    if !ok {
        set = make(map[*Subscriber]struct{})
        h.subs[lotID] = set
    }
    set[s] = struct{}{}
    return s
}

// Events returns the channel delivering this subscriber's events.
// The channel is closed by Close.
func (s *Subscriber) Events() <-chan SlotStatusEvent { return s.ch }

// Close removes the subscriber from the hub and closes its channel.
// Safe to call more than once.
func (s *Subscriber) Close() {
    s.once.Do(func() {
        h := s.hub
        h.mu.Lock()
        if set, ok := h.subs[s.lotID]; ok {
            delete(set, s)
            if len(set) == 0 {
                delete(h.subs, s.lotID)
            }
        }
        h.mu.Unlock()
        close(s.ch)
    })
}

// Publish delivers the event to every current subscriber of its lot.
// Subscribers with a full buffer are skipped.
func (h *Hub) Publish(ev SlotStatusEvent) {
    h.mu.Lock()
    defer h.mu.Unlock()
    for s := range h.subs[ev.LotID] {
        select {
        case s.ch <- ev:
        default:
            // slow consumer, drop for this subscriber
        }
    }
}

// NotifySlotStatus publishes a bare status-change event without a
// summary.  It satisfies the notifier interface the lock manager and
// booking finalizer expect.
func (h *Hub) NotifySlotStatus(lotID, slotID uint64, slotNumber, status string) {
    h.Publish(SlotStatusEvent{LotID: lotID, SlotID: slotID, SlotNumber: slotNumber, Status: status})
}
