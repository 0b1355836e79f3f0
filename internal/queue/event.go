// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking is successfully
// committed. It contains enough information for downstream consumers
// to log, notify, or trigger analytics without querying the primary
// database.
type BookingConfirmedEvent struct {
    BookingID      uint64 `json:"booking_id"`
    Reference      string `json:"reference"`
    UserID         uint64 `json:"user_id"`
    SlotID         uint64 `json:"slot_id"`
    SlotNumber     string `json:"slot_number"`
    LotID          uint64 `json:"lot_id"`
    LotName        string `json:"lot_name"`
    StartsAt       string `json:"starts_at"`
    EndsAt         string `json:"ends_at"`
    TotalCostCents uint32 `json:"total_cost_cents"`
    ConfirmedAt    string `json:"confirmed_at"`
}
