package model

import "time"

// Booking status values.
const (
    BookingPending   = "pending"
    BookingConfirmed = "confirmed"
    BookingActive    = "active"
    BookingCompleted = "completed"
    BookingCancelled = "cancelled"
)

// Booking records a confirmed reservation of a single slot for a
// time window.  Bookings are created exclusively by the booking
// finalizer, which requires proof that the caller holds the slot's
// lock at commit time.
//
// Fields:
//  ID             – primary key identifier.
//  Reference      – opaque booking reference returned to the client.
//  UserID         – user who made the booking.
//  SlotID         – slot being reserved.
//  LotID          – lot the slot belongs to (denormalized for listing).
//  StartTime      – start of the reservation window.
//  EndTime        – end of the reservation window.
//  DurationHours  – billed duration, rounded up to whole hours.
//  TotalCostCents – total price in cents.
//  VehicleNumber  – licence plate supplied by the customer.
//  Status         – one of pending, confirmed, active, completed, cancelled.
//  CreatedAt      – creation timestamp.
type Booking struct {
    ID             uint64    // bookings.id
    Reference      string    // bookings.reference
    UserID         uint64    // bookings.user_id
    SlotID         uint64    // bookings.slot_id
    LotID          uint64    // bookings.lot_id
    StartTime      time.Time // bookings.start_time
    EndTime        time.Time // bookings.end_time
    DurationHours  uint32    // bookings.duration_hours
    TotalCostCents uint32    // bookings.total_cost_cents
    VehicleNumber  string    // bookings.vehicle_number
    Status         string    // bookings.status
    CreatedAt      time.Time // bookings.created_at
}
