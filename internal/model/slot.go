package model

import "time"

// Slot status values.  The status column is a display mirror: for
// locked it is derived from the lock store and is never used as the
// source of truth for mutual exclusion.  Reserved is the one final
// transition that the mirror owns (see service.BookingFinalizer).
const (
    SlotAvailable = "available"
    SlotOccupied  = "occupied"
    SlotReserved  = "reserved"
    SlotLocked    = "locked"
)

// Slot type values describing the physical space.
const (
    SlotTypeRegular     = "regular"
    SlotTypeCompact     = "compact"
    SlotTypeHandicapped = "handicapped"
    SlotTypeEV          = "ev"
)

// Slot describes one physical parking space belonging to a lot.
// Slots are uniquely identified by their lot, floor and slot number.
//
// Fields:
//  ID         – primary key identifier.
//  LotID      – lot to which this slot belongs.
//  SlotNumber – label of the slot within the lot (e.g. "A-12").
//  Floor      – floor number the slot is on.
//  SlotType   – one of regular, compact, handicapped, ev.
//  Status     – one of available, occupied, reserved, locked.
//  UpdatedAt  – last status change timestamp.
type Slot struct {
    ID         uint64    // slots.id
    LotID      uint64    // slots.lot_id
    SlotNumber string    // slots.slot_number
    Floor      uint32    // slots.floor
    SlotType   string    // slots.slot_type
    Status     string    // slots.status
    UpdatedAt  time.Time // slots.updated_at
}
