package model

import "time"

// Lot describes a parking facility containing a fixed number of
// slots.  Lots are provisioned by operators and never change their
// slot count at runtime.  Prices are stored in cents per hour; the
// pricing service applies time-of-day multipliers on top of this
// base rate.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – display name of the lot.
//  Location          – street address or landmark.
//  City              – city the lot belongs to.
//  TotalSlots        – number of slots provisioned for this lot.
//  PricePerHourCents – base hourly rate in cents.
//  Lat, Lng          – geographic coordinates.
//  CreatedAt         – creation timestamp.
type Lot struct {
    ID                uint64    // lots.id
    Name              string    // lots.name
    Location          string    // lots.location
    City              string    // lots.city
    TotalSlots        uint32    // lots.total_slots
    PricePerHourCents uint32    // lots.price_per_hour_cents
    Lat               float64   // lots.lat
    Lng               float64   // lots.lng
    CreatedAt         time.Time // lots.created_at
}

// LotAvailability augments a Lot with live occupancy counts derived
// from the slots table.  It is a read model for the browse endpoints.
type LotAvailability struct {
    Lot
    AvailableSlots   uint32 // count of slots with status available
    OccupiedSlots    uint32 // count of slots with status occupied
    OccupancyPercent uint32 // occupied / total, rounded
}
