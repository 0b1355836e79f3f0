package service

// Pricing is a pure function of the lot's base rate, the hour of day
// and current occupancy.  It lives here so the booking finalizer and
// any quote endpoint share one implementation; it holds no state.

// surcharge thresholds for demand pricing
const (
    peakMultiplierPct    = 150 // morning and evening rush
    offPeakMultiplierPct = 80  // night hours
    highOccupancyPct     = 90  // lot nearly full
    occupancyBumpPct     = 120
)

var peakHours = map[int]bool{9: true, 10: true, 18: true, 19: true, 20: true}
var offPeakHours = map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true, 23: true}

// QuoteHourlyCents returns the effective hourly rate in cents for a
// booking starting at the given hour of day (0-23) while the lot is
// at the given occupancy percentage.
func QuoteHourlyCents(baseCents uint32, hour int, occupancyPct uint32) uint32 {
    pct := uint32(100)
    switch {
    case peakHours[hour]:
        pct = peakMultiplierPct
    case offPeakHours[hour]:
        pct = offPeakMultiplierPct
    }
    price := baseCents * pct / 100
    if occupancyPct >= highOccupancyPct {
        price = price * occupancyBumpPct / 100
    }
    return price
}
