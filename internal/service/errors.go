package service

import "errors"

// ErrLockDenied is returned when a slot's lock is already held by
// another holder (or by the same holder; re-acquire never refreshes
// a live lock). It is an expected, user-facing outcome: the client
// should pick another slot, not retry.
var ErrLockDenied = errors.New("slot is already locked by someone else")

// ErrSlotTaken is returned when the registry says the slot cannot be
// locked at all: it is reserved by a completed booking or physically
// occupied. Reserved takes precedence over the lock store here, the
// one place the mirror is authoritative.
var ErrSlotTaken = errors.New("slot is not available")

// ErrLockExpired is returned by Commit when no live lock for the
// slot is held by the caller anymore. The client must restart slot
// selection from scratch; no partial booking is created.
var ErrLockExpired = errors.New("slot no longer held")
