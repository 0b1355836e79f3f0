package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parking-slot-reservation/internal/lockstore"
    "github.com/iliyamo/parking-slot-reservation/internal/repository"
    "github.com/iliyamo/parking-slot-reservation/internal/service"
)

// LockHandler exposes the slot locking protocol over HTTP.  All
// exclusion decisions happen in the lock manager; the handler only
// translates outcomes into status codes.  A store outage maps to
// 503, never to a denial, so clients don't mistake an outage for a
// taken slot.
type LockHandler struct {
    Manager *service.LockManager
}

// NewLockHandler constructs a LockHandler.
func NewLockHandler(m *service.LockManager) *LockHandler {
    if m == nil {
        panic("nil manager passed to NewLockHandler")
    }
    return &LockHandler{Manager: m}
}

// Acquire handles POST /v1/slots/:id/lock.  On success it returns
// the countdown the client should display; on denial the client is
// expected to pick another slot, not retry.
func (h *LockHandler) Acquire(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    slotID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
    }
    grant, err := h.Manager.AcquireLock(c.Request().Context(), slotID, holderID(userID))
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, echo.Map{
            "granted":            true,
            "expires_in_seconds": int(grant.ExpiresIn.Seconds()),
        })
    case errors.Is(err, service.ErrLockDenied), errors.Is(err, service.ErrSlotTaken):
        return c.JSON(http.StatusConflict, echo.Map{
            "granted": false,
            "error":   "slot is already booked or locked by someone else",
        })
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
    case errors.Is(err, lockstore.ErrUnavailable):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "lock service unavailable"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to acquire lock"})
    }
}

// Release handles DELETE /v1/slots/:id/lock.  It always succeeds at
// the protocol level: releasing a lock that expired or belongs to
// someone else is a no-op reported as released=false.
func (h *LockHandler) Release(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    slotID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
    }
    released, err := h.Manager.ReleaseLock(c.Request().Context(), slotID, holderID(userID))
    if err != nil {
        if errors.Is(err, lockstore.ErrUnavailable) {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "lock service unavailable"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release lock"})
    }
    return c.JSON(http.StatusOK, echo.Map{"released": released})
}

// Status handles GET /v1/slots/:id/lock.  Clients that lost their
// countdown state (page reload) use it to resync against the store's
// remaining TTL.
func (h *LockHandler) Status(c echo.Context) error {
    slotID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
    }
    st, err := h.Manager.QueryRemaining(c.Request().Context(), slotID)
    if err != nil {
        if errors.Is(err, lockstore.ErrUnavailable) {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "lock service unavailable"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to query lock"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "locked":       st.Locked,
        "seconds_left": st.SecondsLeft,
    })
}
