package handler

import (
    "encoding/json"
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parking-slot-reservation/internal/broadcast"
    "github.com/iliyamo/parking-slot-reservation/internal/repository"
)

// EventsHandler streams slot status changes to viewers of a lot over
// Server-Sent Events.  Each connection subscribes to the broadcast
// hub for exactly one lot and is torn down when the client
// disconnects.
type EventsHandler struct {
    Hub  *broadcast.Hub
    Lots *repository.LotRepo
}

// NewEventsHandler constructs an EventsHandler.
func NewEventsHandler(hub *broadcast.Hub, lots *repository.LotRepo) *EventsHandler {
    if hub == nil || lots == nil {
        panic("nil dependency passed to NewEventsHandler")
    }
    return &EventsHandler{Hub: hub, Lots: lots}
}

// Stream handles GET /v1/lots/:id/events.  Events are delivered
// best-effort: a viewer that falls behind misses intermediate
// updates but never sees updates for one slot out of order.
func (h *EventsHandler) Stream(c echo.Context) error {
    lotID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot id"})
    }
    if _, err := h.Lots.GetByID(c.Request().Context(), lotID); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load lot"})
    }

    res := c.Response()
    res.Header().Set(echo.HeaderContentType, "text/event-stream")
    res.Header().Set("Cache-Control", "no-cache")
    res.Header().Set("Connection", "keep-alive")
    res.WriteHeader(http.StatusOK)
    res.Flush()

    sub := h.Hub.Subscribe(lotID)
    defer sub.Close()

    ctx := c.Request().Context()
    for {
        select {
        case <-ctx.Done():
            return nil
        case ev, open := <-sub.Events():
            if !open {
                return nil
            }
            payload, err := json.Marshal(ev)
            if err != nil {
                continue
            }
            if _, err := fmt.Fprintf(res, "event: slot-status\ndata: %s\n\n", payload); err != nil {
                return nil
            }
            res.Flush()
        }
    }
}
