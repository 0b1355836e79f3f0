package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parking-slot-reservation/internal/broadcast"
    "github.com/iliyamo/parking-slot-reservation/internal/model"
    "github.com/iliyamo/parking-slot-reservation/internal/repository"
)

// ParkingHandler serves the public browse endpoints for lots and
// slots, plus the sensor-facing status update.  Browse data is a
// read-only view; the slot status it shows for locked slots is the
// display mirror, which may trail the lock store briefly.
type ParkingHandler struct {
    Lots  *repository.LotRepo
    Slots *repository.SlotRepo
    Hub   *broadcast.Hub
}

// NewParkingHandler constructs a ParkingHandler.
func NewParkingHandler(lots *repository.LotRepo, slots *repository.SlotRepo, hub *broadcast.Hub) *ParkingHandler {
    if lots == nil || slots == nil {
        panic("nil repository passed to NewParkingHandler")
    }
    return &ParkingHandler{Lots: lots, Slots: slots, Hub: hub}
}

func (h *ParkingHandler) availability(c echo.Context, lot model.Lot) (model.LotAvailability, error) {
    ctx := c.Request().Context()
    available, err := h.Slots.CountByStatus(ctx, lot.ID, model.SlotAvailable)
    if err != nil {
        return model.LotAvailability{}, err
    }
    occupied, err := h.Slots.CountByStatus(ctx, lot.ID, model.SlotOccupied)
    if err != nil {
        return model.LotAvailability{}, err
    }
    pct := uint32(0)
    if lot.TotalSlots > 0 {
        pct = occupied * 100 / lot.TotalSlots
    }
    return model.LotAvailability{Lot: lot, AvailableSlots: available, OccupiedSlots: occupied, OccupancyPercent: pct}, nil
}

// ListLots handles GET /v1/lots with optional city and search query
// filters, returning each lot with live availability counts.
func (h *ParkingHandler) ListLots(c echo.Context) error {
    lots, err := h.Lots.List(c.Request().Context(), c.QueryParam("city"), c.QueryParam("search"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load lots"})
    }
    items := make([]model.LotAvailability, 0, len(lots))
    for _, lot := range lots {
        la, err := h.availability(c, lot)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load availability"})
        }
        items = append(items, la)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetLot handles GET /v1/lots/:id.
func (h *ParkingHandler) GetLot(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot id"})
    }
    lot, err := h.Lots.GetByID(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load lot"})
    }
    la, err := h.availability(c, *lot)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load availability"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": la})
}

// ListSlots handles GET /v1/lots/:id/slots, sorted by floor and slot
// number to match the lot view layout.
func (h *ParkingHandler) ListSlots(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot id"})
    }
    if _, err := h.Lots.GetByID(c.Request().Context(), id); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load lot"})
    }
    slots, err := h.Slots.ListByLot(c.Request().Context(), id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load slots"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": slots})
}

type slotStatusRequest struct {
    Status string `json:"status" validate:"required,oneof=available occupied"`
}

// UpdateSlotStatus handles PUT /v1/slots/:id/status for the sensor
// feed.  Sensors only report physical occupancy, so the update is
// constrained to the available/occupied pair and is conditional on
// the slot not being locked or reserved: the booking flow always
// outranks a sensor reading.
func (h *ParkingHandler) UpdateSlotStatus(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
    }
    var body slotStatusRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&body); err != nil {
        return err
    }
    ctx := c.Request().Context()
    slot, err := h.Slots.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load slot"})
    }
    updated, err := h.Slots.SetStatusIf(ctx, id, body.Status, model.SlotAvailable, model.SlotOccupied)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update slot"})
    }
    if !updated {
        return c.JSON(http.StatusConflict, echo.Map{"error": "slot is locked or reserved"})
    }
    if h.Hub != nil {
        h.Hub.NotifySlotStatus(slot.LotID, slot.ID, slot.SlotNumber, body.Status)
    }
    return c.JSON(http.StatusOK, echo.Map{"slot_id": id, "status": body.Status})
}
