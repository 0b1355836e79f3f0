package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parking-slot-reservation/internal/lockstore"
    "github.com/iliyamo/parking-slot-reservation/internal/model"
    "github.com/iliyamo/parking-slot-reservation/internal/repository"
    "github.com/iliyamo/parking-slot-reservation/internal/service"
)

// BookingHandler finalizes bookings and serves a customer's booking
// history.  Commit requires that the caller still holds the slot's
// lock; everything else is ordinary CRUD on rows the finalizer
// created.
type BookingHandler struct {
    Finalizer *service.BookingFinalizer
    Bookings  *repository.BookingRepo
    Slots     *repository.SlotRepo
}

// NewBookingHandler constructs a BookingHandler with the provided
// dependencies.  All must be non-nil.
func NewBookingHandler(f *service.BookingFinalizer, b *repository.BookingRepo, s *repository.SlotRepo) *BookingHandler {
    if f == nil || b == nil || s == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Finalizer: f, Bookings: b, Slots: s}
}

type createBookingRequest struct {
    StartTime     time.Time `json:"start_time" validate:"required"`
    EndTime       time.Time `json:"end_time" validate:"required"`
    VehicleNumber string    `json:"vehicle_number" validate:"required,max=16"`
}

type bookingResponse struct {
    ID             uint64 `json:"id"`
    Reference      string `json:"reference"`
    SlotID         uint64 `json:"slot_id"`
    LotID          uint64 `json:"lot_id"`
    StartTime      string `json:"start_time"`
    EndTime        string `json:"end_time"`
    DurationHours  uint32 `json:"duration_hours"`
    TotalCostCents uint32 `json:"total_cost_cents"`
    VehicleNumber  string `json:"vehicle_number"`
    Status         string `json:"status"`
}

func toBookingResponse(b *model.Booking) bookingResponse {
    return bookingResponse{
        ID:             b.ID,
        Reference:      b.Reference,
        SlotID:         b.SlotID,
        LotID:          b.LotID,
        StartTime:      b.StartTime.Format(time.RFC3339),
        EndTime:        b.EndTime.Format(time.RFC3339),
        DurationHours:  b.DurationHours,
        TotalCostCents: b.TotalCostCents,
        VehicleNumber:  b.VehicleNumber,
        Status:         b.Status,
    }
}

// Create handles POST /v1/slots/:id/book.  It commits the booking
// for the slot the caller has locked.  When the lock is gone
// (expired, released, or consumed by an earlier commit) the client
// gets a 400 telling it to restart slot selection.
func (h *BookingHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    slotID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
    }
    var body createBookingRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&body); err != nil {
        return err
    }
    booking, err := h.Finalizer.Commit(c.Request().Context(), slotID, userID, holderID(userID), service.BookingDetails{
        StartTime:     body.StartTime,
        EndTime:       body.EndTime,
        VehicleNumber: body.VehicleNumber,
    })
    switch {
    case err == nil:
        return c.JSON(http.StatusCreated, toBookingResponse(booking))
    case errors.Is(err, service.ErrLockExpired):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot no longer held"})
    case errors.Is(err, service.ErrSlotTaken):
        return c.JSON(http.StatusConflict, echo.Map{"error": "slot is no longer available"})
    case errors.Is(err, service.ErrInvalidWindow):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end time must be after start time"})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
    case errors.Is(err, lockstore.ErrUnavailable):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "lock service unavailable"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
    }
}

// ListMine handles GET /v1/my-bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookings, err := h.Bookings.ListByUser(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
    }
    items := make([]bookingResponse, 0, len(bookings))
    for i := range bookings {
        items = append(items, toBookingResponse(&bookings[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/bookings/:id for the owning user.
func (h *BookingHandler) Get(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := h.Bookings.GetByIDForUser(c.Request().Context(), id, userID)
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, echo.Map{"item": toBookingResponse(b)})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
    }
}

// Cancel handles PUT /v1/bookings/:id/cancel.  The booking row is
// marked cancelled and the slot is freed in the same transaction so
// a crash can't leave a reserved slot with no live booking.
func (h *BookingHandler) Cancel(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx := c.Request().Context()
    b, err := h.Bookings.GetByIDForUser(ctx, id, userID)
    switch {
    case err == nil:
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
    }
    tx, err := h.Slots.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := h.Bookings.CancelTx(ctx, tx, b.ID); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "booking can no longer be cancelled"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
    }
    // Free the slot only from reserved; an occupied slot stays as the
    // sensors report it.
    if _, err := h.Slots.SetStatusIfTx(ctx, tx, b.SlotID, model.SlotAvailable, model.SlotReserved); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update slot status"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled"})
}
