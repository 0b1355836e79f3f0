package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parking-slot-reservation/internal/handler"
    "github.com/iliyamo/parking-slot-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance.  Currently it exposes only a health
// check, used by load balancers to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated browse and live-view
// endpoints.  Guests can inspect lots, slots, current lock state and
// subscribe to a lot's event stream before logging in; only the
// write operations require identity.
func RegisterPublic(e *echo.Echo, p *handler.ParkingHandler, l *handler.LockHandler, ev *handler.EventsHandler) {
    e.GET("/v1/lots", p.ListLots)
    e.GET("/v1/lots/:id", p.GetLot)
    e.GET("/v1/lots/:id/slots", p.ListSlots)
    // Lock state is readable without auth so a reloaded booking page
    // can resync its countdown before the token refresh completes.
    e.GET("/v1/slots/:id/lock", l.Status)
    e.GET("/v1/lots/:id/events", ev.Stream)
}

// RegisterCustomer registers customer-scoped endpoints under /v1.
// All routes require a valid JWT and the CUSTOMER role.  Customers
// can lock a slot, release it, commit a booking while holding the
// lock, and manage their own bookings.
func RegisterCustomer(e *echo.Echo, l *handler.LockHandler, b *handler.BookingHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("CUSTOMER"),
    )
    g.POST("/slots/:id/lock", l.Acquire)
    g.DELETE("/slots/:id/lock", l.Release)
    g.POST("/slots/:id/book", b.Create)
    g.GET("/my-bookings", b.ListMine)
    g.GET("/bookings/:id", b.Get)
    g.PUT("/bookings/:id/cancel", b.Cancel)
}

// RegisterSensor registers the occupancy feed endpoint.  The SENSOR
// role is granted to the IoT gateway; ADMIN is allowed through for
// manual corrections.
func RegisterSensor(e *echo.Echo, p *handler.ParkingHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("SENSOR", "ADMIN"),
    )
    g.PUT("/slots/:id/status", p.UpdateSlotStatus)
}
