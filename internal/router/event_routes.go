package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/handler"
)

// RegisterEvents maps /v1/events.  Reads go through the Redis cache.
func RegisterEvents(g *echo.Group, ev *handler.EventHandler, b *handler.BookingHandler) {
	g.GET("/events", ev.List)
	g.POST("/events", ev.Create)
	g.GET("/events/:id", ev.Get)
	g.PUT("/events/:id", ev.Update)
	g.DELETE("/events/:id", ev.Delete)
	g.GET("/events/:id/availability", ev.Availability)
	g.GET("/events/:id/bookings", b.ListForEvent)
}
