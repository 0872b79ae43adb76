package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/handler"
)

// RegisterBookings maps /v1/bookings.
func RegisterBookings(g *echo.Group, b *handler.BookingHandler) {
	g.POST("/bookings", b.Create)
	g.GET("/bookings", b.List)
	g.GET("/bookings/:id", b.Get)
	g.DELETE("/bookings/:id", b.Cancel)
}

// RegisterNotifications maps /v1/notifications.
func RegisterNotifications(g *echo.Group, n *handler.NotificationHandler) {
	g.POST("/notifications", n.Create)
	g.GET("/notifications", n.List)
	g.GET("/notifications/:id", n.Get)
	g.PATCH("/notifications/:id/read", n.MarkRead)
	g.DELETE("/notifications/:id", n.Delete)
}
