package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/handler"
)

// RegisterUsers maps /v1/users and the per-user booking and notification
// listings.
func RegisterUsers(g *echo.Group, u *handler.UserHandler, b *handler.BookingHandler, n *handler.NotificationHandler) {
	g.POST("/users", u.Create)
	g.GET("/users", u.List)
	g.GET("/users/:id", u.Get)
	g.PUT("/users/:id", u.Update)
	g.DELETE("/users/:id", u.Delete)
	g.GET("/users/:id/bookings", b.ListForUser)
	g.GET("/users/:id/notifications", n.ListForUser)
	g.GET("/users/:id/notifications/unread-count", n.UnreadCount)
	g.PATCH("/users/:id/notifications/read-all", n.MarkAllRead)
}
