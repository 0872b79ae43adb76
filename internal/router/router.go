// Package router builds the echo server and registers every API route.
package router

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-booking/internal/config"
	"github.com/iliyamo/event-seat-booking/internal/handler"
	"github.com/iliyamo/event-seat-booking/internal/middleware"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Health        *handler.HealthHandler
	Users         *handler.UserHandler
	Events        *handler.EventHandler
	Bookings      *handler.BookingHandler
	Notifications *handler.NotificationHandler
}

// New returns an echo instance with the middleware chain and all routes.
// /healthz sits outside the rate limiter so probes are never throttled.
func New(h Handlers, rl config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = jsonErrorHandler(e)

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())

	RegisterHealth(e, h.Health)

	v1 := e.Group("/v1", middleware.RateLimit(rl, rdb, log))
	RegisterUsers(v1, h.Users, h.Bookings, h.Notifications)
	RegisterEvents(v1, h.Events, h.Bookings)
	RegisterBookings(v1, h.Bookings)
	RegisterNotifications(v1, h.Notifications)
	return e
}

// RegisterHealth maps GET /healthz.
func RegisterHealth(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// jsonErrorHandler renders router-level errors (unknown route, method not
// allowed, recovered panics) in the same {"error": ...} shape as handlers.
func jsonErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(code)
			}
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"error": msg})
		}
		if err != nil {
			e.Logger.Error(err)
		}
	}
}
