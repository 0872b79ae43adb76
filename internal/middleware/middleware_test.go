package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/event-seat-booking/internal/config"
)

func newLimitedServer(t *testing.T, capacity int) (*echo.Echo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	e.Use(RateLimit(config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   capacity,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		Prefix:         "rate_limit",
	}, rdb, zap.NewNop()))
	e.GET("/v1/events", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return e, mr
}

func get(e *echo.Echo) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitBlocksAfterCapacity(t *testing.T) {
	e, _ := newLimitedServer(t, 2)

	assert.Equal(t, http.StatusOK, get(e).Code)
	rec := get(e)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = get(e)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitFailsOpen(t *testing.T) {
	e, mr := newLimitedServer(t, 1)
	mr.Close()

	assert.Equal(t, http.StatusOK, get(e).Code)
	assert.Equal(t, http.StatusOK, get(e).Code)
}

func TestRateLimitDisabled(t *testing.T) {
	e := echo.New()
	e.Use(RateLimit(config.RateLimitConfig{Enabled: false}, nil, zap.NewNop()))
	e.GET("/v1/events", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(e).Code)
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusInternalServerError, "boom") })

	for _, path := range []string{"/ok", "/boom"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, "/boom", entries[1].ContextMap()["route"])
}
