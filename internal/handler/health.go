package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// HealthHandler reports whether the service and its dependencies are up.
// Load balancers hit it on every interval, so every probe shares one short
// timeout.
type HealthHandler struct {
	checks  map[string]CheckFunc
	timeout time.Duration
	started time.Time
}

func NewHealthHandler(checks map[string]CheckFunc, timeout time.Duration) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: timeout, started: time.Now()}
}

// Health handles GET /healthz.  It answers 200 when every probe passes and
// 503 otherwise, listing the state of each dependency.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	errs := make([]error, 0, len(h.checks))
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
		errs = append(errs, nil)
	}
	var g errgroup.Group
	for i, name := range names {
		check := h.checks[name]
		g.Go(func() error {
			errs[i] = check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	status, code := "ok", http.StatusOK
	for i, name := range names {
		if errs[i] != nil {
			results[name] = "down"
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	return c.JSON(code, echo.Map{
		"status":    status,
		"checks":    results,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
