package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-booking/internal/service"
)

// writeError maps a service error to its HTTP status and JSON body.
// Capacity rejections carry the requested and available counts so a
// client can retry with fewer seats.
func writeError(c echo.Context, err error) error {
	var (
		nf *service.NotFoundError
		ce *service.CapacityExceededError
		is *service.InvalidStateError
		ve *service.ValidationError
		ue *service.UnavailableError
	)
	switch {
	case errors.As(err, &nf):
		return c.JSON(http.StatusNotFound, echo.Map{"error": nf.Error()})
	case errors.As(err, &ce):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     ce.Error(),
			"requested": ce.Requested,
			"available": ce.Available,
		})
	case errors.As(err, &is):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": is.Error()})
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.As(err, &ue):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": ue.Error()})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &service.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

// queryID parses an optional positive numeric query parameter; absent
// yields 0.
func queryID(c echo.Context, name string) (uint64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &service.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

// queryLimit parses an optional limit in [1, 500].
func queryLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 500 {
		return 0, &service.ValidationError{Field: "limit", Reason: "must be between 1 and 500"}
	}
	return n, nil
}
