package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/flight-reservation/internal/service"
	"github.com/iliyamo/flight-reservation/internal/timeutil"
)

// requestTimeout bounds the service calls of one request.
const requestTimeout = 10 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// fail writes a JSON error body {"error": code, "message": text}.
func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"error": code, "message": msg})
}

func badRequest(c echo.Context, msg string) error {
	return fail(c, http.StatusBadRequest, "validation_failed", msg)
}

// writeError maps a service error to its HTTP status.  Anything that is not
// a business error is logged and reported as a 500 without details.
func writeError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrInvalidCredentials) {
		return fail(c, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials.")
	}
	var se *service.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case service.KindNotFound:
			return fail(c, http.StatusNotFound, se.Kind.String(), se.Message)
		case service.KindValidation:
			return fail(c, http.StatusBadRequest, se.Kind.String(), se.Message)
		case service.KindConflict:
			return fail(c, http.StatusConflict, se.Kind.String(), se.Message)
		}
	}
	log.WithError(err).WithFields(log.Fields{"method": c.Request().Method, "route": c.Path()}).Error("request failed")
	return fail(c, http.StatusInternalServerError, "internal_error", "Something went wrong, please try again later.")
}

func pathInt64(c echo.Context, name string) (int64, bool) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	return n, err == nil && n > 0
}

func queryInt(c echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(c.QueryParam(name))); err == nil {
		return n
	}
	return def
}

// queryTime parses an optional timestamp query parameter.
func queryTime(c echo.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	t, err := timeutil.Parse(raw)
	if err != nil {
		if t, err = timeutil.ParseDate(raw); err != nil {
			return nil, err
		}
	}
	return &t, nil
}
