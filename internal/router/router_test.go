package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-reservation/internal/handler"
	"github.com/iliyamo/flight-reservation/internal/utils"
)

const secret = "router-test-secret"

func newServer() *echo.Echo {
	e := echo.New()
	Register(e, Deps{
		JWTSecret: secret,
		Auth:      &handler.AuthHandler{},
		Flights:   &handler.FlightHandler{},
		Orders:    &handler.OrderHandler{},
		Admin:     &handler.AdminHandler{},
	})
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"POST /v1/auth/manager/login",
		"POST /v1/auth/refresh",
		"POST /v1/auth/logout",
		"GET /v1/me",
		"GET /v1/flights",
		"GET /v1/flights/:id",
		"GET /v1/flights/:id/seats",
		"POST /v1/flights/:id/price",
		"GET /v1/airports",
		"GET /v1/airports/:origin/destinations",
		"GET /v1/routes/:origin/:destination",
		"GET /v1/destinations/popular",
		"POST /v1/flights/:id/orders",
		"GET /v1/my/orders",
		"POST /v1/my/orders/:id/cancel",
		"POST /v1/guest/flights/:id/orders",
		"GET /v1/guest/orders/:id",
		"POST /v1/guest/orders/:id/cancel",
		"GET /v1/admin/flights",
		"POST /v1/admin/flights",
		"POST /v1/admin/flights/:id/cancel",
		"GET /v1/admin/availability/airplanes",
		"GET /v1/admin/availability/crew",
		"POST /v1/admin/routes",
		"GET /v1/admin/routes",
		"POST /v1/admin/airplanes",
		"GET /v1/admin/airplanes",
		"POST /v1/admin/crew",
		"GET /v1/admin/crew",
		"GET /v1/admin/reports",
		"GET /v1/admin/reports/export",
	} {
		assert.True(t, have[want], want)
	}
}

func TestRoleGates(t *testing.T) {
	e := newServer()
	token := func(subject, role string) string {
		tok, err := utils.NewAccessToken(secret, subject, role, 5)
		require.NoError(t, err)
		return "Bearer " + tok.Token
	}
	customer := token("dana@example.com", utils.RoleRegistered)
	manager := token("1", utils.RoleAdmin)

	cases := []struct {
		method, path, auth string
		status             int
	}{
		{http.MethodGet, "/v1/admin/flights", "", http.StatusUnauthorized},
		{http.MethodGet, "/v1/admin/reports", customer, http.StatusForbidden},
		{http.MethodPost, "/v1/admin/flights/FT0001/cancel", customer, http.StatusForbidden},
		{http.MethodGet, "/v1/my/orders", "", http.StatusUnauthorized},
		{http.MethodGet, "/v1/my/orders", manager, http.StatusForbidden},
		{http.MethodPost, "/v1/flights/FT0001/orders", manager, http.StatusForbidden},
		{http.MethodGet, "/v1/me", "Bearer garbage", http.StatusUnauthorized},
		{http.MethodGet, "/healthz", "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.auth)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
