package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-reservation/internal/config"
	"github.com/iliyamo/flight-reservation/internal/utils"
)

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"subject": Subject(c), "role": Role(c)})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	e := echo.New()
	g := e.Group("/admin", JWTAuth("s3cret"), RequireRole(utils.RoleAdmin))
	g.GET("/me", whoami)

	admin, err := utils.NewAccessToken("s3cret", "7", utils.RoleAdmin, 5)
	require.NoError(t, err)
	customer, err := utils.NewAccessToken("s3cret", "dana@example.com", utils.RoleRegistered, 5)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"wrong role", "Bearer " + customer.Token, http.StatusForbidden},
		{"admin", "Bearer " + admin.Token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := serve(e, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"subject":"7","role":"admin"}`, rec.Body.String())
			}
		})
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger())
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec = serve(e, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))
}

func TestRedisMiddlewareWithoutClientPassesThrough(t *testing.T) {
	e := echo.New()
	calls := 0
	h := func(c echo.Context) error { calls++; return c.String(http.StatusOK, "ok") }
	e.GET("/flights", h,
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil),
		NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil, CacheFlights),
		PurgeOnSuccess(config.CacheConfig{Enabled: true}, nil, CacheFlights))

	for i := 0; i < 2; i++ {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/flights", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
	assert.NoError(t, Purge(context.Background(), config.CacheConfig{}, nil, CacheFlights))
}

func TestPayloadCodec(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload(bs[:6])
	assert.False(t, ok)
	_, _, _, ok = decodePayload(append([]byte{0, 0, 0, 200, 0, 0, 1, 0}, 'x'))
	assert.False(t, ok)
}

func TestCacheKeyGroupsAndStrategy(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "flytau:cache", KeyStrategy: "route_query"}
	key := func(url string) string {
		return cacheKey(cfg, CacheFlights, e.NewContext(httptest.NewRequest(http.MethodGet, url, nil), httptest.NewRecorder()))
	}
	a := key("/v1/flights?origin=TLV")
	assert.Regexp(t, `^flytau:cache:flights:[0-9a-f]{40}$`, a)
	assert.NotEqual(t, a, key("/v1/flights?origin=ATH"))

	cfg.KeyStrategy = "route"
	assert.Equal(t, key("/v1/flights?origin=TLV"), key("/v1/flights?origin=ATH"))
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/flights/AB123/orders", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/flights/:id/orders")
	c.Set(ctxSubject, "dana@example.com")
	c.Set(ctxRole, utils.RoleRegistered)

	assert.Equal(t, "rl:ip:10.0.0.1:user:registered:dana@example.com:route:POST /v1/flights/:id/orders",
		rateKey(config.RateLimitConfig{Prefix: "rl"}, c))
	assert.Equal(t, "rl:ip:10.0.0.1", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
}
