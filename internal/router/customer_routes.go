package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-reservation/internal/middleware"
	"github.com/iliyamo/flight-reservation/internal/utils"
)

// RegisterCustomer registers the endpoints of registered customers.  All of
// them require a valid JWT with the registered role.
func RegisterCustomer(e *echo.Echo, d Deps) {
	auth := middleware.JWTAuth(d.JWTSecret)
	role := middleware.RequireRole(utils.RoleRegistered)
	// the limiter runs after JWTAuth so buckets are keyed by the customer
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)
	purge := middleware.PurgeOnSuccess(d.Cache, d.Redis, middleware.CacheFlights, middleware.CacheAirports)

	e.POST("/v1/flights/:id/orders", d.Orders.Create, auth, role, limit, purge)

	g := e.Group("/v1/my", auth, role)
	g.GET("/orders", d.Orders.Mine)
	g.POST("/orders/:id/cancel", d.Orders.CancelMine, limit, purge)
}

// RegisterGuest registers checkout and order management for customers
// without an account.  Guests identify with the order id and email.
func RegisterGuest(e *echo.Echo, d Deps) {
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)
	purge := middleware.PurgeOnSuccess(d.Cache, d.Redis, middleware.CacheFlights, middleware.CacheAirports)

	g := e.Group("/v1/guest")
	g.POST("/flights/:id/orders", d.Orders.GuestCheckout, limit, purge)
	g.GET("/orders/:id", d.Orders.GuestOrder, limit)
	g.POST("/orders/:id/cancel", d.Orders.GuestCancel, limit, purge)
}
