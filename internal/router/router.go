// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/flight-reservation/internal/config"
	"github.com/iliyamo/flight-reservation/internal/handler"
	"github.com/iliyamo/flight-reservation/internal/middleware"
	"github.com/iliyamo/flight-reservation/internal/utils"
)

// Deps is everything the routes need.  Redis may be nil, in which case the
// cache and rate-limit middleware pass requests through.
type Deps struct {
	JWTSecret string
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	DB        handler.Pinger

	Auth    *handler.AuthHandler
	Flights *handler.FlightHandler
	Orders  *handler.OrderHandler
	Admin   *handler.AdminHandler
}

// Register wires every route group on e.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d)
	RegisterPublic(e, d)
	RegisterCustomer(e, d)
	RegisterGuest(e, d)
	RegisterAdmin(e, d)
}

// RegisterRoutes registers routes that need no dependencies beyond the
// database handle.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// profile endpoint /v1/me.  Login attempts are rate limited.
func RegisterAuth(e *echo.Echo, d Deps) {
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)

	g := e.Group("/v1/auth")
	g.POST("/register", d.Auth.Register, limit)
	g.POST("/login", d.Auth.Login, limit)
	g.POST("/manager/login", d.Auth.ManagerLogin, limit)
	g.POST("/refresh", d.Auth.Refresh)
	// logout accepts a refresh token in the body or a bearer token
	g.POST("/logout", d.Auth.Logout)

	e.GET("/v1/me", d.Auth.Me,
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(utils.RoleRegistered, utils.RoleAdmin),
	)
}

// RegisterPublic registers the unauthenticated catalog.  Responses are
// cached per group and purged when bookings or flights change.
func RegisterPublic(e *echo.Echo, d Deps) {
	flights := middleware.NewRedisCache(d.Cache, d.Redis, middleware.CacheFlights)
	airports := middleware.NewRedisCache(d.Cache, d.Redis, middleware.CacheAirports)

	e.GET("/v1/flights", d.Flights.Search, flights)
	e.GET("/v1/flights/:id", d.Flights.Get, flights)
	e.GET("/v1/flights/:id/seats", d.Flights.Seats, flights)
	e.POST("/v1/flights/:id/price", d.Flights.Price)

	e.GET("/v1/airports", d.Flights.Airports, airports)
	e.GET("/v1/airports/:origin/destinations", d.Flights.Destinations, airports)
	e.GET("/v1/routes/:origin/:destination", d.Flights.Route, airports)
	e.GET("/v1/destinations/popular", d.Flights.Popular, airports)
}
