package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-reservation/internal/middleware"
	"github.com/iliyamo/flight-reservation/internal/utils"
)

// RegisterAdmin registers manager endpoints under /v1/admin.  All routes
// require a valid JWT and the admin role.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)
	purge := middleware.PurgeOnSuccess(d.Cache, d.Redis, middleware.CacheFlights, middleware.CacheAirports)

	// ---- Flights ----
	g.GET("/flights", d.Flights.ManagerSearch)
	g.POST("/flights", d.Admin.CreateFlight, purge)
	g.POST("/flights/:id/cancel", d.Admin.CancelFlight, purge)
	g.GET("/availability/airplanes", d.Admin.AvailableAirplanes)
	g.GET("/availability/crew", d.Admin.AvailableCrew)

	// ---- Fleet ----
	g.POST("/routes", d.Admin.AddRoute, purge)
	g.GET("/routes", d.Admin.ListRoutes)
	g.POST("/airplanes", d.Admin.AddAirplane)
	g.GET("/airplanes", d.Admin.ListAirplanes)
	g.POST("/crew", d.Admin.AddCrew)
	g.GET("/crew", d.Admin.ListCrew)

	// ---- Reports ----
	g.GET("/reports", d.Admin.Dashboard)
	g.GET("/reports/export", d.Admin.Export)
}
