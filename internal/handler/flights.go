package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/timeutil"
)

// FlightHandler serves the public flight catalog.
type FlightHandler struct {
	Catalog Catalog
}

func NewFlightHandler(catalog Catalog) *FlightHandler { return &FlightHandler{Catalog: catalog} }

// searchFilters reads ?date=YYYY-MM-DD&origin=&destination=&status=.
func searchFilters(c echo.Context) (model.FlightSearch, error) {
	f := model.FlightSearch{
		Origin:      strings.ToUpper(strings.TrimSpace(c.QueryParam("origin"))),
		Destination: strings.ToUpper(strings.TrimSpace(c.QueryParam("destination"))),
		Status:      strings.TrimSpace(c.QueryParam("status")),
	}
	if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
		d, err := timeutil.ParseDate(raw)
		if err != nil {
			return f, err
		}
		f.Date = &d
	}
	return f, nil
}

func (h *FlightHandler) search(c echo.Context, manager bool) error {
	filters, err := searchFilters(c)
	if err != nil {
		return badRequest(c, "date must be YYYY-MM-DD.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	page, err := h.Catalog.SearchFlights(ctx, filters, manager, queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Search handles GET /v1/flights.  Only Active future flights are listed.
func (h *FlightHandler) Search(c echo.Context) error { return h.search(c, false) }

// ManagerSearch handles GET /v1/admin/flights.
func (h *FlightHandler) ManagerSearch(c echo.Context) error { return h.search(c, true) }

// Get handles GET /v1/flights/:id?class=Economy|Business.
func (h *FlightHandler) Get(c echo.Context) error {
	class := model.ClassType(strings.TrimSpace(c.QueryParam("class")))
	if class != "" && !class.Valid() {
		return badRequest(c, "class must be Economy or Business.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Catalog.GetFlight(ctx, c.Param("id"), class)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Seats handles GET /v1/flights/:id/seats.
func (h *FlightHandler) Seats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Catalog.SeatMap(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

type seatsReq struct {
	Seats []string `json:"seats"`
}

// Price handles POST /v1/flights/:id/price.
func (h *FlightHandler) Price(c echo.Context) error {
	var req seatsReq
	if err := c.Bind(&req); err != nil || len(req.Seats) == 0 {
		return badRequest(c, "Select at least one seat.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	total, err := h.Catalog.ComputePrice(ctx, c.Param("id"), req.Seats)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"flight_id": c.Param("id"), "seats": req.Seats, "total_price": total})
}

// Airports handles GET /v1/airports.
func (h *FlightHandler) Airports(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	codes, err := h.Catalog.Airports(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": codes})
}

// Destinations handles GET /v1/airports/:origin/destinations.
func (h *FlightHandler) Destinations(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	origin := strings.ToUpper(strings.TrimSpace(c.Param("origin")))
	codes, err := h.Catalog.DestinationsFrom(ctx, origin)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"origin": origin, "data": codes})
}

// Route handles GET /v1/routes/:origin/:destination.
func (h *FlightHandler) Route(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	info, err := h.Catalog.Route(ctx, c.Param("origin"), c.Param("destination"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// Popular handles GET /v1/destinations/popular.
func (h *FlightHandler) Popular(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	dests, err := h.Catalog.PopularDestinations(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": dests})
}
