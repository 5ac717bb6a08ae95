package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/report"
	"github.com/iliyamo/flight-reservation/internal/service"
	"github.com/iliyamo/flight-reservation/internal/timeutil"
)

// AdminHandler exposes the manager operations.  Every route is behind the
// admin role.
type AdminHandler struct {
	Scheduler Scheduler
	Canceller Canceller
	Fleet     Fleet
	Reports   Reporter
	Catalog   Catalog
}

type flightReq struct {
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	Departure     string  `json:"departure_time"`
	AirplaneID    string  `json:"airplane_id"`
	PilotIDs      []int64 `json:"pilot_ids"`
	AttendantIDs  []int64 `json:"attendant_ids"`
	EconomyPrice  float64 `json:"economy_price"`
	BusinessPrice float64 `json:"business_price"`
}

type routeReq struct {
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	DurationMinutes int    `json:"duration_minutes"`
}

type airplaneReq struct {
	ID           string              `json:"airplane_id"`
	Size         string              `json:"size"`
	Manufacturer string              `json:"manufacturer"`
	PurchaseDate string              `json:"purchase_date"`
	Layouts      []model.CabinLayout `json:"layouts"`
}

type crewReq struct {
	model.Employee
	StartDate string `json:"start_date"`
	Role      string `json:"role"`
	Qualified bool   `json:"qualifications"`
}

// window reads ?origin=&departure= plus either ?type=short|long or
// ?destination=, in which case the type is taken from the route.
func (h *AdminHandler) window(c echo.Context) (string, model.FlightType, time.Time, error) {
	origin := strings.ToUpper(strings.TrimSpace(c.QueryParam("origin")))
	if origin == "" {
		return "", "", time.Time{}, service.Invalid("origin is required.")
	}
	dep, err := timeutil.Parse(c.QueryParam("departure"))
	if err != nil {
		return "", "", time.Time{}, service.Invalid("departure must be a date and time.")
	}
	ft := model.FlightType(strings.ToLower(strings.TrimSpace(c.QueryParam("type"))))
	switch {
	case ft == model.ShortFlight || ft == model.LongFlight:
	case ft == "" && c.QueryParam("destination") != "":
		ctx, cancel := reqCtx(c)
		defer cancel()
		info, err := h.Catalog.Route(ctx, origin, strings.TrimSpace(c.QueryParam("destination")))
		if err != nil {
			return "", "", time.Time{}, err
		}
		ft = info.FlightType
	default:
		return "", "", time.Time{}, service.Invalid("Provide type=short|long or a destination.")
	}
	return origin, ft, dep, nil
}

// AvailableAirplanes handles GET /v1/admin/availability/airplanes.
func (h *AdminHandler) AvailableAirplanes(c echo.Context) error {
	origin, ft, dep, err := h.window(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	planes, err := h.Scheduler.AvailableAirplanes(ctx, origin, ft, dep)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"flight_type": ft, "data": planes})
}

// AvailableCrew handles GET /v1/admin/availability/crew.
func (h *AdminHandler) AvailableCrew(c echo.Context) error {
	origin, ft, dep, err := h.window(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	crew, err := h.Scheduler.AvailableCrew(ctx, origin, ft, dep)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, crew)
}

// CreateFlight handles POST /v1/admin/flights.
func (h *AdminHandler) CreateFlight(c echo.Context) error {
	var req flightReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body.")
	}
	dep, err := timeutil.Parse(req.Departure)
	if err != nil {
		return badRequest(c, "departure_time must be a date and time.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Scheduler.CreateFlight(ctx, service.FlightRequest{
		Origin: req.Origin, Destination: req.Destination, Departure: dep, AirplaneID: req.AirplaneID,
		PilotIDs: req.PilotIDs, AttendantIDs: req.AttendantIDs,
		EconomyPrice: req.EconomyPrice, BusinessPrice: req.BusinessPrice,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"flight_id": id})
}

// CancelFlight handles POST /v1/admin/flights/:id/cancel.
func (h *AdminHandler) CancelFlight(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Canceller.CancelFlight(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// AddRoute handles POST /v1/admin/routes.
func (h *AdminHandler) AddRoute(c echo.Context) error {
	var req routeReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	r, err := h.Fleet.AddRoute(ctx, req.Origin, req.Destination, req.DurationMinutes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// ListRoutes handles GET /v1/admin/routes.
func (h *AdminHandler) ListRoutes(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	routes, err := h.Fleet.ListRoutes(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": routes})
}

// AddAirplane handles POST /v1/admin/airplanes.
func (h *AdminHandler) AddAirplane(c echo.Context) error {
	var req airplaneReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body.")
	}
	a := model.Airplane{ID: req.ID, Size: req.Size, Manufacturer: req.Manufacturer, Layouts: req.Layouts}
	if req.PurchaseDate != "" {
		d, err := timeutil.ParseDate(req.PurchaseDate)
		if err != nil {
			return badRequest(c, "purchase_date must be YYYY-MM-DD.")
		}
		a.PurchaseDate = d
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Fleet.AddAirplane(ctx, a)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

// ListAirplanes handles GET /v1/admin/airplanes.
func (h *AdminHandler) ListAirplanes(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	planes, err := h.Fleet.ListAirplanes(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": planes})
}

// AddCrew handles POST /v1/admin/crew.
func (h *AdminHandler) AddCrew(c echo.Context) error {
	var req crewReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body.")
	}
	m := model.CrewMember{Employee: req.Employee, Role: req.Role, Qualified: req.Qualified}
	if req.StartDate != "" {
		d, err := timeutil.ParseDate(req.StartDate)
		if err != nil {
			return badRequest(c, "start_date must be YYYY-MM-DD.")
		}
		m.StartDate = d
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Fleet.AddCrew(ctx, m)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// ListCrew handles GET /v1/admin/crew?role=Pilot|Attendant.
func (h *AdminHandler) ListCrew(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	crew, err := h.Fleet.ListCrew(ctx, strings.TrimSpace(c.QueryParam("role")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": crew})
}

func (h *AdminHandler) dashboard(c echo.Context) (model.Dashboard, error) {
	from, err := queryTime(c, "from")
	if err != nil {
		return model.Dashboard{}, service.Invalid("from must be a date.")
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return model.Dashboard{}, service.Invalid("to must be a date.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	return h.Reports.Dashboard(ctx, from, to)
}

// Dashboard handles GET /v1/admin/reports?from=&to=.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	d, err := h.dashboard(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Export handles GET /v1/admin/reports/export and streams the dashboard as
// an xlsx workbook.
func (h *AdminHandler) Export(c echo.Context) error {
	d, err := h.dashboard(c)
	if err != nil {
		return writeError(c, err)
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, report.ContentType)
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+report.FileName(d)+`"`)
	res.WriteHeader(http.StatusOK)
	if err := report.WriteDashboard(res, d); err != nil {
		log.WithError(err).Error("dashboard export failed")
		return err
	}
	return nil
}
