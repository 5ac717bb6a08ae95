package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/repository"
	"github.com/iliyamo/flight-reservation/internal/seatmap"
	"github.com/iliyamo/flight-reservation/internal/timeutil"
)

// popularLimit is how many destination cards are shown.
const popularLimit = 3

// CatalogService answers the read-only questions about flights, seats,
// prices and airports.
type CatalogService struct {
	flights   FlightStore
	orders    OrderStore
	airplanes AirplaneStore
	routes    RouteStore
	popular   []PopularCandidate
	now       Clock
}

// PopularCandidate is one entry of the configured destination pool.
type PopularCandidate struct {
	Code string
	Name string
}

func NewCatalogService(flights FlightStore, orders OrderStore, airplanes AirplaneStore, routes RouteStore, popular []PopularCandidate) *CatalogService {
	return &CatalogService{flights: flights, orders: orders, airplanes: airplanes, routes: routes, popular: popular, now: utcNow}
}

// FlightPage is one page of search results.
type FlightPage struct {
	Data     []model.FlightSummary `json:"data"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// SearchFlights filters flights.  Customers see bookable future flights
// only; managers see everything and get the split class status.
func (s *CatalogService) SearchFlights(ctx context.Context, filters model.FlightSearch, manager bool, page, pageSize int) (FlightPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	now := s.now()
	rows, total, err := s.flights.Search(ctx, repository.FlightSearchQuery{
		FlightSearch: filters,
		Manager:      manager,
		Now:          now,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		return FlightPage{}, errors.Wrap(err, "search flights")
	}
	for i := range rows {
		d := timeutil.FlightDisplayStatus(rows[i].Status, rows[i].Arrival, now)
		if manager {
			d = timeutil.ManagerDisplayStatus(d, rows[i].EconomyStatus, rows[i].BusinessStatus)
		}
		rows[i].DisplayStatus = d
	}
	return FlightPage{Data: rows, Total: total, Page: page, PageSize: pageSize}, nil
}

// FlightView is a flight with its derived fields.
type FlightView struct {
	model.Flight
	Arrival              time.Time                  `json:"arrival_time"`
	FlightType           model.FlightType           `json:"flight_type"`
	Status               model.FlightStatus         `json:"status"`
	DisplayStatus        string                     `json:"display_status"`
	Duration             string                     `json:"duration"`
	HoursToDeparture     float64                    `json:"hours_to_departure"`
	CancellationDeadline time.Time                  `json:"cancellation_deadline"`
	Class                *model.FlightClassOffering `json:"class,omitempty"`
}

// GetFlight returns the flight with both class offerings.  When class is set
// and the flight does not sell it the flight is reported as not found.
func (s *CatalogService) GetFlight(ctx context.Context, id string, class model.ClassType) (FlightView, error) {
	f, err := s.getFlight(ctx, id)
	if err != nil {
		return FlightView{}, err
	}
	now := s.now()
	v := FlightView{
		Flight:               f,
		Arrival:              f.Arrival(),
		FlightType:           f.Type(),
		Status:               f.Status(),
		DisplayStatus:        timeutil.FlightDisplayStatus(f.Status(), f.Arrival(), now),
		Duration:             timeutil.FormatDuration(f.DurationMinutes),
		HoursToDeparture:     timeutil.HoursUntil(f.Departure, now),
		CancellationDeadline: f.Departure.Add(-CancellationCutoff),
	}
	if class != "" {
		o, ok := f.Offering(class)
		if !ok {
			return FlightView{}, notFound("Flight %s has no %s class.", f.ID, class)
		}
		v.Class = &o
	}
	return v, nil
}

func (s *CatalogService) getFlight(ctx context.Context, id string) (model.Flight, error) {
	f, err := s.flights.Get(ctx, strings.ToUpper(strings.TrimSpace(id)))
	if errors.Is(err, repository.ErrNotFound) {
		return model.Flight{}, notFound("Flight %s was not found.", id)
	}
	if err != nil {
		return model.Flight{}, errors.Wrap(err, "get flight")
	}
	return f, nil
}

// SeatMapView is the seat grid of a flight with per-class availability.
type SeatMapView struct {
	FlightID     string                      `json:"flight_id"`
	Blocks       []seatmap.Block             `json:"blocks"`
	Availability map[model.ClassType]bool    `json:"availability"`
	Prices       map[model.ClassType]float64 `json:"prices"`
}

// SeatMap builds the grid of the flight from the airplane layouts and the
// seats held by Active orders.
func (s *CatalogService) SeatMap(ctx context.Context, id string) (SeatMapView, error) {
	f, m, err := s.seatMap(ctx, id)
	if err != nil {
		return SeatMapView{}, err
	}
	prices := map[model.ClassType]float64{}
	for _, o := range f.Offerings {
		prices[o.Class] = o.Price
	}
	return SeatMapView{FlightID: f.ID, Blocks: m.Blocks, Availability: m.Availability(), Prices: prices}, nil
}

func (s *CatalogService) seatMap(ctx context.Context, id string) (model.Flight, seatmap.Map, error) {
	f, err := s.getFlight(ctx, id)
	if err != nil {
		return model.Flight{}, seatmap.Map{}, err
	}
	layouts, err := s.airplanes.Layouts(ctx, f.AirplaneID)
	if err != nil {
		return model.Flight{}, seatmap.Map{}, errors.Wrap(err, "cabin layouts")
	}
	occ, err := s.orders.OccupiedSeats(ctx, f.ID)
	if err != nil {
		return model.Flight{}, seatmap.Map{}, errors.Wrap(err, "occupied seats")
	}
	m, err := seatmap.Build(layouts, seatmap.NewOccupied(occ))
	if err != nil {
		return model.Flight{}, seatmap.Map{}, errors.Wrap(err, "build seat map")
	}
	return f, m, nil
}

// ComputePrice sums the class price of every selected seat.
func (s *CatalogService) ComputePrice(ctx context.Context, id string, seats []string) (float64, error) {
	sel, err := seatmap.ParseSelections(seats)
	if err != nil {
		return 0, invalid("%s", err.Error())
	}
	f, m, err := s.seatMap(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := m.Check(sel); err != nil {
		return 0, invalid("%s", err.Error())
	}
	var total float64
	for _, x := range sel {
		if _, ok := f.Offering(x.Class); !ok {
			return 0, invalid("%s class is not sold on flight %s.", x.Class, f.ID)
		}
		total += f.Price(x.Class)
	}
	return round2(total), nil
}

// Airports returns the origin airports of all routes.
func (s *CatalogService) Airports(ctx context.Context) ([]string, error) {
	out, err := s.routes.Origins(ctx)
	return out, errors.Wrap(err, "list airports")
}

// DestinationsFrom returns the airports reachable from origin.
func (s *CatalogService) DestinationsFrom(ctx context.Context, origin string) ([]string, error) {
	out, err := s.routes.DestinationsFrom(ctx, strings.ToUpper(origin))
	return out, errors.Wrap(err, "list destinations")
}

// RouteInfo is the duration lookup of a route.
type RouteInfo struct {
	model.Route
	FlightType model.FlightType `json:"flight_type"`
	Duration   string           `json:"duration"`
}

// Route looks up the route from origin to destination.
func (s *CatalogService) Route(ctx context.Context, origin, destination string) (RouteInfo, error) {
	origin, destination = strings.ToUpper(origin), strings.ToUpper(destination)
	r, err := s.routes.Get(ctx, origin, destination)
	if errors.Is(err, repository.ErrNotFound) {
		return RouteInfo{}, notFound("No route from %s to %s.", origin, destination)
	}
	if err != nil {
		return RouteInfo{}, errors.Wrap(err, "get route")
	}
	return RouteInfo{Route: r, FlightType: r.Type(), Duration: timeutil.FormatDuration(r.DurationMinutes)}, nil
}

// PopularDestinations returns the first destinations of the pool that have a
// bookable future flight, each with its cheapest Economy fare.
func (s *CatalogService) PopularDestinations(ctx context.Context) ([]model.Destination, error) {
	codes := make([]string, len(s.popular))
	for i, p := range s.popular {
		codes[i] = p.Code
	}
	fares, err := s.flights.MinEconomyFares(ctx, codes, s.now())
	if err != nil {
		return nil, errors.Wrap(err, "popular destinations")
	}
	out := []model.Destination{}
	for _, p := range s.popular {
		price, ok := fares[p.Code]
		if !ok {
			continue
		}
		out = append(out, model.Destination{Code: p.Code, Name: p.Name, Price: int(price)})
		if len(out) == popularLimit {
			break
		}
	}
	return out, nil
}

// OrderList splits a customer's orders into upcoming and past ones.
type OrderList struct {
	Upcoming []model.OrderView `json:"upcoming"`
	Past     []model.OrderView `json:"past"`
}

// CustomerOrders lists the orders of a registered customer.  Upcoming holds
// Active orders departing in the future, soonest first.
func (s *CatalogService) CustomerOrders(ctx context.Context, email string) (OrderList, error) {
	views, err := s.orders.ListByEmail(ctx, repository.NormalizeEmail(email), model.CustomerRegistered)
	if err != nil {
		return OrderList{}, errors.Wrap(err, "list orders")
	}
	now := s.now()
	out := OrderList{Upcoming: []model.OrderView{}, Past: []model.OrderView{}}
	for _, v := range views {
		if err := s.decorate(ctx, &v, now); err != nil {
			return OrderList{}, err
		}
		if v.Status == model.OrderActive && v.Departure.After(now) {
			out.Upcoming = append(out.Upcoming, v)
		} else {
			out.Past = append(out.Past, v)
		}
	}
	sort.SliceStable(out.Upcoming, func(i, j int) bool { return out.Upcoming[i].Departure.Before(out.Upcoming[j].Departure) })
	return out, nil
}

// GuestOrder returns a guest order identified by id and email.
func (s *CatalogService) GuestOrder(ctx context.Context, id int64, email string) (model.OrderView, error) {
	o, err := s.orders.FindForGuest(ctx, id, repository.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return model.OrderView{}, notFound("Order %d was not found.", id)
	}
	if err != nil {
		return model.OrderView{}, errors.Wrap(err, "get guest order")
	}
	f, err := s.getFlight(ctx, o.FlightID)
	if err != nil {
		return model.OrderView{}, err
	}
	v := model.OrderView{Order: o, Departure: f.Departure, Arrival: f.Arrival()}
	if err := s.decorate(ctx, &v, s.now()); err != nil {
		return model.OrderView{}, err
	}
	return v, nil
}

// decorate fills the display status and groups the seats by class.
func (s *CatalogService) decorate(ctx context.Context, v *model.OrderView, now time.Time) error {
	v.DisplayStatus = timeutil.OrderDisplayStatus(v.Status, v.Arrival, now)
	f, err := s.flights.Get(ctx, v.FlightID)
	if err != nil {
		return errors.Wrap(err, "get order flight")
	}
	layouts, err := s.airplanes.Layouts(ctx, f.AirplaneID)
	if err != nil {
		return errors.Wrap(err, "cabin layouts")
	}
	v.Seats = seatmap.GroupByClass(layouts, v.Tickets)
	return nil
}
