package handler

import (
	"context"
	"time"

	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/service"
)

// The handlers depend on these subsets of the services.

type Catalog interface {
	SearchFlights(ctx context.Context, filters model.FlightSearch, manager bool, page, pageSize int) (service.FlightPage, error)
	GetFlight(ctx context.Context, id string, class model.ClassType) (service.FlightView, error)
	SeatMap(ctx context.Context, id string) (service.SeatMapView, error)
	ComputePrice(ctx context.Context, id string, seats []string) (float64, error)
	Airports(ctx context.Context) ([]string, error)
	DestinationsFrom(ctx context.Context, origin string) ([]string, error)
	Route(ctx context.Context, origin, destination string) (service.RouteInfo, error)
	PopularDestinations(ctx context.Context) ([]model.Destination, error)
	CustomerOrders(ctx context.Context, email string) (service.OrderList, error)
	GuestOrder(ctx context.Context, id int64, email string) (model.OrderView, error)
}

type Booker interface {
	CreateOrder(ctx context.Context, req service.BookingRequest) (model.Order, error)
	GuestCheckout(ctx context.Context, req service.GuestBooking) (model.Order, error)
}

type Canceller interface {
	CancelOrder(ctx context.Context, orderID int64, id service.Identity) (service.CancelResult, error)
	CancelFlight(ctx context.Context, flightID string) (service.FlightCancellation, error)
}

type Scheduler interface {
	AvailableAirplanes(ctx context.Context, origin string, ft model.FlightType, departure time.Time) ([]model.Airplane, error)
	AvailableCrew(ctx context.Context, origin string, ft model.FlightType, departure time.Time) (service.CrewAvailability, error)
	CreateFlight(ctx context.Context, req service.FlightRequest) (string, error)
}

type Fleet interface {
	AddAirplane(ctx context.Context, a model.Airplane) (model.Airplane, error)
	ListAirplanes(ctx context.Context) ([]model.Airplane, error)
	AddCrew(ctx context.Context, c model.CrewMember) (model.CrewMember, error)
	ListCrew(ctx context.Context, role string) ([]model.CrewMember, error)
	AddRoute(ctx context.Context, origin, destination string, duration int) (model.Route, error)
	ListRoutes(ctx context.Context) ([]model.Route, error)
}

type Reporter interface {
	Dashboard(ctx context.Context, from, to *time.Time) (model.Dashboard, error)
}

type Accounts interface {
	Register(ctx context.Context, r service.Registration) (model.RegisteredUser, error)
	Login(ctx context.Context, email, password string) (model.RegisteredUser, error)
	ManagerLogin(ctx context.Context, employeeID int64, password string) (model.Manager, error)
	Profile(ctx context.Context, subject, role string) (service.Profile, error)
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, subject, role, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (subject, role string, err error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForSubject(ctx context.Context, subject, role string) error
}
