package service

import (
	"context"
	"time"

	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/queue"
	"github.com/iliyamo/flight-reservation/internal/repository"
)

// The interfaces below are the parts of the repositories each service needs.
// The MySQL repositories satisfy them; tests use an in-memory store.

// TxRunner runs fn inside one transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx repository.Tx) error) error
}

type FlightStore interface {
	Get(ctx context.Context, id string) (model.Flight, error)
	Search(ctx context.Context, q repository.FlightSearchQuery) ([]model.FlightSummary, int64, error)
	AirplaneHistory(ctx context.Context) (map[string][]model.Interval, error)
	MinEconomyFares(ctx context.Context, destinations []string, now time.Time) (map[string]float64, error)
}

type OrderStore interface {
	Get(ctx context.Context, id int64) (model.Order, error)
	OccupiedSeats(ctx context.Context, flightID string) ([]model.SeatRef, error)
	ListByEmail(ctx context.Context, email string, t model.CustomerType) ([]model.OrderView, error)
	FindForGuest(ctx context.Context, id int64, email string) (model.Order, error)
}

type AirplaneStore interface {
	Create(ctx context.Context, a model.Airplane) error
	Get(ctx context.Context, id string) (model.Airplane, error)
	List(ctx context.Context) ([]model.Airplane, error)
	Layouts(ctx context.Context, id string) ([]model.CabinLayout, error)
}

type CrewStore interface {
	Create(ctx context.Context, c model.CrewMember) error
	List(ctx context.Context, role string) ([]model.CrewMember, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]model.CrewMember, error)
	History(ctx context.Context, role string) (map[int64][]model.Interval, error)
}

type RouteStore interface {
	Create(ctx context.Context, r model.Route) error
	Get(ctx context.Context, origin, destination string) (model.Route, error)
	List(ctx context.Context) ([]model.Route, error)
	Origins(ctx context.Context) ([]string, error)
	DestinationsFrom(ctx context.Context, origin string) ([]string, error)
}

type CustomerStore interface {
	GetRegistered(ctx context.Context, email string) (model.RegisteredUser, error)
}

type ManagerStore interface {
	Get(ctx context.Context, id int64) (model.Manager, error)
}

type ReportStore interface {
	TopCrewByHours(ctx context.Context, now time.Time, limit int) ([]model.RankedItem, error)
	TopCustomers(ctx context.Context, limit int) ([]model.RankedItem, error)
	TopRoutes(ctx context.Context, limit int) ([]model.RankedItem, error)
	TopMonths(ctx context.Context, since time.Time, limit int) ([]model.RankedItem, error)
	Totals(ctx context.Context, from, to *time.Time) (float64, float64, error)
}

// EventPublisher delivers domain events.  Failures never fail the operation
// that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.Event) error { return nil }

// Clock returns the current time.  Services default to time.Now in UTC.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }
