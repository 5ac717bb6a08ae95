// Package queue defines the domain events exchanged over the message broker
// together with the publisher used by the services and the consumer run by
// `flytau consume`.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// Event types.  Each one doubles as the routing key on the events queue.
const (
	OrderCreated   = "order.created"
	OrderCanceled  = "order.canceled"
	FlightCanceled = "flight.canceled"
)

// Event is a state change of the reservation system.  It contains enough
// information for downstream consumers to log, notify, or trigger analytics
// without querying the primary database.
type Event struct {
	ID            string    `json:"event_id"`
	Type          string    `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	FlightID      string    `json:"flight_id"`
	OrderID       int64     `json:"order_id,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	CustomerType  string    `json:"customer_type,omitempty"`
	Seats         []string  `json:"seats,omitempty"`
	TotalPrice    float64   `json:"total_price"`
	Status        string    `json:"status,omitempty"`
	OrdersCount   int64     `json:"orders_count,omitempty"`
}

func newEvent(typ, flightID string, at time.Time) Event {
	return Event{ID: uuid.NewString(), Type: typ, OccurredAt: at.UTC(), FlightID: flightID}
}

func orderEvent(typ string, o model.Order, seats []string, at time.Time) Event {
	ev := newEvent(typ, o.FlightID, at)
	ev.OrderID = o.ID
	ev.CustomerEmail = o.CustomerEmail
	ev.CustomerType = string(o.CustomerType)
	ev.Seats = seats
	ev.TotalPrice = o.TotalPrice
	ev.Status = string(o.Status)
	return ev
}

// NewOrderCreated describes a committed booking.
func NewOrderCreated(o model.Order, seats []string, at time.Time) Event {
	return orderEvent(OrderCreated, o, seats, at)
}

// NewOrderCanceled describes a customer cancellation with the adjusted price.
func NewOrderCanceled(o model.Order, seats []string, at time.Time) Event {
	return orderEvent(OrderCanceled, o, seats, at)
}

// NewFlightCanceled describes an administrative flight cancellation and how
// many orders it force-canceled.
func NewFlightCanceled(flightID string, orders int64, at time.Time) Event {
	ev := newEvent(FlightCanceled, flightID, at)
	ev.Status = string(model.FlightCanceled)
	ev.OrdersCount = orders
	return ev
}
