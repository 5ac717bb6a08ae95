package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/queue"
	"github.com/iliyamo/flight-reservation/internal/repository"
	"github.com/iliyamo/flight-reservation/internal/seatmap"
)

// bookingAttempts bounds the retries after a lost race on an order id or a
// seat.
const bookingAttempts = 3

// BookingService places orders.
type BookingService struct {
	uow      TxRunner
	events   EventPublisher
	now      Clock
	attempts int
}

// NewBookingService returns a BookingService.  A nil publisher disables
// events.
func NewBookingService(uow TxRunner, events EventPublisher) *BookingService {
	if events == nil {
		events = nopPublisher{}
	}
	return &BookingService{uow: uow, events: events, now: utcNow, attempts: bookingAttempts}
}

// BookingRequest is an order for an already identified customer.
type BookingRequest struct {
	FlightID     string
	Email        string
	CustomerType model.CustomerType
	Seats        []string // "Class-Row-Col"
}

// GuestBooking is an order placed without an account.
type GuestBooking struct {
	FlightID string
	Guest    model.Customer
	Seats    []string
}

// CreateOrder books the selected seats for the customer.  Either the order
// with all of its tickets is stored or nothing is.
func (s *BookingService) CreateOrder(ctx context.Context, req BookingRequest) (model.Order, error) {
	email := repository.NormalizeEmail(req.Email)
	if email == "" {
		return model.Order{}, invalid("Customer email is required.")
	}
	if req.CustomerType != model.CustomerRegistered && req.CustomerType != model.CustomerGuest {
		return model.Order{}, invalid("Unknown customer type %q.", req.CustomerType)
	}
	sel, err := seatmap.ParseSelections(req.Seats)
	if err != nil {
		return model.Order{}, invalid("%s", err.Error())
	}
	return s.book(ctx, func(ctx context.Context, tx repository.Tx) (model.Order, error) {
		return s.place(ctx, tx, req.FlightID, email, req.CustomerType, sel)
	})
}

// GuestCheckout stores the guest with their phone numbers and books the
// seats in the same transaction.  An email that belongs to a registered
// customer is refused.
func (s *BookingService) GuestCheckout(ctx context.Context, req GuestBooking) (model.Order, error) {
	g := req.Guest
	g.Email = repository.NormalizeEmail(g.Email)
	g.FirstName = strings.TrimSpace(g.FirstName)
	g.LastName = strings.TrimSpace(g.LastName)
	g.Type = model.CustomerGuest
	if g.Email == "" || g.FirstName == "" || g.LastName == "" {
		return model.Order{}, invalid("Email, first name and last name are required.")
	}
	phones := cleanPhones(g.Phones)
	sel, err := seatmap.ParseSelections(req.Seats)
	if err != nil {
		return model.Order{}, invalid("%s", err.Error())
	}

	return s.book(ctx, func(ctx context.Context, tx repository.Tx) (model.Order, error) {
		registered, err := tx.RegisteredExists(ctx, g.Email)
		if err != nil {
			return model.Order{}, err
		}
		if registered {
			return model.Order{}, invalid("%s belongs to a registered customer, please log in.", g.Email)
		}
		if err := tx.UpsertGuest(ctx, g); err != nil {
			return model.Order{}, err
		}
		if err := tx.InsertPhones(ctx, g.Email, model.CustomerGuest, phones); err != nil {
			return model.Order{}, err
		}
		return s.place(ctx, tx, req.FlightID, g.Email, model.CustomerGuest, sel)
	})
}

// book runs fn in a transaction and retries it with fresh data when a
// concurrent booking took the order id or one of the seats first.
func (s *BookingService) book(ctx context.Context, fn func(context.Context, repository.Tx) (model.Order, error)) (model.Order, error) {
	var order model.Order
	for attempt := 1; ; attempt++ {
		err := s.uow.InTx(ctx, func(tx repository.Tx) error {
			var err error
			order, err = fn(ctx, tx)
			return err
		})
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrOrderIDTaken) || errors.Is(err, repository.ErrSeatTaken) {
			log.WithFields(log.Fields{"attempt": attempt, "reason": err.Error()}).Warn("booking lost a race")
			if attempt < s.attempts {
				continue
			}
			return model.Order{}, conflict("The selected seats could not be booked, please try again.")
		}
		if KindOf(err) != 0 {
			return model.Order{}, err
		}
		return model.Order{}, errors.Wrap(err, "create order")
	}

	seats := labels(order.Tickets)
	log.WithFields(log.Fields{
		"order_id":  order.ID,
		"flight_id": order.FlightID,
		"customer":  order.CustomerEmail,
		"seats":     seats,
		"total":     order.TotalPrice,
	}).Info("order created")
	if err := s.events.Publish(ctx, queue.NewOrderCreated(order, seats, s.now())); err != nil {
		log.WithError(err).WithField("order_id", order.ID).Warn("publish order.created failed")
	}
	return order, nil
}

// place validates the selection against the locked flight and the live
// occupied set, writes the order and its tickets and marks every class left
// without a free seat as Fully Booked.
func (s *BookingService) place(ctx context.Context, tx repository.Tx, flightID, email string, ct model.CustomerType, sel []seatmap.Selection) (model.Order, error) {
	now := s.now()
	f, err := tx.LockFlight(ctx, flightID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Order{}, notFound("Flight %s was not found.", flightID)
	}
	if err != nil {
		return model.Order{}, err
	}
	if f.Status() == model.FlightCanceled {
		return model.Order{}, invalid("Flight %s has been canceled.", f.ID)
	}
	if !f.Departure.After(now) {
		return model.Order{}, invalid("Flight %s has already departed.", f.ID)
	}

	var total float64
	for _, c := range seatmap.Classes(sel) {
		if _, ok := f.Offering(c); !ok {
			return model.Order{}, invalid("%s class is not sold on flight %s.", c, f.ID)
		}
	}
	for _, x := range sel {
		total += f.Price(x.Class)
	}

	layouts, err := tx.CabinLayouts(ctx, f.AirplaneID)
	if err != nil {
		return model.Order{}, err
	}
	m, err := s.seatMap(ctx, tx, f.ID, layouts)
	if err != nil {
		return model.Order{}, err
	}
	if err := m.Check(sel); err != nil {
		return model.Order{}, invalid("%s", err.Error())
	}
	if taken := m.Taken(sel); len(taken) > 0 {
		return model.Order{}, conflict("Seat %s is already taken.", seatmap.Label(taken[0].Ref()))
	}

	id, err := tx.NextOrderID(ctx)
	if err != nil {
		return model.Order{}, err
	}
	refs := make([]model.SeatRef, len(sel))
	for i, x := range sel {
		refs[i] = x.Ref()
	}
	order := model.Order{
		ID:            id,
		FlightID:      f.ID,
		CustomerType:  ct,
		CustomerEmail: email,
		CreatedAt:     now,
		TotalPrice:    round2(total),
		Status:        model.OrderActive,
		Tickets:       refs,
	}
	if err := tx.InsertOrder(ctx, order); err != nil {
		return model.Order{}, err
	}
	if err := tx.InsertTickets(ctx, order.ID, f.ID, refs); err != nil {
		return model.Order{}, err
	}

	after, err := s.seatMap(ctx, tx, f.ID, layouts)
	if err != nil {
		return model.Order{}, err
	}
	for _, c := range seatmap.Classes(sel) {
		if o, _ := f.Offering(c); o.Status == model.FlightActive && !after.HasFree(c) {
			if err := tx.SetClassStatus(ctx, f.ID, c, model.FlightFullyBooked); err != nil {
				return model.Order{}, err
			}
			log.WithFields(log.Fields{"flight_id": f.ID, "class": c}).Info("class fully booked")
		}
	}
	return order, nil
}

func (s *BookingService) seatMap(ctx context.Context, tx repository.Tx, flightID string, layouts []model.CabinLayout) (seatmap.Map, error) {
	occ, err := tx.OccupiedSeats(ctx, flightID)
	if err != nil {
		return seatmap.Map{}, err
	}
	return seatmap.Build(layouts, seatmap.NewOccupied(occ))
}

func labels(seats []model.SeatRef) []string {
	out := make([]string, len(seats))
	for i, s := range seats {
		out[i] = seatmap.Label(s)
	}
	return out
}

func cleanPhones(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
