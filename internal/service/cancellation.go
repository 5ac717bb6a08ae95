package service

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/queue"
	"github.com/iliyamo/flight-reservation/internal/repository"
	"github.com/iliyamo/flight-reservation/internal/seatmap"
)

const (
	// CancellationCutoff is how long before departure a customer may still
	// cancel.
	CancellationCutoff = 36 * time.Hour
	// CancellationFee is the share of the price retained on cancellation.
	CancellationFee = 0.05
)

// Outcome tells a customer cancellation apart from a policy refusal.
type Outcome string

const (
	OutcomeCanceled Outcome = "canceled"
	OutcomeRefused  Outcome = "refused"
)

// Identity is the caller of a customer cancellation.  Guests identify with
// the order id and the email they booked with.
type Identity struct {
	Email string
	Type  model.CustomerType
}

// CancelResult is the order after a cancellation request.  When Outcome is
// OutcomeRefused the order is unchanged.
type CancelResult struct {
	Order   model.Order `json:"order"`
	Outcome Outcome     `json:"outcome"`
}

// FlightCancellation summarises an administrative cancellation.
type FlightCancellation struct {
	FlightID       string `json:"flight_id"`
	OrdersCanceled int64  `json:"orders_canceled"`
}

// CancellationService cancels orders and flights.
type CancellationService struct {
	uow    TxRunner
	events EventPublisher
	now    Clock
}

// NewCancellationService returns a CancellationService.  A nil publisher
// disables events.
func NewCancellationService(uow TxRunner, events EventPublisher) *CancellationService {
	if events == nil {
		events = nopPublisher{}
	}
	return &CancellationService{uow: uow, events: events, now: utcNow}
}

// CancelOrder cancels one of the caller's own orders.  Orders of other
// customers are reported as not found.  Departing within the cutoff is a
// refusal, not an error: the order comes back unchanged.
func (s *CancellationService) CancelOrder(ctx context.Context, orderID int64, id Identity) (CancelResult, error) {
	email := repository.NormalizeEmail(id.Email)
	var res CancelResult
	err := s.uow.InTx(ctx, func(tx repository.Tx) error {
		now := s.now()
		o, err := tx.LockOrder(ctx, orderID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !owns(o, email, id.Type)) {
			return notFound("Order %d was not found.", orderID)
		}
		if err != nil {
			return err
		}
		if o.Status != model.OrderActive {
			return invalid("Order %d is not active.", orderID)
		}
		f, err := tx.LockFlight(ctx, o.FlightID)
		if err != nil {
			return err
		}
		if !f.Departure.After(now.Add(CancellationCutoff)) {
			res = CancelResult{Order: o, Outcome: OutcomeRefused}
			return nil
		}

		o.Status = model.OrderCustomerCancellation
		o.TotalPrice = round2(o.TotalPrice * CancellationFee)
		if err := tx.UpdateOrder(ctx, o.ID, o.Status, o.TotalPrice); err != nil {
			return err
		}
		if err := tx.ReleaseTickets(ctx, o.ID); err != nil {
			return err
		}
		if err := reopen(ctx, tx, f); err != nil {
			return err
		}
		res = CancelResult{Order: o, Outcome: OutcomeCanceled}
		return nil
	})
	if err != nil {
		if KindOf(err) != 0 {
			return CancelResult{}, err
		}
		return CancelResult{}, errors.Wrap(err, "cancel order")
	}

	fields := log.Fields{"order_id": res.Order.ID, "flight_id": res.Order.FlightID, "outcome": res.Outcome}
	if res.Outcome == OutcomeRefused {
		log.WithFields(fields).Info("order cancellation refused")
		return res, nil
	}
	log.WithFields(fields).WithField("total", res.Order.TotalPrice).Info("order canceled")
	ev := queue.NewOrderCanceled(res.Order, labels(res.Order.Tickets), s.now())
	if err := s.events.Publish(ctx, ev); err != nil {
		log.WithError(err).WithField("order_id", res.Order.ID).Warn("publish order.canceled failed")
	}
	return res, nil
}

// reopen flips every Fully Booked class of f that has a free seat again back
// to Active, recomputing from the live occupied set.
func reopen(ctx context.Context, tx repository.Tx, f model.Flight) error {
	layouts, err := tx.CabinLayouts(ctx, f.AirplaneID)
	if err != nil {
		return err
	}
	occ, err := tx.OccupiedSeats(ctx, f.ID)
	if err != nil {
		return err
	}
	m, err := seatmap.Build(layouts, seatmap.NewOccupied(occ))
	if err != nil {
		return err
	}
	for _, o := range f.Offerings {
		if o.Status == model.FlightFullyBooked && m.HasFree(o.Class) {
			if err := tx.SetClassStatus(ctx, f.ID, o.Class, model.FlightActive); err != nil {
				return err
			}
			log.WithFields(log.Fields{"flight_id": f.ID, "class": o.Class}).Info("class reopened")
		}
	}
	return nil
}

// CancelFlight cancels the flight regardless of the cutoff and force-cancels
// all of its orders with a zero price.
func (s *CancellationService) CancelFlight(ctx context.Context, flightID string) (FlightCancellation, error) {
	var res FlightCancellation
	err := s.uow.InTx(ctx, func(tx repository.Tx) error {
		f, err := tx.LockFlight(ctx, flightID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Flight %s was not found.", flightID)
		}
		if err != nil {
			return err
		}
		if f.Status() == model.FlightCanceled {
			return invalid("Flight %s is already canceled.", f.ID)
		}
		n, err := tx.CancelFlightOrders(ctx, f.ID)
		if err != nil {
			return err
		}
		if err := tx.ReleaseFlightTickets(ctx, f.ID); err != nil {
			return err
		}
		if err := tx.SetFlightStatus(ctx, f.ID, model.FlightCanceled); err != nil {
			return err
		}
		res = FlightCancellation{FlightID: f.ID, OrdersCanceled: n}
		return nil
	})
	if err != nil {
		if KindOf(err) != 0 {
			return FlightCancellation{}, err
		}
		return FlightCancellation{}, errors.Wrap(err, "cancel flight")
	}

	log.WithFields(log.Fields{"flight_id": res.FlightID, "orders": res.OrdersCanceled}).Info("flight canceled")
	if err := s.events.Publish(ctx, queue.NewFlightCanceled(res.FlightID, res.OrdersCanceled, s.now())); err != nil {
		log.WithError(err).WithField("flight_id", res.FlightID).Warn("publish flight.canceled failed")
	}
	return res, nil
}

func owns(o model.Order, email string, t model.CustomerType) bool {
	return o.CustomerEmail == email && o.CustomerType == t
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
