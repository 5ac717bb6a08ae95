package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/queue"
)

var dana = Identity{Email: "dana@example.com", Type: model.CustomerRegistered}

func TestCancelOrderCutoff(t *testing.T) {
	cases := []struct {
		name     string
		lead     time.Duration
		outcome  Outcome
		status   model.OrderStatus
		price    float64
		occupied int
	}{
		{"one minute past the cutoff", CancellationCutoff + time.Minute, OutcomeCanceled, model.OrderCustomerCancellation, 7.51, 0},
		{"exactly at the cutoff", CancellationCutoff, OutcomeRefused, model.OrderActive, 150.25, 1},
		{"35 hours before departure", 35 * time.Hour, OutcomeRefused, model.OrderActive, 150.25, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture()
			fx.addFlight("AB123", "SM-1", testNow.Add(tc.lead), eco(150.25))
			ctx := context.Background()
			o, err := fx.booking.CreateOrder(ctx, registered("AB123", "Economy-1-A"))
			require.NoError(t, err)

			res, err := fx.cancel.CancelOrder(ctx, o.ID, dana)
			require.NoError(t, err)
			assert.Equal(t, tc.outcome, res.Outcome)
			assert.Equal(t, tc.status, res.Order.Status)
			assert.InDelta(t, tc.price, res.Order.TotalPrice, 1e-9)

			stored := fx.store.orders[o.ID]
			assert.Equal(t, tc.status, stored.Status)
			assert.InDelta(t, tc.price, stored.TotalPrice, 1e-9)
			assert.Len(t, fx.store.occupied("AB123"), tc.occupied)
		})
	}
}

func TestCancelOrderPublishesOnlyOnCancel(t *testing.T) {
	fx := newFixture()
	fx.addFlight("AB123", "SM-1", testNow.Add(10*time.Hour), eco(100))
	fx.addFlight("AB124", "SM-1", testNow.Add(100*time.Hour), eco(100))
	ctx := context.Background()

	soon, err := fx.booking.CreateOrder(ctx, registered("AB123", "Economy-1-A"))
	require.NoError(t, err)
	later, err := fx.booking.CreateOrder(ctx, registered("AB124", "Economy-1-A"))
	require.NoError(t, err)

	_, err = fx.cancel.CancelOrder(ctx, soon.ID, dana)
	require.NoError(t, err)
	_, err = fx.cancel.CancelOrder(ctx, later.ID, dana)
	require.NoError(t, err)

	assert.Equal(t, []string{queue.OrderCreated, queue.OrderCreated, queue.OrderCanceled}, fx.events.types())
}

func TestCancelOrderRequiresOwner(t *testing.T) {
	fx := newFixture()
	fx.addFlight("AB123", "SM-1", testNow.Add(72*time.Hour), eco(100))
	ctx := context.Background()
	o, err := fx.booking.CreateOrder(ctx, registered("AB123", "Economy-1-A"))
	require.NoError(t, err)

	for _, id := range []Identity{
		{Email: "eve@example.com", Type: model.CustomerRegistered},
		{Email: "dana@example.com", Type: model.CustomerGuest},
		{Email: "dana@example.com"},
	} {
		_, err := fx.cancel.CancelOrder(ctx, o.ID, id)
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	}
	_, err = fx.cancel.CancelOrder(ctx, 999, dana)
	assert.Equal(t, KindNotFound, KindOf(err))

	assert.Equal(t, model.OrderActive, fx.store.orders[o.ID].Status)
}

func TestCancelOrderTwiceIsRejected(t *testing.T) {
	fx := newFixture()
	fx.addFlight("AB123", "SM-1", testNow.Add(72*time.Hour), eco(100))
	ctx := context.Background()
	o, err := fx.booking.CreateOrder(ctx, registered("AB123", "Economy-1-A"))
	require.NoError(t, err)

	_, err = fx.cancel.CancelOrder(ctx, o.ID, dana)
	require.NoError(t, err)
	_, err = fx.cancel.CancelOrder(ctx, o.ID, Identity{Email: "DANA@example.com", Type: model.CustomerRegistered})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, 5.0, fx.store.orders[o.ID].TotalPrice)
}

func TestCancelFlightCascades(t *testing.T) {
	fx := newFixture()
	fx.addFlight("LG001", "LG-1", testNow.Add(5*time.Hour), bus(900), eco(300))
	ctx := context.Background()

	_, err := fx.booking.CreateOrder(ctx, registered("LG001", "Business-1-A", "Business-1-B"))
	require.NoError(t, err)
	_, err = fx.booking.CreateOrder(ctx, BookingRequest{FlightID: "LG001", Email: "guest@example.com", CustomerType: model.CustomerGuest, Seats: []string{"Economy-3-C"}})
	require.NoError(t, err)
	require.Equal(t, model.FlightFullyBooked, fx.classStatus("LG001", model.Business))

	res, err := fx.cancel.CancelFlight(ctx, "LG001")
	require.NoError(t, err)
	assert.Equal(t, FlightCancellation{FlightID: "LG001", OrdersCanceled: 2}, res)

	for _, o := range fx.store.orders {
		assert.Equal(t, model.OrderSystemCancellation, o.Status)
		assert.Zero(t, o.TotalPrice)
	}
	assert.Empty(t, fx.store.occupied("LG001"))
	assert.Equal(t, model.FlightCanceled, fx.store.flights["LG001"].Status())
	assert.Equal(t, model.FlightCanceled, fx.classStatus("LG001", model.Economy))
	assert.Equal(t, queue.FlightCanceled, fx.events.types()[2])
	assert.Equal(t, int64(2), fx.events.events[2].OrdersCount)

	_, err = fx.cancel.CancelFlight(ctx, "LG001")
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = fx.cancel.CancelFlight(ctx, "NO000")
	assert.Equal(t, KindNotFound, KindOf(err))
}
