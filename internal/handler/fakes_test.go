package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/repository"
	"github.com/iliyamo/flight-reservation/internal/service"
	"github.com/iliyamo/flight-reservation/internal/utils"
)

const testSecret = "handler-test-secret"

// The fakes embed the interface they stand in for; calling a method a test
// did not override panics.

type fakeCatalog struct {
	Catalog
	search       func(model.FlightSearch, bool, int, int) (service.FlightPage, error)
	route        func(origin, destination string) (service.RouteInfo, error)
	guestOrder   func(id int64, email string) (model.OrderView, error)
	ordersOf     func(email string) (service.OrderList, error)
	computePrice func(id string, seats []string) (float64, error)
}

func (f *fakeCatalog) SearchFlights(_ context.Context, fs model.FlightSearch, manager bool, page, size int) (service.FlightPage, error) {
	return f.search(fs, manager, page, size)
}

func (f *fakeCatalog) Route(_ context.Context, o, d string) (service.RouteInfo, error) {
	return f.route(o, d)
}

func (f *fakeCatalog) GuestOrder(_ context.Context, id int64, email string) (model.OrderView, error) {
	return f.guestOrder(id, email)
}

func (f *fakeCatalog) CustomerOrders(_ context.Context, email string) (service.OrderList, error) {
	return f.ordersOf(email)
}

func (f *fakeCatalog) ComputePrice(_ context.Context, id string, seats []string) (float64, error) {
	return f.computePrice(id, seats)
}

type fakeBooker struct {
	got   service.BookingRequest
	guest service.GuestBooking
	err   error
}

func (f *fakeBooker) CreateOrder(_ context.Context, req service.BookingRequest) (model.Order, error) {
	f.got = req
	if f.err != nil {
		return model.Order{}, f.err
	}
	return model.Order{ID: 7, FlightID: req.FlightID, CustomerEmail: req.Email, CustomerType: req.CustomerType, Status: model.OrderActive}, nil
}

func (f *fakeBooker) GuestCheckout(_ context.Context, req service.GuestBooking) (model.Order, error) {
	f.guest = req
	if f.err != nil {
		return model.Order{}, f.err
	}
	return model.Order{ID: 8, FlightID: req.FlightID, CustomerEmail: req.Guest.Email, CustomerType: model.CustomerGuest}, nil
}

type fakeCanceller struct {
	Canceller
	id     int64
	who    service.Identity
	result service.CancelResult
	err    error
}

func (f *fakeCanceller) CancelOrder(_ context.Context, id int64, who service.Identity) (service.CancelResult, error) {
	f.id, f.who = id, who
	return f.result, f.err
}

type fakeScheduler struct {
	Scheduler
	origin string
	ft     model.FlightType
	dep    time.Time
	req    service.FlightRequest
}

func (f *fakeScheduler) AvailableAirplanes(_ context.Context, origin string, ft model.FlightType, dep time.Time) ([]model.Airplane, error) {
	f.origin, f.ft, f.dep = origin, ft, dep
	return []model.Airplane{{ID: "LG-1", Size: model.SizeLarge}}, nil
}

func (f *fakeScheduler) CreateFlight(_ context.Context, req service.FlightRequest) (string, error) {
	f.req = req
	return "FT0042", nil
}

type fakeReporter struct {
	from, to *time.Time
}

func (f *fakeReporter) Dashboard(_ context.Context, from, to *time.Time) (model.Dashboard, error) {
	f.from, f.to = from, to
	return model.Dashboard{
		TopRoutes:   []model.RankedItem{{Name: "TLV-ATH", Value: 3}},
		Revenue:     99.5,
		GeneratedAt: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
	}, nil
}

type fakeAccounts struct {
	Accounts
}

func (fakeAccounts) Login(_ context.Context, email, password string) (model.RegisteredUser, error) {
	if email != "dana@example.com" || password != "secret1" {
		return model.RegisteredUser{}, service.ErrInvalidCredentials
	}
	return model.RegisteredUser{Customer: model.Customer{Email: email, Type: model.CustomerRegistered}}, nil
}

type tokenRow struct {
	subject, role string
	revoked       bool
}

type fakeTokens struct {
	rows map[string]*tokenRow
}

func newFakeTokens() *fakeTokens { return &fakeTokens{rows: map[string]*tokenRow{}} }

func (f *fakeTokens) StoreRefresh(_ context.Context, subject, role, hash string, _ time.Time) error {
	f.rows[hash] = &tokenRow{subject: subject, role: role}
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (string, string, error) {
	r, ok := f.rows[hash]
	if !ok || r.revoked {
		return "", "", repository.ErrNotFound
	}
	return r.subject, r.role, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	if r, ok := f.rows[hash]; ok {
		r.revoked = true
	}
	return nil
}

func (f *fakeTokens) RevokeAllForSubject(_ context.Context, subject, role string) error {
	for _, r := range f.rows {
		if r.subject == subject && r.role == role {
			r.revoked = true
		}
	}
	return nil
}

func bearer(t *testing.T, subject, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, subject, role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func do(e *echo.Echo, method, target, body, auth string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
