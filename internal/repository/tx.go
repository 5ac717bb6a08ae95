package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Tx is the set of writes and consistent reads available inside one
// database transaction.  Every multi-step mutation of the reservation
// system (booking, cancellation, flight creation, registration) runs
// against a Tx so it either applies completely or not at all.
type Tx interface {
	// flights
	LockFlight(ctx context.Context, flightID string) (model.Flight, error)
	FlightExists(ctx context.Context, flightID string) (bool, error)
	InsertFlight(ctx context.Context, f model.Flight) error
	SetClassStatus(ctx context.Context, flightID string, class model.ClassType, status model.FlightStatus) error
	SetFlightStatus(ctx context.Context, flightID string, status model.FlightStatus) error
	AssignCrew(ctx context.Context, flightID string, employeeIDs []int64) error
	CabinLayouts(ctx context.Context, airplaneID string) ([]model.CabinLayout, error)

	// orders and tickets
	OccupiedSeats(ctx context.Context, flightID string) ([]model.SeatRef, error)
	NextOrderID(ctx context.Context) (int64, error)
	InsertOrder(ctx context.Context, o model.Order) error
	InsertTickets(ctx context.Context, orderID int64, flightID string, seats []model.SeatRef) error
	LockOrder(ctx context.Context, orderID int64) (model.Order, error)
	UpdateOrder(ctx context.Context, orderID int64, status model.OrderStatus, price float64) error
	ReleaseTickets(ctx context.Context, orderID int64) error
	CancelFlightOrders(ctx context.Context, flightID string) (int64, error)
	ReleaseFlightTickets(ctx context.Context, flightID string) error

	// customers
	RegisteredExists(ctx context.Context, email string) (bool, error)
	GuestExists(ctx context.Context, email string) (bool, error)
	DeletePhones(ctx context.Context, email string) error
	RetagOrders(ctx context.Context, email string, t model.CustomerType) (int64, error)
	DeleteGuest(ctx context.Context, email string) error
	InsertRegistered(ctx context.Context, u model.RegisteredUser) error
	UpsertGuest(ctx context.Context, c model.Customer) error
	InsertPhones(ctx context.Context, email string, t model.CustomerType, phones []string) error
}

// UnitOfWork runs functions inside database transactions.
type UnitOfWork struct {
	db        *sql.DB
	flights   *FlightRepo
	orders    *OrderRepo
	airplanes *AirplaneRepo
	crew      *CrewRepo
	customers *CustomerRepo
}

// NewUnitOfWork returns a UnitOfWork bound to db.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{
		db:        db,
		flights:   NewFlightRepo(db),
		orders:    NewOrderRepo(db),
		airplanes: NewAirplaneRepo(db),
		crew:      NewCrewRepo(db),
		customers: NewCustomerRepo(db),
	}
}

// InTx begins a transaction, calls fn and commits when fn returns nil.  Any
// error from fn, or a panic, rolls the transaction back.
func (u *UnitOfWork) InTx(ctx context.Context, fn func(tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&sqlTx{tx: tx, u: u}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// sqlTx routes every Tx method to the owning repository's ...Tx variant.
type sqlTx struct {
	tx *sql.Tx
	u  *UnitOfWork
}

func (t *sqlTx) LockFlight(ctx context.Context, id string) (model.Flight, error) {
	return t.u.flights.GetForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) FlightExists(ctx context.Context, id string) (bool, error) {
	return t.u.flights.ExistsTx(ctx, t.tx, id)
}

func (t *sqlTx) InsertFlight(ctx context.Context, f model.Flight) error {
	return t.u.flights.CreateTx(ctx, t.tx, f)
}

func (t *sqlTx) SetClassStatus(ctx context.Context, id string, class model.ClassType, st model.FlightStatus) error {
	return t.u.flights.SetClassStatusTx(ctx, t.tx, id, class, st)
}

func (t *sqlTx) SetFlightStatus(ctx context.Context, id string, st model.FlightStatus) error {
	return t.u.flights.SetStatusTx(ctx, t.tx, id, st)
}

func (t *sqlTx) AssignCrew(ctx context.Context, id string, employeeIDs []int64) error {
	return t.u.crew.AssignTx(ctx, t.tx, id, employeeIDs)
}

func (t *sqlTx) CabinLayouts(ctx context.Context, airplaneID string) ([]model.CabinLayout, error) {
	return t.u.airplanes.layouts(ctx, t.tx, airplaneID)
}

func (t *sqlTx) OccupiedSeats(ctx context.Context, flightID string) ([]model.SeatRef, error) {
	return t.u.orders.occupied(ctx, t.tx, flightID)
}

func (t *sqlTx) NextOrderID(ctx context.Context) (int64, error) {
	return t.u.orders.NextIDTx(ctx, t.tx)
}

func (t *sqlTx) InsertOrder(ctx context.Context, o model.Order) error {
	return t.u.orders.CreateTx(ctx, t.tx, o)
}

func (t *sqlTx) InsertTickets(ctx context.Context, orderID int64, flightID string, seats []model.SeatRef) error {
	return t.u.orders.CreateTicketsTx(ctx, t.tx, orderID, flightID, seats)
}

func (t *sqlTx) LockOrder(ctx context.Context, orderID int64) (model.Order, error) {
	return t.u.orders.GetForUpdateTx(ctx, t.tx, orderID)
}

func (t *sqlTx) UpdateOrder(ctx context.Context, orderID int64, st model.OrderStatus, price float64) error {
	return t.u.orders.UpdateTx(ctx, t.tx, orderID, st, price)
}

func (t *sqlTx) ReleaseTickets(ctx context.Context, orderID int64) error {
	return t.u.orders.ReleaseTicketsTx(ctx, t.tx, orderID)
}

func (t *sqlTx) CancelFlightOrders(ctx context.Context, flightID string) (int64, error) {
	return t.u.orders.CancelByFlightTx(ctx, t.tx, flightID)
}

func (t *sqlTx) ReleaseFlightTickets(ctx context.Context, flightID string) error {
	return t.u.orders.ReleaseFlightTicketsTx(ctx, t.tx, flightID)
}

func (t *sqlTx) RegisteredExists(ctx context.Context, email string) (bool, error) {
	return t.u.customers.exists(ctx, t.tx, "registered_users", email)
}

func (t *sqlTx) GuestExists(ctx context.Context, email string) (bool, error) {
	return t.u.customers.exists(ctx, t.tx, "guests", email)
}

func (t *sqlTx) DeletePhones(ctx context.Context, email string) error {
	return t.u.customers.DeletePhonesTx(ctx, t.tx, email)
}

func (t *sqlTx) RetagOrders(ctx context.Context, email string, ct model.CustomerType) (int64, error) {
	return t.u.orders.RetagTx(ctx, t.tx, email, ct)
}

func (t *sqlTx) DeleteGuest(ctx context.Context, email string) error {
	return t.u.customers.DeleteGuestTx(ctx, t.tx, email)
}

func (t *sqlTx) InsertRegistered(ctx context.Context, u model.RegisteredUser) error {
	return t.u.customers.CreateRegisteredTx(ctx, t.tx, u)
}

func (t *sqlTx) UpsertGuest(ctx context.Context, c model.Customer) error {
	return t.u.customers.UpsertGuestTx(ctx, t.tx, c)
}

func (t *sqlTx) InsertPhones(ctx context.Context, email string, ct model.CustomerType, phones []string) error {
	return t.u.customers.AddPhonesTx(ctx, t.tx, email, ct, phones)
}
