package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-reservation/internal/model"
)

func newMock(t *testing.T) (*UnitOfWork, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUnitOfWork(db), mock
}

func dupErr() error { return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"} }

func TestInTxCommitsOnSuccess(t *testing.T) {
	uow, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE flights SET status = ? WHERE flight_id = ?")).
		WithArgs("Canceled", "AB123").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := uow.InTx(context.Background(), func(tx Tx) error {
		return tx.SetFlightStatus(context.Background(), "AB123", model.FlightCanceled)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnError(t *testing.T) {
	uow, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := uow.InTx(context.Background(), func(tx Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnPanic(t *testing.T) {
	uow, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = uow.InTx(context.Background(), func(tx Tx) error { panic("boom") })
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertOrderMapsDuplicateToOrderIDTaken(t *testing.T) {
	uow, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(order_id), 0) + 1 FROM orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(int64(42), "AB123", "Guest", "a@b.c", sqlmock.AnyArg(), 100.0, "Active").
		WillReturnError(dupErr())
	mock.ExpectRollback()

	err := uow.InTx(context.Background(), func(tx Tx) error {
		id, err := tx.NextOrderID(context.Background())
		if err != nil {
			return err
		}
		return tx.InsertOrder(context.Background(), model.Order{
			ID: id, FlightID: "AB123", CustomerType: model.CustomerGuest, CustomerEmail: "a@b.c",
			CreatedAt: time.Now(), TotalPrice: 100, Status: model.OrderActive,
		})
	})
	assert.ErrorIs(t, err, ErrOrderIDTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTicketsMapsDuplicateToSeatTaken(t *testing.T) {
	uow, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tickets (order_id, flight_id, row_num, col_num, live) VALUES (?, ?, ?, ?, 1),(?, ?, ?, ?, 1)")).
		WithArgs(int64(7), "AB123", 1, "A", int64(7), "AB123", 1, "B").
		WillReturnError(dupErr())
	mock.ExpectRollback()

	err := uow.InTx(context.Background(), func(tx Tx) error {
		return tx.InsertTickets(context.Background(), 7, "AB123", []model.SeatRef{{Row: 1, Col: "A"}, {Row: 1, Col: "B"}})
	})
	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupiedSeatsOnlyCountsActiveOrders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE t.flight_id = \? AND o.status = 'Active'`).
		WithArgs("AB123").
		WillReturnRows(sqlmock.NewRows([]string{"row_num", "col_num"}).AddRow(1, "A").AddRow(3, "C"))

	seats, err := NewOrderRepo(db).OccupiedSeats(context.Background(), "AB123")
	require.NoError(t, err)
	assert.Equal(t, []model.SeatRef{{Row: 1, Col: "A"}, {Row: 3, Col: "C"}}, seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockOrderNotFound(t *testing.T) {
	uow, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE order_id = ? FOR UPDATE")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}))
	mock.ExpectRollback()

	err := uow.InTx(context.Background(), func(tx Tx) error {
		_, err := tx.LockOrder(context.Background(), 9)
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
