// Package repository holds the MySQL data access of the reservation system.
// Repositories are thin: they run parameterised statements and map rows and
// driver errors, leaving every business rule to the service layer.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a natural key, such as an
// existing route, airplane, crew member, email or flight code.
var ErrDuplicate = errors.New("duplicate")

// ErrOrderIDTaken is returned when a concurrent booking inserted the same
// max+1 order id first.  The booking transaction is rolled back and may be
// retried.
var ErrOrderIDTaken = errors.New("order id taken")

// ErrSeatTaken is returned when a live ticket already holds one of the seats.
var ErrSeatTaken = errors.New("seat taken")

const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// mapDuplicate turns a duplicate-key error into target and leaves other
// errors unchanged.
func mapDuplicate(err, target error) error {
	if err != nil && isDuplicate(err) {
		return target
	}
	return err
}

// mapNoRows turns sql.ErrNoRows into ErrNotFound.
func mapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
