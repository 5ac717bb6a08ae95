package model

import "time"

// Customer is the part shared by registered customers and guests.  Email is
// the stable identity, also across a guest → registered migration.
type Customer struct {
	Email     string       `json:"email"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Type      CustomerType `json:"customer_type"`
	Phones    []string     `json:"phone_numbers"`
}

// RegisteredUser is a customer with an account.
type RegisteredUser struct {
	Customer
	PasswordHash   string    `json:"-"`               // registered_users.password_hash
	BirthDate      time.Time `json:"birth_date"`      // registered_users.birth_date
	Passport       string    `json:"passport"`        // registered_users.passport
	RegisteredDate time.Time `json:"registered_date"` // registered_users.registered_date
}
