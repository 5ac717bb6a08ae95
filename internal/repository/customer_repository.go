package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// CustomerRepo mirrors the registered_users, guests and phone_numbers tables.
type CustomerRepo struct{ db *sql.DB }

func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// NormalizeEmail lower-cases and trims an email so it can serve as a key.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// GetRegistered fetches a registered customer with their phone numbers.
func (r *CustomerRepo) GetRegistered(ctx context.Context, email string) (model.RegisteredUser, error) {
	email = NormalizeEmail(email)
	var u model.RegisteredUser
	err := r.db.QueryRowContext(ctx,
		"SELECT email,passport,password_hash,first_name,last_name,birth_date,registered_date FROM registered_users WHERE email=? LIMIT 1",
		email).Scan(&u.Email, &u.Passport, &u.PasswordHash, &u.FirstName, &u.LastName, &u.BirthDate, &u.RegisteredDate)
	if err != nil {
		return model.RegisteredUser{}, mapNoRows(err)
	}
	u.Type = model.CustomerRegistered
	u.Phones, err = r.Phones(ctx, email)
	return u, err
}

// Phones returns the phone numbers stored for email.
func (r *CustomerRepo) Phones(ctx context.Context, email string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT phone_number FROM phone_numbers WHERE email=? ORDER BY phone_number", NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *CustomerRepo) exists(ctx context.Context, q queryer, table, email string) (bool, error) {
	var one int
	// table is always one of two constants supplied by sqlTx.
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE email=? LIMIT 1", NormalizeEmail(email)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// DeletePhonesTx removes every phone number of email.
func (r *CustomerRepo) DeletePhonesTx(ctx context.Context, tx *sql.Tx, email string) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM phone_numbers WHERE email=?", NormalizeEmail(email))
	return err
}

// DeleteGuestTx removes the guest record of email.
func (r *CustomerRepo) DeleteGuestTx(ctx context.Context, tx *sql.Tx, email string) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM guests WHERE email=?", NormalizeEmail(email))
	return err
}

// CreateRegisteredTx inserts a registered customer.  An existing email yields
// ErrDuplicate.
func (r *CustomerRepo) CreateRegisteredTx(ctx context.Context, tx *sql.Tx, u model.RegisteredUser) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO registered_users (email,passport,password_hash,first_name,last_name,birth_date,registered_date) VALUES (?,?,?,?,?,?,?)",
		NormalizeEmail(u.Email), u.Passport, u.PasswordHash, u.FirstName, u.LastName,
		u.BirthDate.UTC().Format("2006-01-02"), u.RegisteredDate.UTC().Format("2006-01-02"))
	return mapDuplicate(err, ErrDuplicate)
}

// UpsertGuestTx inserts the guest or refreshes the stored names.
func (r *CustomerRepo) UpsertGuestTx(ctx context.Context, tx *sql.Tx, c model.Customer) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO guests (email,first_name,last_name) VALUES (?,?,?) ON DUPLICATE KEY UPDATE first_name=VALUES(first_name), last_name=VALUES(last_name)",
		NormalizeEmail(c.Email), c.FirstName, c.LastName)
	return err
}

// AddPhonesTx stores phone numbers for email.  Numbers already on file are
// left as they are.
func (r *CustomerRepo) AddPhonesTx(ctx context.Context, tx *sql.Tx, email string, t model.CustomerType, phones []string) error {
	if len(phones) == 0 {
		return nil
	}
	query := "INSERT IGNORE INTO phone_numbers (email,phone_number,customer_type) VALUES "
	args := make([]any, 0, len(phones)*3)
	for i, p := range phones {
		if i > 0 {
			query += ","
		}
		query += "(?,?,?)"
		args = append(args, NormalizeEmail(email), p, string(t))
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
