package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// OrderRepo persists orders and their tickets.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns an OrderRepo bound to db.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// OccupiedSeats returns the seats of the flight held by live tickets, that is
// tickets whose order is still Active.
func (r *OrderRepo) OccupiedSeats(ctx context.Context, flightID string) ([]model.SeatRef, error) {
	return r.occupied(ctx, r.db, flightID)
}

func (r *OrderRepo) occupied(ctx context.Context, q queryer, flightID string) ([]model.SeatRef, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.row_num, t.col_num
		FROM tickets t
		JOIN orders o ON o.order_id = t.order_id
		WHERE t.flight_id = ? AND o.status = 'Active'
		ORDER BY t.row_num, t.col_num`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeats(rows)
}

func scanSeats(rows *sql.Rows) ([]model.SeatRef, error) {
	out := []model.SeatRef{}
	for rows.Next() {
		var s model.SeatRef
		if err := rows.Scan(&s.Row, &s.Col); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// NextIDTx returns max(order_id)+1.  The value is not reserved: a concurrent
// transaction may compute the same id, in which case the later insert fails
// with ErrOrderIDTaken.
func (r *OrderRepo) NextIDTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(order_id), 0) + 1 FROM orders`).Scan(&id)
	return id, err
}

// CreateTx inserts the order row.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o model.Order) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (order_id, flight_id, customer_type, customer_email, created_at, total_price, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.FlightID, string(o.CustomerType), o.CustomerEmail, o.CreatedAt.UTC(), o.TotalPrice, string(o.Status))
	return mapDuplicate(err, ErrOrderIDTaken)
}

// CreateTicketsTx inserts one live ticket per seat in a single statement.  A
// seat already held by a live ticket yields ErrSeatTaken.
func (r *OrderRepo) CreateTicketsTx(ctx context.Context, tx *sql.Tx, orderID int64, flightID string, seats []model.SeatRef) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO tickets (order_id, flight_id, row_num, col_num, live) VALUES `
	args := make([]any, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, 1)"
		args = append(args, orderID, flightID, s.Row, s.Col)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return mapDuplicate(err, ErrSeatTaken)
}

const orderColumns = `SELECT order_id, flight_id, customer_type, customer_email, created_at, total_price, status FROM orders`

func scanOrder(row interface{ Scan(...any) error }) (model.Order, error) {
	var (
		o      model.Order
		ctype  string
		status string
	)
	if err := row.Scan(&o.ID, &o.FlightID, &ctype, &o.CustomerEmail, &o.CreatedAt, &o.TotalPrice, &status); err != nil {
		return model.Order{}, err
	}
	o.CustomerType = model.CustomerType(ctype)
	o.Status = model.OrderStatus(status)
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

// Get returns the order with its tickets.
func (r *OrderRepo) Get(ctx context.Context, id int64) (model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderColumns+` WHERE order_id = ?`, id))
	if err != nil {
		return model.Order{}, mapNoRows(err)
	}
	o.Tickets, err = r.Tickets(ctx, id)
	return o, err
}

// GetForUpdateTx reads and locks the order row with its tickets.
func (r *OrderRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id int64) (model.Order, error) {
	o, err := scanOrder(tx.QueryRowContext(ctx, orderColumns+` WHERE order_id = ? FOR UPDATE`, id))
	if err != nil {
		return model.Order{}, mapNoRows(err)
	}
	rows, err := tx.QueryContext(ctx, `SELECT row_num, col_num FROM tickets WHERE order_id = ? ORDER BY row_num, col_num`, id)
	if err != nil {
		return model.Order{}, err
	}
	defer rows.Close()
	o.Tickets, err = scanSeats(rows)
	return o, err
}

// Tickets returns the seats of an order regardless of its status.
func (r *OrderRepo) Tickets(ctx context.Context, orderID int64) ([]model.SeatRef, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT row_num, col_num FROM tickets WHERE order_id = ? ORDER BY row_num, col_num`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeats(rows)
}

// UpdateTx sets status and total price.
func (r *OrderRepo) UpdateTx(ctx context.Context, tx *sql.Tx, id int64, status model.OrderStatus, price float64) error {
	res, err := tx.ExecContext(ctx, `UPDATE orders SET status = ?, total_price = ? WHERE order_id = ?`, string(status), price, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// ReleaseTicketsTx takes the order's tickets out of the live-seat key so the
// seats can be sold again.  The rows are kept for history.
func (r *OrderRepo) ReleaseTicketsTx(ctx context.Context, tx *sql.Tx, orderID int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE tickets SET live = NULL WHERE order_id = ?`, orderID)
	return err
}

// CancelByFlightTx force-cancels every order of the flight with a zero price
// and returns how many orders changed.
func (r *OrderRepo) CancelByFlightTx(ctx context.Context, tx *sql.Tx, flightID string) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = 'System Cancellation', total_price = 0 WHERE flight_id = ?`, flightID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseFlightTicketsTx releases every ticket of the flight.
func (r *OrderRepo) ReleaseFlightTicketsTx(ctx context.Context, tx *sql.Tx, flightID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE tickets SET live = NULL WHERE flight_id = ?`, flightID)
	return err
}

// RetagTx changes the customer type of every order placed under email.
func (r *OrderRepo) RetagTx(ctx context.Context, tx *sql.Tx, email string, t model.CustomerType) (int64, error) {
	res, err := tx.ExecContext(ctx, `UPDATE orders SET customer_type = ? WHERE customer_email = ?`, string(t), email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByEmail returns the customer's orders with flight times and tickets,
// newest departure first.  When t is non-empty only orders of that customer
// type are returned.
func (r *OrderRepo) ListByEmail(ctx context.Context, email string, t model.CustomerType) ([]model.OrderView, error) {
	query := `
		SELECT o.order_id, o.flight_id, o.customer_type, o.customer_email, o.created_at, o.total_price, o.status,
		       f.departure_time,
		       DATE_ADD(f.departure_time, INTERVAL r.duration_minutes MINUTE) AS arrival_time
		FROM orders o
		JOIN (SELECT flight_id, MIN(departure_time) AS departure_time,
		             MIN(origin_airport) AS origin_airport, MIN(destination_airport) AS destination_airport
		      FROM flights GROUP BY flight_id) f ON f.flight_id = o.flight_id
		JOIN routes r ON r.origin_airport = f.origin_airport
		             AND r.destination_airport = f.destination_airport
		WHERE o.customer_email = ?`
	args := []any{email}
	if t != "" {
		query += ` AND o.customer_type = ?`
		args = append(args, string(t))
	}
	query += ` ORDER BY f.departure_time DESC, o.order_id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.OrderView{}
	ids := []any{}
	for rows.Next() {
		var (
			v      model.OrderView
			ctype  string
			status string
		)
		if err := rows.Scan(&v.ID, &v.FlightID, &ctype, &v.CustomerEmail, &v.CreatedAt, &v.TotalPrice, &status,
			&v.Departure, &v.Arrival); err != nil {
			return nil, err
		}
		v.CustomerType = model.CustomerType(ctype)
		v.Status = model.OrderStatus(status)
		out = append(out, v)
		ids = append(ids, v.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	tickets, err := r.ticketsOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Tickets = tickets[out[i].ID]
	}
	return out, nil
}

func (r *OrderRepo) ticketsOf(ctx context.Context, ids []any) (map[int64][]model.SeatRef, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, row_num, col_num FROM tickets WHERE order_id IN (`+placeholders+`) ORDER BY order_id, row_num, col_num`,
		ids...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64][]model.SeatRef{}
	for rows.Next() {
		var (
			id int64
			s  model.SeatRef
		)
		if err := rows.Scan(&id, &s.Row, &s.Col); err != nil {
			return nil, err
		}
		out[id] = append(out[id], s)
	}
	return out, rows.Err()
}

// FindForGuest returns the order when it was placed by a guest under email.
func (r *OrderRepo) FindForGuest(ctx context.Context, id int64, email string) (model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		orderColumns+` WHERE order_id = ? AND customer_email = ? AND customer_type = 'Guest'`, id, email))
	if err != nil {
		return model.Order{}, mapNoRows(err)
	}
	o.Tickets, err = r.Tickets(ctx, id)
	return o, err
}
