package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// FlightRepo reads and writes the flights table.  A logical flight is stored
// as one row per offered class; the repository folds those rows into a
// model.Flight and unfolds them again on insert.  Arrival time is never
// stored: queries join routes and add the duration to the departure.
type FlightRepo struct {
	db *sql.DB
}

// NewFlightRepo returns a FlightRepo bound to db.
func NewFlightRepo(db *sql.DB) *FlightRepo { return &FlightRepo{db: db} }

// DB exposes the underlying handle.
func (r *FlightRepo) DB() *sql.DB { return r.db }

const flightColumns = `
	SELECT f.flight_id, f.class_type, f.airplane_id, f.origin_airport, f.destination_airport,
	       f.departure_time, f.economy_price, f.business_price, f.status, r.duration_minutes
	FROM flights f
	JOIN routes r ON r.origin_airport = f.origin_airport
	             AND r.destination_airport = f.destination_airport`

// Get returns the flight with all of its class offerings.
func (r *FlightRepo) Get(ctx context.Context, id string) (model.Flight, error) {
	return getFlight(ctx, r.db, id, false)
}

// GetForUpdateTx is Get with the flight's class rows locked until the
// transaction ends.  Concurrent bookings of the same flight serialise here.
func (r *FlightRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (model.Flight, error) {
	return getFlight(ctx, tx, id, true)
}

func getFlight(ctx context.Context, q queryer, id string, lock bool) (model.Flight, error) {
	query := flightColumns + ` WHERE f.flight_id = ? ORDER BY f.class_type`
	if lock {
		query += ` FOR UPDATE`
	}
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return model.Flight{}, err
	}
	defer rows.Close()

	var (
		f     model.Flight
		found bool
	)
	for rows.Next() {
		var (
			class       string
			status      string
			eco, bus    sql.NullFloat64
			departure   time.Time
			duration    int
			airplane    string
			origin, dst string
			flightID    string
		)
		if err := rows.Scan(&flightID, &class, &airplane, &origin, &dst, &departure, &eco, &bus, &status, &duration); err != nil {
			return model.Flight{}, err
		}
		if !found {
			f = model.Flight{
				ID:              flightID,
				AirplaneID:      airplane,
				Origin:          origin,
				Destination:     dst,
				Departure:       departure.UTC(),
				DurationMinutes: duration,
			}
			found = true
		}
		o := model.FlightClassOffering{Class: model.ClassType(class), Status: model.FlightStatus(status)}
		if o.Class == model.Economy {
			o.Price = eco.Float64
		} else {
			o.Price = bus.Float64
		}
		f.Offerings = append(f.Offerings, o)
	}
	if err := rows.Err(); err != nil {
		return model.Flight{}, err
	}
	if !found {
		return model.Flight{}, ErrNotFound
	}
	return f, nil
}

// ExistsTx reports whether any row carries the flight code.
func (r *FlightRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	return flightExists(ctx, tx, id)
}

// Exists is ExistsTx outside a transaction.
func (r *FlightRepo) Exists(ctx context.Context, id string) (bool, error) {
	return flightExists(ctx, r.db, id)
}

func flightExists(ctx context.Context, q queryer, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM flights WHERE flight_id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTx writes one row per offering.  The Economy row carries
// economy_price, the Business row business_price.  A taken flight code
// yields ErrDuplicate.
func (r *FlightRepo) CreateTx(ctx context.Context, tx *sql.Tx, f model.Flight) error {
	if len(f.Offerings) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO flights (flight_id, class_type, airplane_id, origin_airport, destination_airport, departure_time, economy_price, business_price, status) VALUES `)
	args := make([]any, 0, len(f.Offerings)*9)
	for i, o := range f.Offerings {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		var eco, bus any
		if o.Class == model.Economy {
			eco = o.Price
		} else {
			bus = o.Price
		}
		status := o.Status
		if status == "" {
			status = model.FlightActive
		}
		args = append(args, f.ID, string(o.Class), f.AirplaneID, f.Origin, f.Destination,
			f.Departure.UTC(), eco, bus, string(status))
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return mapDuplicate(err, ErrDuplicate)
}

// SetClassStatusTx updates the status of one class row.
func (r *FlightRepo) SetClassStatusTx(ctx context.Context, tx *sql.Tx, id string, class model.ClassType, status model.FlightStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE flights SET status = ? WHERE flight_id = ? AND class_type = ?`,
		string(status), id, string(class))
	return err
}

// SetStatusTx updates every class row of the flight.
func (r *FlightRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id string, status model.FlightStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE flights SET status = ? WHERE flight_id = ?`, string(status), id)
	return err
}

// AirplaneHistory returns every flight-class row each airplane has been
// assigned to, keyed by airplane id.
func (r *FlightRepo) AirplaneHistory(ctx context.Context) (map[string][]model.Interval, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT f.airplane_id, f.flight_id, f.origin_airport, f.destination_airport, f.departure_time,
		       DATE_ADD(f.departure_time, INTERVAL r.duration_minutes MINUTE) AS arrival_time, f.status
		FROM flights f
		JOIN routes r ON r.origin_airport = f.origin_airport
		             AND r.destination_airport = f.destination_airport`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]model.Interval{}
	for rows.Next() {
		var (
			airplane string
			iv       model.Interval
			status   string
		)
		if err := rows.Scan(&airplane, &iv.FlightID, &iv.Origin, &iv.Destination, &iv.Departure, &iv.Arrival, &status); err != nil {
			return nil, err
		}
		iv.Status = model.FlightStatus(status)
		out[airplane] = append(out[airplane], iv)
	}
	return out, rows.Err()
}

// MinEconomyFares returns, for each of the given destinations that has one,
// the cheapest Economy price of the Active flights departing after now.
func (r *FlightRepo) MinEconomyFares(ctx context.Context, destinations []string, now time.Time) (map[string]float64, error) {
	out := map[string]float64{}
	if len(destinations) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(destinations)), ",")
	args := make([]any, 0, len(destinations)+1)
	for _, d := range destinations {
		args = append(args, d)
	}
	args = append(args, now.UTC())

	rows, err := r.db.QueryContext(ctx, `
		SELECT destination_airport, MIN(economy_price)
		FROM flights
		WHERE destination_airport IN (`+placeholders+`)
		  AND status = 'Active'
		  AND economy_price IS NOT NULL
		  AND departure_time > ?
		GROUP BY destination_airport`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			dst   string
			price float64
		)
		if err := rows.Scan(&dst, &price); err != nil {
			return nil, err
		}
		out[dst] = price
	}
	return out, rows.Err()
}
