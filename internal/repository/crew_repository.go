package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// CrewRepo provides access to pilots, attendants and their assignments.
type CrewRepo struct {
	db *sql.DB
}

// NewCrewRepo constructs a CrewRepo with the given DB handle.
func NewCrewRepo(db *sql.DB) *CrewRepo { return &CrewRepo{db: db} }

const crewColumns = `SELECT employee_id, first_name, last_name, city, street, house_number, phone_number,
	start_date, role, qualifications FROM flight_crew`

func scanCrew(row interface{ Scan(...any) error }) (model.CrewMember, error) {
	var c model.CrewMember
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.City, &c.Street, &c.HouseNumber, &c.PhoneNumber,
		&c.StartDate, &c.Role, &c.Qualified)
	return c, err
}

// Create inserts a crew member.  An existing employee id yields ErrDuplicate.
func (r *CrewRepo) Create(ctx context.Context, c model.CrewMember) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO flight_crew (employee_id, first_name, last_name, city, street, house_number, phone_number,
		                         start_date, role, qualifications)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.FirstName, c.LastName, c.City, c.Street, c.HouseNumber, c.PhoneNumber,
		c.StartDate.UTC().Format("2006-01-02"), c.Role, c.Qualified)
	return mapDuplicate(err, ErrDuplicate)
}

// List returns crew members ordered by id.  An empty role lists everyone.
func (r *CrewRepo) List(ctx context.Context, role string) ([]model.CrewMember, error) {
	query, args := crewColumns, []any{}
	if role != "" {
		query += ` WHERE role = ?`
		args = append(args, role)
	}
	query += ` ORDER BY employee_id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.CrewMember{}
	for rows.Next() {
		c, err := scanCrew(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetMany returns the crew members with the given ids, keyed by id.  Unknown
// ids are simply absent from the result.
func (r *CrewRepo) GetMany(ctx context.Context, ids []int64) (map[int64]model.CrewMember, error) {
	out := map[int64]model.CrewMember{}
	if len(ids) == 0 {
		return out, nil
	}
	query := crewColumns + ` WHERE employee_id IN (`
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCrew(rows)
		if err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

// History returns, per employee of the role, every flight-class row the
// employee is assigned to.
func (r *CrewRepo) History(ctx context.Context, role string) (map[int64][]model.Interval, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ca.employee_id, f.flight_id, f.origin_airport, f.destination_airport, f.departure_time,
		       DATE_ADD(f.departure_time, INTERVAL r.duration_minutes MINUTE) AS arrival_time, f.status
		FROM crew_assignments ca
		JOIN flight_crew fc ON fc.employee_id = ca.employee_id
		JOIN flights f ON f.flight_id = ca.flight_id
		JOIN routes r ON r.origin_airport = f.origin_airport
		             AND r.destination_airport = f.destination_airport
		WHERE fc.role = ?`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64][]model.Interval{}
	for rows.Next() {
		var (
			id     int64
			iv     model.Interval
			status string
		)
		if err := rows.Scan(&id, &iv.FlightID, &iv.Origin, &iv.Destination, &iv.Departure, &iv.Arrival, &status); err != nil {
			return nil, err
		}
		iv.Status = model.FlightStatus(status)
		out[id] = append(out[id], iv)
	}
	return out, rows.Err()
}

// AssignTx links every employee to the flight.
func (r *CrewRepo) AssignTx(ctx context.Context, tx *sql.Tx, flightID string, employeeIDs []int64) error {
	if len(employeeIDs) == 0 {
		return nil
	}
	query := `INSERT INTO crew_assignments (employee_id, flight_id) VALUES `
	args := make([]any, 0, len(employeeIDs)*2)
	for i, id := range employeeIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, id, flightID)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return mapDuplicate(err, ErrDuplicate)
}
