package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// FlightSearchQuery combines the optional filters with pagination.  Manager
// widens visibility to past, full and canceled flights; customers only see
// bookable flights departing after Now.
type FlightSearchQuery struct {
	model.FlightSearch
	Manager  bool
	Now      time.Time
	Page     int
	PageSize int
}

// Search returns one summary per logical flight matching q, ordered by
// departure, together with the total number of matches.  Every predicate is
// a placeholder; user input never reaches the SQL text.
func (r *FlightRepo) Search(ctx context.Context, q FlightSearchQuery) ([]model.FlightSummary, int64, error) {
	where := []string{}
	args := []any{}
	having := []string{}
	havingArgs := []any{}

	if q.Origin != "" {
		where = append(where, "f.origin_airport = ?")
		args = append(args, strings.ToUpper(q.Origin))
	}
	if q.Destination != "" {
		where = append(where, "f.destination_airport = ?")
		args = append(args, strings.ToUpper(q.Destination))
	}
	if q.Date != nil {
		where = append(where, "DATE(f.departure_time) = ?")
		args = append(args, q.Date.UTC().Format("2006-01-02"))
	}

	if !q.Manager {
		where = append(where, "f.departure_time > ?")
		args = append(args, q.Now.UTC())
		having = append(having, "SUM(f.status = 'Canceled') = 0", "SUM(f.status = 'Active') > 0")
	} else {
		switch q.Status {
		case "":
		case string(model.FlightActive):
			having = append(having, "SUM(f.status = 'Canceled') = 0", "SUM(f.status = 'Active') > 0",
				"MAX(DATE_ADD(f.departure_time, INTERVAL r.duration_minutes MINUTE)) > ?")
			havingArgs = append(havingArgs, q.Now.UTC())
		case string(model.FlightFullyBooked):
			having = append(having, "SUM(f.status = 'Canceled') = 0", "SUM(f.status = 'Fully Booked') > 0")
		case string(model.FlightCanceled):
			having = append(having, "SUM(f.status = 'Canceled') > 0")
		case model.FlightCompleted:
			having = append(having, "SUM(f.status = 'Canceled') = 0",
				"MAX(DATE_ADD(f.departure_time, INTERVAL r.duration_minutes MINUTE)) <= ?")
			havingArgs = append(havingArgs, q.Now.UTC())
		default:
			return []model.FlightSummary{}, 0, nil
		}
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	havingSQL := ""
	if len(having) > 0 {
		havingSQL = " HAVING " + strings.Join(having, " AND ")
	}
	allArgs := append(append([]any{}, args...), havingArgs...)

	grouped := `SELECT
			f.flight_id,
			MIN(f.origin_airport)      AS origin_airport,
			MIN(f.destination_airport) AS destination_airport,
			MIN(f.departure_time)      AS departure_time,
			MAX(DATE_ADD(f.departure_time, INTERVAL r.duration_minutes MINUTE)) AS arrival_time,
			MAX(CASE WHEN f.class_type = 'Economy'  THEN f.status END) AS economy_status,
			MAX(CASE WHEN f.class_type = 'Business' THEN f.status END) AS business_status
		FROM flights f
		JOIN routes r ON r.origin_airport = f.origin_airport
		             AND r.destination_airport = f.destination_airport
		WHERE ` + cond + `
		GROUP BY f.flight_id` + havingSQL

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM (`+grouped+`) t`, allArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	dataSQL := grouped + ` ORDER BY departure_time ASC, f.flight_id ASC LIMIT ? OFFSET ?`
	dataArgs := append(append([]any{}, allArgs...), size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.FlightSummary, 0, size)
	for rows.Next() {
		var (
			s        model.FlightSummary
			eco, bus sql.NullString
		)
		if err := rows.Scan(&s.FlightID, &s.Origin, &s.Destination, &s.Departure, &s.Arrival, &eco, &bus); err != nil {
			return nil, 0, err
		}
		s.EconomyStatus = model.FlightStatus(eco.String)
		s.BusinessStatus = model.FlightStatus(bus.String)
		s.Status = model.HeadlineStatus(s.EconomyStatus, s.BusinessStatus)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
