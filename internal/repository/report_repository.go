package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// ReportRepo runs the manager dashboard aggregations.  Rows are scanned
// straight into model.RankedItem through sqlx struct tags.
type ReportRepo struct {
	db *sqlx.DB
}

// NewReportRepo wraps db for struct scanning.
func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{db: sqlx.NewDb(db, "mysql")}
}

// logicalFlights yields one row per flight code with its arrival time and
// whether any class row was canceled.
const logicalFlights = `
	SELECT f.flight_id,
	       MIN(f.origin_airport)      AS origin_airport,
	       MIN(f.destination_airport) AS destination_airport,
	       MIN(r.duration_minutes)    AS duration_minutes,
	       MAX(DATE_ADD(f.departure_time, INTERVAL r.duration_minutes MINUTE)) AS arrival_time,
	       SUM(f.status = 'Canceled') AS canceled_rows
	FROM flights f
	JOIN routes r ON r.origin_airport = f.origin_airport
	             AND r.destination_airport = f.destination_airport
	GROUP BY f.flight_id`

// TopCrewByHours ranks crew members by flight hours on flights that have
// landed before now and were not canceled.
func (r *ReportRepo) TopCrewByHours(ctx context.Context, now time.Time, limit int) ([]model.RankedItem, error) {
	out := []model.RankedItem{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT CONCAT(fc.first_name, ' ', fc.last_name) AS name,
		       ROUND(SUM(lf.duration_minutes) / 60.0, 1) AS value
		FROM flight_crew fc
		JOIN crew_assignments ca ON ca.employee_id = fc.employee_id
		JOIN (`+logicalFlights+`) lf ON lf.flight_id = ca.flight_id
		WHERE lf.canceled_rows = 0 AND lf.arrival_time <= ?
		GROUP BY fc.employee_id, fc.first_name, fc.last_name
		ORDER BY value DESC, fc.employee_id ASC
		LIMIT ?`, now.UTC(), limit)
	return out, err
}

// TopCustomers ranks customers by spend on Active and Completed orders.
func (r *ReportRepo) TopCustomers(ctx context.Context, limit int) ([]model.RankedItem, error) {
	out := []model.RankedItem{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT CONCAT(COALESCE(ru.first_name, g.first_name, o.customer_email), ' ',
		              COALESCE(ru.last_name, g.last_name, '')) AS name,
		       ROUND(SUM(o.total_price), 2) AS value
		FROM orders o
		LEFT JOIN registered_users ru ON ru.email = o.customer_email
		LEFT JOIN guests g ON g.email = o.customer_email
		WHERE o.status IN ('Active', 'Completed')
		GROUP BY o.customer_email, ru.first_name, ru.last_name, g.first_name, g.last_name
		ORDER BY value DESC, o.customer_email ASC
		LIMIT ?`, limit)
	return out, err
}

// TopRoutes ranks routes by the number of tickets held by Active and
// Completed orders.
func (r *ReportRepo) TopRoutes(ctx context.Context, limit int) ([]model.RankedItem, error) {
	out := []model.RankedItem{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT CONCAT(lf.origin_airport, ' → ', lf.destination_airport) AS name,
		       COUNT(*) AS value
		FROM tickets t
		JOIN orders o ON o.order_id = t.order_id
		JOIN (`+logicalFlights+`) lf ON lf.flight_id = t.flight_id
		WHERE o.status IN ('Active', 'Completed')
		GROUP BY lf.origin_airport, lf.destination_airport
		ORDER BY value DESC, name ASC
		LIMIT ?`, limit)
	return out, err
}

// TopMonths ranks calendar months by the number of orders placed since
// since.  Name is the English month name.
func (r *ReportRepo) TopMonths(ctx context.Context, since time.Time, limit int) ([]model.RankedItem, error) {
	out := []model.RankedItem{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT MONTHNAME(MIN(created_at)) AS name, COUNT(*) AS value
		FROM orders
		WHERE created_at >= ?
		GROUP BY MONTH(created_at)
		ORDER BY value DESC, MONTH(created_at) ASC
		LIMIT ?`, since.UTC(), limit)
	return out, err
}

type periodTotals struct {
	Revenue    float64 `db:"revenue"`
	CancelRate float64 `db:"cancel_rate"`
}

// Totals returns revenue and the customer cancellation rate in percent of the
// orders created within [from, to].  Nil bounds are open.
func (r *ReportRepo) Totals(ctx context.Context, from, to *time.Time) (float64, float64, error) {
	query := `
		SELECT COALESCE(ROUND(SUM(total_price), 2), 0) AS revenue,
		       COALESCE(ROUND(SUM(status = 'Customer Cancellation') * 100.0 / NULLIF(COUNT(*), 0), 2), 0) AS cancel_rate
		FROM orders WHERE 1=1`
	args := []any{}
	if from != nil {
		query += ` AND created_at >= ?`
		args = append(args, from.UTC())
	}
	if to != nil {
		query += ` AND created_at <= ?`
		args = append(args, to.UTC())
	}
	var t periodTotals
	if err := r.db.GetContext(ctx, &t, query, args...); err != nil {
		return 0, 0, err
	}
	return t.Revenue, t.CancelRate, nil
}
