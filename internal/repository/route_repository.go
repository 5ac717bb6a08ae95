package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// RouteRepo provides access to routes and the airports they connect.
type RouteRepo struct {
	db *sql.DB
}

// NewRouteRepo constructs a RouteRepo with the given DB handle.
func NewRouteRepo(db *sql.DB) *RouteRepo { return &RouteRepo{db: db} }

// Create inserts a route.  An existing (origin, destination) pair yields
// ErrDuplicate.
func (r *RouteRepo) Create(ctx context.Context, rt model.Route) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO routes (origin_airport, destination_airport, duration_minutes) VALUES (?, ?, ?)`,
		rt.Origin, rt.Destination, rt.DurationMinutes)
	return mapDuplicate(err, ErrDuplicate)
}

// Get returns the route from origin to destination.
func (r *RouteRepo) Get(ctx context.Context, origin, destination string) (model.Route, error) {
	var rt model.Route
	err := r.db.QueryRowContext(ctx,
		`SELECT origin_airport, destination_airport, duration_minutes FROM routes
		 WHERE origin_airport = ? AND destination_airport = ?`, origin, destination).
		Scan(&rt.Origin, &rt.Destination, &rt.DurationMinutes)
	if err != nil {
		return model.Route{}, mapNoRows(err)
	}
	return rt, nil
}

// List returns every route ordered by origin then destination.
func (r *RouteRepo) List(ctx context.Context) ([]model.Route, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT origin_airport, destination_airport, duration_minutes FROM routes ORDER BY origin_airport, destination_airport`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Route{}
	for rows.Next() {
		var rt model.Route
		if err := rows.Scan(&rt.Origin, &rt.Destination, &rt.DurationMinutes); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// Origins returns the distinct origin airports.
func (r *RouteRepo) Origins(ctx context.Context) ([]string, error) {
	return r.codes(ctx, `SELECT DISTINCT origin_airport FROM routes ORDER BY origin_airport`)
}

// DestinationsFrom returns the airports reachable directly from origin.
func (r *RouteRepo) DestinationsFrom(ctx context.Context, origin string) ([]string, error) {
	return r.codes(ctx,
		`SELECT destination_airport FROM routes WHERE origin_airport = ? ORDER BY destination_airport`, origin)
}

func (r *RouteRepo) codes(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
