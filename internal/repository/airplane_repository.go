package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// AirplaneRepo provides access to airplanes and their cabin layouts.
type AirplaneRepo struct {
	db *sql.DB
}

// NewAirplaneRepo constructs an AirplaneRepo with the given DB handle.
func NewAirplaneRepo(db *sql.DB) *AirplaneRepo { return &AirplaneRepo{db: db} }

// Create inserts the airplane and all of its layouts in one transaction.  An
// existing airplane id yields ErrDuplicate.
func (r *AirplaneRepo) Create(ctx context.Context, a model.Airplane) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO airplanes (airplane_id, size, manufacturer, purchase_date) VALUES (?, ?, ?, ?)`,
		a.ID, a.Size, a.Manufacturer, a.PurchaseDate.UTC().Format("2006-01-02")); err != nil {
		return mapDuplicate(err, ErrDuplicate)
	}
	if len(a.Layouts) > 0 {
		query := `INSERT INTO cabin_layouts (airplane_id, class_type, num_rows, num_cols) VALUES `
		args := make([]any, 0, len(a.Layouts)*4)
		for i, l := range a.Layouts {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?)"
			args = append(args, a.ID, string(l.Class), l.Rows, l.Cols)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return mapDuplicate(err, ErrDuplicate)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Get returns the airplane with its layouts.
func (r *AirplaneRepo) Get(ctx context.Context, id string) (model.Airplane, error) {
	var a model.Airplane
	err := r.db.QueryRowContext(ctx,
		`SELECT airplane_id, size, manufacturer, purchase_date FROM airplanes WHERE airplane_id = ?`, id).
		Scan(&a.ID, &a.Size, &a.Manufacturer, &a.PurchaseDate)
	if err != nil {
		return model.Airplane{}, mapNoRows(err)
	}
	a.Layouts, err = r.layouts(ctx, r.db, id)
	return a, err
}

// List returns every airplane with its layouts, ordered by id.
func (r *AirplaneRepo) List(ctx context.Context) ([]model.Airplane, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.airplane_id, a.size, a.manufacturer, a.purchase_date, l.class_type, l.num_rows, l.num_cols
		FROM airplanes a
		LEFT JOIN cabin_layouts l ON l.airplane_id = a.airplane_id
		ORDER BY a.airplane_id, l.class_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Airplane{}
	for rows.Next() {
		var (
			a          model.Airplane
			class      sql.NullString
			rowsN, col sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.Size, &a.Manufacturer, &a.PurchaseDate, &class, &rowsN, &col); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].ID != a.ID {
			out = append(out, a)
		}
		if class.Valid {
			last := &out[len(out)-1]
			last.Layouts = append(last.Layouts, model.CabinLayout{
				AirplaneID: a.ID,
				Class:      model.ClassType(class.String),
				Rows:       int(rowsN.Int64),
				Cols:       int(col.Int64),
			})
		}
	}
	return out, rows.Err()
}

// Layouts returns the cabin layouts of one airplane.
func (r *AirplaneRepo) Layouts(ctx context.Context, id string) ([]model.CabinLayout, error) {
	return r.layouts(ctx, r.db, id)
}

func (r *AirplaneRepo) layouts(ctx context.Context, q queryer, id string) ([]model.CabinLayout, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT airplane_id, class_type, num_rows, num_cols FROM cabin_layouts WHERE airplane_id = ? ORDER BY class_type`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.CabinLayout{}
	for rows.Next() {
		var (
			l     model.CabinLayout
			class string
		)
		if err := rows.Scan(&l.AirplaneID, &class, &l.Rows, &l.Cols); err != nil {
			return nil, err
		}
		l.Class = model.ClassType(class)
		out = append(out, l)
	}
	return out, rows.Err()
}
