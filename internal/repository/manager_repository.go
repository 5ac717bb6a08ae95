package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// ManagerRepo reads the managers table.  Managers are provisioned out of
// band; the application only authenticates them.
type ManagerRepo struct{ db *sql.DB }

func NewManagerRepo(db *sql.DB) *ManagerRepo { return &ManagerRepo{db: db} }

// Get fetches a manager by employee id.
func (r *ManagerRepo) Get(ctx context.Context, id int64) (model.Manager, error) {
	var m model.Manager
	err := r.db.QueryRowContext(ctx,
		"SELECT employee_id,first_name,last_name,city,street,house_number,phone_number,start_date,password_hash FROM managers WHERE employee_id=? LIMIT 1",
		id).Scan(&m.ID, &m.FirstName, &m.LastName, &m.City, &m.Street, &m.HouseNumber, &m.PhoneNumber, &m.StartDate, &m.PasswordHash)
	if err != nil {
		return model.Manager{}, mapNoRows(err)
	}
	return m, nil
}
