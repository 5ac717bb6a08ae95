package model

import "time"

// Crew roles.
const (
	RolePilot     = "Pilot"
	RoleAttendant = "Attendant"
)

// Employee holds the fields shared by every airline employee.
type Employee struct {
	ID          int64     `json:"employee_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	City        string    `json:"city"`
	Street      string    `json:"street"`
	HouseNumber string    `json:"house_number"`
	PhoneNumber string    `json:"phone_number"`
	StartDate   time.Time `json:"start_date"`
}

// FullName joins first and last name.
func (e Employee) FullName() string { return e.FirstName + " " + e.LastName }

// CrewMember is a pilot or attendant.  Qualified crew may staff long
// flights.
type CrewMember struct {
	Employee
	Role      string `json:"role"`           // flight_crew.role
	Qualified bool   `json:"qualifications"` // flight_crew.qualifications
}

// Manager is an employee with access to the admin surface.
type Manager struct {
	Employee
	PasswordHash string `json:"-"` // managers.password_hash
}
