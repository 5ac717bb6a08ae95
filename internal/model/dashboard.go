package model

import "time"

// RankedItem is one entry of a dashboard top list.
type RankedItem struct {
	Name  string  `json:"name" db:"name"`
	Value float64 `json:"value" db:"value"`
}

// Dashboard aggregates the manager statistics.  Revenue and CancelRate
// honour the optional period; the top lists cover all time except
// TopMonths, which covers the trailing year.
type Dashboard struct {
	From          *time.Time   `json:"from,omitempty"`
	To            *time.Time   `json:"to,omitempty"`
	TopEmployees  []RankedItem `json:"top_employees"`
	TopCustomers  []RankedItem `json:"top_customers"`
	TopRoutes     []RankedItem `json:"top_routes"`
	TopMonths     []RankedItem `json:"top_months"`
	Revenue       float64      `json:"revenue"`
	CancelRate    float64      `json:"cancel_rate"`
	GeneratedAt   time.Time    `json:"generated_at"`
}
