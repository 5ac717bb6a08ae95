package model

import "time"

// OrderStatus is the persisted status of an order.
type OrderStatus string

const (
	OrderActive               OrderStatus = "Active"
	OrderCustomerCancellation OrderStatus = "Customer Cancellation"
	OrderSystemCancellation   OrderStatus = "System Cancellation"
	OrderCompleted            OrderStatus = "Completed"
)

// CustomerType distinguishes registered customers from guests.
type CustomerType string

const (
	CustomerRegistered CustomerType = "Registered"
	CustomerGuest      CustomerType = "Guest"
)

// Order is a booking of one or more seats on a single flight.
//
// Fields:
//  ID            – max+1 identifier, unique by primary key.
//  FlightID      – flight the seats belong to.
//  CustomerType  – Registered or Guest.
//  CustomerEmail – natural key of the customer.
//  CreatedAt     – when the order was placed.
//  TotalPrice    – sum of seat prices, adjusted on cancellation.
//  Status        – Active, Customer Cancellation, System Cancellation or Completed.
//  Tickets       – seats held by the order.
type Order struct {
	ID            int64        `json:"order_id"`       // orders.order_id
	FlightID      string       `json:"flight_id"`      // orders.flight_id
	CustomerType  CustomerType `json:"customer_type"`  // orders.customer_type
	CustomerEmail string       `json:"customer_email"` // orders.customer_email
	CreatedAt     time.Time    `json:"created_at"`     // orders.created_at
	TotalPrice    float64      `json:"total_price"`    // orders.total_price
	Status        OrderStatus  `json:"status"`         // orders.status
	Tickets       []SeatRef    `json:"tickets,omitempty"`
}

// SeatRef addresses one seat of a flight by global row and column letter.
type SeatRef struct {
	Row int    `json:"row"`    // tickets.row_num
	Col string `json:"column"` // tickets.col_num
}

// OrderView is an order joined with its flight times for display.
type OrderView struct {
	Order
	Departure     time.Time              `json:"departure_time"`
	Arrival       time.Time              `json:"arrival_time"`
	DisplayStatus string                 `json:"display_status"`
	Seats         map[ClassType][]string `json:"seats,omitempty"`
}
