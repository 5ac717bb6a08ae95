package model

import "time"

// FlightStatus is the persisted status of a flight-class row.
type FlightStatus string

const (
	FlightActive      FlightStatus = "Active"
	FlightFullyBooked FlightStatus = "Fully Booked"
	FlightCanceled    FlightStatus = "Canceled"
)

// FlightCompleted is only ever derived, never stored: an Active flight whose
// arrival time has passed is displayed as Completed.
const FlightCompleted = "Completed"

// Committed reports whether a flight in this status still holds its
// airplane and crew.
func (s FlightStatus) Committed() bool {
	return s == FlightActive || s == FlightFullyBooked
}

// Flight is one logical flight.  The store keeps one row per offered class
// sharing the same code, airplane, route and departure; here the shared
// fields are normalised once and each class becomes a FlightClassOffering.
//
// Fields:
//  ID              – generated code, two letters and three digits.
//  AirplaneID      – airplane operating the flight.
//  Origin          – origin airport code.
//  Destination     – destination airport code.
//  Departure       – scheduled departure (UTC).
//  DurationMinutes – route duration; arrival is Departure + duration.
//  Offerings       – per-class price and status, Economy first.
type Flight struct {
	ID              string                `json:"flight_id"`
	AirplaneID      string                `json:"airplane_id"`
	Origin          string                `json:"origin"`
	Destination     string                `json:"destination"`
	Departure       time.Time             `json:"departure_time"`
	DurationMinutes int                   `json:"duration_minutes"`
	Offerings       []FlightClassOffering `json:"offerings"`
}

// FlightClassOffering carries the price and status of a single class.
type FlightClassOffering struct {
	Class  ClassType    `json:"class_type"` // flights.class_type
	Price  float64      `json:"price"`      // flights.economy_price or flights.business_price
	Status FlightStatus `json:"status"`     // flights.status
}

// Arrival is derived from the departure and the route duration.
func (f Flight) Arrival() time.Time {
	return f.Departure.Add(time.Duration(f.DurationMinutes) * time.Minute)
}

// Type returns the flight type derived from the duration.
func (f Flight) Type() FlightType { return FlightTypeFor(f.DurationMinutes) }

// Offering returns the offering of class c, if the flight sells it.
func (f Flight) Offering(c ClassType) (FlightClassOffering, bool) {
	for _, o := range f.Offerings {
		if o.Class == c {
			return o, true
		}
	}
	return FlightClassOffering{}, false
}

// Status is the headline status of the flight across its class rows:
// Canceled wins over Fully Booked which wins over Active.
func (f Flight) Status() FlightStatus {
	return HeadlineStatus(f.classStatus(Economy), f.classStatus(Business))
}

// Price returns the price of class c, zero when the class is not sold.
func (f Flight) Price(c ClassType) float64 {
	o, _ := f.Offering(c)
	return o.Price
}

func (f Flight) classStatus(c ClassType) FlightStatus {
	o, _ := f.Offering(c)
	return o.Status
}

// HeadlineStatus folds the per-class statuses of a flight into one.  An empty
// status means the class is not offered.
func HeadlineStatus(eco, bus FlightStatus) FlightStatus {
	switch {
	case eco == FlightCanceled || bus == FlightCanceled:
		return FlightCanceled
	case eco == FlightFullyBooked || bus == FlightFullyBooked:
		return FlightFullyBooked
	default:
		return FlightActive
	}
}

// FlightSummary is one row of a flight search.
type FlightSummary struct {
	FlightID       string       `json:"flight_id"`
	Origin         string       `json:"origin"`
	Destination    string       `json:"destination"`
	Departure      time.Time    `json:"departure_time"`
	Arrival        time.Time    `json:"arrival_time"`
	Status         FlightStatus `json:"status"`
	EconomyStatus  FlightStatus `json:"economy_status,omitempty"`
	BusinessStatus FlightStatus `json:"business_status,omitempty"`
	DisplayStatus  string       `json:"display_status"`
}

// FlightSearch holds the optional search predicates.  Empty fields are not
// applied.  Date filters on the departure calendar day.
type FlightSearch struct {
	Date        *time.Time
	Origin      string
	Destination string
	Status      string
}

// Interval is one committed (or historical) use of an airplane or crew
// member by a flight-class row.
type Interval struct {
	FlightID    string       `json:"flight_id"`
	Origin      string       `json:"origin"`
	Destination string       `json:"destination"`
	Departure   time.Time    `json:"departure_time"`
	Arrival     time.Time    `json:"arrival_time"`
	Status      FlightStatus `json:"status"`
}

// Destination is a popular-destination card: the cheapest Economy fare of
// the Active future flights to Code.
type Destination struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}
