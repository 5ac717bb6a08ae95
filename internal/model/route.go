package model

// LongFlightMinutes is the longest duration, in minutes, still considered a
// short flight.
const LongFlightMinutes = 360

// FlightType classifies a route by duration.
type FlightType string

const (
	ShortFlight FlightType = "short"
	LongFlight  FlightType = "long"
)

// FlightTypeFor returns LongFlight for durations above LongFlightMinutes.
func FlightTypeFor(durationMinutes int) FlightType {
	if durationMinutes > LongFlightMinutes {
		return LongFlight
	}
	return ShortFlight
}

// Route is a directional airport pair with a fixed flying time.  A→B and
// B→A are distinct routes.
type Route struct {
	Origin          string `json:"origin"`           // routes.origin_airport
	Destination     string `json:"destination"`      // routes.destination_airport
	DurationMinutes int    `json:"duration_minutes"` // routes.duration_minutes
}

// Type returns the flight type of the route.
func (r Route) Type() FlightType { return FlightTypeFor(r.DurationMinutes) }
