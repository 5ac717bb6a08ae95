// Package availability decides which airplanes and crew members can be
// assigned to a proposed flight.
//
// Every resource has a timeline of the flight-class rows it has been
// assigned to.  A resource is eligible for a flight leaving origin O at
// instant T when
//
//  1. it has never been assigned, or its latest assignment (by arrival)
//     lands at O no later than T, and
//  2. no committed (Active or Fully Booked) assignment has
//     departure <= T <= arrival, and
//  3. for long flights, the resource is long-haul capable (large airplane,
//     qualified crew).
//
// Canceled flights are not part of a timeline.
package availability

import (
	"time"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// Request describes the proposed flight window.
type Request struct {
	Origin    string
	Departure time.Time
	Type      model.FlightType
}

// Timeline is the assignment history of one resource in any order.
type Timeline []model.Interval

// committed drops canceled rows.
func (t Timeline) committed() Timeline {
	out := make(Timeline, 0, len(t))
	for _, iv := range t {
		if iv.Status != model.FlightCanceled {
			out = append(out, iv)
		}
	}
	return out
}

// Latest returns the intervals sharing the greatest arrival time.  Both class
// rows of one flight share an arrival, so more than one interval is normal.
func (t Timeline) Latest() []model.Interval {
	var out []model.Interval
	for _, iv := range t.committed() {
		switch {
		case len(out) == 0 || iv.Arrival.After(out[0].Arrival):
			out = []model.Interval{iv}
		case iv.Arrival.Equal(out[0].Arrival):
			out = append(out, iv)
		}
	}
	return out
}

// AtOriginBy reports whether the resource is positioned at origin no later
// than t.  A resource without history is positioned everywhere.  When several
// latest intervals tie, any of them landing at origin is enough.
func (t Timeline) AtOriginBy(origin string, at time.Time) bool {
	latest := t.Latest()
	if len(latest) == 0 {
		return true
	}
	for _, iv := range latest {
		if iv.Destination == origin && !iv.Arrival.After(at) {
			return true
		}
	}
	return false
}

// BusyAt reports whether a committed interval contains instant at, bounds
// included.
func (t Timeline) BusyAt(at time.Time) bool {
	for _, iv := range t {
		if !iv.Status.Committed() {
			continue
		}
		if !iv.Departure.After(at) && !iv.Arrival.Before(at) {
			return true
		}
	}
	return false
}

// Free combines location continuity and the overlap check.
func (t Timeline) Free(req Request) bool {
	return t.AtOriginBy(req.Origin, req.Departure) && !t.BusyAt(req.Departure)
}

// AirplaneCandidate is an airplane with its timeline.
type AirplaneCandidate struct {
	Airplane model.Airplane
	History  Timeline
}

// CrewCandidate is a crew member with their timeline.
type CrewCandidate struct {
	Member  model.CrewMember
	History Timeline
}

// Airplanes returns the eligible airplanes in input order.
func Airplanes(cands []AirplaneCandidate, req Request) []model.Airplane {
	out := make([]model.Airplane, 0, len(cands))
	for _, c := range cands {
		if req.Type == model.LongFlight && !c.Airplane.Large() {
			continue
		}
		if c.History.Free(req) {
			out = append(out, c.Airplane)
		}
	}
	return out
}

// Crew returns the eligible members of cands in input order.  cands should
// hold a single role.
func Crew(cands []CrewCandidate, req Request) []model.CrewMember {
	out := make([]model.CrewMember, 0, len(cands))
	for _, c := range cands {
		if req.Type == model.LongFlight && !c.Member.Qualified {
			continue
		}
		if c.History.Free(req) {
			out = append(out, c.Member)
		}
	}
	return out
}
