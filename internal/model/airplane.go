package model

import "time"

// Airplane sizes.  Only large airplanes carry a Business cabin and only
// large airplanes may operate long flights.
const (
	SizeSmall = "small"
	SizeLarge = "large"
)

// ClassType names a cabin class.  The zero value is not a valid class.
type ClassType string

const (
	Economy  ClassType = "Economy"
	Business ClassType = "Business"
)

// Valid reports whether c is one of the known cabin classes.
func (c ClassType) Valid() bool { return c == Economy || c == Business }

// Airplane describes an aircraft of the fleet together with its cabin
// layouts.  An airplane owns one layout per class: Economy is always
// present, Business only for large airplanes.
//
// Fields:
//  ID           – airline-assigned identifier (e.g. a tail number).
//  Size         – small or large.
//  Manufacturer – free-text manufacturer name.
//  PurchaseDate – date the airplane joined the fleet.
//  Layouts      – cabin layouts, at most one per class.
type Airplane struct {
	ID           string        `json:"airplane_id"`   // airplanes.airplane_id
	Size         string        `json:"size"`          // airplanes.size
	Manufacturer string        `json:"manufacturer"`  // airplanes.manufacturer
	PurchaseDate time.Time     `json:"purchase_date"` // airplanes.purchase_date
	Layouts      []CabinLayout `json:"layouts,omitempty"`
}

// Large reports whether the airplane is of size large.
func (a Airplane) Large() bool { return a.Size == SizeLarge }

// Layout returns the layout for class c, if the airplane has one.
func (a Airplane) Layout(c ClassType) (CabinLayout, bool) {
	for _, l := range a.Layouts {
		if l.Class == c {
			return l, true
		}
	}
	return CabinLayout{}, false
}

// CabinLayout is the seat block of one class: Rows rows of Cols seats.
type CabinLayout struct {
	AirplaneID string    `json:"airplane_id"` // cabin_layouts.airplane_id
	Class      ClassType `json:"class_type"`  // cabin_layouts.class_type
	Rows       int       `json:"rows"`        // cabin_layouts.num_rows
	Cols       int       `json:"cols"`        // cabin_layouts.num_cols
}

// Seats returns the number of seats in the block.
func (l CabinLayout) Seats() int { return l.Rows * l.Cols }
