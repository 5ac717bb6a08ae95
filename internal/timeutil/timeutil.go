// Package timeutil normalises the datetime representations that reach the
// service (form inputs, stored strings, RFC 3339) and derives the display
// status of flights and orders from the current time.
package timeutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// layouts are tried in order after fractional seconds are stripped.
var layouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Parse reads a timestamp in one of the accepted layouts.  Fractional
// seconds are dropped.  Values without a zone are taken as UTC; RFC 3339
// values are converted to UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Truncate(time.Second), nil
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time value %q", s)
}

// ParseDate reads a calendar date (YYYY-MM-DD) as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// Minute formats t the way departures are stored and shown.
func Minute(t time.Time) string { return t.UTC().Format("2006-01-02 15:04") }

// FlightDisplayStatus layers Completed over Active once the arrival time has
// passed.  Canceled passes through unchanged.
func FlightDisplayStatus(status model.FlightStatus, arrival, now time.Time) string {
	if arrival.IsZero() {
		return string(status)
	}
	if status == model.FlightActive && !arrival.After(now) {
		return model.FlightCompleted
	}
	return string(status)
}

// ManagerDisplayStatus refines the headline status for the admin search when
// exactly one class is full.
func ManagerDisplayStatus(display string, eco, bus model.FlightStatus) string {
	if display == string(model.FlightCanceled) || display == model.FlightCompleted {
		return display
	}
	switch {
	case eco == model.FlightFullyBooked && bus == model.FlightActive:
		return "Economy: Full | Business: Active"
	case eco == model.FlightActive && bus == model.FlightFullyBooked:
		return "Economy: Active | Business: Full"
	}
	return display
}

// OrderDisplayStatus derives Completed for Active orders whose flight has
// arrived.  Terminal statuses pass through.
func OrderDisplayStatus(status model.OrderStatus, arrival, now time.Time) string {
	switch status {
	case model.OrderCustomerCancellation, model.OrderCompleted, model.OrderStatus(model.FlightCanceled):
		return string(status)
	case model.OrderActive:
		if !arrival.IsZero() && !arrival.After(now) {
			return string(model.OrderCompleted)
		}
	}
	return string(status)
}

// FormatDuration renders minutes as H:MM.
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// HoursUntil returns the hours from now until t, negative when t is past.
func HoursUntil(t, now time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return t.Sub(now).Hours()
}
