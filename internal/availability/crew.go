package availability

import (
	"fmt"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// CrewRequirement is the exact crew complement of an airplane size.
type CrewRequirement struct {
	Pilots     int
	Attendants int
}

// RequiredCrew returns the complement for size: 3 pilots and 6 attendants
// for large airplanes, 2 and 3 otherwise.
func RequiredCrew(size string) CrewRequirement {
	if size == model.SizeLarge {
		return CrewRequirement{Pilots: 3, Attendants: 6}
	}
	return CrewRequirement{Pilots: 2, Attendants: 3}
}

// CrewCountError reports a crew complement mismatch.
type CrewCountError struct {
	Size     string
	Role     string
	Required int
	Got      int
}

func (e *CrewCountError) Error() string {
	label := "Small"
	if e.Size == model.SizeLarge {
		label = "Large"
	}
	noun := "pilots"
	if e.Role == model.RoleAttendant {
		noun = "attendants"
	}
	return fmt.Sprintf("%s aircraft requires exactly %d %s.", label, e.Required, noun)
}

// ValidateCrew enforces the exact complement.  Pilots are checked before
// attendants.
func ValidateCrew(size string, pilots, attendants int) error {
	req := RequiredCrew(size)
	if pilots != req.Pilots {
		return &CrewCountError{Size: size, Role: model.RolePilot, Required: req.Pilots, Got: pilots}
	}
	if attendants != req.Attendants {
		return &CrewCountError{Size: size, Role: model.RoleAttendant, Required: req.Attendants, Got: attendants}
	}
	return nil
}
