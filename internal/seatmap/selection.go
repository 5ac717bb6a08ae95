package seatmap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// ErrInvalidSelection is wrapped by every selection parsing or validation
// failure.
var ErrInvalidSelection = errors.New("invalid seat selection")

// Selection is a seat chosen by a customer, written "Class-Row-Col"
// (for example "Economy-12-C").
type Selection struct {
	Class model.ClassType
	Row   int
	Col   string
}

// Ref returns the seat position of the selection.
func (s Selection) Ref() model.SeatRef { return model.SeatRef{Row: s.Row, Col: s.Col} }

// String renders the selection in its wire format.
func (s Selection) String() string { return fmt.Sprintf("%s-%d-%s", s.Class, s.Row, s.Col) }

// ParseSelection parses "Class-Row-Col".
func ParseSelection(raw string) (Selection, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 3 {
		return Selection{}, fmt.Errorf("%w: %q", ErrInvalidSelection, raw)
	}
	class := model.ClassType(strings.TrimSpace(parts[0]))
	if !class.Valid() {
		return Selection{}, fmt.Errorf("%w: unknown class %q", ErrInvalidSelection, parts[0])
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || row < 1 {
		return Selection{}, fmt.Errorf("%w: bad row in %q", ErrInvalidSelection, raw)
	}
	col := normalizeCol(parts[2])
	if ColumnIndex(col) == 0 {
		return Selection{}, fmt.Errorf("%w: bad column in %q", ErrInvalidSelection, raw)
	}
	return Selection{Class: class, Row: row, Col: col}, nil
}

// ParseSelections parses a non-empty list and rejects repeated seats.
func ParseSelections(raw []string) ([]Selection, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no seats selected", ErrInvalidSelection)
	}
	out := make([]Selection, 0, len(raw))
	seen := make(map[model.SeatRef]bool, len(raw))
	for _, r := range raw {
		s, err := ParseSelection(r)
		if err != nil {
			return nil, err
		}
		if seen[s.Ref()] {
			return nil, fmt.Errorf("%w: seat %s selected twice", ErrInvalidSelection, Label(s.Ref()))
		}
		seen[s.Ref()] = true
		out = append(out, s)
	}
	return out, nil
}

// Classes returns the distinct classes of the selections in first-seen order.
func Classes(sel []Selection) []model.ClassType {
	var out []model.ClassType
	seen := map[model.ClassType]bool{}
	for _, s := range sel {
		if !seen[s.Class] {
			seen[s.Class] = true
			out = append(out, s.Class)
		}
	}
	return out
}

// Check verifies that every selection exists in the grid under its stated
// class.  It does not look at availability.
func (m Map) Check(sel []Selection) error {
	for _, s := range sel {
		_, class, ok := m.Lookup(s.Row, s.Col)
		if !ok {
			return fmt.Errorf("%w: seat %s does not exist", ErrInvalidSelection, Label(s.Ref()))
		}
		if class != s.Class {
			return fmt.Errorf("%w: seat %s is in %s, not %s", ErrInvalidSelection, Label(s.Ref()), class, s.Class)
		}
	}
	return nil
}

// Taken returns the selections that are no longer available in the grid.
func (m Map) Taken(sel []Selection) []Selection {
	var out []Selection
	for _, s := range sel {
		if seat, _, ok := m.Lookup(s.Row, s.Col); ok && !seat.Available {
			out = append(out, s)
		}
	}
	return out
}

func normalizeCol(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
