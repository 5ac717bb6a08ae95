// Package seatmap builds the seat grid of a flight from the airplane's cabin
// layouts and the set of seats held by Active orders.
//
// Rows are numbered globally across the airplane: the Business block comes
// first and occupies rows [1, business_rows], Economy continues at
// business_rows+1.  Columns are lettered A, B, C ... from their 1-based
// index, so a layout may not exceed 26 columns.
package seatmap

import (
	"errors"
	"fmt"
	"sort"

	"github.com/iliyamo/flight-reservation/internal/model"
)

// MaxColumns is the widest supported cabin.
const MaxColumns = 26

// ErrLayoutOverflow is returned for layouts wider than MaxColumns.
var ErrLayoutOverflow = errors.New("seatmap: layout exceeds 26 columns")

// Seat is one cell of the grid.
type Seat struct {
	Row       int    `json:"row"`
	Column    string `json:"column"`
	Available bool   `json:"available"`
}

// Occupied is the set of seats held by Active orders on one flight.
type Occupied map[model.SeatRef]struct{}

// NewOccupied builds the set from ticket positions.  Column letters are
// normalised to upper case.
func NewOccupied(seats []model.SeatRef) Occupied {
	occ := make(Occupied, len(seats))
	for _, s := range seats {
		occ[model.SeatRef{Row: s.Row, Col: normalizeCol(s.Col)}] = struct{}{}
	}
	return occ
}

// Has reports whether the seat is taken.
func (o Occupied) Has(row int, col string) bool {
	_, ok := o[model.SeatRef{Row: row, Col: normalizeCol(col)}]
	return ok
}

// Block is the grid of one class together with its global row range.
type Block struct {
	Class    model.ClassType `json:"class_type"`
	FirstRow int             `json:"first_row"`
	LastRow  int             `json:"last_row"`
	Cols     int             `json:"cols"`
	Rows     [][]Seat        `json:"rows"`
	Free     int             `json:"free"`
}

// Map is the seat grid of a flight.
type Map struct {
	Blocks []Block `json:"blocks"`
}

// ColumnLetter converts a 1-based column index to its letter.
func ColumnLetter(i int) (string, error) {
	if i < 1 || i > MaxColumns {
		return "", fmt.Errorf("%w: column %d", ErrLayoutOverflow, i)
	}
	return string(rune('A' + i - 1)), nil
}

// ColumnIndex converts a column letter back to its 1-based index.  It
// returns 0 for anything that is not a single letter.
func ColumnIndex(col string) int {
	c := normalizeCol(col)
	if len(c) != 1 || c[0] < 'A' || c[0] > 'Z' {
		return 0
	}
	return int(c[0]-'A') + 1
}

// OrderLayouts returns the layouts with Business ahead of Economy.
func OrderLayouts(layouts []model.CabinLayout) []model.CabinLayout {
	out := append([]model.CabinLayout(nil), layouts...)
	sort.SliceStable(out, func(i, j int) bool { return classRank(out[i].Class) < classRank(out[j].Class) })
	return out
}

func classRank(c model.ClassType) int {
	if c == model.Business {
		return 0
	}
	return 1
}

// Build produces the grid.  A seat is available when it is not in occ,
// whichever order holds it; canceled orders must already be excluded from
// occ by the caller.
func Build(layouts []model.CabinLayout, occ Occupied) (Map, error) {
	var m Map
	next := 1
	for _, l := range OrderLayouts(layouts) {
		if l.Cols > MaxColumns {
			return Map{}, fmt.Errorf("%w: %s has %d columns", ErrLayoutOverflow, l.Class, l.Cols)
		}
		b := Block{Class: l.Class, FirstRow: next, LastRow: next + l.Rows - 1, Cols: l.Cols}
		b.Rows = make([][]Seat, 0, l.Rows)
		for r := next; r < next+l.Rows; r++ {
			row := make([]Seat, 0, l.Cols)
			for c := 1; c <= l.Cols; c++ {
				col := string(rune('A' + c - 1))
				free := !occ.Has(r, col)
				if free {
					b.Free++
				}
				row = append(row, Seat{Row: r, Column: col, Available: free})
			}
			b.Rows = append(b.Rows, row)
		}
		m.Blocks = append(m.Blocks, b)
		next += l.Rows
	}
	return m, nil
}

// Block returns the block of class c.
func (m Map) Block(c model.ClassType) (Block, bool) {
	for _, b := range m.Blocks {
		if b.Class == c {
			return b, true
		}
	}
	return Block{}, false
}

// Availability reports, per class, whether at least one seat is free.
func (m Map) Availability() map[model.ClassType]bool {
	out := make(map[model.ClassType]bool, len(m.Blocks))
	for _, b := range m.Blocks {
		out[b.Class] = b.Free > 0
	}
	return out
}

// HasFree reports whether class c has a free seat.  A class the airplane does
// not carry has none.
func (m Map) HasFree(c model.ClassType) bool {
	b, ok := m.Block(c)
	return ok && b.Free > 0
}

// Total returns the number of seats in the grid.
func (m Map) Total() int {
	n := 0
	for _, b := range m.Blocks {
		n += len(b.Rows) * b.Cols
	}
	return n
}

// Lookup returns the seat at (row, col) and the class whose block holds it.
func (m Map) Lookup(row int, col string) (Seat, model.ClassType, bool) {
	idx := ColumnIndex(col)
	for _, b := range m.Blocks {
		if row < b.FirstRow || row > b.LastRow || idx < 1 || idx > b.Cols {
			continue
		}
		return b.Rows[row-b.FirstRow][idx-1], b.Class, true
	}
	return Seat{}, "", false
}

// ClassOfRow returns the class whose block contains row.
func ClassOfRow(layouts []model.CabinLayout, row int) (model.ClassType, bool) {
	next := 1
	for _, l := range OrderLayouts(layouts) {
		if row >= next && row < next+l.Rows {
			return l.Class, true
		}
		next += l.Rows
	}
	return "", false
}

// GroupByClass labels seats ("12C") and groups them by the class block of
// their row.  Duplicate seats are reported once.
func GroupByClass(layouts []model.CabinLayout, seats []model.SeatRef) map[model.ClassType][]string {
	out := map[model.ClassType][]string{model.Business: {}, model.Economy: {}}
	seen := make(map[model.SeatRef]bool, len(seats))
	for _, s := range seats {
		key := model.SeatRef{Row: s.Row, Col: normalizeCol(s.Col)}
		if seen[key] {
			continue
		}
		seen[key] = true
		class, ok := ClassOfRow(layouts, s.Row)
		if !ok {
			class = model.Economy
		}
		out[class] = append(out[class], Label(key))
	}
	return out
}

// Label renders a seat as row number followed by column letter.
func Label(s model.SeatRef) string { return fmt.Sprintf("%d%s", s.Row, normalizeCol(s.Col)) }
