// Package grid contains the in-memory control-card grid model.
// This is part of the Functional Core - no I/O, only values and pure functions.
package grid

import "fmt"

// Columns is the fixed number of cells per row.
const Columns = 4

// Standard row counts used by deployments.
const (
	DefaultRows = 30
	LargeRows   = 40
)

// Cell is one single-character slot of a row.
type Cell struct {
	Value  string
	Locked bool
}

// Empty reports whether the cell holds no value.
func (c Cell) Empty() bool {
	return c.Value == ""
}

// Row is one checkpoint's four cells, keyed by row number.
type Row struct {
	Number int
	Cells  [Columns]Cell
}

// Cell returns the cell at 1-based column col.
func (r Row) Cell(col int) Cell {
	return r.Cells[col-1]
}

// Values returns the four cell values in column order.
func (r Row) Values() [Columns]string {
	var out [Columns]string
	for i, c := range r.Cells {
		out[i] = c.Value
	}
	return out
}

// FullyLocked reports whether every cell of the row was scan-assigned.
func (r Row) FullyLocked() bool {
	for _, c := range r.Cells {
		if !c.Locked {
			return false
		}
	}
	return true
}

// Position addresses one cell by row number and 1-based column.
type Position struct {
	Row int
	Col int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Col)
}

// Grid is the ordered collection of rows 1..N for one card.
type Grid struct {
	rows []Row
}

// New allocates an N-row grid with every cell empty and unlocked.
func New(rowCount int) *Grid {
	if rowCount < 0 {
		rowCount = 0
	}
	rows := make([]Row, rowCount)
	for i := range rows {
		rows[i].Number = i + 1
	}
	return &Grid{rows: rows}
}

// RowCount returns N.
func (g *Grid) RowCount() int {
	return len(g.rows)
}

// HasRow reports whether row number n exists.
func (g *Grid) HasRow(n int) bool {
	return n >= 1 && n <= len(g.rows)
}

// Contains reports whether p addresses an existing cell.
func (g *Grid) Contains(p Position) bool {
	return g.HasRow(p.Row) && p.Col >= 1 && p.Col <= Columns
}

// Row returns a copy of row n. The caller must check HasRow first.
func (g *Grid) Row(n int) Row {
	return g.rows[n-1]
}

// Cell returns a copy of the cell at p. The caller must check Contains first.
func (g *Grid) Cell(p Position) Cell {
	return g.rows[p.Row-1].Cells[p.Col-1]
}

// Put stores c at p. The caller must check Contains first.
func (g *Grid) Put(p Position, c Cell) {
	g.rows[p.Row-1].Cells[p.Col-1] = c
}

// PutRow replaces row r.Number wholesale. Rows outside 1..N are ignored and
// reported as false.
func (g *Grid) PutRow(r Row) bool {
	if !g.HasRow(r.Number) {
		return false
	}
	g.rows[r.Number-1] = r
	return true
}

// Rows returns a copy of all rows in row-number order.
func (g *Grid) Rows() []Row {
	out := make([]Row, len(g.rows))
	copy(out, g.rows)
	return out
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	return &Grid{rows: g.Rows()}
}

// Card identifies the card that owns a grid.
type Card struct {
	ID               int64
	Code             string // rally / card identity code
	Name             string
	CompetitorNumber int
	CompetitorID     int
	CardNumber       int
	CardID           int
	RowCount         int
	Finalized        bool
}
