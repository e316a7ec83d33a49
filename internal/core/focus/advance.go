// Package focus computes where the cursor moves after a manual edit.
// This is part of the Functional Core - no I/O, only pure functions.
package focus

import "github.com/example/controlcard/internal/core/grid"

// Next returns the cell that receives focus after a one-character edit at
// current, reading left-to-right then top-to-bottom. ok is false when the
// edit was in the last column of the last row and focus should be cleared.
//
// The result depends only on the grid shape. Locked cells are not skipped.
func Next(rowCount int, current grid.Position) (next grid.Position, ok bool) {
	if current.Col < grid.Columns {
		return grid.Position{Row: current.Row, Col: current.Col + 1}, true
	}
	if current.Row < rowCount {
		return grid.Position{Row: current.Row + 1, Col: 1}, true
	}
	return grid.Position{}, false
}

// Pointer is the transient focus state of an editing session.
type Pointer struct {
	pos   grid.Position
	valid bool
}

// Get returns the focused position, or ok=false when nothing is focused.
func (p Pointer) Get() (grid.Position, bool) {
	return p.pos, p.valid
}

// Set focuses pos.
func (p *Pointer) Set(pos grid.Position) {
	p.pos = pos
	p.valid = true
}

// Clear removes focus.
func (p *Pointer) Clear() {
	p.pos = grid.Position{}
	p.valid = false
}

// Advance moves the pointer past current using Next.
func (p *Pointer) Advance(rowCount int, current grid.Position) {
	if next, ok := Next(rowCount, current); ok {
		p.Set(next)
		return
	}
	p.Clear()
}

// Move shifts focus by (dRow, dCol) and clamps to the grid. Used for cursor
// keys; with nothing focused it starts at 1:1.
func (p *Pointer) Move(rowCount, dRow, dCol int) {
	if rowCount < 1 {
		p.Clear()
		return
	}
	if !p.valid {
		p.Set(grid.Position{Row: 1, Col: 1})
		return
	}
	p.Set(grid.Position{
		Row: clamp(p.pos.Row+dRow, 1, rowCount),
		Col: clamp(p.pos.Col+dCol, 1, grid.Columns),
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
