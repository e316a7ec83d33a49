// Package scan maps decoded checkpoint QR payloads onto grid cells.
// This is part of the Functional Core - no I/O, only pure functions.
package scan

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/failure"
)

// Separator splits the row number from the letter in a payload.
const Separator = ":"

// Payload is a parsed "<row>:<letter>" scan.
type Payload struct {
	Row    int
	Letter string
}

// Parse decodes a scan payload. Both parts are whitespace-trimmed; the row
// must be a base-10 integer and the letter exactly one printable character.
func Parse(decoded string) (Payload, error) {
	rowPart, letterPart, found := strings.Cut(decoded, Separator)
	if !found {
		return Payload{}, failure.New(failure.MalformedScan, "scan %q has no %q separator", decoded, Separator)
	}

	row, err := strconv.Atoi(strings.TrimSpace(rowPart))
	if err != nil {
		return Payload{}, failure.Wrap(failure.MalformedScan, err, "scan %q has no numeric row", decoded)
	}

	letter := strings.TrimSpace(letterPart)
	if letter == "" {
		return Payload{}, failure.New(failure.MalformedScan, "scan %q has no letter", decoded)
	}
	if utf8.RuneCountInString(letter) != 1 {
		return Payload{}, failure.New(failure.MalformedScan, "scan %q letter must be a single character", decoded)
	}
	if r, _ := utf8.DecodeRuneInString(letter); r == utf8.RuneError || !unicode.IsPrint(r) {
		return Payload{}, failure.New(failure.MalformedScan, "scan %q letter is not printable", decoded)
	}

	return Payload{Row: row, Letter: letter}, nil
}

// Assignment is the cell chosen for a scan.
type Assignment struct {
	Position grid.Position
	Value    string
}

// Target picks the cell in row that receives letter: the first cell in
// column order 1..4 that is both empty and unlocked. Manually typed values
// are skipped and preserved.
func Target(row grid.Row) (col int, ok bool) {
	for i, c := range row.Cells {
		if c.Empty() && !c.Locked {
			return i + 1, true
		}
	}
	return 0, false
}

// Assign parses decoded and writes the letter into g, locking the target
// cell. On any failure g is left untouched.
func Assign(g *grid.Grid, decoded string, finalized, submitting bool) (Assignment, error) {
	if finalized {
		return Assignment{}, failure.New(failure.CardFinalized, "card is finalized and can no longer be scanned")
	}
	if submitting {
		return Assignment{}, failure.New(failure.SubmissionPending, "card is being submitted")
	}

	p, err := Parse(decoded)
	if err != nil {
		return Assignment{}, err
	}

	if !g.HasRow(p.Row) {
		return Assignment{}, failure.New(failure.RowNotFound, "row %d does not exist on this card (1-%d)", p.Row, g.RowCount())
	}

	col, ok := Target(g.Row(p.Row))
	if !ok {
		return Assignment{}, failure.New(failure.RowFull, "row %d has no free cell", p.Row)
	}

	pos := grid.Position{Row: p.Row, Col: col}
	g.Put(pos, grid.Cell{Value: p.Letter, Locked: true})

	return Assignment{Position: pos, Value: p.Letter}, nil
}
