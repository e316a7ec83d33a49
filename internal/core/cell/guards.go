// Package cell contains the pure business logic for manual cell edits.
// Guards are pure functions that evaluate preconditions without side effects.
package cell

import (
	"fmt"
	"unicode"

	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/failure"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Kind    failure.Kind
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return failure.New(r.Kind, "%s", r.Reason)
}

// EditContext provides context for manual edit guards.
type EditContext struct {
	Position   grid.Position
	Exists     bool // position addresses an existing row and column
	Locked     bool // only meaningful when Exists
	Finalized  bool
	Submitting bool
}

// CanEditCell evaluates whether a manual edit may touch a cell.
// Rules (checked in order):
// - Card must not be finalized
// - No submission may be in flight
// - Position must address an existing row in [1,N] and column in [1,4]
// - Cell must not be scan-locked
func CanEditCell(ctx EditContext) GuardResult {
	if ctx.Finalized {
		return GuardResult{
			Kind:   failure.CardFinalized,
			Reason: "card is finalized and can no longer be edited",
		}
	}

	if ctx.Submitting {
		return GuardResult{
			Kind:   failure.SubmissionPending,
			Reason: "card is being submitted",
		}
	}

	if !ctx.Exists {
		return GuardResult{
			Kind:   failure.InvalidTarget,
			Reason: fmt.Sprintf("cell %s does not exist", ctx.Position),
		}
	}

	if ctx.Locked {
		return GuardResult{
			Kind:   failure.CellLocked,
			Reason: fmt.Sprintf("cell %s was set by a scan and cannot be edited", ctx.Position),
		}
	}

	return GuardResult{Allowed: true}
}

// Normalize reduces raw keyboard input to at most one character.
// Non-printable runes are dropped; of what remains the first character wins.
func Normalize(raw string) string {
	for _, r := range raw {
		if unicode.IsPrint(r) {
			return string(r)
		}
	}
	return ""
}

// EditResult is the outcome of a successful manual edit.
type EditResult struct {
	Position grid.Position
	Value    string
	Locked   bool
	Advance  bool // true when the value has exactly one character
}

// SetCellValue applies a manual edit to g.
// On rejection g is left untouched and the error carries the guard's kind.
func SetCellValue(g *grid.Grid, pos grid.Position, raw string, finalized, submitting bool) (EditResult, error) {
	ctx := EditContext{
		Position:   pos,
		Exists:     g.Contains(pos),
		Finalized:  finalized,
		Submitting: submitting,
	}
	if ctx.Exists {
		ctx.Locked = g.Cell(pos).Locked
	}
	if err := CanEditCell(ctx).Error(); err != nil {
		return EditResult{}, err
	}

	value := Normalize(raw)
	g.Put(pos, grid.Cell{Value: value})

	return EditResult{
		Position: pos,
		Value:    value,
		Advance:  value != "",
	}, nil
}
