package primary

import (
	"context"

	"github.com/example/controlcard/internal/core/finalize"
	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/failure"
)

// EditingSession is the exclusive owner of one card's grid while it is open.
// All methods are safe for concurrent use; mutations are applied one at a time.
type EditingSession interface {
	// ID returns the session identifier used in logs.
	ID() string

	// Card returns the card being edited.
	Card() grid.Card

	// SetCellValue applies a manual edit and advances focus when a value was entered.
	SetCellValue(ctx context.Context, pos grid.Position, raw string) (*CellUpdate, error)

	// AssignScan places a decoded scan payload and schedules a save.
	AssignScan(ctx context.Context, decoded string) (*ScanResult, error)

	// SetFocus moves focus to pos.
	SetFocus(ctx context.Context, pos grid.Position) error

	// MoveFocus moves focus by (dRow, dCol), clamped to the grid.
	MoveFocus(ctx context.Context, dRow, dCol int) (grid.Position, error)

	// Snapshot returns a copy of the session state.
	Snapshot(ctx context.Context) (*SessionSnapshot, error)

	// RequestFinalize asks for finalization and returns the confirmation to show.
	RequestFinalize(ctx context.Context) (*ConfirmationAlert, error)

	// CancelFinalize dismisses the confirmation.
	CancelFinalize(ctx context.Context) error

	// ConfirmFinalize accepts the confirmation and starts the submission.
	// The outcome arrives later on Alerts as a SubmissionAlert.
	ConfirmFinalize(ctx context.Context) error

	// Alerts delivers asynchronous outcomes.
	Alerts() <-chan Alert

	// Checkpoint saves the grid for the given lifecycle reason.
	Checkpoint(ctx context.Context, reason CheckpointReason) error

	// Close saves the grid, drains pending saves and stops the session.
	Close(ctx context.Context) error
}

// CheckpointReason names the lifecycle event that triggered a save.
type CheckpointReason string

const (
	CheckpointOpen       CheckpointReason = "open"
	CheckpointClose      CheckpointReason = "close"
	CheckpointBackground CheckpointReason = "background"
	CheckpointScan       CheckpointReason = "scan"
	CheckpointFinalize   CheckpointReason = "finalize"
)

// CellUpdate is the result of a manual edit.
type CellUpdate struct {
	Position grid.Position
	Value    string
	Locked   bool
	Focus    grid.Position
	HasFocus bool
}

// ScanResult is the cell a scan payload landed in.
type ScanResult struct {
	Position grid.Position
	Value    string
}

// SessionSnapshot is a point-in-time copy of a session.
type SessionSnapshot struct {
	Card     grid.Card
	Grid     *grid.Grid
	Focus    grid.Position
	HasFocus bool
	State    finalize.State
}

// Alert is shown to the user. It is a ConfirmationAlert, a SubmissionAlert
// or a SaveAlert.
type Alert interface {
	alert()
}

// ConfirmationAlert asks the user to confirm finalization.
type ConfirmationAlert struct {
	Title   string
	Message string
}

// SubmissionAlert reports the outcome of a submission.
type SubmissionAlert struct {
	Message string
	Kind    failure.Kind // empty on success
	Success bool
}

// SaveAlert reports a store write that failed in the background. The
// in-memory state is unaffected.
type SaveAlert struct {
	Reason  CheckpointReason
	Message string
	Kind    failure.Kind
}

func (ConfirmationAlert) alert() {}
func (SubmissionAlert) alert()   {}
func (SaveAlert) alert()         {}
