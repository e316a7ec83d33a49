// Package finalize contains the pure business logic of the two-phase
// finalize-and-submit protocol.
// This is part of the Functional Core - no I/O, only pure functions.
package finalize

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/failure"
)

// State is the finalization state of a card within an editing session.
type State string

const (
	StateEditable       State = "editable"
	StatePendingConfirm State = "pending_confirm"
	StateSubmitting     State = "submitting"
	StateFinalized      State = "finalized"
)

// Event drives a state transition.
type Event string

const (
	EventRequest Event = "request" // user tapped finalize
	EventCancel  Event = "cancel"  // user dismissed the confirmation
	EventAccept  Event = "accept"  // user accepted the confirmation
	EventAck     Event = "ack"     // backend acknowledged the submission
	EventFail    Event = "fail"    // submission failed for any reason
)

// Confirmation texts shown to the competitor.
const (
	ConfirmTitle   = "Warning"
	ConfirmMessage = "After finalizing, you won't be able to edit any more values. Do you want to proceed?"
	SuccessMessage = "Data submitted successfully!"
)

// InitialState returns the state a session starts in for a card.
func InitialState(finalized bool) State {
	if finalized {
		return StateFinalized
	}
	return StateEditable
}

// GuardResult represents the outcome of a transition guard.
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

var transitions = map[State]map[Event]State{
	StateEditable: {
		EventRequest: StatePendingConfirm,
	},
	StatePendingConfirm: {
		EventRequest: StatePendingConfirm,
		EventCancel:  StateEditable,
		EventAccept:  StateSubmitting,
	},
	StateSubmitting: {
		EventAck:  StateFinalized,
		EventFail: StateEditable,
	},
}

// Transition applies ev to from. Finalized is terminal: every event on a
// finalized card is refused, so nothing can ever move it back.
func Transition(from State, ev Event) (State, GuardResult) {
	if from == StateFinalized {
		return from, GuardResult{
			Kind:   failure.CardFinalized,
			Reason: "card is already finalized",
		}
	}

	next, ok := transitions[from][ev]
	if !ok {
		kind := failure.InvalidTarget
		if from == StateSubmitting {
			kind = failure.SubmissionPending
		}
		return from, GuardResult{
			Kind:   kind,
			Reason: fmt.Sprintf("cannot %s while %s", ev, from),
		}
	}

	return next, GuardResult{Allowed: true}
}

// Payload is the snapshot sent to the backend on finalize.
type Payload struct {
	CompetitorNumber string       `json:"eqNumber"`
	CardIdentityCode string       `json:"rallyCode"`
	Rows             []PayloadRow `json:"rows"`
}

// PayloadRow is one row of the submitted snapshot.
type PayloadRow struct {
	ID   int    `json:"id"`
	Col1 string `json:"col1"`
	Col2 string `json:"col2"`
	Col3 string `json:"col3"`
	Col4 string `json:"col4"`
}

// BuildPayload snapshots g for card. It copies values, so later grid edits
// do not leak into an in-flight submission, and rebuilding from the same
// grid yields an identical payload.
func BuildPayload(card grid.Card, g *grid.Grid) Payload {
	rows := make([]PayloadRow, 0, g.RowCount())
	for _, r := range g.Rows() {
		v := r.Values()
		rows = append(rows, PayloadRow{
			ID:   r.Number,
			Col1: v[0],
			Col2: v[1],
			Col3: v[2],
			Col4: v[3],
		})
	}
	return Payload{
		CompetitorNumber: strconv.Itoa(card.CompetitorNumber),
		CardIdentityCode: card.Code,
		Rows:             rows,
	}
}

// ClassifyStatus maps a backend response status to an error. Only 200 OK is
// an acknowledgment.
func ClassifyStatus(status int) error {
	if status == http.StatusOK {
		return nil
	}
	return failure.New(failure.SubmissionRejected, "Submission failed with status code: %d", status)
}
