package finalize

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/failure"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name        string
		from        State
		event       Event
		wantState   State
		wantAllowed bool
		wantKind    failure.Kind
	}{
		{name: "request from editable", from: StateEditable, event: EventRequest, wantState: StatePendingConfirm, wantAllowed: true},
		{name: "cancel confirmation", from: StatePendingConfirm, event: EventCancel, wantState: StateEditable, wantAllowed: true},
		{name: "accept confirmation", from: StatePendingConfirm, event: EventAccept, wantState: StateSubmitting, wantAllowed: true},
		{name: "repeat request while confirming", from: StatePendingConfirm, event: EventRequest, wantState: StatePendingConfirm, wantAllowed: true},
		{name: "ack finalizes", from: StateSubmitting, event: EventAck, wantState: StateFinalized, wantAllowed: true},
		{name: "failure returns to editable", from: StateSubmitting, event: EventFail, wantState: StateEditable, wantAllowed: true},
		{name: "accept without confirmation", from: StateEditable, event: EventAccept, wantState: StateEditable, wantKind: failure.InvalidTarget},
		{name: "request while submitting", from: StateSubmitting, event: EventRequest, wantState: StateSubmitting, wantKind: failure.SubmissionPending},
		{name: "ack without submission", from: StateEditable, event: EventAck, wantState: StateEditable, wantKind: failure.InvalidTarget},
		{name: "finalized ignores fail", from: StateFinalized, event: EventFail, wantState: StateFinalized, wantKind: failure.CardFinalized},
		{name: "finalized ignores request", from: StateFinalized, event: EventRequest, wantState: StateFinalized, wantKind: failure.CardFinalized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, result := Transition(tt.from, tt.event)
			if got != tt.wantState {
				t.Errorf("state = %q, want %q", got, tt.wantState)
			}
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", result.Kind, tt.wantKind)
			}
		})
	}
}

func TestTransition_FinalizedIsTerminal(t *testing.T) {
	for _, ev := range []Event{EventRequest, EventCancel, EventAccept, EventAck, EventFail} {
		if got, _ := Transition(StateFinalized, ev); got != StateFinalized {
			t.Errorf("event %s moved a finalized card to %s", ev, got)
		}
	}
}

func TestInitialState(t *testing.T) {
	if InitialState(false) != StateEditable {
		t.Error("expected editable for an open card")
	}
	if InitialState(true) != StateFinalized {
		t.Error("expected finalized for a finalized card")
	}
}

func TestBuildPayload(t *testing.T) {
	card := grid.Card{Code: "SARK-2025", CompetitorNumber: 42}
	g := grid.New(2)
	g.Put(grid.Position{Row: 1, Col: 1}, grid.Cell{Value: "A"})
	g.Put(grid.Position{Row: 2, Col: 4}, grid.Cell{Value: "Z", Locked: true})

	got := BuildPayload(card, g)
	want := Payload{
		CompetitorNumber: "42",
		CardIdentityCode: "SARK-2025",
		Rows: []PayloadRow{
			{ID: 1, Col1: "A"},
			{ID: 2, Col4: "Z"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(got, BuildPayload(card, g)); diff != "" {
		t.Errorf("rebuilding payload is not idempotent:\n%s", diff)
	}

	g.Put(grid.Position{Row: 1, Col: 2}, grid.Cell{Value: "B"})
	if got.Rows[0].Col2 != "" {
		t.Error("payload shares state with the grid")
	}
}

func TestClassifyStatus(t *testing.T) {
	if err := ClassifyStatus(200); err != nil {
		t.Errorf("200 should be success, got %v", err)
	}
	for _, status := range []int{201, 400, 500} {
		err := ClassifyStatus(status)
		if !failure.Is(err, failure.SubmissionRejected) {
			t.Errorf("status %d: expected SubmissionRejected, got %v", status, err)
		}
	}
	if msg := failure.MessageOf(ClassifyStatus(503)); msg != "Submission failed with status code: 503" {
		t.Errorf("message = %q", msg)
	}
}
