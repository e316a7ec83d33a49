package failure

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Format(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := New(RowFull, "row %d is full", 7)
		if err.Error() != "[ROW_FULL] row 7 is full" {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("with cause", func(t *testing.T) {
		err := Wrap(StoreWriteFailure, errors.New("disk full"), "failed to save card %s", "R-1")
		if err.Error() != "[STORE_WRITE_FAILURE] failed to save card R-1: disk full" {
			t.Errorf("Error() = %q", err.Error())
		}
	})
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "direct", err: New(CellLocked, "locked"), want: CellLocked},
		{name: "wrapped with fmt", err: fmt.Errorf("outer: %w", New(RowNotFound, "row 41")), want: RowNotFound},
		{name: "plain error", err: errors.New("boom"), want: Unknown},
		{name: "nil", err: nil, want: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(SubmissionTransportError, cause, "error sending data")
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(Wrap(SubmissionRejected, errors.New("x"), "Submission failed with status code: 500")); got != "Submission failed with status code: 500" {
		t.Errorf("MessageOf() = %q", got)
	}
	if got := MessageOf(errors.New("plain")); got != "plain" {
		t.Errorf("MessageOf() = %q", got)
	}
	if got := MessageOf(nil); got != "" {
		t.Errorf("MessageOf(nil) = %q", got)
	}
}

func TestIsEditRejection(t *testing.T) {
	for _, k := range []Kind{InvalidTarget, CellLocked, CardFinalized, SubmissionPending} {
		if !IsEditRejection(New(k, "x")) {
			t.Errorf("expected %s to be an edit rejection", k)
		}
	}
	for _, k := range []Kind{MalformedScan, RowFull, StoreWriteFailure, SubmissionRejected} {
		if IsEditRejection(New(k, "x")) {
			t.Errorf("expected %s not to be an edit rejection", k)
		}
	}
}
