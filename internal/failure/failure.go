// Package failure defines the machine-readable error kinds used across the
// control-card engine. Every error a caller may want to branch on carries a
// Kind; the message is what the presentation layer shows to the competitor.
package failure

import (
	"errors"
	"fmt"
)

// Kind is a stable error code for one failure mode.
type Kind string

const (
	// Edit-time rejections. The UI refuses the keystroke and moves on.
	InvalidTarget     Kind = "INVALID_TARGET"
	CellLocked        Kind = "CELL_LOCKED"
	CardFinalized     Kind = "CARD_FINALIZED"
	SubmissionPending Kind = "SUBMISSION_PENDING"

	// Scan-time failures. Surfaced as a message, grid unchanged.
	MalformedScan Kind = "MALFORMED_SCAN"
	RowNotFound   Kind = "ROW_NOT_FOUND"
	RowFull       Kind = "ROW_FULL"

	// Persistence-time failure. The in-memory grid stays authoritative.
	StoreWriteFailure Kind = "STORE_WRITE_FAILURE"

	// Finalize-time failures. The card stays editable and the user may retry.
	SubmissionTransportError Kind = "SUBMISSION_TRANSPORT_ERROR"
	SubmissionRejected       Kind = "SUBMISSION_REJECTED"
	PayloadEncoding          Kind = "PAYLOAD_ENCODING"

	// Card service failures.
	CardNotFound     Kind = "CARD_NOT_FOUND"
	CodeAlreadyUsed  Kind = "CODE_ALREADY_USED"
	DuplicateCard    Kind = "DUPLICATE_CARD"
	RedemptionFailed Kind = "REDEMPTION_FAILED"
	SessionClosed    Kind = "SESSION_CLOSED"

	// Unknown is reported by KindOf for errors that carry no kind.
	Unknown Kind = "UNKNOWN"
)

// Error is an error with a Kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// New creates an Error without an underlying cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the human-readable message for err. Errors without a
// kind fall back to err.Error().
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsEditRejection reports whether err is a local edit-time rejection that
// the UI should swallow rather than surface.
func IsEditRejection(err error) bool {
	switch KindOf(err) {
	case InvalidTarget, CellLocked, CardFinalized, SubmissionPending:
		return true
	}
	return false
}
