package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/controlcard/internal/core/cell"
	"github.com/example/controlcard/internal/core/finalize"
	"github.com/example/controlcard/internal/core/focus"
	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/core/scan"
	"github.com/example/controlcard/internal/ctxutil"
	"github.com/example/controlcard/internal/failure"
	"github.com/example/controlcard/internal/ports/primary"
	"github.com/example/controlcard/internal/ports/secondary"
)

// EditingSessionImpl implements the EditingSession interface.
//
// Fields below the sequencer are only read or written from sequenced
// functions.
type EditingSessionImpl struct {
	id        string
	card      grid.Card
	cardRepo  secondary.CardRepository
	submitter secondary.Submitter
	logger    *zap.Logger
	saver     *saver
	alerts    chan primary.Alert

	submissions  sync.WaitGroup
	cancelSubmit context.CancelFunc

	seq    *Sequencer
	grid   *grid.Grid
	focus  focus.Pointer
	state  finalize.State
	closed bool

	// latchPending is set when the backend acknowledged but the finalized
	// flag could not be stored yet.
	latchPending bool
}

// SessionDeps holds the collaborators an editing session needs.
type SessionDeps struct {
	Store     secondary.GridStore
	Cards     secondary.CardRepository
	Submitter secondary.Submitter
	Logger    *zap.Logger
}

// NewEditingSession starts a session for card over an already loaded grid.
func NewEditingSession(card grid.Card, g *grid.Grid, deps SessionDeps) *EditingSessionImpl {
	id := uuid.NewString()
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session", id), zap.Int64("card", card.ID))

	s := &EditingSessionImpl{
		id:        id,
		card:      card,
		cardRepo:  deps.Cards,
		submitter: deps.Submitter,
		logger:    logger,
		alerts:    make(chan primary.Alert, 4),
		seq:       NewSequencer(logger),
		grid:      g,
		state:     finalize.InitialState(card.Finalized),
	}
	// alerts is closed only after the saver has stopped.
	s.saver = newSaver(deps.Store, card, logger, func(reason string, err error) {
		s.alert(primary.SaveAlert{
			Reason:  primary.CheckpointReason(reason),
			Message: "Changes could not be saved: " + failure.MessageOf(err),
			Kind:    failure.KindOf(err),
		})
	})
	return s
}

// ID returns the session identifier.
func (s *EditingSessionImpl) ID() string {
	return s.id
}

// Card returns the card as it was when the session opened.
func (s *EditingSessionImpl) Card() grid.Card {
	return s.card
}

// Alerts delivers submission outcomes and background save failures. The
// channel is closed by Close.
func (s *EditingSessionImpl) Alerts() <-chan primary.Alert {
	return s.alerts
}

func (s *EditingSessionImpl) do(ctx context.Context, fn func() error) error {
	return s.seq.Do(ctx, func() error {
		if s.closed {
			return failure.New(failure.SessionClosed, "session is closed")
		}
		return fn()
	})
}

// SetCellValue applies a manual edit. A non-empty result moves focus to the
// next cell; clearing a cell leaves focus where it is.
func (s *EditingSessionImpl) SetCellValue(ctx context.Context, pos grid.Position, raw string) (*primary.CellUpdate, error) {
	var update *primary.CellUpdate
	err := s.do(ctx, func() error {
		res, err := cell.SetCellValue(s.grid, pos, raw, s.state == finalize.StateFinalized, s.state == finalize.StateSubmitting)
		if err != nil {
			return err
		}

		if res.Advance {
			s.focus.Advance(s.grid.RowCount(), pos)
		} else {
			s.focus.Set(pos)
		}

		next, has := s.focus.Get()
		update = &primary.CellUpdate{
			Position: res.Position,
			Value:    res.Value,
			Locked:   res.Locked,
			Focus:    next,
			HasFocus: has,
		}
		return nil
	})
	if err != nil {
		s.logger.Debug("edit rejected", zap.String("cell", pos.String()), zap.Error(err))
		return nil, err
	}
	return update, nil
}

// AssignScan places a scanned letter in its row and queues a save. Focus is
// left alone.
func (s *EditingSessionImpl) AssignScan(ctx context.Context, decoded string) (*primary.ScanResult, error) {
	var result *primary.ScanResult
	err := s.do(ctx, func() error {
		a, err := scan.Assign(s.grid, decoded, s.state == finalize.StateFinalized, s.state == finalize.StateSubmitting)
		if err != nil {
			return err
		}
		s.saver.enqueue(s.grid.Clone(), string(primary.CheckpointScan), false)
		result = &primary.ScanResult{Position: a.Position, Value: a.Value}
		return nil
	})
	if err != nil {
		s.logger.Info("scan rejected", zap.String("payload", decoded), zap.Error(err))
		return nil, err
	}
	s.logger.Info("scan assigned", zap.String("cell", result.Position.String()), zap.String("value", result.Value))
	return result, nil
}

// SetFocus moves focus to pos.
func (s *EditingSessionImpl) SetFocus(ctx context.Context, pos grid.Position) error {
	return s.do(ctx, func() error {
		if !s.grid.Contains(pos) {
			return failure.New(failure.InvalidTarget, "cell %s does not exist", pos)
		}
		s.focus.Set(pos)
		return nil
	})
}

// MoveFocus moves focus by (dRow, dCol), clamped to the grid. With no focus
// it starts at the first cell.
func (s *EditingSessionImpl) MoveFocus(ctx context.Context, dRow, dCol int) (grid.Position, error) {
	var pos grid.Position
	err := s.do(ctx, func() error {
		s.focus.Move(s.grid.RowCount(), dRow, dCol)
		pos, _ = s.focus.Get()
		return nil
	})
	return pos, err
}

// Snapshot returns a copy of the session state.
func (s *EditingSessionImpl) Snapshot(ctx context.Context) (*primary.SessionSnapshot, error) {
	var snap *primary.SessionSnapshot
	err := s.do(ctx, func() error {
		pos, has := s.focus.Get()
		card := s.card
		card.Finalized = s.state == finalize.StateFinalized
		snap = &primary.SessionSnapshot{
			Card:     card,
			Grid:     s.grid.Clone(),
			Focus:    pos,
			HasFocus: has,
			State:    s.state,
		}
		return nil
	})
	return snap, err
}

func (s *EditingSessionImpl) transition(ev finalize.Event) error {
	next, gr := finalize.Transition(s.state, ev)
	if !gr.Allowed {
		return gr.Error()
	}
	s.logger.Debug("finalize transition",
		zap.String("from", string(s.state)),
		zap.String("event", string(ev)),
		zap.String("to", string(next)))
	s.state = next
	return nil
}

// RequestFinalize moves to the confirmation step.
func (s *EditingSessionImpl) RequestFinalize(ctx context.Context) (*primary.ConfirmationAlert, error) {
	err := s.do(ctx, func() error {
		return s.transition(finalize.EventRequest)
	})
	if err != nil {
		return nil, err
	}
	return &primary.ConfirmationAlert{Title: finalize.ConfirmTitle, Message: finalize.ConfirmMessage}, nil
}

// CancelFinalize dismisses the confirmation and returns to editing.
func (s *EditingSessionImpl) CancelFinalize(ctx context.Context) error {
	return s.do(ctx, func() error {
		return s.transition(finalize.EventCancel)
	})
}

// ConfirmFinalize snapshots the grid and sends it. The card is not marked
// finalized until the backend acknowledges.
func (s *EditingSessionImpl) ConfirmFinalize(ctx context.Context) error {
	return s.do(ctx, func() error {
		if err := s.transition(finalize.EventAccept); err != nil {
			return err
		}

		payload := finalize.BuildPayload(s.card, s.grid)
		submitCtx, cancel := context.WithCancel(ctxutil.WithSessionID(context.Background(), s.id))
		s.cancelSubmit = cancel

		s.logger.Info("submitting card", zap.Int("rows", len(payload.Rows)))

		s.submissions.Add(1)
		go func() {
			defer s.submissions.Done()
			defer cancel()

			err := s.submitter.Submit(submitCtx, payload)
			if !s.seq.Post(func() { s.completeSubmission(err) }) {
				s.logger.Warn("submission outcome dropped after close", zap.Error(err))
			}
		}()
		return nil
	})
}

// completeSubmission runs on the sequencer once the backend answered.
func (s *EditingSessionImpl) completeSubmission(err error) {
	s.cancelSubmit = nil

	if err != nil {
		if terr := s.transition(finalize.EventFail); terr != nil {
			s.logger.Error("unexpected finalize state", zap.Error(terr))
		}
		s.logger.Warn("submission failed", zap.Error(err))
		s.alert(primary.SubmissionAlert{Message: failure.MessageOf(err), Kind: failure.KindOf(err)})
		return
	}

	if terr := s.transition(finalize.EventAck); terr != nil {
		s.logger.Error("unexpected finalize state", zap.Error(terr))
		return
	}
	if merr := s.cardRepo.MarkFinalized(context.Background(), s.card.ID); merr != nil {
		s.latchPending = true
		s.logger.Error("failed to persist finalized flag", zap.Error(merr))
		s.alert(primary.SaveAlert{
			Reason:  primary.CheckpointFinalize,
			Message: "Card was submitted but could not be marked finalized: " + failure.MessageOf(merr),
			Kind:    failure.KindOf(merr),
		})
	}
	s.logger.Info("card finalized")
	s.alert(primary.SubmissionAlert{Message: finalize.SuccessMessage, Success: true})
}

// retryLatch stores a finalized flag that failed to persist earlier. Callers
// must hold the sequencer or run after it stopped.
func (s *EditingSessionImpl) retryLatch(ctx context.Context) error {
	if !s.latchPending {
		return nil
	}
	if err := s.cardRepo.MarkFinalized(ctx, s.card.ID); err != nil {
		s.logger.Warn("finalized flag still not stored", zap.Error(err))
		return err
	}
	s.latchPending = false
	s.logger.Info("finalized flag stored on retry")
	return nil
}

func (s *EditingSessionImpl) alert(a primary.Alert) {
	select {
	case s.alerts <- a:
	default:
		s.logger.Warn("alert dropped, nobody is listening")
	}
}

// Checkpoint saves a snapshot of the grid and waits for the write. A
// finalized flag that failed to persist is retried first. Failures are
// returned but the in-memory state stays authoritative.
func (s *EditingSessionImpl) Checkpoint(ctx context.Context, reason primary.CheckpointReason) error {
	var reply <-chan error
	var latchErr error
	err := s.do(ctx, func() error {
		latchErr = s.retryLatch(ctx)
		reply = s.saver.enqueue(s.grid.Clone(), string(reason), true)
		return nil
	})
	if err != nil {
		return err
	}

	select {
	case err := <-reply:
		if err != nil {
			return err
		}
		return latchErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close takes the exit checkpoint, cancels any in-flight submission, drains
// pending saves and stops the session. A finalized flag that failed to
// persist gets one more attempt.
func (s *EditingSessionImpl) Close(ctx context.Context) error {
	var reply <-chan error
	err := s.do(ctx, func() error {
		s.closed = true
		reply = s.saver.enqueue(s.grid.Clone(), string(primary.CheckpointClose), true)
		if s.cancelSubmit != nil {
			s.logger.Warn("closing with a submission in flight")
			s.cancelSubmit()
		}
		return nil
	})
	if err != nil {
		return err
	}

	saveErr := <-reply

	s.submissions.Wait()
	s.seq.Stop()
	// An acknowledgement that arrived before Stop may have left the latch
	// unstored.
	latchErr := s.retryLatch(ctx)
	s.saver.close()
	close(s.alerts)

	s.logger.Info("session closed")
	if saveErr != nil {
		return saveErr
	}
	return latchErr
}

// Ensure EditingSessionImpl implements the interface
var _ primary.EditingSession = (*EditingSessionImpl)(nil)
