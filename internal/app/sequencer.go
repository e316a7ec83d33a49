package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/example/controlcard/internal/failure"
)

// Sequencer runs functions one at a time on a single goroutine. Everything
// that touches a session's grid or focus goes through it.
type Sequencer struct {
	queue  chan func()
	logger *zap.Logger

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

// NewSequencer starts a sequencer goroutine.
func NewSequencer(logger *zap.Logger) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sequencer{
		queue:  make(chan func(), 64),
		logger: logger,
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Sequencer) run() {
	defer close(s.done)
	for fn := range s.queue {
		s.call(fn)
	}
}

func (s *Sequencer) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sequenced call panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

// Do runs fn on the sequencer and waits for it to return. When ctx ends
// before fn has started, fn is skipped and ctx.Err() is returned; once fn has
// started Do waits for its result.
func (s *Sequencer) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	var claimed atomic.Bool
	wrapped := func() {
		if !claimed.CompareAndSwap(false, true) {
			return
		}
		if err := ctx.Err(); err != nil {
			result <- err
			return
		}
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("sequenced call panicked: %v", r)
				panic(r)
			}
		}()
		result <- fn()
	}

	if err := s.enqueue(ctx, wrapped); err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		if claimed.CompareAndSwap(false, true) {
			return ctx.Err()
		}
		return <-result
	}
}

// Post queues fn without waiting. It reports false when the sequencer has
// already stopped and fn was dropped.
func (s *Sequencer) Post(fn func()) bool {
	return s.enqueue(context.Background(), fn) == nil
}

func (s *Sequencer) enqueue(ctx context.Context, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return failure.New(failure.SessionClosed, "session is closed")
	}

	select {
	case s.queue <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop refuses new work, runs what is already queued and waits for the
// goroutine to exit. Calling Stop more than once is safe.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}
