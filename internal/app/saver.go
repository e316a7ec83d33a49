package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/ports/secondary"
)

type saveRequest struct {
	snapshot *grid.Grid
	reason   string
	reply    chan error // nil for fire-and-forget saves
}

// saver writes grid snapshots on one background goroutine, in the order
// they were queued.
type saver struct {
	store  secondary.GridStore
	card   grid.Card
	logger *zap.Logger

	// onFailure is called from the saver goroutine when a fire-and-forget
	// save fails. Waited saves return their error instead.
	onFailure func(reason string, err error)

	requests chan saveRequest
	done     chan struct{}
}

func newSaver(store secondary.GridStore, card grid.Card, logger *zap.Logger, onFailure func(reason string, err error)) *saver {
	s := &saver{
		store:     store,
		card:      card,
		logger:    logger,
		onFailure: onFailure,
		requests:  make(chan saveRequest, 16),
		done:      make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *saver) run() {
	defer close(s.done)
	for req := range s.requests {
		err := s.store.SaveGrid(context.Background(), s.card, req.snapshot)
		if err != nil {
			s.logger.Warn("checkpoint save failed", zap.String("reason", req.reason), zap.Error(err))
		} else {
			s.logger.Debug("checkpoint saved", zap.String("reason", req.reason))
		}
		if req.reply != nil {
			req.reply <- err
		} else if err != nil && s.onFailure != nil {
			s.onFailure(req.reason, err)
		}
	}
}

// enqueue queues a snapshot. When wait is true the returned channel receives
// the save result.
func (s *saver) enqueue(snapshot *grid.Grid, reason string, wait bool) <-chan error {
	req := saveRequest{snapshot: snapshot, reason: reason}
	if wait {
		req.reply = make(chan error, 1)
	}
	s.requests <- req
	return req.reply
}

// close runs every queued save and stops the goroutine.
func (s *saver) close() {
	close(s.requests)
	<-s.done
}
