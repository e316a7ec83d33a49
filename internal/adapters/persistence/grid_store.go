// Package persistence contains adapters that implement secondary port interfaces
// on top of the row-level sqlite repositories.
package persistence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/failure"
	"github.com/example/controlcard/internal/ports/secondary"
)

// GridStore implements secondary.GridStore over a CellRowRepository.
type GridStore struct {
	rows   secondary.CellRowRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewGridStore creates a new GridStore.
func NewGridStore(rows secondary.CellRowRepository, logger *zap.Logger) *GridStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridStore{rows: rows, logger: logger, now: time.Now}
}

// LoadGrid builds a fresh grid for card and overlays every persisted row.
// Rows that were never saved stay empty and unlocked.
func (s *GridStore) LoadGrid(ctx context.Context, card grid.Card) (*grid.Grid, error) {
	records, err := s.rows.ListByCard(ctx, card.ID)
	if err != nil {
		return nil, err
	}

	g := grid.New(card.RowCount)
	for _, rec := range records {
		row := grid.Row{Number: rec.RowNumber}
		for i := range row.Cells {
			row.Cells[i] = grid.Cell{Value: rec.Values[i], Locked: rec.Locked[i]}
		}
		if !g.PutRow(row) {
			s.logger.Warn("ignoring persisted row outside card range",
				zap.Int64("card", card.ID),
				zap.Int("row", rec.RowNumber),
				zap.Int("rows", card.RowCount))
		}
	}

	return g, nil
}

// SaveGrid upserts all rows of g in one transaction. Unchanged rows keep
// their stored timestamp.
func (s *GridStore) SaveGrid(ctx context.Context, card grid.Card, g *grid.Grid) error {
	now := s.now()

	rows := g.Rows()
	records := make([]*secondary.CellRowRecord, 0, len(rows))
	for _, row := range rows {
		rec := &secondary.CellRowRecord{
			CardID:    card.ID,
			RowNumber: row.Number,
			Values:    row.Values(),
			RowLocked: row.FullyLocked(),
			UpdatedAt: now,
		}
		for i, c := range row.Cells {
			rec.Locked[i] = c.Locked
		}
		records = append(records, rec)
	}

	if err := s.rows.UpsertAll(ctx, records); err != nil {
		if failure.KindOf(err) != failure.StoreWriteFailure {
			err = failure.Wrap(failure.StoreWriteFailure, err, "failed to save card %d", card.ID)
		}
		s.logger.Error("grid save failed", zap.Int64("card", card.ID), zap.Error(err))
		return err
	}

	s.logger.Debug("grid saved", zap.Int64("card", card.ID), zap.Int("rows", len(records)))
	return nil
}

// Ensure GridStore implements the interface
var _ secondary.GridStore = (*GridStore)(nil)
