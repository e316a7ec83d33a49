// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"

	"github.com/example/controlcard/internal/core/grid"
)

// CardRepository defines the secondary port for card persistence.
type CardRepository interface {
	// Create persists a new card and returns its assigned ID.
	Create(ctx context.Context, card *CardRecord) (int64, error)

	// GetByID retrieves a card by its ID.
	GetByID(ctx context.Context, id int64) (*CardRecord, error)

	// GetByCode retrieves the most recently created card with an identity code.
	GetByCode(ctx context.Context, code string) (*CardRecord, error)

	// List retrieves all cards ordered by competitor number.
	List(ctx context.Context) ([]*CardRecord, error)

	// PairExists reports whether a card with (competitorID, cardID) is stored.
	// A cardID of 0 has no card identity, so code must match too.
	PairExists(ctx context.Context, code string, competitorID, cardID int) (bool, error)

	// MarkFinalized sets finalized = true. There is no inverse operation.
	MarkFinalized(ctx context.Context, id int64) error

	// Delete removes a card and its cell rows.
	Delete(ctx context.Context, id int64) error
}

// CardRecord represents a card as stored in persistence.
type CardRecord struct {
	ID               int64
	Code             string
	Name             string
	CompetitorNumber int
	CompetitorID     int
	CardNumber       int
	CardID           int
	RowCount         int
	Finalized        bool
	CreatedAt        string
	FinalizedAt      string
}

// CellRowRepository defines the secondary port for row-keyed cell persistence.
type CellRowRepository interface {
	// ListByCard retrieves every persisted row of a card, ordered by row number.
	ListByCard(ctx context.Context, cardID int64) ([]*CellRowRecord, error)

	// Upsert writes one row keyed by (card, row number), creating it when
	// absent. Rows are never deleted by this port.
	Upsert(ctx context.Context, row *CellRowRecord) error

	// UpsertAll writes every row in a single transaction.
	UpsertAll(ctx context.Context, rows []*CellRowRecord) error
}

// CellRowRecord is one persisted row: four values, four lock flags and a
// last-modified timestamp, with an explicit card foreign key.
type CellRowRecord struct {
	CardID    int64
	RowNumber int
	Values    [4]string
	Locked    [4]bool
	RowLocked bool
	UpdatedAt time.Time
}

// GridStore loads and saves a card's whole grid through CellRowRepository.
type GridStore interface {
	// LoadGrid returns a fresh grid of card.RowCount rows merged with every
	// persisted row in range.
	LoadGrid(ctx context.Context, card grid.Card) (*grid.Grid, error)

	// SaveGrid upserts every row of g. The in-memory grid is never touched.
	SaveGrid(ctx context.Context, card grid.Card, g *grid.Grid) error
}
