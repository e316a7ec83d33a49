// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces the CLI and the TUI use to drive the engine.
package primary

import (
	"context"

	"github.com/example/controlcard/internal/core/grid"
)

// CardService defines the primary port for card lifecycle operations.
type CardService interface {
	// RedeemCode exchanges an entry code for a new card.
	RedeemCode(ctx context.Context, code string) (*grid.Card, error)

	// GetCard retrieves a card by ID.
	GetCard(ctx context.Context, cardID int64) (*grid.Card, error)

	// FindCard resolves a user-supplied reference: a numeric ID or an identity code.
	FindCard(ctx context.Context, ref string) (*grid.Card, error)

	// ListCards lists all cards ordered by competitor number.
	ListCards(ctx context.Context) ([]*grid.Card, error)

	// DeleteCard removes a card and its rows.
	DeleteCard(ctx context.Context, cardID int64) error

	// OpenSession loads the card's grid and starts an editing session.
	OpenSession(ctx context.Context, cardID int64) (EditingSession, error)
}
