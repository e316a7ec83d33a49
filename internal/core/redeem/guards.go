// Package redeem contains the pure business logic for turning a redeemed
// entry code into a control card.
package redeem

import (
	"fmt"

	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/failure"
)

// GuardResult represents the outcome of a guard evaluation.
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

// Redemption is what the redemption backend returned for a code.
type Redemption struct {
	Code             string
	Name             string
	CompetitorNumber int
	CompetitorID     int
	CardNumber       int
	CardID           int
}

// CreateCardContext provides context for card creation guards.
type CreateCardContext struct {
	Redemption Redemption
	PairExists bool // a card with the same identity is stored, see CanCreateCard
	RowCount   int
}

// CanCreateCard evaluates whether a redemption may create a new card.
// Rules:
// - The backend must have returned a card identity code
// - Row count must be positive
// - (competitor id, card id) must not already be stored
// - Legacy redemptions without a card id are unique per rally code
func CanCreateCard(ctx CreateCardContext) GuardResult {
	if ctx.Redemption.Code == "" {
		return GuardResult{
			Kind:   failure.RedemptionFailed,
			Reason: "Invalid response from server.",
		}
	}

	if ctx.RowCount < 1 {
		return GuardResult{
			Kind:   failure.RedemptionFailed,
			Reason: fmt.Sprintf("row count must be positive (got %d)", ctx.RowCount),
		}
	}

	if ctx.PairExists && ctx.Redemption.CardID == 0 {
		return GuardResult{
			Kind: failure.DuplicateCard,
			Reason: fmt.Sprintf("a card for competitor %d on rally %s already exists",
				ctx.Redemption.CompetitorID, ctx.Redemption.Code),
		}
	}

	if ctx.PairExists {
		return GuardResult{
			Kind: failure.DuplicateCard,
			Reason: fmt.Sprintf("a card for competitor %d with card id %d already exists",
				ctx.Redemption.CompetitorID, ctx.Redemption.CardID),
		}
	}

	return GuardResult{Allowed: true}
}

// NewCard builds a fresh, editable card from a redemption.
// When the backend returned no display name the identity code is used.
func NewCard(r Redemption, rowCount int) grid.Card {
	name := r.Name
	if name == "" {
		name = r.Code
	}
	return grid.Card{
		Code:             r.Code,
		Name:             name,
		CompetitorNumber: r.CompetitorNumber,
		CompetitorID:     r.CompetitorID,
		CardNumber:       r.CardNumber,
		CardID:           r.CardID,
		RowCount:         rowCount,
	}
}
