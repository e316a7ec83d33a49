package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/example/controlcard/internal/core/grid"
	"github.com/example/controlcard/internal/core/redeem"
	"github.com/example/controlcard/internal/failure"
	"github.com/example/controlcard/internal/ports/primary"
	"github.com/example/controlcard/internal/ports/secondary"
)

// CardServiceImpl implements the CardService interface.
type CardServiceImpl struct {
	cardRepo  secondary.CardRepository
	store     secondary.GridStore
	redeemer  secondary.Redeemer
	submitter secondary.Submitter
	rowCount  int
	logger    *zap.Logger
}

// NewCardService creates a new CardService with injected dependencies.
// rowCount is the number of rows given to newly redeemed cards.
func NewCardService(
	cardRepo secondary.CardRepository,
	store secondary.GridStore,
	redeemer secondary.Redeemer,
	submitter secondary.Submitter,
	rowCount int,
	logger *zap.Logger,
) *CardServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardServiceImpl{
		cardRepo:  cardRepo,
		store:     store,
		redeemer:  redeemer,
		submitter: submitter,
		rowCount:  rowCount,
		logger:    logger,
	}
}

// RedeemCode exchanges code with the backend and stores the resulting card.
// A second card for the same (competitor id, card id) pair is refused; legacy
// redemptions without a card id are only refused within the same rally code.
func (s *CardServiceImpl) RedeemCode(ctx context.Context, code string) (*grid.Card, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, failure.New(failure.RedemptionFailed, "code is required")
	}

	redemption, err := s.redeemer.Redeem(ctx, code)
	if err != nil {
		return nil, err
	}

	exists, err := s.cardRepo.PairExists(ctx, redemption.Code, redemption.CompetitorID, redemption.CardID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate card: %w", err)
	}

	guardCtx := redeem.CreateCardContext{
		Redemption: *redemption,
		PairExists: exists,
		RowCount:   s.rowCount,
	}
	if err := redeem.CanCreateCard(guardCtx).Error(); err != nil {
		return nil, err
	}

	card := redeem.NewCard(*redemption, s.rowCount)
	id, err := s.cardRepo.Create(ctx, cardToRecord(card))
	if err != nil {
		return nil, err
	}
	card.ID = id

	s.logger.Info("card redeemed",
		zap.Int64("card", id),
		zap.String("code", card.Code),
		zap.Int("competitor", card.CompetitorNumber))
	return &card, nil
}

// GetCard retrieves a card by ID.
func (s *CardServiceImpl) GetCard(ctx context.Context, cardID int64) (*grid.Card, error) {
	record, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	card := recordToCard(record)
	return &card, nil
}

// FindCard resolves ref as a numeric ID first, then as an identity code.
func (s *CardServiceImpl) FindCard(ctx context.Context, ref string) (*grid.Card, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		card, err := s.GetCard(ctx, id)
		if !failure.Is(err, failure.CardNotFound) {
			return card, err
		}
	}
	record, err := s.cardRepo.GetByCode(ctx, ref)
	if err != nil {
		return nil, err
	}
	card := recordToCard(record)
	return &card, nil
}

// ListCards lists all cards ordered by competitor number.
func (s *CardServiceImpl) ListCards(ctx context.Context) ([]*grid.Card, error) {
	records, err := s.cardRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	cards := make([]*grid.Card, len(records))
	for i, r := range records {
		card := recordToCard(r)
		cards[i] = &card
	}
	return cards, nil
}

// DeleteCard removes a card and its rows.
func (s *CardServiceImpl) DeleteCard(ctx context.Context, cardID int64) error {
	if err := s.cardRepo.Delete(ctx, cardID); err != nil {
		return err
	}
	s.logger.Info("card deleted", zap.Int64("card", cardID))
	return nil
}

// OpenSession loads the card's grid (the open checkpoint) and starts an
// editing session that owns it.
func (s *CardServiceImpl) OpenSession(ctx context.Context, cardID int64) (primary.EditingSession, error) {
	card, err := s.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	g, err := s.store.LoadGrid(ctx, *card)
	if err != nil {
		return nil, fmt.Errorf("failed to load grid: %w", err)
	}

	session := NewEditingSession(*card, g, SessionDeps{
		Store:     s.store,
		Cards:     s.cardRepo,
		Submitter: s.submitter,
		Logger:    s.logger,
	})
	s.logger.Info("session opened",
		zap.String("session", session.ID()),
		zap.Int64("card", card.ID),
		zap.Bool("finalized", card.Finalized))
	return session, nil
}

func cardToRecord(c grid.Card) *secondary.CardRecord {
	return &secondary.CardRecord{
		ID:               c.ID,
		Code:             c.Code,
		Name:             c.Name,
		CompetitorNumber: c.CompetitorNumber,
		CompetitorID:     c.CompetitorID,
		CardNumber:       c.CardNumber,
		CardID:           c.CardID,
		RowCount:         c.RowCount,
		Finalized:        c.Finalized,
	}
}

func recordToCard(r *secondary.CardRecord) grid.Card {
	return grid.Card{
		ID:               r.ID,
		Code:             r.Code,
		Name:             r.Name,
		CompetitorNumber: r.CompetitorNumber,
		CompetitorID:     r.CompetitorID,
		CardNumber:       r.CardNumber,
		CardID:           r.CardID,
		RowCount:         r.RowCount,
		Finalized:        r.Finalized,
	}
}

// Ensure CardServiceImpl implements the interface
var _ primary.CardService = (*CardServiceImpl)(nil)
