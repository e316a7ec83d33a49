// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/controlcard/internal/failure"
	"github.com/example/controlcard/internal/ports/secondary"
)

// CardRepository implements secondary.CardRepository with SQLite.
type CardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new SQLite card repository.
func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{db: db}
}

const cardColumns = `id, code, name, competitor_number, competitor_id, card_number, card_id,
	row_count, finalized, created_at, finalized_at`

// Create persists a new card.
func (r *CardRepository) Create(ctx context.Context, card *secondary.CardRecord) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (code, name, competitor_number, competitor_id, card_number, card_id, row_count, finalized)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		card.Code, card.Name, card.CompetitorNumber, card.CompetitorID, card.CardNumber, card.CardID, card.RowCount,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			if card.CardID == 0 {
				return 0, failure.Wrap(failure.DuplicateCard, err,
					"a card for competitor %d on rally %s already exists", card.CompetitorID, card.Code)
			}
			return 0, failure.Wrap(failure.DuplicateCard, err,
				"a card for competitor %d with card id %d already exists", card.CompetitorID, card.CardID)
		}
		return 0, fmt.Errorf("failed to create card: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read card id: %w", err)
	}
	return id, nil
}

// GetByID retrieves a card by its ID.
func (r *CardRepository) GetByID(ctx context.Context, id int64) (*secondary.CardRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+cardColumns+" FROM cards WHERE id = ?", id)
	record, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, failure.New(failure.CardNotFound, "card %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return record, nil
}

// GetByCode retrieves the most recently created card with an identity code.
func (r *CardRepository) GetByCode(ctx context.Context, code string) (*secondary.CardRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+cardColumns+" FROM cards WHERE code = ? ORDER BY id DESC LIMIT 1", code)
	record, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, failure.New(failure.CardNotFound, "card %s not found", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return record, nil
}

// List retrieves all cards ordered by competitor number.
func (r *CardRepository) List(ctx context.Context) ([]*secondary.CardRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+cardColumns+" FROM cards ORDER BY competitor_number ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []*secondary.CardRecord
	for rows.Next() {
		record, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	return cards, nil
}

// PairExists reports whether a card with (competitorID, cardID) is stored.
// Legacy cards (cardID 0) are matched within their rally code.
func (r *CardRepository) PairExists(ctx context.Context, code string, competitorID, cardID int) (bool, error) {
	query := "SELECT COUNT(*) FROM cards WHERE competitor_id = ? AND card_id = ?"
	args := []any{competitorID, cardID}
	if cardID == 0 {
		query += " AND code = ?"
		args = append(args, code)
	}

	var count int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check card existence: %w", err)
	}
	return count > 0, nil
}

// MarkFinalized sets the one-way finalized latch.
func (r *CardRepository) MarkFinalized(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE cards SET finalized = 1, finalized_at = COALESCE(finalized_at, CURRENT_TIMESTAMP) WHERE id = ?",
		id,
	)
	if err != nil {
		return failure.Wrap(failure.StoreWriteFailure, err, "failed to mark card %d finalized", id)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return failure.New(failure.CardNotFound, "card %d not found", id)
	}

	return nil
}

// Delete removes a card together with its cell rows.
func (r *CardRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cell_rows WHERE card_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete cell rows: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM cards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return failure.New(failure.CardNotFound, "card %d not found", id)
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(s rowScanner) (*secondary.CardRecord, error) {
	var (
		finalized   bool
		createdAt   sql.NullTime
		finalizedAt sql.NullTime
	)

	record := &secondary.CardRecord{}
	err := s.Scan(&record.ID, &record.Code, &record.Name, &record.CompetitorNumber, &record.CompetitorID,
		&record.CardNumber, &record.CardID, &record.RowCount, &finalized, &createdAt, &finalizedAt)
	if err != nil {
		return nil, err
	}

	record.Finalized = finalized
	if createdAt.Valid {
		record.CreatedAt = createdAt.Time.Format(time.RFC3339)
	}
	if finalizedAt.Valid {
		record.FinalizedAt = finalizedAt.Time.Format(time.RFC3339)
	}

	return record, nil
}

// Ensure CardRepository implements the interface
var _ secondary.CardRepository = (*CardRepository)(nil)
