package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/controlcard/internal/failure"
	"github.com/example/controlcard/internal/ports/secondary"
)

// CellRowRepository implements secondary.CellRowRepository with SQLite.
type CellRowRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewCellRowRepository creates a new SQLite cell row repository.
func NewCellRowRepository(db *sql.DB) *CellRowRepository {
	return &CellRowRepository{db: db, now: time.Now}
}

// upsertSQL only touches updated_at when the stored content actually
// changes, so re-saving an unchanged grid leaves the table byte-identical.
const upsertSQL = `
	INSERT INTO cell_rows (card_id, row_number, col1, col2, col3, col4,
		col1_locked, col2_locked, col3_locked, col4_locked, row_locked, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(card_id, row_number) DO UPDATE SET
		col1 = excluded.col1, col2 = excluded.col2, col3 = excluded.col3, col4 = excluded.col4,
		col1_locked = excluded.col1_locked, col2_locked = excluded.col2_locked,
		col3_locked = excluded.col3_locked, col4_locked = excluded.col4_locked,
		row_locked = excluded.row_locked, updated_at = excluded.updated_at
	WHERE col1 IS NOT excluded.col1 OR col2 IS NOT excluded.col2
		OR col3 IS NOT excluded.col3 OR col4 IS NOT excluded.col4
		OR col1_locked IS NOT excluded.col1_locked OR col2_locked IS NOT excluded.col2_locked
		OR col3_locked IS NOT excluded.col3_locked OR col4_locked IS NOT excluded.col4_locked
		OR row_locked IS NOT excluded.row_locked`

// ListByCard retrieves every persisted row of a card, ordered by row number.
func (r *CellRowRepository) ListByCard(ctx context.Context, cardID int64) ([]*secondary.CellRowRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT card_id, row_number, col1, col2, col3, col4,
			col1_locked, col2_locked, col3_locked, col4_locked, row_locked, updated_at
		FROM cell_rows WHERE card_id = ? ORDER BY row_number ASC`,
		cardID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cell rows: %w", err)
	}
	defer rows.Close()

	var records []*secondary.CellRowRecord
	for rows.Next() {
		rec := &secondary.CellRowRecord{}
		err := rows.Scan(&rec.CardID, &rec.RowNumber,
			&rec.Values[0], &rec.Values[1], &rec.Values[2], &rec.Values[3],
			&rec.Locked[0], &rec.Locked[1], &rec.Locked[2], &rec.Locked[3],
			&rec.RowLocked, &rec.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cell row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list cell rows: %w", err)
	}

	return records, nil
}

// Upsert writes one row keyed by (card, row number).
func (r *CellRowRepository) Upsert(ctx context.Context, row *secondary.CellRowRecord) error {
	if _, err := r.db.ExecContext(ctx, upsertSQL, r.args(row)...); err != nil {
		return failure.Wrap(failure.StoreWriteFailure, err, "failed to save row %d", row.RowNumber)
	}
	return nil
}

// UpsertAll writes every row in a single transaction, so a failed save
// leaves the previously persisted grid intact.
func (r *CellRowRepository) UpsertAll(ctx context.Context, rows []*secondary.CellRowRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return failure.Wrap(failure.StoreWriteFailure, err, "failed to begin save")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return failure.Wrap(failure.StoreWriteFailure, err, "failed to prepare save")
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, r.args(row)...); err != nil {
			return failure.Wrap(failure.StoreWriteFailure, err, "failed to save row %d", row.RowNumber)
		}
	}

	if err := tx.Commit(); err != nil {
		return failure.Wrap(failure.StoreWriteFailure, err, "failed to commit save")
	}
	return nil
}

func (r *CellRowRepository) args(row *secondary.CellRowRecord) []any {
	updatedAt := row.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now()
	}
	return []any{
		row.CardID, row.RowNumber,
		row.Values[0], row.Values[1], row.Values[2], row.Values[3],
		row.Locked[0], row.Locked[1], row.Locked[2], row.Locked[3],
		row.RowLocked, updatedAt.UTC(),
	}
}

// Ensure CellRowRepository implements the interface
var _ secondary.CellRowRepository = (*CellRowRepository)(nil)
