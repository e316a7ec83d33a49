package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/controlcard/internal/adapters/sqlite"
	"github.com/example/controlcard/internal/failure"
	"github.com/example/controlcard/internal/ports/secondary"
)

func TestCellRowRepository_UpsertAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewCellRowRepository(db)
	ctx := context.Background()
	cardID := seedCard(t, db, "", 1, 1)

	rows := []*secondary.CellRowRecord{
		{CardID: cardID, RowNumber: 2, Values: [4]string{"B", "", "", ""}},
		{CardID: cardID, RowNumber: 1, Values: [4]string{"A", "C", "D", "E"}, Locked: [4]bool{true, true, true, true}, RowLocked: true},
	}
	if err := repo.UpsertAll(ctx, rows); err != nil {
		t.Fatalf("UpsertAll failed: %v", err)
	}

	got, err := repo.ListByCard(ctx, cardID)
	if err != nil {
		t.Fatalf("ListByCard failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].RowNumber != 1 || got[1].RowNumber != 2 {
		t.Errorf("rows not ordered by number: %d, %d", got[0].RowNumber, got[1].RowNumber)
	}
	if got[0].Values != [4]string{"A", "C", "D", "E"} {
		t.Errorf("row 1 values = %v", got[0].Values)
	}
	if !got[0].RowLocked || got[0].Locked != [4]bool{true, true, true, true} {
		t.Errorf("row 1 locks not stored: %+v", got[0])
	}
	if got[1].Locked[0] {
		t.Error("row 2 col 1 should not be locked")
	}
	if got[0].UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestCellRowRepository_Upsert_UnchangedKeepsTimestamp(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewCellRowRepository(db)
	ctx := context.Background()
	cardID := seedCard(t, db, "", 1, 1)

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	row := &secondary.CellRowRecord{CardID: cardID, RowNumber: 1, Values: [4]string{"X", "", "", ""}, UpdatedAt: first}
	if err := repo.Upsert(ctx, row); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	again := *row
	again.UpdatedAt = first.Add(time.Hour)
	if err := repo.Upsert(ctx, &again); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, _ := repo.ListByCard(ctx, cardID)
	if !got[0].UpdatedAt.Equal(first) {
		t.Errorf("unchanged row timestamp moved: %v", got[0].UpdatedAt)
	}

	changed := again
	changed.Values[1] = "Y"
	if err := repo.Upsert(ctx, &changed); err != nil {
		t.Fatalf("third Upsert failed: %v", err)
	}

	got, _ = repo.ListByCard(ctx, cardID)
	if !got[0].UpdatedAt.Equal(again.UpdatedAt) {
		t.Errorf("changed row timestamp = %v, want %v", got[0].UpdatedAt, again.UpdatedAt)
	}
	if got[0].Values[1] != "Y" {
		t.Errorf("expected col 2 = Y, got %q", got[0].Values[1])
	}
}

func TestCellRowRepository_UpsertAll_RollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewCellRowRepository(db)
	ctx := context.Background()
	cardID := seedCard(t, db, "", 1, 1)

	// The second row points at a card that does not exist, so the foreign
	// key fails and the first row must not be kept either.
	rows := []*secondary.CellRowRecord{
		{CardID: cardID, RowNumber: 1, Values: [4]string{"A", "", "", ""}},
		{CardID: cardID + 100, RowNumber: 1, Values: [4]string{"B", "", "", ""}},
	}
	err := repo.UpsertAll(ctx, rows)
	if !failure.Is(err, failure.StoreWriteFailure) {
		t.Fatalf("expected STORE_WRITE_FAILURE, got %v", err)
	}

	got, _ := repo.ListByCard(ctx, cardID)
	if len(got) != 0 {
		t.Errorf("expected no rows after rollback, got %d", len(got))
	}
}
