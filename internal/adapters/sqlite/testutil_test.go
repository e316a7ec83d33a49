// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() so tests run against the
// authoritative schema. Do not hardcode CREATE TABLE statements in test files.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/controlcard/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// The pool is pinned to one connection because every new :memory:
// connection would otherwise see its own empty database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedCard inserts a test card and returns its ID.
func seedCard(t *testing.T, db *sql.DB, code string, competitorNumber, cardID int) int64 {
	t.Helper()
	if code == "" {
		code = "RALLY-001"
	}
	result, err := db.Exec(
		`INSERT INTO cards (code, name, competitor_number, competitor_id, card_number, card_id, row_count)
		VALUES (?, ?, ?, ?, 1, ?, 30)`,
		code, "Test Rally", competitorNumber, competitorNumber, cardID,
	)
	if err != nil {
		t.Fatalf("failed to seed card: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}
