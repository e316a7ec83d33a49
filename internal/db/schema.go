package db

import "database/sql"

// SchemaSQL is the complete modern schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Tests load it
// through GetSchemaSQL() instead of hardcoding CREATE TABLE statements, so a
// repository referencing a missing column fails immediately with
// "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
//  3. Bump the version loop in InitSchema via len(migrations)
const SchemaSQL = `
-- Cards (one per redeemed entry code)
CREATE TABLE IF NOT EXISTS cards (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	code TEXT NOT NULL,
	name TEXT NOT NULL,
	competitor_number INTEGER NOT NULL DEFAULT 0,
	competitor_id INTEGER NOT NULL DEFAULT 0,
	card_number INTEGER NOT NULL DEFAULT 0,
	card_id INTEGER NOT NULL DEFAULT 0,
	row_count INTEGER NOT NULL CHECK(row_count > 0),
	finalized INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	finalized_at DATETIME
);

-- Cell rows (one per card and row number)
CREATE TABLE IF NOT EXISTS cell_rows (
	card_id INTEGER NOT NULL,
	row_number INTEGER NOT NULL,
	col1 TEXT NOT NULL DEFAULT '',
	col2 TEXT NOT NULL DEFAULT '',
	col3 TEXT NOT NULL DEFAULT '',
	col4 TEXT NOT NULL DEFAULT '',
	col1_locked INTEGER NOT NULL DEFAULT 0,
	col2_locked INTEGER NOT NULL DEFAULT 0,
	col3_locked INTEGER NOT NULL DEFAULT 0,
	col4_locked INTEGER NOT NULL DEFAULT 0,
	row_locked INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (card_id, row_number),
	FOREIGN KEY (card_id) REFERENCES cards(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_cards_competitor_number ON cards(competitor_number);

-- One card per (competitor id, card id). Legacy redemptions carry no card id
-- and are unique per (rally code, competitor id) instead.
CREATE UNIQUE INDEX IF NOT EXISTS idx_cards_competitor_card ON cards(competitor_id, card_id) WHERE card_id != 0;
CREATE UNIQUE INDEX IF NOT EXISTS idx_cards_code_competitor ON cards(code, competitor_id) WHERE card_id = 0;
`

// InitSchema prepares db for use. Fresh databases get SchemaSQL directly
// and are marked as fully migrated; existing ones run pending migrations.
func InitSchema(db *sql.DB) error {
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(db)
	}

	var oldTableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('cards', 'cell_rows')").Scan(&oldTableCount)
	if err != nil {
		return err
	}
	if oldTableCount > 0 {
		// Pre-versioning database - upgrade from the oldest layout
		return RunMigrations(db)
	}

	if _, err := db.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := ensureVersionTable(db); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
