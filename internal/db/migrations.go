package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_cards_and_cell_rows",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_cell_lock_flags",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_competitor_and_card_ids",
		Up:      migrationV3,
	},
	{
		Version: 4,
		Name:    "add_row_count_and_finalized_at",
		Up:      migrationV4,
	},
	{
		Version: 5,
		Name:    "scope_legacy_cards_by_code",
		Up:      migrationV5,
	},
}

// Applied is called with the name of every migration that runs.
// It defaults to a no-op; Open points it at the configured logger.
var Applied = func(version int, name string) {}

func ensureVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// RunMigrations executes all pending migrations
func RunMigrations(db *sql.DB) error {
	if err := ensureVersionTable(db); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		Applied(migration.Version, migration.Name)
	}

	return nil
}

// migrationV1 creates the first layout: a card per rally code and one row
// record per (card, row) holding four values.
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS cards (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			competitor_number INTEGER NOT NULL DEFAULT 0,
			finalized INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS cell_rows (
			card_id INTEGER NOT NULL,
			row_number INTEGER NOT NULL,
			col1 TEXT NOT NULL DEFAULT '',
			col2 TEXT NOT NULL DEFAULT '',
			col3 TEXT NOT NULL DEFAULT '',
			col4 TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (card_id, row_number),
			FOREIGN KEY (card_id) REFERENCES cards(id) ON DELETE CASCADE
		);
	`)
	return err
}

// migrationV2 adds per-cell scan locks and the derived row lock.
func migrationV2(tx *sql.Tx) error {
	for _, col := range []string{"col1_locked", "col2_locked", "col3_locked", "col4_locked", "row_locked"} {
		if _, err := tx.Exec(fmt.Sprintf("ALTER TABLE cell_rows ADD COLUMN %s INTEGER NOT NULL DEFAULT 0", col)); err != nil {
			return fmt.Errorf("add %s: %w", col, err)
		}
	}
	return nil
}

// migrationV3 adds the richer redemption identifiers and the uniqueness rule
// on (competitor id, card id). Existing cards get competitor_id from their
// competitor number so the index can be built.
func migrationV3(tx *sql.Tx) error {
	for _, col := range []string{"competitor_id", "card_number", "card_id"} {
		if _, err := tx.Exec(fmt.Sprintf("ALTER TABLE cards ADD COLUMN %s INTEGER NOT NULL DEFAULT 0", col)); err != nil {
			return fmt.Errorf("add %s: %w", col, err)
		}
	}
	if _, err := tx.Exec("UPDATE cards SET competitor_id = competitor_number, card_id = id"); err != nil {
		return fmt.Errorf("backfill ids: %w", err)
	}
	_, err := tx.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_cards_competitor_card ON cards(competitor_id, card_id);
		CREATE INDEX IF NOT EXISTS idx_cards_competitor_number ON cards(competitor_number);
	`)
	return err
}

// migrationV4 stores the row count per card; older cards were all 30 rows.
func migrationV4(tx *sql.Tx) error {
	if _, err := tx.Exec("ALTER TABLE cards ADD COLUMN row_count INTEGER NOT NULL DEFAULT 30"); err != nil {
		return fmt.Errorf("add row_count: %w", err)
	}
	if _, err := tx.Exec("ALTER TABLE cards ADD COLUMN finalized_at DATETIME"); err != nil {
		return fmt.Errorf("add finalized_at: %w", err)
	}
	return nil
}

// migrationV5 scopes legacy cards (card id 0) by rally code. Databases
// created from the v4 schema carry the old rule as a table constraint, which
// SQLite cannot drop, so their cards table is rebuilt first.
func migrationV5(tx *sql.Tx) error {
	var inline int
	err := tx.QueryRow(`SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'index' AND tbl_name = 'cards' AND name LIKE 'sqlite_autoindex_cards_%'`).Scan(&inline)
	if err != nil {
		return fmt.Errorf("inspect cards indexes: %w", err)
	}
	if inline > 0 {
		if err := rebuildCards(tx); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`
		DROP INDEX IF EXISTS idx_cards_competitor_card;
		CREATE UNIQUE INDEX idx_cards_competitor_card ON cards(competitor_id, card_id) WHERE card_id != 0;
		CREATE UNIQUE INDEX idx_cards_code_competitor ON cards(code, competitor_id) WHERE card_id = 0;
		CREATE INDEX IF NOT EXISTS idx_cards_competitor_number ON cards(competitor_number);
	`)
	return err
}

// rebuildCards recreates cards without table constraints. Dropping the old
// table cascades into cell_rows, so those rows are parked and restored.
func rebuildCards(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE cards_v5 (
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
		INSERT INTO cards_v5 (id, code, name, competitor_number, competitor_id, card_number, card_id,
			row_count, finalized, created_at, finalized_at)
		SELECT id, code, name, competitor_number, competitor_id, card_number, card_id,
			row_count, finalized, created_at, finalized_at FROM cards;

		CREATE TEMP TABLE cell_rows_v5 AS SELECT * FROM cell_rows;
		DROP TABLE cards;
		ALTER TABLE cards_v5 RENAME TO cards;
		INSERT INTO cell_rows SELECT * FROM cell_rows_v5;
		DROP TABLE cell_rows_v5;
	`)
	if err != nil {
		return fmt.Errorf("rebuild cards: %w", err)
	}
	return nil
}
