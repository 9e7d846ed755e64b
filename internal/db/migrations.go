package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL migration statements.
// Each entry is applied once in order. New migrations are appended at the end.
var migrations = []string{
	// Migration 0: initial schema
	`CREATE TABLE IF NOT EXISTS segments (
		id                TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
		name              TEXT NOT NULL UNIQUE,
		description       TEXT NOT NULL DEFAULT '',
		price_sensitivity REAL NOT NULL,
		quality_focus     REAL NOT NULL,
		design_focus      REAL NOT NULL,
		brand_loyalty     REAL NOT NULL,
		review_strictness REAL NOT NULL,
		created_at        DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS customers (
		id                TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
		name              TEXT NOT NULL,
		segment_id        TEXT NOT NULL REFERENCES segments(id) ON DELETE CASCADE,
		price_sensitivity REAL NOT NULL,
		quality_focus     REAL NOT NULL,
		design_focus      REAL NOT NULL,
		brand_loyalty     REAL NOT NULL,
		review_strictness REAL NOT NULL,
		preference        BLOB NOT NULL,
		created_at        DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
		name        TEXT NOT NULL,
		description TEXT NOT NULL,
		price       REAL NOT NULL DEFAULT 0,
		category    TEXT NOT NULL DEFAULT '',
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS simulations (
		id              TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
		product_id      TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		status          TEXT NOT NULL DEFAULT 'RUNNING',
		embedder        TEXT NOT NULL DEFAULT '',
		seed            INTEGER NOT NULL DEFAULT 0,
		total_customers INTEGER NOT NULL DEFAULT 0,
		avg_rating      REAL,
		conversion_rate REAL,
		overall_score   REAL,
		grade           TEXT,
		error           TEXT,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
		completed_at    DATETIME
	)`,

	`CREATE TABLE IF NOT EXISTS predicted_reviews (
		id            TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
		simulation_id TEXT NOT NULL REFERENCES simulations(id) ON DELETE CASCADE,
		customer_id   TEXT NOT NULL,
		segment_name  TEXT NOT NULL DEFAULT '',
		rating        INTEGER NOT NULL,
		similarity    REAL NOT NULL,
		review_text   TEXT NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS embedding_cache (
		key        TEXT PRIMARY KEY,
		model      TEXT NOT NULL,
		embedding  BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_customers_segment   ON customers(segment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_simulations_created ON simulations(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_simulation  ON predicted_reviews(simulation_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_rating      ON predicted_reviews(simulation_id, rating)`,

	// Migration 1: migration tracking table
	`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// applyMigrations runs any migrations that have not yet been applied.
func applyMigrations(conn *sql.DB) error {
	// Ensure the migration tracking table exists first.
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, stmt := range migrations {
		var count int
		row := conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, i)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", i, err)
		}
		if count > 0 {
			continue
		}

		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i, err)
		}

		if _, err := conn.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, i); err != nil {
			return fmt.Errorf("record migration %d: %w", i, err)
		}
	}

	return nil
}

// applyVectorTables creates the sqlite-vec customer index. Distances are
// cosine distances, so similarity = 1 - distance.
func applyVectorTables(conn *sql.DB, dimension int) error {
	stmt := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_customers USING vec0(
		id TEXT PRIMARY KEY,
		embedding float[%d] distance_metric=cosine
	)`, dimension)
	if _, err := conn.Exec(stmt); err != nil {
		return fmt.Errorf("create vector table: %w", err)
	}
	return nil
}
