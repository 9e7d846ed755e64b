package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/reviewsim/reviewsim/internal/vecmath"
)

func init() {
	// Every connection gets the vec0 module; the customer index depends on it.
	vec.Auto()
}

// DB is the project's simulation database: the relational schema plus the
// optional vec0 customer index.
type DB struct {
	conn      *sql.DB
	path      string
	vectorErr error
}

// Health summarizes the database for status output.
type Health struct {
	Path          string
	SizeBytes     int64
	SchemaVersion int
	VectorIndex   bool
	// VectorReason explains why the customer index is missing. Empty when
	// VectorIndex is true.
	VectorReason string
}

// Open opens (or creates) the simulation database at path, applies the schema
// migrations and tries to create the vec0 customer index.
func Open(path string) (*DB, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("db: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("db: create directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", absPath)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite: %w", err)
	}

	// Review inserts run in one transaction per batch; keep a single writer.
	conn.SetMaxOpenConns(1)

	if err := applyMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: apply migrations: %w", err)
	}

	return &DB{
		conn:      conn,
		path:      absPath,
		vectorErr: applyVectorTables(conn, vecmath.EmbeddingDimension),
	}, nil
}

// Conn returns the underlying *sql.DB for the store layers.
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// Path returns the absolute database file path.
func (d *DB) Path() string {
	return d.path
}

// VectorEnabled reports whether the vec0 customer index exists. Without it
// simulations rank customers exhaustively.
func (d *DB) VectorEnabled() bool {
	return d.vectorErr == nil
}

// VectorError returns the reason the customer index is unavailable, or nil.
func (d *DB) VectorError() error {
	return d.vectorErr
}

// Health reports the schema version, file size and customer index state.
func (d *DB) Health(ctx context.Context) (Health, error) {
	h := Health{Path: d.path, VectorIndex: d.VectorEnabled()}
	if d.vectorErr != nil {
		h.VectorReason = d.vectorErr.Error()
	}

	var version sql.NullInt64
	if err := d.conn.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return h, fmt.Errorf("db: schema version: %w", err)
	}
	if version.Valid {
		h.SchemaVersion = int(version.Int64)
	}

	if fi, err := os.Stat(d.path); err == nil {
		h.SizeBytes = fi.Size()
	}
	return h, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Ping checks the connection is live.
func (d *DB) Ping() error {
	return d.conn.Ping()
}
