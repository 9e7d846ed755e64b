package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reviewsim/reviewsim/internal/db"
	"github.com/reviewsim/reviewsim/internal/simulation"
)

// Store provides read/write access to the reviewsim SQLite database.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given DB.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Conn exposes the underlying *sql.DB for low-level queries.
func (s *Store) Conn() *sql.DB {
	return s.db.Conn()
}

// ---- Segments ----

// UpsertSegment inserts a segment or updates the one with the same name.
// Returns the segment ID.
func (s *Store) UpsertSegment(ctx context.Context, seg Segment) (string, error) {
	if seg.ID == "" {
		seg.ID = uuid.NewString()
	}
	m := seg.Mean
	var id string
	err := s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO segments (id, name, description, price_sensitivity, quality_focus, design_focus, brand_loyalty, review_strictness)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
		    description       = excluded.description,
		    price_sensitivity = excluded.price_sensitivity,
		    quality_focus     = excluded.quality_focus,
		    design_focus      = excluded.design_focus,
		    brand_loyalty     = excluded.brand_loyalty,
		    review_strictness = excluded.review_strictness
		RETURNING id`,
		seg.ID, seg.Name, seg.Description, m[0], m[1], m[2], m[3], m[4],
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("store: upsert segment: %w", err)
	}
	return id, nil
}

// ListSegments returns all segments ordered by name.
func (s *Store) ListSegments(ctx context.Context) ([]Segment, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, name, description, price_sensitivity, quality_focus, design_focus, brand_loyalty, review_strictness, created_at
		FROM segments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list segments: %w", err)
	}
	defer rows.Close()

	var out []Segment
	for rows.Next() {
		var seg Segment
		var createdAt string
		m := &seg.Mean
		if err := rows.Scan(&seg.ID, &seg.Name, &seg.Description,
			&m[0], &m[1], &m[2], &m[3], &m[4], &createdAt); err != nil {
			return nil, err
		}
		seg.CreatedAt = parseTime(createdAt)
		out = append(out, seg)
	}
	return out, rows.Err()
}

// ---- Customers ----

// InsertCustomers stores customers in a single transaction. Customers without
// an ID get a fresh UUID. When the vector index is available each preference
// vector is also written to vec_customers.
func (s *Store) InsertCustomers(ctx context.Context, customers []simulation.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin insert customers: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO customers (id, name, segment_id, price_sensitivity, quality_focus, design_focus, brand_loyalty, review_strictness, preference)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert customer: %w", err)
	}
	defer stmt.Close()

	var vecStmt *sql.Stmt
	if s.db.VectorEnabled() {
		vecStmt, err = tx.PrepareContext(ctx, `INSERT INTO vec_customers (id, embedding) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare insert customer vector: %w", err)
		}
		defer vecStmt.Close()
	}

	for _, c := range customers {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		p := c.Profile
		blob := Float32SliceToBlob(c.Preference)
		if _, err := stmt.ExecContext(ctx, c.ID, c.Name, c.SegmentID,
			p[0], p[1], p[2], p[3], p[4], blob); err != nil {
			return fmt.Errorf("store: insert customer %s: %w", c.ID, err)
		}
		if vecStmt != nil {
			if _, err := vecStmt.ExecContext(ctx, c.ID, blob); err != nil {
				return fmt.Errorf("store: insert customer vector %s: %w", c.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit customers: %w", err)
	}
	return nil
}

const customerColumns = `c.id, c.name, c.segment_id, s.name,
	c.price_sensitivity, c.quality_focus, c.design_focus, c.brand_loyalty, c.review_strictness,
	c.preference`

// ListCustomers returns the whole corpus ordered by ID.
func (s *Store) ListCustomers(ctx context.Context) ([]simulation.Customer, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers c JOIN segments s ON s.id = c.segment_id
		ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("store: list customers: %w", err)
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// ListCustomersBySegment returns the customers of one segment, matched by name.
func (s *Store) ListCustomersBySegment(ctx context.Context, segmentName string) ([]simulation.Customer, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers c JOIN segments s ON s.id = c.segment_id
		WHERE s.name = ?
		ORDER BY c.id`, segmentName)
	if err != nil {
		return nil, fmt.Errorf("store: list customers by segment: %w", err)
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// CustomerStats returns the corpus size and per-segment counts. Segments with
// no customers are included with a zero count.
func (s *Store) CustomerStats(ctx context.Context) (CustomerStats, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT s.name, COUNT(c.id)
		FROM segments s LEFT JOIN customers c ON c.segment_id = s.id
		GROUP BY s.id ORDER BY s.name`)
	if err != nil {
		return CustomerStats{}, fmt.Errorf("store: customer stats: %w", err)
	}
	defer rows.Close()

	stats := CustomerStats{Segments: []SegmentCount{}}
	for rows.Next() {
		var sc SegmentCount
		if err := rows.Scan(&sc.Name, &sc.Count); err != nil {
			return CustomerStats{}, err
		}
		stats.Total += sc.Count
		stats.Segments = append(stats.Segments, sc)
	}
	return stats, rows.Err()
}

// ClearCorpus removes every customer and segment, including the vector index.
func (s *Store) ClearCorpus(ctx context.Context) error {
	stmts := []string{`DELETE FROM customers`, `DELETE FROM segments`}
	if s.db.VectorEnabled() {
		stmts = append(stmts, `DELETE FROM vec_customers`)
	}
	for _, stmt := range stmts {
		if _, err := s.db.Conn().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: clear corpus: %w", err)
		}
	}
	return nil
}

func scanCustomers(rows *sql.Rows) ([]simulation.Customer, error) {
	out := []simulation.Customer{}
	for rows.Next() {
		var c simulation.Customer
		var blob []byte
		p := &c.Profile
		if err := rows.Scan(&c.ID, &c.Name, &c.SegmentID, &c.SegmentName,
			&p[0], &p[1], &p[2], &p[3], &p[4], &blob); err != nil {
			return nil, err
		}
		c.Preference = BlobToFloat32Slice(blob)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ---- Helpers ----

// parseTime tries multiple SQLite timestamp layouts.
// go-sqlite3 may return RFC3339 or the plain "2006-01-02 15:04:05" format depending on
// the connection string and platform.
func parseTime(s string) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
