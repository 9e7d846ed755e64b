package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/reviewsim/reviewsim/internal/db"
)

// EmbeddingCache memoizes text embeddings in SQLite, keyed by a caller-chosen
// key (typically a hash of model and text).
type EmbeddingCache struct {
	db *db.DB
}

// NewEmbeddingCache creates an EmbeddingCache backed by the given DB.
func NewEmbeddingCache(database *db.DB) *EmbeddingCache {
	return &EmbeddingCache{db: database}
}

// Get returns the cached vector for key, if present.
func (c *EmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	var blob []byte
	err := c.db.Conn().QueryRowContext(ctx,
		`SELECT embedding FROM embedding_cache WHERE key = ?`, key,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get cached embedding: %w", err)
	}
	return BlobToFloat32Slice(blob), true, nil
}

// Put stores vec under key, replacing any previous entry.
func (c *EmbeddingCache) Put(ctx context.Context, key, model string, vec []float32) error {
	_, err := c.db.Conn().ExecContext(ctx, `
		INSERT INTO embedding_cache (key, model, embedding) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
		    model      = excluded.model,
		    embedding  = excluded.embedding,
		    created_at = CURRENT_TIMESTAMP`,
		key, model, Float32SliceToBlob(vec),
	)
	if err != nil {
		return fmt.Errorf("store: put cached embedding: %w", err)
	}
	return nil
}

// Len returns the number of cached embeddings.
func (c *EmbeddingCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM embedding_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count cached embeddings: %w", err)
	}
	return n, nil
}
