package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/reviewsim/reviewsim/internal/db"
	"github.com/reviewsim/reviewsim/internal/simulation"
)

// MaxKNN is the largest k sqlite-vec accepts in a single KNN query.
const MaxKNN = 4096

// ErrVectorUnavailable is returned when sqlite-vec could not be loaded.
var ErrVectorUnavailable = errors.New("store: vector index unavailable")

// VectorStore provides nearest-neighbour search over customer preference
// vectors via sqlite-vec. It satisfies simulation.CandidateIndex.
type VectorStore struct {
	db *db.DB
}

// NewVectorStore creates a VectorStore backed by the given DB.
func NewVectorStore(database *db.DB) *VectorStore {
	return &VectorStore{db: database}
}

// UpsertCustomerEmbedding inserts or replaces a customer preference vector.
func (v *VectorStore) UpsertCustomerEmbedding(ctx context.Context, id string, embedding []float32) error {
	if !v.db.VectorEnabled() {
		return ErrVectorUnavailable
	}
	if len(embedding) == 0 {
		return nil
	}
	// vec0 tables do not support ON CONFLICT, so replace by delete + insert.
	conn := v.db.Conn()
	if _, err := conn.ExecContext(ctx, `DELETE FROM vec_customers WHERE id = ?`, id); err != nil {
		return fmt.Errorf("vector: upsert customer embedding: %w", err)
	}
	if _, err := conn.ExecContext(ctx,
		`INSERT INTO vec_customers (id, embedding) VALUES (?, ?)`,
		id, Float32SliceToBlob(embedding),
	); err != nil {
		return fmt.Errorf("vector: upsert customer embedding: %w", err)
	}
	return nil
}

// SearchCustomers returns up to k customers nearest to query. Similarity is
// 1 - cosine distance.
func (v *VectorStore) SearchCustomers(ctx context.Context, query []float32, k int) ([]simulation.Candidate, error) {
	if !v.db.VectorEnabled() {
		return nil, ErrVectorUnavailable
	}
	if len(query) == 0 || k <= 0 {
		return nil, nil
	}
	if k > MaxKNN {
		return nil, fmt.Errorf("vector: k=%d exceeds the index limit of %d", k, MaxKNN)
	}

	rows, err := v.db.Conn().QueryContext(ctx,
		`SELECT id, distance FROM vec_customers WHERE embedding MATCH ? AND k = ?
		 ORDER BY distance`,
		Float32SliceToBlob(query), k,
	)
	if err != nil {
		return nil, fmt.Errorf("vector: search customers: %w", err)
	}
	defer rows.Close()

	var out []simulation.Candidate
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, err
		}
		out = append(out, simulation.Candidate{CustomerID: id, Similarity: 1 - distance})
	}
	return out, rows.Err()
}

// CountCustomerEmbeddings returns the number of indexed customers.
func (v *VectorStore) CountCustomerEmbeddings(ctx context.Context) (int, error) {
	if !v.db.VectorEnabled() {
		return 0, ErrVectorUnavailable
	}
	var n int
	if err := v.db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM vec_customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("vector: count: %w", err)
	}
	return n, nil
}

// DeleteCustomerEmbedding removes a customer from the index.
func (v *VectorStore) DeleteCustomerEmbedding(ctx context.Context, id string) error {
	if !v.db.VectorEnabled() {
		return ErrVectorUnavailable
	}
	_, err := v.db.Conn().ExecContext(ctx, `DELETE FROM vec_customers WHERE id = ?`, id)
	return err
}

// ---- Helpers ----

// Float32SliceToBlob serialises a float32 slice to a little-endian byte blob.
// This is the format expected by sqlite-vec's BLOB column input.
func Float32SliceToBlob(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// BlobToFloat32Slice deserialises a little-endian byte blob to a float32 slice.
func BlobToFloat32Slice(b []byte) []float32 {
	result := make([]float32, len(b)/4)
	for i := range result {
		bits := binary.LittleEndian.Uint32(b[i*4:])
		result[i] = math.Float32frombits(bits)
	}
	return result
}

