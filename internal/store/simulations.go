package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/reviewsim/reviewsim/internal/simulation"
)

// ReviewBatchSize is the number of predicted reviews written per transaction.
const ReviewBatchSize = 1000

// CreateSimulation stores the product and a RUNNING simulation for it in one
// transaction, filling in generated IDs.
func (s *Store) CreateSimulation(ctx context.Context, p Product, sim Simulation) (Product, Simulation, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if sim.ID == "" {
		sim.ID = uuid.NewString()
	}
	sim.ProductID = p.ID
	sim.Status = StatusRunning

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return p, sim, fmt.Errorf("store: begin create simulation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var createdAt string
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO products (id, name, description, price, category)
		VALUES (?, ?, ?, ?, ?)
		RETURNING created_at`,
		p.ID, p.Name, p.Description, p.Price, p.Category,
	).Scan(&createdAt); err != nil {
		return p, sim, fmt.Errorf("store: insert product: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO simulations (id, product_id, status, embedder, seed)
		VALUES (?, ?, ?, ?, ?)
		RETURNING created_at`,
		sim.ID, sim.ProductID, string(sim.Status), sim.Embedder, sim.Seed,
	).Scan(&createdAt); err != nil {
		return p, sim, fmt.Errorf("store: insert simulation: %w", err)
	}
	sim.CreatedAt = parseTime(createdAt)

	if err := tx.Commit(); err != nil {
		return p, sim, fmt.Errorf("store: commit simulation: %w", err)
	}
	return p, sim, nil
}

// InsertReviews stores predicted reviews for a simulation in batches of
// ReviewBatchSize, one transaction per batch.
func (s *Store) InsertReviews(ctx context.Context, simulationID string, reviews []Review) error {
	for start := 0; start < len(reviews); start += ReviewBatchSize {
		end := min(start+ReviewBatchSize, len(reviews))
		if err := s.insertReviewBatch(ctx, simulationID, reviews[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertReviewBatch(ctx context.Context, simulationID string, batch []Review) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin insert reviews: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO predicted_reviews (id, simulation_id, customer_id, segment_name, rating, similarity, review_text)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert review: %w", err)
	}
	defer stmt.Close()

	for _, r := range batch {
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, id, simulationID, r.CustomerID, r.SegmentName,
			r.Rating, r.Similarity, r.Text); err != nil {
			return fmt.Errorf("store: insert review: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit reviews: %w", err)
	}
	return nil
}

// CompleteSimulation marks a simulation COMPLETED and records its headline numbers.
func (s *Store) CompleteSimulation(ctx context.Context, id string, summary simulation.SimulationSummary, score simulation.ProductScore) error {
	res, err := s.db.Conn().ExecContext(ctx, `
		UPDATE simulations SET
		    status          = ?,
		    total_customers = ?,
		    avg_rating      = ?,
		    conversion_rate = ?,
		    overall_score   = ?,
		    grade           = ?,
		    completed_at    = CURRENT_TIMESTAMP
		WHERE id = ?`,
		string(StatusCompleted), summary.TotalCustomers, summary.AvgRating,
		summary.ConversionRate, score.OverallScore, score.Grade, id,
	)
	if err != nil {
		return fmt.Errorf("store: complete simulation: %w", err)
	}
	return requireRow(res, "simulation "+id)
}

// FailSimulation marks a simulation FAILED with the cause's message.
func (s *Store) FailSimulation(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.db.Conn().ExecContext(ctx, `
		UPDATE simulations SET status = ?, error = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		string(StatusFailed), msg, id,
	)
	if err != nil {
		return fmt.Errorf("store: fail simulation: %w", err)
	}
	return requireRow(res, "simulation "+id)
}

const simulationColumns = `sim.id, sim.product_id, sim.status, sim.embedder, sim.seed, sim.total_customers,
	COALESCE(sim.avg_rating, 0), COALESCE(sim.conversion_rate, 0), COALESCE(sim.overall_score, 0),
	COALESCE(sim.grade, ''), COALESCE(sim.error, ''), sim.created_at, sim.completed_at`

// GetSimulation returns a simulation and its product. A missing ID yields ErrNotFound.
func (s *Store) GetSimulation(ctx context.Context, id string) (Simulation, Product, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT `+simulationColumns+`,
		       p.id, p.name, p.description, p.price, p.category, p.created_at
		FROM simulations sim JOIN products p ON p.id = sim.product_id
		WHERE sim.id = ?`, id)

	var p Product
	var productCreated string
	sim, err := scanSimulation(row, &p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &productCreated)
	if err != nil {
		return sim, p, fmt.Errorf("store: get simulation: %w", notFound(err, "simulation "+id))
	}
	p.CreatedAt = parseTime(productCreated)
	return sim, p, nil
}

// RecentSimulations returns the n most recently created simulations, newest first.
func (s *Store) RecentSimulations(ctx context.Context, n int) ([]RecentSimulation, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT `+simulationColumns+`, p.name, p.category
		FROM simulations sim JOIN products p ON p.id = sim.product_id
		ORDER BY sim.created_at DESC, sim.rowid DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent simulations: %w", err)
	}
	defer rows.Close()

	out := []RecentSimulation{}
	for rows.Next() {
		var r RecentSimulation
		sim, err := scanSimulation(rows, &r.ProductName, &r.ProductCategory)
		if err != nil {
			return nil, err
		}
		r.Simulation = sim
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListReviews returns every review of a simulation, best rated first.
func (s *Store) ListReviews(ctx context.Context, simulationID string) ([]Review, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, simulation_id, customer_id, segment_name, rating, similarity, review_text
		FROM predicted_reviews
		WHERE simulation_id = ?
		ORDER BY rating DESC, similarity DESC, customer_id`, simulationID)
	if err != nil {
		return nil, fmt.Errorf("store: list reviews: %w", err)
	}
	defer rows.Close()
	return scanReviews(rows)
}

// SampleReviews returns at most one review per star rating, the one with the
// highest similarity, ordered from 5 stars down.
func (s *Store) SampleReviews(ctx context.Context, simulationID string) ([]Review, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, simulation_id, customer_id, segment_name, rating, similarity, review_text
		FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY rating ORDER BY similarity DESC, customer_id
			) AS rn
			FROM predicted_reviews
			WHERE simulation_id = ?
		)
		WHERE rn = 1
		ORDER BY rating DESC`, simulationID)
	if err != nil {
		return nil, fmt.Errorf("store: sample reviews: %w", err)
	}
	defer rows.Close()
	return scanReviews(rows)
}

// CountReviews returns the number of reviews stored for a simulation.
func (s *Store) CountReviews(ctx context.Context, simulationID string) (int, error) {
	var n int
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM predicted_reviews WHERE simulation_id = ?`, simulationID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count reviews: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSimulation(row scanner, extra ...any) (Simulation, error) {
	var sim Simulation
	var status, createdAt string
	var completedAt sql.NullString
	dest := []any{
		&sim.ID, &sim.ProductID, &status, &sim.Embedder, &sim.Seed, &sim.TotalCustomers,
		&sim.AvgRating, &sim.ConversionRate, &sim.OverallScore,
		&sim.Grade, &sim.Error, &createdAt, &completedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return sim, err
	}
	sim.Status = SimulationStatus(status)
	sim.CreatedAt = parseTime(createdAt)
	if completedAt.Valid {
		sim.CompletedAt = parseTime(completedAt.String)
	}
	return sim, nil
}

func scanReviews(rows *sql.Rows) ([]Review, error) {
	out := []Review{}
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.SimulationID, &r.CustomerID, &r.SegmentName,
			&r.Rating, &r.Similarity, &r.Text); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return nil
}
