// Package store persists the customer corpus, products, simulation runs and
// predicted reviews in SQLite.
package store

import (
	"errors"
	"time"

	"github.com/reviewsim/reviewsim/internal/simulation"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// SimulationStatus is the lifecycle state of a simulation run.
type SimulationStatus string

const (
	StatusRunning   SimulationStatus = "RUNNING"
	StatusCompleted SimulationStatus = "COMPLETED"
	StatusFailed    SimulationStatus = "FAILED"
)

// Segment is a named customer group with a mean behavioral profile.
type Segment struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Mean        simulation.ProfileVector `json:"mean"`
	CreatedAt   time.Time                `json:"created_at"`
}

// Product is the item a simulation evaluates.
type Product struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Price       float64   `json:"price" yaml:"price"`
	Category    string    `json:"category,omitempty" yaml:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Simulation is one run of the engine against a product.
type Simulation struct {
	ID             string           `json:"id" yaml:"id"`
	ProductID      string           `json:"product_id" yaml:"product_id"`
	Status         SimulationStatus `json:"status" yaml:"status"`
	Embedder       string           `json:"embedder" yaml:"embedder"`
	Seed           int64            `json:"seed" yaml:"seed"`
	TotalCustomers int              `json:"total_customers" yaml:"total_customers"`
	AvgRating      float64          `json:"avg_rating" yaml:"avg_rating"`
	ConversionRate float64          `json:"conversion_rate" yaml:"conversion_rate"`
	OverallScore   float64          `json:"overall_score" yaml:"overall_score"`
	Grade          string           `json:"grade,omitempty" yaml:"grade,omitempty"`
	Error          string           `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt      time.Time        `json:"created_at" yaml:"created_at"`
	CompletedAt    time.Time        `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Review is a persisted predicted review.
type Review struct {
	ID           string  `json:"id" yaml:"id"`
	SimulationID string  `json:"simulation_id" yaml:"simulation_id"`
	CustomerID   string  `json:"customer_id" yaml:"customer_id"`
	SegmentName  string  `json:"segment_name" yaml:"segment_name"`
	Rating       int     `json:"rating" yaml:"rating"`
	Similarity   float64 `json:"similarity" yaml:"similarity"`
	Text         string  `json:"text" yaml:"text"`
}

// RecentSimulation is a simulation joined with its product for listings.
type RecentSimulation struct {
	Simulation
	ProductName     string `json:"product_name" yaml:"product_name"`
	ProductCategory string `json:"product_category,omitempty" yaml:"product_category,omitempty"`
}

// SegmentCount is the number of customers in one segment.
type SegmentCount struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// CustomerStats summarises the seeded corpus.
type CustomerStats struct {
	Total    int            `json:"total" yaml:"total"`
	Segments []SegmentCount `json:"segments" yaml:"segments"`
}
