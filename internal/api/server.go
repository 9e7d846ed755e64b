// Package api serves simulations over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/reviewsim/reviewsim/internal/runner"
	"github.com/reviewsim/reviewsim/internal/store"
)

// MaxRecent caps the limit query parameter of the recent listing.
const MaxRecent = 100

// Service is the subset of *runner.Runner the handlers use.
type Service interface {
	Simulate(ctx context.Context, req runner.Request) (*runner.Report, error)
	Report(ctx context.Context, id string) (*runner.Report, error)
	Simulation(ctx context.Context, id string) (store.Simulation, store.Product, error)
	Recent(ctx context.Context, n int) ([]store.RecentSimulation, error)
	CustomerStats(ctx context.Context) (store.CustomerStats, error)
}

// Server holds the HTTP handlers.
type Server struct {
	svc    Service
	logger zerolog.Logger
}

// NewServer creates a Server.
func NewServer(svc Service, logger zerolog.Logger) *Server {
	return &Server{svc: svc, logger: logger.With().Str("component", "api").Logger()}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.SetupRoutes(router)
	return router
}

// SetupRoutes configures all API routes.
func (s *Server) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/health", s.Health)
		api.POST("/simulate", s.Simulate)
		api.GET("/results/:id", s.Results)
		api.GET("/simulations/recent", s.Recent)
		api.GET("/simulations/:id", s.GetSimulation)
		api.GET("/customers/stats", s.CustomerStats)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info().Msg("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// Health reports liveness.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Simulate runs a simulation synchronously and returns its report.
func (s *Server) Simulate(c *gin.Context) {
	var req runner.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	rep, err := s.svc.Simulate(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err, "Simulation failed")
		return
	}
	c.JSON(http.StatusCreated, rep)
}

// Results returns the full report of one simulation.
func (s *Server) Results(c *gin.Context) {
	rep, err := s.svc.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err, "Failed to load results")
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GetSimulation returns a simulation row and its product.
func (s *Server) GetSimulation(c *gin.Context) {
	sim, product, err := s.svc.Simulation(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err, "Failed to load simulation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"simulation": sim, "product": product})
}

// Recent lists the latest simulations. The limit query parameter defaults
// to runner.DefaultRecent.
func (s *Server) Recent(c *gin.Context) {
	limit := runner.DefaultRecent
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(n, MaxRecent)
	}

	recent, err := s.svc.Recent(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err, "Failed to list simulations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"simulations": recent})
}

// CustomerStats returns corpus counts.
func (s *Server) CustomerStats(c *gin.Context) {
	stats, err := s.svc.CustomerStats(c.Request.Context())
	if err != nil {
		s.fail(c, err, "Failed to load customer stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// fail maps err to a status code. Validation messages are returned as-is;
// internal errors are logged and replaced by msg.
func (s *Server) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, runner.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		s.logger.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
