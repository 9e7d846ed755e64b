// Package mcp exposes simulations as Model Context Protocol tools over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/reviewsim/reviewsim/internal/runner"
	"github.com/reviewsim/reviewsim/internal/store"
)

// Service is the subset of *runner.Runner the tools use.
type Service interface {
	Simulate(ctx context.Context, req runner.Request) (*runner.Report, error)
	Report(ctx context.Context, id string) (*runner.Report, error)
	Recent(ctx context.Context, n int) ([]store.RecentSimulation, error)
}

// Server holds the tool handlers.
type Server struct {
	svc     Service
	version string
	logger  zerolog.Logger
}

// NewServer creates a Server.
func NewServer(svc Service, version string, logger zerolog.Logger) *Server {
	return &Server{svc: svc, version: version, logger: logger.With().Str("component", "mcp").Logger()}
}

// MCPServer builds the protocol server with every tool registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("reviewsim", s.version, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool("simulate_product",
		mcp.WithDescription("Simulate customer reviews for a product description and return the summary and score."),
		mcp.WithString("description", mcp.Required(), mcp.Description("Product description, at least 10 characters")),
		mcp.WithString("product_name", mcp.Description("Product name")),
		mcp.WithNumber("price", mcp.Description("Product price")),
		mcp.WithString("category", mcp.Description("Product category")),
		mcp.WithString("segment", mcp.Description("Only simulate customers of this segment")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of customers to simulate")),
	), s.handleSimulate)

	srv.AddTool(mcp.NewTool("get_simulation_results",
		mcp.WithDescription("Return the full results of a simulation as JSON."),
		mcp.WithString("simulation_id", mcp.Required(), mcp.Description("Simulation ID")),
	), s.handleGetResults)

	srv.AddTool(mcp.NewTool("list_recent_simulations",
		mcp.WithDescription("List the most recent simulations with their headline numbers."),
		mcp.WithNumber("limit", mcp.Description("Number of simulations (default 5)")),
	), s.handleListRecent)

	return srv
}

// ServeStdio serves the tools on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info().Msg("mcp server on stdio")
	return server.ServeStdio(s.MCPServer())
}
