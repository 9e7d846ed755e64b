package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/reviewsim/reviewsim/internal/export"
	"github.com/reviewsim/reviewsim/internal/runner"
	"github.com/reviewsim/reviewsim/internal/store"
)

func (s *Server) handleSimulate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: description"), nil
	}

	rep, err := s.svc.Simulate(ctx, runner.Request{
		Description: description,
		Name:        req.GetString("product_name", ""),
		Price:       req.GetFloat("price", 0),
		Category:    req.GetString("category", ""),
		Segment:     req.GetString("segment", ""),
		Limit:       req.GetInt("limit", 0),
	})
	if err != nil {
		if !errors.Is(err, runner.ErrInvalidRequest) {
			s.logger.Error().Err(err).Msg("simulate_product failed")
		}
		return mcp.NewToolResultError(fmt.Sprintf("simulation failed: %v", err)), nil
	}

	md, err := export.Render("markdown", export.ExportData{Report: rep})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render results: %v", err)), nil
	}
	return mcp.NewToolResultText(md), nil
}

func (s *Server) handleGetResults(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("simulation_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: simulation_id"), nil
	}

	rep, err := s.svc.Report(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("simulation %s not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load results: %v", err)), nil
	}

	out, err := export.Render("json", export.ExportData{Report: rep})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render results: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleListRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", runner.DefaultRecent)

	recent, err := s.svc.Recent(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list simulations: %v", err)), nil
	}
	if len(recent) == 0 {
		return mcp.NewToolResultText("No simulations yet."), nil
	}

	var b strings.Builder
	for _, r := range recent {
		fmt.Fprintf(&b, "%s  %s  %-9s", r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Status)
		if r.Status == store.StatusCompleted {
			fmt.Fprintf(&b, "  avg %.2f  conv %.1f%%  score %.1f (%s)", r.AvgRating, r.ConversionRate, r.OverallScore, r.Grade)
		}
		fmt.Fprintf(&b, "  %s\n", r.ProductName)
	}
	return mcp.NewToolResultText(b.String()), nil
}
