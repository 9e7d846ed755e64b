package cli

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/reviewsim/reviewsim/internal/api"
	"github.com/reviewsim/reviewsim/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve simulations over HTTP:

  GET  /api/health
  POST /api/simulate
  GET  /api/results/:id
  GET  /api/simulations/recent
  GET  /api/simulations/:id
  GET  /api/customers/stats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			gin.SetMode(gin.ReleaseMode)
			srv := api.NewServer(a.runner, a.logger)
			if err := srv.ListenAndServe(cmd.Context(), addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve simulation tools over the Model Context Protocol (stdio)",
		Long: `Start an MCP server on stdin/stdout exposing three tools:
simulate_product, get_simulation_results and list_recent_simulations.

Logs go to stderr so they never corrupt the protocol stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			return mcp.NewServer(a.runner, version, a.logger).ServeStdio()
		},
	}
}
