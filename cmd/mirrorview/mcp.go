// ABOUTME: MCP server command implementation for mirrorview.
// ABOUTME: Starts the MCP server in stdio mode with an optional Prometheus endpoint.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcppkg "github.com/2389-research/mirrorview/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio mode)",
	Long: `Start the Model Context Protocol server for AI agent integration.

The MCP server communicates via stdio, allowing AI agents to list posts,
test mirrors, and pick the best mirror through a standardized protocol.

With --metrics-addr, Prometheus metrics for catalog fetches and mirror
probes are served at /metrics on that address.`,
	RunE: runMCP,
}

var mcpMetricsAddr string

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server, err := mcppkg.NewServer(globalCache, globalProber, globalRanker, version,
		mcppkg.WithPrefs(globalPrefs),
		mcppkg.WithLogger(globalLogger),
	)
	if err != nil {
		return err
	}

	addr := mcpMetricsAddr
	if addr == "" {
		addr = globalConfig.Metrics.Addr
	}
	if addr != "" {
		stop := serveMetrics(addr)
		defer stop()
	}

	return server.Serve(ctx)
}

// serveMetrics starts the metrics endpoint and returns a shutdown func.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", globalMetrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		globalLogger.Info("metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error("metrics endpoint failed", "addr", addr, "err", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
