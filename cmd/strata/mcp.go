package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lanreath/strata/internal/config"
	"github.com/lanreath/strata/internal/logging"
	"github.com/lanreath/strata/pkg/adapters/mcp"
	"github.com/lanreath/strata/pkg/session"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes chart instances as MCP tools so AI agents can create machines,
dispatch events, and read state.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMCP(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("store", "", "Snapshot store: memory, bolt, sqlite, or redis (overrides STRATA_STORE)")

	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	var cfg config.Server
	if err := config.FromEnv(&cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("store") {
		cfg.Store, _ = cmd.Flags().GetString("store")
	}

	// Logs must stay off stdout: stdio transport speaks JSON-RPC there.
	level, _ := cmd.Flags().GetString("log-level")
	logger := logging.New(logging.ParseLevel(level))

	path, err := chartPath(cmd, args)
	if err != nil {
		return err
	}
	def, err := loadChart(cmd.Context(), path)
	if err != nil {
		return err
	}

	store, locker, closer, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	managerOpts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(locker))
	}
	manager := session.NewManager(def, store, managerOpts...)

	srv := mcp.NewServer(manager)

	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")

	switch transport {
	case "stdio":
		logger.Info("mcp server starting", "transport", "stdio", "chart", def.Name)
		return srv.ServeStdio()
	case "sse":
		logger.Info("mcp server starting", "transport", "sse", "port", port, "chart", def.Name)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.ServeSSE(ctx, port); err != nil && err != http.ErrServerClosed {
			return err
		}
		logger.Info("mcp server stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
	}
}
