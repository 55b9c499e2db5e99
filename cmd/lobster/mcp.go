package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/lobster"
	"github.com/aretw0/lobster/internal/cli"
	"github.com/aretw0/lobster/internal/logging"
	"github.com/aretw0/lobster/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts Lobster as an MCP Server, exposing the run_pipeline, list_commands
and command_help tools to agents.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.

exec and process-backed commands are hidden unless --allow-exec is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		host, _ := cmd.Flags().GetString("host")

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		logger := logging.New(logLevel(cmd))
		slog.SetDefault(logger)
		log.SetOutput(os.Stderr)

		engine, closeStore, err := cli.NewEngine(baseOptions(cmd), logger, remoteOptions(cmd)...)
		if err != nil {
			return err
		}
		defer closeStore()

		srv := mcp.NewServer(engine.Remote(), lobster.Version, logger)

		switch transport {
		case "stdio":
			logger.Info("Starting Lobster MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			addr := net.JoinHostPort(host, strconv.Itoa(port))
			baseHost := host
			if baseHost == "" || baseHost == "0.0.0.0" || baseHost == "::" {
				baseHost = "localhost"
			}
			baseURL := "http://" + net.JoinHostPort(baseHost, strconv.Itoa(port))
			if err := srv.ServeSSE(ctx, addr, baseURL); err != nil {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	addRemoteFlags(mcpCmd)
}
