package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
)

// CommandsURI is the resource listing the registered commands.
const CommandsURI = "lobster://commands"

// Runner is what the MCP server needs from the engine.
type Runner interface {
	ports.PipelineRunner
	Help(name string) (string, error)
}

// Server wraps a Runner and exposes it as an MCP Server.
type Server struct {
	runner    Runner
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(runner Runner, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner:    runner,
		mcpServer: server.NewMCPServer("lobster-mcp", version),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: run_pipeline
	runTool := mcp.NewTool("run_pipeline",
		mcp.WithDescription("Run a Lobster pipeline in tool mode. A halted run with status needs_approval must be re-run with the approval given (approve --yes)."),
		mcp.WithString("pipeline", mcp.Required(), mcp.Description("Pipeline text, e.g. \"exec --json gh pr list | pick number,title\"")),
		mcp.WithString("input", mcp.Description("JSON array of items fed to the first stage (optional)")),
		mcp.WithString("run_id", mcp.Description("Run identifier (optional)")),
	)
	s.mcpServer.AddTool(runTool, s.handleRun)

	// TOOL: list_commands
	s.mcpServer.AddTool(mcp.NewTool("list_commands",
		mcp.WithDescription("List the available pipeline commands with their argument schemas."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(s.runner.Commands())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})

	// TOOL: command_help
	s.mcpServer.AddTool(mcp.NewTool("command_help",
		mcp.WithDescription("Show the help text of one command."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Command name")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		help, err := s.runner.Help(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(help), nil
	})
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pipeline, err := request.RequireString("pipeline")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := ports.RunRequest{Pipeline: pipeline, RunID: request.GetString("run_id", "")}
	if raw := request.GetString("input", ""); raw != "" {
		items, err := decodeInput(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Input = items
	}

	var envelope domain.Envelope
	res, err := s.runner.RunRequest(ctx, req)
	if err != nil {
		s.logger.Warn("MCP run_pipeline failed", "error", err)
		envelope = domain.ErrorEnvelope(err)
	} else {
		envelope = domain.NewEnvelope(res)
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	result := mcp.NewToolResultStructured(envelope, string(data))
	result.IsError = !envelope.OK
	return result, nil
}

func decodeInput(raw string) ([]domain.Item, error) {
	decoded, err := domain.DecodeJSON([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("input must be a JSON array: %w", err)
	}
	list, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("input must be a JSON array, got %T", decoded)
	}
	return list, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(CommandsURI, "Available commands",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.runner.Commands())
		if err != nil {
			return nil, fmt.Errorf("failed to encode commands: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      CommandsURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
