package ports

import (
	"context"

	"github.com/aretw0/lobster/pkg/domain"
)

// RunRequest is a pipeline invocation coming from a remote surface.
type RunRequest struct {
	Pipeline string            `json:"pipeline"`
	Input    []domain.Item     `json:"input,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	// RunID is optional; lets a caller subscribe to the run's events in advance.
	RunID string `json:"runId,omitempty"`
}

// PipelineRunner is implemented by the engine facade and consumed by the HTTP
// and MCP adapters. Remote runs always execute in tool mode.
type PipelineRunner interface {
	RunRequest(ctx context.Context, req RunRequest) (*domain.Result, error)
	Commands() []domain.CommandInfo
}
