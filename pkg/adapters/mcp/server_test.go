package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lobster/internal/logging"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
)

type mockRunner struct {
	requests []ports.RunRequest
	run      func(req ports.RunRequest) (*domain.Result, error)
}

func (m *mockRunner) RunRequest(ctx context.Context, req ports.RunRequest) (*domain.Result, error) {
	m.requests = append(m.requests, req)
	if m.run != nil {
		return m.run(req)
	}
	return &domain.Result{Items: []domain.Item{"ok"}}, nil
}

func (m *mockRunner) Commands() []domain.CommandInfo {
	return []domain.CommandInfo{{Name: "head", Description: "first N items"}}
}

func (m *mockRunner) Help(name string) (string, error) {
	if name != "head" {
		return "", domain.ErrCommandNotFound
	}
	return "head - first N items\n", nil
}

func callRun(t *testing.T, s *Server, args map[string]any) (*mcp.CallToolResult, domain.Envelope) {
	t.Helper()
	res, err := s.handleRun(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var env domain.Envelope
	if res.StructuredContent != nil {
		require.NoError(t, json.Unmarshal([]byte(text.Text), &env))
	}
	return res, env
}

func TestRunPipeline_OK(t *testing.T) {
	runner := &mockRunner{}
	s := NewServer(runner, "test", logging.NewNop())

	res, env := callRun(t, s, map[string]any{
		"pipeline": "head --n 1",
		"input":    `[1, {"a": 2}]`,
		"run_id":   "r1",
	})
	assert.False(t, res.IsError)
	assert.True(t, env.OK)
	assert.Equal(t, domain.StatusOK, env.Status)
	assert.Equal(t, []domain.Item{"ok"}, env.Output)

	require.Len(t, runner.requests, 1)
	req := runner.requests[0]
	assert.Equal(t, "head --n 1", req.Pipeline)
	assert.Equal(t, "r1", req.RunID)
	assert.Len(t, req.Input, 2)
}

func TestRunPipeline_NeedsApproval(t *testing.T) {
	runner := &mockRunner{run: func(req ports.RunRequest) (*domain.Result, error) {
		return &domain.Result{
			Halted: true,
			Items:  []domain.Item{map[string]any{"type": domain.ApprovalRequestType, "prompt": "Send?"}},
		}, nil
	}}
	s := NewServer(runner, "test", logging.NewNop())

	res, env := callRun(t, s, map[string]any{"pipeline": "approve --prompt Send?"})
	assert.False(t, res.IsError)
	assert.Equal(t, domain.StatusNeedsApproval, env.Status)
}

func TestRunPipeline_Errors(t *testing.T) {
	runner := &mockRunner{run: func(req ports.RunRequest) (*domain.Result, error) {
		return nil, &domain.StageError{Stage: 1, Name: "exec", Raw: "exec false", Err: errors.New("exit status 1")}
	}}
	s := NewServer(runner, "test", logging.NewNop())

	res, env := callRun(t, s, map[string]any{"pipeline": "exec false"})
	assert.True(t, res.IsError)
	assert.False(t, env.OK)
	require.NotNil(t, env.Error)
	assert.Equal(t, domain.ErrorTypeStage, env.Error.Type)
	assert.Equal(t, 1, env.Error.Stage)
}

func TestRunPipeline_InvalidArguments(t *testing.T) {
	runner := &mockRunner{}
	s := NewServer(runner, "test", logging.NewNop())

	res, err := s.handleRun(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: map[string]any{}},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleRun(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: map[string]any{"pipeline": "head", "input": `{"not":"array"}`}},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Empty(t, runner.requests)
}

func TestDecodeInput(t *testing.T) {
	items, err := decodeInput(`[1, "two", {"n": 3}]`)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "two", items[1])
	assert.Equal(t, json.Number("3"), items[2].(map[string]any)["n"])

	_, err = decodeInput(`nope`)
	assert.Error(t, err)
}

func TestTools_Registered(t *testing.T) {
	s := NewServer(&mockRunner{}, "test", logging.NewNop())
	tools := s.MCPServer().ListTools()
	for _, name := range []string{"run_pipeline", "list_commands", "command_help"} {
		assert.Contains(t, tools, name)
	}
}
