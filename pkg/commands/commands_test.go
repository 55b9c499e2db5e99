package commands_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/lobster/internal/logging"
	"github.com/aretw0/lobster/pkg/adapters/process"
	"github.com/aretw0/lobster/pkg/commands"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultRegistry_Builtins(t *testing.T) {
	reg, err := commands.NewDefaultRegistry(commands.Options{})
	require.NoError(t, err)

	for _, name := range []string{
		"exec", "approve", "pick", "head", "where", "json",
		"state.get", "state.set", "state.diff",
		"github.pr.monitor", "github.pr.monitor.notify",
		"gog.gmail.search", "gog.gmail.send", "email.triage",
		"workflows.list", "workflows.run",
	} {
		_, err := reg.Resolve(name)
		assert.NoError(t, err, name)
	}
}

func TestNewDefaultRegistry_Aliases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`commands:
  - name: issues
    command: gh
    args: [issue, list, --json, number]
    description: list issues
    json: true
  - name: head
    command: head
`), 0o644))

	var calls []process.Invocation
	exec := process.ExecutorFunc(func(ctx context.Context, inv process.Invocation) (process.Result, error) {
		calls = append(calls, inv)
		return process.Result{Stdout: []byte(`[{"number":1}]`)}, nil
	})

	var logs bytes.Buffer
	reg, err := commands.NewDefaultRegistry(commands.Options{
		Executor:     exec,
		CommandsFile: path,
		Logger:       logging.NewWithWriter(&logs, slog.LevelDebug),
	})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "command alias overrides a built-in command")

	help, err := reg.Help("issues")
	require.NoError(t, err)
	assert.Contains(t, help, "list issues")

	cmd, err := reg.Resolve("issues")
	require.NoError(t, err)
	out, err := cmd.Run(context.Background(), domain.Empty(), domain.Args{"state": domain.StringValue("open")}, ports.RunContext{})
	require.NoError(t, err)
	items, err := domain.Collect(context.Background(), out.Stream)
	require.NoError(t, err)

	assert.Len(t, items, 1)
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"issue", "list", "--json", "number", "--state=open"}, calls[0].Args)
}

func TestNewDefaultRegistry_MissingFileIgnored(t *testing.T) {
	_, err := commands.NewDefaultRegistry(commands.Options{CommandsFile: filepath.Join(t.TempDir(), "absent.yaml")})
	assert.NoError(t, err)
}

func TestNewDefaultRegistry_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commands:\n  - name: broken\n"), 0o644))

	_, err := commands.NewDefaultRegistry(commands.Options{CommandsFile: path})
	assert.ErrorContains(t, err, "has no executable")
}
