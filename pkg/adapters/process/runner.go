package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
)

// maxStderrExcerpt bounds how much stderr is quoted in an ExitError.
const maxStderrExcerpt = 2048

// Invocation describes one subprocess run. Command and Args form the argv;
// no shell is involved unless Command is a shell.
type Invocation struct {
	Command string
	Args    []string
	// Env is added on top of the parent environment.
	Env   map[string]string
	Stdin io.Reader
	Dir   string
}

// Result is the captured outcome of a successful run.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Executor runs subprocesses. Commands depend on it rather than on os/exec so
// that tests can substitute canned output.
type Executor interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, inv Invocation) (Result, error)

// Run calls f(ctx, inv).
func (f ExecutorFunc) Run(ctx context.Context, inv Invocation) (Result, error) { return f(ctx, inv) }

// ExitError reports a process that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Runner executes local processes with os/exec.
type Runner struct {
	baseDir string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for invocations that do not set one.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts inv and waits for it. A non-zero exit is returned as *ExitError
// carrying a stderr excerpt.
func (r *Runner) Run(ctx context.Context, inv Invocation) (Result, error) {
	if inv.Command == "" {
		return Result{}, errors.New("process: empty command")
	}

	cmd := exec.CommandContext(ctx, inv.Command, inv.Args...)
	cmd.Dir = inv.Dir
	if cmd.Dir == "" {
		cmd.Dir = r.baseDir
	}
	cmd.Env = append(cmd.Environ(), envList(inv.Env)...)
	cmd.Stdin = inv.Stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, &ExitError{
			Command:  inv.Command,
			ExitCode: exitErr.ExitCode(),
			Stderr:   excerpt(stderr.String()),
		}
	}
	return res, fmt.Errorf("failed to run %s: %w", inv.Command, err)
}

func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrExcerpt {
		return s[:maxStderrExcerpt] + "..."
	}
	return s
}

// DecodeOutput auto-detects JSON output. Objects and arrays that parse are
// returned decoded (numbers as json.Number); anything else is returned as the
// trimmed string with ok=false.
func DecodeOutput(stdout []byte) (value any, ok bool) {
	trimmed := strings.TrimSpace(string(stdout))
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err == nil {
			return v, true
		}
	}
	return trimmed, false
}

// ParseJSON decodes stdout strictly, failing with a short preview of the
// offending output.
func ParseJSON(command string, stdout []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(stdout))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%s returned invalid JSON (%v): %q", command, err, excerpt(string(stdout)))
	}
	return v, nil
}
