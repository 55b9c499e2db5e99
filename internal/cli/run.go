package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/aretw0/lobster/pkg/domain"
)

// Environment fallbacks for RunOptions.
const (
	EnvStateDir = "LOBSTER_STATE_DIR"
	EnvRedisURL = "LOBSTER_REDIS_URL"
	EnvMode     = "LOBSTER_MODE"
	EnvCommands = "LOBSTER_COMMANDS"
	EnvStateKey = "LOBSTER_STATE_KEY"
	EnvStateTTL = "LOBSTER_STATE_TTL"
)

// Mode values accepted by --mode.
const (
	ModeAuto  = "auto"
	ModeTool  = string(domain.ModeTool)
	ModeHuman = string(domain.ModeHuman)
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Pipeline     string
	Mode         string
	Input        string // Raw JSON array
	StateDir     string
	RedisURL     string
	CommandsFile string
	StateKey     string // hex or base64 AES-256 key; snapshots are encrypted at rest when set
	StateTTL     string // Go duration; Redis snapshots expire after it
	Debug        bool
	JSON         bool
}

// ApplyEnv fills options left empty by flags from the environment.
func (o *RunOptions) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if o.StateDir == "" {
		o.StateDir = getenv(EnvStateDir)
	}
	if o.RedisURL == "" {
		o.RedisURL = getenv(EnvRedisURL)
	}
	if o.Mode == "" {
		o.Mode = getenv(EnvMode)
	}
	if o.CommandsFile == "" {
		o.CommandsFile = getenv(EnvCommands)
	}
	if o.StateKey == "" {
		o.StateKey = getenv(EnvStateKey)
	}
	if o.StateTTL == "" {
		o.StateTTL = getenv(EnvStateTTL)
	}
}

// ResolveMode maps --mode to a run mode. Auto picks human mode only when the
// caller is attached to a terminal; --json always forces tool mode.
func ResolveMode(mode string, interactive, jsonOutput bool) (domain.Mode, error) {
	if jsonOutput {
		return domain.ModeTool, nil
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeAuto:
		if interactive {
			return domain.ModeHuman, nil
		}
		return domain.ModeTool, nil
	case ModeTool:
		return domain.ModeTool, nil
	case ModeHuman:
		return domain.ModeHuman, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected tool, human or auto)", mode)
	}
}

// IsTerminal reports whether both files are attached to a terminal.
func IsTerminal(in, out *os.File) bool {
	return term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
}

// ParseInput decodes the --input JSON array into items.
func ParseInput(raw string) ([]domain.Item, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	decoded, err := domain.DecodeJSON([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("error parsing --input JSON: %w", err)
	}
	items, ok := decoded.([]any)
	if !ok {
		return nil, errors.New("error parsing --input JSON: expected an array")
	}
	return items, nil
}

// IO bundles the streams a run talks to.
type IO struct {
	In          io.Reader
	Out         io.Writer
	Err         io.Writer
	Interactive bool
}

// StdIO returns the process streams.
func StdIO() IO {
	return IO{
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         os.Stderr,
		Interactive: IsTerminal(os.Stdin, os.Stdout),
	}
}

// ReportedError marks an error whose details were already written to the
// user. The binary exits non-zero without printing it again.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }
func (e *ReportedError) Unwrap() error { return e.Err }

// Execute runs one pipeline and writes its outcome.
//
// Tool mode prints a single JSON envelope on Out. Human mode prints items
// and a status line on Err. A halted run is not an error.
func Execute(ctx context.Context, opts RunOptions, stdio IO) error {
	opts.ApplyEnv(nil)

	mode, err := ResolveMode(opts.Mode, stdio.Interactive, opts.JSON)
	if err != nil {
		return err
	}
	input, err := ParseInput(opts.Input)
	if err != nil {
		return err
	}

	logger := createLogger(opts.Debug, stdio.Err)
	engine, closeStore, err := createEngine(opts, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	runOpts := newRunOptions(ctx, input, mode, stdio)
	res, runErr := engine.Run(ctx, opts.Pipeline, runOpts)

	if mode == domain.ModeTool {
		return writeEnvelope(stdio.Out, res, runErr)
	}
	return writeHuman(stdio, res, runErr)
}

func writeEnvelope(w io.Writer, res *domain.Result, runErr error) error {
	var env domain.Envelope
	if runErr != nil {
		env = domain.ErrorEnvelope(runErr)
	} else {
		env = domain.NewEnvelope(res)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if runErr != nil {
		return &ReportedError{Err: runErr}
	}
	return nil
}
