package ports

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/lobster/pkg/domain"
)

// Command is the contract every pipeline stage implements.
//
// Run receives the upstream stream, the stage's parsed arguments and the
// run-wide context. It returns the stage's output stream and may set
// Output.Halt to stop the pipeline after this stage. A command that does not
// read its input must still drain it (domain.Discard) before it completes.
type Command interface {
	Run(ctx context.Context, input domain.Stream, args domain.Args, rc RunContext) (Output, error)
}

// Output is what a command hands back to the runtime.
type Output struct {
	Stream domain.Stream
	// Halt stops propagation: later stages are not invoked, but Stream is still drained.
	Halt bool
}

// Helper is implemented by commands that provide help text.
type Helper interface {
	Help() string
}

// SchemaProvider is implemented by commands that declare their arguments.
type SchemaProvider interface {
	Schema() domain.ArgSchema
}

// Describer is implemented by commands that provide a one-line description.
type Describer interface {
	Description() string
}

// CommandResolver looks commands up by name.
// Returns domain.ErrCommandNotFound when the name is unknown.
type CommandResolver interface {
	Resolve(name string) (Command, error)
}

// RunContext is the read-only bundle shared by every stage of one run.
// The runtime hands each stage its own copy of Env.
type RunContext struct {
	RunID    string
	Mode     domain.Mode
	Env      map[string]string
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Registry CommandResolver
	// Store is nil when no snapshot store is configured.
	Store SnapshotStore
	// Locker is nil unless snapshot updates must be serialized across processes.
	Locker DistributedLocker
	Logger *slog.Logger
}

// Getenv returns the value of key in the run environment, or def.
func (rc RunContext) Getenv(key, def string) string {
	if v, ok := rc.Env[key]; ok && v != "" {
		return v
	}
	return def
}

// CommandDef is a Command assembled from a function and its metadata.
type CommandDef struct {
	Summary  string
	HelpText string
	Args     domain.ArgSchema
	Fn       func(ctx context.Context, input domain.Stream, args domain.Args, rc RunContext) (Output, error)
}

func (d CommandDef) Run(ctx context.Context, input domain.Stream, args domain.Args, rc RunContext) (Output, error) {
	return d.Fn(ctx, input, args, rc)
}

func (d CommandDef) Help() string             { return d.HelpText }
func (d CommandDef) Schema() domain.ArgSchema { return d.Args }
func (d CommandDef) Description() string      { return d.Summary }
