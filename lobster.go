package lobster

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"

	"github.com/aretw0/lobster/internal/compiler"
	"github.com/aretw0/lobster/internal/logging"
	"github.com/aretw0/lobster/internal/runtime"
	"github.com/aretw0/lobster/pkg/adapters/memory"
	"github.com/aretw0/lobster/pkg/adapters/process"
	"github.com/aretw0/lobster/pkg/commands"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/registry"
)

// Engine is the high-level entry point for the Lobster library.
// It wraps the internal runtime, the command registry and the snapshot store.
type Engine struct {
	runtime      *runtime.Engine
	registry     *registry.Registry
	store        ports.SnapshotStore
	locker       ports.DistributedLocker
	executor     process.Executor
	commandsFile string
	env          map[string]string
	mode         domain.Mode
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	remoteExec   bool
	remoteEnv    map[string]bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore sets the snapshot store used by stateful commands.
// Defaults to an in-memory store.
func WithStore(store ports.SnapshotStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes snapshot updates across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithRegistry replaces the default command registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithExecutor sets how the default registry runs subprocesses.
func WithExecutor(exec process.Executor) Option {
	return func(e *Engine) {
		e.executor = exec
	}
}

// WithCommandsFile loads process-backed command aliases into the default registry.
func WithCommandsFile(path string) Option {
	return func(e *Engine) {
		e.commandsFile = path
	}
}

// WithEnv sets the base environment visible to every run.
func WithEnv(env map[string]string) Option {
	return func(e *Engine) {
		e.env = maps.Clone(env)
	}
}

// WithMode sets the default run mode (tool unless configured).
func WithMode(mode domain.Mode) Option {
	return func(e *Engine) {
		e.mode = mode
	}
}

// WithRemoteExec exposes exec and process-backed aliases to remote callers.
// They are hidden by default: with them a caller chooses what runs on the host.
func WithRemoteExec(allow bool) Option {
	return func(e *Engine) {
		e.remoteExec = allow
	}
}

// WithRemoteEnv lists the environment variables a remote caller may set.
// Variables that select programs or bypass approval are never accepted.
func WithRemoteEnv(keys ...string) Option {
	return func(e *Engine) {
		if e.remoteEnv == nil {
			e.remoteEnv = make(map[string]bool, len(keys))
		}
		for _, k := range keys {
			e.remoteEnv[k] = true
		}
	}
}

// New initializes a new Lobster Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{mode: domain.ModeTool}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.env == nil {
		eng.env = map[string]string{}
	}
	if eng.registry == nil {
		reg, err := commands.NewDefaultRegistry(commands.Options{
			Executor:     eng.executor,
			CommandsFile: eng.commandsFile,
			Logger:       eng.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build command registry: %w", err)
		}
		eng.registry = reg
	}

	eng.runtime = runtime.NewEngine(
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	)
	return eng, nil
}

// RunOptions carries the per-run inputs of Engine.Run.
type RunOptions struct {
	// Input feeds the first stage.
	Input []domain.Item
	// Mode overrides the engine's default mode.
	Mode domain.Mode
	// Env is layered over the engine's base environment.
	Env map[string]string
	// RunID is generated when empty.
	RunID  string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Parse converts pipeline text into stage descriptors without running it.
func Parse(pipeline string) ([]domain.Stage, error) {
	return compiler.Parse(pipeline)
}

// Parse is the engine-bound form of the package-level Parse.
func (e *Engine) Parse(pipeline string) ([]domain.Stage, error) {
	return Parse(pipeline)
}

// Run parses and executes a pipeline.
func (e *Engine) Run(ctx context.Context, pipeline string, opts RunOptions) (*domain.Result, error) {
	stages, err := compiler.Parse(pipeline)
	if err != nil {
		return nil, err
	}
	return e.RunStages(ctx, stages, opts)
}

// RunStages executes already parsed stages.
func (e *Engine) RunStages(ctx context.Context, stages []domain.Stage, opts RunOptions) (*domain.Result, error) {
	return e.runStages(ctx, stages, opts, e.registry)
}

func (e *Engine) runStages(ctx context.Context, stages []domain.Stage, opts RunOptions, resolver ports.CommandResolver) (*domain.Result, error) {
	mode := opts.Mode
	if mode == "" {
		mode = e.mode
	}
	env := maps.Clone(e.env)
	maps.Copy(env, opts.Env)

	rc := ports.RunContext{
		RunID:    opts.RunID,
		Mode:     mode,
		Env:      env,
		Stdin:    opts.Stdin,
		Stdout:   opts.Stdout,
		Stderr:   opts.Stderr,
		Registry: resolver,
		Store:    e.store,
		Locker:   e.locker,
		Logger:   e.logger,
	}

	var input domain.Stream
	if opts.Input != nil {
		input = domain.FromSlice(opts.Input)
	}
	return e.runtime.Run(ctx, stages, resolver, input, rc)
}

// protectedEnv reports variables a remote caller may never set, even when
// allowlisted: they select programs, alter the loader or bypass approval.
func protectedEnv(key string) bool {
	switch key {
	case "PATH", "GH_BIN", "GOG_BIN":
		return true
	}
	for _, prefix := range []string{"LD_", "DYLD_", "LOBSTER_"} {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// Remote is the view of an Engine offered to network surfaces (HTTP, MCP).
// It hides local-only commands unless WithRemoteExec is set and accepts only
// allowlisted environment variables.
type Remote struct {
	engine *Engine
	view   *registry.View
}

// Remote returns the engine's remote view.
func (e *Engine) Remote() *Remote {
	allowExec := e.remoteExec
	return &Remote{
		engine: e,
		view: e.registry.View(func(name string, cmd ports.Command) bool {
			return allowExec || !commands.LocalOnly(name, cmd)
		}),
	}
}

// RunRequest runs a pipeline received from a remote surface. The text is
// sanitized first and the run is always in tool mode.
func (r *Remote) RunRequest(ctx context.Context, req ports.RunRequest) (*domain.Result, error) {
	text, err := compiler.SanitizeInput(req.Pipeline)
	if err != nil {
		return nil, err
	}
	stages, err := compiler.Parse(text)
	if err != nil {
		return nil, err
	}

	e := r.engine
	env := make(map[string]string, len(req.Env))
	for k, v := range req.Env {
		if !e.remoteEnv[k] || protectedEnv(k) {
			e.logger.Warn("ignoring remote environment variable", "key", k)
			continue
		}
		env[k] = v
	}

	return e.runStages(ctx, stages, RunOptions{Input: req.Input, Mode: domain.ModeTool, Env: env, RunID: req.RunID}, r.view)
}

// Commands describes the commands remote callers may run.
func (r *Remote) Commands() []domain.CommandInfo {
	return r.view.Describe()
}

// Help returns the help text of a command remote callers may run.
func (r *Remote) Help(name string) (string, error) {
	return r.view.Help(name)
}

// RunRequest runs a pipeline with the restrictions of Remote.
func (e *Engine) RunRequest(ctx context.Context, req ports.RunRequest) (*domain.Result, error) {
	return e.Remote().RunRequest(ctx, req)
}

// Commands describes every registered command.
func (e *Engine) Commands() []domain.CommandInfo {
	return e.registry.Describe()
}

// Help returns the help text of a command.
func (e *Engine) Help(name string) (string, error) {
	return e.registry.Help(name)
}

// Registry returns the command registry used by the engine.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Store returns the snapshot store used by the engine.
func (e *Engine) Store() ports.SnapshotStore {
	return e.store
}
