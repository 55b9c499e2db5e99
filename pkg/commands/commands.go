// Package commands assembles the default command registry: the standard
// commands, the GitHub and mail integrations, the workflow catalog and any
// process-backed aliases declared in a commands file.
package commands

import (
	"log/slog"
	"sort"

	"github.com/aretw0/lobster/internal/logging"
	"github.com/aretw0/lobster/pkg/adapters/process"
	"github.com/aretw0/lobster/pkg/commands/github"
	"github.com/aretw0/lobster/pkg/commands/mail"
	"github.com/aretw0/lobster/pkg/commands/stdlib"
	"github.com/aretw0/lobster/pkg/commands/workflows"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/registry"
)

// DefaultCommandsFile is read when no commands file is configured.
const DefaultCommandsFile = "commands.yaml"

// Options configures NewDefaultRegistry.
type Options struct {
	// Executor runs subprocesses. Defaults to a process.Runner.
	Executor process.Executor
	// CommandsFile declares extra process-backed commands. A missing file is ignored.
	CommandsFile string
	Logger       *slog.Logger
}

// NewDefaultRegistry builds a registry with every built-in command.
func NewDefaultRegistry(opts Options) (*registry.Registry, error) {
	if opts.Executor == nil {
		opts.Executor = process.NewRunner()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	reg := registry.New()
	stdlib.Register(reg, opts.Executor)
	github.Register(reg, opts.Executor)
	mail.Register(reg, opts.Executor)
	workflows.Register(reg, workflows.Default(opts.Executor))

	if opts.CommandsFile != "" {
		cfgs, err := process.LoadCommands(opts.CommandsFile)
		if err != nil {
			return nil, err
		}
		RegisterAliases(reg, cfgs, opts.Executor, opts.Logger)
	}
	return reg, nil
}

// RegisterAliases adds a process-backed command for every entry of cfgs.
// An alias that reuses a built-in name replaces it.
func RegisterAliases(reg *registry.Registry, cfgs map[string]process.CommandConfig, exec process.Executor, logger *slog.Logger) {
	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := reg.Resolve(name); err == nil {
			logger.Warn("command alias overrides a built-in command", "command", name)
		}
		reg.Register(name, process.NewCommand(cfgs[name], exec))
	}
}

// LocalOnly reports whether cmd lets the pipeline author pick the program that
// runs: exec and the process-backed aliases. Remote surfaces hide these
// unless the operator opts in.
func LocalOnly(name string, cmd ports.Command) bool {
	if name == "exec" {
		return true
	}
	_, ok := cmd.(*process.Command)
	return ok
}
