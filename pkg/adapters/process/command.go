package process

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
)

// Command is a pipeline command backed by an external program declared in
// commands.yaml.
//
// The argv is the configured args, then the stage's positional words, then
// its flags as "--name value" pairs (bare "--name" for true) sorted by name.
// Flags are also exported as LOBSTER_ARG_<NAME> environment variables. Input
// items are written to stdin as JSON lines. Stdout becomes the output: a JSON
// array yields one item per element, other JSON one item, plain text one item
// per non-empty line.
type Command struct {
	cfg  CommandConfig
	exec Executor
}

// NewCommand binds cfg to an executor.
func NewCommand(cfg CommandConfig, exec Executor) *Command {
	return &Command{cfg: cfg, exec: exec}
}

func (c *Command) Description() string {
	if c.cfg.Description != "" {
		return c.cfg.Description
	}
	return "runs " + c.cfg.Command
}

func (c *Command) Help() string {
	argv := append([]string{c.cfg.Command}, c.cfg.Args...)
	return fmt.Sprintf("%s - %s\n\nRuns: %s [positional...] [--flag=value...]\nInput items are sent to stdin as JSON lines.\n",
		c.cfg.Name, c.Description(), strings.Join(argv, " "))
}

func (c *Command) Run(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
	return ports.Output{Stream: domain.Defer(func(ctx context.Context) (domain.Stream, error) {
		stdin, err := EncodeStdin(ctx, input, StdinJSONL)
		if err != nil {
			return nil, err
		}

		env := make(map[string]string, len(c.cfg.Environment)+len(args))
		for k, v := range c.cfg.Environment {
			env[k] = v
		}
		for k, v := range args {
			if k == domain.PositionalKey {
				continue
			}
			env["LOBSTER_ARG_"+envName(k)] = v.Text()
		}

		res, err := c.exec.Run(ctx, Invocation{
			Command: c.cfg.Command,
			Args:    append(append([]string{}, c.cfg.Args...), Argv(args)...),
			Env:     env,
			Stdin:   stdin,
		})
		if err != nil {
			return nil, err
		}
		if rc.Logger != nil && len(res.Stderr) > 0 {
			rc.Logger.Debug("process stderr", "command", c.cfg.Name, "stderr", excerpt(string(res.Stderr)))
		}

		items, err := OutputItems(c.cfg.Command, res.Stdout, c.cfg.JSON)
		if err != nil {
			return nil, err
		}
		return domain.FromSlice(items), nil
	})}, nil
}

// Argv renders stage arguments as command-line words. Flags use the --k=v
// form so a value starting with '-' is never read as another flag.
func Argv(args domain.Args) []string {
	out := args.Positional()

	names := make([]string, 0, len(args))
	for k := range args {
		if k != domain.PositionalKey {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	for _, k := range names {
		v := args[k]
		if v.Kind == domain.KindBool {
			if v.Bool {
				out = append(out, "--"+k)
			}
			continue
		}
		out = append(out, "--"+k+"="+v.Text())
	}
	return out
}

// OutputItems converts captured stdout into pipeline items.
func OutputItems(command string, stdout []byte, strict bool) ([]domain.Item, error) {
	var value any
	if strict {
		v, err := ParseJSON(command, stdout)
		if err != nil {
			return nil, err
		}
		value = v
	} else if v, ok := DecodeOutput(stdout); ok {
		value = v
	} else {
		return Lines(stdout), nil
	}

	if arr, ok := value.([]any); ok {
		return arr, nil
	}
	return []domain.Item{value}, nil
}

// Lines splits stdout into one string item per non-empty line.
func Lines(stdout []byte) []domain.Item {
	items := []domain.Item{}
	for _, line := range strings.Split(string(bytes.TrimSpace(stdout)), "\n") {
		if line = strings.TrimRight(line, "\r"); strings.TrimSpace(line) != "" {
			items = append(items, line)
		}
	}
	return items
}

func envName(flag string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, flag)
}
