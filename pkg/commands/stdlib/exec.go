package stdlib

import (
	"context"
	"errors"
	"strings"

	"github.com/aretw0/lobster/pkg/adapters/process"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
)

const execHelp = `exec - run a subprocess and stream its output

Usage:
  exec [--json] [--stdin json|jsonl|raw] <command> [args...]
  exec [--json] [--stdin json|jsonl|raw] --shell '<script>'

Without --shell the positional words are the argv; no shell is involved.
Stdout becomes one item per line, or with --json the decoded JSON (an array
yields one item per element). Input items are written to stdin only when
--stdin is given; otherwise they are drained.
`

// Exec runs a subordinate process.
func Exec(exec process.Executor) ports.CommandDef {
	return ports.CommandDef{
		Summary:  "run a subprocess (argv or --shell) and stream its stdout",
		HelpText: execHelp,
		Args: domain.ArgSchema{Args: []domain.ArgSpec{
			{Name: "_", Type: "array", Description: "command and arguments"},
			{Name: "shell", Type: "string", Description: "script run with sh -c"},
			{Name: "json", Type: "boolean", Description: "parse stdout as JSON"},
			{Name: "stdin", Type: "string", Description: "json, jsonl or raw"},
		}},
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			strict, argv := jsonFlag(args)

			inv := process.Invocation{Env: rc.Env}
			if script, ok := args.Lookup("shell"); ok && script.Kind != domain.KindBool {
				inv.Command = rc.Getenv("LOBSTER_SHELL", "sh")
				inv.Args = []string{"-c", script.Text()}
			} else {
				if len(argv) == 0 {
					return ports.Output{}, errors.New("exec requires a command or --shell '<script>'")
				}
				inv.Command, inv.Args = argv[0], argv[1:]
			}

			format, err := process.ParseStdinFormat(args.String("", "stdin"))
			if err != nil {
				return ports.Output{}, err
			}

			return ports.Output{Stream: domain.Defer(func(ctx context.Context) (domain.Stream, error) {
				stdin, err := process.EncodeStdin(ctx, input, format)
				if err != nil {
					return nil, err
				}
				inv.Stdin = stdin

				res, err := exec.Run(ctx, inv)
				if err != nil {
					return nil, err
				}
				if !strict {
					return domain.FromSlice(process.Lines(res.Stdout)), nil
				}
				items, err := process.OutputItems(inv.Command, res.Stdout, true)
				if err != nil {
					return nil, err
				}
				return domain.FromSlice(items), nil
			})}, nil
		},
	}
}

// jsonFlag reads --json. In "exec --json gh pr list" the parser takes "gh" as
// the flag's value; such a word is returned to the front of argv.
func jsonFlag(args domain.Args) (bool, []string) {
	argv := args.Positional()
	v, ok := args.Lookup("json")
	if !ok {
		return false, argv
	}
	if v.Kind == domain.KindBool {
		return v.Bool, argv
	}
	switch strings.ToLower(v.Text()) {
	case "true", "1", "yes":
		return true, argv
	case "false", "0", "no":
		return false, argv
	}
	return true, append([]string{v.Text()}, argv...)
}
