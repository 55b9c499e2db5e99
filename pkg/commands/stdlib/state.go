package stdlib

import (
	"context"
	"fmt"

	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/state"
)

func keyArg(name string, args domain.Args) (string, error) {
	key := args.String("", "key")
	if key == "" {
		if pos := args.Positional(); len(pos) > 0 {
			key = pos[0]
		}
	}
	if key == "" {
		return "", fmt.Errorf("%s requires --key", name)
	}
	return key, nil
}

var keySpec = domain.ArgSpec{Name: "key", Type: "string", Description: "snapshot key", Required: true}

// StateGet emits the snapshot stored under a key, or nothing.
func StateGet() ports.CommandDef {
	return ports.CommandDef{
		Summary:  "emit the snapshot stored under --key (nothing if absent)",
		HelpText: "state.get - read a snapshot\n\nUsage:\n  state.get --key github.pr:owner/repo#1\n",
		Args:     domain.ArgSchema{Args: []domain.ArgSpec{keySpec}},
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			key, err := keyArg("state.get", args)
			if err != nil {
				return ports.Output{}, err
			}
			mgr, err := state.FromRunContext(rc)
			if err != nil {
				return ports.Output{}, err
			}
			if err := domain.Discard(ctx, input); err != nil {
				return ports.Output{}, err
			}

			value, ok, err := mgr.Get(ctx, key)
			if err != nil {
				return ports.Output{}, err
			}
			if !ok {
				return ports.Output{Stream: domain.Empty()}, nil
			}
			return ports.Output{Stream: domain.Of(value)}, nil
		},
	}
}

// StateSet records its input under a key and passes the items through.
// A single item is stored as-is; several are stored as an array.
func StateSet() ports.CommandDef {
	return ports.CommandDef{
		Summary:  "store the input under --key and pass it through",
		HelpText: "state.set - overwrite a snapshot with the input\n\nUsage:\n  ... | state.set --key my-key\n\nOne input item is stored as-is, several as an array.\n",
		Args:     domain.ArgSchema{Args: []domain.ArgSpec{keySpec}},
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			key, err := keyArg("state.set", args)
			if err != nil {
				return ports.Output{}, err
			}
			mgr, err := state.FromRunContext(rc)
			if err != nil {
				return ports.Output{}, err
			}

			items, err := domain.Collect(ctx, input)
			if err != nil {
				return ports.Output{}, err
			}
			var value any = items
			if len(items) == 1 {
				value = items[0]
			}
			if err := mgr.Set(ctx, key, value); err != nil {
				return ports.Output{}, err
			}
			return ports.Output{Stream: domain.FromSlice(items)}, nil
		},
	}
}

// DiffResult is emitted by state.diff for every input item.
type DiffResult struct {
	Key     string                `json:"key"`
	Changed bool                  `json:"changed"`
	Before  any                   `json:"before"`
	After   any                   `json:"after"`
	Summary *domain.ChangeSummary `json:"summary,omitempty"`
}

// StateDiff compares each input item with the stored snapshot and records it.
func StateDiff() ports.CommandDef {
	return ports.CommandDef{
		Summary: "diff each item against the snapshot under --key, then store it",
		HelpText: "state.diff - detect changes across runs\n\nUsage:\n  ... | state.diff --key my-key [--fields a,b] [--changes-only]\n\n" +
			"Emits {key, changed, before, after} per input item. The first observation\n" +
			"of a key always counts as changed. --fields adds a field-level summary;\n" +
			"--changes-only drops unchanged results.\n",
		Args: domain.ArgSchema{Args: []domain.ArgSpec{
			keySpec,
			{Name: "fields", Type: "string", Description: "comma-separated fields to summarize"},
			{Name: "changes-only", Type: "boolean", Description: "emit only changed results"},
		}},
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			key, err := keyArg("state.diff", args)
			if err != nil {
				return ports.Output{}, err
			}
			mgr, err := state.FromRunContext(rc)
			if err != nil {
				return ports.Output{}, err
			}
			fields := splitFields([]string{args.String("", "fields")})
			changesOnly := args.Bool("changes-only", "changesOnly")

			return ports.Output{Stream: domain.StreamFunc(func(ctx context.Context) (domain.Item, error) {
				for {
					item, err := input.Next(ctx)
					if err != nil {
						return nil, err
					}
					obs, err := mgr.DiffAndStore(ctx, key, item)
					if err != nil {
						return nil, err
					}
					if changesOnly && !obs.Changed {
						continue
					}
					res := DiffResult{Key: key, Changed: obs.Changed, Before: obs.Before, After: obs.After}
					if len(fields) > 0 {
						summary := domain.SummarizeChanges(obs.Before, obs.After, fields)
						res.Summary = &summary
					}
					return res, nil
				}
			})}, nil
		},
	}
}
