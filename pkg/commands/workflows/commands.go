package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/registry"
)

// Register adds workflows.list and workflows.run for catalog to reg.
func Register(reg *registry.Registry, catalog *Catalog) {
	reg.Register("workflows.list", ListCommand(catalog))
	reg.Register("workflows.run", RunCommand(catalog))
}

// ListCommand emits one item per workflow, or a single YAML document with --yaml.
func ListCommand(catalog *Catalog) ports.CommandDef {
	return ports.CommandDef{
		Summary:  "list the named workflows with their args schema and examples",
		HelpText: "workflows.list - list named workflows\n\nUsage:\n  workflows.list [--yaml]\n",
		Args: domain.ArgSchema{Args: []domain.ArgSpec{
			{Name: "yaml", Type: "boolean", Description: "emit the catalog as one YAML document"},
		}},
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			if err := domain.Discard(ctx, input); err != nil {
				return ports.Output{}, err
			}
			list := catalog.List()
			if args.Bool("yaml") {
				var buf bytes.Buffer
				enc := yaml.NewEncoder(&buf)
				enc.SetIndent(2)
				if err := enc.Encode(list); err != nil {
					return ports.Output{}, fmt.Errorf("failed to encode workflows: %w", err)
				}
				if err := enc.Close(); err != nil {
					return ports.Output{}, err
				}
				return ports.Output{Stream: domain.Of(buf.String())}, nil
			}
			items := make([]domain.Item, len(list))
			for i, w := range list {
				items[i] = w
			}
			return ports.Output{Stream: domain.FromSlice(items)}, nil
		},
	}
}

// RunCommand runs a workflow by name with JSON arguments.
func RunCommand(catalog *Catalog) ports.CommandDef {
	return ports.CommandDef{
		Summary: "run a named workflow",
		HelpText: "workflows.run - run a named workflow\n\n" +
			"Usage:\n  workflows.run --name <workflow> [--args-json '{...}']\n\n" +
			"Example:\n  workflows.run --name github.pr.monitor.notify --args-json '{\"repo\":\"clawdbot/clawdbot\",\"pr\":1152}'\n",
		Args: domain.ArgSchema{Args: []domain.ArgSpec{
			{Name: "name", Type: "string", Description: "workflow name", Required: true},
			{Name: "args-json", Type: "string", Description: "JSON object of workflow args"},
		}},
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			if err := domain.Discard(ctx, input); err != nil {
				return ports.Output{}, err
			}

			name := args.String("", "name")
			if name == "" {
				if pos := args.Positional(); len(pos) > 0 {
					name = pos[0]
				}
			}
			if name == "" {
				return ports.Output{}, errors.New("workflows.run requires --name")
			}

			wfArgs, err := ParseArgsJSON(args.String("", "args-json", "argsJson"))
			if err != nil {
				return ports.Output{}, err
			}

			items, err := catalog.Run(ctx, name, wfArgs, rc)
			if err != nil {
				return ports.Output{}, err
			}
			return ports.Output{Stream: domain.FromSlice(items)}, nil
		},
	}
}

// ParseArgsJSON decodes a JSON object into Args. Empty input yields empty Args.
func ParseArgsJSON(text string) (domain.Args, error) {
	if text == "" {
		return domain.Args{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("workflows.run --args-json must be a JSON object: %w", err)
	}
	return domain.ArgsFromMap(m)
}
