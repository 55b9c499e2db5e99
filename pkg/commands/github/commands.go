package github

import (
	"context"

	"github.com/aretw0/lobster/pkg/adapters/process"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/registry"
)

var monitorArgs = []domain.ArgSpec{
	{Name: "repo", Type: "string", Description: "owner/repo", Required: true},
	{Name: "pr", Type: "number", Description: "pull request number", Required: true},
	{Name: "key", Type: "string", Description: "state key override"},
}

// MonitorArgs is the argument schema shared by both monitor commands.
func MonitorArgs(withFlags bool) domain.ArgSchema {
	args := append([]domain.ArgSpec{}, monitorArgs...)
	if withFlags {
		args = append(args,
			domain.ArgSpec{Name: "changes-only", Type: "boolean", Description: "suppress output when unchanged"},
			domain.ArgSpec{Name: "summary-only", Type: "boolean", Description: "emit a compact PR view"},
		)
	}
	return domain.ArgSchema{Args: args}
}

// Register adds github.pr.monitor and github.pr.monitor.notify to reg.
func Register(reg *registry.Registry, exec process.Executor) {
	m := NewMonitor(exec)
	reg.Register("github.pr.monitor", MonitorCommand(m))
	reg.Register("github.pr.monitor.notify", NotifyCommand(m))
}

// MonitorCommand emits one Report per run.
func MonitorCommand(m *Monitor) ports.CommandDef {
	return ports.CommandDef{
		Summary: "fetch PR state via gh, diff against the last run",
		HelpText: "github.pr.monitor - fetch PR state and diff against the last run\n\n" +
			"Usage:\n  github.pr.monitor --repo owner/repo --pr 1152 [--key k] [--changes-only] [--summary-only]\n\n" +
			"Set GH_BIN to use a different gh executable.\n",
		Args: MonitorArgs(true),
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			opts, err := ParseMonitorOptions(args)
			if err != nil {
				return ports.Output{}, err
			}
			if err := domain.Discard(ctx, input); err != nil {
				return ports.Output{}, err
			}
			report, err := m.Check(ctx, opts, rc)
			if err != nil {
				return ports.Output{}, err
			}
			return ports.Output{Stream: domain.Of(report)}, nil
		},
	}
}

// NotifyCommand emits a single message item when the PR changed, and nothing otherwise.
func NotifyCommand(m *Monitor) ports.CommandDef {
	return ports.CommandDef{
		Summary:  "emit a human-friendly message when a PR changes",
		HelpText: "github.pr.monitor.notify - message on PR change\n\nUsage:\n  github.pr.monitor.notify --repo owner/repo --pr 1152 [--key k]\n",
		Args:     MonitorArgs(false),
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			opts, err := ParseMonitorOptions(args)
			if err != nil {
				return ports.Output{}, err
			}
			if err := domain.Discard(ctx, input); err != nil {
				return ports.Output{}, err
			}
			note, err := m.Notify(ctx, opts, rc)
			if err != nil {
				return ports.Output{}, err
			}
			if note == nil {
				return ports.Output{Stream: domain.Empty()}, nil
			}
			return ports.Output{Stream: domain.Of(*note)}, nil
		},
	}
}
