package workflows

import (
	"context"
	"errors"

	"github.com/aretw0/lobster/internal/runtime"
	"github.com/aretw0/lobster/pkg/adapters/process"
	"github.com/aretw0/lobster/pkg/commands/github"
	"github.com/aretw0/lobster/pkg/commands/mail"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/dsl"
	"github.com/aretw0/lobster/pkg/ports"
)

// Default returns the catalog of built-in workflows.
func Default(exec process.Executor) *Catalog {
	c := NewCatalog()
	m := github.NewMonitor(exec)

	c.Add(Workflow{
		Name:        "github.pr.monitor",
		Description: "Fetch PR state via gh, diff against last run, emit only on change.",
		ArgsSchema: domain.ArgSchema{Args: append(github.MonitorArgs(false).Args,
			domain.ArgSpec{Name: "changesOnly", Type: "boolean", Description: "suppress output when unchanged"},
			domain.ArgSpec{Name: "summaryOnly", Type: "boolean", Description: "return only a compact change summary"},
		)},
		Examples: []Example{{
			Args:        map[string]any{"repo": "clawdbot/clawdbot", "pr": 1152},
			Description: "Monitor a PR and report when it changes.",
		}},
		Run: func(ctx context.Context, args domain.Args, rc ports.RunContext) ([]domain.Item, error) {
			opts, err := github.ParseMonitorOptions(args)
			if err != nil {
				return nil, err
			}
			report, err := m.Check(ctx, opts, rc)
			if err != nil {
				return nil, err
			}
			return []domain.Item{report}, nil
		},
	})

	c.Add(Workflow{
		Name:        "github.pr.monitor.notify",
		Description: "Monitor a PR and emit a single human-friendly message when it changes.",
		ArgsSchema:  github.MonitorArgs(false),
		Examples: []Example{{
			Args:        map[string]any{"repo": "clawdbot/clawdbot", "pr": 1152},
			Description: `Emit "PR updated" message only when changed.`,
		}},
		Run: func(ctx context.Context, args domain.Args, rc ports.RunContext) ([]domain.Item, error) {
			opts, err := github.ParseMonitorOptions(args)
			if err != nil {
				return nil, err
			}
			note, err := m.Notify(ctx, opts, rc)
			if err != nil || note == nil {
				return []domain.Item{}, err
			}
			return []domain.Item{*note}, nil
		},
	})

	c.Add(Workflow{
		Name:        "email.triage.daily",
		Description: "Search recent Gmail messages via gog and bucket them for triage.",
		ArgsSchema: domain.ArgSchema{Args: []domain.ArgSpec{
			{Name: "query", Type: "string", Description: "Gmail search query (default newer_than:1d)"},
			{Name: "max", Type: "number", Description: "maximum messages (default 20)"},
		}},
		Examples: []Example{{
			Args:        map[string]any{"query": "newer_than:1d is:unread", "max": 10},
			Description: "Triage unread mail from the last day.",
		}},
		Run: func(ctx context.Context, args domain.Args, rc ports.RunContext) ([]domain.Item, error) {
			max, err := args.Int(20, "max")
			if err != nil {
				return nil, err
			}
			p := dsl.New()
			p.Stage("gog.gmail.search").Flag("query", args.String(mail.DefaultQuery, "query")).Flag("max", max).
				Then("email.triage").Flag("limit", max)
			stages, err := p.Build()
			if err != nil {
				return nil, err
			}
			return RunStages(ctx, stages, rc)
		},
	})

	return c
}

// RunStages runs parsed stages against the run's registry.
func RunStages(ctx context.Context, stages []domain.Stage, rc ports.RunContext) ([]domain.Item, error) {
	if rc.Registry == nil {
		return nil, errors.New("workflow needs a command registry")
	}
	res, err := runtime.NewEngine(runtime.WithLogger(rc.Logger)).Run(ctx, stages, rc.Registry, nil, rc)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
