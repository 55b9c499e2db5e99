package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/lobster"
	"github.com/aretw0/lobster/internal/presentation/graph"
	"github.com/aretw0/lobster/internal/presentation/tui"
	"github.com/aretw0/lobster/internal/validator"
	"github.com/aretw0/lobster/pkg/domain"
)

// Validate checks a pipeline without running it and prints the problems.
// It fails when any problem is an error.
func Validate(opts RunOptions, stdio IO) error {
	opts.ApplyEnv(nil)
	engine, closeStore, err := createEngine(opts, createLogger(opts.Debug, stdio.Err))
	if err != nil {
		return err
	}
	defer closeStore()

	problems, err := validator.ValidatePipeline(opts.Pipeline, engine.Registry())
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(stdio.Out)
		if problems == nil {
			problems = []validator.Problem{}
		}
		if err := enc.Encode(problems); err != nil {
			return err
		}
	} else {
		status := tui.NewStatus(stdio.Err)
		for _, p := range problems {
			fmt.Fprintln(stdio.Out, p.String())
		}
		if !validator.HasErrors(problems) {
			status.OK("pipeline is valid")
		}
	}

	if validator.HasErrors(problems) {
		return &ReportedError{Err: fmt.Errorf("pipeline has %d problem(s)", len(problems))}
	}
	return nil
}

// Graph prints the pipeline as a Mermaid flowchart. With run set, the
// pipeline is executed in tool mode first and the chart marks the stages
// that completed, halted or failed.
func Graph(ctx context.Context, opts RunOptions, run bool, stdio IO) error {
	opts.ApplyEnv(nil)
	logger := createLogger(opts.Debug, stdio.Err)

	var overlay *graph.GraphOverlay
	var engine *lobster.Engine
	var closeStore func()
	var err error

	if run {
		tracker := graph.NewTracker()
		engine, closeStore, err = createEngine(opts, logger, lobster.WithLifecycleHooks(tracker.Hooks()))
		if err != nil {
			return err
		}
		defer closeStore()

		input, err := ParseInput(opts.Input)
		if err != nil {
			return err
		}
		if _, runErr := engine.Run(ctx, opts.Pipeline, newRunOptions(ctx, input, domain.ModeTool, stdio)); runErr != nil {
			logger.Warn("pipeline failed", "err", runErr)
		}
		overlay = tracker.Overlay()
	} else {
		engine, closeStore, err = createEngine(opts, logger)
		if err != nil {
			return err
		}
		defer closeStore()
	}

	stages, err := engine.Parse(opts.Pipeline)
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdio.Out, graph.GenerateMermaid(stages, overlay))
	return err
}
