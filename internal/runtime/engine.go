package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/google/uuid"
)

// Engine executes parsed pipelines stage by stage.
type Engine struct {
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger used for engine diagnostics.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Run executes stages in order and drains the final stream.
//
// Every stage name is resolved before anything runs, so an unknown command
// produces an *domain.UnknownCommandError without side effects. Each stage
// receives the previous stage's output stream (input for the first). When a
// stage sets Output.Halt, no later stage is invoked and the halting stage's
// stream becomes the result. Errors raised by a command, either from Run or
// while its stream is pulled, are reported as *domain.StageError.
func (e *Engine) Run(ctx context.Context, stages []domain.Stage, resolver ports.CommandResolver, input domain.Stream, rc ports.RunContext) (*domain.Result, error) {
	cmds := make([]ports.Command, len(stages))
	for i, st := range stages {
		cmd, err := resolver.Resolve(st.Name)
		if err != nil {
			if errors.Is(err, domain.ErrCommandNotFound) {
				return nil, &domain.UnknownCommandError{Stage: i + 1, Name: st.Name, Raw: st.Raw}
			}
			return nil, fmt.Errorf("failed to resolve stage %d (%s): %w", i+1, st.Name, err)
		}
		cmds[i] = cmd
	}

	if rc.RunID == "" {
		rc.RunID = uuid.NewString()
	}
	if rc.Mode == "" {
		rc.Mode = domain.ModeTool
	}
	if rc.Registry == nil {
		rc.Registry = resolver
	}
	if rc.Logger == nil {
		rc.Logger = e.logger
	}

	stream := domain.OrEmpty(input)
	halted := false

	for i, st := range stages {
		stageCtx := rc
		stageCtx.Env = cloneEnv(rc.Env)
		stageCtx.Logger = rc.Logger.With("stage", i+1, "command", st.Name)

		event := &domain.StageEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStageStart, RunID: rc.RunID},
			Index:     i + 1,
			Command:   st.Name,
			Raw:       st.Raw,
		}
		e.emit(ctx, e.hooks.OnStageStart, event)
		e.logger.Debug("stage start", "run_id", rc.RunID, "stage", i+1, "command", st.Name)

		started := time.Now()
		out, err := cmds[i].Run(ctx, stream, cloneArgs(st.Args), stageCtx)
		end := *event
		end.Type = domain.EventStageEnd
		end.Timestamp = time.Now()
		end.Duration = time.Since(started)

		if err != nil {
			end.Err = err
			e.emit(ctx, e.hooks.OnStageEnd, &end)
			e.logger.Debug("stage failed", "run_id", rc.RunID, "stage", i+1, "command", st.Name, "err", err)
			return nil, stageError(i+1, st, err)
		}

		end.Halted = out.Halt
		e.emit(ctx, e.hooks.OnStageEnd, &end)
		e.logger.Debug("stage end", "run_id", rc.RunID, "stage", i+1, "command", st.Name, "duration", end.Duration)

		stream = &stageStream{index: i + 1, stage: st, inner: domain.OrEmpty(out.Stream)}

		if out.Halt {
			halted = true
			h := end
			h.Type = domain.EventHalt
			e.emit(ctx, e.hooks.OnHalt, &h)
			e.logger.Debug("pipeline halted", "run_id", rc.RunID, "stage", i+1, "command", st.Name)
			break
		}
	}

	items, err := domain.Collect(ctx, stream)
	if err != nil {
		return nil, err
	}
	return &domain.Result{Items: items, Halted: halted}, nil
}

func (e *Engine) emit(ctx context.Context, hook func(context.Context, *domain.StageEvent), event *domain.StageEvent) {
	if hook != nil {
		hook(ctx, event)
	}
}

// stageStream attributes pull errors to the stage that produced the stream.
// Errors already attributed upstream pass through untouched.
type stageStream struct {
	index int
	stage domain.Stage
	inner domain.Stream
}

func (s *stageStream) Next(ctx context.Context) (domain.Item, error) {
	item, err := s.inner.Next(ctx)
	if err == nil || err == io.EOF {
		return item, err
	}
	return nil, stageError(s.index, s.stage, err)
}

func stageError(index int, st domain.Stage, err error) error {
	var se *domain.StageError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StageError{Stage: index, Name: st.Name, Raw: st.Raw, Err: err}
}

func cloneEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

func cloneArgs(args domain.Args) domain.Args {
	out := make(domain.Args, len(args))
	for k, v := range args {
		if v.Kind == domain.KindList {
			v.List = append([]string(nil), v.List...)
		}
		out[k] = v
	}
	return out
}
