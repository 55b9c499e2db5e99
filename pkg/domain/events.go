package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStageStart EventType = "stage_start"
	EventStageEnd   EventType = "stage_end"
	EventHalt       EventType = "halt"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// StageEvent describes the invocation of one stage.
type StageEvent struct {
	EventBase
	Index   int    `json:"index"` // 1-based
	Command string `json:"command"`
	Raw     string `json:"raw"`
	// Duration covers the Run call only; items may still be produced lazily afterwards.
	Duration time.Duration `json:"duration,omitempty"`
	Halted   bool          `json:"halted,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for pipeline observability.
type LifecycleHooks struct {
	OnStageStart func(context.Context, *StageEvent)
	OnStageEnd   func(context.Context, *StageEvent)
	OnHalt       func(context.Context, *StageEvent)
}

// MergeHooks fans every callback out to all non-nil hooks, in order.
func MergeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var starts, ends, halts []func(context.Context, *StageEvent)
	for _, h := range hooks {
		if h.OnStageStart != nil {
			starts = append(starts, h.OnStageStart)
		}
		if h.OnStageEnd != nil {
			ends = append(ends, h.OnStageEnd)
		}
		if h.OnHalt != nil {
			halts = append(halts, h.OnHalt)
		}
	}
	return LifecycleHooks{
		OnStageStart: fanOut(starts),
		OnStageEnd:   fanOut(ends),
		OnHalt:       fanOut(halts),
	}
}

func fanOut(fns []func(context.Context, *StageEvent)) func(context.Context, *StageEvent) {
	if len(fns) == 0 {
		return nil
	}
	return func(ctx context.Context, e *StageEvent) {
		for _, fn := range fns {
			fn(ctx, e)
		}
	}
}
