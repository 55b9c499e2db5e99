package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/lobster/pkg/domain"
)

// DebugHooks logs every lifecycle event at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageStart: func(ctx context.Context, e *domain.StageEvent) {
			logger.Debug("Stage Start", "run_id", e.RunID, "stage", e.Index, "command", e.Command)
		},
		OnStageEnd: func(ctx context.Context, e *domain.StageEvent) {
			if e.Err != nil {
				logger.Debug("Stage End (Error)", "run_id", e.RunID, "stage", e.Index, "command", e.Command, "err", e.Err)
				return
			}
			logger.Debug("Stage End", "run_id", e.RunID, "stage", e.Index, "command", e.Command, "duration", e.Duration)
		},
		OnHalt: func(ctx context.Context, e *domain.StageEvent) {
			logger.Debug("Pipeline Halted", "run_id", e.RunID, "stage", e.Index, "command", e.Command)
		},
	}
}
