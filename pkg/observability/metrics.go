package observability

import (
	"context"
	"fmt"

	"github.com/aretw0/lobster/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Stage outcomes used as the "outcome" label.
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomeHalted = "halted"
)

// Metrics records stage executions.
type Metrics struct {
	StageRuns     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	Halts         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		StageRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lobster_stage_runs_total",
				Help: "Total number of stage invocations by command and outcome",
			},
			[]string{"command", "outcome"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lobster_stage_duration_seconds",
				Help:    "Duration of command Run calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		Halts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lobster_pipeline_halts_total",
				Help: "Total number of pipelines halted, by halting command",
			},
			[]string{"command"},
		),
	}

	for _, c := range []prometheus.Collector{m.StageRuns, m.StageDuration, m.Halts} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnd: func(ctx context.Context, e *domain.StageEvent) {
			outcome := OutcomeOK
			switch {
			case e.Err != nil:
				outcome = OutcomeError
			case e.Halted:
				outcome = OutcomeHalted
			}
			m.StageRuns.WithLabelValues(e.Command, outcome).Inc()
			m.StageDuration.WithLabelValues(e.Command).Observe(e.Duration.Seconds())
		},
		OnHalt: func(ctx context.Context, e *domain.StageEvent) {
			m.Halts.WithLabelValues(e.Command).Inc()
		},
	}
}
