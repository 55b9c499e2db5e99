package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/lobster/internal/compiler"
	"github.com/aretw0/lobster/internal/presentation/graph"
	"github.com/aretw0/lobster/pkg/domain"
)

func parse(t *testing.T, text string) []domain.Stage {
	t.Helper()
	stages, err := compiler.Parse(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return stages
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		pipeline string
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name:     "Shapes",
			pipeline: "exec --json gh pr list | approve --prompt ok | state.set --key k | head",
			contains: []string{
				"graph LR\n",
				"input((\"input\"))",
				"s1[[\"1. exec --json gh pr list\"]]",
				"s2{{\"2. approve --prompt ok\"}}",
				"s3[(\"3. state.set --key k\")]",
				"s4[\"4. head\"]",
				"input --> s1",
				"s3 --> s4",
				"s4 --> output",
			},
			excludes: []string{"classDef"},
		},
		{
			name:     "Label Escaping",
			pipeline: `where "title=say \"hi\""`,
			contains: []string{`s1["1. where #quot;title=say \#quot;hi\#quot;#quot;"]`},
		},
		{
			name:     "Overlay",
			pipeline: "head | approve | json",
			overlay:  &graph.GraphOverlay{VisitedStages: []int{1, 1, 2, 9}, HaltedStage: 2},
			contains: []string{
				"class s1 visited;",
				"class s2 halted;",
				"s2 --> s3",
				"s3 -. halt .-> output",
			},
			excludes: []string{"class s2 visited;", "class s9", "class s3"},
		},
		{
			name:     "Failed Overlay",
			pipeline: "head | exec false",
			overlay:  &graph.GraphOverlay{VisitedStages: []int{1}, FailedStage: 2},
			contains: []string{"class s1 visited;", "class s2 failed;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(parse(t, tt.pipeline), tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("expected output not to contain %q, got:\n%s", unwanted, got)
				}
			}
		})
	}
}

func TestTracker(t *testing.T) {
	tr := graph.NewTracker()
	hooks := tr.Hooks()
	ctx := context.Background()

	hooks.OnStageEnd(ctx, &domain.StageEvent{Index: 1})
	hooks.OnStageEnd(ctx, &domain.StageEvent{Index: 2})
	hooks.OnHalt(ctx, &domain.StageEvent{Index: 2})

	ov := tr.Overlay()
	if len(ov.VisitedStages) != 2 || ov.HaltedStage != 2 || ov.FailedStage != 0 {
		t.Fatalf("unexpected overlay: %+v", ov)
	}

	hooks.OnStageEnd(ctx, &domain.StageEvent{Index: 3, Err: context.Canceled})
	if tr.Overlay().FailedStage != 3 {
		t.Fatalf("expected failed stage 3, got %+v", tr.Overlay())
	}
}
