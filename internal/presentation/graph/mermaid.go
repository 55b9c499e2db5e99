package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/lobster/pkg/domain"
)

// GraphOverlay contains run data to visualize on the graph. Stage numbers
// are 1-based.
type GraphOverlay struct {
	VisitedStages []int
	HaltedStage   int
	FailedStage   int
}

// GenerateMermaid produces a Mermaid flowchart of a pipeline, from its input
// to its output. It applies semantic styling:
// - approve: {{Hexagon}} (a gate)
// - exec and process-backed commands: [[Subroutine]]
// - state.*: [(Cylinder)]
// - Default: [Rectangle]
// It also applies overlay styles (Visited/Halted/Failed) if provided.
func GenerateMermaid(stages []domain.Stage, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	sb.WriteString("    input((\"input\"))\n")

	prev := "input"
	for i, st := range stages {
		id := fmt.Sprintf("s%d", i+1)
		opener, closer := shape(st.Name)

		label := st.Raw
		if label == "" {
			label = st.Name
		}
		fmt.Fprintf(&sb, "    %s%s\"%d. %s\"%s\n", id, opener, i+1, escapeLabel(label), closer)
		fmt.Fprintf(&sb, "    %s --> %s\n", prev, id)
		prev = id
	}

	sb.WriteString("    output((\"output\"))\n")
	if overlay != nil && overlay.HaltedStage > 0 {
		fmt.Fprintf(&sb, "    %s -. halt .-> output\n", prev)
	} else {
		fmt.Fprintf(&sb, "    %s --> output\n", prev)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef halted fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#c62828,stroke-width:4px,color:#000;\n")

		seen := make(map[int]bool)
		for _, n := range overlay.VisitedStages {
			if n < 1 || n > len(stages) || seen[n] || n == overlay.HaltedStage || n == overlay.FailedStage {
				continue
			}
			seen[n] = true
			fmt.Fprintf(&sb, "    class s%d visited;\n", n)
		}
		if overlay.HaltedStage > 0 {
			fmt.Fprintf(&sb, "    class s%d halted;\n", overlay.HaltedStage)
		}
		if overlay.FailedStage > 0 {
			fmt.Fprintf(&sb, "    class s%d failed;\n", overlay.FailedStage)
		}
	}

	return sb.String()
}

func shape(name string) (string, string) {
	switch {
	case name == "approve":
		return "{{", "}}"
	case name == "exec" || strings.HasPrefix(name, "gog.") || strings.HasPrefix(name, "github."):
		return "[[", "]]"
	case strings.HasPrefix(name, "state."):
		return "[(", ")]"
	default:
		return "[", "]"
	}
}

// escapeLabel makes text safe inside a quoted Mermaid label.
func escapeLabel(s string) string {
	r := strings.NewReplacer(`"`, "#quot;", "\n", " ", "|", "#124;")
	return r.Replace(s)
}

// Tracker builds a GraphOverlay from lifecycle events.
type Tracker struct {
	mu      sync.Mutex
	overlay GraphOverlay
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Hooks returns the lifecycle hooks feeding the tracker.
func (t *Tracker) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnd: func(ctx context.Context, e *domain.StageEvent) {
			t.mu.Lock()
			defer t.mu.Unlock()
			if e.Err != nil {
				t.overlay.FailedStage = e.Index
				return
			}
			t.overlay.VisitedStages = append(t.overlay.VisitedStages, e.Index)
		},
		OnHalt: func(ctx context.Context, e *domain.StageEvent) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.overlay.HaltedStage = e.Index
		},
	}
}

// Overlay returns a copy of the collected overlay.
func (t *Tracker) Overlay() *GraphOverlay {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.overlay
	out.VisitedStages = append([]int(nil), t.overlay.VisitedStages...)
	return &out
}
