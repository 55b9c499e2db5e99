package domain

import "fmt"

// Stage is one parsed command invocation within a pipeline.
type Stage struct {
	Name string `json:"name"`
	Args Args   `json:"args"`
	// Raw is the stage's original text, kept verbatim for diagnostics.
	Raw string `json:"raw"`
}

// Mode controls whether stages may block waiting for a human.
type Mode string

const (
	// ModeTool is non-interactive: approval-like stages must never block.
	ModeTool Mode = "tool"
	// ModeHuman is interactive: approval-like stages may prompt and wait.
	ModeHuman Mode = "human"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTool, ModeHuman:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid mode %q (want %q or %q)", s, ModeTool, ModeHuman)
	}
}

// Result is the fully drained output of a pipeline's last executed stage.
// Halted means a stage deliberately stopped propagation; it is not an error.
type Result struct {
	Items  []Item `json:"items"`
	Halted bool   `json:"halted"`
}
