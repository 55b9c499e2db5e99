package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// Status writes short coloured status lines. Colours are dropped when the
// writer is not a terminal.
type Status struct {
	w   io.Writer
	out *termenv.Output
}

// NewStatus creates a Status writing to w.
func NewStatus(w io.Writer) *Status {
	return &Status{w: w, out: termenv.NewOutput(w)}
}

func (s *Status) line(color, prefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(s.w, "%s %s\n", s.out.String(prefix).Foreground(s.out.Color(color)).Bold(), msg)
}

// OK reports a successful run.
func (s *Status) OK(format string, args ...any) {
	s.line("#22c55e", "ok", format, args...)
}

// Waiting reports a run halted on approval.
func (s *Status) Waiting(format string, args ...any) {
	s.line("#eab308", "waiting", format, args...)
}

// Fail reports an error.
func (s *Status) Fail(format string, args ...any) {
	s.line("#ef4444", "error", format, args...)
}

// Info prints a neutral system message.
func (s *Status) Info(format string, args ...any) {
	s.line("#818cf8", ">>>", format, args...)
}
