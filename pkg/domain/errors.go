package domain

import (
	"errors"
	"fmt"
)

// ErrCommandNotFound is returned when a stage name has no registry entry.
var ErrCommandNotFound = errors.New("command not found")

// ErrSnapshotNotFound is returned when a key has never been recorded in a snapshot store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ParseError reports malformed pipeline text. The pipeline never starts.
type ParseError struct {
	Stage  int    // 1-based segment index, 0 when the whole expression is at fault
	Raw    string // offending segment (or the whole expression)
	Offset int    // byte offset in the whole expression
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Stage == 0 {
		return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Msg)
	}
	return fmt.Sprintf("parse error in stage %d (%q) at offset %d: %s", e.Stage, e.Raw, e.Offset, e.Msg)
}

// UnknownCommandError is returned by the pre-flight check when a stage cannot be
// resolved. No stage has been invoked when it is returned.
type UnknownCommandError struct {
	Stage int
	Name  string
	Raw   string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q in stage %d (%q)", e.Name, e.Stage, e.Raw)
}

// Unwrap lets callers match with errors.Is(err, ErrCommandNotFound).
func (e *UnknownCommandError) Unwrap() error { return ErrCommandNotFound }

// StageError wraps a failure raised by a command, either from its Run call or
// while its output stream was being pulled.
type StageError struct {
	Stage int
	Name  string
	Raw   string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s) failed: %v", e.Stage, e.Name, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
