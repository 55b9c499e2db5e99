package domain

import (
	"errors"
)

// Envelope statuses.
const (
	StatusOK            = "ok"
	StatusNeedsApproval = "needs_approval"
	StatusHalted        = "halted"
)

// Envelope is the machine-readable result of a run, shared by every surface.
type Envelope struct {
	OK     bool       `json:"ok"`
	Status string     `json:"status,omitempty"`
	Output []Item     `json:"output"`
	Error  *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo classifies a failed run.
type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Stage   int    `json:"stage,omitempty"`
	Command string `json:"command,omitempty"`
}

// Error types reported in ErrorInfo.Type.
const (
	ErrorTypeParse          = "parse_error"
	ErrorTypeUnknownCommand = "unknown_command"
	ErrorTypeStage          = "stage_error"
	ErrorTypeInternal       = "error"
)

// NewEnvelope wraps a successful result. A halted run whose output carries an
// approval request reports StatusNeedsApproval.
func NewEnvelope(res *Result) Envelope {
	env := Envelope{OK: true, Status: StatusOK, Output: []Item{}}
	if res == nil {
		return env
	}
	if res.Items != nil {
		env.Output = res.Items
	}
	if res.Halted {
		env.Status = StatusHalted
		for _, item := range res.Items {
			if IsApprovalRequest(item) {
				env.Status = StatusNeedsApproval
				break
			}
		}
	}
	return env
}

// ErrorEnvelope wraps a failed run.
func ErrorEnvelope(err error) Envelope {
	return Envelope{OK: false, Output: []Item{}, Error: ClassifyError(err)}
}

// ClassifyError maps an engine error onto ErrorInfo.
func ClassifyError(err error) *ErrorInfo {
	info := &ErrorInfo{Type: ErrorTypeInternal, Message: err.Error()}

	var perr *ParseError
	var uerr *UnknownCommandError
	var serr *StageError
	switch {
	case errors.As(err, &perr):
		info.Type = ErrorTypeParse
		info.Stage = perr.Stage
	case errors.As(err, &uerr):
		info.Type = ErrorTypeUnknownCommand
		info.Stage = uerr.Stage
		info.Command = uerr.Name
	case errors.As(err, &serr):
		info.Type = ErrorTypeStage
		info.Stage = serr.Stage
		info.Command = serr.Name
	}
	return info
}

// IsApprovalRequest reports whether item is an approval request, whatever its Go type.
func IsApprovalRequest(item Item) bool {
	rec, ok := item.(map[string]any)
	if !ok {
		n, err := NormalizeJSON(item)
		if err != nil {
			return false
		}
		if rec, ok = n.(map[string]any); !ok {
			return false
		}
	}
	return rec["type"] == ApprovalRequestType
}
