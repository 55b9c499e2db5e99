package stdlib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
)

const approveHelp = `approve - gate the pipeline on a yes/no decision

Usage:
  approve [--prompt 'Send these?'] [--preview-from-stdin] [--limit N] [--yes]

Human mode asks on the terminal; "y" or "yes" passes the items through,
anything else halts the pipeline with no output.
Tool mode never blocks: it emits one approval_request item and halts, unless
--yes is given or LOBSTER_APPROVE=yes is set.
`

// ApprovalRequest is the item emitted when a non-interactive run needs a decision.
type ApprovalRequest struct {
	Type    string        `json:"type"`
	Prompt  string        `json:"prompt"`
	Items   []domain.Item `json:"items"`
	Preview string        `json:"preview,omitempty"`
}

// Approve gates a pipeline on a human decision.
func Approve() ports.CommandDef {
	return ports.CommandDef{
		Summary:  "halt for approval (tool mode) or ask y/N (human mode)",
		HelpText: approveHelp,
		Args: domain.ArgSchema{Args: []domain.ArgSpec{
			{Name: "prompt", Type: "string", Description: "question shown to the approver"},
			{Name: "preview-from-stdin", Type: "boolean", Description: "include the items in the prompt"},
			{Name: "limit", Type: "number", Description: "max items in the preview"},
			{Name: "yes", Type: "boolean", Description: "approve without asking"},
		}},
		Fn: runApprove,
	}
}

func runApprove(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
	items, err := domain.Collect(ctx, input)
	if err != nil {
		return ports.Output{}, err
	}

	prompt := args.String("Approve?", "prompt")
	limit, err := args.Int(len(items), "limit")
	if err != nil {
		return ports.Output{}, err
	}

	preview := ""
	if args.Bool("preview-from-stdin", "preview") {
		preview, err = renderPreview(items, limit)
		if err != nil {
			return ports.Output{}, err
		}
	}

	if args.Bool("yes") || isYes(rc.Getenv("LOBSTER_APPROVE", "")) {
		return ports.Output{Stream: domain.FromSlice(items)}, nil
	}

	if rc.Mode != domain.ModeHuman {
		req := ApprovalRequest{
			Type:    domain.ApprovalRequestType,
			Prompt:  prompt,
			Items:   items,
			Preview: preview,
		}
		return ports.Output{Stream: domain.Of(req), Halt: true}, nil
	}

	if rc.Stdin == nil || rc.Stderr == nil {
		return ports.Output{}, errors.New("approve: human mode needs a terminal on stdin and stderr")
	}

	if preview != "" {
		fmt.Fprintln(rc.Stderr, preview)
	}
	fmt.Fprintf(rc.Stderr, "%s [y/N] ", prompt)

	answer, err := readLine(rc.Stdin)
	if err != nil && answer == "" {
		fmt.Fprintln(rc.Stderr)
		loggerOf(rc).Debug("approval input closed", "err", err)
		return ports.Output{Stream: domain.Empty(), Halt: true}, nil
	}

	if !isYes(answer) {
		return ports.Output{Stream: domain.Empty(), Halt: true}, nil
	}
	return ports.Output{Stream: domain.FromSlice(items)}, nil
}

// readLine reads up to and including '\n' without reading ahead, so the rest
// of stdin stays available to later stages.
func readLine(r io.Reader) (string, error) {
	var (
		line []byte
		b    [1]byte
	)
	for {
		n, err := r.Read(b[:])
		if n == 1 {
			line = append(line, b[0])
			if b[0] == '\n' {
				return string(line), nil
			}
		}
		if err != nil {
			return string(line), err
		}
	}
}

func isYes(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "y" || s == "yes"
}

func renderPreview(items []domain.Item, limit int) (string, error) {
	if limit < 0 {
		limit = 0
	}
	shown := items
	if limit < len(items) {
		shown = items[:limit]
	}
	data, err := json.MarshalIndent(shown, "", "  ")
	if err != nil {
		return "", fmt.Errorf("approve: cannot render preview: %w", err)
	}
	out := string(data)
	if rest := len(items) - len(shown); rest > 0 {
		out += fmt.Sprintf("\n... and %d more", rest)
	}
	return out, nil
}
