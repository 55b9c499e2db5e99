package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/lobster/pkg/adapters/process"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
)

// Draft is one outgoing message.
type Draft struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendResult is emitted for a draft handled with --dry-run.
type SendResult struct {
	OK     bool `json:"ok"`
	DryRun bool `json:"dryRun"`
	Draft
}

// ParseDraft reads a draft from an item.
func ParseDraft(item domain.Item) (Draft, error) {
	rec, ok := asRecord(item)
	if !ok {
		return Draft{}, errors.New("gog.gmail.send expects draft objects {to, subject, body}")
	}
	d := Draft{
		To:      text(rec, "to"),
		Subject: text(rec, "subject"),
		Body:    text(rec, "body"),
	}
	if d.To == "" {
		return Draft{}, errors.New("gog.gmail.send draft missing to")
	}
	return d, nil
}

// Send delivers one draft and returns gog's decoded response.
func (g *Gog) Send(ctx context.Context, rc ports.RunContext, d Draft) (any, error) {
	argv := []string{"gmail", "send", "--to=" + d.To}
	if d.Subject != "" {
		argv = append(argv, "--subject="+d.Subject)
	}
	if d.Body != "" {
		argv = append(argv, "--body="+d.Body)
	}
	argv = append(argv, "--json")

	res, err := g.run(ctx, rc, argv...)
	if err != nil {
		return nil, fmt.Errorf("gog.gmail.send failed: %w", err)
	}
	if strings.TrimSpace(string(res.Stdout)) == "" {
		return map[string]any{"ok": true}, nil
	}
	if v, ok := process.DecodeOutput(res.Stdout); ok {
		return v, nil
	}
	return map[string]any{"ok": true, "raw": string(res.Stdout)}, nil
}

// SendCommand sends every input draft. Each draft is validated before any is sent.
func SendCommand(g *Gog) ports.CommandDef {
	return ports.CommandDef{
		Summary: "send Gmail drafts {to, subject, body} via gog",
		HelpText: "gog.gmail.send - send Gmail messages via gog\n\n" +
			"Usage:\n  ... | approve --prompt 'Send replies?' | gog.gmail.send [--dry-run]\n\n" +
			"Input is a stream of draft objects: {to, subject, body}.\n",
		Args: domain.ArgSchema{Args: []domain.ArgSpec{
			{Name: "dry-run", Type: "boolean", Description: "echo drafts without sending"},
		}},
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			dryRun := args.Bool("dry-run", "dryRun")

			return ports.Output{Stream: domain.Defer(func(ctx context.Context) (domain.Stream, error) {
				items, err := domain.Collect(ctx, input)
				if err != nil {
					return nil, err
				}
				drafts := make([]Draft, 0, len(items))
				for _, item := range items {
					d, err := ParseDraft(item)
					if err != nil {
						return nil, err
					}
					drafts = append(drafts, d)
				}

				results := make([]domain.Item, 0, len(drafts))
				for _, d := range drafts {
					if dryRun {
						results = append(results, SendResult{OK: true, DryRun: true, Draft: d})
						continue
					}
					res, err := g.Send(ctx, rc, d)
					if err != nil {
						return nil, err
					}
					results = append(results, res)
				}
				return domain.FromSlice(results), nil
			})}, nil
		},
	}
}
