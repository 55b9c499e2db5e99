package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
)

// Email is the normalized view of a message used for triage.
type Email struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	From     string   `json:"from"`
	Subject  string   `json:"subject"`
	Date     string   `json:"date"`
	Snippet  string   `json:"snippet"`
	Labels   []string `json:"labels"`
}

// Buckets holds message IDs per triage category.
type Buckets struct {
	NeedsReply  []string `json:"needsReply"`
	NeedsAction []string `json:"needsAction"`
	FYI         []string `json:"fyi"`
}

// Triage is the single item email.triage emits.
type Triage struct {
	Summary string  `json:"summary"`
	Buckets Buckets `json:"buckets"`
	Emails  []Email `json:"emails"`
}

// NormalizeEmail maps the field names gog and Gmail use onto Email.
func NormalizeEmail(item domain.Item) Email {
	rec, _ := asRecord(item)
	e := Email{
		ID:      text(rec, "id", "messageId"),
		From:    text(rec, "from", "sender"),
		Subject: text(rec, "subject"),
		Date:    text(rec, "date", "internalDate", "timestamp"),
		Snippet: text(rec, "snippet", "bodyPreview"),
		Labels:  []string{},
	}
	e.ThreadID = text(rec, "threadId", "thread_id")
	if e.ThreadID == "" {
		e.ThreadID = e.ID
	}
	if labels, ok := rec["labels"].([]any); ok {
		for _, l := range labels {
			e.Labels = append(e.Labels, fmt.Sprint(l))
		}
	}
	return e
}

// Classify buckets emails deterministically: urgent subjects need action,
// unread mail from a person needs a reply, everything else is FYI.
func Classify(emails []Email) Triage {
	b := Buckets{NeedsReply: []string{}, NeedsAction: []string{}, FYI: []string{}}
	for _, e := range emails {
		subject := strings.ToLower(e.Subject)
		switch {
		case strings.Contains(subject, "action required") || strings.Contains(subject, "urgent"):
			b.NeedsAction = append(b.NeedsAction, e.ID)
		case isUnread(e) && !isNoReply(e.From):
			b.NeedsReply = append(b.NeedsReply, e.ID)
		default:
			b.FYI = append(b.FYI, e.ID)
		}
	}
	return Triage{
		Summary: fmt.Sprintf("%d need replies, %d need action, %d FYI", len(b.NeedsReply), len(b.NeedsAction), len(b.FYI)),
		Buckets: b,
		Emails:  emails,
	}
}

func isUnread(e Email) bool {
	for _, l := range e.Labels {
		if strings.EqualFold(l, "UNREAD") {
			return true
		}
	}
	return false
}

func isNoReply(from string) bool {
	f := strings.ToLower(from)
	for _, marker := range []string{"no-reply", "noreply", "do-not-reply", "donotreply"} {
		if strings.Contains(f, marker) {
			return true
		}
	}
	return false
}

// TriageCommand reads up to --limit messages and emits one Triage item.
func TriageCommand() ports.CommandDef {
	return ports.CommandDef{
		Summary: "deterministic bucketing and summary for email messages",
		HelpText: "email.triage - bucket email messages\n\n" +
			"Usage:\n  gog.gmail.search --query 'newer_than:1d' --max 20 | email.triage [--limit 20]\n\n" +
			"Emits a single {summary, buckets, emails} object. Read-only.\n",
		Args: domain.ArgSchema{Args: []domain.ArgSpec{
			{Name: "limit", Type: "number", Description: "messages considered (default 20)"},
		}},
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			limit, err := args.Int(20, "limit")
			if err != nil {
				return ports.Output{}, err
			}

			return ports.Output{Stream: domain.Defer(func(ctx context.Context) (domain.Stream, error) {
				items, err := domain.Collect(ctx, input)
				if err != nil {
					return nil, err
				}
				if limit >= 0 && len(items) > limit {
					items = items[:limit]
				}
				emails := make([]Email, 0, len(items))
				for _, item := range items {
					emails = append(emails, NormalizeEmail(item))
				}
				return domain.Of(Classify(emails)), nil
			})}, nil
		},
	}
}

func asRecord(item domain.Item) (map[string]any, bool) {
	if rec, ok := item.(map[string]any); ok {
		return rec, true
	}
	n, err := domain.NormalizeJSON(item)
	if err != nil {
		return nil, false
	}
	rec, ok := n.(map[string]any)
	return rec, ok
}

// text returns the first present field among names as trimmed text.
func text(rec map[string]any, names ...string) string {
	for _, n := range names {
		v, ok := rec[n]
		if !ok || v == nil {
			continue
		}
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return ""
}
