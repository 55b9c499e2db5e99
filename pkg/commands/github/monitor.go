package github

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/aretw0/lobster/pkg/adapters/process"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/state"
)

const (
	// DefaultBin is the executable used when GH_BIN is unset.
	DefaultBin = "gh"
	// EnvBin overrides the gh executable.
	EnvBin = "GH_BIN"
	// ViewFields is the field list requested from gh pr view.
	ViewFields = "number,title,url,state,isDraft,mergeable,reviewDecision,author,baseRefName,headRefName,updatedAt"
	// Kind tags every report.
	Kind = "github.pr.monitor"
)

// SummaryFields is the allow-list used for change summaries.
var SummaryFields = []string{
	"number", "title", "url", "state", "isDraft", "mergeable",
	"reviewDecision", "updatedAt", "baseRefName", "headRefName",
}

var compactFields = []string{"number", "title", "url", "state", "updatedAt"}

// MonitorOptions configures one check of a pull request.
type MonitorOptions struct {
	Repo        string `mapstructure:"repo"`
	PR          int    `mapstructure:"pr"`
	Key         string `mapstructure:"key"`
	ChangesOnly bool   `mapstructure:"changesOnly"`
	SummaryOnly bool   `mapstructure:"summaryOnly"`
}

// ParseMonitorOptions reads options from stage arguments. Both kebab-case and
// camelCase flag names are accepted.
func ParseMonitorOptions(args domain.Args) (MonitorOptions, error) {
	var opts MonitorOptions
	if err := args.Decode(&opts); err != nil {
		return opts, err
	}
	opts.ChangesOnly = opts.ChangesOnly || args.Bool("changes-only")
	opts.SummaryOnly = opts.SummaryOnly || args.Bool("summary-only")

	if opts.Repo == "" || opts.PR <= 0 {
		return opts, errors.New("github.pr.monitor requires --repo owner/name and --pr <number>")
	}
	if opts.Key == "" {
		opts.Key = StateKey(opts.Repo, opts.PR)
	}
	return opts, nil
}

// StateKey is the default snapshot key for a pull request.
func StateKey(repo string, pr int) string {
	return "github.pr:" + repo + "#" + strconv.Itoa(pr)
}

// Report is the item a monitor check emits.
type Report struct {
	Kind       string                `json:"kind"`
	Repo       string                `json:"repo"`
	PR         int                   `json:"pr"`
	Key        string                `json:"key"`
	Changed    bool                  `json:"changed"`
	FirstSeen  bool                  `json:"firstSeen,omitempty"`
	Suppressed bool                  `json:"suppressed,omitempty"`
	Summary    *domain.ChangeSummary `json:"summary,omitempty"`
	PRSnapshot any                   `json:"prSnapshot,omitempty"`
}

// Monitor fetches pull request state and diffs it against the last run.
type Monitor struct {
	exec process.Executor
}

// NewMonitor creates a monitor that runs gh through exec.
func NewMonitor(exec process.Executor) *Monitor {
	return &Monitor{exec: exec}
}

// Fetch returns the current pull request view as normalized JSON.
func (m *Monitor) Fetch(ctx context.Context, opts MonitorOptions, rc ports.RunContext) (any, error) {
	bin := rc.Getenv(EnvBin, DefaultBin)
	res, err := m.exec.Run(ctx, process.Invocation{
		Command: bin,
		Args:    []string{"pr", "view", strconv.Itoa(opts.PR), "--repo", opts.Repo, "--json", ViewFields},
		Env:     rc.Env,
	})
	if errors.Is(err, exec.ErrNotFound) {
		return nil, fmt.Errorf("%s not found on PATH (install GitHub CLI or set %s)", bin, EnvBin)
	}
	if err != nil {
		return nil, err
	}
	return process.ParseJSON(bin, res.Stdout)
}

// Check fetches the pull request, records it under opts.Key and reports
// whether it changed since the previous check.
func (m *Monitor) Check(ctx context.Context, opts MonitorOptions, rc ports.RunContext) (Report, error) {
	mgr, err := state.FromRunContext(rc)
	if err != nil {
		return Report{}, err
	}
	current, err := m.Fetch(ctx, opts, rc)
	if err != nil {
		return Report{}, err
	}

	obs, err := mgr.DiffAndStore(ctx, opts.Key, current)
	if err != nil {
		return Report{}, err
	}

	report := Report{Kind: Kind, Repo: opts.Repo, PR: opts.PR, Key: opts.Key, Changed: obs.Changed, FirstSeen: !obs.Found}
	if opts.ChangesOnly && !obs.Changed {
		report.Suppressed = true
		return report, nil
	}

	summary := domain.SummarizeChanges(obs.Before, obs.After, SummaryFields)
	report.Summary = &summary
	if opts.SummaryOnly {
		report.PRSnapshot = subset(obs.After, compactFields)
	} else {
		report.PRSnapshot = obs.After
	}
	return report, nil
}

// Notification is emitted by the notify variant when a pull request changed.
type Notification struct {
	Message string `json:"message"`
}

// Notify checks the pull request and returns a message only when it changed.
func (m *Monitor) Notify(ctx context.Context, opts MonitorOptions, rc ports.RunContext) (*Notification, error) {
	opts.ChangesOnly = false
	opts.SummaryOnly = false
	report, err := m.Check(ctx, opts, rc)
	if err != nil || !report.Changed {
		return nil, err
	}
	return &Notification{Message: FormatMessage(report)}, nil
}

// FormatMessage renders a report as a short human-readable update.
func FormatMessage(r Report) string {
	pr, _ := r.PRSnapshot.(map[string]any)
	title := fmt.Sprint(pr["title"])

	var b strings.Builder
	fmt.Fprintf(&b, "PR %s#%d updated: %s", r.Repo, r.PR, title)
	if r.Summary != nil && len(r.Summary.ChangedFields) > 0 {
		if r.FirstSeen {
			b.WriteString("\nnow watching")
		} else {
			parts := make([]string, 0, len(r.Summary.ChangedFields))
			for _, f := range r.Summary.ChangedFields {
				c := r.Summary.Changes[f]
				parts = append(parts, fmt.Sprintf("%s: %v -> %v", f, display(c.From), display(c.To)))
			}
			b.WriteString("\n" + strings.Join(parts, "\n"))
		}
	}
	if url, ok := pr["url"].(string); ok && url != "" {
		b.WriteString("\n" + url)
	}
	return b.String()
}

func display(v any) any {
	if v == nil {
		return "null"
	}
	return v
}

func subset(v any, fields []string) map[string]any {
	rec, _ := v.(map[string]any)
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if val, ok := rec[f]; ok {
			out[f] = val
		}
	}
	return out
}
