package github_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"testing"

	"github.com/aretw0/lobster/pkg/adapters/memory"
	"github.com/aretw0/lobster/pkg/adapters/process"
	"github.com/aretw0/lobster/pkg/commands/github"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/registry"
	"github.com/aretw0/lobster/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGH answers gh pr view with the current pr value.
type fakeGH struct {
	pr    map[string]any
	calls []process.Invocation
}

func (f *fakeGH) Run(ctx context.Context, inv process.Invocation) (process.Result, error) {
	f.calls = append(f.calls, inv)
	data, err := json.Marshal(f.pr)
	if err != nil {
		return process.Result{}, err
	}
	return process.Result{Stdout: data}, nil
}

func samplePR() map[string]any {
	return map[string]any{
		"number":         1152,
		"title":          "A",
		"url":            "https://github.com/owner/repo/pull/1152",
		"state":          "OPEN",
		"isDraft":        false,
		"mergeable":      "MERGEABLE",
		"reviewDecision": nil,
		"author":         map[string]any{"login": "octocat"},
		"baseRefName":    "main",
		"headRefName":    "feat",
		"updatedAt":      "t1",
	}
}

func run(t *testing.T, reg *registry.Registry, rc ports.RunContext, name string, args map[string]any) []domain.Item {
	t.Helper()
	cmd, err := reg.Resolve(name)
	require.NoError(t, err)
	a, err := domain.ArgsFromMap(args)
	require.NoError(t, err)
	out, err := cmd.Run(context.Background(), domain.Empty(), a, rc)
	require.NoError(t, err)
	items, err := domain.Collect(context.Background(), out.Stream)
	require.NoError(t, err)
	return items
}

func setup() (*registry.Registry, *fakeGH, ports.RunContext) {
	gh := &fakeGH{pr: samplePR()}
	reg := registry.New()
	github.Register(reg, gh)
	return reg, gh, ports.RunContext{Store: memory.NewStore(), Env: map[string]string{}}
}

func TestMonitor_Invocation(t *testing.T) {
	reg, gh, rc := setup()
	rc.Env[github.EnvBin] = "/opt/gh"

	run(t, reg, rc, "github.pr.monitor", map[string]any{"repo": "owner/repo", "pr": "1152"})
	require.Len(t, gh.calls, 1)
	assert.Equal(t, "/opt/gh", gh.calls[0].Command)
	assert.Equal(t, []string{"pr", "view", "1152", "--repo", "owner/repo", "--json", github.ViewFields}, gh.calls[0].Args)
}

func TestMonitor_ChangeDetection(t *testing.T) {
	reg, gh, rc := setup()
	args := map[string]any{"repo": "owner/repo", "pr": 1152}

	items := run(t, reg, rc, "github.pr.monitor", args)
	require.Len(t, items, 1)
	first := items[0].(github.Report)
	assert.Equal(t, github.Kind, first.Kind)
	assert.Equal(t, "github.pr:owner/repo#1152", first.Key)
	assert.True(t, first.Changed)
	assert.True(t, first.FirstSeen)
	assert.Contains(t, first.Summary.ChangedFields, "title")
	assert.Equal(t, "A", first.Summary.Changes["title"].To)

	items = run(t, reg, rc, "github.pr.monitor", args)
	second := items[0].(github.Report)
	assert.False(t, second.Changed)
	assert.Empty(t, second.Summary.ChangedFields)

	gh.pr["title"] = "B"
	gh.pr["updatedAt"] = "t2"
	gh.pr["author"] = map[string]any{"login": "someone-else"}
	items = run(t, reg, rc, "github.pr.monitor", args)
	third := items[0].(github.Report)
	assert.True(t, third.Changed)
	assert.False(t, third.FirstSeen)
	assert.ElementsMatch(t, []string{"title", "updatedAt"}, third.Summary.ChangedFields, "author is outside the allow-list")
	assert.Equal(t, domain.FieldChange{From: "A", To: "B"}, third.Summary.Changes["title"])
	snap := third.PRSnapshot.(map[string]any)
	assert.Equal(t, json.Number("1152"), snap["number"])
}

func TestMonitor_ChangesOnly(t *testing.T) {
	reg, _, rc := setup()
	args := map[string]any{"repo": "owner/repo", "pr": 1152, "changes-only": true}

	first := run(t, reg, rc, "github.pr.monitor", args)[0].(github.Report)
	assert.False(t, first.Suppressed)

	second := run(t, reg, rc, "github.pr.monitor", args)[0].(github.Report)
	assert.True(t, second.Suppressed)
	assert.False(t, second.Changed)
	assert.Nil(t, second.Summary)
	assert.Nil(t, second.PRSnapshot)
}

func TestMonitor_SummaryOnly(t *testing.T) {
	reg, _, rc := setup()
	report := run(t, reg, rc, "github.pr.monitor", map[string]any{"repo": "owner/repo", "pr": 1152, "summaryOnly": true})[0].(github.Report)

	snap := report.PRSnapshot.(map[string]any)
	assert.ElementsMatch(t, []string{"number", "title", "url", "state", "updatedAt"}, keys(snap))
}

func TestMonitor_KeyOverride(t *testing.T) {
	reg, _, rc := setup()
	report := run(t, reg, rc, "github.pr.monitor", map[string]any{"repo": "owner/repo", "pr": 1152, "key": "custom"})[0].(github.Report)
	assert.Equal(t, "custom", report.Key)

	keys, err := rc.Store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"custom"}, keys)
}

func TestMonitor_Errors(t *testing.T) {
	reg, _, rc := setup()

	cmd, err := reg.Resolve("github.pr.monitor")
	require.NoError(t, err)
	_, err = cmd.Run(context.Background(), domain.Empty(), domain.Args{"repo": domain.StringValue("owner/repo")}, rc)
	assert.ErrorContains(t, err, "requires --repo")

	rc.Store = nil
	_, err = cmd.Run(context.Background(), domain.Empty(), domain.Args{"repo": domain.StringValue("o/r"), "pr": domain.NumberValue(1)}, rc)
	assert.ErrorIs(t, err, state.ErrNoStore)
}

func TestMonitor_GhMissing(t *testing.T) {
	m := github.NewMonitor(process.ExecutorFunc(func(ctx context.Context, inv process.Invocation) (process.Result, error) {
		return process.Result{}, fmt.Errorf("failed to run gh: %w", &exec.Error{Name: "gh", Err: exec.ErrNotFound})
	}))
	_, err := m.Check(context.Background(), github.MonitorOptions{Repo: "o/r", PR: 1, Key: "k"}, ports.RunContext{Store: memory.NewStore()})
	assert.ErrorContains(t, err, "gh not found on PATH")
}

func TestMonitor_NonJSON(t *testing.T) {
	m := github.NewMonitor(process.ExecutorFunc(func(ctx context.Context, inv process.Invocation) (process.Result, error) {
		return process.Result{Stdout: []byte("rate limited")}, nil
	}))
	_, err := m.Check(context.Background(), github.MonitorOptions{Repo: "o/r", PR: 1, Key: "k"}, ports.RunContext{Store: memory.NewStore()})
	assert.ErrorContains(t, err, "invalid JSON")
}

func TestNotify(t *testing.T) {
	reg, gh, rc := setup()
	args := map[string]any{"repo": "owner/repo", "pr": 1152}

	items := run(t, reg, rc, "github.pr.monitor.notify", args)
	require.Len(t, items, 1)
	note := items[0].(github.Notification)
	assert.Contains(t, note.Message, "PR owner/repo#1152 updated: A")
	assert.Contains(t, note.Message, "now watching")

	assert.Empty(t, run(t, reg, rc, "github.pr.monitor.notify", args))

	gh.pr["state"] = "MERGED"
	items = run(t, reg, rc, "github.pr.monitor.notify", args)
	require.Len(t, items, 1)
	note = items[0].(github.Notification)
	assert.Contains(t, note.Message, "state: OPEN -> MERGED")
	assert.Contains(t, note.Message, "https://github.com/owner/repo/pull/1152")
}

func TestFormatMessage_NullValues(t *testing.T) {
	msg := github.FormatMessage(github.Report{
		Repo: "o/r",
		PR:   1,
		Summary: &domain.ChangeSummary{
			ChangedFields: []string{"reviewDecision"},
			Changes:       map[string]domain.FieldChange{"reviewDecision": {From: "REVIEW_REQUIRED", To: nil}},
		},
		PRSnapshot: map[string]any{"title": "T"},
	})
	assert.Equal(t, "PR o/r#1 updated: T\nreviewDecision: REVIEW_REQUIRED -> null", msg)
}

func TestStateKey(t *testing.T) {
	assert.Equal(t, "github.pr:a/b#7", github.StateKey("a/b", 7))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
