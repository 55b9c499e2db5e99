package workflows_test

import (
	"context"
	"testing"

	"github.com/aretw0/lobster/internal/compiler"
	"github.com/aretw0/lobster/internal/runtime"
	"github.com/aretw0/lobster/pkg/adapters/memory"
	"github.com/aretw0/lobster/pkg/adapters/process"
	"github.com/aretw0/lobster/pkg/commands/github"
	"github.com/aretw0/lobster/pkg/commands/mail"
	"github.com/aretw0/lobster/pkg/commands/workflows"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cli answers gh and gog invocations with canned JSON.
func cli(calls *[]process.Invocation) process.ExecutorFunc {
	return func(ctx context.Context, inv process.Invocation) (process.Result, error) {
		*calls = append(*calls, inv)
		switch inv.Command {
		case "gh":
			return process.Result{Stdout: []byte(`{"number":7,"title":"Fix","url":"u","state":"OPEN"}`)}, nil
		case "gog":
			return process.Result{Stdout: []byte(`{"threads":[{"id":"1","subject":"urgent thing"},{"id":"2","labels":["UNREAD"],"from":"a@b.c"}]}`)}, nil
		}
		return process.Result{}, nil
	}
}

func pipeline(t *testing.T, text string) (*domain.Result, []process.Invocation, error) {
	t.Helper()
	var calls []process.Invocation
	exec := cli(&calls)

	reg := registry.New()
	github.Register(reg, exec)
	mail.Register(reg, exec)
	workflows.Register(reg, workflows.Default(exec))

	stages, err := compiler.Parse(text)
	require.NoError(t, err)
	res, err := runtime.NewEngine().Run(context.Background(), stages, reg, nil, ports.RunContext{Store: memory.NewStore()})
	return res, calls, err
}

func TestList(t *testing.T) {
	res, _, err := pipeline(t, "workflows.list")
	require.NoError(t, err)

	names := []string{}
	for _, item := range res.Items {
		names = append(names, item.(workflows.Workflow).Name)
	}
	assert.Equal(t, []string{"email.triage.daily", "github.pr.monitor", "github.pr.monitor.notify"}, names)
}

func TestList_YAML(t *testing.T) {
	res, _, err := pipeline(t, "workflows.list --yaml")
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	doc := res.Items[0].(string)
	assert.Contains(t, doc, "- name: github.pr.monitor\n")
	assert.Contains(t, doc, "argsSchema:")
	assert.Contains(t, doc, "sideEffects: []")
	assert.NotContains(t, doc, "run:")
}

func TestRun_Monitor(t *testing.T) {
	res, calls, err := pipeline(t, `workflows.run --name github.pr.monitor --args-json '{"repo":"o/r","pr":7}'`)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	report := res.Items[0].(github.Report)
	assert.True(t, report.Changed)
	assert.Equal(t, "github.pr:o/r#7", report.Key)
	require.Len(t, calls, 1)
	assert.Equal(t, "7", calls[0].Args[2])
}

func TestRun_PositionalName(t *testing.T) {
	res, _, err := pipeline(t, `workflows.run github.pr.monitor.notify --args-json '{"repo":"o/r","pr":7}'`)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Contains(t, res.Items[0].(github.Notification).Message, "PR o/r#7 updated: Fix")
}

func TestRun_PipelineWorkflow(t *testing.T) {
	res, calls, err := pipeline(t, `workflows.run --name email.triage.daily --args-json '{"query":"is:unread in:inbox","max":5}'`)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	tr := res.Items[0].(mail.Triage)
	assert.Equal(t, "1 need replies, 1 need action, 0 FYI", tr.Summary)
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"gmail", "search", "is:unread in:inbox", "--json", "--max", "5"}, calls[0].Args)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		pipeline string
		want     string
	}{
		{"workflows.run", "requires --name"},
		{"workflows.run --name nope", "unknown workflow: nope"},
		{`workflows.run --name github.pr.monitor --args-json '{bad'`, "must be a JSON object"},
		{`workflows.run --name github.pr.monitor --args-json '{"repo":"o/r"}'`, `missing required argument "pr"`},
		{`workflows.run --name github.pr.monitor --args-json '{"repo":"o/r","pr":"abc"}'`, `argument "pr": expected number`},
	}
	for _, tt := range tests {
		t.Run(tt.pipeline, func(t *testing.T) {
			_, _, err := pipeline(t, tt.pipeline)
			var se *domain.StageError
			require.ErrorAs(t, err, &se)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCatalog(t *testing.T) {
	c := workflows.NewCatalog()
	c.Add(workflows.Workflow{Name: "b"})
	c.Add(workflows.Workflow{
		Name: "a",
		Run: func(ctx context.Context, args domain.Args, rc ports.RunContext) ([]domain.Item, error) {
			return []domain.Item{args.String("", "x")}, nil
		},
	})

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, []string{}, list[1].SideEffects)

	items, err := c.Run(context.Background(), "a", domain.Args{"x": domain.StringValue("ok")}, ports.RunContext{})
	require.NoError(t, err)
	assert.Equal(t, []domain.Item{"ok"}, items)

	_, err = c.Run(context.Background(), "b", domain.Args{}, ports.RunContext{})
	assert.ErrorContains(t, err, "not implemented")

	assert.Panics(t, func() { c.Add(workflows.Workflow{}) })
}

func TestParseArgsJSON(t *testing.T) {
	args, err := workflows.ParseArgsJSON(`{"pr":1152,"changesOnly":true,"labels":["a","b"]}`)
	require.NoError(t, err)
	n, err := args.Int(0, "pr")
	require.NoError(t, err)
	assert.Equal(t, 1152, n)
	assert.True(t, args.Bool("changesOnly"))

	args, err = workflows.ParseArgsJSON("")
	require.NoError(t, err)
	assert.Empty(t, args)
}
