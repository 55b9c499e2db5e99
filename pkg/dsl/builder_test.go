package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lobster/pkg/dsl"
)

func TestBuilder_Build(t *testing.T) {
	p := dsl.New()
	p.Stage("exec").Flag("json", true).Words("gh", "pr", "list", "--json", "number,title").
		Then("where").Words("title=fix it's broken").
		Then("head").Flag("n", 5)

	stages, err := p.Build()
	require.NoError(t, err)
	require.Len(t, stages, 3)

	assert.Equal(t, "exec", stages[0].Name)
	assert.True(t, stages[0].Args.Bool("json"))
	assert.Equal(t, []string{"gh", "pr", "list", "--json", "number,title"}, stages[0].Args.Positional())

	assert.Equal(t, []string{"title=fix it's broken"}, stages[1].Args.Positional())

	n, err := stages[2].Args.Int(0, "n")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.NotEmpty(t, stages[2].Raw)
}

func TestBuilder_String(t *testing.T) {
	p := dsl.New()
	p.Stage("gog.gmail.search").Flag("query", "newer_than:1d").Flag("max", 20).
		Then("email.triage").Flag("limit", 20)

	assert.Equal(t, "gog.gmail.search --max=20 --query=newer_than:1d | email.triage --limit=20", p.String())
}

func TestBuilder_ListFlag(t *testing.T) {
	p := dsl.New()
	p.Stage("state.diff").Flag("key", "k").Flag("fields", []string{"a", "b"})

	stages, err := p.Build()
	require.NoError(t, err)
	assert.Equal(t, "a,b", stages[0].Args.String("", "fields"))
}

func TestBuilder_Errors(t *testing.T) {
	_, err := dsl.New().Build()
	assert.Error(t, err)

	p := dsl.New()
	p.Stage("")
	_, err = p.Build()
	assert.Error(t, err)

	p = dsl.New()
	p.Stage("head").Flag("n", struct{}{})
	_, err = p.Build()
	assert.ErrorContains(t, err, "--n")

	p = dsl.New()
	p.Stage("head").Flag("bad name", 1)
	_, err = p.Build()
	assert.ErrorContains(t, err, "invalid flag name")
}

func TestStageBuilder_Pipeline(t *testing.T) {
	p := dsl.New()
	assert.Same(t, p, p.Stage("head").Pipeline())
}
