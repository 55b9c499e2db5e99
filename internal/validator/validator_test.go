package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/registry"
)

func newRegistry() *registry.Registry {
	noop := func(ctx context.Context, in domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
		return ports.Output{Stream: in}, nil
	}
	reg := registry.New()
	reg.Register("head", ports.CommandDef{
		Args: domain.ArgSchema{Args: []domain.ArgSpec{{Name: "n", Type: "number"}}},
		Fn:   noop,
	})
	reg.Register("monitor", ports.CommandDef{
		Args: domain.ArgSchema{Args: []domain.ArgSpec{
			{Name: "repo", Type: "string", Required: true},
			{Name: "pr", Type: "number", Required: true},
		}},
		Fn: noop,
	})
	reg.Register("free", ports.CommandDef{Fn: noop})
	return reg
}

func TestValidatePipeline(t *testing.T) {
	reg := newRegistry()

	tests := []struct {
		name     string
		pipeline string
		want     []Problem
	}{
		{
			name:     "valid",
			pipeline: "monitor --repo o/r --pr 12 | head --n 3 | free --anything",
		},
		{
			name:     "unknown command",
			pipeline: "head | nope",
			want:     []Problem{{Stage: 2, Command: "nope", Severity: SeverityError, Message: "unknown command"}},
		},
		{
			name:     "schema violations",
			pipeline: "monitor --repo o/r --pr twelve --verbose",
			want: []Problem{
				{Stage: 1, Command: "monitor", Severity: SeverityError, Message: `argument "pr": expected number, got "twelve"`},
				{Stage: 1, Command: "monitor", Severity: SeverityWarning, Message: "undeclared flags: --verbose"},
			},
		},
		{
			name:     "missing required",
			pipeline: "monitor --pr 1",
			want:     []Problem{{Stage: 1, Command: "monitor", Severity: SeverityError, Message: `missing required argument "repo"`}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems, err := ValidatePipeline(tt.pipeline, reg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, problems)
		})
	}
}

func TestValidatePipeline_SyntaxError(t *testing.T) {
	_, err := ValidatePipeline("head | ", newRegistry())
	var perr *domain.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]Problem{{Severity: SeverityWarning}}))
	assert.True(t, HasErrors([]Problem{{Severity: SeverityWarning}, {Severity: SeverityError}}))
	assert.Equal(t, "stage 2 (x): error: boom", Problem{Stage: 2, Command: "x", Severity: SeverityError, Message: "boom"}.String())
}
