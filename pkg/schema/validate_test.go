package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lobster/pkg/domain"
)

var monitorDecl = domain.ArgSchema{Args: []domain.ArgSpec{
	{Name: "repo", Type: "string", Required: true},
	{Name: "pr", Type: "number", Required: true},
	{Name: "changesOnly", Type: "boolean"},
	{Name: "fields", Type: "array"},
}}

func TestValidate(t *testing.T) {
	s, err := Compile(monitorDecl)
	require.NoError(t, err)

	tests := []struct {
		name string
		args domain.Args
		want []string
	}{
		{
			name: "typed values",
			args: domain.Args{"repo": domain.StringValue("o/r"), "pr": domain.NumberValue(1), "changesOnly": domain.BoolValue(true)},
		},
		{
			name: "string values from pipeline text",
			args: domain.Args{"repo": domain.StringValue("o/r"), "pr": domain.StringValue("12"), "changesOnly": domain.StringValue("false"), "fields": domain.StringValue("a,b")},
		},
		{
			name: "missing required",
			args: domain.Args{"repo": domain.StringValue("o/r")},
			want: []string{`missing required argument "pr"`},
		},
		{
			name: "wrong types",
			args: domain.Args{"repo": domain.ListValue("a"), "pr": domain.StringValue("twelve"), "changesOnly": domain.NumberValue(1)},
			want: []string{
				`argument "repo": expected string, got list`,
				`argument "pr": expected number, got "twelve"`,
				`argument "changesOnly": expected boolean, got number`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.args)
			if len(tt.want) == 0 {
				assert.NoError(t, err)
				return
			}
			errs := ValidationErrors(err)
			require.Len(t, errs, len(tt.want))
			for i, w := range tt.want {
				assert.EqualError(t, errs[i], w)
			}
		})
	}
}

func TestAggregateError_Message(t *testing.T) {
	s, err := Compile(monitorDecl)
	require.NoError(t, err)

	err = s.Validate(domain.Args{"repo": domain.StringValue("o/r")})
	assert.EqualError(t, err, `missing required argument "pr"`)

	err = s.Validate(domain.Args{})
	assert.Contains(t, err.Error(), "2 validation errors:")
}

func TestUndeclared(t *testing.T) {
	s, err := Compile(monitorDecl)
	require.NoError(t, err)

	args := domain.Args{
		domain.PositionalKey: domain.ListValue("x"),
		"repo":               domain.StringValue("o/r"),
		"zeta":               domain.BoolValue(true),
		"alpha":              domain.StringValue("1"),
	}
	assert.Equal(t, []string{"alpha", "zeta"}, s.Undeclared(args))
}

func TestCompile_UnsupportedType(t *testing.T) {
	_, err := Compile(domain.ArgSchema{Args: []domain.ArgSpec{{Name: "x", Type: "matrix"}}})
	assert.ErrorContains(t, err, "unsupported type: matrix")
}

func TestParseType(t *testing.T) {
	for name, want := range map[string]string{
		"string": "string", "number": "number", "integer": "number",
		"bool": "boolean", "boolean": "boolean", "list": "array", "": "any",
	} {
		typ, err := ParseType(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, typ.Name(), name)
	}
}

func TestCustom(t *testing.T) {
	positive := Custom("positive", func(v domain.Value) error {
		if v.Kind != domain.KindNumber || v.Num <= 0 {
			return assert.AnError
		}
		return nil
	})
	assert.NoError(t, positive.Validate(domain.NumberValue(2)))
	assert.Error(t, positive.Validate(domain.NumberValue(-1)))
}
