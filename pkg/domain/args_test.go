package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs_Accessors(t *testing.T) {
	args := Args{
		"n":       StringValue("3"),
		"limit":   NumberValue(20),
		"dry-run": BoolValue(true),
		"verbose": StringValue("yes"),
		"_":       ListValue("a", "b"),
	}

	n, err := args.Int(10, "n")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	limit, err := args.Int(10, "max", "limit")
	require.NoError(t, err)
	assert.Equal(t, 20, limit)

	def, err := args.Int(10, "missing")
	require.NoError(t, err)
	assert.Equal(t, 10, def)

	assert.True(t, args.Bool("dryRun", "dry-run"))
	assert.True(t, args.Bool("verbose"))
	assert.False(t, args.Bool("missing"))

	assert.Equal(t, []string{"a", "b"}, args.Positional())
	assert.Equal(t, "fallback", args.String("fallback", "query"))
	assert.Equal(t, "3", args.String("", "n"))
}

func TestArgs_IntRejectsGarbage(t *testing.T) {
	_, err := Args{"n": StringValue("three")}.Int(0, "n")
	assert.EqualError(t, err, `--n expects a number, got "three"`)
}

func TestArgs_IntRejectsNonFinite(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "-Inf", "1e30", "-1e30"} {
		t.Run(raw, func(t *testing.T) {
			n, err := Args{"n": StringValue(raw)}.Int(10, "n")
			assert.ErrorContains(t, err, "--n expects an integer")
			assert.Equal(t, 10, n)
		})
	}

	n, err := Args{"n": NumberValue(-2.9)}.Int(0, "n")
	require.NoError(t, err)
	assert.Equal(t, -2, n)
}

func TestArgs_Decode(t *testing.T) {
	type options struct {
		Query  string `mapstructure:"query"`
		Max    int    `mapstructure:"max"`
		DryRun bool   `mapstructure:"dry-run"`
	}

	args := Args{
		"query":   StringValue("newer_than:1d"),
		"max":     StringValue("20"),
		"dry-run": StringValue("true"),
	}

	var opts options
	require.NoError(t, args.Decode(&opts))
	assert.Equal(t, options{Query: "newer_than:1d", Max: 20, DryRun: true}, opts)
}

func TestArgsFromMap(t *testing.T) {
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"repo":"o/r","pr":1152,"changesOnly":true,"labels":["a","b"]}`), &m))

	args, err := ArgsFromMap(m)
	require.NoError(t, err)
	assert.Equal(t, StringValue("o/r"), args["repo"])
	assert.Equal(t, NumberValue(1152), args["pr"])
	assert.Equal(t, BoolValue(true), args["changesOnly"])
	assert.Equal(t, ListValue("a", "b"), args["labels"])

	_, err = ArgsFromMap(map[string]any{"obj": map[string]any{}})
	assert.Error(t, err)
}

func TestValue_JSON(t *testing.T) {
	data, err := json.Marshal(Args{"n": NumberValue(3), "_": ListValue("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":3,"_":["x"]}`, string(data))
}
