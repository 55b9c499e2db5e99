package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ValueKind discriminates the Value union.
type ValueKind uint8

const (
	KindString ValueKind = iota + 1
	KindNumber
	KindBool
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Value is a single argument value: a string, a number, a boolean, or a list of
// strings. Only the field matching Kind is meaningful.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []string
}

// StringValue builds a string argument.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// NumberValue builds a numeric argument.
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// BoolValue builds a boolean argument.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// ListValue builds a list argument.
func ListValue(items ...string) Value {
	if items == nil {
		items = []string{}
	}
	return Value{Kind: KindList, List: items}
}

// Interface returns the value as a plain Go value.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindList:
		out := make([]string, len(v.List))
		copy(out, v.List)
		return out
	default:
		return nil
	}
}

// Text renders the value the way it would be written on a command line.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindList:
		return strings.Join(v.List, ",")
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// ValueOf converts a JSON-decoded Go value into a Value. Lists must hold
// scalars; nested objects are rejected.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case float64:
		return NumberValue(t), nil
	case float32:
		return NumberValue(float64(t)), nil
	case int:
		return NumberValue(float64(t)), nil
	case int64:
		return NumberValue(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return NumberValue(f), nil
	case []string:
		return ListValue(t...), nil
	case []any:
		list := make([]string, 0, len(t))
		for _, el := range t {
			v, err := ValueOf(el)
			if err != nil {
				return Value{}, err
			}
			if v.Kind == KindList {
				return Value{}, fmt.Errorf("nested lists are not supported")
			}
			list = append(list, v.Text())
		}
		return ListValue(list...), nil
	default:
		return Value{}, fmt.Errorf("unsupported argument type %T", x)
	}
}

// Args is the parsed argument map of a stage. Bare tokens are collected under
// PositionalKey.
type Args map[string]Value

// ArgsFromMap converts a JSON-like map (for instance decoded from --args-json)
// into Args.
func ArgsFromMap(m map[string]any) (Args, error) {
	args := make(Args, len(m))
	for k, x := range m {
		v, err := ValueOf(x)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", k, err)
		}
		args[k] = v
	}
	return args, nil
}

// Has reports whether name was given.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Lookup returns the first present value among names. Commands use it for
// flag aliases such as "dry-run" and "dryRun".
func (a Args) Lookup(names ...string) (Value, bool) {
	for _, n := range names {
		if v, ok := a[n]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// String returns the textual form of the first present name, or def.
func (a Args) String(def string, names ...string) string {
	if v, ok := a.Lookup(names...); ok {
		return v.Text()
	}
	return def
}

// Float returns the first present name as a number, or def when absent.
func (a Args) Float(def float64, names ...string) (float64, error) {
	v, ok := a.Lookup(names...)
	if !ok {
		return def, nil
	}
	switch v.Kind {
	case KindNumber:
		return v.Num, nil
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return def, fmt.Errorf("--%s expects a number, got %q", names[0], v.Str)
		}
		return n, nil
	default:
		return def, fmt.Errorf("--%s expects a number, got %s", names[0], v.Kind)
	}
}

// Int is Float truncated to an integer. Non-finite values and values outside
// the int range are errors.
func (a Args) Int(def int, names ...string) (int, error) {
	n, err := a.Float(float64(def), names...)
	if err != nil {
		return def, err
	}
	if math.IsNaN(n) || n < float64(math.MinInt) || n >= -float64(math.MinInt) {
		return def, fmt.Errorf("--%s expects an integer, got %v", names[0], n)
	}
	return int(n), nil
}

// Bool reports whether the first present name is truthy. Bare flags are true;
// strings are read with strconv.ParseBool plus "yes"/"no".
func (a Args) Bool(names ...string) bool {
	v, ok := a.Lookup(names...)
	if !ok {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Num != 0
	case KindString:
		s := strings.ToLower(strings.TrimSpace(v.Str))
		if s == "yes" || s == "y" {
			return true
		}
		b, _ := strconv.ParseBool(s)
		return b
	default:
		return len(v.List) > 0
	}
}

// Positional returns the bare tokens of the stage, in source order.
func (a Args) Positional() []string {
	v, ok := a[PositionalKey]
	if !ok || v.Kind != KindList {
		return []string{}
	}
	out := make([]string, len(v.List))
	copy(out, v.List)
	return out
}

// Map returns the arguments as plain Go values.
func (a Args) Map() map[string]any {
	m := make(map[string]any, len(a))
	for k, v := range a {
		m[k] = v.Interface()
	}
	return m
}

// Decode fills out (a pointer to a struct) from the arguments using
// mapstructure tags. Input is weakly typed so "3" decodes into an int field and
// "true" into a bool field.
func (a Args) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to build argument decoder: %w", err)
	}
	if err := dec.Decode(a.Map()); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
