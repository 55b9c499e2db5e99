package stdlib

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/lobster/internal/logging"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
)

// Pick keeps only the listed fields of object items.
func Pick() ports.CommandDef {
	return ports.CommandDef{
		Summary:  "keep only the listed fields of object items",
		HelpText: "pick - keep only the listed fields of object items\n\nUsage:\n  pick number,title,url\n  pick --fields number,title\n\nNon-object items pass through unchanged.\n",
		Args: domain.ArgSchema{Args: []domain.ArgSpec{
			{Name: "_", Type: "array", Description: "field names (comma or space separated)"},
			{Name: "fields", Type: "string", Description: "comma-separated field names"},
		}},
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			fields := splitFields(append(args.Positional(), args.String("", "fields")))
			if len(fields) == 0 {
				return ports.Output{}, fmt.Errorf("pick requires at least one field")
			}

			return ports.Output{Stream: domain.Map(input, func(ctx context.Context, item domain.Item) (domain.Item, error) {
				rec, ok := record(item)
				if !ok {
					return item, nil
				}
				out := make(map[string]any, len(fields))
				for _, f := range fields {
					if v, ok := rec[f]; ok {
						out[f] = v
					}
				}
				return out, nil
			})}, nil
		},
	}
}

// Head passes the first N items and drains the rest.
func Head() ports.CommandDef {
	return ports.CommandDef{
		Summary:  "pass the first N items (default 10)",
		HelpText: "head - pass the first N items\n\nUsage:\n  head [--n 10]\n  head 3\n",
		Args: domain.ArgSchema{Args: []domain.ArgSpec{
			{Name: "n", Type: "number", Description: "number of items (default 10)"},
		}},
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			n, err := args.Int(10, "n")
			if err != nil {
				return ports.Output{}, err
			}
			if pos := args.Positional(); len(pos) > 0 && !args.Has("n") {
				if n, err = strconv.Atoi(pos[0]); err != nil {
					return ports.Output{}, fmt.Errorf("head expects a number, got %q", pos[0])
				}
			}

			seen := 0
			return ports.Output{Stream: domain.StreamFunc(func(ctx context.Context) (domain.Item, error) {
				if seen >= n {
					if err := domain.Discard(ctx, input); err != nil {
						return nil, err
					}
					return nil, io.EOF
				}
				item, err := input.Next(ctx)
				if err != nil {
					return nil, err
				}
				seen++
				return item, nil
			})}, nil
		},
	}
}

// Where keeps items whose fields match every condition.
func Where() ports.CommandDef {
	return ports.CommandDef{
		Summary:  "keep object items whose fields match (field=value, field!=value)",
		HelpText: "where - filter object items by field value\n\nUsage:\n  where state=OPEN\n  where author.login=octocat isDraft!=true\n\nValues are compared by their text form; all conditions must hold.\n",
		Args: domain.ArgSchema{Args: []domain.ArgSpec{
			{Name: "_", Type: "array", Description: "conditions: path=value or path!=value"},
		}},
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			conds, err := parseConditions(args.Positional())
			if err != nil {
				return ports.Output{}, err
			}
			return ports.Output{Stream: domain.Filter(input, func(item domain.Item) bool {
				for _, c := range conds {
					if !c.match(item) {
						return false
					}
				}
				return true
			})}, nil
		},
	}
}

// JSON encodes the collected items as text.
func JSON() ports.CommandDef {
	return ports.CommandDef{
		Summary:  "encode items as JSON text",
		HelpText: "json - encode items as JSON text\n\nUsage:\n  json            one indented array\n  json --compact  one single-line array\n  json --lines    one JSON line per item\n",
		Args: domain.ArgSchema{Args: []domain.ArgSpec{
			{Name: "compact", Type: "boolean"},
			{Name: "lines", Type: "boolean"},
		}},
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			if args.Bool("lines") {
				return ports.Output{Stream: domain.Map(input, func(ctx context.Context, item domain.Item) (domain.Item, error) {
					data, err := json.Marshal(item)
					if err != nil {
						return nil, fmt.Errorf("json: %w", err)
					}
					return string(data), nil
				})}, nil
			}

			compact := args.Bool("compact")
			return ports.Output{Stream: domain.Defer(func(ctx context.Context) (domain.Stream, error) {
				items, err := domain.Collect(ctx, input)
				if err != nil {
					return nil, err
				}
				var data []byte
				if compact {
					data, err = json.Marshal(items)
				} else {
					data, err = json.MarshalIndent(items, "", "  ")
				}
				if err != nil {
					return nil, fmt.Errorf("json: %w", err)
				}
				return domain.Of(string(data)), nil
			})}, nil
		},
	}
}

type condition struct {
	path   []string
	value  string
	negate bool
}

func parseConditions(words []string) ([]condition, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("where requires at least one condition (field=value)")
	}
	conds := make([]condition, 0, len(words))
	for _, w := range words {
		c := condition{}
		field, value, ok := strings.Cut(w, "!=")
		if ok {
			c.negate = true
		} else if field, value, ok = strings.Cut(w, "="); !ok {
			return nil, fmt.Errorf("where: malformed condition %q (want field=value)", w)
		}
		if field == "" {
			return nil, fmt.Errorf("where: empty field in %q", w)
		}
		c.path = strings.Split(field, ".")
		c.value = value
		conds = append(conds, c)
	}
	return conds, nil
}

func (c condition) match(item domain.Item) bool {
	v, found := lookupPath(item, c.path)
	equal := found && textOf(v) == c.value
	if c.negate {
		return !equal
	}
	return equal
}

func lookupPath(item domain.Item, path []string) (any, bool) {
	cur := item
	for _, p := range path {
		rec, ok := record(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = rec[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// record returns item as a JSON object, normalizing structs when needed.
func record(item domain.Item) (map[string]any, bool) {
	if m, ok := item.(map[string]any); ok {
		return m, true
	}
	switch item.(type) {
	case nil, string, bool, float64, int, json.Number, []any:
		return nil, false
	}
	n, err := domain.NormalizeJSON(item)
	if err != nil {
		return nil, false
	}
	m, ok := n.(map[string]any)
	return m, ok
}

func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

func splitFields(words []string) []string {
	var out []string
	for _, w := range words {
		for _, f := range strings.Split(w, ",") {
			if f = strings.TrimSpace(f); f != "" {
				out = append(out, f)
			}
		}
	}
	return out
}

func loggerOf(rc ports.RunContext) *slog.Logger {
	if rc.Logger != nil {
		return rc.Logger
	}
	return logging.NewNop()
}
