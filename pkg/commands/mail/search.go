package mail

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aretw0/lobster/pkg/adapters/process"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
)

// DefaultQuery is searched when --query is omitted.
const DefaultQuery = "newer_than:1d"

// Search runs gog gmail search and returns one item per message or thread.
func (g *Gog) Search(ctx context.Context, rc ports.RunContext, query string, max int) ([]domain.Item, error) {
	res, err := g.run(ctx, rc, "gmail", "search", query, "--json", "--max", strconv.Itoa(max))
	if err != nil {
		return nil, fmt.Errorf("gog.gmail.search failed: %w", err)
	}
	parsed, err := process.ParseJSON("gog.gmail.search", res.Stdout)
	if err != nil {
		return nil, err
	}
	return flattenThreads(parsed), nil
}

// flattenThreads accepts the output shapes gog has used: a bare array, an
// object with a threads array, or an array of such objects.
func flattenThreads(v any) []domain.Item {
	switch t := v.(type) {
	case []any:
		items := []domain.Item{}
		for _, el := range t {
			if threads, ok := threadsOf(el); ok {
				items = append(items, threads...)
				continue
			}
			items = append(items, el)
		}
		return items
	default:
		if threads, ok := threadsOf(t); ok {
			return threads
		}
		return []domain.Item{t}
	}
}

func threadsOf(v any) ([]domain.Item, bool) {
	rec, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	threads, ok := rec["threads"].([]any)
	if !ok {
		return nil, false
	}
	return threads, true
}

// SearchCommand wraps Gog.Search as a pipeline source.
func SearchCommand(g *Gog) ports.CommandDef {
	return ports.CommandDef{
		Summary: "fetch Gmail messages via gog (JSON)",
		HelpText: "gog.gmail.search - fetch Gmail messages via gog\n\n" +
			"Usage:\n  gog.gmail.search --query 'newer_than:1d' --max 20\n\n" +
			"Set GOG_BIN to override the executable (default: gog).\n",
		Args: domain.ArgSchema{Args: []domain.ArgSpec{
			{Name: "query", Type: "string", Description: "Gmail search query (default newer_than:1d)"},
			{Name: "max", Type: "number", Description: "maximum results (default 20)"},
		}},
		Fn: func(ctx context.Context, input domain.Stream, args domain.Args, rc ports.RunContext) (ports.Output, error) {
			query := args.String(DefaultQuery, "query")
			max, err := args.Int(20, "max", "limit")
			if err != nil {
				return ports.Output{}, err
			}
			if err := domain.Discard(ctx, input); err != nil {
				return ports.Output{}, err
			}
			items, err := g.Search(ctx, rc, query, max)
			if err != nil {
				return ports.Output{}, err
			}
			return ports.Output{Stream: domain.FromSlice(items)}, nil
		},
	}
}
