package workflows

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/schema"
)

// RunFunc executes a workflow with decoded arguments.
type RunFunc func(ctx context.Context, args domain.Args, rc ports.RunContext) ([]domain.Item, error)

// Example is a documented invocation of a workflow.
type Example struct {
	Args        map[string]any `json:"args" yaml:"args"`
	Description string         `json:"description" yaml:"description"`
}

// Workflow is a named entry of the catalog.
type Workflow struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	ArgsSchema  domain.ArgSchema `json:"argsSchema" yaml:"argsSchema"`
	Examples    []Example        `json:"examples" yaml:"examples"`
	SideEffects []string         `json:"sideEffects" yaml:"sideEffects"`
	Run         RunFunc          `json:"-" yaml:"-"`
}

// Catalog holds workflows by name.
type Catalog struct {
	mu        sync.RWMutex
	workflows map[string]Workflow
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{workflows: make(map[string]Workflow)}
}

// Add registers w, replacing any workflow with the same name.
func (c *Catalog) Add(w Workflow) {
	if w.Name == "" {
		panic("workflows: empty workflow name")
	}
	if w.Examples == nil {
		w.Examples = []Example{}
	}
	if w.SideEffects == nil {
		w.SideEffects = []string{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workflows[w.Name] = w
}

// Get looks a workflow up by name.
func (c *Catalog) Get(name string) (Workflow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.workflows[name]
	return w, ok
}

// List returns every workflow sorted by name.
func (c *Catalog) List() []Workflow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Workflow, 0, len(c.workflows))
	for _, w := range c.workflows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run executes the named workflow.
func (c *Catalog) Run(ctx context.Context, name string, args domain.Args, rc ports.RunContext) ([]domain.Item, error) {
	w, ok := c.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown workflow: %s", name)
	}
	if w.Run == nil {
		return nil, fmt.Errorf("workflow runner not implemented: %s", name)
	}
	argsSchema, err := schema.Compile(w.ArgsSchema)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: %w", name, err)
	}
	if err := argsSchema.Validate(args); err != nil {
		return nil, fmt.Errorf("workflow %s: %w", name, err)
	}
	return w.Run(ctx, args, rc)
}
