package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
)

// Registry manages the available commands.
// A Registry is built once per process and passed to the runtime explicitly;
// there is no package-level registry.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]ports.Command
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		commands: make(map[string]ports.Command),
	}
}

// Register adds a command to the registry.
// If a command with the same name exists, it is overwritten (last write wins).
func (r *Registry) Register(name string, cmd ports.Command) {
	if name == "" {
		panic("registry: empty command name")
	}
	if cmd == nil {
		panic(fmt.Sprintf("registry: nil command for %q", name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = cmd
}

// Resolve looks up a command by name.
// Returns domain.ErrCommandNotFound if the name is not registered.
func (r *Registry) Resolve(name string) (ports.Command, error) {
	r.mu.RLock()
	cmd, ok := r.commands[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCommandNotFound, name)
	}
	return cmd, nil
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns metadata for every registered command, sorted by name.
func (r *Registry) Describe() []domain.CommandInfo {
	names := r.Names()
	infos := make([]domain.CommandInfo, 0, len(names))
	for _, name := range names {
		cmd, err := r.Resolve(name)
		if err != nil {
			continue
		}
		infos = append(infos, Info(name, cmd))
	}
	return infos
}

// Help returns the help text of a command, falling back to its description.
func (r *Registry) Help(name string) (string, error) {
	cmd, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	return help(name, cmd), nil
}

func help(name string, cmd ports.Command) string {
	if h, ok := cmd.(ports.Helper); ok && h.Help() != "" {
		return h.Help()
	}
	info := Info(name, cmd)
	if info.Description != "" {
		return name + " - " + info.Description + "\n"
	}
	return name + "\n"
}

// Info collects the optional metadata a command exposes.
func Info(name string, cmd ports.Command) domain.CommandInfo {
	info := domain.CommandInfo{Name: name}
	if d, ok := cmd.(ports.Describer); ok {
		info.Description = d.Description()
	}
	if s, ok := cmd.(ports.SchemaProvider); ok {
		info.Schema = s.Schema()
	}
	return info
}

// View is a read-only subset of a Registry. Commands rejected by the filter
// resolve as not found. Commands registered later are seen by the view.
type View struct {
	reg   *Registry
	allow func(name string, cmd ports.Command) bool
}

// View returns the subset of r for which allow reports true.
func (r *Registry) View(allow func(name string, cmd ports.Command) bool) *View {
	return &View{reg: r, allow: allow}
}

// Resolve looks up a command visible through the view.
func (v *View) Resolve(name string) (ports.Command, error) {
	cmd, err := v.reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	if !v.allow(name, cmd) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCommandNotFound, name)
	}
	return cmd, nil
}

// Describe returns metadata for the visible commands, sorted by name.
func (v *View) Describe() []domain.CommandInfo {
	var infos []domain.CommandInfo
	for _, name := range v.reg.Names() {
		if cmd, err := v.Resolve(name); err == nil {
			infos = append(infos, Info(name, cmd))
		}
	}
	return infos
}

// Help returns the help text of a visible command.
func (v *View) Help(name string) (string, error) {
	cmd, err := v.Resolve(name)
	if err != nil {
		return "", err
	}
	return help(name, cmd), nil
}
