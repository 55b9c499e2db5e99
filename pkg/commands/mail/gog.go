package mail

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/aretw0/lobster/pkg/adapters/process"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/registry"
)

const (
	// DefaultBin is the executable used when GOG_BIN is unset.
	DefaultBin = "gog"
	// EnvBin overrides the gog executable.
	EnvBin = "GOG_BIN"
)

// Gog runs gog subcommands.
type Gog struct {
	exec process.Executor
}

// NewGog creates a gog client that runs through exec.
func NewGog(exec process.Executor) *Gog {
	return &Gog{exec: exec}
}

func (g *Gog) run(ctx context.Context, rc ports.RunContext, argv ...string) (process.Result, error) {
	bin := rc.Getenv(EnvBin, DefaultBin)
	res, err := g.exec.Run(ctx, process.Invocation{Command: bin, Args: argv, Env: rc.Env})
	if errors.Is(err, exec.ErrNotFound) {
		return res, fmt.Errorf("%s not found on PATH (install gog or set %s)", bin, EnvBin)
	}
	return res, err
}

// Register adds gog.gmail.search, gog.gmail.send and email.triage to reg.
func Register(reg *registry.Registry, exec process.Executor) {
	g := NewGog(exec)
	reg.Register("gog.gmail.search", SearchCommand(g))
	reg.Register("gog.gmail.send", SendCommand(g))
	reg.Register("email.triage", TriageCommand())
}
