package stdlib

import (
	"github.com/aretw0/lobster/pkg/adapters/process"
	"github.com/aretw0/lobster/pkg/registry"
)

// Register adds every stdlib command to reg. exec runs subprocesses for the
// exec command.
func Register(reg *registry.Registry, exec process.Executor) {
	reg.Register("exec", Exec(exec))
	reg.Register("approve", Approve())
	reg.Register("pick", Pick())
	reg.Register("head", Head())
	reg.Register("where", Where())
	reg.Register("json", JSON())
	reg.Register("state.get", StateGet())
	reg.Register("state.set", StateSet())
	reg.Register("state.diff", StateDiff())
}
