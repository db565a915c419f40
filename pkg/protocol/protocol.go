// Package protocol defines the execution-protocol contract (spec.md
// §6) and a static name→Protocol registry, grounded on this
// repository's mutex-guarded tool registry (see pkg/tools/manager.go
// in the teacher, and DESIGN.md).
package protocol

import (
	"context"
	"fmt"
	"sync"

	"github.com/strata-build/strata/pkg/workflow"
)

// Protocol is the contract every execution backend implements.
type Protocol interface {
	Name() string
	CmdsRequired() bool
	Run(ctx context.Context, step workflow.MaterializedStep) error
}

var (
	mu       sync.Mutex
	registry = make(map[string]Protocol)
)

// Register adds a protocol to the process-wide registry. Intended to
// be called from package init() for the three default protocols, or
// by a caller wiring in a custom one.
func Register(p Protocol) {
	mu.Lock()
	defer mu.Unlock()
	registry[p.Name()] = p
}

// Lookup resolves a protocol name, defaulting to "shell" when empty.
func Lookup(name string) (Protocol, error) {
	if name == "" {
		name = "shell"
	}
	mu.Lock()
	defer mu.Unlock()
	p, ok := registry[name]
	if !ok {
		return nil, workflow.NewInvalidArgument(fmt.Sprintf("protocol %q", name))
	}
	return p, nil
}

func init() {
	Register(NewShellProtocol())
	Register(NewEvaluatorProtocol())
	Register(NewContainerProtocol())
}
