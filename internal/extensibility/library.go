package extensibility

import (
	"fmt"
	"os"
	"sync"

	"github.com/comalice/rafcore/internal/core"
)

// LibraryResolver looks up a pre-loaded inner state tree by a library path
// such as "common/wait_state", the same reference a LibraryState's Inner
// is resolved from when the tree is assembled.
type LibraryResolver interface {
	Resolve(libraryPath string) (core.State, error)
}

// InMemoryLibraryRegistry is a LibraryResolver backed by a plain map,
// suitable for tests and for a CLI that pre-registers a fixed set of
// reusable state trees at startup.
type InMemoryLibraryRegistry struct {
	mu    sync.RWMutex
	trees map[string]core.State
}

func NewInMemoryLibraryRegistry() *InMemoryLibraryRegistry {
	return &InMemoryLibraryRegistry{trees: map[string]core.State{}}
}

func (r *InMemoryLibraryRegistry) Register(libraryPath string, root core.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trees[libraryPath] = root
}

func (r *InMemoryLibraryRegistry) Resolve(libraryPath string) (core.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.trees[libraryPath]
	if !ok {
		return nil, fmt.Errorf("library %q is not registered", libraryPath)
	}
	return s, nil
}

// EnvPathLibraryRegistry wraps an inner resolver and, on a miss, reports
// whether RAFCORE_LIB_PATH is set so a caller assembling the tree can hint
// the operator at a filesystem location to load additional libraries from.
// Loading library definitions off disk is out of scope for the core engine;
// this only surfaces the environment variable in the error message.
type EnvPathLibraryRegistry struct {
	inner LibraryResolver
}

func NewEnvPathLibraryRegistry(inner LibraryResolver) *EnvPathLibraryRegistry {
	return &EnvPathLibraryRegistry{inner: inner}
}

func (r *EnvPathLibraryRegistry) Resolve(libraryPath string) (core.State, error) {
	s, err := r.inner.Resolve(libraryPath)
	if err == nil {
		return s, nil
	}
	if root := os.Getenv("RAFCORE_LIB_PATH"); root != "" {
		return nil, fmt.Errorf("library %q not registered (searched RAFCORE_LIB_PATH=%s): %w", libraryPath, root, err)
	}
	return nil, err
}
