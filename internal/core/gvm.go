package core

import (
	"fmt"
	"sync"

	"github.com/comalice/rafcore/internal/primitives"
)

type globalEntry struct {
	mu       sync.Mutex
	value    primitives.Value
	dataType primitives.DataType
	lockedBy string
}

// GlobalVariableStore is the process-wide key/value store every running
// machine shares. Reads never block; each name is individually lockable so
// one writer can reserve it across a read-modify-write sequence without
// blocking unrelated names.
type GlobalVariableStore struct {
	mu   sync.RWMutex
	vars map[string]*globalEntry
}

func NewGlobalVariableStore() *GlobalVariableStore {
	return &GlobalVariableStore{vars: map[string]*globalEntry{}}
}

func (g *GlobalVariableStore) entry(name string, create bool) *globalEntry {
	g.mu.RLock()
	e, ok := g.vars[name]
	g.mu.RUnlock()
	if ok || !create {
		return e
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok = g.vars[name]; ok {
		return e
	}
	e = &globalEntry{}
	g.vars[name] = e
	return e
}

// VariableExists reports whether name currently has an entry in the store:
// it was set or locked and has not been deleted since.
func (g *GlobalVariableStore) VariableExists(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.vars[name]
	return ok
}

// Get reads the current value of name. The second return is false if name
// does not exist.
func (g *GlobalVariableStore) Get(name string) (primitives.Value, bool) {
	e := g.entry(name, false)
	if e == nil {
		return primitives.Null, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, true
}

// Set writes value to name, creating it if necessary. key must match the
// variable's current lock holder, or the variable must be unlocked, or
// this is an error of kind Locked.
func (g *GlobalVariableStore) Set(name string, value primitives.Value, key string) error {
	e := g.entry(name, true)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lockedBy != "" && e.lockedBy != key {
		return primitives.NewStructuralError(primitives.KindLocked, "Set", fmt.Sprintf("global variable %q is locked", name))
	}
	e.value = value
	e.dataType = value.Type
	return nil
}

// Delete removes name entirely. Subject to the same lock check as Set.
func (g *GlobalVariableStore) Delete(name string, key string) error {
	e := g.entry(name, false)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	if e.lockedBy != "" && e.lockedBy != key {
		e.mu.Unlock()
		return primitives.NewStructuralError(primitives.KindLocked, "Delete", fmt.Sprintf("global variable %q is locked", name))
	}
	e.mu.Unlock()
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.vars, name)
	return nil
}

// Lock reserves name for key, the only caller allowed to Set/Delete/Unlock
// it until Unlock is called with the same key. Locking an already-locked
// variable with a different key fails with Locked.
func (g *GlobalVariableStore) Lock(name, key string) error {
	e := g.entry(name, true)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lockedBy != "" && e.lockedBy != key {
		return primitives.NewStructuralError(primitives.KindLocked, "Lock", fmt.Sprintf("global variable %q is already locked", name))
	}
	e.lockedBy = key
	return nil
}

// Unlock releases name's lock. Unlocking with the wrong key fails with
// Locked; unlocking an unlocked variable is a no-op.
func (g *GlobalVariableStore) Unlock(name, key string) error {
	e := g.entry(name, false)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lockedBy == "" {
		return nil
	}
	if e.lockedBy != key {
		return primitives.NewStructuralError(primitives.KindLocked, "Unlock", fmt.Sprintf("global variable %q is locked by another holder", name))
	}
	e.lockedBy = ""
	return nil
}
