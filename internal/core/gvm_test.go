package core

import (
	"errors"
	"testing"

	"github.com/comalice/rafcore/internal/primitives"
)

func TestGlobalVariableStoreSetGet(t *testing.T) {
	g := NewGlobalVariableStore()
	if g.VariableExists("x") {
		t.Fatal("x should not exist yet")
	}
	if err := g.Set("x", primitives.IntValue(1), ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !g.VariableExists("x") {
		t.Fatal("x should exist after Set")
	}
	v, ok := g.Get("x")
	if !ok || v.Int != 1 {
		t.Fatalf("Get: got %+v, %v", v, ok)
	}
}

func TestGlobalVariableStoreDeleteThenNull(t *testing.T) {
	g := NewGlobalVariableStore()
	if err := g.Set("y", primitives.StringValue("hi"), ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := g.Delete("y", ""); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if g.VariableExists("y") {
		t.Fatal("y should not exist after Delete")
	}
	v, ok := g.Get("y")
	if ok {
		t.Fatal("Get should report missing after Delete")
	}
	if !v.IsNull() {
		t.Fatal("Get should return Null after Delete")
	}
}

func TestGlobalVariableStoreLocking(t *testing.T) {
	g := NewGlobalVariableStore()
	if err := g.Lock("z", "holder-a"); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := g.Set("z", primitives.IntValue(5), "holder-b"); !errors.Is(err, primitives.ErrLocked) {
		t.Fatalf("expected ErrLocked from wrong-key Set, got %v", err)
	}
	if err := g.Set("z", primitives.IntValue(5), "holder-a"); err != nil {
		t.Fatalf("owner Set should succeed: %v", err)
	}
	if err := g.Unlock("z", "holder-b"); !errors.Is(err, primitives.ErrLocked) {
		t.Fatalf("expected ErrLocked from wrong-key Unlock, got %v", err)
	}
	if err := g.Unlock("z", "holder-a"); err != nil {
		t.Fatalf("owner Unlock should succeed: %v", err)
	}
	if err := g.Set("z", primitives.IntValue(9), "anyone"); err != nil {
		t.Fatalf("Set after Unlock should succeed for any key: %v", err)
	}
}

func TestGlobalVariableStoreUnlockUnlockedIsNoop(t *testing.T) {
	g := NewGlobalVariableStore()
	if err := g.Unlock("never-set", "whoever"); err != nil {
		t.Fatalf("Unlock of never-locked var should be a no-op: %v", err)
	}
}

func TestGlobalVariableStoreDeleteMissingIsNoop(t *testing.T) {
	g := NewGlobalVariableStore()
	if err := g.Delete("never-set", ""); err != nil {
		t.Fatalf("Delete of missing var should be a no-op: %v", err)
	}
}
