package extensibility

import (
	"os"
	"strings"
	"testing"

	"github.com/comalice/rafcore/internal/core"
)

func TestInMemoryLibraryRegistryRegisterResolve(t *testing.T) {
	reg := NewInMemoryLibraryRegistry()
	root := core.NewHierarchyState("lib-root", "lib-root", "")
	reg.Register("common/wait", root)

	got, err := reg.Resolve("common/wait")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.StateID() != "lib-root" {
		t.Fatalf("expected to resolve lib-root, got %s", got.StateID())
	}
}

func TestInMemoryLibraryRegistryMissResolveErrors(t *testing.T) {
	reg := NewInMemoryLibraryRegistry()
	if _, err := reg.Resolve("nope"); err == nil {
		t.Fatal("expected an error resolving an unregistered library")
	}
}

func TestEnvPathLibraryRegistryPassesThroughHit(t *testing.T) {
	reg := NewInMemoryLibraryRegistry()
	root := core.NewHierarchyState("lib-root", "lib-root", "")
	reg.Register("common/wait", root)
	wrapped := NewEnvPathLibraryRegistry(reg)

	got, err := wrapped.Resolve("common/wait")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.StateID() != "lib-root" {
		t.Fatalf("expected to resolve lib-root, got %s", got.StateID())
	}
}

func TestEnvPathLibraryRegistryMentionsEnvVarOnMiss(t *testing.T) {
	t.Setenv("RAFCORE_LIB_PATH", "/opt/libraries")
	wrapped := NewEnvPathLibraryRegistry(NewInMemoryLibraryRegistry())

	_, err := wrapped.Resolve("missing")
	if err == nil {
		t.Fatal("expected an error resolving a missing library")
	}
	if !strings.Contains(err.Error(), "/opt/libraries") {
		t.Fatalf("expected the error to mention the configured path, got: %v", err)
	}
}

func TestEnvPathLibraryRegistryNoEnvVarSet(t *testing.T) {
	os.Unsetenv("RAFCORE_LIB_PATH")
	wrapped := NewEnvPathLibraryRegistry(NewInMemoryLibraryRegistry())

	_, err := wrapped.Resolve("missing")
	if err == nil {
		t.Fatal("expected an error resolving a missing library")
	}
}
