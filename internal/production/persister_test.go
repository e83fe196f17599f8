package production

import (
	"errors"
	"os"
	"testing"

	"github.com/comalice/rafcore/internal/core"
)

func sampleSnapshot() core.Snapshot {
	outcome := 0
	return core.Snapshot{
		ID:           "root",
		Name:         "root",
		Kind:         "hierarchy",
		Status:       "inactive",
		FinalOutcome: &outcome,
	}
}

func TestJSONPersisterSaveLoadRoundTrip(t *testing.T) {
	p, err := NewJSONPersister(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONPersister: %v", err)
	}
	want := sampleSnapshot()
	if err := p.Save("m1", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := p.Load("m1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ID != want.ID || got.Kind != want.Kind || *got.FinalOutcome != *want.FinalOutcome {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestJSONPersisterLoadMissingIsNotExist(t *testing.T) {
	p, err := NewJSONPersister(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONPersister: %v", err)
	}
	_, err = p.Load("nope")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestYAMLPersisterSaveLoadRoundTrip(t *testing.T) {
	p, err := NewYAMLPersister(t.TempDir())
	if err != nil {
		t.Fatalf("NewYAMLPersister: %v", err)
	}
	want := sampleSnapshot()
	if err := p.Save("m1", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := p.Load("m1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ID != want.ID || got.Kind != want.Kind {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestSnapshotObserverSavesOnNotify(t *testing.T) {
	done := make(chan struct{})
	var savedID string
	o := NewSnapshotObserver("m1", func() core.State {
		return core.NewHierarchyState("root", "root", "")
	}, func(machineID string, snap core.Snapshot) error {
		savedID = machineID
		close(done)
		return nil
	})
	o.Notify(core.Change{Kind: core.EventOutcome})
	<-done
	if savedID != "m1" {
		t.Fatalf("expected save callback for m1, got %q", savedID)
	}
}
