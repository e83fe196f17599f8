// Package production provides production integrations for the engine:
// snapshot persistence, graph visualization, and observer implementations
// wired to structured logging, Prometheus and OpenTelemetry.
package production

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/comalice/rafcore/internal/core"
)

// JSONPersister writes core.Snapshot values as one JSON file per machine.
type JSONPersister struct {
	dir string
}

func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) Save(machineID string, snapshot core.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	fn := filepath.Join(p.dir, machineID+".json")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func (p *JSONPersister) Load(machineID string) (core.Snapshot, error) {
	fn := filepath.Join(p.dir, machineID+".json")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Snapshot{}, fmt.Errorf("machine %q: %w", machineID, os.ErrNotExist)
		}
		return core.Snapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	return snap, nil
}

// YAMLPersister is the YAML-serialized counterpart to JSONPersister.
type YAMLPersister struct {
	dir string
}

func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) Save(machineID string, snapshot core.Snapshot) error {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	fn := filepath.Join(p.dir, machineID+".yaml")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func (p *YAMLPersister) Load(machineID string) (core.Snapshot, error) {
	fn := filepath.Join(p.dir, machineID+".yaml")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Snapshot{}, fmt.Errorf("machine %q: %w", machineID, os.ErrNotExist)
		}
		return core.Snapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}
	var snap core.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return snap, nil
}

// SnapshotObserver persists a fresh snapshot of root on every change it is
// notified of, whatever its kind (the subscription picks the kinds),
// fire-and-forget so a slow or
// failing write never blocks the state run that triggered it.
type SnapshotObserver struct {
	machineID string
	root      func() core.State
	save      func(machineID string, snap core.Snapshot) error
}

func NewSnapshotObserver(machineID string, root func() core.State, save func(string, core.Snapshot) error) *SnapshotObserver {
	return &SnapshotObserver{machineID: machineID, root: root, save: save}
}

func (o *SnapshotObserver) Notify(core.Change) {
	go func() {
		_ = o.save(o.machineID, core.BuildSnapshot(o.root()))
	}()
}
