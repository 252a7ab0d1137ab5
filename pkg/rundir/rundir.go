// Package rundir persists one ifworkerd run's lock and status snapshot
// to disk, so a separate ifworkerctl process can attach to a
// still-running engine and a restarted one can detect a stale lock.
package rundir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ifworker/ifworker/pkg/failure"
	"github.com/ifworker/ifworker/pkg/util"
)

// WorkerSnapshot is one worker's status at the moment State was saved.
type WorkerSnapshot struct {
	Name        string    `json:"name"`
	State       string    `json:"state"`
	Done        bool      `json:"done"`
	Failed      bool      `json:"failed"`
	FailureKind util.Kind `json:"failure_kind,omitempty"`
	LastAction  string    `json:"last_action,omitempty"`
}

// State is persisted to ~/.ifworker/run/<name>/state.json.
type State struct {
	Name     string            `json:"name"`
	PID      int               `json:"pid"`
	Started  time.Time         `json:"started"`
	Updated  time.Time         `json:"updated"`
	Finished time.Time         `json:"finished,omitempty"`
	Workers  []WorkerSnapshot  `json:"workers,omitempty"`
}

// Dir returns the run directory for a named run.
func Dir(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("rundir: user home dir: %w", err)
	}
	return filepath.Join(home, ".ifworker", "run", name), nil
}

// Save writes state.json into the run's directory, creating it if
// necessary.
func Save(s *State) error {
	s.Updated = time.Now()
	dir, err := Dir(s.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("rundir: create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("rundir: marshal state: %w", err)
	}
	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("rundir: write %s: %w", path, err)
	}
	return nil
}

// Load reads a named run's state.json. It returns (nil, nil) if no such
// run has ever been saved.
func Load(name string) (*State, error) {
	dir, err := Dir(name)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "state.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("rundir: read %s: %w", path, err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("rundir: parse %s: %w", path, err)
	}
	return &s, nil
}

// Remove deletes a named run's entire directory.
func Remove(name string) error {
	dir, err := Dir(name)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// AcquireLock refuses to start a run if an existing state.json names a
// PID that is still alive, then claims the lock under this process's
// PID.
func AcquireLock(s *State) error {
	existing, err := Load(s.Name)
	if err != nil {
		return err
	}
	if existing != nil && existing.PID != 0 && IsProcessAlive(existing.PID) {
		return fmt.Errorf("rundir: run %s already active (pid %d)", s.Name, existing.PID)
	}
	s.PID = os.Getpid()
	return Save(s)
}

// ReleaseLock clears the PID and persists the final state.
func ReleaseLock(s *State) error {
	s.PID = 0
	return Save(s)
}

// IsProcessAlive reports whether a process with the given PID exists.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

// Snapshot converts a scheduler's dispositions into the persisted
// worker-snapshot shape.
func Snapshot(dispositions []failure.Disposition, stateOf func(workerIndex int) string) []WorkerSnapshot {
	out := make([]WorkerSnapshot, len(dispositions))
	for i, d := range dispositions {
		out[i] = WorkerSnapshot{
			Name:        d.Name,
			State:       stateOf(d.WorkerIndex),
			Done:        d.Done,
			Failed:      d.Failed,
			FailureKind: d.Kind,
			LastAction:  d.LastAction,
		}
	}
	return out
}
