package rundir

import (
	"os"
	"testing"

	"github.com/ifworker/ifworker/pkg/failure"
	"github.com/ifworker/ifworker/pkg/util"
)

func withTempHome(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	os.Unsetenv("USERPROFILE")
}

func TestSaveAndLoadRoundTrips(t *testing.T) {
	withTempHome(t)

	s := &State{Name: "eth0-run", PID: 1234}
	if err := Save(s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load("eth0-run")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil || got.PID != 1234 {
		t.Fatalf("Load() = %+v, want PID 1234", got)
	}
}

func TestLoadMissingRunReturnsNilNil(t *testing.T) {
	withTempHome(t)

	got, err := Load("never-saved")
	if err != nil || got != nil {
		t.Fatalf("Load() = (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestAcquireLockRejectsLiveHolder(t *testing.T) {
	withTempHome(t)

	held := &State{Name: "eth0-run", PID: os.Getpid()}
	if err := Save(held); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	contender := &State{Name: "eth0-run"}
	if err := AcquireLock(contender); err == nil {
		t.Fatal("AcquireLock() error = nil, want a conflict error for a live holder")
	}
}

func TestAcquireLockSucceedsOverStalePID(t *testing.T) {
	withTempHome(t)

	stale := &State{Name: "eth0-run", PID: 999999}
	if err := Save(stale); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	s := &State{Name: "eth0-run"}
	if err := AcquireLock(s); err != nil {
		t.Fatalf("AcquireLock() error = %v, want success over a stale pid", err)
	}
	if s.PID != os.Getpid() {
		t.Errorf("PID = %d, want this process's pid", s.PID)
	}
}

func TestReleaseLockClearsPID(t *testing.T) {
	withTempHome(t)

	s := &State{Name: "eth0-run"}
	if err := AcquireLock(s); err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}
	if err := ReleaseLock(s); err != nil {
		t.Fatalf("ReleaseLock() error = %v", err)
	}

	got, err := Load("eth0-run")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.PID != 0 {
		t.Errorf("PID = %d, want 0 after ReleaseLock", got.PID)
	}
}

func TestSnapshotMapsDispositions(t *testing.T) {
	dispositions := []failure.Disposition{
		{WorkerIndex: 0, Name: "eth0", Done: true},
		{WorkerIndex: 1, Name: "eth1", Failed: true, Kind: util.KindTimeout, LastAction: "addrconfUp"},
	}
	stateOf := func(idx int) string {
		if idx == 0 {
			return "addrconf-up"
		}
		return "link-authenticated"
	}

	snaps := Snapshot(dispositions, stateOf)
	if len(snaps) != 2 {
		t.Fatalf("len(snaps) = %d, want 2", len(snaps))
	}
	if snaps[0].Name != "eth0" || snaps[0].State != "addrconf-up" || !snaps[0].Done {
		t.Errorf("snaps[0] = %+v", snaps[0])
	}
	if snaps[1].FailureKind != util.KindTimeout || snaps[1].LastAction != "addrconfUp" {
		t.Errorf("snaps[1] = %+v", snaps[1])
	}
}
