package demux

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ifworker/ifworker/pkg/inventory"
)

func TestResolveKnownIDAdvancesSeqno(t *testing.T) {
	d := New()
	id := uuid.New()
	d.Track(id, 3)

	if d.Seqno() != 0 {
		t.Fatalf("Seqno() = %d before any resolution, want 0", d.Seqno())
	}

	c, ok := d.Resolve(id, nil)
	if !ok {
		t.Fatalf("Resolve() ok = false, want true for a tracked id")
	}
	if c.WorkerIndex != 3 {
		t.Fatalf("WorkerIndex = %d, want 3", c.WorkerIndex)
	}
	if d.Seqno() != 1 {
		t.Fatalf("Seqno() = %d after resolution, want 1", d.Seqno())
	}
}

func TestResolveUnknownIDIsDroppedWithoutAdvancingSeqno(t *testing.T) {
	d := New()
	_, ok := d.Resolve(uuid.New(), nil)
	if ok {
		t.Fatalf("Resolve() ok = true for an untracked id, want false")
	}
	if d.Seqno() != 0 {
		t.Fatalf("Seqno() = %d, want 0: an unknown completion must not advance the sequence", d.Seqno())
	}
}

func TestResolveIsOneShot(t *testing.T) {
	d := New()
	id := uuid.New()
	d.Track(id, 1)
	d.Resolve(id, nil)

	if _, ok := d.Resolve(id, nil); ok {
		t.Fatalf("a second Resolve() of the same id should report ok = false")
	}
}

func TestResolvePropagatesError(t *testing.T) {
	d := New()
	id := uuid.New()
	d.Track(id, 2)
	want := errors.New("remote failed")

	c, ok := d.Resolve(id, want)
	if !ok || c.Err != want {
		t.Fatalf("Resolve() = (%+v, %v), want Err = %v", c, ok, want)
	}
}

func TestApplyInventoryResolvesAndAdvancesSeqno(t *testing.T) {
	d := New()
	lookup := func(name string) (int, bool) {
		if name == "eth0" {
			return 4, true
		}
		return 0, false
	}

	o, ok := d.ApplyInventory(inventory.Change{Name: "eth0", Kind: inventory.LinkChanged}, lookup)
	if !ok || o.WorkerIndex != 4 {
		t.Fatalf("ApplyInventory() = (%+v, %v), want index 4", o, ok)
	}
	if d.Seqno() != 1 {
		t.Fatalf("Seqno() = %d, want 1", d.Seqno())
	}
}

func TestApplyInventoryUnknownNameStillAdvancesSeqno(t *testing.T) {
	d := New()
	lookup := func(string) (int, bool) { return 0, false }

	_, ok := d.ApplyInventory(inventory.Change{Name: "ghost"}, lookup)
	if ok {
		t.Fatalf("ApplyInventory() ok = true for an unknown device, want false")
	}
	if d.Seqno() != 1 {
		t.Fatalf("Seqno() = %d, want 1: the event sequence still advances even when no worker matches", d.Seqno())
	}
}

func TestForgetEvictsWithoutAdvancingSeqno(t *testing.T) {
	d := New()
	id := uuid.New()
	d.Track(id, 1)

	d.Forget(id)

	if d.Seqno() != 0 {
		t.Fatalf("Seqno() = %d, want 0: Forget must not bump the event sequence", d.Seqno())
	}
	if _, ok := d.Resolve(id, nil); ok {
		t.Fatalf("a forgotten id must resolve as unknown")
	}
}

func TestCancelDiscardsAllPending(t *testing.T) {
	d := New()
	d.Track(uuid.New(), 1)
	d.Track(uuid.New(), 2)
	if d.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", d.Pending())
	}
	d.Cancel()
	if d.Pending() != 0 {
		t.Fatalf("Pending() = %d after Cancel(), want 0", d.Pending())
	}
}
