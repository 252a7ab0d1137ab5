// Package demux is the scheduler's event demultiplexer: it matches
// inbound bus completions against the worker awaiting them and folds
// inventory deltas into state overrides, bumping the global event
// sequence number pkg/requirement gates its lazy re-evaluation on.
package demux

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ifworker/ifworker/pkg/inventory"
)

// Completion is a resolved callback: the worker that was awaiting it and
// the outcome the bus reported.
type Completion struct {
	WorkerIndex int
	Err         error
}

// Override is an inventory delta translated into a state change the
// scheduler must apply to one worker outside its own plan.
type Override struct {
	WorkerIndex int
	Change      inventory.Change
}

// Demux tracks which worker is awaiting which callback UUID and owns the
// monotonically increasing event sequence number. It implements
// requirement.Context directly so a scheduler can hand it to
// requirement.List.EvaluateAll without adapting it.
type Demux struct {
	mu      sync.Mutex
	seqno   uint64
	pending map[uuid.UUID]int
}

// New returns an empty Demux at seqno 0.
func New() *Demux {
	return &Demux{pending: make(map[uuid.UUID]int)}
}

// Seqno implements requirement.Context.
func (d *Demux) Seqno() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seqno
}

// Track records that workerIndex is awaiting the callback id. The
// scheduler calls this once per pending binding it dispatches
// asynchronously.
func (d *Demux) Track(id uuid.UUID, workerIndex int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[id] = workerIndex
}

// Resolve matches an inbound (uuid, error) completion frame against its
// tracked worker, bumping the event sequence and reporting the
// completion. An unknown id — a late or duplicate delivery — is
// dropped: ok is false and the sequence does not advance.
func (d *Demux) Resolve(id uuid.UUID, err error) (Completion, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx, ok := d.pending[id]
	if !ok {
		return Completion{}, false
	}
	delete(d.pending, id)
	d.seqno++
	return Completion{WorkerIndex: idx, Err: err}, true
}

// ApplyInventory folds an inventory delta into an Override for the
// worker named by the delta, using lookup to resolve a device name to
// its worker index. The event sequence advances even when lookup finds
// no worker for that name; ok is then false.
func (d *Demux) ApplyInventory(change inventory.Change, lookup func(name string) (int, bool)) (Override, bool) {
	idx, ok := lookup(change.Name)
	d.mu.Lock()
	d.seqno++
	d.mu.Unlock()
	if !ok {
		return Override{}, false
	}
	return Override{WorkerIndex: idx, Change: change}, true
}

// Forget discards one tracked callback without resolving it, without
// bumping the event sequence. CheckTimeouts uses this to evict a timed
// out action's abandoned pending ids, so a later, late-arriving
// completion for that id finds nothing tracked and is dropped like any
// other unknown id.
func (d *Demux) Forget(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, id)
}

// Pending reports how many callbacks are currently tracked, for tests
// and for the scheduler's cancellation path, which discards every
// pending callback UUID.
func (d *Demux) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Cancel discards every tracked callback without resolving it; the
// scheduler's Cancel calls it when a run is cancelled.
func (d *Demux) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = make(map[uuid.UUID]int)
}
