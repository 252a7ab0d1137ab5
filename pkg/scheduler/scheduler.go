// Package scheduler is the single-threaded cooperative executor loop:
// one pass over every worker, parking on unsatisfied requirements or
// preconditions, binding and dispatching actions, advancing state when
// every binding of an action completes.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ifworker/ifworker/pkg/action"
	"github.com/ifworker/ifworker/pkg/binder"
	"github.com/ifworker/ifworker/pkg/demux"
	"github.com/ifworker/ifworker/pkg/failure"
	"github.com/ifworker/ifworker/pkg/graph"
	"github.com/ifworker/ifworker/pkg/inventory"
	"github.com/ifworker/ifworker/pkg/planner"
	"github.com/ifworker/ifworker/pkg/requirement"
	"github.com/ifworker/ifworker/pkg/rpcbus"
	"github.com/ifworker/ifworker/pkg/schema"
	"github.com/ifworker/ifworker/pkg/util"
	"github.com/ifworker/ifworker/pkg/worker"
)

// DefaultTimeout is used whenever a worker carries no per-worker
// Timeout override.
const DefaultTimeout = 20 * time.Second

// Options configures a Scheduler beyond its required collaborators.
type Options struct {
	// DefaultTimeout overrides DefaultTimeout when nonzero.
	DefaultTimeout time.Duration
	// CallOverloading is passed through to every binder.Bind call.
	CallOverloading bool
	// PersistOnError reports whether a failed worker's configuration
	// asked the engine to leave the device as-is rather than bringing
	// it back down. Nil means never persist.
	PersistOnError func(w *worker.Worker) bool
	// Now stands in for time.Now, overridable so tests can simulate
	// timeout expiry without a real clock.
	Now func() time.Time
}

// Scheduler drives one worker graph to its targets via a bus client,
// binder directory and schema engine. All state mutation happens inside
// RunPass, Deliver*, CheckTimeouts, Cancel and BringDownFailed (and
// RunUntilSettled, which calls RunPass); none of them is safe to call
// concurrently with another — running them from a single goroutine is
// the caller's responsibility.
type Scheduler struct {
	Graph  *graph.Graph
	Client rpcbus.Client
	Dir    binder.ObjectDirectory
	Engine schema.Engine
	Demux  *demux.Demux

	opts Options
}

// New builds a Scheduler over an already-constructed graph.Graph. Each
// worker's Target must be set by the caller before the first RunPass;
// the scheduler never infers one.
func New(g *graph.Graph, client rpcbus.Client, dir binder.ObjectDirectory, engine schema.Engine, opts Options) *Scheduler {
	if opts.DefaultTimeout == 0 {
		opts.DefaultTimeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{Graph: g, Client: client, Dir: dir, Engine: engine, Demux: demux.New(), opts: opts}
}

// RunPass runs one scheduling pass over every worker: evaluate
// requirements, check preconditions, bind if needed, dispatch, and
// advance on completion. It returns whether any worker made progress,
// so RunUntilSettled knows when to stop looping.
func (s *Scheduler) RunPass(ctx context.Context) bool {
	progressed := false
	for _, w := range s.Graph.Workers {
		if s.step(ctx, w) {
			progressed = true
		}
	}
	return progressed
}

// RunUntilSettled calls RunPass until a pass makes no progress or
// maxPasses is reached, for deterministic tests driven entirely by a
// synchronous rpcbus.Client such as rpcbus.Fake (no timers or bus
// signals to wait on).
func (s *Scheduler) RunUntilSettled(ctx context.Context, maxPasses int) {
	for i := 0; i < maxPasses; i++ {
		if !s.RunPass(ctx) {
			return
		}
	}
}

func (s *Scheduler) step(ctx context.Context, w *worker.Worker) bool {
	if w.Skip() {
		return false
	}

	if w.Plan == nil && !w.Done {
		planner.Plan(w)
		if w.Done {
			return true
		}
	}

	a := w.NextAction()
	if a == nil {
		w.Done = true
		return true
	}

	switch a.Requirements.EvaluateAll(s.Demux) {
	case requirement.Pending:
		return false
	case requirement.PermanentFailure:
		s.failAndCascade(w, util.KindPreconditionPermanent, a.Behavior.CallName())
		return true
	}

	if ok, _ := s.Graph.PreconditionsMet(w, a.Behavior.CallName()); !ok {
		return false
	}

	if !a.Bound {
		if err := binder.Bind(w, a, s.Dir, s.Engine, s.opts.CallOverloading); err != nil {
			s.failAndCascade(w, util.KindBinding, a.Behavior.CallName())
			return true
		}
	}

	w.LastAction = a.Behavior.CallName()

	if a.AllCallsSkipped() {
		w.Advance()
		return true
	}

	if s.dispatch(ctx, w, a) {
		w.Advance()
		return true
	}
	return w.Failed
}

// dispatch issues every unskipped binding of a in order, recording
// pending callback UUIDs and arming a's deadline for any that come back
// asynchronous. It returns true only if every binding completed
// synchronously with success, meaning the caller should advance state.
func (s *Scheduler) dispatch(ctx context.Context, w *worker.Worker, a *action.Action) bool {
	allSync := true
	for i, b := range a.Bindings() {
		if b.SkipCall {
			continue
		}
		reply, err := s.Client.Call(ctx, a.ObjectPath, b.Service, b.Method, b.Args)
		if err != nil {
			s.failAndCascade(w, util.KindRPC, a.Behavior.CallName())
			return false
		}
		if reply.Completed {
			// A factory call's reply carries the new object path;
			// every subsequent action binds against it.
			if w.ObjectPath == "" {
				if raw, ok := reply.Document.Get("object-path"); ok {
					if path, ok := raw.(string); ok {
						w.ObjectPath = path
					}
				}
			}
			continue
		}
		allSync = false
		for _, id := range reply.Pending {
			a.Pending = append(a.Pending, action.PendingCall{UUID: id, Binding: i})
			s.Demux.Track(id, w.Index)
		}
		timeout := w.Timeout
		if timeout == 0 {
			timeout = s.opts.DefaultTimeout
		}
		a.Deadline = s.opts.Now().Add(timeout)
	}
	return allSync
}

// DeliverCompletion matches an inbound bus completion frame against its
// tracked worker (pkg/demux) and advances that worker if it was the last
// pending callback for its current action. Unknown ids are dropped
// silently.
func (s *Scheduler) DeliverCompletion(id uuid.UUID, callErr error) {
	c, ok := s.Demux.Resolve(id, callErr)
	if !ok {
		return
	}
	w := s.Graph.WorkerAt(c.WorkerIndex)
	a := w.NextAction()
	if a == nil {
		return
	}
	a.ResolveCallback(id)
	if c.Err != nil {
		s.failAndCascade(w, util.KindRPC, a.Behavior.CallName())
		return
	}
	if !a.AwaitingCallback() {
		w.Advance()
	}
}

// DeliverInventory folds an inventory.Change into the worker it names,
// bumping the event sequence via pkg/demux regardless of whether a
// worker currently exists for it.
func (s *Scheduler) DeliverInventory(change inventory.Change) {
	o, ok := s.Demux.ApplyInventory(change, s.Graph.Lookup)
	if !ok {
		return
	}
	w := s.Graph.WorkerAt(o.WorkerIndex)
	switch change.Kind {
	case inventory.Created:
		w.IfIndex = change.IfIndex
		w.ObjectPath = change.ObjectPath
	case inventory.Deleted:
		w.ObjectPath = ""
	}
}

// CheckTimeouts fails, with kind timeout, every non-terminal worker
// whose current action's deadline has passed while still awaiting a
// callback.
func (s *Scheduler) CheckTimeouts(now time.Time) {
	for _, w := range s.Graph.Workers {
		if w.Done || w.Failed {
			continue
		}
		if a := w.NextAction(); a != nil && a.Expired(now) {
			for _, p := range a.Pending {
				s.Demux.Forget(p.UUID)
			}
			s.failAndCascade(w, util.KindTimeout, a.Behavior.CallName())
		}
	}
}

// Cancel cancels the run: every tracked callback is discarded and
// every non-terminal worker fails with kind cancelled.
func (s *Scheduler) Cancel() {
	s.Demux.Cancel()
	for _, w := range s.Graph.Workers {
		if !w.Done && !w.Failed {
			w.Fail(util.KindCancelled, w.LastAction)
		}
	}
}

// Dispositions reports every worker's final status: done,
// failed(kind, lastAction), or pending(interruptedKind, lastAction) for
// a worker that is neither.
func (s *Scheduler) Dispositions(interruptedKind util.Kind) []failure.Disposition {
	out := make([]failure.Disposition, len(s.Graph.Workers))
	for i, w := range s.Graph.Workers {
		out[i] = failure.Report(w, interruptedKind)
	}
	return out
}

func (s *Scheduler) failAndCascade(w *worker.Worker, kind util.Kind, lastAction string) {
	idx := failure.Fail(w, kind, lastAction)
	failure.Cascade(s.Graph, idx, kind)
}

// BringDownFailed appends a reverse plan to device-down for every
// currently failed worker that progressed past DeviceExists, unless its
// configuration asked to persist on error (Options.PersistOnError).
// It clears each such worker's Failed flag so a subsequent RunPass
// executes the bring-down; callers that need the original failure kind
// and last action for reporting should call Dispositions before this.
func (s *Scheduler) BringDownFailed() {
	for _, w := range s.Graph.Workers {
		if !w.Failed {
			continue
		}
		persist := s.opts.PersistOnError != nil && s.opts.PersistOnError(w)
		failure.AppendBringDown(w, persist)
	}
}
