// Package failure implements the engine's failure policy: how one
// failed action's kind and last action propagate up the worker graph,
// and how a failed worker past DeviceExists gets an appended bring-down
// plan unless its configuration asks to persist on error.
package failure

import (
	"github.com/ifworker/ifworker/pkg/graph"
	"github.com/ifworker/ifworker/pkg/planner"
	"github.com/ifworker/ifworker/pkg/state"
	"github.com/ifworker/ifworker/pkg/util"
	"github.com/ifworker/ifworker/pkg/worker"
)

// Fail marks w failed with kind, recording the action that was in
// flight, and returns the worker's index.
func Fail(w *worker.Worker, kind util.Kind, lastAction string) int {
	w.Fail(kind, lastAction)
	return w.Index
}

// Cascade propagates a worker's failure up the graph: every parent with
// an edge precondition on the failed worker that is no longer satisfied
// also fails, with the same kind, recording its own last-dispatched
// action. Siblings of the failed worker — other children of the same
// parent that the parent's current action does not depend on — are
// unaffected, since only precondition-bearing edges are walked. Returns
// every worker index that failed as a result, the seed first.
func Cascade(g *graph.Graph, failedIndex int, kind util.Kind) []int {
	failed := []int{failedIndex}
	queue := []int{failedIndex}
	seen := map[int]bool{failedIndex: true}

	for len(queue) > 0 {
		childIdx := queue[0]
		queue = queue[1:]
		child := g.WorkerAt(childIdx)

		for _, parent := range g.Workers {
			if seen[parent.Index] || parent.Done || parent.Failed {
				continue
			}
			if blocksParent(parent, childIdx, child.State) {
				parent.Fail(kind, parent.LastAction)
				seen[parent.Index] = true
				failed = append(failed, parent.Index)
				queue = append(queue, parent.Index)
			}
		}
	}
	return failed
}

func blocksParent(parent *worker.Worker, childIdx int, childState state.State) bool {
	for _, e := range parent.Children {
		if e.ChildIndex != childIdx {
			continue
		}
		for _, p := range e.Preconditions {
			if !p.Satisfied(childState) {
				return true
			}
		}
	}
	return false
}

// AppendBringDown gives a failed worker that progressed past
// DeviceExists a reverse plan back to DeviceDown, unless persistOnError
// is set (the configuration asked the engine to leave the device as-is).
// A worker that never left DeviceDown, or one whose configuration
// persists on error, is left with its plan untouched.
func AppendBringDown(w *worker.Worker, persistOnError bool) {
	if persistOnError || w.State <= state.DeviceExists {
		return
	}
	w.Target = state.Range{Min: state.DeviceDown, Max: state.DeviceDown}
	planner.Plan(w)
	w.Failed = false
}

// Timeout marks w failed with kind timeout, recording the method name
// that was still outstanding when its deadline passed.
func Timeout(w *worker.Worker, lastDispatchedMethod string) {
	w.Fail(util.KindTimeout, lastDispatchedMethod)
}

// Disposition is a worker's terminal status as reported once the
// scheduler has nothing left to do with it.
type Disposition struct {
	WorkerIndex int
	Name        string
	Done        bool
	Failed      bool
	Kind        util.Kind
	LastAction  string
}

// Report builds a worker's final disposition. A worker that is neither
// Done nor Failed is reported as interrupted, carrying whatever failure
// kind the caller passes as interruptedKind (cmd/ifworkerd passes
// util.KindCancelled after a cancellation and util.KindTimeout otherwise).
func Report(w *worker.Worker, interruptedKind util.Kind) Disposition {
	d := Disposition{WorkerIndex: w.Index, Name: w.Name, Done: w.Done, Failed: w.Failed, LastAction: w.LastAction}
	switch {
	case w.Failed:
		d.Kind = w.FailureKind
	case !w.Done:
		d.Kind = interruptedKind
	}
	return d
}
