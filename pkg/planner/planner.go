// Package planner produces a worker's forward or reverse action subpath
// toward its target state range.
package planner

import (
	"github.com/ifworker/ifworker/pkg/action"
	"github.com/ifworker/ifworker/pkg/state"
	"github.com/ifworker/ifworker/pkg/worker"
)

// Plan (re)builds w.Plan and resets w.Cursor from the static transition
// table. Action records are copied out of action.Table fresh each time,
// so binding state from a previous plan never pollutes the new one:
// progress is monotonic, with no repeats or skips.
func Plan(w *worker.Worker) {
	switch state.DirectionFor(w.State, w.Target) {
	case state.Satisfied:
		w.Plan = nil
		w.Cursor = 0
		w.Done = true
	case state.Forward:
		w.Plan = subpath(w.State, w.Target.Min, action.ForwardEdge)
		w.Cursor = 0
		w.Done = len(w.Plan) == 0
	case state.Reverse:
		w.Plan = subpath(w.State, w.Target.Max, action.ReverseEdge)
		w.Cursor = 0
		w.Done = len(w.Plan) == 0
	}
}

func subpath(from, to state.State, edgeAt func(state.State) (action.TransitionEdge, bool)) []*action.Action {
	var plan []*action.Action
	cur := from
	for cur != to {
		e, ok := edgeAt(cur)
		if !ok {
			break
		}
		plan = append(plan, action.FromEdge(e))
		cur = e.NextState
	}
	return plan
}
