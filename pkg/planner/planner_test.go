package planner

import (
	"testing"

	"github.com/ifworker/ifworker/pkg/state"
	"github.com/ifworker/ifworker/pkg/worker"
)

func TestPlanForward(t *testing.T) {
	w := worker.New(0, "eth0", worker.KindEthernet, nil)
	w.Target = state.Range{Min: state.AddrconfUp, Max: state.AddrconfUp}
	Plan(w)

	if w.Done {
		t.Fatalf("expected Done false, plan not yet executed")
	}
	wantStates := []state.State{
		state.DeviceExists, state.DeviceUp, state.FirewallUp,
		state.LinkUp, state.LinkAuthenticated, state.AddrconfUp,
	}
	if len(w.Plan) != len(wantStates) {
		t.Fatalf("plan length = %d, want %d", len(w.Plan), len(wantStates))
	}
	for i, a := range w.Plan {
		if a.NextState != wantStates[i] {
			t.Errorf("plan[%d].NextState = %s, want %s", i, a.NextState, wantStates[i])
		}
		if a.FromState >= a.NextState {
			t.Errorf("plan[%d] is not a forward step: %s -> %s", i, a.FromState, a.NextState)
		}
	}
}

func TestPlanReverse(t *testing.T) {
	w := worker.New(0, "eth0", worker.KindEthernet, nil)
	w.State = state.AddrconfUp
	w.Target = state.Range{Min: state.DeviceDown, Max: state.DeviceDown}
	Plan(w)

	if len(w.Plan) != 6 {
		t.Fatalf("plan length = %d, want 6", len(w.Plan))
	}
	for _, a := range w.Plan {
		if a.FromState <= a.NextState {
			t.Errorf("reverse plan step is not reverse: %s -> %s", a.FromState, a.NextState)
		}
	}
}

func TestPlanSatisfiedMarksDone(t *testing.T) {
	w := worker.New(0, "eth0", worker.KindEthernet, nil)
	w.State = state.FirewallUp
	w.Target = state.Range{Min: state.DeviceUp, Max: state.LinkUp}
	Plan(w)

	if !w.Done {
		t.Fatalf("expected Done true when current state already satisfies target range")
	}
	if len(w.Plan) != 0 {
		t.Fatalf("expected empty plan, got %d actions", len(w.Plan))
	}
}

func TestPlanReplacesStaleBindingState(t *testing.T) {
	w := worker.New(0, "eth0", worker.KindEthernet, nil)
	w.Target = state.Range{Min: state.DeviceExists, Max: state.DeviceExists}
	Plan(w)
	w.Plan[0].Bound = true

	// Re-plan after the target widens; the new plan must not carry over
	// the previous plan's binding state.
	w.Target = state.Range{Min: state.DeviceUp, Max: state.DeviceUp}
	Plan(w)
	if w.Plan[0].Bound {
		t.Fatalf("re-planning should produce fresh, unbound actions")
	}
}
