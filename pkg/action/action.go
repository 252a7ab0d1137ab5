package action

import (
	"time"

	"github.com/google/uuid"

	"github.com/ifworker/ifworker/pkg/requirement"
	"github.com/ifworker/ifworker/pkg/schema"
	"github.com/ifworker/ifworker/pkg/state"
)

// Binding is a resolved (service, method, arguments) triple ready to
// dispatch, or marked SkipCall when configuration disables the family
// or feature the binding would otherwise configure.
type Binding struct {
	Service  string
	Method   string
	Args     schema.ArgDoc
	SkipCall bool
}

// PendingCall tracks one outstanding asynchronous reply the scheduler is
// waiting on: the UUID the bus will echo back on completion.
type PendingCall struct {
	UUID    uuid.UUID
	Binding int // index into Action.Bindings() this callback belongs to
}

// Action is the per-worker, mutable instance of one TransitionEdge: the
// template's FromState/NextState/Behavior plus whatever binding and
// in-flight state has accumulated since the planner copied it out of
// Table.
type Action struct {
	FromState state.State
	NextState state.State
	Behavior  Behavior

	// ObjectPath is the bus object this action's bindings dispatch
	// against: the worker's existing object path, or (for the
	// DeviceDown -> DeviceExists factory action) the kind-specific
	// factory path resolved by the binder.
	ObjectPath string

	Bound         bool
	Binding       Binding
	ExtraBindings []Binding

	Pending      []PendingCall
	Deadline     time.Time
	Requirements requirement.List
}

// FromEdge builds a fresh, unbound Action from a static transition edge.
func FromEdge(e TransitionEdge) *Action {
	return &Action{FromState: e.FromState, NextState: e.NextState, Behavior: e.Behavior}
}

// Bindings returns every binding dispatched by this action, common slot
// first.
func (a *Action) Bindings() []Binding {
	all := make([]Binding, 0, 1+len(a.ExtraBindings))
	all = append(all, a.Binding)
	all = append(all, a.ExtraBindings...)
	return all
}

// AllCallsSkipped reports whether every binding is marked SkipCall, in
// which case the action advances state without dispatching anything.
func (a *Action) AllCallsSkipped() bool {
	for _, b := range a.Bindings() {
		if !b.SkipCall {
			return false
		}
	}
	return true
}

// AwaitingCallback reports whether the action still has unresolved
// pending callback UUIDs: a worker never advances past an action while
// any are outstanding and its timer has not fired.
func (a *Action) AwaitingCallback() bool {
	return len(a.Pending) > 0
}

// ResolveCallback removes the given UUID from Pending, reporting whether
// it was found. Unknown UUIDs (late or duplicate delivery) are a no-op.
func (a *Action) ResolveCallback(id uuid.UUID) bool {
	for i, p := range a.Pending {
		if p.UUID == id {
			a.Pending = append(a.Pending[:i], a.Pending[i+1:]...)
			return true
		}
	}
	return false
}

// Expired reports whether the action's deadline has passed and it is
// still awaiting a callback.
func (a *Action) Expired(now time.Time) bool {
	return a.AwaitingCallback() && !a.Deadline.IsZero() && now.After(a.Deadline)
}
