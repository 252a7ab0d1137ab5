// Package worker defines the in-process representative of one managed
// interface or modem: its identity, its finite state machine, and its
// place in the worker graph addressed by stable index rather than
// pointer.
package worker

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ifworker/ifworker/pkg/action"
	"github.com/ifworker/ifworker/pkg/config"
	"github.com/ifworker/ifworker/pkg/state"
	"github.com/ifworker/ifworker/pkg/util"
)

// Kind enumerates the device kinds ifworker drives. This is pure
// enumeration: it adds no new FSM behavior, only picks the factory
// service and configuration view the binder consults.
type Kind int

const (
	KindEthernet Kind = iota
	KindBridge
	KindBond
	KindVLAN
	KindWireless
	KindModem
	KindTunnel
)

var kindNames = [...]string{
	KindEthernet: "ethernet",
	KindBridge:   "bridge",
	KindBond:     "bond",
	KindVLAN:     "vlan",
	KindWireless: "wireless",
	KindModem:    "modem",
	KindTunnel:   "tunnel",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind is the inverse of String, for configuration and fixture
// loaders that name a device kind in text.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("worker: unknown kind %q", name)
}

// NoParent marks a worker with no parent (a root of the graph).
const NoParent = -1

// NoOwner marks a worker with no exclusive owner.
const NoOwner = -1

// Precondition gates a parent's action on a child's state: before the
// parent may dispatch the named call, the child must lie in
// [MinChildState, MaxChildState].
type Precondition struct {
	CallName      string
	MinChildState state.State
	MaxChildState state.State
}

// Satisfied reports whether childState meets this precondition.
func (p Precondition) Satisfied(childState state.State) bool {
	return childState >= p.MinChildState && childState <= p.MaxChildState
}

// Edge is a parent-to-child reference: the configuration subtree that
// named the child, plus the preconditions gating calls on the parent.
type Edge struct {
	ChildIndex    int
	Config        *config.Node
	Preconditions []Precondition
}

// Worker is one interface or modem's FSM and its place in the graph.
type Worker struct {
	Index      int
	Name       string
	UUID       uuid.UUID
	Kind       Kind
	IfIndex    int
	ObjectPath string

	State  state.State
	Target state.Range
	Plan   []*action.Action
	Cursor int // index into Plan of the next unfinished action

	ParentIndex         int
	Children            []Edge
	SharedUsers         int
	ExclusiveOwnerIndex int

	Done        bool
	Failed      bool
	FailureKind util.Kind
	LastAction  string

	Config  *config.Node
	Timeout time.Duration // per-worker override; zero means use the scheduler default

	Depth int
}

// New constructs a fresh worker at state.DeviceDown with no parent and
// no exclusive owner, ready to be inserted into a graph.
func New(index int, name string, kind Kind, cfg *config.Node) *Worker {
	return &Worker{
		Index:               index,
		Name:                name,
		UUID:                uuid.New(),
		Kind:                kind,
		State:               state.DeviceDown,
		ParentIndex:         NoParent,
		ExclusiveOwnerIndex: NoOwner,
		Config:              cfg,
	}
}

// NextAction returns the action the worker should work on next, or nil
// if the plan is exhausted.
func (w *Worker) NextAction() *action.Action {
	if w.Cursor < 0 || w.Cursor >= len(w.Plan) {
		return nil
	}
	return w.Plan[w.Cursor]
}

// Advance moves the worker's State to the current action's NextState,
// clears the action, and moves the cursor forward. If the plan is now
// exhausted, the worker is marked Done.
func (w *Worker) Advance() {
	a := w.NextAction()
	if a == nil {
		w.Done = true
		return
	}
	w.State = a.NextState
	w.Cursor++
	if w.Cursor >= len(w.Plan) {
		w.Done = true
	}
}

// Fail marks the worker failed with the given kind, recording the name
// of the action that was in flight.
func (w *Worker) Fail(kind util.Kind, lastAction string) {
	w.Failed = true
	w.FailureKind = kind
	w.LastAction = lastAction
}

// Skip reports whether the worker should be skipped by the scheduler
// this pass: it is already terminal, or its current action is still
// awaiting a callback.
func (w *Worker) Skip() bool {
	if w.Done || w.Failed {
		return true
	}
	if a := w.NextAction(); a != nil {
		return a.AwaitingCallback()
	}
	return false
}

// IsExclusivelyOwned reports whether some parent already holds an
// exclusive claim on this worker.
func (w *Worker) IsExclusivelyOwned() bool {
	return w.ExclusiveOwnerIndex != NoOwner
}
