package action

import "github.com/ifworker/ifworker/pkg/state"

// TransitionEdge is one legal, state-adjacent edge of the lattice: the
// static table holds every adjacent pair from DeviceDown to AddrconfUp
// exactly once in each direction, so the planner never branches. No
// edge leaves or enters None.
type TransitionEdge struct {
	FromState state.State
	NextState state.State
	Behavior  Behavior
}

// Table is the single static transition table every worker's plan is
// built from. It is never mutated; per-worker plans copy entries out of
// it (pkg/planner) so binding state never pollutes the template.
var Table = []TransitionEdge{
	{FromState: state.DeviceDown, NextState: state.DeviceExists, Behavior: deviceExistsBehavior{}},
	{FromState: state.DeviceExists, NextState: state.DeviceUp, Behavior: deviceUpBehavior{}},
	{FromState: state.DeviceUp, NextState: state.FirewallUp, Behavior: firewallUpBehavior{}},
	{FromState: state.FirewallUp, NextState: state.LinkUp, Behavior: linkUpBehavior{}},
	{FromState: state.LinkUp, NextState: state.LinkAuthenticated, Behavior: linkAuthenticateBehavior{}},
	{FromState: state.LinkAuthenticated, NextState: state.AddrconfUp, Behavior: addrconfUpBehavior{}},

	{FromState: state.AddrconfUp, NextState: state.LinkAuthenticated, Behavior: addrconfDownBehavior{}},
	{FromState: state.LinkAuthenticated, NextState: state.LinkUp, Behavior: linkDeauthenticateBehavior{}},
	{FromState: state.LinkUp, NextState: state.FirewallUp, Behavior: linkDownBehavior{}},
	{FromState: state.FirewallUp, NextState: state.DeviceUp, Behavior: firewallDownBehavior{}},
	{FromState: state.DeviceUp, NextState: state.DeviceExists, Behavior: deviceDownBehavior{}},
	{FromState: state.DeviceExists, NextState: state.DeviceDown, Behavior: deviceDeleteBehavior{}},
}

// ForwardEdge returns the forward transition edge leaving from, if any.
func ForwardEdge(from state.State) (TransitionEdge, bool) {
	for _, e := range Table {
		if !e.Behavior.Reverse() && e.FromState == from {
			return e, true
		}
	}
	return TransitionEdge{}, false
}

// ReverseEdge returns the reverse transition edge leaving from, if any.
func ReverseEdge(from state.State) (TransitionEdge, bool) {
	for _, e := range Table {
		if e.Behavior.Reverse() && e.FromState == from {
			return e, true
		}
	}
	return TransitionEdge{}, false
}
