// Package action declares the static transition table of legal state
// lattice edges and the per-worker action record bound against it.
package action

// Behavior is the tagged-variant interface implemented once per action
// kind: each implementation is a small value type naming the abstract
// call the binder must resolve, not a closure capturing global state.
type Behavior interface {
	// CallName is the abstract identifier matched against an edge's
	// declared preconditions — e.g. a VLAN's precondition on its lower
	// device names "linkUp".
	CallName() string
	// ServiceHint is the abstract service identifier the binder matches
	// against a bus object's advertised service list. For FanOut
	// behaviors it is a prefix, one concrete service per enabled family
	// (e.g. "addrconf" expands to "addrconf-ipv4-dhcp").
	ServiceHint() string
	// MethodName is the abstract method name carried within the chosen
	// service, resolved to a concrete overload by schema dry-run typing.
	MethodName() string
	// Reverse reports whether this action lowers the lattice rather than
	// advancing it.
	Reverse() bool
	// FanOut reports whether the binder may produce more than one
	// binding for this action (e.g. one call per enabled address
	// family).
	FanOut() bool
}

type deviceExistsBehavior struct{}

func (deviceExistsBehavior) CallName() string    { return "deviceExists" }
func (deviceExistsBehavior) ServiceHint() string { return "device" }
func (deviceExistsBehavior) MethodName() string  { return "create" }
func (deviceExistsBehavior) Reverse() bool       { return false }
func (deviceExistsBehavior) FanOut() bool        { return false }

type deviceUpBehavior struct{}

func (deviceUpBehavior) CallName() string    { return "deviceUp" }
func (deviceUpBehavior) ServiceHint() string { return "device" }
func (deviceUpBehavior) MethodName() string  { return "up" }
func (deviceUpBehavior) Reverse() bool       { return false }
func (deviceUpBehavior) FanOut() bool        { return false }

type firewallUpBehavior struct{}

func (firewallUpBehavior) CallName() string    { return "firewallUp" }
func (firewallUpBehavior) ServiceHint() string { return "firewall" }
func (firewallUpBehavior) MethodName() string  { return "up" }
func (firewallUpBehavior) Reverse() bool       { return false }
func (firewallUpBehavior) FanOut() bool        { return false }

type linkUpBehavior struct{}

func (linkUpBehavior) CallName() string    { return "linkUp" }
func (linkUpBehavior) ServiceHint() string { return "link" }
func (linkUpBehavior) MethodName() string  { return "up" }
func (linkUpBehavior) Reverse() bool       { return false }
func (linkUpBehavior) FanOut() bool        { return false }

type linkAuthenticateBehavior struct{}

func (linkAuthenticateBehavior) CallName() string    { return "linkAuthenticate" }
func (linkAuthenticateBehavior) ServiceHint() string { return "auth" }
func (linkAuthenticateBehavior) MethodName() string  { return "authenticate" }
func (linkAuthenticateBehavior) Reverse() bool       { return false }
func (linkAuthenticateBehavior) FanOut() bool        { return false }

type addrconfUpBehavior struct{}

func (addrconfUpBehavior) CallName() string    { return "addrconfUp" }
func (addrconfUpBehavior) ServiceHint() string { return "addrconf" }
func (addrconfUpBehavior) MethodName() string  { return "up" }
func (addrconfUpBehavior) Reverse() bool       { return false }
func (addrconfUpBehavior) FanOut() bool        { return true }

type addrconfDownBehavior struct{}

func (addrconfDownBehavior) CallName() string    { return "addrconfDown" }
func (addrconfDownBehavior) ServiceHint() string { return "addrconf" }
func (addrconfDownBehavior) MethodName() string  { return "down" }
func (addrconfDownBehavior) Reverse() bool       { return true }
func (addrconfDownBehavior) FanOut() bool        { return true }

type linkDeauthenticateBehavior struct{}

func (linkDeauthenticateBehavior) CallName() string    { return "linkDeauthenticate" }
func (linkDeauthenticateBehavior) ServiceHint() string { return "auth" }
func (linkDeauthenticateBehavior) MethodName() string  { return "deauthenticate" }
func (linkDeauthenticateBehavior) Reverse() bool       { return true }
func (linkDeauthenticateBehavior) FanOut() bool        { return false }

type linkDownBehavior struct{}

func (linkDownBehavior) CallName() string    { return "linkDown" }
func (linkDownBehavior) ServiceHint() string { return "link" }
func (linkDownBehavior) MethodName() string  { return "down" }
func (linkDownBehavior) Reverse() bool       { return true }
func (linkDownBehavior) FanOut() bool        { return false }

type firewallDownBehavior struct{}

func (firewallDownBehavior) CallName() string    { return "firewallDown" }
func (firewallDownBehavior) ServiceHint() string { return "firewall" }
func (firewallDownBehavior) MethodName() string  { return "down" }
func (firewallDownBehavior) Reverse() bool       { return true }
func (firewallDownBehavior) FanOut() bool        { return false }

type deviceDownBehavior struct{}

func (deviceDownBehavior) CallName() string    { return "deviceDown" }
func (deviceDownBehavior) ServiceHint() string { return "device" }
func (deviceDownBehavior) MethodName() string  { return "down" }
func (deviceDownBehavior) Reverse() bool       { return true }
func (deviceDownBehavior) FanOut() bool        { return false }

type deviceDeleteBehavior struct{}

func (deviceDeleteBehavior) CallName() string    { return "deviceDelete" }
func (deviceDeleteBehavior) ServiceHint() string { return "device" }
func (deviceDeleteBehavior) MethodName() string  { return "delete" }
func (deviceDeleteBehavior) Reverse() bool       { return true }
func (deviceDeleteBehavior) FanOut() bool        { return false }
