package rpcbus

import "github.com/google/uuid"

// SignalKind distinguishes a call-completion frame from a device
// discovery notification; both are multiplexed over the same bus
// connection on a real deployment.
type SignalKind int

const (
	SignalCompletion SignalKind = iota
	SignalDeviceCreated
	SignalDeviceDeleted
	SignalLinkChanged
)

// Signal is one frame received off the bus: either a pending call's
// resolution (CallbackID set) or a device discovery delta (ObjectPath
// set). A SignalSource's stream has one reader: cmd/ifworkerd's settle
// loop routes completions and discovery deltas to the scheduler, while
// pkg/inventory.Watcher reads a stream for its discovery deltas only.
type Signal struct {
	Kind SignalKind

	CallbackID uuid.UUID
	Err        error

	ObjectPath string
	IfIndex    int
	Name       string
}

// SignalSource is implemented by Client adapters that can stream Signal
// frames.
type SignalSource interface {
	Signals() <-chan Signal
}
