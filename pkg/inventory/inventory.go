// Package inventory is the peripheral read-model of live devices: the
// scheduler's demultiplexer folds its deltas into state overrides. The
// graph builder does not consult it; graph.Build works from
// configuration documents alone.
package inventory

import "github.com/ifworker/ifworker/pkg/rpcbus"

// ChangeKind distinguishes the three delta shapes a Source emits.
type ChangeKind int

const (
	Created ChangeKind = iota
	Deleted
	LinkChanged
)

// Change is one inventory delta: a device appeared, disappeared, or its
// link substate moved.
type Change struct {
	Name       string
	IfIndex    int
	ObjectPath string
	Kind       ChangeKind
}

// Source emits inventory deltas as they occur.
type Source interface {
	Changes() <-chan Change
}

// Watcher adapts a rpcbus.SignalSource's discovery frames into the
// Source contract, discarding call-completion frames (pkg/demux's
// concern, not inventory's).
type Watcher struct {
	src rpcbus.SignalSource
	out chan Change
}

// NewWatcher starts no goroutine by itself; call Run to begin draining
// src's signal stream into Changes().
func NewWatcher(src rpcbus.SignalSource) *Watcher {
	return &Watcher{src: src, out: make(chan Change, 64)}
}

// Changes implements Source.
func (w *Watcher) Changes() <-chan Change {
	return w.out
}

// Run drains w.src's signal stream until it closes or ctx-like done
// channel stops; it is meant to run in its own goroutine. Completion
// frames are ignored; discovery frames are translated and forwarded.
func (w *Watcher) Run(done <-chan struct{}) {
	for {
		select {
		case sig, ok := <-w.src.Signals():
			if !ok {
				close(w.out)
				return
			}
			if c, ok := translate(sig); ok {
				w.out <- c
			}
		case <-done:
			return
		}
	}
}

func translate(sig rpcbus.Signal) (Change, bool) {
	switch sig.Kind {
	case rpcbus.SignalDeviceCreated:
		return Change{Name: sig.Name, IfIndex: sig.IfIndex, ObjectPath: sig.ObjectPath, Kind: Created}, true
	case rpcbus.SignalDeviceDeleted:
		return Change{Name: sig.Name, IfIndex: sig.IfIndex, ObjectPath: sig.ObjectPath, Kind: Deleted}, true
	case rpcbus.SignalLinkChanged:
		return Change{Name: sig.Name, IfIndex: sig.IfIndex, ObjectPath: sig.ObjectPath, Kind: LinkChanged}, true
	default:
		return Change{}, false
	}
}
