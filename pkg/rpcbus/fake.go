package rpcbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ifworker/ifworker/pkg/schema"
)

type handlerKind int

const (
	syncHandler handlerKind = iota
	asyncHandler
	factoryHandler
)

type handler struct {
	kind    handlerKind
	sync    func(schema.ArgDoc) (schema.ArgDoc, error)
	newPath string
}

// CallRecord is one dispatched call, kept for test assertions about
// dispatch order.
type CallRecord struct {
	ObjectPath string
	Service    string
	Method     string
	Args       schema.ArgDoc
}

// Fake is an in-memory, deterministic rpcbus.Client: every scheduler and
// binder test in this module runs against it rather than a live bus.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]*handler
	calls    []CallRecord
	pending  map[uuid.UUID]chan error
	signals  chan Signal
}

// NewFake returns an empty Fake with no registered objects.
func NewFake() *Fake {
	return &Fake{
		handlers: make(map[string]*handler),
		pending:  make(map[uuid.UUID]chan error),
		signals:  make(chan Signal, 64),
	}
}

// Signals implements rpcbus.SignalSource: it carries a SignalCompletion
// frame for every Complete call plus any discovery frame pushed via
// PushSignal.
func (f *Fake) Signals() <-chan Signal {
	return f.signals
}

// PushSignal injects a discovery-style Signal (device created/deleted or
// link-changed), as inventory.Watcher would receive from a live bus.
func (f *Fake) PushSignal(s Signal) {
	f.signals <- s
}

func key(objectPath, service, method string) string {
	return objectPath + "\x00" + service + "\x00" + method
}

// RegisterSync makes (objectPath, service, method) resolve synchronously
// via fn.
func (f *Fake) RegisterSync(objectPath, service, method string, fn func(schema.ArgDoc) (schema.ArgDoc, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[key(objectPath, service, method)] = &handler{kind: syncHandler, sync: fn}
}

// RegisterAsync makes (objectPath, service, method) return one pending
// UUID, resolved later via Complete.
func (f *Fake) RegisterAsync(objectPath, service, method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[key(objectPath, service, method)] = &handler{kind: asyncHandler}
}

// RegisterFactory makes (objectPath, service, method) behave as a
// factory call, returning newPath in the reply document's
// "object-path" field.
func (f *Fake) RegisterFactory(objectPath, service, method, newPath string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[key(objectPath, service, method)] = &handler{kind: factoryHandler, newPath: newPath}
}

// Calls returns every call dispatched so far, in dispatch order.
func (f *Fake) Calls() []CallRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]CallRecord, len(f.calls))
	copy(out, f.calls)
	return out
}

// Call implements Client.
func (f *Fake) Call(ctx context.Context, objectPath, service, method string, args schema.ArgDoc) (Reply, error) {
	f.mu.Lock()
	h, ok := f.handlers[key(objectPath, service, method)]
	f.calls = append(f.calls, CallRecord{ObjectPath: objectPath, Service: service, Method: method, Args: args})
	f.mu.Unlock()

	if !ok {
		return Reply{}, fmt.Errorf("%w: %s %s.%s", ErrNoSuchMethod, objectPath, service, method)
	}

	switch h.kind {
	case syncHandler:
		doc, err := h.sync(args)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: %v", ErrRemote, err)
		}
		return Reply{Document: doc, Completed: true}, nil
	case factoryHandler:
		doc := schema.ArgDoc{Values: map[string]any{"object-path": h.newPath}}
		return Reply{Document: doc, Completed: true}, nil
	case asyncHandler:
		id := uuid.New()
		ch := make(chan error, 1)
		f.mu.Lock()
		f.pending[id] = ch
		f.mu.Unlock()
		return Reply{Pending: []uuid.UUID{id}}, nil
	default:
		return Reply{}, ErrTransport
	}
}

// Complete resolves a pending async call previously issued by Call,
// delivering err (nil on success) to any Await call waiting on id. A
// second Complete for the same id, or one for an id never issued (a
// "late" or unknown callback), is a no-op returning false.
func (f *Fake) Complete(id uuid.UUID, err error) bool {
	f.mu.Lock()
	ch, ok := f.pending[id]
	if ok {
		delete(f.pending, id)
	}
	f.mu.Unlock()
	if !ok {
		return false
	}
	ch <- err
	close(ch)
	f.signals <- Signal{Kind: SignalCompletion, CallbackID: id, Err: err}
	return true
}

// Await blocks until id is resolved via Complete or ctx is done.
func (f *Fake) Await(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	ch, ok := f.pending[id]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("rpcbus: unknown pending id %s", id)
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
