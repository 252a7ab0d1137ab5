package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/ifworker/ifworker/pkg/rpcbus"
	"github.com/ifworker/ifworker/pkg/schema"
)

func TestWatcherTranslatesDiscoveryFrames(t *testing.T) {
	fake := rpcbus.NewFake()
	w := NewWatcher(fake)
	done := make(chan struct{})
	defer close(done)
	go w.Run(done)

	fake.PushSignal(rpcbus.Signal{Kind: rpcbus.SignalDeviceCreated, Name: "eth0", IfIndex: 3, ObjectPath: "/org/ifworker/eth0"})

	select {
	case c := <-w.Changes():
		if c.Kind != Created || c.Name != "eth0" || c.IfIndex != 3 {
			t.Fatalf("Change = %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for translated change")
	}
}

func TestWatcherIgnoresCompletionFrames(t *testing.T) {
	fake := rpcbus.NewFake()
	w := NewWatcher(fake)
	done := make(chan struct{})
	defer close(done)
	go w.Run(done)

	fake.RegisterAsync("/o", "svc", "m")
	reply, _ := fake.Call(context.Background(), "/o", "svc", "m", schema.ArgDoc{})
	fake.Complete(reply.Pending[0], nil)

	fake.PushSignal(rpcbus.Signal{Kind: rpcbus.SignalDeviceDeleted, Name: "eth1"})

	select {
	case c := <-w.Changes():
		if c.Kind != Deleted || c.Name != "eth1" {
			t.Fatalf("expected the deletion frame to arrive first (completions are filtered), got %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for translated change")
	}
}
