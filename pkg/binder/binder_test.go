package binder

import (
	"testing"

	"github.com/ifworker/ifworker/pkg/action"
	"github.com/ifworker/ifworker/pkg/config"
	"github.com/ifworker/ifworker/pkg/schema"
	"github.com/ifworker/ifworker/pkg/state"
	"github.com/ifworker/ifworker/pkg/worker"
)

func forwardAction(t *testing.T, from state.State) *action.Action {
	t.Helper()
	edge, ok := action.ForwardEdge(from)
	if !ok {
		t.Fatalf("no forward edge from %s", from)
	}
	return action.FromEdge(edge)
}

// TestBindFactoryCreation checks that a worker with no object path yet
// binds its DeviceDown -> DeviceExists action to the kind's factory
// path, not to any object-specific service list.
func TestBindFactoryCreation(t *testing.T) {
	dir := NewStaticDirectory()
	dir.Factories[worker.KindBridge] = "/org/ifworker/bridge-factory"
	dir.Objects["/org/ifworker/bridge-factory"] = []string{"device"}

	engine := schema.NewStatic()
	engine.Register(schema.Signature{Service: "device", Method: "create", Role: schema.RoleFactory})

	cfg, err := config.ParseString(`<interface><bridge/></interface>`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	w := worker.New(0, "br0", worker.KindBridge, cfg)
	a := forwardAction(t, state.DeviceDown)

	if err := Bind(w, a, dir, engine, true); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if a.ObjectPath != "/org/ifworker/bridge-factory" {
		t.Fatalf("ObjectPath = %q, want factory path", a.ObjectPath)
	}
	if !a.Bound || a.Binding.Service != "device" || a.Binding.Method != "create" {
		t.Fatalf("Binding = %+v", a.Binding)
	}
}

func TestBindFactoryWithoutFactoryPathFails(t *testing.T) {
	dir := NewStaticDirectory()
	engine := schema.NewStatic()
	engine.Register(schema.Signature{Service: "device", Method: "create", Role: schema.RoleFactory})

	cfg, _ := config.ParseString(`<interface/>`)
	w := worker.New(0, "br0", worker.KindBridge, cfg)
	a := forwardAction(t, state.DeviceDown)

	if err := Bind(w, a, dir, engine, true); err == nil {
		t.Fatalf("expected an error when no factory path is registered")
	}
}

func TestBindSingleServiceResolvesBoundObject(t *testing.T) {
	dir := NewStaticDirectory()
	dir.Objects["/org/ifworker/eth0"] = []string{"link", "device"}

	engine := schema.NewStatic()
	engine.Register(schema.Signature{Service: "link", Method: "up", Fields: []schema.Field{
		{Name: "mtu", Kind: schema.FieldInt, Path: []string{"mtu"}},
	}})

	cfg, _ := config.ParseString(`<interface><mtu>1500</mtu></interface>`)
	w := worker.New(1, "eth0", worker.KindEthernet, cfg)
	w.ObjectPath = "/org/ifworker/eth0"
	a := forwardAction(t, state.FirewallUp)

	if err := Bind(w, a, dir, engine, true); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if a.ObjectPath != "/org/ifworker/eth0" {
		t.Fatalf("ObjectPath = %q, want the worker's existing path", a.ObjectPath)
	}
	if v, _ := a.Binding.Args.Get("mtu"); v != 1500 {
		t.Fatalf("Args[mtu] = %v, want 1500", v)
	}
}

func TestBindNoMatchingServiceFails(t *testing.T) {
	dir := NewStaticDirectory()
	dir.Objects["/org/ifworker/eth0"] = []string{"device"}
	engine := schema.NewStatic()

	cfg, _ := config.ParseString(`<interface/>`)
	w := worker.New(1, "eth0", worker.KindEthernet, cfg)
	w.ObjectPath = "/org/ifworker/eth0"
	a := forwardAction(t, state.FirewallUp)

	if err := Bind(w, a, dir, engine, true); err == nil {
		t.Fatalf("expected an error: object advertises no link service")
	}
}

func TestBindFirstDeclaredWinsWhenOverloadingEnabled(t *testing.T) {
	dir := NewStaticDirectory()
	dir.Objects["/o"] = []string{"link"}

	engine := schema.NewStatic()
	// Both type-check against an empty subtree; declaration order picks
	// the first.
	engine.Register(schema.Signature{Service: "link", Method: "up"})
	engine.Register(schema.Signature{Service: "link", Method: "up", Role: schema.RoleDeprecated})

	cfg, _ := config.ParseString(`<interface/>`)
	w := worker.New(1, "eth0", worker.KindEthernet, cfg)
	w.ObjectPath = "/o"
	a := forwardAction(t, state.FirewallUp)

	if err := Bind(w, a, dir, engine, true); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
}

func TestBindAmbiguousOverloadFailsWhenOverloadingDisabled(t *testing.T) {
	dir := NewStaticDirectory()
	dir.Objects["/o"] = []string{"link"}

	engine := schema.NewStatic()
	engine.Register(schema.Signature{Service: "link", Method: "up"})
	engine.Register(schema.Signature{Service: "link", Method: "up"})

	cfg, _ := config.ParseString(`<interface/>`)
	w := worker.New(1, "eth0", worker.KindEthernet, cfg)
	w.ObjectPath = "/o"
	a := forwardAction(t, state.FirewallUp)

	if err := Bind(w, a, dir, engine, false); err == nil {
		t.Fatalf("expected an error: two overloads type-check and overloading is disabled")
	}
}

func TestBindFanOutOneBindingPerEnabledFamily(t *testing.T) {
	dir := NewStaticDirectory()
	dir.Objects["/o"] = []string{"addrconf-ipv4-dhcp", "addrconf-ipv6-static"}

	engine := schema.NewStatic()
	engine.Register(schema.Signature{Service: "addrconf-ipv4-dhcp", Method: "up"})
	engine.Register(schema.Signature{Service: "addrconf-ipv6-static", Method: "up"})

	cfg, _ := config.ParseString(`<interface>
		<addrconf>
			<ipv4-dhcp/>
			<ipv6-static enabled="false"/>
		</addrconf>
	</interface>`)
	w := worker.New(1, "eth0", worker.KindEthernet, cfg)
	w.ObjectPath = "/o"
	a := forwardAction(t, state.LinkAuthenticated)

	if err := Bind(w, a, dir, engine, true); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	all := a.Bindings()
	if len(all) != 2 {
		t.Fatalf("Bindings() = %+v, want 2", all)
	}
	if all[0].Service != "addrconf-ipv4-dhcp" || all[0].SkipCall {
		t.Fatalf("ipv4 binding = %+v", all[0])
	}
	if all[1].Service != "addrconf-ipv6-static" || !all[1].SkipCall {
		t.Fatalf("ipv6 binding = %+v, want SkipCall true", all[1])
	}
}

func TestBindFanOutNoAddrconfSkipsEntirely(t *testing.T) {
	dir := NewStaticDirectory()
	dir.Objects["/o"] = nil
	engine := schema.NewStatic()

	cfg, _ := config.ParseString(`<interface/>`)
	w := worker.New(1, "eth0", worker.KindEthernet, cfg)
	w.ObjectPath = "/o"
	a := forwardAction(t, state.LinkAuthenticated)

	if err := Bind(w, a, dir, engine, true); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if !a.AllCallsSkipped() {
		t.Fatalf("expected AllCallsSkipped true with no configured address families")
	}
}
