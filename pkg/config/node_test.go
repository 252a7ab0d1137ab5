package config

import "testing"

const ethDoc = `<interface name="eth0">
  <addrconf>
    <ipv4-dhcp enabled="true"/>
    <ipv6-dhcp enabled="false"/>
  </addrconf>
</interface>`

func TestParseAndNavigate(t *testing.T) {
	n, err := ParseString(ethDoc)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if n.Name() != "interface" {
		t.Fatalf("Name() = %q", n.Name())
	}
	if name, ok := n.Attr("name"); !ok || name != "eth0" {
		t.Fatalf("Attr(name) = %q,%v", name, ok)
	}
	fams := n.AddressFamilies()
	if len(fams) != 2 {
		t.Fatalf("AddressFamilies() len = %d, want 2", len(fams))
	}
	if fams[0].Name() != "ipv4-dhcp" || !n.FamilyEnabled(fams[0]) {
		t.Errorf("ipv4-dhcp should be enabled")
	}
	if fams[1].Name() != "ipv6-dhcp" || n.FamilyEnabled(fams[1]) {
		t.Errorf("ipv6-dhcp should be disabled")
	}
}

func TestMissingChildReturnsZeroValue(t *testing.T) {
	n, err := ParseString(`<interface name="eth0"/>`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if got := n.WirelessSSID(); got != "" {
		t.Errorf("WirelessSSID() = %q, want empty", got)
	}
	if _, ok := n.VLANTag(); ok {
		t.Errorf("VLANTag() ok = true, want false")
	}
}

func TestBridgePorts(t *testing.T) {
	n, err := ParseString(`<interface name="br0">
  <bridge>
    <port device="eth0"/>
    <port device="eth1"/>
  </bridge>
</interface>`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	ports := n.BridgePorts()
	if len(ports) != 2 || ports[0] != "eth0" || ports[1] != "eth1" {
		t.Fatalf("BridgePorts() = %v", ports)
	}
}

func TestBondOptionsAndSlaves(t *testing.T) {
	n, err := ParseString(`<interface name="bond0">
  <bond mode="802.3ad" miimon="100">
    <slave device="eth2"/>
    <slave device="eth3"/>
  </bond>
</interface>`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	opts := n.BondOptions()
	if opts["mode"] != "802.3ad" || opts["miimon"] != "100" {
		t.Fatalf("BondOptions() = %v", opts)
	}
	slaves := n.BondSlaves()
	if len(slaves) != 2 || slaves[0] != "eth2" {
		t.Fatalf("BondSlaves() = %v", slaves)
	}
}

func TestVLAN(t *testing.T) {
	n, err := ParseString(`<interface name="vlan42">
  <vlan>
    <tag>42</tag>
    <device name="eth0"/>
  </vlan>
</interface>`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	tag, ok := n.VLANTag()
	if !ok || tag != 42 {
		t.Fatalf("VLANTag() = %d,%v want 42,true", tag, ok)
	}
	dev, ok := n.VLANDevice()
	if !ok || dev != "eth0" {
		t.Fatalf("VLANDevice() = %q,%v want eth0,true", dev, ok)
	}
}

func TestTunnelEndpoints(t *testing.T) {
	n, err := ParseString(`<interface name="tun0">
  <tunnel>
    <local-address>10.0.0.1</local-address>
    <remote-address>10.0.0.2</remote-address>
  </tunnel>
</interface>`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	local, remote := n.TunnelEndpoints()
	if local != "10.0.0.1" || remote != "10.0.0.2" {
		t.Fatalf("TunnelEndpoints() = %q,%q", local, remote)
	}
}
