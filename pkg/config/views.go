package config

// Typed navigation views over a worker's configuration subtree, one per
// device kind's per-layer settings. None of these validate; a missing or
// malformed element simply yields a zero value and the caller (binder or
// schema check) is the one that turns that into a binding error.

// BridgePorts returns the member device names listed under <bridge>.
func (n *Node) BridgePorts() []string {
	bridge := n.Child("bridge")
	var ports []string
	for _, p := range bridge.AllChildren("port") {
		if name, ok := p.Attr("device"); ok {
			ports = append(ports, name)
		} else if t := p.Text(); t != "" {
			ports = append(ports, t)
		}
	}
	return ports
}

// BondOptions returns the <bond> element's option attributes as a map,
// e.g. "mode" -> "802.3ad", "miimon" -> "100".
func (n *Node) BondOptions() map[string]string {
	bond := n.Child("bond")
	if bond == nil {
		return nil
	}
	opts := make(map[string]string, len(bond.Attrs))
	for _, a := range bond.Attrs {
		opts[a.Name.Local] = a.Value
	}
	return opts
}

// BondSlaves returns the member device names listed under <bond>.
func (n *Node) BondSlaves() []string {
	bond := n.Child("bond")
	var slaves []string
	for _, s := range bond.AllChildren("slave") {
		if name, ok := s.Attr("device"); ok {
			slaves = append(slaves, name)
		} else if t := s.Text(); t != "" {
			slaves = append(slaves, t)
		}
	}
	return slaves
}

// VLANTag returns the <vlan> element's tag number.
func (n *Node) VLANTag() (int, bool) {
	return n.Child("vlan").Child("tag").Int()
}

// VLANDevice returns the lower device name a <vlan> is stacked over.
func (n *Node) VLANDevice() (string, bool) {
	return n.Child("vlan").Child("device").Attr("name")
}

// WirelessSSID returns the configured SSID under <wireless>.
func (n *Node) WirelessSSID() string {
	return n.Child("wireless").ChildText("ssid")
}

// WirelessAuthMode returns the configured auth mode under <wireless>,
// e.g. "wpa-psk", "open", "wpa-eap". Empty means unauthenticated.
func (n *Node) WirelessAuthMode() string {
	return n.Child("wireless").ChildText("auth-mode")
}

// ModemAPN returns the configured access point name under <modem>.
func (n *Node) ModemAPN() string {
	return n.Child("modem").ChildText("apn")
}

// TunnelEndpoints returns the local and remote addresses under <tunnel>.
func (n *Node) TunnelEndpoints() (local, remote string) {
	t := n.Child("tunnel")
	return t.ChildText("local-address"), t.ChildText("remote-address")
}

// AddressFamilies returns the address-family child elements configured
// under <addrconf>, e.g. "ipv4-dhcp", "ipv6-static".
func (n *Node) AddressFamilies() []*Node {
	addrconf := n.Child("addrconf")
	if addrconf == nil {
		return nil
	}
	out := make([]*Node, len(addrconf.Children))
	for i := range addrconf.Children {
		out[i] = &addrconf.Children[i]
	}
	return out
}

// FamilyEnabled reports whether the named address family is enabled: it
// is false only when the family explicitly sets enabled="false".
func (n *Node) FamilyEnabled(family *Node) bool {
	return family.AttrDefault("enabled", "true") != "false"
}
