// Package lease holds the per-address-family lease record an addrconf
// fan-out binding accumulates while a worker sits at AddrconfUp: the
// hostname and service tables a DHCP or similar family negotiates, plus
// the addresses and routes it installed, ref-counted the way the
// teacher's VLAN/VRF info aggregates shared membership from several
// config_db tables into one struct.
package lease

// Address is one address this lease installed on its device.
type Address struct {
	Prefix string // CIDR, e.g. "192.168.1.10/24"
	Scope  string
}

// Route is one route this lease installed.
type Route struct {
	Destination string
	Gateway     string
	Metric      int
}

// Lease is the per-family state a FanOut addrconf binding negotiates and
// later tears down when its AddrconfUp transition reverses.
type Lease struct {
	Family   string // e.g. "ipv4-dhcp", "ipv6-static"
	Seqno    uint64
	Owner    string // the worker name that owns this lease
	Hostname string

	NIS     []string
	DNS     []string
	NTP     []string
	NetBIOS []string

	Addresses []Address
	Routes    []Route

	refs int
}

// New returns an empty lease for the given family and owner, with one
// reference already held.
func New(family, owner string) *Lease {
	return &Lease{Family: family, Owner: owner, refs: 1}
}

// Acquire adds a reference, for the case where more than one binding
// (e.g. a bridge and a VLAN stacked on the same lower device) shares a
// negotiated lease.
func (l *Lease) Acquire() {
	l.refs++
}

// Release drops a reference, reporting whether the lease is now
// unreferenced and should be destroyed. A lease is destroyed when its
// AddrconfUp transition reverses and no other reference remains.
func (l *Lease) Release() bool {
	if l.refs > 0 {
		l.refs--
	}
	return l.refs == 0
}

// RefCount reports the current reference count.
func (l *Lease) RefCount() int {
	return l.refs
}
