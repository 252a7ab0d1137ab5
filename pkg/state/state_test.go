package state

import "testing"

func TestOrdering(t *testing.T) {
	if !(DeviceDown < DeviceExists && DeviceExists < DeviceUp && DeviceUp < FirewallUp &&
		FirewallUp < LinkUp && LinkUp < LinkAuthenticated && LinkAuthenticated < AddrconfUp) {
		t.Fatalf("lattice order violated")
	}
}

func TestAddressable(t *testing.T) {
	cases := []struct {
		s    State
		want bool
	}{
		{None, false},
		{DeviceDown, false},
		{DeviceExists, true},
		{AddrconfUp, true},
	}
	for _, c := range cases {
		if got := c.s.Addressable(); got != c.want {
			t.Errorf("%s.Addressable() = %v, want %v", c.s, got, c.want)
		}
	}
}

func TestDirectionFor(t *testing.T) {
	r := Range{Min: DeviceUp, Max: LinkUp}
	cases := []struct {
		cur  State
		want Direction
	}{
		{DeviceDown, Forward},
		{DeviceUp, Satisfied},
		{FirewallUp, Satisfied},
		{LinkUp, Satisfied},
		{LinkAuthenticated, Reverse},
		{AddrconfUp, Reverse},
	}
	for _, c := range cases {
		if got := DirectionFor(c.cur, r); got != c.want {
			t.Errorf("DirectionFor(%s, %v) = %v, want %v", c.cur, r, got, c.want)
		}
	}
}

func TestNextPrev(t *testing.T) {
	if n, ok := AddrconfUp.Next(); ok || n != AddrconfUp {
		t.Errorf("Next() at Max should fail")
	}
	if p, ok := None.Prev(); ok || p != None {
		t.Errorf("Prev() at Min should fail")
	}
	n, ok := DeviceDown.Next()
	if !ok || n != DeviceExists {
		t.Errorf("DeviceDown.Next() = %v,%v want DeviceExists,true", n, ok)
	}
}

func TestString(t *testing.T) {
	if DeviceUp.String() != "device-up" {
		t.Errorf("String() = %q", DeviceUp.String())
	}
}

func TestParseRoundTripsEveryState(t *testing.T) {
	for s := Min; s <= Max; s++ {
		got, err := Parse(s.String())
		if err != nil {
			t.Errorf("Parse(%q) error = %v", s.String(), err)
		}
		if got != s {
			t.Errorf("Parse(%q) = %v, want %v", s.String(), got, s)
		}
	}
}

func TestParseUnknownNameErrors(t *testing.T) {
	if _, err := Parse("bogus"); err == nil {
		t.Errorf("Parse(\"bogus\") error = nil, want an error")
	}
}
