package pci

import "testing"

func TestBAR0IsMappable(t *testing.T) {
	cases := []struct {
		bar  uint32
		want bool
	}{
		{0xf0000000, true},  // memory BAR, 32-bit, non-prefetchable
		{0x00000001, false}, // I/O-port BAR
		{0x00000000, true},
	}
	for _, c := range cases {
		if got := bar0IsMappable(c.bar); got != c.want {
			t.Errorf("bar0IsMappable(%#x) = %v, want %v", c.bar, got, c.want)
		}
	}
}
