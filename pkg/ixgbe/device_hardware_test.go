//go:build linux_hardware

package ixgbe

import (
	"os"
	"testing"
)

// TestOpenConfigureClose exercises the full bring-up against a real NIC.
// Requires IXY_TEST_PCI_ADDR to name a device bound to (or unbound from)
// the ixgbe driver.
func TestOpenConfigureClose(t *testing.T) {
	addr := os.Getenv("IXY_TEST_PCI_ADDR")
	if addr == "" {
		t.Skip("IXY_TEST_PCI_ADDR not set")
	}

	dev, err := Open(addr, 1, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dev.Close()

	if err := dev.Configure(512); err != nil {
		t.Fatalf("Configure: %v", err)
	}
}
