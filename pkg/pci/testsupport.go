package pci

// NewForTest builds a Device whose BAR0 register access is backed
// directly by accessor, bypassing sysfs config-space access and the
// real BAR0 mmap entirely. It exists so this package's tests — and
// pkg/ixgbe's — can drive register-level logic (GetReg/SetReg/SetFlags/
// ClearFlags/Wait*, and the 82599 bring-up phases built on them) against
// an in-memory fake instead of a real PCI device.
func NewForTest(accessor bar0Accessor) *Device {
	return &Device{bar0: accessor}
}
