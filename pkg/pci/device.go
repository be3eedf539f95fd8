// Package pci provides the sysfs-backed PCI device base: config-space
// access, DMA enable/disable, driver bind/unbind, and BAR0 mapping. It
// has no notion of any particular NIC family — pkg/ixgbe builds on it.
package pci

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/ixy-go/ixy/pkg/ixyerr"
	"github.com/ixy-go/ixy/pkg/memory"
)

const (
	configOffsetVendorID = 0x00
	configOffsetDeviceID = 0x02
	configOffsetCommand  = 0x04
	configOffsetClassID  = 0x09
	configOffsetBAR0     = 0x10

	commandBitDMA = 1 << 2
	bar0BitIOPort = 1 << 0
)

// Device is the sysfs handle for one PCI function, identified by its
// fully qualified address ("DDDD:BB:SS.F").
type Device struct {
	mu         sync.RWMutex
	address    string
	driverName string
	configFD   int
	bar0       bar0Accessor
	closed     bool
}

func sysfsDevicePath(address string) string {
	return fmt.Sprintf("/sys/bus/pci/devices/%s", address)
}

// Open opens the config-space pseudo-file for address. driverName names
// the kernel driver this device may currently be bound to, used by
// Bind/Unbind/IsBound.
func Open(address, driverName string) (*Device, error) {
	configPath := sysfsDevicePath(address) + "/config"
	fd, err := unix.Open(configPath, unix.O_RDWR, 0)
	if err != nil {
		return nil, ixyerr.FromErrno(err, "open "+configPath)
	}
	return &Device{address: address, driverName: driverName, configFD: fd}, nil
}

// Address returns the PCI address this device was opened with.
func (d *Device) Address() string {
	return d.address
}

func (d *Device) readConfig(offset, length int) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ixyerr.New(ixyerr.InvalidState, "pci: device is closed")
	}
	buf := make([]byte, length)
	n, err := unix.Pread(d.configFD, buf, int64(offset))
	if err != nil {
		return nil, ixyerr.FromErrno(err, "pread config space")
	}
	if n != length {
		return nil, ixyerr.New(ixyerr.IO, "pci: short read of config space")
	}
	return buf, nil
}

func (d *Device) writeConfig(offset int, data []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ixyerr.New(ixyerr.InvalidState, "pci: device is closed")
	}
	n, err := unix.Pwrite(d.configFD, data, int64(offset))
	if err != nil {
		return ixyerr.FromErrno(err, "pwrite config space")
	}
	if n != len(data) {
		return ixyerr.New(ixyerr.IO, "pci: short write of config space")
	}
	return nil
}

// VendorID reads the 2-byte vendor identifier at config offset 0x00.
func (d *Device) VendorID() (uint16, error) {
	b, err := d.readConfig(configOffsetVendorID, 2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// DeviceID reads the 2-byte device identifier at config offset 0x02.
func (d *Device) DeviceID() (uint16, error) {
	b, err := d.readConfig(configOffsetDeviceID, 2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// ClassID reads the 3-byte class code at config offset 0x09.
func (d *Device) ClassID() (uint32, error) {
	b, err := d.readConfig(configOffsetClassID, 3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

// IsDMAEnabled reports whether the bus-master bit is set in the command
// register.
func (d *Device) IsDMAEnabled() (bool, error) {
	b, err := d.readConfig(configOffsetCommand, 2)
	if err != nil {
		return false, err
	}
	cmd := uint16(b[0]) | uint16(b[1])<<8
	return cmd&commandBitDMA != 0, nil
}

// EnableDMA sets the bus-master bit, letting the device initiate DMA.
func (d *Device) EnableDMA() error {
	return d.setCommandBit(commandBitDMA, true)
}

// DisableDMA clears the bus-master bit.
func (d *Device) DisableDMA() error {
	return d.setCommandBit(commandBitDMA, false)
}

func (d *Device) setCommandBit(bit uint16, set bool) error {
	b, err := d.readConfig(configOffsetCommand, 2)
	if err != nil {
		return err
	}
	cmd := uint16(b[0]) | uint16(b[1])<<8
	if set {
		cmd |= bit
	} else {
		cmd &^= bit
	}
	out := []byte{byte(cmd), byte(cmd >> 8)}
	return d.writeConfig(configOffsetCommand, out)
}

// IsMappable reports whether BAR0 is memory-mapped (as opposed to an
// I/O-port BAR, which this driver cannot use).
func (d *Device) IsMappable() (bool, error) {
	b, err := d.readConfig(configOffsetBAR0, 4)
	if err != nil {
		return false, err
	}
	bar := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return bar0IsMappable(bar), nil
}

func bar0IsMappable(bar uint32) bool {
	return bar&bar0BitIOPort == 0
}

// Map memory-maps resource0 (BAR0) and returns the register window. The
// mapping size is taken from the file's reported size, matching how the
// kernel exposes the BAR's true length through sysfs.
func (d *Device) Map() (memory.Region, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ixyerr.New(ixyerr.InvalidState, "pci: device is closed")
	}
	if d.bar0 != nil {
		return d.bar0.(memory.Region), nil
	}

	path := sysfsDevicePath(d.address) + "/resource0"
	info, err := os.Stat(path)
	if err != nil {
		return nil, ixyerr.Wrap(ixyerr.IO, "stat "+path, err)
	}

	region, err := memory.MmapFile(path, int(info.Size()))
	if err != nil {
		return nil, err
	}
	d.bar0 = region
	return region, nil
}

// Close releases the config-space file handle and unmaps BAR0 if it was
// mapped. Further operations on the device fail with InvalidState.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var firstErr error
	if region, ok := d.bar0.(memory.Region); ok {
		if err := memory.UnmapFile(region); err != nil {
			firstErr = err
		}
		d.bar0 = nil
	}
	if err := unix.Close(d.configFD); err != nil && firstErr == nil {
		firstErr = ixyerr.FromErrno(err, "close config fd")
	}
	return firstErr
}
