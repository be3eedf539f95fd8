package pci

import (
	"time"

	"github.com/ixy-go/ixy/pkg/ixyerr"
)

const pollInterval = 10 * time.Millisecond

// GetReg performs a volatile 32-bit read from the mapped BAR0 at offset.
func (d *Device) GetReg(offset int) (uint32, error) {
	bar0, err := d.mappedBAR0()
	if err != nil {
		return 0, err
	}
	return bar0.GetU32(offset), nil
}

// SetReg performs a volatile 32-bit write to the mapped BAR0 at offset.
func (d *Device) SetReg(offset int, value uint32) error {
	bar0, err := d.mappedBAR0()
	if err != nil {
		return err
	}
	bar0.PutU32(offset, value)
	return nil
}

// SetFlags ORs mask into the register at offset.
func (d *Device) SetFlags(offset int, mask uint32) error {
	bar0, err := d.mappedBAR0()
	if err != nil {
		return err
	}
	bar0.SetFlags(offset, mask)
	return nil
}

// ClearFlags AND-NOTs mask out of the register at offset.
func (d *Device) ClearFlags(offset int, mask uint32) error {
	bar0, err := d.mappedBAR0()
	if err != nil {
		return err
	}
	bar0.ClearFlags(offset, mask)
	return nil
}

// WaitSetFlags polls the register at offset every 10ms until every bit
// in mask is set. It has no upper bound: the hardware documentation's own
// timeouts are trusted to make the bit transition eventually.
func (d *Device) WaitSetFlags(offset int, mask uint32) error {
	for {
		v, err := d.GetReg(offset)
		if err != nil {
			return err
		}
		if v&mask == mask {
			return nil
		}
		time.Sleep(pollInterval)
	}
}

// WaitClearFlags polls the register at offset every 10ms until every bit
// in mask is clear.
func (d *Device) WaitClearFlags(offset int, mask uint32) error {
	for {
		v, err := d.GetReg(offset)
		if err != nil {
			return err
		}
		if v&mask == 0 {
			return nil
		}
		time.Sleep(pollInterval)
	}
}

// WaitAndSetRegister waits for the register at offset to read zero, then
// writes value into it. Used for fields that must be idle before being
// reprogrammed.
func (d *Device) WaitAndSetRegister(offset int, value uint32) error {
	for {
		v, err := d.GetReg(offset)
		if err != nil {
			return err
		}
		if v == 0 {
			break
		}
		time.Sleep(pollInterval)
	}
	return d.SetReg(offset, value)
}

func (d *Device) mappedBAR0() (bar0Accessor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ixyerr.New(ixyerr.InvalidState, "pci: device is closed")
	}
	if d.bar0 == nil {
		return nil, ixyerr.New(ixyerr.InvalidState, "pci: BAR0 is not mapped, call Map first")
	}
	return d.bar0, nil
}

// bar0Accessor is the subset of memory.Region used by the register
// helpers. Device.bar0 is typed as this interface rather than the
// concrete Region so tests can back it with an in-memory fake instead
// of a real BAR0 mapping; see NewForTest.
type bar0Accessor interface {
	GetU32(offset int) uint32
	PutU32(offset int, v uint32)
	SetFlags(offset int, mask uint32)
	ClearFlags(offset int, mask uint32)
}
