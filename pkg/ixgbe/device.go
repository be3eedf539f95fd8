// Package ixgbe drives the Intel 82599-family 10 Gigabit Ethernet
// controllers: device bring-up, RX/TX ring management, and the batched
// polling data path.
package ixgbe

import (
	"github.com/ixy-go/ixy/pkg/ixyerr"
	"github.com/ixy-go/ixy/pkg/pci"
)

const driverName = "ixgbe"

// Device is one opened and (optionally) configured 82599-family NIC.
type Device struct {
	pci *pci.Device

	rxQueues []*RxQueue
	txQueues []*TxQueue

	wasBound       bool
	wasDMAEnabled  bool
	wasPromiscuous bool
	configured     bool
	closed         bool
}

// Open unbinds address from the kernel ixgbe driver (if bound), enables
// bus-master DMA, and maps BAR0. It does not yet bring the device's
// rings up — call Configure for that.
func Open(address string, numRxQueues, numTxQueues int) (*Device, error) {
	if numRxQueues < 0 || numRxQueues > 64 || numTxQueues < 0 || numTxQueues > 64 {
		return nil, ixyerr.New(ixyerr.InvalidArg, "ixgbe: queue count must be in [0, 64]")
	}

	p, err := pci.Open(address, driverName)
	if err != nil {
		return nil, err
	}

	vendor, err := p.VendorID()
	if err != nil {
		p.Close()
		return nil, err
	}
	if vendor != VendorID {
		p.Close()
		return nil, ixyerr.New(ixyerr.Unsupported, "ixgbe: not an Intel device")
	}

	deviceID, err := p.DeviceID()
	if err != nil {
		p.Close()
		return nil, err
	}
	if !IsSupportedDevice(deviceID) {
		p.Close()
		return nil, ixyerr.New(ixyerr.Unsupported, "ixgbe: unrecognized 82599-family device id")
	}

	mappable, err := p.IsMappable()
	if err != nil {
		p.Close()
		return nil, err
	}
	if !mappable {
		p.Close()
		return nil, ixyerr.New(ixyerr.Unsupported, "ixgbe: BAR0 is an I/O-port BAR, cannot map")
	}

	wasBound := p.IsBound()
	wasDMAEnabled, err := p.IsDMAEnabled()
	if err != nil {
		p.Close()
		return nil, err
	}

	if err := p.Unbind(); err != nil {
		p.Close()
		return nil, err
	}
	if err := p.EnableDMA(); err != nil {
		p.Close()
		return nil, err
	}
	if _, err := p.Map(); err != nil {
		p.Close()
		return nil, err
	}

	fctrl, err := p.GetReg(regFCTRL)
	if err != nil {
		p.Close()
		return nil, err
	}
	wasPromiscuous := fctrl&(fctrlMPE|fctrlUPE) != 0

	return &Device{
		pci:            p,
		rxQueues:       make([]*RxQueue, numRxQueues),
		txQueues:       make([]*TxQueue, numTxQueues),
		wasBound:       wasBound,
		wasDMAEnabled:  wasDMAEnabled,
		wasPromiscuous: wasPromiscuous,
	}, nil
}

// RxQueueCount reports how many RX queues were requested at Open.
func (d *Device) RxQueueCount() int { return len(d.rxQueues) }

// TxQueueCount reports how many TX queues were requested at Open.
func (d *Device) TxQueueCount() int { return len(d.txQueues) }

// Close reverts the device's DMA-enable, promiscuous-mode, and
// kernel-driver-bind state to what it was before Open, then releases the
// BAR0 mapping and config file handle. Idempotent.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	if !d.wasPromiscuous {
		d.pci.ClearFlags(regFCTRL, fctrlMPE|fctrlUPE)
	}
	if !d.wasDMAEnabled {
		d.pci.DisableDMA()
	}
	if d.wasBound {
		d.pci.Bind()
	}
	return d.pci.Close()
}
