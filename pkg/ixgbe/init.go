package ixgbe

import (
	"math/bits"
	"time"

	"github.com/ixy-go/ixy/pkg/ixyerr"
	"github.com/ixy-go/ixy/pkg/mempool"
	"github.com/ixy-go/ixy/pkg/memory"
	"github.com/ixy-go/ixy/pkg/pktbuf"
)

const (
	mempoolEntrySize  = 2048
	minMempoolEntries = 4096
	linkWaitTimeout   = 10 * time.Second
)

// Configure brings the device's RX and TX rings up, following the
// reset -> link -> stats -> rx -> tx -> start-rx -> start-tx ->
// promiscuous -> wait-link sequence the 82599 datasheet prescribes.
// entries must be a power of two and is used for every queue.
func (d *Device) Configure(entries int) error {
	if d.configured {
		return ixyerr.New(ixyerr.InvalidState, "ixgbe: already configured")
	}
	if entries <= 0 || bits.OnesCount(uint(entries)) != 1 {
		return ixyerr.New(ixyerr.InvalidArg, "ixgbe: entries must be a power of two")
	}

	if err := d.resetLink(); err != nil {
		return err
	}
	if err := d.initLink(); err != nil {
		return err
	}
	d.initStats()
	if err := d.initRX(entries); err != nil {
		return err
	}
	if err := d.initTX(entries); err != nil {
		return err
	}
	if err := d.startRX(); err != nil {
		return err
	}
	if err := d.startTX(); err != nil {
		return err
	}
	if err := d.enablePromiscuous(); err != nil {
		return err
	}
	if _, err := d.WaitLink(linkWaitTimeout); err != nil {
		return err
	}

	d.configured = true
	return nil
}

// resetLink is phase 1: disable interrupts, assert and wait out a global
// reset, then disable interrupts again (the reset re-arms them).
func (d *Device) resetLink() error {
	if err := d.pci.SetReg(regEIMC, 0xFFFFFFFF); err != nil {
		return err
	}
	if err := d.pci.SetFlags(regCTRL, ctrlRstMask); err != nil {
		return err
	}
	if err := d.pci.WaitClearFlags(regCTRL, ctrlRstMask); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	return d.pci.SetReg(regEIMC, 0xFFFFFFFF)
}

// initLink is phase 2: wait for the EEPROM auto-read and DMA init done
// bits, then program the MAC for 10G serial and restart autonegotiation.
func (d *Device) initLink() error {
	if err := d.pci.WaitSetFlags(regEEC, eecARD); err != nil {
		return err
	}
	if err := d.pci.WaitSetFlags(regRDRXCTL, rdrxctlDMAIDONE); err != nil {
		return err
	}

	autoc, err := d.pci.GetReg(regAUTOC)
	if err != nil {
		return err
	}
	autoc = (autoc &^ uint32(0x7<<autocLMS10GSerialShift)) | autocLMS10GSerial
	autoc = (autoc &^ uint32(0x3<<autocPMAPMDShift)) | autocPMAPMDXAUI
	if err := d.pci.SetReg(regAUTOC, autoc); err != nil {
		return err
	}
	return d.pci.SetFlags(regAUTOC, autocANRestart)
}

// initStats is phase 3: read every hardware counter once so the first
// delta computed later reflects activity after Configure, not whatever
// the NIC had accumulated before this process started.
func (d *Device) initStats() {
	_, _ = d.ReadStats()
}

// initRX is phase 4: program the RX packet-buffer sizing, CRC stripping,
// broadcast-accept, and each queue's descriptor ring and SRRCTL.
func (d *Device) initRX(entries int) error {
	if err := d.pci.ClearFlags(regRXCTRL, 1); err != nil {
		return err
	}

	if err := d.pci.SetReg(rxPBSize(0), 128*1024); err != nil {
		return err
	}
	for i := 1; i < 8; i++ {
		if err := d.pci.SetReg(rxPBSize(i), 0); err != nil {
			return err
		}
	}

	if err := d.pci.SetFlags(regHLREG0, hlreg0RXCRCSTRP); err != nil {
		return err
	}
	if err := d.pci.SetFlags(regRDRXCTL, rdrxctlCRCSTRIP); err != nil {
		return err
	}
	if err := d.pci.SetFlags(regFCTRL, fctrlBAM); err != nil {
		return err
	}

	for i := range d.rxQueues {
		if err := d.pci.SetReg(srrctl(i), srrctlDescTypeAdvOneBuf|srrctlDropEn); err != nil {
			return err
		}

		ring, err := memory.DMAAllocate(entries*descriptorSize, memory.Huge, memory.Contiguous)
		if err != nil {
			return err
		}
		ringBytes := memoryRegionBytes(ring)

		if err := d.pci.SetReg(rdbal(i), uint32(ring.PA)); err != nil {
			return err
		}
		if err := d.pci.SetReg(rdbah(i), uint32(ring.PA>>32)); err != nil {
			return err
		}
		if err := d.pci.SetReg(rdlen(i), uint32(entries*descriptorSize)); err != nil {
			return err
		}
		if err := d.pci.SetReg(rdh(i), 0); err != nil {
			return err
		}
		if err := d.pci.SetReg(rdt(i), 0); err != nil {
			return err
		}

		d.rxQueues[i] = newRxQueue(i, entries, ringBytes, nil)

		if err := d.pci.SetFlags(regCTRLEXT, ctrlExtNSDis); err != nil {
			return err
		}
		dcaOff := dcaRxCtrl(i)
		if err := d.pci.ClearFlags(dcaOff, 1<<12); err != nil {
			return err
		}
	}

	return d.pci.SetFlags(regRXCTRL, 1)
}

// initTX is phase 5: program TX CRC/padding, packet-buffer sizing, the
// arbiter, and each queue's descriptor ring and writeback thresholds.
func (d *Device) initTX(entries int) error {
	if err := d.pci.SetFlags(regHLREG0, hlreg0TXCRCEN|hlreg0TXPADEN); err != nil {
		return err
	}

	if err := d.pci.SetReg(txPBSize(0), 40*1024); err != nil {
		return err
	}
	for i := 1; i < 8; i++ {
		if err := d.pci.SetReg(txPBSize(i), 0); err != nil {
			return err
		}
	}
	if err := d.pci.SetReg(regDTXMXSZRQ, 0xFFFF); err != nil {
		return err
	}
	if err := d.pci.ClearFlags(regRTTDCS, rttdcsARBDIS); err != nil {
		return err
	}

	for i := range d.txQueues {
		ring, err := memory.DMAAllocate(entries*descriptorSize, memory.Huge, memory.Contiguous)
		if err != nil {
			return err
		}
		ringBytes := memoryRegionBytes(ring)

		if err := d.pci.SetReg(tdbal(i), uint32(ring.PA)); err != nil {
			return err
		}
		if err := d.pci.SetReg(tdbah(i), uint32(ring.PA>>32)); err != nil {
			return err
		}
		if err := d.pci.SetReg(tdlen(i), uint32(entries*descriptorSize)); err != nil {
			return err
		}
		if err := d.pci.SetReg(txdctl(i), txdctlPTHRESH|txdctlHTHRESH|txdctlWTHRESH); err != nil {
			return err
		}

		d.txQueues[i] = newTxQueue(i, entries, ringBytes)
	}

	return d.pci.SetFlags(regDMATXCTL, 1)
}

// startRX is phase 6: allocate each queue's packet-buffer pool, fill the
// entire ring with fresh buffers, and enable the queue.
func (d *Device) startRX() error {
	for i, q := range d.rxQueues {
		capacity := minMempoolEntries
		if need := q.entries + txEntriesOf(d, i); need > capacity {
			capacity = need
		}
		pool, err := mempool.Create(capacity, mempoolEntrySize)
		if err != nil {
			return err
		}
		q.pool = pool

		for j := 0; j < q.entries; j++ {
			buf, ok := pool.Acquire()
			if !ok {
				return ixyerr.New(ixyerr.OutOfMemory, "ixgbe: mempool exhausted filling RX ring")
			}
			descriptorAt(q.ring, j).setRxBufferPA(buf.PA() + uint64(pktbuf.DataOffset))
			q.bufs[j] = buf
		}

		if err := d.pci.SetFlags(rxdctl(i), rxdctlEnable); err != nil {
			return err
		}
		if err := d.pci.WaitSetFlags(rxdctl(i), rxdctlEnable); err != nil {
			return err
		}
		if err := d.pci.SetReg(rdh(i), 0); err != nil {
			return err
		}
		if err := d.pci.SetReg(rdt(i), uint32(q.entries-1)); err != nil {
			return err
		}
	}
	return nil
}

func txEntriesOf(d *Device, i int) int {
	if i < len(d.txQueues) && d.txQueues[i] != nil {
		return d.txQueues[i].entries
	}
	return 0
}

// startTX is phase 7: zero the head/tail cursors and enable each queue.
func (d *Device) startTX() error {
	for i := range d.txQueues {
		if err := d.pci.SetReg(tdh(i), 0); err != nil {
			return err
		}
		if err := d.pci.SetReg(tdt(i), 0); err != nil {
			return err
		}
		if err := d.pci.SetFlags(txdctl(i), txdctlEnable); err != nil {
			return err
		}
		if err := d.pci.WaitSetFlags(txdctl(i), txdctlEnable); err != nil {
			return err
		}
	}
	return nil
}

// enablePromiscuous is phase 8.
func (d *Device) enablePromiscuous() error {
	return d.pci.SetFlags(regFCTRL, fctrlMPE|fctrlUPE)
}

// WaitLink is phase 9: poll LINKS until the link-up bit is set or
// timeout elapses, returning the negotiated speed.
func (d *Device) WaitLink(timeout time.Duration) (LinkSpeed, error) {
	deadline := time.Now().Add(timeout)
	for {
		links, err := d.pci.GetReg(regLINKS)
		if err != nil {
			return LinkSpeedUnknown, err
		}
		if links&linksLinkUp != 0 {
			return decodeLinkSpeed(links), nil
		}
		if time.Now().After(deadline) {
			return LinkSpeedUnknown, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func memoryRegionBytes(m *memory.DMAMemory) []byte {
	return memory.MapRegion(m.VA, m.Size)
}
