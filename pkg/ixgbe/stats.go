package ixgbe

import "github.com/ixy-go/ixy/pkg/stats"

// ReadStats reads the hardware's free-running packet/byte counters.
// GORCL/GORCH and GOTCL/GOTCH form 64-bit counters where reading the low
// half arms the high half for that counter; this function always reads
// low before high with no intervening register access, per the 82599
// datasheet's requirement.
func (d *Device) ReadStats() (stats.Counters, error) {
	rxPackets, err := d.pci.GetReg(regGPRC)
	if err != nil {
		return stats.Counters{}, err
	}
	txPackets, err := d.pci.GetReg(regGPTC)
	if err != nil {
		return stats.Counters{}, err
	}

	rxBytesLo, err := d.pci.GetReg(regGORCL)
	if err != nil {
		return stats.Counters{}, err
	}
	rxBytesHi, err := d.pci.GetReg(regGORCH)
	if err != nil {
		return stats.Counters{}, err
	}

	txBytesLo, err := d.pci.GetReg(regGOTCL)
	if err != nil {
		return stats.Counters{}, err
	}
	txBytesHi, err := d.pci.GetReg(regGOTCH)
	if err != nil {
		return stats.Counters{}, err
	}

	return stats.Counters{
		RxPackets: uint64(rxPackets),
		RxBytes:   uint64(rxBytesLo) | uint64(rxBytesHi)<<32,
		TxPackets: uint64(txPackets),
		TxBytes:   uint64(txBytesLo) | uint64(txBytesHi)<<32,
	}, nil
}
