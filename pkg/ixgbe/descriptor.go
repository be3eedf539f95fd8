package ixgbe

import "encoding/binary"

// descriptorSize is the width of one hardware ring descriptor, RX and TX
// alike, on the 82599.
const descriptorSize = 16

// rx writeback field bits, within the status/error dword at byte offset 8.
const (
	rxWBDescriptorDone = 1 << 0
	rxWBEndOfPacket    = 1 << 1
)

// tx descriptor command bits, packed into the dword at byte offset 8
// alongside the packet length.
const (
	txCmdEOP  = 1 << 24
	txCmdIFCS = 1 << 25
	txCmdRS   = 1 << 27
	txCmdDEXT = 1 << 29
	txDTYPData = 0x3 << 20

	txPayloadLengthShift = 14

	txWBDescriptorDone = 1 << 0
)

// descriptor is a view over one 16-byte ring slot.
type descriptor []byte

func descriptorAt(ring []byte, i int) descriptor {
	return descriptor(ring[i*descriptorSize : (i+1)*descriptorSize])
}

// --- RX descriptor accessors ---

func (d descriptor) setRxBufferPA(pa uint64) {
	binary.LittleEndian.PutUint64(d[0:8], pa)
	binary.LittleEndian.PutUint64(d[8:16], 0)
}

func (d descriptor) rxDone() bool {
	status := binary.LittleEndian.Uint32(d[8:12])
	return status&rxWBDescriptorDone != 0
}

func (d descriptor) rxEndOfPacket() bool {
	status := binary.LittleEndian.Uint32(d[8:12])
	return status&rxWBEndOfPacket != 0
}

func (d descriptor) rxLength() uint32 {
	return uint32(binary.LittleEndian.Uint16(d[12:14]))
}

// --- TX descriptor accessors ---

func (d descriptor) setTxBufferPA(pa uint64) {
	binary.LittleEndian.PutUint64(d[0:8], pa)
}

func (d descriptor) setTxCommand(length uint32) {
	cmdTypeLen := uint32(txCmdEOP|txCmdIFCS|txCmdRS|txCmdDEXT|txDTYPData) | length
	binary.LittleEndian.PutUint32(d[8:12], cmdTypeLen)
	binary.LittleEndian.PutUint32(d[12:16], length<<txPayloadLengthShift)
}

func (d descriptor) txDone() bool {
	status := binary.LittleEndian.Uint32(d[12:16])
	return status&txWBDescriptorDone != 0
}
