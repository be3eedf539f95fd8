package ixgbe

import (
	"encoding/binary"
	"testing"
)

func TestDescriptorRxRoundTrip(t *testing.T) {
	ring := make([]byte, descriptorSize)
	d := descriptorAt(ring, 0)
	d.setRxBufferPA(0xABCD1234)

	if got := binary.LittleEndian.Uint64(ring[0:8]); got != 0xABCD1234 {
		t.Errorf("buffer PA = %#x, want 0xabcd1234", got)
	}
	if d.rxDone() {
		t.Error("expected a freshly programmed RX descriptor to not be done")
	}
}

func TestDescriptorTxCommandEncodesLength(t *testing.T) {
	ring := make([]byte, descriptorSize)
	d := descriptorAt(ring, 0)
	d.setTxBufferPA(0x1000)
	d.setTxCommand(64)

	if got := binary.LittleEndian.Uint32(ring[8:12]) & 0xFFFF; got != 64 {
		t.Errorf("cmd/type/length length field = %d, want 64", got)
	}
	if got := binary.LittleEndian.Uint32(ring[12:16]) >> txPayloadLengthShift; got != 64 {
		t.Errorf("payload length field = %d, want 64", got)
	}
	if d.txDone() {
		t.Error("a freshly programmed TX descriptor should not read as done before writeback")
	}
}

// TestRxWritebackFieldsMatchHardwareLayout pins the RX accessors to the
// literal byte offsets of the 82599 Advanced RX Descriptor write-back
// format (union ixgbe_adv_rx_desc): status/error at bytes 8-11, length
// at bytes 12-13. It writes the raw bytes directly rather than going
// through setRxBufferPA/markRxDone, so a future offset regression in the
// accessors cannot pass by being self-consistent with itself.
func TestRxWritebackFieldsMatchHardwareLayout(t *testing.T) {
	ring := make([]byte, descriptorSize)
	d := descriptorAt(ring, 0)

	binary.LittleEndian.PutUint32(ring[8:12], rxWBDescriptorDone|rxWBEndOfPacket)
	binary.LittleEndian.PutUint16(ring[12:14], 1500)

	if !d.rxDone() {
		t.Error("rxDone() = false, want true when DD is set at byte offset 8")
	}
	if !d.rxEndOfPacket() {
		t.Error("rxEndOfPacket() = false, want true when EOP is set at byte offset 8")
	}
	if got := d.rxLength(); got != 1500 {
		t.Errorf("rxLength() = %d, want 1500 read from byte offset 12", got)
	}
}

func TestDescriptorAtIndexesCorrectSlot(t *testing.T) {
	ring := make([]byte, 4*descriptorSize)
	descriptorAt(ring, 2).setRxBufferPA(0x42)

	for i := 0; i < 4; i++ {
		pa := descriptorAt(ring, i)
		if i == 2 {
			if got := binary.LittleEndian.Uint64(pa[0:8]); got != 0x42 {
				t.Errorf("slot 2 PA = %#x, want 0x42", got)
			}
			continue
		}
		if got := binary.LittleEndian.Uint64(pa[0:8]); got != 0 {
			t.Errorf("slot %d PA = %#x, want 0 (untouched)", i, got)
		}
		if pa.rxDone() {
			t.Errorf("slot %d unexpectedly marked done", i)
		}
	}
}
