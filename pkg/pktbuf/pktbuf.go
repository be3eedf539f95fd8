// Package pktbuf defines the fixed-layout, DMA-resident packet buffer
// that flows between mempools, rings, and application code.
package pktbuf

import (
	"encoding/binary"
	"unsafe"

	"github.com/ixy-go/ixy/pkg/ixyerr"
)

const (
	offsetPA     = 0
	offsetPoolID = 8
	offsetSize   = 16

	// HeaderSize is the fixed header width preceding the payload area.
	HeaderSize = 64

	// DataOffset is HeaderSize, named separately because hardware
	// descriptor programming refers to "where the payload starts" rather
	// than "how big the header is" — the two numbers are the same value
	// but read differently at each call site.
	DataOffset = HeaderSize
)

// PacketBuffer is a view over one entry of a mempool's backing DMA
// allocation: a HeaderSize-byte header followed by a payload area. It
// never owns memory itself; the Mempool that created it owns the
// backing array for the buffer's entire lifetime.
type PacketBuffer struct {
	data []byte
}

// New wraps a raw DMA-backed byte slice (header + payload) as a
// PacketBuffer. pa is the buffer's own physical address and poolID
// identifies the owning pool; both are written into the header once and
// never mutated afterward.
func New(data []byte, pa uint64, poolID uint64) *PacketBuffer {
	b := &PacketBuffer{data: data}
	binary.LittleEndian.PutUint64(data[offsetPA:], pa)
	binary.LittleEndian.PutUint64(data[offsetPoolID:], poolID)
	binary.LittleEndian.PutUint32(data[offsetSize:], 0)
	return b
}

// PA returns the buffer's physical address, as recorded at creation.
func (b *PacketBuffer) PA() uint64 {
	return binary.LittleEndian.Uint64(b.data[offsetPA:])
}

// VA returns the buffer's virtual address — the address of its header.
func (b *PacketBuffer) VA() uintptr {
	return uintptr(unsafe.Pointer(&b.data[0]))
}

// PoolID returns the identifier of the Mempool that owns this buffer.
func (b *PacketBuffer) PoolID() uint64 {
	return binary.LittleEndian.Uint64(b.data[offsetPoolID:])
}

// Size returns the current payload length.
func (b *PacketBuffer) Size() uint32 {
	return binary.LittleEndian.Uint32(b.data[offsetSize:])
}

// SetSize declares the valid payload length, used by applications to
// mark how much of the payload area TX should transmit.
func (b *PacketBuffer) SetSize(n uint32) error {
	if int(n) > len(b.data)-HeaderSize {
		return ixyerr.New(ixyerr.InvalidArg, "pktbuf: size exceeds entry capacity")
	}
	binary.LittleEndian.PutUint32(b.data[offsetSize:], n)
	return nil
}

// Payload returns the slice of the payload area currently marked valid
// by Size.
func (b *PacketBuffer) Payload() []byte {
	return b.data[HeaderSize : HeaderSize+int(b.Size())]
}

// Data returns the full payload area, regardless of the declared Size —
// used when filling a buffer before calling SetSize.
func (b *PacketBuffer) Data() []byte {
	return b.data[HeaderSize:]
}

// Capacity returns the maximum payload length this entry can hold.
func (b *PacketBuffer) Capacity() int {
	return len(b.data) - HeaderSize
}
