// Package mempool implements the bounded LIFO free list of packet
// buffers that RX/TX rings and application code draw from and return to.
package mempool

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ixy-go/ixy/pkg/ixyerr"
	"github.com/ixy-go/ixy/pkg/memory"
	"github.com/ixy-go/ixy/pkg/pktbuf"
)

var (
	idSeq      uint64
	registryMu sync.RWMutex
	registry   = map[uint64]*Mempool{}
)

// Mempool is a fixed-capacity set of packet buffers carved out of one
// DMA allocation, with a LIFO free list governing which entries are
// currently available for Acquire.
type Mempool struct {
	mu        sync.Mutex
	id        uint64
	entrySize int
	backing   *memory.DMAMemory
	free      []*pktbuf.PacketBuffer
}

// Create allocates capacity*entrySize bytes of huge-page DMA memory,
// slices it into capacity entries, and registers a fresh Mempool backed
// by them — all initially free. entrySize must evenly divide the system
// huge page size.
func Create(capacity, entrySize int) (*Mempool, error) {
	if capacity <= 0 || entrySize <= pktbuf.HeaderSize {
		return nil, ixyerr.New(ixyerr.InvalidArg, "mempool: capacity and entrySize must be positive, entrySize > header size")
	}

	hugeSize, err := memory.HugePageSize()
	if err != nil {
		return nil, err
	}
	if hugeSize%entrySize != 0 {
		return nil, ixyerr.New(ixyerr.InvalidArg, "mempool: entrySize must evenly divide the huge page size")
	}

	return CreateWithAllocKind(capacity, entrySize, memory.Huge)
}

// CreateWithAllocKind is the shared constructor body. Callers that need a
// pool without a hugetlbfs mount — test code in this package and in
// packages that build on it — pass memory.Standard directly.
func CreateWithAllocKind(capacity, entrySize int, kind memory.AllocKind) (*Mempool, error) {
	dma, err := memory.DMAAllocate(capacity*entrySize, kind, memory.AnyLayout)
	if err != nil {
		return nil, err
	}

	id := atomic.AddUint64(&idSeq, 1)
	p := &Mempool{
		id:        id,
		entrySize: entrySize,
		backing:   dma,
		free:      make([]*pktbuf.PacketBuffer, 0, capacity),
	}

	backing := unsafe.Slice((*byte)(unsafe.Pointer(dma.VA)), dma.Size)
	for i := 0; i < capacity; i++ {
		entry := backing[i*entrySize : (i+1)*entrySize]
		pa := uint64(dma.PA) + uint64(i*entrySize)
		buf := pktbuf.New(entry, pa, id)
		p.free = append(p.free, buf)
	}

	registryMu.Lock()
	registry[id] = p
	registryMu.Unlock()

	return p, nil
}

// ID returns this pool's process-wide unique identifier.
func (p *Mempool) ID() uint64 {
	return p.id
}

// EntrySize returns the fixed size (header + payload capacity) of every
// buffer in this pool.
func (p *Mempool) EntrySize() int {
	return p.entrySize
}

// Acquire pops one buffer off the free list. ok is false if the pool is
// currently exhausted.
func (p *Mempool) Acquire() (buf *pktbuf.PacketBuffer, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.free)
	if n == 0 {
		return nil, false
	}
	buf = p.free[n-1]
	p.free = p.free[:n-1]
	return buf, true
}

// AcquireBatch pops up to len(out) buffers, returning the count actually
// popped. It never blocks: a short count means the pool ran dry.
func (p *Mempool) AcquireBatch(out []*pktbuf.PacketBuffer) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for n < len(out) {
		avail := len(p.free)
		if avail == 0 {
			break
		}
		out[n] = p.free[avail-1]
		p.free = p.free[:avail-1]
		n++
	}
	return n
}

// Release returns a buffer to this pool's free list. buf must have been
// acquired from this same pool.
func (p *Mempool) Release(buf *pktbuf.PacketBuffer) error {
	if buf.PoolID() != p.id {
		return ixyerr.New(ixyerr.InvalidState, "mempool: buffer does not belong to this pool")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, buf)
	return nil
}

// Available reports how many buffers are currently free.
func (p *Mempool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// FindByID looks up a registered pool by its id — used when a caller
// holds a buffer but not a direct reference to the pool it came from.
func FindByID(id uint64) (*Mempool, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[id]
	return p, ok
}
