package mempool

import (
	"testing"

	"github.com/ixy-go/ixy/pkg/memory"
	"github.com/ixy-go/ixy/pkg/pktbuf"
)

func newTestPool(t *testing.T, capacity, entrySize int) *Mempool {
	t.Helper()
	p, err := CreateWithAllocKind(capacity, entrySize, memory.Standard)
	if err != nil {
		t.Fatalf("CreateWithAllocKind: %v", err)
	}
	return p
}

func TestFillDrain(t *testing.T) {
	p := newTestPool(t, 4, 2048)

	for i := 0; i < 4; i++ {
		if _, ok := p.Acquire(); !ok {
			t.Fatalf("Acquire %d: expected success", i)
		}
	}
	if _, ok := p.Acquire(); ok {
		t.Fatal("expected pool to be exhausted after 4 acquires")
	}
}

func TestConservationAcrossAcquireRelease(t *testing.T) {
	p := newTestPool(t, 8, 2048)

	held := make([]*pktbuf.PacketBuffer, 0, 8)
	for i := 0; i < 8; i++ {
		buf, ok := p.Acquire()
		if !ok {
			t.Fatalf("Acquire %d failed", i)
		}
		held = append(held, buf)
	}
	if p.Available() != 0 {
		t.Fatalf("Available() = %d, want 0 while all buffers are held", p.Available())
	}

	for _, buf := range held {
		if err := p.Release(buf); err != nil {
			t.Fatalf("Release: %v", err)
		}
	}
	if p.Available() != 8 {
		t.Fatalf("Available() = %d, want 8 after releasing all buffers", p.Available())
	}
}

func TestReleaseRejectsForeignBuffer(t *testing.T) {
	a := newTestPool(t, 2, 2048)
	b := newTestPool(t, 2, 2048)

	buf, ok := b.Acquire()
	if !ok {
		t.Fatal("Acquire from pool b failed")
	}
	if err := a.Release(buf); err == nil {
		t.Error("expected Release to reject a buffer from a different pool")
	}
}

func TestAcquireBatch(t *testing.T) {
	p := newTestPool(t, 5, 2048)

	out := make([]*pktbuf.PacketBuffer, 3)
	n := p.AcquireBatch(out)
	if n != 3 {
		t.Fatalf("AcquireBatch returned %d, want 3", n)
	}
	if p.Available() != 2 {
		t.Fatalf("Available() = %d, want 2", p.Available())
	}

	rest := make([]*pktbuf.PacketBuffer, 10)
	n = p.AcquireBatch(rest)
	if n != 2 {
		t.Fatalf("AcquireBatch returned %d, want 2 (pool should be dry after)", n)
	}
}

func TestFindByIDLocatesRegisteredPool(t *testing.T) {
	p := newTestPool(t, 2, 2048)
	found, ok := FindByID(p.ID())
	if !ok {
		t.Fatal("expected FindByID to locate the freshly created pool")
	}
	if found.ID() != p.ID() {
		t.Errorf("FindByID returned a pool with id %d, want %d", found.ID(), p.ID())
	}
}
