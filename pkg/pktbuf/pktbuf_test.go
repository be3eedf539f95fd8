package pktbuf

import "testing"

func TestNewStampsHeaderFields(t *testing.T) {
	data := make([]byte, HeaderSize+64)
	b := New(data, 0xdeadbeef, 7)

	if b.PA() != 0xdeadbeef {
		t.Errorf("PA() = %#x, want 0xdeadbeef", b.PA())
	}
	if b.PoolID() != 7 {
		t.Errorf("PoolID() = %d, want 7", b.PoolID())
	}
	if b.Size() != 0 {
		t.Errorf("Size() = %d, want 0 on creation", b.Size())
	}
}

func TestSetSizeRejectsOverflow(t *testing.T) {
	data := make([]byte, HeaderSize+16)
	b := New(data, 1, 1)

	if err := b.SetSize(16); err != nil {
		t.Errorf("SetSize(16) with capacity 16 should succeed: %v", err)
	}
	if err := b.SetSize(17); err == nil {
		t.Error("SetSize(17) with capacity 16 should fail")
	}
}

func TestPayloadReflectsDeclaredSize(t *testing.T) {
	data := make([]byte, HeaderSize+16)
	b := New(data, 1, 1)
	copy(b.Data(), []byte{1, 2, 3, 4})
	if err := b.SetSize(4); err != nil {
		t.Fatalf("SetSize: %v", err)
	}

	got := b.Payload()
	want := []byte{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("Payload() length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Payload()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestVAIsAddressOfHeader(t *testing.T) {
	data := make([]byte, HeaderSize+16)
	b := New(data, 1, 1)
	if b.VA() == 0 {
		t.Error("expected a non-zero VA")
	}
}
