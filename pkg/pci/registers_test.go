package pci

import (
	"testing"

	"github.com/ixy-go/ixy/testutil"
)

func TestGetSetRegRoundTrip(t *testing.T) {
	fake := testutil.NewFakeRegisterFile(64)
	d := NewForTest(fake)

	if err := d.SetReg(0x10, 0xCAFEBABE); err != nil {
		t.Fatalf("SetReg: %v", err)
	}
	got, err := d.GetReg(0x10)
	if err != nil {
		t.Fatalf("GetReg: %v", err)
	}
	if got != 0xCAFEBABE {
		t.Errorf("GetReg(0x10) = %#x, want 0xcafebabe", got)
	}
}

func TestSetClearFlags(t *testing.T) {
	fake := testutil.NewFakeRegisterFile(64)
	d := NewForTest(fake)

	if err := d.SetReg(0x20, 0x0000FF00); err != nil {
		t.Fatalf("SetReg: %v", err)
	}
	if err := d.SetFlags(0x20, 0x000000FF); err != nil {
		t.Fatalf("SetFlags: %v", err)
	}
	if got := fake.Peek(0x20); got != 0x0000FFFF {
		t.Fatalf("after SetFlags = %#x, want 0x0000ffff", got)
	}
	if err := d.ClearFlags(0x20, 0x0000FF00); err != nil {
		t.Fatalf("ClearFlags: %v", err)
	}
	if got := fake.Peek(0x20); got != 0x000000FF {
		t.Fatalf("after ClearFlags = %#x, want 0x000000ff", got)
	}
}

func TestWaitSetFlagsReturnsImmediatelyWhenAlreadySet(t *testing.T) {
	fake := testutil.NewFakeRegisterFile(64)
	fake.Poke(0x30, 0x00000001)
	d := NewForTest(fake)

	if err := d.WaitSetFlags(0x30, 0x00000001); err != nil {
		t.Fatalf("WaitSetFlags: %v", err)
	}
}

func TestWaitClearFlagsReturnsImmediatelyWhenAlreadyClear(t *testing.T) {
	fake := testutil.NewFakeRegisterFile(64)
	d := NewForTest(fake)

	if err := d.WaitClearFlags(0x30, 0x00000001); err != nil {
		t.Fatalf("WaitClearFlags: %v", err)
	}
}

func TestWaitAndSetRegisterWritesOnceIdle(t *testing.T) {
	fake := testutil.NewFakeRegisterFile(64)
	d := NewForTest(fake)

	if err := d.WaitAndSetRegister(0x40, 0x12345678); err != nil {
		t.Fatalf("WaitAndSetRegister: %v", err)
	}
	if got := fake.Peek(0x40); got != 0x12345678 {
		t.Fatalf("Peek(0x40) = %#x, want 0x12345678", got)
	}
}

func TestGetRegFailsOnUnmappedDevice(t *testing.T) {
	d := &Device{}
	if _, err := d.GetReg(0x10); err == nil {
		t.Fatal("expected an error reading a register on a device with no BAR0 mapped")
	}
}
