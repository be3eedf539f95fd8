package testutil

import "testing"

func TestFakeRegisterFileGetSet(t *testing.T) {
	f := NewFakeRegisterFile(64)
	f.PutU32(8, 0xDEADBEEF)
	if got := f.GetU32(8); got != 0xDEADBEEF {
		t.Fatalf("GetU32(8) = %#x, want 0xDEADBEEF", got)
	}
}

func TestFakeRegisterFileSetClearFlags(t *testing.T) {
	f := NewFakeRegisterFile(64)
	f.PutU32(0, 0x0000FF00)
	f.SetFlags(0, 0x000000FF)
	if got := f.GetU32(0); got != 0x0000FFFF {
		t.Fatalf("after SetFlags = %#x, want 0x0000ffff", got)
	}
	f.ClearFlags(0, 0x0000FF00)
	if got := f.GetU32(0); got != 0x000000FF {
		t.Fatalf("after ClearFlags = %#x, want 0x000000ff", got)
	}
}

func TestFakeRegisterFileAutoClear(t *testing.T) {
	f := NewFakeRegisterFile(64)
	f.AutoClear(0, 0x00000004)
	f.SetFlags(0, 0x00000004|0x00000001)
	if got := f.GetU32(0); got != 0x00000001 {
		t.Fatalf("GetU32(0) = %#x, want 0x00000001 (auto-cleared bit should not persist)", got)
	}
}

func TestFakeRegisterFilePokePeek(t *testing.T) {
	f := NewFakeRegisterFile(64)
	f.Poke(16, 0x12345678)
	if got := f.Peek(16); got != 0x12345678 {
		t.Fatalf("Peek(16) = %#x, want 0x12345678", got)
	}
}
