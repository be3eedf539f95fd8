// Package testutil provides hand-written fakes for exercising
// register-level logic without real hardware, in the spirit of
// table-driven unit tests backed by plain
// in-memory state rather than a mocking framework.
package testutil

import (
	"encoding/binary"
	"sync"
)

// FakeRegisterFile is an in-memory byte-addressable register file
// standing in for a mapped BAR0. It implements the same get/set/flag
// surface the real memory-mapped register region exposes, so code
// written against that surface can be driven in a unit test without a
// real PCI device.
type FakeRegisterFile struct {
	mu        sync.Mutex
	data      []byte
	autoClear map[int]uint32
}

// NewFakeRegisterFile returns a zeroed register file of size bytes.
func NewFakeRegisterFile(size int) *FakeRegisterFile {
	return &FakeRegisterFile{data: make([]byte, size)}
}

// AutoClear marks mask at offset as self-clearing: any future SetFlags
// call touching offset immediately clears those bits again, modeling a
// self-clearing hardware bit such as the 82599's CTRL.RST.
func (f *FakeRegisterFile) AutoClear(offset int, mask uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.autoClear == nil {
		f.autoClear = make(map[int]uint32)
	}
	f.autoClear[offset] |= mask
}

// GetU32 reads a little-endian 32-bit register.
func (f *FakeRegisterFile) GetU32(offset int) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return binary.LittleEndian.Uint32(f.data[offset:])
}

// PutU32 writes a little-endian 32-bit register.
func (f *FakeRegisterFile) PutU32(offset int, v uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	binary.LittleEndian.PutUint32(f.data[offset:], v)
}

// SetFlags ORs mask into the register at offset, then immediately
// clears any bits registered via AutoClear for that offset.
func (f *FakeRegisterFile) SetFlags(offset int, mask uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := binary.LittleEndian.Uint32(f.data[offset:])
	v |= mask
	v &^= f.autoClear[offset]
	binary.LittleEndian.PutUint32(f.data[offset:], v)
}

// ClearFlags AND-NOTs mask out of the register at offset.
func (f *FakeRegisterFile) ClearFlags(offset int, mask uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := binary.LittleEndian.Uint32(f.data[offset:])
	binary.LittleEndian.PutUint32(f.data[offset:], v&^mask)
}

// Peek returns the current raw register value at offset, for test
// assertions that want to inspect what code under test wrote without
// going through the get/set surface under test.
func (f *FakeRegisterFile) Peek(offset int) uint32 {
	return f.GetU32(offset)
}

// Poke sets the raw register value at offset, for test setup that needs
// to simulate a hardware-driven register change (e.g. link-up bits).
func (f *FakeRegisterFile) Poke(offset int, v uint32) {
	f.PutU32(offset, v)
}
