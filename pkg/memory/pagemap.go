package memory

import (
	"encoding/binary"
	"os"

	"github.com/ixy-go/ixy/pkg/ixyerr"
)

// pagemapEntrySize is the width of each record in /proc/self/pagemap.
const pagemapEntrySize = 8

// pfnMask extracts the physical frame number from a pagemap entry; the
// upper 9 bits carry flags (soft-dirty, swap, present) that are not part
// of the frame number.
const pfnMask = (uint64(1) << 55) - 1

// VirtToPhys resolves the physical address backing a virtual address by
// reading the process's page table via /proc/self/pagemap. It only works
// on Linux. The present bit is not inspected; an entry with a zero frame
// number (a non-present page, or a frame number hidden from an
// unprivileged reader) is reported as an IO error.
func VirtToPhys(va uintptr) (uintptr, error) {
	f, err := os.Open("/proc/self/pagemap")
	if err != nil {
		return 0, ixyerr.Wrap(ixyerr.Unsupported, "open /proc/self/pagemap", err)
	}
	defer f.Close()

	pageSize := PageSize()
	pageIndex := uint64(va) / uint64(pageSize)
	offset := int64(pageIndex * pagemapEntrySize)

	entry := make([]byte, pagemapEntrySize)
	if _, err := f.ReadAt(entry, offset); err != nil {
		return 0, ixyerr.Wrap(ixyerr.IO, "read pagemap entry", err)
	}

	raw := binary.LittleEndian.Uint64(entry)
	frame := raw & pfnMask
	if frame == 0 {
		return 0, ixyerr.New(ixyerr.IO, "pagemap entry has no physical frame (page not present)")
	}

	pa := frame*uint64(pageSize) + (uint64(va) % uint64(pageSize))
	return uintptr(pa), nil
}
