package memory

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ixy-go/ixy/pkg/ixyerr"
)

// MmapFile maps size bytes of path for read/write, shared, starting at
// offset 0. It is used to map a PCI resource file (BAR0) and does not
// unlink or lock anything — the caller owns the returned Region and the
// open file descriptor is closed before returning, matching how a BAR
// mapping survives its originating fd's closure.
func MmapFile(path string, size int) (Region, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, ixyerr.FromErrno(err, "open "+path)
	}
	defer unix.Close(fd)

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, ixyerr.FromErrno(err, "mmap "+path)
	}
	return Region(data), nil
}

// UnmapFile releases a Region obtained from MmapFile.
func UnmapFile(r Region) error {
	if r == nil {
		return nil
	}
	if err := unix.Munmap([]byte(r)); err != nil {
		return ixyerr.FromErrno(err, "munmap region")
	}
	return nil
}

// VA returns the virtual address backing a Region, for callers (like the
// DMA allocator) that need to hand the address itself to hardware.
func VA(r Region) uintptr {
	if len(r) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&r[0]))
}
