// Package memory provides the hugepage-backed DMA allocator and the
// virtual-to-physical address translation the rest of the driver builds
// on. Nothing above this package touches mmap, /proc/self/pagemap, or
// hugetlbfs directly.
package memory

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ixy-go/ixy/pkg/ixyerr"
)

// AllocKind selects where DMA memory is backed from.
type AllocKind int

const (
	// Standard allocates ordinary anonymous pages.
	Standard AllocKind = iota
	// Huge allocates from a mounted hugetlbfs filesystem.
	Huge
)

// LayoutKind constrains the physical layout of a DMA allocation.
type LayoutKind int

const (
	// AnyLayout makes no contiguity guarantee beyond what the kind provides.
	AnyLayout LayoutKind = iota
	// Contiguous requires the whole allocation to fit within one huge page.
	Contiguous
)

var allocSeq uint64

// DMAMemory is a virtually and physically addressed allocation.
type DMAMemory struct {
	VA   uintptr
	PA   uintptr
	Size int
}

// HugePageSize returns the system's huge page size in bytes, read from
// /proc/meminfo. It fails Unsupported if no hugetlbfs is mounted or
// hugepages are not configured.
func HugePageSize() (int, error) {
	if _, err := HugetlbfsMountPoint(); err != nil {
		return 0, err
	}

	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, ixyerr.Wrap(ixyerr.IO, "open /proc/meminfo", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Hugepagesize:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		kb, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, ixyerr.Wrap(ixyerr.IO, "parse Hugepagesize", err)
		}
		return kb * 1024, nil
	}
	return 0, ixyerr.New(ixyerr.Unsupported, "no Hugepagesize entry in /proc/meminfo")
}

// PageSize returns the process's base page size.
func PageSize() int {
	return os.Getpagesize()
}

// AddressSize returns the width in bytes of a pointer on this platform.
func AddressSize() int {
	return int(unsafe.Sizeof(uintptr(0)))
}

// HugetlbfsMountPoint finds a mounted hugetlbfs filesystem by scanning
// /etc/mtab, the same source the rest of the Linux hugepage ecosystem
// relies on.
func HugetlbfsMountPoint() (string, error) {
	f, err := os.Open("/etc/mtab")
	if err != nil {
		return "", ixyerr.Wrap(ixyerr.IO, "open /etc/mtab", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		if fields[2] == "hugetlbfs" {
			return fields[1], nil
		}
	}
	return "", ixyerr.New(ixyerr.Unsupported, "no hugetlbfs mount found in /etc/mtab")
}

// DMAAllocate allocates size bytes of DMA-capable memory. When kind is
// Huge, size is rounded up to a multiple of the huge page size and the
// allocation is backed by a file inside the hugetlbfs mount, unlinked
// immediately so it disappears with the process. When layout is
// Contiguous, the rounded size must not exceed one huge page.
func DMAAllocate(size int, kind AllocKind, layout LayoutKind) (*DMAMemory, error) {
	if size <= 0 {
		return nil, ixyerr.New(ixyerr.InvalidArg, "DMAAllocate: size must be positive")
	}

	if kind != Huge {
		return allocateStandard(size)
	}

	hugeSize, err := HugePageSize()
	if err != nil {
		return nil, err
	}
	rounded := roundUp(size, hugeSize)
	if layout == Contiguous && rounded > hugeSize {
		return nil, ixyerr.New(ixyerr.InvalidArg, "DMAAllocate: contiguous request exceeds one huge page")
	}

	mount, err := HugetlbfsMountPoint()
	if err != nil {
		return nil, err
	}

	id := atomic.AddUint64(&allocSeq, 1)
	path := fmt.Sprintf("%s/ixy-%d-%d", mount, os.Getpid(), id)

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR, 0700)
	if err != nil {
		return nil, ixyerr.FromErrno(err, "open hugetlbfs backing file")
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(rounded)); err != nil {
		unix.Unlink(path)
		return nil, ixyerr.FromErrno(err, "ftruncate hugetlbfs backing file")
	}

	data, err := unix.Mmap(fd, 0, rounded, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	unix.Unlink(path)
	if err != nil {
		return nil, ixyerr.FromErrno(err, "mmap hugetlbfs backing file")
	}

	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, ixyerr.FromErrno(err, "mlock DMA allocation")
	}

	va := uintptr(unsafe.Pointer(&data[0]))
	pa, err := VirtToPhys(va)
	if err != nil {
		unix.Munmap(data)
		return nil, err
	}

	return &DMAMemory{VA: va, PA: pa, Size: rounded}, nil
}

func allocateStandard(size int) (*DMAMemory, error) {
	rounded := roundUp(size, PageSize())
	data, err := unix.Mmap(-1, 0, rounded, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, ixyerr.FromErrno(err, "mmap anonymous DMA allocation")
	}
	// Touch every page so it is backed by a physical frame before the
	// pagemap lookup; an untouched anonymous page has no frame yet.
	for off := 0; off < rounded; off += PageSize() {
		data[off] = 0
	}
	va := uintptr(unsafe.Pointer(&data[0]))
	pa, err := VirtToPhys(va)
	if err != nil {
		unix.Munmap(data)
		return nil, err
	}
	return &DMAMemory{VA: va, PA: pa, Size: rounded}, nil
}

// DMAFree releases a previously allocated DMA region.
func DMAFree(m *DMAMemory) error {
	if m == nil || m.VA == 0 {
		return ixyerr.New(ixyerr.InvalidState, "DMAFree: double free or nil allocation")
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(m.VA)), m.Size)
	if err := unix.Munmap(data); err != nil {
		return ixyerr.FromErrno(err, "munmap DMA allocation")
	}
	m.VA = 0
	return nil
}

func roundUp(n, multiple int) int {
	if multiple == 0 {
		return n
	}
	rem := n % multiple
	if rem == 0 {
		return n
	}
	return n + multiple - rem
}
