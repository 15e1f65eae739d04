// Package platform backs the jit's executable-memory host surface: requesting
// anonymous read/write pages and later transitioning them to read+execute once
// a backend has written machine code into them. Grounded on MmapCodeSegment
// and MunmapCodeSegment in the teacher's internal/platform/mmap_linux.go.
package platform

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrNotMapped names the error for a slice this package did not itself
// return from Map. MapRX and Unmap do not check where a slice came from and
// never return it.
var ErrNotMapped = errors.New("platform: slice was not produced by Map")

// Map requests size bytes of anonymous, read-write memory, suitable for a
// JIT backend to write machine code into before calling MapRX. The mapping
// address is never hinted: the source runtime's own map call passed its own
// function's address as a hint, which looks like a bug rather than a
// deliberate choice, so this always passes a nil hint to mmap.
func Map(size int) ([]byte, error) {
	if size == 0 {
		panic("BUG: platform.Map with zero length")
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrap(err, "platform: mmap failed")
	}
	return mem, nil
}

// MapRX transitions a region previously returned by Map from read-write to
// read+execute, after the caller has finished writing code into it.
func MapRX(mem []byte) error {
	if len(mem) == 0 {
		panic("BUG: platform.MapRX with zero length")
	}
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return errors.Wrap(err, "platform: mprotect to RX failed")
	}
	return nil
}

// Unmap releases a region previously returned by Map.
func Unmap(mem []byte) error {
	if len(mem) == 0 {
		panic("BUG: platform.Unmap with zero length")
	}
	if err := unix.Munmap(mem); err != nil {
		return errors.Wrap(err, "platform: munmap failed")
	}
	return nil
}
