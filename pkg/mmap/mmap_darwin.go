//go:build darwin

package mmap

import (
	"syscall"
	"unsafe"
)

const (
	protRead  = syscall.PROT_READ
	mapShared = syscall.MAP_SHARED
	// MADV_SEQUENTIAL from <sys/mman.h>; syscall has no Madvise on darwin.
	madvSequential = 2
)

func mmap(fd int, length int) ([]byte, error) {
	return syscall.Mmap(fd, 0, length, protRead, mapShared)
}

func munmap(b []byte) error {
	return syscall.Munmap(b)
}

func adviseSequential(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	_, _, errno := syscall.Syscall(syscall.SYS_MADVISE,
		uintptr(unsafe.Pointer(&b[0])), uintptr(len(b)), uintptr(madvSequential))
	if errno != 0 {
		return errno
	}
	return nil
}
