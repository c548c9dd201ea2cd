//go:build unix

package pages

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// OS maps memory with mmap(2) and protects it with mprotect(2).
type OS struct{}

// PageSize returns the kernel page size.
func (*OS) PageSize() int {
	return unix.Getpagesize()
}

// Map returns n bytes of private anonymous memory.
func (*OS) Map(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrBadLength
	}
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("pages: mmap %d bytes: %w", n, err)
	}
	return data, nil
}

// Unmap releases a mapping previously returned by Map.
func (*OS) Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	err := unix.Munmap(b)
	if errors.Is(err, unix.EINVAL) {
		return fmt.Errorf("pages: munmap: not an active mapping: %w", err)
	}
	return err
}

// Protect changes the access of a page-aligned range.
func (*OS) Protect(b []byte, access Access) error {
	if len(b) == 0 {
		return nil
	}
	var prot int
	switch access {
	case None:
		prot = unix.PROT_NONE
	case Read:
		prot = unix.PROT_READ
	case ReadWrite:
		prot = unix.PROT_READ | unix.PROT_WRITE
	default:
		return fmt.Errorf("pages: unknown access %d", access)
	}
	if err := unix.Mprotect(b, prot); err != nil {
		return fmt.Errorf("pages: mprotect %s: %w", access, err)
	}
	return nil
}
