//go:build windows

package pages

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// OS maps memory with VirtualAlloc and protects it with VirtualProtect.
type OS struct{}

// PageSize returns the system page size.
func (*OS) PageSize() int {
	return windows.Getpagesize()
}

// Map commits n bytes of zeroed read-write memory.
func (*OS) Map(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrBadLength
	}
	addr, err := windows.VirtualAlloc(0, uintptr(n), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("pages: VirtualAlloc %d bytes: %w", n, err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n), nil
}

// Unmap releases a mapping previously returned by Map.
func (*OS) Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&b[0]))
	return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}

// Protect changes the access of a page-aligned range.
func (*OS) Protect(b []byte, access Access) error {
	if len(b) == 0 {
		return nil
	}
	var prot uint32
	switch access {
	case None:
		prot = windows.PAGE_NOACCESS
	case Read:
		prot = windows.PAGE_READONLY
	case ReadWrite:
		prot = windows.PAGE_READWRITE
	default:
		return fmt.Errorf("pages: unknown access %d", access)
	}
	var old uint32
	addr := uintptr(unsafe.Pointer(&b[0]))
	if err := windows.VirtualProtect(addr, uintptr(len(b)), prot, &old); err != nil {
		return fmt.Errorf("pages: VirtualProtect %s: %w", access, err)
	}
	return nil
}
