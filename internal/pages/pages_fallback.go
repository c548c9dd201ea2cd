//go:build !unix && !windows

package pages

import (
	"errors"
	"fmt"
	"os"
)

// OS hands out ordinary heap memory when virtual memory calls are not
// available. Protection is unsupported.
type OS struct{}

// PageSize returns the runtime's notion of the page size.
func (*OS) PageSize() int {
	return os.Getpagesize()
}

// Map allocates n zeroed bytes on the Go heap.
func (*OS) Map(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrBadLength
	}
	return make([]byte, n), nil
}

// Unmap drops the reference; the garbage collector reclaims the memory.
func (*OS) Unmap([]byte) error {
	return nil
}

// Protect always fails on this platform.
func (*OS) Protect(_ []byte, access Access) error {
	return fmt.Errorf("pages: protect %s: %w", access, errors.ErrUnsupported)
}
