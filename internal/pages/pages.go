// Package pages provides page-granularity anonymous memory for the guarded
// allocator: page size queries, rounding, and map/unmap/protect.
package pages

import "errors"

// Access is the protection applied to a page range.
type Access int

const (
	// None makes the range inaccessible; any touch faults.
	None Access = iota
	// Read allows loads only.
	Read
	// ReadWrite allows loads and stores.
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case None:
		return "none"
	case Read:
		return "read"
	case ReadWrite:
		return "read-write"
	default:
		return "unknown"
	}
}

// ErrBadLength indicates a mapping request of zero or negative length.
var ErrBadLength = errors.New("pages: length must be positive")

// Provider maps, unmaps and protects anonymous memory at page granularity.
//
// Map returns zero-initialized read-write memory whose length is the requested
// size. Unmap must be given the exact slice returned by Map. Protect operates
// on page-aligned sub-slices of a mapping.
type Provider interface {
	PageSize() int
	Map(n int) ([]byte, error)
	Unmap(b []byte) error
	Protect(b []byte, access Access) error
}

// RoundUp rounds n up to the next multiple of page. It is the identity when n
// is already a multiple.
func RoundUp(n, page int) int {
	if page <= 0 {
		return n
	}
	if r := n % page; r != 0 {
		return n + (page - r)
	}
	return n
}

// System returns the provider backed by the operating system.
func System() *OS {
	return &OS{}
}

// Size returns the operating system page size.
func Size() int {
	return System().PageSize()
}
