package guard

import (
	"errors"

	"github.com/joshuapare/memkit/internal/pages"
)

// fakePages is a heap-backed page provider with a fixed page size that
// records every call.
type fakePages struct {
	pageSize int
	failMap  error
	failProt error

	mapped   [][]byte
	unmapped [][]byte
	protects []protectCall
}

type protectCall struct {
	off    int // offset of the range within its mapping
	n      int
	access pages.Access
}

func newFakePages(pageSize int) *fakePages {
	return &fakePages{pageSize: pageSize}
}

func (f *fakePages) PageSize() int { return f.pageSize }

func (f *fakePages) Map(n int) ([]byte, error) {
	if f.failMap != nil {
		return nil, f.failMap
	}
	if n <= 0 {
		return nil, pages.ErrBadLength
	}
	b := make([]byte, n)
	f.mapped = append(f.mapped, b)
	return b, nil
}

func (f *fakePages) Unmap(b []byte) error {
	for _, m := range f.mapped {
		if &m[0] == &b[0] && len(m) == len(b) {
			f.unmapped = append(f.unmapped, b)
			return nil
		}
	}
	return errors.New("fake: not a mapping")
}

func (f *fakePages) Protect(b []byte, access pages.Access) error {
	if f.failProt != nil {
		return f.failProt
	}
	off := -1
	for _, m := range f.mapped {
		base := addrOf(m)
		p := addrOf(b)
		if p >= base && p < base+uintptr(len(m)) {
			off = int(p - base)
		}
	}
	f.protects = append(f.protects, protectCall{off: off, n: len(b), access: access})
	return nil
}

// countingHeap records plain allocations and frees.
type countingHeap struct {
	allocs int
	frees  [][]byte
}

func (h *countingHeap) Alloc(size int) []byte {
	h.allocs++
	return make([]byte, size)
}

func (h *countingHeap) Free(b []byte) {
	h.frees = append(h.frees, b)
}
