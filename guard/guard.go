package guard

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/hashicorp/go-multierror"

	"github.com/joshuapare/memkit/internal/canary"
	"github.com/joshuapare/memkit/internal/logger"
	"github.com/joshuapare/memkit/internal/pages"
)

// Allocator hands out guarded and plain blocks and routes Free to the right
// one. The zero value is not usable; call New.
type Allocator struct {
	pages   pages.Provider
	heap    Heap
	reg     *Registry
	log     *slog.Logger
	protect bool
}

// New returns an allocator configured by opts.
func New(opts *Options) *Allocator {
	if opts == nil {
		opts = &Options{}
	}
	a := &Allocator{
		pages:   opts.Pages,
		heap:    opts.Heap,
		reg:     opts.Registry,
		log:     logger.Or(opts.Logger),
		protect: opts.ProtectPages,
	}
	if a.pages == nil {
		a.pages = pages.System()
	}
	if a.heap == nil {
		a.heap = goHeap{}
	}
	if a.reg == nil {
		a.reg = NewRegistry()
	}
	return a
}

// PageSize returns the page size used for guarded mappings.
func (a *Allocator) PageSize() int { return a.pages.PageSize() }

// Live returns the number of guarded blocks not yet freed.
func (a *Allocator) Live() int { return a.reg.Len() }

// Registry returns the registry of live guarded blocks.
func (a *Allocator) Registry() *Registry { return a.reg }

// Alloc returns a plain heap block of size bytes.
func (a *Allocator) Alloc(size int) []byte {
	return a.heap.Alloc(size)
}

// AllocGuarded returns a zeroed block of size bytes in its own mapping,
// bracketed by a header page in front and a guard page behind. Mapping
// failure is returned as ErrMapFailed and leaves no state behind.
func (a *Allocator) AllocGuarded(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	ps := a.pages.PageSize()
	h, err := newHeader(size, ps)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes", err, size)
	}

	mapping, err := a.pages.Map(h.Mapped)
	if err != nil {
		a.log.Warn("guard: mapping failed", "size", size, "mapped", h.Mapped, "err", err)
		return nil, fmt.Errorf("%w: %d bytes: %w", ErrMapFailed, h.Mapped, err)
	}

	front := mapping[:ps]
	h.encode(front)
	canary.Stamp(front[headerSize:])
	canary.Stamp(mapping[h.SlackOff : h.SlackOff+h.SlackLen])

	blk := &block{mapping: mapping, header: h}
	if a.protect {
		if err := a.protectGuards(blk, pages.None); err != nil {
			_ = a.pages.Unmap(mapping)
			return nil, err
		}
		blk.protected = true
	}

	hdr := addrOf(mapping)
	a.reg.add(hdr, blk)

	user := mapping[ps : ps+size : h.Mapped-ps]
	a.log.Info("guard: alloc", "addr", unsafe.Pointer(unsafe.SliceData(user)), "size", size, "mapped", h.Mapped,
		"protected", blk.protected)
	return user, nil
}

// Free releases b. A live guarded block is checked for corruption, then its
// whole mapping is unmapped; damage is reported in the returned error as a
// *CorruptionError after the memory is gone. Any other slice goes to the Heap.
//
// b must start where the slice returned by AllocGuarded started. Freeing a
// guarded block twice hands the second call to the Heap.
func (a *Allocator) Free(b []byte) error {
	blk, hdr, ok := a.find(b)
	if !ok {
		a.heap.Free(b)
		return nil
	}
	return a.release(hdr, blk)
}

// Check verifies the canaries of a live guarded block without freeing it.
// With page protection on, only the trailing slack can be inspected.
func (a *Allocator) Check(b []byte) error {
	blk, _, ok := a.find(b)
	if !ok {
		return ErrNotGuarded
	}
	var result *multierror.Error
	for _, err := range a.inspect(blk) {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Close frees every live guarded block in address order and returns all
// corruption and unmap errors encountered.
func (a *Allocator) Close() error {
	var result *multierror.Error
	for _, hdr := range a.reg.addrs() {
		blk, _ := a.reg.lookup(hdr)
		if err := a.release(hdr, blk); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// find reconstructs the header address from the user slice and looks it up.
func (a *Allocator) find(b []byte) (*block, uintptr, bool) {
	if cap(b) == 0 {
		return nil, 0, false
	}
	hdr := uintptr(unsafe.Pointer(unsafe.SliceData(b))) - uintptr(a.pages.PageSize())
	blk, ok := a.reg.lookup(hdr)
	return blk, hdr, ok
}

func (a *Allocator) release(hdr uintptr, blk *block) error {
	var result *multierror.Error

	if blk.protected {
		if err := a.protectGuards(blk, pages.ReadWrite); err != nil {
			result = multierror.Append(result, err)
		} else {
			blk.protected = false
		}
	}

	a.log.Info("guard: free", "header", unsafe.Pointer(unsafe.SliceData(blk.mapping)), "size", blk.header.Size)

	for _, err := range a.inspect(blk) {
		result = multierror.Append(result, err)
	}

	if err := a.pages.Unmap(blk.mapping); err != nil {
		result = multierror.Append(result, fmt.Errorf("guard: unmap %d bytes: %w", blk.header.Mapped, err))
	}
	a.reg.remove(hdr)
	return result.ErrorOrNil()
}

// inspect checks the header page, unless it is protected, and the trailing slack.
func (a *Allocator) inspect(blk *block) []error {
	var errs []error
	if !blk.protected {
		if err := a.checkHeader(blk); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.checkSlack(blk); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func (a *Allocator) checkSlack(blk *block) error {
	h := blk.header
	slack := blk.mapping[h.SlackOff : h.SlackOff+h.SlackLen]
	first := canary.FirstMismatch(slack)
	if first < 0 {
		return nil
	}
	err := &CorruptionError{
		Region:  RegionSlack,
		Addr:    a.userAddr(blk),
		Size:    h.Size,
		Offset:  h.Size + first,
		Damaged: canary.Mismatches(slack),
		Total:   len(slack),
	}
	a.log.Error("guard: overflow detected", "addr", hex(err.Addr), "size", h.Size, "offset", err.Offset,
		"damaged", err.Damaged, "slack", err.Total)
	return err
}

func (a *Allocator) checkHeader(blk *block) error {
	ps := a.pages.PageSize()
	front := blk.mapping[:ps]

	damaged := 0
	first := -1
	decoded, err := decodeHeader(front)
	if err != nil || decoded != blk.header {
		// Count header bytes that no longer match a fresh encoding.
		want := make([]byte, headerSize)
		blk.header.encode(want)
		for i := range want {
			if front[i] != want[i] {
				if first < 0 {
					first = i
				}
				damaged++
			}
		}
	}
	rest := front[headerSize:]
	if i := canary.FirstMismatch(rest); i >= 0 {
		if first < 0 {
			first = headerSize + i
		}
		damaged += canary.Mismatches(rest)
	}
	if damaged == 0 {
		return nil
	}

	cerr := &CorruptionError{
		Region:  RegionHeader,
		Addr:    a.userAddr(blk),
		Size:    blk.header.Size,
		Offset:  first - ps,
		Damaged: damaged,
		Total:   ps,
	}
	a.log.Error("guard: header page corrupted", "addr", hex(cerr.Addr), "size", cerr.Size, "offset", cerr.Offset,
		"damaged", damaged)
	return cerr
}

// protectGuards applies access to the header page and the trailing page.
func (a *Allocator) protectGuards(blk *block, access pages.Access) error {
	ps := a.pages.PageSize()
	m := blk.mapping
	if err := a.pages.Protect(m[:ps], access); err != nil {
		return fmt.Errorf("%w: header page: %w", ErrProtectFailed, err)
	}
	if err := a.pages.Protect(m[len(m)-ps:], access); err != nil {
		return fmt.Errorf("%w: trailing page: %w", ErrProtectFailed, err)
	}
	return nil
}

func (a *Allocator) userAddr(blk *block) uintptr {
	return addrOf(blk.mapping) + uintptr(a.pages.PageSize())
}

func addrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

func hex(addr uintptr) string {
	return fmt.Sprintf("0x%x", addr)
}
