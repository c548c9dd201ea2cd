package guard

import (
	"slices"
)

// block is the allocator's own record of a live guarded mapping. It is kept
// outside the mapping so a damaged header page cannot mislead Free.
type block struct {
	mapping   []byte
	header    Header
	protected bool
}

// Registry tracks live guarded blocks by header address.
type Registry struct {
	blocks map[uintptr]*block
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{blocks: make(map[uintptr]*block)}
}

// Len returns the number of live guarded blocks.
func (r *Registry) Len() int { return len(r.blocks) }

// Contains reports whether hdr is the header address of a live block.
func (r *Registry) Contains(hdr uintptr) bool {
	_, ok := r.blocks[hdr]
	return ok
}

func (r *Registry) add(hdr uintptr, b *block) { r.blocks[hdr] = b }

func (r *Registry) lookup(hdr uintptr) (*block, bool) {
	b, ok := r.blocks[hdr]
	return b, ok
}

func (r *Registry) remove(hdr uintptr) { delete(r.blocks, hdr) }

// addrs returns the live header addresses in ascending order.
func (r *Registry) addrs() []uintptr {
	out := make([]uintptr, 0, len(r.blocks))
	for hdr := range r.blocks {
		out = append(out, hdr)
	}
	slices.Sort(out)
	return out
}
