package pool

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/internal/fatal"
	"github.com/joshuapare/memkit/internal/logger"
	"github.com/joshuapare/memkit/internal/slots"
)

// Destroyer is implemented by element types that need cleanup when their
// slot is released. Destroy must not release other objects of the same pool.
type Destroyer interface {
	Destroy()
}

// Pool is a fixed-capacity allocator of T values.
type Pool[T any] struct {
	storage []T
	table   *slots.Table
	size    int
	elem    uintptr // unsafe.Sizeof(T)
	name    string  // element type name for diagnostics

	checkDoubleRelease bool
	log                *slog.Logger
	fatal              fatal.Handler
}

// New returns a pool of capacity slots. A zero or negative capacity, a
// zero-sized T, or a capacity whose storage size overflows is fatal.
func New[T any](capacity int, opts *Options) *Pool[T] {
	if opts == nil {
		opts = &Options{}
	}
	log := logger.Or(opts.Logger)

	h := fatal.Default(log)
	if opts.OnFatal != nil {
		onFatal := opts.OnFatal
		h = func(e *fatal.Error) { onFatal(e) }
	}

	var zero T
	name := reflect.TypeFor[T]().String()
	elem := unsafe.Sizeof(zero)

	if capacity <= 0 {
		fatal.Config(h, "pool: capacity must be positive, got %d", capacity)
	}
	if elem == 0 {
		fatal.Config(h, "pool: element type %s has zero size", name)
	}
	if _, ok := buf.MulOverflowSafe(capacity, int(elem)); !ok {
		fatal.Config(h, "pool: %d slots of %s (%d bytes) overflow", capacity, name, elem)
	}

	p := &Pool[T]{
		storage:            make([]T, capacity),
		table:              slots.New(capacity),
		size:               capacity,
		elem:               elem,
		name:               name,
		checkDoubleRelease: opts.CheckDoubleRelease,
		log:                log,
		fatal:              h,
	}
	log.Debug("pool: new", "type", name, "size", capacity, "elem", elem)
	return p
}

// Size returns the number of slots. It never changes.
func (p *Pool[T]) Size() int { return p.size }

// Capacity returns the number of free slots, or 0 after Close.
func (p *Pool[T]) Capacity() int {
	if p.table == nil {
		return 0
	}
	return p.table.Free()
}

// Used returns the number of live objects.
func (p *Pool[T]) Used() int {
	if p.table == nil {
		return 0
	}
	return p.table.Used()
}

// Alloc returns a zero-valued T from a free slot, or nil when the pool is
// exhausted or closed.
func (p *Pool[T]) Alloc() *T {
	idx, ok := p.reserve()
	if !ok {
		return nil
	}
	return &p.storage[idx]
}

// AllocWith reserves a slot and runs ctor on it. If ctor fails or panics the
// reservation is rolled back: the slot is zeroed and becomes the next one
// handed out, and no destructor runs. Returns ErrExhausted when no slot is free.
func (p *Pool[T]) AllocWith(ctor func(*T) error) (*T, error) {
	idx, ok := p.reserve()
	if !ok {
		return nil, ErrExhausted
	}
	obj := &p.storage[idx]
	if ctor == nil {
		return obj, nil
	}

	committed := false
	defer func() {
		if !committed {
			p.rollback(idx)
		}
	}()
	if err := ctor(obj); err != nil {
		return nil, fmt.Errorf("pool: construct %s in slot %d: %w", p.name, idx, err)
	}
	committed = true
	return obj, nil
}

// Release destroys obj and returns its slot to the free chain. A nil obj is a
// no-op. A pointer outside this pool's storage leaves the pool untouched and
// returns ErrNotOwned.
func (p *Pool[T]) Release(obj *T) error {
	if obj == nil {
		return nil
	}
	idx, ok := p.index(obj)
	if !ok {
		return ErrNotOwned
	}

	if p.checkDoubleRelease && p.table.IsFree(idx) {
		p.log.Error("pool: release called twice", "type", p.name, "slot", idx, "addr", unsafe.Pointer(obj))
		return fmt.Errorf("%w: slot %d", ErrDoubleRelease, idx)
	}

	p.destroy(idx)
	p.table.Release(idx)
	p.trace("pool: free", idx)
	return nil
}

// ReleaseAll destroys every live object, most recently allocated first, and
// returns all slots to the free chain.
func (p *Pool[T]) ReleaseAll() {
	if p.table == nil || p.table.Used() == 0 {
		return
	}
	count := 0
	p.table.EachUsed(func(idx int) {
		p.destroy(idx)
		p.table.Release(idx)
		count++
	})
	p.log.Debug("pool: released all", "type", p.name, "count", count)
	fatal.Verify(p.fatal, p.table.Used() == 0,
		"pool: %d slots of %s still used after release all", p.table.Used(), p.name)
}

// Close releases every live object and drops the storage. Later Alloc calls
// return nil and Release reports ErrNotOwned.
func (p *Pool[T]) Close() {
	p.ReleaseAll()
	p.storage = nil
	p.table = nil
}

// Owns reports whether obj addresses a slot of this pool, live or free.
func (p *Pool[T]) Owns(obj *T) bool {
	_, ok := p.index(obj)
	return obj != nil && ok
}

// Verify walks the free and used chains and checks that every slot is on
// exactly one of them and the used count agrees.
func (p *Pool[T]) Verify() error {
	if p.table == nil {
		return nil
	}
	if err := p.table.Verify(); err != nil {
		return fmt.Errorf("pool %s: %w", p.name, err)
	}
	return nil
}

// reserve moves a slot onto the used chain and zero-constructs it.
func (p *Pool[T]) reserve() (int, bool) {
	if p.table == nil {
		return slots.None, false
	}
	idx, ok, err := p.table.Reserve()
	if !ok {
		p.log.Debug("pool: insufficient storage", "type", p.name, "size", p.size)
		return slots.None, false
	}
	if err != nil {
		fatal.Verify(p.fatal, false, "pool %s: %v", p.name, err)
	}

	var zero T
	p.storage[idx] = zero
	p.trace("pool: alloc", idx)
	return idx, true
}

// rollback undoes a reservation whose constructor failed.
func (p *Pool[T]) rollback(idx int) {
	var zero T
	p.storage[idx] = zero
	p.table.Release(idx)
	p.log.Debug("pool: construct failed, slot returned", "type", p.name, "slot", idx)
}

// destroy runs the element destructor and clears the slot so the garbage
// collector does not see stale references.
func (p *Pool[T]) destroy(idx int) {
	obj := &p.storage[idx]
	if d, ok := any(obj).(Destroyer); ok {
		d.Destroy()
	}
	var zero T
	*obj = zero
}

// index maps a pointer to its slot by offset from the storage base.
func (p *Pool[T]) index(obj *T) (int, bool) {
	if len(p.storage) == 0 || obj == nil {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(p.storage)))
	addr := uintptr(unsafe.Pointer(obj))
	if addr < base {
		return 0, false
	}
	off := addr - base
	if off%p.elem != 0 {
		return 0, false
	}
	idx := off / p.elem
	if idx >= uintptr(len(p.storage)) {
		return 0, false
	}
	return int(idx), true
}

func (p *Pool[T]) trace(msg string, idx int) {
	if !p.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	p.log.Debug(msg, "type", p.name, "slot", idx, "addr", unsafe.Pointer(&p.storage[idx]))
}
