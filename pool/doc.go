// Package pool provides a fixed-capacity typed slot allocator.
//
// # Overview
//
// A Pool[T] owns a contiguous []T of N slots and an index-linked table that
// threads every slot onto either a free chain or a used chain. Alloc pops the
// free head and pushes it onto the used head; Release unlinks a slot from
// anywhere in the used chain and pushes it back onto the free head. Both are
// O(1) and never touch the Go allocator after construction.
//
//	p := pool.New[Particle](1024, nil)
//	defer p.Close()
//
//	obj := p.Alloc()
//	if obj == nil {
//	    // pool exhausted
//	}
//	obj.X, obj.Y = 1, 2
//	_ = p.Release(obj)
//
// # Construction and Destruction
//
// Alloc hands out a zero-valued T. AllocWith runs a constructor on the slot;
// if the constructor returns an error or panics, the reservation is rolled
// back and the slot returns to the head of the free chain untouched by any
// destructor.
//
// When *T implements Destroyer, Release calls Destroy before the slot is
// zeroed and recycled. ReleaseAll and Close destroy live objects in used-chain
// order: most recently allocated first when nothing was released in between.
// Destroy must not release other objects of the same pool while ReleaseAll is
// walking the chain.
//
// # Addresses
//
// Slots are laid out back to back, so consecutive allocations from a fresh
// pool are exactly unsafe.Sizeof(T) bytes apart and a freed slot's address is
// the next one handed out. Release maps a pointer to its slot by offset from
// the storage base; pointers outside the storage are rejected with ErrNotOwned.
//
// # Hazards
//
// Releasing the same pointer twice corrupts the free chain. This is not
// checked by default. Set Options.CheckDoubleRelease to scan the free chain on
// every release and get ErrDoubleRelease instead, at O(free slots) per call.
//
// # Fatal Conditions
//
// A zero capacity, a zero-sized T, or a broken chain invariant is reported to
// Options.OnFatal. The default handler logs and panics; a pool is never
// returned in that state.
//
// # Thread Safety
//
// Pool instances are not thread-safe. Wrap them in Locked, or synchronize
// externally, before sharing across goroutines.
package pool
