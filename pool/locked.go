package pool

import "sync"

// Locked serializes access to a Pool with a mutex, for callers that share a
// pool across goroutines.
type Locked[T any] struct {
	mu sync.Mutex
	p  *Pool[T]
}

// NewLocked returns a mutex-guarded pool of capacity slots.
func NewLocked[T any](capacity int, opts *Options) *Locked[T] {
	return &Locked[T]{p: New[T](capacity, opts)}
}

// Alloc is Pool.Alloc under the lock.
func (l *Locked[T]) Alloc() *T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Alloc()
}

// AllocWith is Pool.AllocWith under the lock. ctor runs while the lock is held.
func (l *Locked[T]) AllocWith(ctor func(*T) error) (*T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.AllocWith(ctor)
}

// Release is Pool.Release under the lock.
func (l *Locked[T]) Release(obj *T) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Release(obj)
}

// ReleaseAll is Pool.ReleaseAll under the lock.
func (l *Locked[T]) ReleaseAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.p.ReleaseAll()
}

// Capacity is Pool.Capacity under the lock.
func (l *Locked[T]) Capacity() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Capacity()
}

// Size returns the number of slots.
func (l *Locked[T]) Size() int { return l.p.Size() }

// Close is Pool.Close under the lock.
func (l *Locked[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.p.Close()
}

// Do runs fn with exclusive access to the underlying pool.
func (l *Locked[T]) Do(fn func(p *Pool[T])) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.p)
}
