// Package slots implements the index-linked bookkeeping behind a fixed-size
// pool: a node table parallel to the pool's storage, threaded into a free
// chain and a used chain.
//
// Every index is on exactly one chain. Reserve moves the free head to the
// used head; Release unlinks an index from wherever it sits in the used
// chain and pushes it back onto the free head. Both are O(1).
//
// A Table is not safe for concurrent use.
package slots

import (
	"errors"
	"fmt"
)

// None is the sentinel link value.
const None = -1

var (
	// ErrStaleLink indicates a freshly reserved node whose prev link was not cleared.
	ErrStaleLink = errors.New("slots: reserved node has a stale prev link")

	// ErrChainBroken indicates a chain whose prev/next links disagree or that revisits an index.
	ErrChainBroken = errors.New("slots: chain links inconsistent")

	// ErrCountMismatch indicates chain lengths that disagree with the used count.
	ErrCountMismatch = errors.New("slots: chain lengths disagree with used count")
)

type node struct {
	prev int
	next int
}

// Table tracks which of n slots are free and which are in use.
type Table struct {
	nodes    []node
	freeHead int
	usedHead int
	used     int
}

// New returns a table of n slots, all on the free chain in index order.
// n must be positive.
func New(n int) *Table {
	if n <= 0 {
		panic(fmt.Sprintf("slots: table size must be positive, got %d", n))
	}
	t := &Table{nodes: make([]node, n)}
	t.Reset()
	return t
}

// Reset puts every slot back on the free chain in index order.
func (t *Table) Reset() {
	n := len(t.nodes)
	for i := range t.nodes {
		t.nodes[i] = node{prev: i - 1, next: i + 1}
	}
	t.nodes[0].prev = None
	t.nodes[n-1].next = None
	t.freeHead = 0
	t.usedHead = None
	t.used = 0
}

// Len returns the number of slots.
func (t *Table) Len() int { return len(t.nodes) }

// Used returns the number of reserved slots.
func (t *Table) Used() int { return t.used }

// Free returns the number of available slots.
func (t *Table) Free() int { return len(t.nodes) - t.used }

// UsedHead returns the most recently reserved index still in use, or None.
func (t *Table) UsedHead() int { return t.usedHead }

// FreeHead returns the index the next Reserve will hand out, or None.
func (t *Table) FreeHead() int { return t.freeHead }

// Next returns the index following i on its chain, or None.
func (t *Table) Next(i int) int { return t.nodes[i].next }

// Reserve pops the free head and pushes it onto the used head.
// ok is false when no slot is free. err is non-nil only when the popped node
// carried a stale prev link, which means the chains were already corrupt.
func (t *Table) Reserve() (idx int, ok bool, err error) {
	if t.freeHead == None {
		return None, false, nil
	}

	idx = t.freeHead
	n := &t.nodes[idx]

	// Detach from the free chain
	if n.next != None {
		t.nodes[n.next].prev = None
	}
	t.freeHead = n.next

	// Attach to the used chain
	n.next = t.usedHead
	if n.next != None {
		t.nodes[n.next].prev = idx
	}
	t.usedHead = idx
	t.used++

	if n.prev != None {
		return idx, true, fmt.Errorf("%w: index %d prev=%d", ErrStaleLink, idx, n.prev)
	}
	return idx, true, nil
}

// Release unlinks idx from the used chain and pushes it onto the free head.
// The caller guarantees idx is currently in use; releasing a free index
// corrupts the free chain. Use IsFree first when that cannot be guaranteed.
func (t *Table) Release(idx int) {
	n := &t.nodes[idx]

	// The node may be the head, in the middle, or the tail of the used chain
	if n.prev != None {
		t.nodes[n.prev].next = n.next
	}
	if n.next != None {
		t.nodes[n.next].prev = n.prev
	}
	if t.usedHead == idx {
		t.usedHead = n.next
	}

	n.prev = None
	n.next = t.freeHead
	if n.next != None {
		t.nodes[n.next].prev = idx
	}
	t.freeHead = idx
	t.used--
}

// IsFree scans the free chain for idx. O(free slots).
func (t *Table) IsFree(idx int) bool {
	steps := 0
	for i := t.freeHead; i != None; i = t.nodes[i].next {
		if i == idx {
			return true
		}
		// A corrupted chain can loop; never walk more nodes than exist
		if steps++; steps > len(t.nodes) {
			return false
		}
	}
	return false
}

// EachUsed calls fn for every used index from the used head towards the tail,
// i.e. most recently reserved first. fn may release the index it is given.
func (t *Table) EachUsed(fn func(idx int)) {
	steps := 0
	for i := t.usedHead; i != None; {
		next := t.nodes[i].next
		fn(i)
		i = next
		if steps++; steps > len(t.nodes) {
			return
		}
	}
}

// Verify walks both chains and checks that they are well linked, disjoint,
// cover every index, and agree with the used count.
func (t *Table) Verify() error {
	seen := make([]bool, len(t.nodes))

	walk := func(name string, head int) (int, error) {
		count := 0
		prev := None
		for i := head; i != None; i = t.nodes[i].next {
			if i < 0 || i >= len(t.nodes) {
				return count, fmt.Errorf("%w: %s chain index %d out of range", ErrChainBroken, name, i)
			}
			if seen[i] {
				return count, fmt.Errorf("%w: %s chain revisits index %d", ErrChainBroken, name, i)
			}
			if t.nodes[i].prev != prev {
				return count, fmt.Errorf("%w: %s chain index %d has prev=%d, want %d",
					ErrChainBroken, name, i, t.nodes[i].prev, prev)
			}
			seen[i] = true
			prev = i
			count++
		}
		return count, nil
	}

	freeCount, err := walk("free", t.freeHead)
	if err != nil {
		return err
	}
	usedCount, err := walk("used", t.usedHead)
	if err != nil {
		return err
	}

	if usedCount != t.used || freeCount+usedCount != len(t.nodes) {
		return fmt.Errorf("%w: free=%d used=%d count=%d len=%d",
			ErrCountMismatch, freeCount, usedCount, t.used, len(t.nodes))
	}
	return nil
}
