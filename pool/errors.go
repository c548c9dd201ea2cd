package pool

import "errors"

var (
	// ErrExhausted indicates that every slot is in use.
	ErrExhausted = errors.New("pool: no free slot")

	// ErrNotOwned indicates a pointer that does not address a slot of this pool.
	ErrNotOwned = errors.New("pool: pointer not owned by pool")

	// ErrDoubleRelease indicates a release of a slot that is already free.
	// Only reported when Options.CheckDoubleRelease is set.
	ErrDoubleRelease = errors.New("pool: slot released twice")
)
