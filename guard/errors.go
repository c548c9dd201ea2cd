package guard

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize indicates a request for zero or negative bytes.
	ErrInvalidSize = errors.New("guard: size must be positive")

	// ErrTooLarge indicates a request whose mapping size would overflow.
	ErrTooLarge = errors.New("guard: size too large")

	// ErrMapFailed indicates the page provider could not supply the mapping.
	ErrMapFailed = errors.New("guard: mapping failed")

	// ErrProtectFailed indicates the guard pages could not be protected.
	ErrProtectFailed = errors.New("guard: protect failed")

	// ErrNotGuarded indicates a slice that is not a live guarded block.
	ErrNotGuarded = errors.New("guard: not a guarded block")

	// ErrCorrupted matches every *CorruptionError.
	ErrCorrupted = errors.New("guard: block corrupted")

	// ErrOverflow matches corruption of the trailing slack.
	ErrOverflow = errors.New("guard: overflow")

	// ErrUnderflow matches corruption of the header page.
	ErrUnderflow = errors.New("guard: underflow")
)

// Region names the part of a mapping that was found damaged.
type Region string

const (
	RegionSlack  Region = "slack"
	RegionHeader Region = "header"
)

// CorruptionError describes damaged canary or header bytes found in a guarded
// block. Offset is relative to the start of the user block, so slack damage
// has Offset >= Size and header damage has a negative Offset.
type CorruptionError struct {
	Region  Region
	Addr    uintptr // user block address
	Size    int     // requested block size
	Offset  int     // first damaged byte relative to Addr
	Damaged int     // number of altered bytes in the region
	Total   int     // size of the checked region
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("guard: %s corrupted around %d-byte block at 0x%x: %d of %d bytes altered, first at %+d",
		e.Region, e.Size, e.Addr, e.Damaged, e.Total, e.Offset)
}

// Is matches ErrCorrupted, and ErrOverflow or ErrUnderflow by region.
func (e *CorruptionError) Is(target error) bool {
	switch target {
	case ErrCorrupted:
		return true
	case ErrOverflow:
		return e.Region == RegionSlack
	case ErrUnderflow:
		return e.Region == RegionHeader
	}
	return false
}
