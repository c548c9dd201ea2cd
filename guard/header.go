package guard

import (
	"errors"
	"fmt"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/internal/pages"
)

// Header field offsets within the first page of a mapping.
const (
	headerMagicOffset    = 0x00
	headerVersionOffset  = 0x04
	headerMappedOffset   = 0x08
	headerSizeOffset     = 0x10
	headerSlackOffOffset = 0x18
	headerSlackLenOffset = 0x20

	// headerSize is the encoded length; the rest of the page is canary.
	headerSize = 0x28

	headerMagic   uint32 = 0x4452474d // "MGRD"
	headerVersion uint32 = 1
)

var errBadHeader = errors.New("guard: bad header")

// Header is the metadata written at the base of every guarded mapping.
// Offsets are relative to the mapping base.
type Header struct {
	Mapped   int // total mapped bytes
	Size     int // requested block size
	SlackOff int // start of the trailing slack
	SlackLen int // bytes between the block end and the trailing guard page
}

// newHeader computes the layout for a block of size bytes.
func newHeader(size, pageSize int) (Header, error) {
	body := pages.RoundUp(size, pageSize)
	if body < size {
		return Header{}, ErrTooLarge
	}
	guards, ok := buf.MulOverflowSafe(pageSize, 2)
	if !ok {
		return Header{}, ErrTooLarge
	}
	mapped, ok := buf.AddOverflowSafe(body, guards)
	if !ok {
		return Header{}, ErrTooLarge
	}
	return Header{
		Mapped:   mapped,
		Size:     size,
		SlackOff: pageSize + size,
		SlackLen: mapped - guards - size,
	}, nil
}

// encode writes h into the first headerSize bytes of page.
func (h Header) encode(page []byte) {
	buf.PutU32LE(page[headerMagicOffset:], headerMagic)
	buf.PutU32LE(page[headerVersionOffset:], headerVersion)
	buf.PutU64LE(page[headerMappedOffset:], uint64(h.Mapped))
	buf.PutU64LE(page[headerSizeOffset:], uint64(h.Size))
	buf.PutU64LE(page[headerSlackOffOffset:], uint64(h.SlackOff))
	buf.PutU64LE(page[headerSlackLenOffset:], uint64(h.SlackLen))
}

// decodeHeader parses the header at the start of page.
func decodeHeader(page []byte) (Header, error) {
	raw, ok := buf.Slice(page, 0, headerSize)
	if !ok {
		return Header{}, fmt.Errorf("%w: page too short (%d bytes)", errBadHeader, len(page))
	}
	if magic := buf.U32LE(raw[headerMagicOffset:]); magic != headerMagic {
		return Header{}, fmt.Errorf("%w: magic 0x%08x", errBadHeader, magic)
	}
	if v := buf.U32LE(raw[headerVersionOffset:]); v != headerVersion {
		return Header{}, fmt.Errorf("%w: version %d", errBadHeader, v)
	}
	return Header{
		Mapped:   int(buf.U64LE(raw[headerMappedOffset:])),
		Size:     int(buf.U64LE(raw[headerSizeOffset:])),
		SlackOff: int(buf.U64LE(raw[headerSlackOffOffset:])),
		SlackLen: int(buf.U64LE(raw[headerSlackLenOffset:])),
	}, nil
}
