// Package canary stamps and verifies the marker byte written into the slack
// area behind a guarded block.
package canary

// Marker is the fill byte. It is unlikely to appear in zeroed or ASCII data.
const Marker byte = 0xE1

// Stamp fills b with Marker.
func Stamp(b []byte) {
	for i := range b {
		b[i] = Marker
	}
}

// Check reports whether every byte of b still equals Marker.
func Check(b []byte) bool {
	return FirstMismatch(b) < 0
}

// FirstMismatch returns the index of the first byte that differs from Marker,
// or -1 when b is intact.
func FirstMismatch(b []byte) int {
	for i, c := range b {
		if c != Marker {
			return i
		}
	}
	return -1
}

// Mismatches counts the bytes of b that differ from Marker.
func Mismatches(b []byte) int {
	n := 0
	for _, c := range b {
		if c != Marker {
			n++
		}
	}
	return n
}
