// Package guard provides a debugging allocator that brackets each block with
// guard pages and a canary-stamped slack area to catch out-of-bounds writes.
//
// # Layout
//
// A guarded block of n bytes is backed by its own anonymous mapping of
// RoundUp(n, page) + 2 pages:
//
//	+-----------+---------------------------+-----------+
//	| header    | user block | slack        | guard     |
//	| page      | n bytes    | 0xE1 ...     | page      |
//	+-----------+---------------------------+-----------+
//	^ base      ^ base + page
//
// The first page holds the block header followed by canary bytes. The user
// block always starts exactly one page past the mapping base; Free relies on
// that to find the header from the user slice. The slack between the end of
// the user block and the trailing guard page is stamped with canary.Marker.
//
// The returned slice has len n and cap RoundUp(n, page), so reslicing up to
// cap(b) reaches the slack without leaving the mapping.
//
// # Detection Modes
//
// By default nothing is protected and damage is found retroactively: Free
// compares the slack and front page against the marker and reports a
// *CorruptionError. With Options.ProtectPages the header page and the
// trailing page are made inaccessible, so a stray access faults at the
// instruction that made it. Writes that stay inside the slack are still only
// caught by the canary check.
//
// # Registry
//
// Each Allocator owns a Registry of live guarded blocks keyed by header
// address. Free consults it to decide whether a slice is guarded; anything
// else is handed to the ordinary Heap. Lookups are O(1).
//
// # Thread Safety
//
// Allocator and Registry are not thread-safe. They are meant for
// single-threaded debugging sessions.
package guard
