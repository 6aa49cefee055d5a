// Package arena implements the bump allocator backing a builder.
//
// An arena is a contiguous byte region addressed by offsets. Offsets
// are stable for the lifetime of the arena: growth reallocates the
// backing slice but never changes an offset, so values handed out by a
// builder remain valid without pointer patching.
package arena

import (
	"github.com/cespare/xxhash/v2"
)

// BaseOffset is the first usable offset. Offset 0 is reserved so that
// it can serve as the empty-collection sentinel.
const BaseOffset = 16

// An Arena is a growable (or fixed) byte region with bump allocation,
// optional content deduplication and an allocation failure counter.
//
// An Arena is not safe for concurrent mutation; reads of already
// allocated regions are safe from any goroutine.
type Arena struct {
	buf   []byte
	fixed bool

	failures uint64
	hwm      int // high-water mark for Trim

	dedup map[uint64][]uint64 // content hash -> candidate offsets
}

// New creates a growable arena with the given initial capacity hint.
func New(sizeHint int) *Arena {
	if sizeHint < BaseOffset {
		sizeHint = 1024
	}
	a := &Arena{buf: make([]byte, BaseOffset, sizeHint)}
	return a
}

// NewFixed creates an arena inside the caller-supplied buffer. The
// arena never allocates beyond the buffer: exhaustion increments the
// failure counter and the allocation fails.
func NewFixed(buf []byte) *Arena {
	if len(buf) < BaseOffset {
		return &Arena{buf: make([]byte, BaseOffset), fixed: true}
	}
	return &Arena{buf: buf[:BaseOffset], fixed: true}
}

// EnableDedup turns on content-addressed interning for Store.
func (a *Arena) EnableDedup() {
	if a.dedup == nil {
		a.dedup = make(map[uint64][]uint64)
	}
}

// DedupEnabled reports whether Store interns content.
func (a *Arena) DedupEnabled() bool { return a.dedup != nil }

// Failures returns the allocation failure count.
func (a *Arena) Failures() uint64 { return a.failures }

// ResetFailures clears the failure counter, typically before a
// grow-and-retry attempt.
func (a *Arena) ResetFailures() { a.failures = 0 }

// Len returns the current allocation frontier.
func (a *Arena) Len() int { return len(a.buf) }

// Bytes returns the backing storage. The slice is invalidated by the
// next allocation; callers use it for reads at known offsets only.
func (a *Arena) Bytes() []byte { return a.buf }

// At returns the storage starting at off.
func (a *Arena) At(off uint64) []byte { return a.buf[off:] }

// Alloc reserves size bytes at the given alignment and returns the
// offset, or 0 with the failure counter incremented when the arena is
// exhausted. align must be a power of two.
func (a *Arena) Alloc(size, align int) uint64 {
	pos := len(a.buf)
	pad := (align - pos&(align-1)) & (align - 1)
	need := pos + pad + size
	if need > cap(a.buf) {
		if a.fixed {
			a.failures++
			return 0
		}
		grown := make([]byte, pos, grow(cap(a.buf), need))
		copy(grown, a.buf)
		a.buf = grown
	}
	a.buf = a.buf[:need]
	off := uint64(pos + pad)
	clear(a.buf[pos:need])
	if need > a.hwm {
		a.hwm = need
	}
	return off
}

func grow(cur, need int) int {
	if cur < BaseOffset {
		cur = 1024
	}
	for cur < need {
		cur *= 2
	}
	return cur
}

// Store interns data at the given alignment and returns its offset.
// With dedup enabled, storing bytes that have been stored before at a
// compatible alignment returns the previous offset.
func (a *Arena) Store(data []byte, align int) uint64 {
	var h uint64
	if a.dedup != nil {
		h = xxhash.Sum64(data)
		for _, off := range a.dedup[h] {
			if off&uint64(align-1) != 0 {
				continue
			}
			if int(off)+len(data) <= len(a.buf) && string(a.buf[off:int(off)+len(data)]) == string(data) {
				return off
			}
		}
	}
	off := a.Alloc(len(data), align)
	if off == 0 {
		return 0
	}
	copy(a.buf[off:], data)
	if a.dedup != nil {
		a.dedup[h] = append(a.dedup[h], off)
	}
	return off
}

// Lookup searches the dedup table for previously interned content at a
// compatible alignment, without storing. Returns 0 when absent.
func (a *Arena) Lookup(data []byte, align int) uint64 {
	if a.dedup == nil {
		return 0
	}
	h := xxhash.Sum64(data)
	for _, off := range a.dedup[h] {
		if off&uint64(align-1) != 0 {
			continue
		}
		if int(off)+len(data) <= len(a.buf) && string(a.buf[off:int(off)+len(data)]) == string(data) {
			return off
		}
	}
	return 0
}

// ScatterStore concatenates the given slices into one atomically
// allocated region and returns its offset. Dedup applies to the
// concatenation as a whole.
func (a *Arena) ScatterStore(parts [][]byte, align int) uint64 {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	if a.dedup != nil {
		flat := make([]byte, 0, total)
		for _, p := range parts {
			flat = append(flat, p...)
		}
		return a.Store(flat, align)
	}
	off := a.Alloc(total, align)
	if off == 0 {
		return 0
	}
	pos := off
	for _, p := range parts {
		copy(a.buf[pos:], p)
		pos += uint64(len(p))
	}
	return off
}

// Release hints that the region at off is no longer needed. Only the
// topmost allocation can actually be reclaimed; anything else is a
// no-op.
func (a *Arena) Release(off uint64, size int) {
	if int(off)+size == len(a.buf) {
		a.buf = a.buf[:off]
	}
}

// Trim shrinks the arena's backing capacity to its high-water mark,
// giving back the capacity above the peak frontier.
func (a *Arena) Trim() {
	if a.hwm < len(a.buf) {
		a.hwm = len(a.buf)
	}
	if a.fixed || a.hwm == cap(a.buf) {
		return
	}
	trimmed := make([]byte, len(a.buf), a.hwm)
	copy(trimmed, a.buf)
	a.buf = trimmed
}

// Reset discards every allocation, keeping the backing storage for
// reuse. Offsets handed out before Reset are dead.
func (a *Arena) Reset() {
	a.buf = a.buf[:BaseOffset]
	a.failures = 0
	if a.dedup != nil {
		a.dedup = make(map[uint64][]uint64)
	}
}
