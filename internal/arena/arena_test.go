package arena

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocAlignment(t *testing.T) {
	a := New(0)

	off8 := a.Alloc(3, 8)
	require.NotZero(t, off8)
	require.Zero(t, off8%8)

	off16 := a.Alloc(24, 16)
	require.NotZero(t, off16)
	require.Zero(t, off16%16)
	require.Greater(t, off16, off8)

	// Allocations are zeroed.
	require.True(t, bytes.Equal(a.At(off16)[:24], make([]byte, 24)))
}

func TestAllocGrowthKeepsOffsets(t *testing.T) {
	a := New(32)

	off := a.Store([]byte("stable"), 8)
	for i := 0; i < 1000; i++ {
		require.NotZero(t, a.Alloc(64, 8))
	}
	require.Equal(t, "stable", string(a.At(off)[:6]), "offsets survive growth")
	require.Zero(t, a.Failures())
}

func TestFixedExhaustion(t *testing.T) {
	buf := make([]byte, 64)
	a := NewFixed(buf)

	require.NotZero(t, a.Alloc(16, 8))
	require.Zero(t, a.Alloc(128, 8))
	require.Equal(t, uint64(1), a.Failures())
	require.Zero(t, a.Alloc(128, 8))
	require.Equal(t, uint64(2), a.Failures())

	a.ResetFailures()
	require.Zero(t, a.Failures())
}

func TestStoreDedup(t *testing.T) {
	a := New(0)
	a.EnableDedup()
	require.True(t, a.DedupEnabled())

	o1 := a.Store([]byte("content"), 8)
	o2 := a.Store([]byte("content"), 8)
	require.Equal(t, o1, o2)

	o3 := a.Store([]byte("different"), 8)
	require.NotEqual(t, o1, o3)

	require.Equal(t, o1, a.Lookup([]byte("content"), 8))
	require.Zero(t, a.Lookup([]byte("absent"), 8))

	// A stricter alignment must not reuse a misaligned hit.
	o4 := a.Store([]byte("content"), 16)
	require.Zero(t, o4%16)
}

func TestScatterStore(t *testing.T) {
	a := New(0)

	off := a.ScatterStore([][]byte{[]byte("ab"), []byte("cd"), []byte("e")}, 8)
	require.NotZero(t, off)
	require.Equal(t, "abcde", string(a.At(off)[:5]))

	// With dedup, the concatenation interns as a whole.
	d := New(0)
	d.EnableDedup()
	o1 := d.ScatterStore([][]byte{[]byte("ab"), []byte("cde")}, 8)
	o2 := d.Store([]byte("abcde"), 8)
	require.Equal(t, o1, o2)
}

func TestReleaseAndTrim(t *testing.T) {
	a := New(0)

	keep := a.Store([]byte("keep"), 8)
	top := a.Alloc(64, 8)
	end := a.Len()
	a.Release(top, 64)
	require.Less(t, a.Len(), end, "topmost allocation is reclaimed")

	a.Release(keep, 4) // interior: no-op
	require.Equal(t, "keep", string(a.At(keep)[:4]))

	a.Trim()
	require.Equal(t, "keep", string(a.At(keep)[:4]))
}

func TestReset(t *testing.T) {
	a := New(0)
	a.EnableDedup()
	a.Store([]byte("going away"), 8)

	a.Reset()
	require.Equal(t, BaseOffset, a.Len())
	require.Zero(t, a.Lookup([]byte("going away"), 8))
}
