package genval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderContains(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})
	other := testBuilder(t, BuilderConfig{})

	v := b.CreateString("a string that is long enough to box")
	require.True(t, b.Contains(v))
	require.False(t, other.Contains(v))

	// Inplace values are ownerless and always usable.
	require.True(t, b.Contains(Null))
	require.True(t, other.Contains(b.CreateInt(5)))
	require.False(t, b.Contains(Invalid))
}

func TestInternalize(t *testing.T) {
	src := testBuilder(t, BuilderConfig{})
	dst := testBuilder(t, BuilderConfig{})

	v := src.CreateMapping(
		src.CreateString("name"), src.CreateString("a rather long string value"),
		src.CreateString("nums"), src.CreateSequence(src.CreateInt(1), src.CreateInt(2)),
	)

	// Identity when already owned.
	require.Equal(t, v, src.Internalize(v))

	got := dst.Internalize(v)
	require.False(t, got.IsInvalid())
	require.True(t, dst.Contains(got))
	require.True(t, dst.ownsDeep(got))
	require.True(t, Equal(v, got))

	// The copy survives the source builder.
	src.Destroy()
	require.Equal(t, "a rather long string value", getByStringKey(got, "name").Str())
}

func TestScopesAndExport(t *testing.T) {
	root := testBuilder(t, BuilderConfig{})
	leader := testBuilder(t, BuilderConfig{Parent: root, ScopeLeader: true})
	inner := testBuilder(t, BuilderConfig{Parent: leader, ScopeLeader: true})

	// The export builder is the first non-leader ancestor.
	require.Same(t, root, inner.ExportBuilder())
	require.Same(t, root, leader.ExportBuilder())
	require.Nil(t, root.ExportBuilder())

	v := inner.CreateString("survives the inner scope teardown")
	kept := inner.Export(v)
	require.False(t, kept.IsInvalid())
	require.True(t, root.Contains(kept))

	inner.Destroy()
	leader.Destroy()
	require.Equal(t, "survives the inner scope teardown", kept.Str())
}

func TestChildReadsParent(t *testing.T) {
	parent := testBuilder(t, BuilderConfig{})
	child := testBuilder(t, BuilderConfig{Parent: parent})

	pv := parent.CreateString("stored in the parent arena")
	require.True(t, child.Contains(pv))

	seq := child.CreateSequence(pv, child.CreateInt(1))
	require.Equal(t, "stored in the parent arena", GetAt(seq, 0).Str())
}

func TestDedup(t *testing.T) {
	b := testBuilder(t, BuilderConfig{EnableDedup: true})

	a := b.CreateString("deduplicated string content")
	c := b.CreateString("deduplicated string content")
	require.Equal(t, a, c, "equal content must coalesce to one word")

	d := b.CreateString("different string content...")
	require.NotEqual(t, a, d)

	// Collections dedup by content too.
	s1 := b.CreateSequence(a, d)
	s2 := b.CreateSequence(c, d)
	require.Equal(t, s1, s2)
}

func TestDedupChain(t *testing.T) {
	parent := testBuilder(t, BuilderConfig{EnableDedup: true})
	child := testBuilder(t, BuilderConfig{Parent: parent, EnableDedup: true, DedupChain: true})

	pv := parent.CreateString("interned once, found from the child")
	cv := child.CreateString("interned once, found from the child")
	require.Equal(t, pv, cv, "chain lookup must return the parent's word")
}

func TestFixedBuilderFailureCounter(t *testing.T) {
	buf := make([]byte, 64)
	b := NewBuilder(BuilderConfig{Buffer: buf})
	defer b.Destroy()

	// Small allocations fit...
	v := b.CreateString("fits in sixty-four bytes")
	require.False(t, v.IsInvalid())
	require.Zero(t, b.Failures())

	// ...until the arena is exhausted.
	big := b.CreateString(strings.Repeat("x", 256))
	require.True(t, big.IsInvalid())
	require.NotZero(t, b.Failures())

	b.ResetFailures()
	require.Zero(t, b.Failures())
}

func TestBuildRetryGrows(t *testing.T) {
	payload := strings.Repeat("grow me ", 64) // 512 bytes

	v, b := BuildRetry(32, 1<<16, BuilderConfig{}, func(b *Builder) Value {
		return b.CreateString(payload)
	})
	require.NotNil(t, b)
	defer b.Destroy()
	require.Equal(t, payload, v.Str())
}

func TestBuildRetryCeiling(t *testing.T) {
	payload := strings.Repeat("too big ", 1024)

	v, b := BuildRetry(32, 256, BuilderConfig{}, func(b *Builder) Value {
		return b.CreateString(payload)
	})
	require.Nil(t, b)
	require.True(t, v.IsInvalid())
}

func TestDuplicateKeyPolicy(t *testing.T) {
	strict := testBuilder(t, BuilderConfig{DisableDuplicateKeys: true})
	lax := testBuilder(t, BuilderConfig{})

	k := strict.CreateString("k")
	dup := strict.CreateMapping(k, strict.CreateInt(1), k, strict.CreateInt(2))
	require.True(t, dup.IsInvalid())

	ok := lax.CreateMapping(
		lax.CreateString("k"), lax.CreateInt(1),
		lax.CreateString("k"), lax.CreateInt(2),
	)
	require.False(t, ok.IsInvalid())
	require.Equal(t, 2, ok.Len())
}

func TestReleaseAndTrim(t *testing.T) {
	b := testBuilder(t, BuilderConfig{EstimatedMaxSize: 1 << 16})

	var last Value
	for i := 0; i < 32; i++ {
		last = b.CreateString(strings.Repeat("y", 64))
	}
	b.Release(last)
	b.Trim()

	// Remaining values stay readable after a trim.
	v := b.CreateString("still works after trim")
	require.Equal(t, "still works after trim", v.Str())
}

func TestDestroyedArenaUnreadable(t *testing.T) {
	b := NewBuilder(BuilderConfig{})
	v := b.CreateString("gone after destroy, really")
	require.Equal(t, "gone after destroy, really", v.Str())
	b.Destroy()
	require.Equal(t, "", v.Str())
	require.Zero(t, v.Len())
}

func TestValidate(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	v := b.CreateMapping(
		b.CreateString("k"), b.CreateSequence(b.CreateInt(1), b.CreateFloat(2.5)),
	)
	require.True(t, b.Validate(v))
	require.False(t, b.Validate(Invalid))

	// The DeepValidate flag routes results through Validate.
	got := b.Op(OpAssoc, DeepValidate, v, []Value{b.CreateString("x"), Null})
	require.False(t, got.IsInvalid())
}

func TestBorrowedAllocator(t *testing.T) {
	alloc := NewAllocator(1 << 12)

	b1 := NewBuilder(BuilderConfig{Allocator: alloc})
	v := b1.CreateString("outlives the borrowing builder")
	b1.Destroy()

	// The builder borrowed the allocator, so Destroy must not reset
	// it; a successor builder can adopt the same storage.
	b2 := NewBuilder(BuilderConfig{Allocator: alloc, OwnsAllocator: true})
	defer b2.Destroy()
	w := b2.CreateString("second tenant")
	require.Equal(t, "second tenant", w.Str())
	require.NotZero(t, alloc.Len())
	_ = v
}
