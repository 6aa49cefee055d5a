package genval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromNativeScalars(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	require.Equal(t, Null, b.FromNative(nil))
	require.Equal(t, True, b.FromNative(true))
	require.Equal(t, int64(-5), b.FromNative(-5).Int())
	require.Equal(t, int64(7), b.FromNative(int8(7)).Int())
	require.Equal(t, uint64(math.MaxUint64), b.FromNative(uint64(math.MaxUint64)).Uint())
	require.Equal(t, 2.5, b.FromNative(2.5).Float())
	require.Equal(t, "s", b.FromNative("s").Str())
	require.Equal(t, "bs", b.FromNative([]byte("bs")).Str())
	require.True(t, b.FromNative(struct{}{}).IsInvalid())
}

func TestFromNativeCollections(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	v := b.FromNative(map[string]any{
		"z": []any{int64(1), "two", nil},
		"a": map[string]any{"nested": true},
	})
	m := v.Resolve()
	require.True(t, m.IsMapping())

	// Keys are sorted for determinism.
	require.Equal(t, []string{"a", "z"}, mapKeys(t, m))
	require.Equal(t, True, GetAtPath(m, b.CreateString("a"), b.CreateString("nested")))
	require.Equal(t, "two", GetAtPath(m, b.CreateString("z"), b.CreateInt(1)).Str())
}

func TestToNativeRoundTrip(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	in := map[string]any{
		"n":    nil,
		"b":    true,
		"i":    int64(-9),
		"u":    uint64(math.MaxUint64),
		"f":    1.25,
		"s":    "text",
		"list": []any{int64(1), "x"},
	}
	v := b.FromNative(in)
	out, ok := ToNative(v).(map[string]any)
	require.True(t, ok)
	require.Equal(t, in, out)
}

func TestToNativeDropsMetadata(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	wrapped := b.CreateIndirect(Indirect{
		Value:  b.CreateInt(3),
		Anchor: b.CreateString("x"),
	})
	require.Equal(t, int64(3), ToNative(wrapped))
	require.Equal(t, "x", ToNative(b.CreateAlias("x")))
}
