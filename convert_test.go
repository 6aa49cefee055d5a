package genval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertToNull(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	for _, v := range []Value{Null, True, b.CreateInt(5), b.CreateFloat(1.5),
		b.CreateString("x"), intSeq(b, 1), strMap(b, "k", 1)} {
		require.Equal(t, Null, b.Convert(v, TypeNull))
	}
}

func TestConvertToBool(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	require.Equal(t, False, b.Convert(Null, TypeBool))
	require.Equal(t, True, b.Convert(True, TypeBool))
	require.Equal(t, True, b.Convert(b.CreateInt(-3), TypeBool))
	require.Equal(t, False, b.Convert(b.CreateInt(0), TypeBool))
	require.Equal(t, True, b.Convert(b.CreateFloat(1), TypeBool))
	require.Equal(t, False, b.Convert(b.CreateFloat(0), TypeBool))
	require.Equal(t, False, b.Convert(b.CreateFloat(math.Inf(1)), TypeBool), "non-finite is false")
	require.Equal(t, True, b.Convert(b.CreateString("true"), TypeBool))
	require.Equal(t, False, b.Convert(b.CreateString("false"), TypeBool))
	require.True(t, b.Convert(b.CreateString("yes"), TypeBool).IsInvalid())
	require.Equal(t, True, b.Convert(intSeq(b, 1), TypeBool))
	require.Equal(t, False, b.Convert(EmptySeq, TypeBool))
	require.Equal(t, False, b.Convert(EmptyMap, TypeBool))
}

func TestConvertToInt(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	require.Equal(t, int64(0), b.Convert(Null, TypeInt).Int())
	require.Equal(t, int64(1), b.Convert(True, TypeInt).Int())
	require.Equal(t, int64(0), b.Convert(False, TypeInt).Int())
	require.Equal(t, int64(-3), b.Convert(b.CreateFloat(-3.9), TypeInt).Int(), "truncates toward zero")
	require.Equal(t, int64(123), b.Convert(b.CreateString("123"), TypeInt).Int())
	require.True(t, b.Convert(b.CreateString("12x"), TypeInt).IsInvalid())
	require.True(t, b.Convert(b.CreateFloat(math.NaN()), TypeInt).IsInvalid())
	require.True(t, b.Convert(b.CreateFloat(1e300), TypeInt).IsInvalid())
	require.True(t, b.Convert(intSeq(b, 1), TypeInt).IsInvalid())
	require.True(t, b.Convert(EmptyMap, TypeInt).IsInvalid())

	huge := b.Convert(b.CreateString("18446744073709551615"), TypeInt)
	require.True(t, huge.IsUnsignedInt())
	require.Equal(t, uint64(math.MaxUint64), huge.Uint())
}

func TestConvertToFloat(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	require.Equal(t, 0.0, b.Convert(Null, TypeFloat).Float())
	require.Equal(t, 1.0, b.Convert(True, TypeFloat).Float())
	require.Equal(t, 7.0, b.Convert(b.CreateInt(7), TypeFloat).Float(), "widened")
	require.Equal(t, 2.5, b.Convert(b.CreateString("2.5"), TypeFloat).Float())
	require.True(t, b.Convert(b.CreateString("two point five"), TypeFloat).IsInvalid())
	require.True(t, b.Convert(intSeq(b, 1), TypeFloat).IsInvalid())
}

func TestConvertToString(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	require.Equal(t, "", b.Convert(Null, TypeString).Str())
	require.Equal(t, "true", b.Convert(True, TypeString).Str())
	require.Equal(t, "false", b.Convert(False, TypeString).Str())
	require.Equal(t, "-42", b.Convert(b.CreateInt(-42), TypeString).Str())
	require.Equal(t, "18446744073709551615", b.Convert(b.CreateUint(math.MaxUint64), TypeString).Str())
	require.True(t, b.Convert(intSeq(b, 1), TypeString).IsInvalid())
	require.True(t, b.Convert(EmptyMap, TypeString).IsInvalid())
}

func TestConvertFloatStringRoundTrip(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	// Shortest round-trip representation.
	for _, f := range []float64{0.1, 1.0 / 3.0, 12345.6789, math.MaxFloat64} {
		s := b.Convert(b.CreateFloat(f), TypeString)
		back := b.Convert(s, TypeFloat)
		require.Equal(t, math.Float64bits(f), math.Float64bits(back.Float()), "%v", f)
	}
}

func TestConvertIdentity(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	s := intSeq(b, 1, 2)
	require.Equal(t, s, b.Convert(s, TypeSequence))
	m := strMap(b, "k", 1)
	require.Equal(t, m, b.Convert(m, TypeMapping))
	require.True(t, b.Convert(s, TypeMapping).IsInvalid())
}
