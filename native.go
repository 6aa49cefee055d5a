package genval

import (
	"sort"
)

// FromNative lowers a native Go value into a tagged value: nil, bool,
// signed and unsigned integers, floats, strings, []any and
// map[string]any (keys sorted for determinism) plus their typed
// variants. Unsupported kinds fail with Invalid.
func (b *Builder) FromNative(v any) Value {
	switch v := v.(type) {
	case nil:
		return Null
	case bool:
		return b.CreateBool(v)
	case int:
		return b.CreateInt(int64(v))
	case int8:
		return b.CreateInt(int64(v))
	case int16:
		return b.CreateInt(int64(v))
	case int32:
		return b.CreateInt(int64(v))
	case int64:
		return b.CreateInt(v)
	case uint:
		return b.CreateUint(uint64(v))
	case uint8:
		return b.CreateUint(uint64(v))
	case uint16:
		return b.CreateUint(uint64(v))
	case uint32:
		return b.CreateUint(uint64(v))
	case uint64:
		return b.CreateUint(v)
	case float32:
		return b.CreateFloat(float64(v))
	case float64:
		return b.CreateFloat(v)
	case string:
		return b.CreateString(v)
	case []byte:
		return b.CreateString(string(v))
	case []any:
		items := make([]Value, len(v))
		for i, e := range v {
			items[i] = b.FromNative(e)
			if items[i].IsInvalid() {
				return Invalid
			}
		}
		return b.createSeq(items)
	case []Value:
		return b.CreateSequence(v...)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]Value, 0, 2*len(keys))
		for _, k := range keys {
			val := b.FromNative(v[k])
			if val.IsInvalid() {
				return Invalid
			}
			items = append(items, b.CreateString(k), val)
		}
		return b.createMapNoCheck(items)
	case Value:
		return b.Internalize(v)
	}
	return Invalid
}

// ToNative raises a tagged value back into native Go values: nil,
// bool, int64 (uint64 for unsigned-decorated magnitudes), float64,
// string, []any and map[string]any. Mapping key order is not
// representable natively; use Items for order-preserving extraction.
// Indirect metadata is dropped; aliases surface as their target name
// string.
func ToNative(v Value) any {
	if v.IsAlias() {
		return AliasTarget(v)
	}
	v = v.Resolve()
	switch v.Type() {
	case TypeNull:
		return nil
	case TypeBool:
		return v.Bool()
	case TypeInt:
		if v.IsUnsignedInt() {
			return v.Uint()
		}
		return v.Int()
	case TypeFloat:
		return v.Float()
	case TypeString:
		return v.Str()
	case TypeSequence:
		n := v.collCount()
		out := make([]any, n)
		for i := 0; i < n; i++ {
			out[i] = ToNative(v.seqAt(i))
		}
		return out
	case TypeMapping:
		n := v.collCount()
		out := make(map[string]any, n)
		for i := 0; i < n; i++ {
			k, val := v.pairAt(i)
			ks := k.Resolve()
			var key string
			if ks.IsString() {
				key = ks.Str()
			} else {
				key = scalarText(ks)
			}
			out[key] = ToNative(val)
		}
		return out
	case TypeAlias:
		return AliasTarget(v)
	}
	return nil
}
