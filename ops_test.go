package genval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intSeq(b *Builder, ns ...int64) Value {
	items := make([]Value, len(ns))
	for i, n := range ns {
		items[i] = b.CreateInt(n)
	}
	return b.CreateSequence(items...)
}

func seqInts(t *testing.T, v Value) []int64 {
	t.Helper()
	v = v.Resolve()
	require.True(t, v.IsSequence())
	out := make([]int64, v.Len())
	for i := range out {
		out[i] = GetAt(v, i).Int()
	}
	return out
}

func strMap(b *Builder, kv ...any) Value {
	items := make([]Value, len(kv))
	for i, e := range kv {
		items[i] = b.FromNative(e)
	}
	return b.CreateMapping(items...)
}

func mapKeys(t *testing.T, m Value) []string {
	t.Helper()
	m = m.Resolve()
	require.True(t, m.IsMapping())
	out := make([]string, m.Len())
	for i := range out {
		k, _ := m.pairAt(i)
		out[i] = k.Resolve().Str()
	}
	return out
}

func TestInsertReplaceAppend(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})
	s := intSeq(b, 1, 2, 3)

	require.Equal(t, []int64{1, 9, 2, 3}, seqInts(t, b.Insert(s, 1, b.CreateInt(9))))
	require.Equal(t, []int64{9, 1, 2, 3}, seqInts(t, b.Insert(s, 0, b.CreateInt(9))))
	require.Equal(t, []int64{1, 2, 3, 9}, seqInts(t, b.Insert(s, 3, b.CreateInt(9))))
	require.True(t, b.Insert(s, 4, b.CreateInt(9)).IsInvalid())
	require.True(t, b.Insert(s, -1, b.CreateInt(9)).IsInvalid())

	require.Equal(t, []int64{1, 8, 9}, seqInts(t, b.Replace(s, 1, b.CreateInt(8), b.CreateInt(9))))
	require.True(t, b.Replace(s, 2, b.CreateInt(8), b.CreateInt(9)).IsInvalid())

	require.Equal(t, []int64{1, 2, 3, 4, 5}, seqInts(t, b.Append(s, b.CreateInt(4), b.CreateInt(5))))

	// The input is untouched throughout.
	require.Equal(t, []int64{1, 2, 3}, seqInts(t, s))
}

func TestConcatReverse(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	got := b.Concat(intSeq(b, 1), intSeq(b, 2, 3), EmptySeq, intSeq(b, 4))
	require.Equal(t, []int64{1, 2, 3, 4}, seqInts(t, got))

	rev := b.Reverse(intSeq(b, 1, 2, 3))
	require.Equal(t, []int64{3, 2, 1}, seqInts(t, rev))

	// reverse(reverse(s)) = s
	require.True(t, Equal(intSeq(b, 1, 2, 3), b.Reverse(rev)))
	require.Equal(t, EmptySeq, b.Reverse(EmptySeq))
}

func TestUnique(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	s := intSeq(b, 3, 1, 3, 2, 1, 3)
	u := b.Unique(s)
	require.Equal(t, []int64{3, 1, 2}, seqInts(t, u), "first occurrence wins, order stable")

	// unique(unique(s)) = unique(s)
	require.True(t, Equal(u, b.Unique(u)))
	require.Equal(t, EmptySeq, b.Unique(EmptySeq))
}

func TestSort(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	s := intSeq(b, 5, 1, 4, 1, 3)
	sorted := b.Sort(s)
	require.Equal(t, []int64{1, 1, 3, 4, 5}, seqInts(t, sorted))

	// sort(sort(s)) = sort(s)
	require.True(t, Equal(sorted, b.Sort(sorted)))

	// Mixed types sort by type discriminator first.
	mixed := b.CreateSequence(b.CreateString("z"), b.CreateInt(3), Null, True)
	got := b.Sort(mixed)
	require.True(t, GetAt(got, 0).IsNull())
	require.True(t, GetAt(got, 1).IsBool())
	require.Equal(t, int64(3), GetAt(got, 2).Int())
	require.Equal(t, "z", GetAt(got, 3).Str())

	// A custom comparator inverts the order.
	desc := b.SortFunc(s, func(a, c Value) int { return Compare(c, a) })
	require.Equal(t, []int64{5, 4, 3, 1, 1}, seqInts(t, desc))
}

func TestSliceFamilies(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})
	s := intSeq(b, 0, 1, 2, 3, 4)

	require.Equal(t, []int64{1, 2}, seqInts(t, b.Slice(s, 1, 3)))
	require.Equal(t, EmptySeq, b.Slice(s, 2, 2))
	require.True(t, b.Slice(s, 3, 2).IsInvalid())
	require.True(t, b.Slice(s, 0, 6).IsInvalid())

	require.Equal(t, []int64{3, 4}, seqInts(t, b.SlicePy(s, -2, 5)))
	require.Equal(t, []int64{0, 1, 2, 3}, seqInts(t, b.SlicePy(s, 0, -1)))
	require.Equal(t, EmptySeq, b.SlicePy(s, -0, -0))
	require.Equal(t, []int64{0, 1, 2, 3, 4}, seqInts(t, b.SlicePy(s, -99, 99)))

	require.Equal(t, []int64{0, 1}, seqInts(t, b.Take(s, 2)))
	require.Equal(t, []int64{0, 1, 2, 3, 4}, seqInts(t, b.Take(s, 99)))
	require.Equal(t, []int64{2, 3, 4}, seqInts(t, b.Drop(s, 2)))
	require.Equal(t, EmptySeq, b.Drop(s, 99))

	require.Equal(t, int64(0), b.First(s).Int())
	require.Equal(t, int64(4), b.Last(s).Int())
	require.Equal(t, []int64{1, 2, 3, 4}, seqInts(t, b.Rest(s)))

	require.True(t, b.First(EmptySeq).IsInvalid())
	require.True(t, b.Last(EmptySeq).IsInvalid())
	require.Equal(t, EmptySeq, b.Rest(EmptySeq))
}

func TestAssocSemantics(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})
	m := strMap(b, "a", 1, "b", 2)

	// Existing keys keep their position; new keys append.
	got := b.Assoc(m,
		b.CreateString("a"), b.CreateInt(10),
		b.CreateString("c"), b.CreateInt(3),
	)
	require.Equal(t, []string{"a", "b", "c"}, mapKeys(t, got))
	require.Equal(t, int64(10), getByStringKey(got, "a").Int())
	require.Equal(t, int64(2), getByStringKey(got, "b").Int())
	require.Equal(t, int64(3), getByStringKey(got, "c").Int())

	// keys(assoc(m, k, v)) contains keys(m).
	require.True(t, Contains(got, b.CreateString("a"), b.CreateString("b")))

	// Set is an alias of Assoc.
	require.True(t, Equal(got, b.Set(m,
		b.CreateString("a"), b.CreateInt(10),
		b.CreateString("c"), b.CreateInt(3),
	)))

	require.True(t, b.Assoc(m, b.CreateString("odd")).IsInvalid())
}

func TestDisassoc(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})
	m := strMap(b, "a", 1, "b", 2, "c", 3)

	got := b.Disassoc(m, b.CreateString("b"))
	require.Equal(t, []string{"a", "c"}, mapKeys(t, got))

	// Removing an absent key is a no-op.
	require.True(t, Equal(m, b.Disassoc(m, b.CreateString("zz"))))

	all := b.Disassoc(m, b.CreateString("a"), b.CreateString("b"), b.CreateString("c"))
	require.Equal(t, EmptyMap, all)
}

func TestMergeNestedConflict(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	left := strMap(b, "x", map[string]any{"p": 1, "q": 2})
	right := strMap(b, "x", map[string]any{"q": 3, "r": 4})

	got := b.Merge(left, right)
	x := getByStringKey(got.Resolve(), "x").Resolve()
	require.Equal(t, []string{"p", "q", "r"}, mapKeys(t, x))
	require.Equal(t, int64(1), getByStringKey(x, "p").Int())
	require.Equal(t, int64(3), getByStringKey(x, "q").Int())
	require.Equal(t, int64(4), getByStringKey(x, "r").Int())

	// Non-mapping conflicts: later wins.
	flat := b.Merge(strMap(b, "k", 1), strMap(b, "k", 2))
	require.Equal(t, int64(2), getByStringKey(flat.Resolve(), "k").Int())
}

func TestKeysValuesItems(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})
	m := strMap(b, "a", 1, "b", 2)

	require.Equal(t, []string{"a", "b"}, func() []string {
		keys := b.Keys(m)
		out := make([]string, keys.Len())
		for i := range out {
			out[i] = GetAt(keys, i).Str()
		}
		return out
	}())
	require.Equal(t, []int64{1, 2}, seqInts(t, b.Values(m)))

	items := b.Items(m)
	require.Equal(t, 2, items.Len())
	first := GetAt(items, 0)
	require.Equal(t, 2, first.Len())
	require.Equal(t, "a", GetAt(first, 0).Str())
	require.Equal(t, int64(1), GetAt(first, 1).Int())
}

func TestContainsSemantics(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	s := intSeq(b, 1, 2, 3)
	require.True(t, Contains(s, b.CreateInt(2)))
	require.True(t, Contains(s, b.CreateInt(1), b.CreateInt(3)))
	require.False(t, Contains(s, b.CreateInt(4)))
	require.False(t, Contains(s, b.CreateInt(1), b.CreateInt(4)))

	m := strMap(b, "a", 1)
	require.True(t, Contains(m, b.CreateString("a")))
	require.False(t, Contains(m, b.CreateInt(1)), "mapping membership is by key")

	require.False(t, Contains(b.CreateInt(7), Null))
}

func TestGetFamily(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	s := intSeq(b, 10, 20)
	require.Equal(t, int64(20), Get(s, b.CreateInt(1)).Int(), "sequence get coerces the key to an index")
	require.Equal(t, int64(10), Get(s, b.CreateFloat(0)).Int())
	require.True(t, Get(s, b.CreateString("x")).IsInvalid())
	require.True(t, GetAt(s, 2).IsInvalid())
	require.True(t, GetAt(s, -1).IsInvalid())

	root := strMap(b, "a", map[string]any{"b": []any{int64(1), int64(42)}})
	got := GetAtPath(root, b.CreateString("a"), b.CreateString("b"), b.CreateInt(1))
	require.Equal(t, int64(42), got.Int())

	require.True(t, GetAtPath(root, b.CreateString("a"), b.CreateString("zz")).IsInvalid())
	require.True(t, GetAtPath(root, b.CreateString("a"), b.CreateString("b"), b.CreateString("c")).IsInvalid())

	// A scalar mid-path fails the walk.
	require.True(t, GetAtPath(b.CreateInt(1), Null).IsInvalid())
}

func TestSetAtPathCreate(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	path := []Value{b.CreateString("a"), b.CreateString("b"), b.CreateString("c")}
	root := b.SetAtPathFlags(CreatePath, EmptyMap, path, b.CreateInt(42))
	require.False(t, root.IsInvalid())

	require.Equal(t, int64(42), GetAtPath(root, path...).Int())
	ab := GetAtPath(root, path[0], path[1])
	require.True(t, ab.Resolve().IsMapping())
	require.Equal(t, 1, ab.Len())

	// Without CreatePath, missing intermediate steps fail.
	require.True(t, b.SetAtPath(EmptyMap, path, b.CreateInt(42)).IsInvalid())

	// A numeric step synthesises a sequence padded with nulls.
	npath := []Value{b.CreateString("list"), b.CreateInt(2)}
	root2 := b.SetAtPathFlags(CreatePath, EmptyMap, npath, b.CreateString("v"))
	list := getByStringKey(root2.Resolve(), "list").Resolve()
	require.True(t, list.IsSequence())
	require.Equal(t, 3, list.Len())
	require.True(t, GetAt(list, 0).IsNull())
	require.Equal(t, "v", GetAt(list, 2).Str())
}

func TestSetAtPathExisting(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	root := strMap(b, "a", []any{int64(1), int64(2)}, "keep", "me")
	got := b.SetAtPath(root, []Value{b.CreateString("a"), b.CreateInt(1)}, b.CreateInt(9))
	require.Equal(t, []int64{1, 9}, seqInts(t, getByStringKey(got.Resolve(), "a")))
	require.Equal(t, "me", getByStringKey(got.Resolve(), "keep").Str())

	// Upsert at depth one works without CreatePath.
	added := b.SetAtPath(root, []Value{b.CreateString("new")}, b.CreateInt(1))
	require.Equal(t, int64(1), getByStringKey(added.Resolve(), "new").Int())

	// SetAt replaces a single element.
	s := intSeq(b, 1, 2, 3)
	require.Equal(t, []int64{1, 7, 3}, seqInts(t, b.SetAt(s, 1, b.CreateInt(7))))
	require.True(t, b.SetAt(s, 3, b.CreateInt(7)).IsInvalid())
}

func TestUnixPaths(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	root := strMap(b, "a", map[string]any{"b": []any{"zero", "one"}})
	require.Equal(t, "one", GetAtUnixPath(root, "/a/b/1").Str())
	require.True(t, Equal(root, GetAtUnixPath(root, "/")))
	require.True(t, GetAtUnixPath(root, "/a/missing").IsInvalid())

	got := b.SetAtUnixPath(CreatePath, EmptyMap, "/x/y/0", b.CreateInt(5))
	require.Equal(t, int64(5), GetAtUnixPath(got, "/x/y/0").Int())
}

func TestOpDispatcher(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	require.Equal(t, Null, b.Op(OpCreateNull, 0, Invalid))
	require.Equal(t, True, b.Op(OpCreateBool, 0, Invalid, true))
	require.Equal(t, int64(7), b.Op(OpCreateInt, 0, Invalid, 7).Int())
	require.True(t, b.Op(OpCreateInt, Unsigned, Invalid, uint64(1)<<63).IsUnsignedInt())
	require.Equal(t, "hi", b.Op(OpCreateString, 0, Invalid, "hi").Str())

	s := b.Op(OpCreateSeq, 0, Invalid, []Value{b.CreateInt(1), b.CreateInt(2)})
	require.Equal(t, []int64{1, 2}, seqInts(t, s))

	m := b.Op(OpCreateMap, 0, Invalid, [][2]Value{{b.CreateString("k"), b.CreateInt(1)}})
	require.Equal(t, int64(1), getByStringKey(m.Resolve(), "k").Int())

	require.Equal(t, []int64{2, 1}, seqInts(t, b.Op(OpReverse, 0, s)))
	require.Equal(t, int64(2), b.Op(OpGet, 0, s, b.CreateInt(1)).Int())
	require.Equal(t, True, b.Op(OpContains, 0, s, b.CreateInt(1)))

	conv := b.Op(OpConvert, 0, b.CreateInt(42), TypeString)
	require.Equal(t, "42", conv.Str())

	// Unknown opcodes and malformed arguments fail closed.
	require.True(t, b.Op(Opcode(999), 0, Null).IsInvalid())
	require.True(t, b.Op(OpCreateInt, 0, Invalid, "not an int").IsInvalid())
	require.True(t, b.Op(OpSlice, 0, s, 0).IsInvalid())
}

func TestOpcodeStrings(t *testing.T) {
	require.Equal(t, "create_int", OpCreateInt.String())
	require.Equal(t, "set_at_path", OpSetAtPath.String())
	require.Equal(t, "<unknown opcode>", Opcode(999).String())
}
