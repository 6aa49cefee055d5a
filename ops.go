package genval

import (
	"github.com/sirupsen/logrus"
)

// OpFlags are modifier flags orthogonal to the opcode.
type OpFlags uint32

const (
	// DontInternalize trusts that caller-supplied items already live
	// in this builder's arena.
	DontInternalize OpFlags = 1 << iota

	// DeepValidate recursively validates the result before returning.
	DeepValidate

	// NoChecks skips argument validation for trusted callers.
	NoChecks

	// Parallel executes filter/map/reduce on a worker pool.
	Parallel

	// MapItemCount marks mapping item slices as flat key+value items
	// rather than pairs. Go slices carry their own length, so the
	// flag is accepted for dispatch compatibility; the item kind is
	// chosen by the argument type ([]Value is flat, [][2]Value is
	// pairs).
	MapItemCount

	// BlockFn marked closure-typed callbacks in the source encoding.
	// Go has one uniform closure form; the flag is accepted and
	// ignored.
	BlockFn

	// CreatePath makes set-at-path synthesise missing intermediate
	// collections.
	CreatePath

	// Unsigned interprets a create-int magnitude as unsigned.
	Unsigned
)

// Opcode identifies an operation of the engine.
type Opcode int

const (
	OpCreateNull Opcode = iota
	OpCreateBool
	OpCreateInt
	OpCreateFloat
	OpCreateString
	OpCreateSeq
	OpCreateMap

	OpInsert
	OpReplace
	OpAppend
	OpConcat
	OpReverse
	OpUnique
	OpSort
	OpSlice
	OpSlicePy
	OpTake
	OpDrop
	OpFirst
	OpLast
	OpRest

	OpAssoc
	OpDisassoc
	OpMerge
	OpKeys
	OpValues
	OpItems

	OpContains
	OpGet
	OpGetAt
	OpGetAtPath
	OpSet
	OpSetAt
	OpSetAtPath

	OpFilter
	OpMap
	OpReduce

	OpConvert
	OpParse
	OpEmit
)

var opcodeStrings = map[Opcode]string{
	OpCreateNull: "create_null", OpCreateBool: "create_bool",
	OpCreateInt: "create_int", OpCreateFloat: "create_flt",
	OpCreateString: "create_str", OpCreateSeq: "create_seq",
	OpCreateMap: "create_map",
	OpInsert:    "insert", OpReplace: "replace", OpAppend: "append",
	OpConcat: "concat", OpReverse: "reverse", OpUnique: "unique",
	OpSort: "sort", OpSlice: "slice", OpSlicePy: "slice_py",
	OpTake: "take", OpDrop: "drop", OpFirst: "first", OpLast: "last",
	OpRest: "rest",
	OpAssoc: "assoc", OpDisassoc: "disassoc", OpMerge: "merge",
	OpKeys: "keys", OpValues: "values", OpItems: "items",
	OpContains: "contains", OpGet: "get", OpGetAt: "get_at",
	OpGetAtPath: "get_at_path", OpSet: "set", OpSetAt: "set_at",
	OpSetAtPath: "set_at_path",
	OpFilter:    "filter", OpMap: "map", OpReduce: "reduce",
	OpConvert: "convert", OpParse: "parse", OpEmit: "emit",
}

func (op Opcode) String() string {
	if s, ok := opcodeStrings[op]; ok {
		return s
	}
	return "<unknown opcode>"
}

// Callback types for the higher-order operations. Callbacks receive
// the current builder so they can allocate; they must not mutate
// captured state when the Parallel flag is used.
type (
	// PredFunc decides membership for filter.
	PredFunc func(b *Builder, v Value) bool

	// MapFunc derives one value from another for map.
	MapFunc func(b *Builder, v Value) Value

	// ReduceFunc folds v into acc for reduce. Parallel reduce
	// requires it to be associative.
	ReduceFunc func(b *Builder, acc, v Value) Value

	// CmpFunc orders two values for sort. The default is the
	// canonical ordering.
	CmpFunc func(a, b Value) int
)

// Op is the uniform operation dispatcher: every operation of the
// engine is reachable as (opcode, flags, input, args). Operations are
// pure apart from arena allocation; on failure the returned value is
// the Invalid sentinel and no error is raised. Typed methods cover the
// same algebra with static signatures; Op exists for callers driving
// the engine generically.
func (b *Builder) Op(op Opcode, flags OpFlags, in Value, args ...any) Value {
	if b.log != nil {
		b.log.WithFields(logrus.Fields{
			"arena": b.id,
			"op":    op.String(),
		}).Trace("dispatch")
	}
	out := b.dispatch(op, flags, in, args)
	if flags&DeepValidate != 0 && !b.Validate(out) {
		return Invalid
	}
	return out
}

func (b *Builder) dispatch(op Opcode, flags OpFlags, in Value, args []any) Value {
	switch op {
	case OpCreateNull:
		return Null
	case OpCreateBool:
		v, ok := argBool(args, 0)
		if !ok {
			return Invalid
		}
		return b.CreateBool(v)
	case OpCreateInt:
		if flags&Unsigned != 0 {
			u, ok := argUint(args, 0)
			if !ok {
				return Invalid
			}
			return b.CreateUint(u)
		}
		i, ok := argInt64(args, 0)
		if !ok {
			return Invalid
		}
		return b.CreateInt(i)
	case OpCreateFloat:
		f, ok := argFloat(args, 0)
		if !ok {
			return Invalid
		}
		return b.CreateFloat(f)
	case OpCreateString:
		s, ok := argString(args, 0)
		if !ok {
			return Invalid
		}
		return b.CreateString(s)
	case OpCreateSeq:
		items, ok := argItems(args, 0)
		if !ok {
			return Invalid
		}
		return b.opCreateSeq(flags, items)
	case OpCreateMap:
		items, ok := argItems(args, 0)
		if !ok {
			return Invalid
		}
		return b.opCreateMap(flags, items)

	case OpInsert:
		idx, ok := argIndex(args, 0)
		items, ok2 := argItems(args, 1)
		if !ok || !ok2 {
			return Invalid
		}
		return b.opInsert(flags, in, idx, items)
	case OpReplace:
		idx, ok := argIndex(args, 0)
		items, ok2 := argItems(args, 1)
		if !ok || !ok2 {
			return Invalid
		}
		return b.opReplace(flags, in, idx, items)
	case OpAppend:
		items, ok := argItems(args, 0)
		if !ok {
			return Invalid
		}
		return b.opInsert(flags, in, in.Resolve().Len(), items)
	case OpConcat:
		items, ok := argItems(args, 0)
		if !ok {
			return Invalid
		}
		return b.opConcat(flags, in, items)
	case OpReverse:
		return b.Reverse(in)
	case OpUnique:
		return b.Unique(in)
	case OpSort:
		var cmp CmpFunc
		if len(args) > 0 {
			if c, ok := args[0].(CmpFunc); ok {
				cmp = c
			} else if c, ok := args[0].(func(a, b Value) int); ok {
				cmp = c
			}
		}
		return b.SortFunc(in, cmp)
	case OpSlice:
		start, ok := argIndex(args, 0)
		end, ok2 := argIndex(args, 1)
		if !ok || !ok2 {
			return Invalid
		}
		return b.Slice(in, start, end)
	case OpSlicePy:
		start, ok := argIndex(args, 0)
		end, ok2 := argIndex(args, 1)
		if !ok || !ok2 {
			return Invalid
		}
		return b.SlicePy(in, start, end)
	case OpTake:
		n, ok := argIndex(args, 0)
		if !ok {
			return Invalid
		}
		return b.Take(in, n)
	case OpDrop:
		n, ok := argIndex(args, 0)
		if !ok {
			return Invalid
		}
		return b.Drop(in, n)
	case OpFirst:
		return b.First(in)
	case OpLast:
		return b.Last(in)
	case OpRest:
		return b.Rest(in)

	case OpAssoc, OpSet:
		items, ok := argItems(args, 0)
		if !ok {
			return Invalid
		}
		return b.opAssoc(flags, in, items)
	case OpDisassoc:
		keys, ok := argItems(args, 0)
		if !ok {
			return Invalid
		}
		return b.Disassoc(in, keys...)
	case OpMerge:
		others, ok := argItems(args, 0)
		if !ok {
			return Invalid
		}
		return b.Merge(in, others...)
	case OpKeys:
		return b.Keys(in)
	case OpValues:
		return b.Values(in)
	case OpItems:
		return b.Items(in)

	case OpContains:
		items, ok := argItems(args, 0)
		if !ok {
			return Invalid
		}
		return b.CreateBool(Contains(in, items...))
	case OpGet:
		if len(args) < 1 {
			return Invalid
		}
		key, ok := args[0].(Value)
		if !ok {
			return Invalid
		}
		return Get(in, key)
	case OpGetAt:
		idx, ok := argIndex(args, 0)
		if !ok {
			return Invalid
		}
		return GetAt(in, idx)
	case OpGetAtPath:
		path, ok := argItems(args, 0)
		if !ok {
			return Invalid
		}
		return GetAtPath(in, path...)
	case OpSetAt:
		idx, ok := argIndex(args, 0)
		if !ok || len(args) < 2 {
			return Invalid
		}
		v, ok2 := args[1].(Value)
		if !ok2 {
			return Invalid
		}
		return b.SetAt(in, idx, v)
	case OpSetAtPath:
		path, ok := argItems(args, 0)
		if !ok || len(args) < 2 {
			return Invalid
		}
		v, ok2 := args[1].(Value)
		if !ok2 {
			return Invalid
		}
		return b.setAtPath(flags, in, path, v)

	case OpFilter:
		fn, ok := argPred(args, 0)
		if !ok {
			return Invalid
		}
		return b.opFilter(flags, in, fn)
	case OpMap:
		fn, ok := argMap(args, 0)
		if !ok {
			return Invalid
		}
		return b.opMap(flags, in, fn)
	case OpReduce:
		if len(args) < 2 {
			return Invalid
		}
		acc0, ok := args[0].(Value)
		fn, ok2 := argReduce(args, 1)
		if !ok || !ok2 {
			return Invalid
		}
		return b.opReduce(flags, in, acc0, fn)

	case OpConvert:
		if len(args) < 1 {
			return Invalid
		}
		t, ok := args[0].(Type)
		if !ok {
			return Invalid
		}
		return b.Convert(in, t)
	case OpParse:
		if len(args) < 1 {
			return Invalid
		}
		input, ok := args[0].(Input)
		if !ok {
			return Invalid
		}
		var pf ParseFlags
		if len(args) > 1 {
			pf, _ = args[1].(ParseFlags)
		}
		dir, _ := b.Parse(input, pf)
		return dir
	case OpEmit:
		if len(args) < 1 {
			return Invalid
		}
		output, ok := args[0].(*Output)
		if !ok {
			return Invalid
		}
		var ef EmitFlags
		if len(args) > 1 {
			ef, _ = args[1].(EmitFlags)
		}
		out, _ := b.Emit(in, ef, output)
		return out
	}
	return Invalid
}

func argBool(args []any, i int) (bool, bool) {
	if i >= len(args) {
		return false, false
	}
	v, ok := args[i].(bool)
	return v, ok
}

func argInt64(args []any, i int) (int64, bool) {
	if i >= len(args) {
		return 0, false
	}
	switch v := args[i].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

func argUint(args []any, i int) (uint64, bool) {
	if i >= len(args) {
		return 0, false
	}
	switch v := args[i].(type) {
	case int:
		return uint64(v), true
	case int64:
		return uint64(v), true
	case uint64:
		return v, true
	}
	return 0, false
}

func argFloat(args []any, i int) (float64, bool) {
	if i >= len(args) {
		return 0, false
	}
	switch v := args[i].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	return 0, false
}

func argString(args []any, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	switch v := args[i].(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func argIndex(args []any, i int) (int, bool) {
	if i >= len(args) {
		return 0, false
	}
	switch v := args[i].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

// argItems accepts []Value (flat items) or [][2]Value (pairs).
func argItems(args []any, i int) ([]Value, bool) {
	if i >= len(args) {
		return nil, false
	}
	switch v := args[i].(type) {
	case []Value:
		return v, true
	case [][2]Value:
		flat := make([]Value, 0, 2*len(v))
		for _, p := range v {
			flat = append(flat, p[0], p[1])
		}
		return flat, true
	case Value:
		return []Value{v}, true
	}
	return nil, false
}

func argPred(args []any, i int) (PredFunc, bool) {
	if i >= len(args) {
		return nil, false
	}
	switch v := args[i].(type) {
	case PredFunc:
		return v, true
	case func(b *Builder, v Value) bool:
		return v, true
	}
	return nil, false
}

func argMap(args []any, i int) (MapFunc, bool) {
	if i >= len(args) {
		return nil, false
	}
	switch v := args[i].(type) {
	case MapFunc:
		return v, true
	case func(b *Builder, v Value) Value:
		return v, true
	}
	return nil, false
}

func argReduce(args []any, i int) (ReduceFunc, bool) {
	if i >= len(args) {
		return nil, false
	}
	switch v := args[i].(type) {
	case ReduceFunc:
		return v, true
	case func(b *Builder, acc, v Value) Value:
		return v, true
	}
	return nil, false
}

// Validate recursively checks that v and everything reachable from it
// is well-formed and readable from live arenas.
func (b *Builder) Validate(v Value) bool {
	switch v.Type() {
	case TypeInvalid:
		return false
	case TypeNull, TypeBool:
		return true
	case TypeInt, TypeFloat, TypeString:
		if v.IsInplace() {
			return true
		}
		return v.payload() != nil
	case TypeSequence:
		if v.offset() == 0 {
			return true
		}
		n := v.collCount()
		for i := 0; i < n; i++ {
			if !b.Validate(v.seqAt(i)) {
				return false
			}
		}
		return true
	case TypeMapping:
		if v.offset() == 0 {
			return true
		}
		n := v.collCount()
		for i := 0; i < n; i++ {
			k, val := v.pairAt(i)
			if !b.Validate(k) || !b.Validate(val) {
				return false
			}
		}
		return true
	case TypeIndirect, TypeAlias:
		if v.payload() == nil {
			return false
		}
		for bit := uint64(indValue); bit <= indFailsafe; bit <<= 1 {
			if v.indirectFlags()&bit == 0 {
				continue
			}
			if !b.Validate(v.indirectField(bit)) {
				return false
			}
		}
		return true
	}
	return false
}
