package genval

import (
	"sort"
)

// seqInput resolves an operation input that must be a sequence.
func seqInput(in Value) (Value, bool) {
	in = in.Resolve()
	return in, in.IsSequence()
}

func (b *Builder) internalizeAll(flags OpFlags, items []Value) ([]Value, bool) {
	if flags&DontInternalize != 0 {
		if flags&NoChecks == 0 {
			for _, it := range items {
				if it.IsInvalid() {
					return nil, false
				}
			}
		}
		return items, true
	}
	owned := make([]Value, len(items))
	for i, it := range items {
		owned[i] = b.Internalize(it)
		if owned[i].IsInvalid() {
			return nil, false
		}
	}
	return owned, true
}

// Insert splices items into seq before index idx. idx may equal the
// length, making it an append.
func (b *Builder) Insert(seq Value, idx int, items ...Value) Value {
	return b.opInsert(0, seq, idx, items)
}

func (b *Builder) opInsert(flags OpFlags, in Value, idx int, items []Value) Value {
	seq, ok := seqInput(in)
	if !ok {
		return Invalid
	}
	old := seq.seqItems()
	if idx < 0 || idx > len(old) {
		return Invalid
	}
	add, ok := b.internalizeAll(flags, items)
	if !ok {
		return Invalid
	}
	out := make([]Value, 0, len(old)+len(add))
	out = append(out, old[:idx]...)
	out = append(out, add...)
	out = append(out, old[idx:]...)
	return b.createSeq(out)
}

// Replace overwrites len(items) elements of seq starting at idx.
func (b *Builder) Replace(seq Value, idx int, items ...Value) Value {
	return b.opReplace(0, seq, idx, items)
}

func (b *Builder) opReplace(flags OpFlags, in Value, idx int, items []Value) Value {
	seq, ok := seqInput(in)
	if !ok {
		return Invalid
	}
	old := seq.seqItems()
	if idx < 0 || idx+len(items) > len(old) {
		return Invalid
	}
	add, ok := b.internalizeAll(flags, items)
	if !ok {
		return Invalid
	}
	out := make([]Value, len(old))
	copy(out, old)
	copy(out[idx:], add)
	return b.createSeq(out)
}

// Append adds items at the end of seq.
func (b *Builder) Append(seq Value, items ...Value) Value {
	return b.opInsert(0, seq, seq.Resolve().Len(), items)
}

// Concat concatenates seq with the given sequences in order.
func (b *Builder) Concat(seq Value, others ...Value) Value {
	return b.opConcat(0, seq, others)
}

func (b *Builder) opConcat(flags OpFlags, in Value, others []Value) Value {
	seq, ok := seqInput(in)
	if !ok {
		return Invalid
	}
	out := append([]Value(nil), seq.seqItems()...)
	for _, o := range others {
		o, ok := seqInput(o)
		if !ok {
			return Invalid
		}
		out = append(out, o.seqItems()...)
	}
	return b.createSeq(out)
}

// Reverse returns seq with its element order reversed.
func (b *Builder) Reverse(in Value) Value {
	seq, ok := seqInput(in)
	if !ok {
		return Invalid
	}
	items := seq.seqItems()
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return b.createSeq(items)
}

// Unique removes duplicates by value equality, keeping the first
// occurrence of each element in order.
func (b *Builder) Unique(in Value) Value {
	seq, ok := seqInput(in)
	if !ok {
		return Invalid
	}
	items := seq.seqItems()
	out := make([]Value, 0, len(items))
	for _, it := range items {
		dup := false
		for _, seen := range out {
			if Equal(it, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, it)
		}
	}
	return b.createSeq(out)
}

// Sort stably sorts seq by the canonical ordering.
func (b *Builder) Sort(in Value) Value { return b.SortFunc(in, nil) }

// SortFunc stably sorts seq by cmp; a nil cmp selects the canonical
// ordering.
func (b *Builder) SortFunc(in Value, cmp CmpFunc) Value {
	seq, ok := seqInput(in)
	if !ok {
		return Invalid
	}
	if cmp == nil {
		cmp = Compare
	}
	items := seq.seqItems()
	sort.SliceStable(items, func(i, j int) bool { return cmp(items[i], items[j]) < 0 })
	return b.createSeq(items)
}

// Slice returns the half-open range [start, end) of seq.
func (b *Builder) Slice(in Value, start, end int) Value {
	seq, ok := seqInput(in)
	if !ok {
		return Invalid
	}
	n := seq.collCount()
	if start < 0 || end < start || end > n {
		return Invalid
	}
	items := seq.seqItems()
	return b.createSeq(items[start:end])
}

// SlicePy returns the half-open range [start, end) with Python index
// semantics: negative indices count from the end and out-of-range
// bounds clamp instead of failing.
func (b *Builder) SlicePy(in Value, start, end int) Value {
	seq, ok := seqInput(in)
	if !ok {
		return Invalid
	}
	n := seq.collCount()
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	start = clampIdx(start, n)
	end = clampIdx(end, n)
	if start >= end {
		return EmptySeq
	}
	items := seq.seqItems()
	return b.createSeq(items[start:end])
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// Take returns the prefix of at most n elements.
func (b *Builder) Take(in Value, n int) Value {
	seq, ok := seqInput(in)
	if !ok || n < 0 {
		return Invalid
	}
	return b.SlicePy(seq, 0, clampIdx(n, seq.collCount()))
}

// Drop returns the suffix after the first n elements.
func (b *Builder) Drop(in Value, n int) Value {
	seq, ok := seqInput(in)
	if !ok || n < 0 {
		return Invalid
	}
	return b.SlicePy(seq, clampIdx(n, seq.collCount()), seq.collCount())
}

// First returns the head element; Invalid on an empty sequence.
func (b *Builder) First(in Value) Value {
	seq, ok := seqInput(in)
	if !ok || seq.collCount() == 0 {
		return Invalid
	}
	return seq.seqAt(0)
}

// Last returns the final element; Invalid on an empty sequence.
func (b *Builder) Last(in Value) Value {
	seq, ok := seqInput(in)
	if !ok || seq.collCount() == 0 {
		return Invalid
	}
	return seq.seqAt(seq.collCount() - 1)
}

// Rest returns the tail after the head element.
func (b *Builder) Rest(in Value) Value {
	seq, ok := seqInput(in)
	if !ok {
		return Invalid
	}
	if seq.collCount() == 0 {
		return EmptySeq
	}
	return b.Drop(seq, 1)
}
