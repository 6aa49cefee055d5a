package genval

// mapInput resolves an operation input that must be a mapping.
func mapInput(in Value) (Value, bool) {
	in = in.Resolve()
	return in, in.IsMapping()
}

// mapPairs materializes a mapping's pairs as a flat item slice.
func mapPairs(m Value) []Value { return m.seqItems() }

// Assoc upserts pairs into m: an existing key keeps its position and
// receives the new value; new keys are appended in argument order.
func (b *Builder) Assoc(m Value, pairs ...Value) Value {
	return b.opAssoc(0, m, pairs)
}

// Set is an alias of Assoc.
func (b *Builder) Set(m Value, pairs ...Value) Value {
	return b.opAssoc(0, m, pairs)
}

func (b *Builder) opAssoc(flags OpFlags, in Value, pairs []Value) Value {
	m, ok := mapInput(in)
	if !ok || len(pairs)%2 != 0 {
		return Invalid
	}
	add, ok := b.internalizeAll(flags, pairs)
	if !ok {
		return Invalid
	}
	out := mapPairs(m)
	for i := 0; i < len(add); i += 2 {
		k, v := add[i], add[i+1]
		found := false
		for j := 0; j < len(out); j += 2 {
			if Equal(out[j], k) {
				out[j+1] = v
				found = true
				break
			}
		}
		if !found {
			out = append(out, k, v)
		}
	}
	return b.createMapNoCheck(out)
}

// Disassoc removes the given keys from m, preserving the order of the
// surviving pairs.
func (b *Builder) Disassoc(in Value, keys ...Value) Value {
	m, ok := mapInput(in)
	if !ok {
		return Invalid
	}
	items := mapPairs(m)
	out := make([]Value, 0, len(items))
	for i := 0; i < len(items); i += 2 {
		dropped := false
		for _, k := range keys {
			if Equal(items[i], k) {
				dropped = true
				break
			}
		}
		if !dropped {
			out = append(out, items[i], items[i+1])
		}
	}
	return b.createMapNoCheck(out)
}

// Merge deep-merges the given mappings into m, left to right. On a key
// conflict where both values are mappings the merge recurses;
// otherwise the later value wins. Key order is first-seen.
func (b *Builder) Merge(in Value, others ...Value) Value {
	m, ok := mapInput(in)
	if !ok {
		return Invalid
	}
	for _, o := range others {
		o, ok := mapInput(o)
		if !ok {
			return Invalid
		}
		m = b.mergeTwo(m, o)
		if m.IsInvalid() {
			return Invalid
		}
	}
	return m
}

func (b *Builder) mergeTwo(m, o Value) Value {
	out := mapPairs(m)
	items := mapPairs(o)
	for i := 0; i < len(items); i += 2 {
		k, v := items[i], items[i+1]
		found := false
		for j := 0; j < len(out); j += 2 {
			if !Equal(out[j], k) {
				continue
			}
			found = true
			if out[j+1].Resolve().IsMapping() && v.Resolve().IsMapping() {
				out[j+1] = b.mergeTwo(out[j+1].Resolve(), v.Resolve())
			} else {
				out[j+1] = b.Internalize(v)
			}
			break
		}
		if !found {
			out = append(out, b.Internalize(k), b.Internalize(v))
		}
	}
	return b.createMapNoCheck(out)
}

// Keys extracts the keys of m as a sequence, in stored order.
func (b *Builder) Keys(in Value) Value {
	m, ok := mapInput(in)
	if !ok {
		return Invalid
	}
	n := m.collCount()
	out := make([]Value, n)
	for i := 0; i < n; i++ {
		out[i], _ = m.pairAt(i)
	}
	return b.createSeq(out)
}

// Values extracts the values of m as a sequence, in stored order.
func (b *Builder) Values(in Value) Value {
	m, ok := mapInput(in)
	if !ok {
		return Invalid
	}
	n := m.collCount()
	out := make([]Value, n)
	for i := 0; i < n; i++ {
		_, out[i] = m.pairAt(i)
	}
	return b.createSeq(out)
}

// Items extracts m as a sequence of two-element [key, value]
// sequences.
func (b *Builder) Items(in Value) Value {
	m, ok := mapInput(in)
	if !ok {
		return Invalid
	}
	n := m.collCount()
	out := make([]Value, n)
	for i := 0; i < n; i++ {
		k, v := m.pairAt(i)
		out[i] = b.createSeq([]Value{k, v})
		if out[i].IsInvalid() {
			return Invalid
		}
	}
	return b.createSeq(out)
}
