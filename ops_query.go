package genval

// Contains reports whether every item is present in col: element
// membership for sequences, key membership for mappings.
func Contains(col Value, items ...Value) bool {
	col = col.Resolve()
	switch col.Type() {
	case TypeSequence:
		n := col.collCount()
		for _, it := range items {
			found := false
			for i := 0; i < n; i++ {
				if Equal(col.seqAt(i), it) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case TypeMapping:
		for _, it := range items {
			if Get(col, it).IsInvalid() {
				return false
			}
		}
		return true
	}
	return false
}

// Get looks key up in col: by key for mappings, by integer index
// (coerced from the key value) for sequences. Absence yields Invalid.
func Get(col, key Value) Value {
	col = col.Resolve()
	switch col.Type() {
	case TypeMapping:
		n := col.collCount()
		for i := 0; i < n; i++ {
			k, v := col.pairAt(i)
			if Equal(k, key) {
				return v
			}
		}
	case TypeSequence:
		idx, ok := coerceIndex(key)
		if !ok {
			return Invalid
		}
		return GetAt(col, idx)
	}
	return Invalid
}

// GetAt returns the element of col at a numeric index.
func GetAt(col Value, idx int) Value {
	col = col.Resolve()
	switch col.Type() {
	case TypeSequence:
		if idx < 0 || idx >= col.collCount() {
			return Invalid
		}
		return col.seqAt(idx)
	case TypeMapping:
		if idx < 0 || idx >= col.collCount() {
			return Invalid
		}
		_, v := col.pairAt(idx)
		return v
	}
	return Invalid
}

// GetAtPath iterates Get along a path of keys and indices. The walk
// fails with Invalid as soon as a step is not a collection or a
// lookup misses.
func GetAtPath(root Value, path ...Value) Value {
	cur := root
	for _, step := range path {
		cur = Get(cur, step)
		if cur.IsInvalid() {
			return Invalid
		}
	}
	return cur
}

// coerceIndex turns a key value into a sequence index.
func coerceIndex(key Value) (int, bool) {
	key = key.Resolve()
	switch key.Type() {
	case TypeInt:
		return int(key.Int()), true
	case TypeFloat:
		f := key.Float()
		if f != float64(int64(f)) {
			return 0, false
		}
		return int(f), true
	case TypeBool:
		if key.Bool() {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// SetAt replaces the element of seq at idx.
func (b *Builder) SetAt(in Value, idx int, v Value) Value {
	return b.opReplace(0, in, idx, []Value{v})
}

// SetAtPath walks root along path and produces a new root with the
// final step bound to v. Intermediate collections are rebuilt;
// untouched siblings share storage with the input. A missing final
// mapping key is added; any other missing step fails unless the
// CreatePath flag is supplied via SetAtPathFlags.
func (b *Builder) SetAtPath(root Value, path []Value, v Value) Value {
	return b.setAtPath(0, root, path, v)
}

// SetAtPathFlags is SetAtPath with modifier flags: CreatePath
// synthesises missing intermediate collections, choosing a sequence
// when the missing step is numeric and a mapping otherwise.
func (b *Builder) SetAtPathFlags(flags OpFlags, root Value, path []Value, v Value) Value {
	return b.setAtPath(flags, root, path, v)
}

func (b *Builder) setAtPath(flags OpFlags, root Value, path []Value, v Value) Value {
	if len(path) == 0 {
		return b.Internalize(v)
	}
	step := path[0]
	node := root.Resolve()

	if node.IsInvalid() || node.IsNull() {
		// Synthesise the missing node from the step type.
		if flags&CreatePath == 0 {
			return Invalid
		}
		if _, numeric := coerceIndex(step); numeric && !step.Resolve().IsBool() {
			node = EmptySeq
		} else {
			node = EmptyMap
		}
	}

	switch node.Type() {
	case TypeMapping:
		child := Get(node, step)
		if child.IsInvalid() && flags&CreatePath == 0 && len(path) > 1 {
			return Invalid
		}
		sub := b.setAtPath(flags, child, path[1:], v)
		if sub.IsInvalid() {
			return Invalid
		}
		return b.Assoc(node, step, sub)
	case TypeSequence:
		idx, ok := coerceIndex(step)
		if !ok {
			return Invalid
		}
		n := node.collCount()
		switch {
		case idx >= 0 && idx < n:
			sub := b.setAtPath(flags, node.seqAt(idx), path[1:], v)
			if sub.IsInvalid() {
				return Invalid
			}
			return b.SetAt(node, idx, sub)
		case flags&CreatePath != 0 && idx >= n:
			// Pad with nulls up to the index, then append.
			sub := b.setAtPath(flags, Invalid, path[1:], v)
			if sub.IsInvalid() {
				return Invalid
			}
			pad := make([]Value, 0, idx-n+1)
			for i := n; i < idx; i++ {
				pad = append(pad, Null)
			}
			pad = append(pad, sub)
			return b.Append(node, pad...)
		}
		return Invalid
	}
	return Invalid
}

// GetAtUnixPath looks a value up by a Unix-style path string: segments
// separated by '/', with all-digit segments coerced to sequence
// indices. "/a/b/0" selects root["a"]["b"][0]; the empty path or "/"
// selects the root itself.
func GetAtUnixPath(root Value, path string) Value {
	steps, ok := unixPathSteps(path)
	if !ok {
		return Invalid
	}
	cur := root
	for _, s := range steps {
		cur = cur.Resolve()
		switch {
		case cur.IsSequence():
			idx, numeric := unixIndex(s)
			if !numeric {
				return Invalid
			}
			cur = GetAt(cur, idx)
		case cur.IsMapping():
			cur = getByStringKey(cur, s)
		default:
			return Invalid
		}
		if cur.IsInvalid() {
			return Invalid
		}
	}
	return cur
}

// getByStringKey looks a string key up without materializing a key
// value.
func getByStringKey(m Value, s string) Value {
	n := m.collCount()
	for i := 0; i < n; i++ {
		k, v := m.pairAt(i)
		k = k.Resolve()
		if k.IsString() && k.Str() == s {
			return v
		}
	}
	return Invalid
}

// SetAtUnixPath is SetAtPathFlags addressed by a Unix-style path
// string. Numeric segments become integer steps.
func (b *Builder) SetAtUnixPath(flags OpFlags, root Value, path string, v Value) Value {
	steps, ok := unixPathSteps(path)
	if !ok {
		return Invalid
	}
	vpath := make([]Value, len(steps))
	for i, s := range steps {
		if idx, numeric := unixIndex(s); numeric {
			vpath[i] = b.CreateInt(int64(idx))
		} else {
			vpath[i] = b.CreateString(s)
		}
	}
	return b.setAtPath(flags, root, vpath, v)
}

func unixPathSteps(path string) ([]string, bool) {
	var steps []string
	start := -1
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if start >= 0 {
				steps = append(steps, path[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return steps, true
}

func unixIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}
