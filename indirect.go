package genval

// An Indirect describes the optional metadata attached to a value. A
// field holding Invalid is absent; absent fields occupy no arena
// storage. The wrapped Value is itself a tagged word, so indirects
// never nest: resolving an indirect is a single step.
type Indirect struct {
	Value    Value // the wrapped value
	Anchor   Value // anchor name (string)
	Tag      Value // tag URI (string)
	Diag     Value // collected diagnostics
	Marker   Value // source position (six-int sequence)
	Comment  Value // attached comment (string)
	Style    Value // original source style token (int)
	Failsafe Value // failsafe plain-string representation

	// Alias marks a named reference: no wrapped value, Anchor holds
	// the target name.
	Alias bool
}

// Marker is a source position range decoded from an indirect's marker
// field.
type Marker struct {
	StartLine, StartColumn, StartIndex int
	EndLine, EndColumn, EndIndex       int
}

// CreateIndirect builds an indirect wrapper. Fields already wrapped in
// an indirect are not accepted as the value: the incoming value is
// resolved first so wrappers never nest.
func (b *Builder) CreateIndirect(ind Indirect) Value {
	var flags uint64
	var fields []Value

	add := func(bit uint64, v Value) {
		if v.IsInvalid() {
			return
		}
		v = b.Internalize(v)
		flags |= bit
		fields = append(fields, v)
	}

	if ind.Value.IsValid() {
		add(indValue, ind.Value.Resolve())
	}
	add(indAnchor, ind.Anchor)
	add(indTag, ind.Tag)
	add(indDiag, ind.Diag)
	add(indMarker, ind.Marker)
	add(indComment, ind.Comment)
	add(indStyle, ind.Style)
	add(indFailsafe, ind.Failsafe)
	if ind.Alias {
		flags |= indAlias
	}

	buf := make([]byte, 8+8*len(fields))
	le().PutUint64(buf, flags)
	for i, f := range fields {
		putWord(buf[8+8*i:], f)
	}
	owner, off := b.store(buf, scalarAl)
	return owner.word(off, tagIndirect)
}

// CreateAlias builds a named reference to an anchored value.
func (b *Builder) CreateAlias(name string) Value {
	return b.CreateIndirect(Indirect{
		Anchor: b.CreateString(name),
		Alias:  true,
	})
}

// CreateMarker encodes a source position range as a marker field
// value.
func (b *Builder) CreateMarker(m Marker) Value {
	return b.createSeq([]Value{
		b.CreateInt(int64(m.StartLine)), b.CreateInt(int64(m.StartColumn)), b.CreateInt(int64(m.StartIndex)),
		b.CreateInt(int64(m.EndLine)), b.CreateInt(int64(m.EndColumn)), b.CreateInt(int64(m.EndIndex)),
	})
}

// Unwrap returns the wrapped value of an indirect with the
// value-present bit set, else Invalid. This is the single primitive
// behind Resolve.
func Unwrap(v Value) Value { return v.unwrap() }

// The generic metadata accessors accept both direct and indirect
// values; a direct value simply reports no metadata, and the getter
// returns Null for an absent field.

func getField(v Value, bit uint64) Value {
	if v.tag() != tagIndirect {
		return Null
	}
	f := v.indirectField(bit)
	if f.IsInvalid() {
		return Null
	}
	return f
}

func hasField(v Value, bit uint64) bool {
	return v.tag() == tagIndirect && v.indirectFlags()&bit != 0
}

// HasAnchor reports whether v carries an anchor name.
func (v Value) HasAnchor() bool { return hasField(v, indAnchor) }

// GetAnchor returns the anchor name, or Null when absent.
func (v Value) GetAnchor() Value { return getField(v, indAnchor) }

// HasTag reports whether v carries an explicit tag URI.
func (v Value) HasTag() bool { return hasField(v, indTag) }

// GetTag returns the tag URI, or Null when absent.
func (v Value) GetTag() Value { return getField(v, indTag) }

// HasDiag reports whether v carries collected diagnostics.
func (v Value) HasDiag() bool { return hasField(v, indDiag) }

// GetDiag returns the diagnostics payload, or Null when absent.
func (v Value) GetDiag() Value { return getField(v, indDiag) }

// HasMarker reports whether v carries a source position marker.
func (v Value) HasMarker() bool { return hasField(v, indMarker) }

// GetMarker returns the raw marker field, or Null when absent.
func (v Value) GetMarker() Value { return getField(v, indMarker) }

// HasComment reports whether v carries an attached comment.
func (v Value) HasComment() bool { return hasField(v, indComment) }

// GetComment returns the comment, or Null when absent.
func (v Value) GetComment() Value { return getField(v, indComment) }

// HasStyle reports whether v carries an original source style token.
func (v Value) HasStyle() bool { return hasField(v, indStyle) }

// GetStyle returns the style token, or Null when absent.
func (v Value) GetStyle() Value { return getField(v, indStyle) }

// HasFailsafe reports whether v carries a failsafe plain-string
// representation.
func (v Value) HasFailsafe() bool { return hasField(v, indFailsafe) }

// GetFailsafe returns the failsafe string, or Null when absent.
func (v Value) GetFailsafe() Value { return getField(v, indFailsafe) }

// MarkerOf decodes the marker field into a Marker. ok is false when
// absent or malformed.
func MarkerOf(v Value) (Marker, bool) {
	f := v.GetMarker()
	if !f.IsSequence() || f.Len() != 6 {
		return Marker{}, false
	}
	var m Marker
	m.StartLine = int(f.seqAt(0).Int())
	m.StartColumn = int(f.seqAt(1).Int())
	m.StartIndex = int(f.seqAt(2).Int())
	m.EndLine = int(f.seqAt(3).Int())
	m.EndColumn = int(f.seqAt(4).Int())
	m.EndIndex = int(f.seqAt(5).Int())
	return m, true
}

// AliasTarget returns the anchor name an alias refers to, or "" when v
// is not an alias.
func AliasTarget(v Value) string {
	if !v.IsAlias() {
		return ""
	}
	return v.GetAnchor().Str()
}
