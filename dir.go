package genval

// A Dir wraps the directory mapping a Parse returns: the sequence of
// per-document VDS records plus any collected diagnostics.
type Dir struct {
	v Value
}

// DirOf wraps a parse result. ok is false when v is not a directory
// mapping.
func DirOf(v Value) (Dir, bool) {
	v = v.Resolve()
	if !v.IsMapping() {
		return Dir{}, false
	}
	docs := getByStringKey(v, dirDocumentsKey)
	if !docs.Resolve().IsSequence() {
		return Dir{}, false
	}
	return Dir{v: v}, true
}

// Value returns the underlying directory mapping.
func (d Dir) Value() Value { return d.v }

// DocumentCount returns the number of parsed documents.
func (d Dir) DocumentCount() int {
	return getByStringKey(d.v, dirDocumentsKey).Resolve().Len()
}

// Document returns the VDS record of document i.
func (d Dir) Document(i int) (VDS, bool) {
	docs := getByStringKey(d.v, dirDocumentsKey)
	rec := GetAt(docs, i)
	if rec.IsInvalid() {
		return VDS{}, false
	}
	return VDSOf(rec)
}

// Diag returns the collected diagnostics sequence, or Null when none
// were collected.
func (d Dir) Diag() Value {
	diag := getByStringKey(d.v, dirDiagKey)
	if diag.IsInvalid() {
		return Null
	}
	return diag
}

// A VDS is a value paired with its YAML document state (version,
// schema), represented as a mapping.
type VDS struct {
	v Value
}

// VDSOf wraps a VDS record mapping.
func VDSOf(v Value) (VDS, bool) {
	v = v.Resolve()
	if !v.IsMapping() {
		return VDS{}, false
	}
	return VDS{v: v}, true
}

// Value returns the underlying VDS mapping.
func (s VDS) Value() Value { return s.v }

// Root returns the document root value.
func (s VDS) Root() Value { return getByStringKey(s.v, vdsRootKey) }

// DocumentState returns the document state mapping (version, schema).
func (s VDS) DocumentState() Value { return getByStringKey(s.v, vdsStateKey) }
