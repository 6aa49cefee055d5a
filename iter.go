package genval

// IterMode selects which prefix of the event stream the iterator
// emits.
type IterMode int8

const (
	// IterBody emits only the document body.
	IterBody IterMode = iota

	// IterDocument wraps the body in DOCUMENT-START/END.
	IterDocument

	// IterStream emits the full STREAM-START .. STREAM-END stream.
	IterStream
)

// IterConfig configures a document iterator.
type IterConfig struct {
	// Mode selects the event stream prefix.
	Mode IterMode

	// Strip options drop the corresponding metadata from indirect
	// wrappers before emitting.
	StripAnchors  bool
	StripTags     bool
	StripComments bool
	StripStyles   bool
	StripFailsafe bool
}

// Iterator states.
type iterState int8

const (
	iterStreamStartState iterState = iota
	iterDocumentStartState
	iterBodyState
	iterDocumentEndState
	iterStreamEndState
	iterDoneState
)

type iterFrame struct {
	v   Value // the open collection
	idx int   // next item position (flat for mappings)
}

// A DocIterator re-linearizes a value tree into the event stream a
// parser would have produced for the document. It is a state machine
// over a stack of (value, cursor) frames, advanced one event per Next
// call. A DocIterator is not safe for concurrent use; independent
// iterators over the same value do not interact.
type DocIterator struct {
	cfg   IterConfig
	root  Value
	state iterState
	stack []iterFrame
	begun bool
}

// NewDocIterator creates an iterator over the value tree rooted at
// root.
func NewDocIterator(root Value, cfg IterConfig) *DocIterator {
	it := &DocIterator{cfg: cfg, root: root}
	switch cfg.Mode {
	case IterStream:
		it.state = iterStreamStartState
	case IterDocument:
		it.state = iterDocumentStartState
	default:
		it.state = iterBodyState
	}
	return it
}

// Next returns the next event of the stream, or ok == false when the
// configured prefix is exhausted.
func (it *DocIterator) Next() (Event, bool) {
	switch it.state {
	case iterStreamStartState:
		it.state = iterDocumentStartState
		return Event{Type: StreamStartEvent}, true

	case iterDocumentStartState:
		it.state = iterBodyState
		return Event{Type: DocumentStartEvent, Implicit: true}, true

	case iterBodyState:
		ev, ok := it.nextBody()
		if ok {
			return ev, true
		}
		switch it.cfg.Mode {
		case IterBody:
			it.state = iterDoneState
			return Event{}, false
		default:
			it.state = iterDocumentEndState
		}
		fallthrough

	case iterDocumentEndState:
		if it.cfg.Mode == IterStream {
			it.state = iterStreamEndState
		} else {
			it.state = iterDoneState
		}
		return Event{Type: DocumentEndEvent, Implicit: true}, true

	case iterStreamEndState:
		it.state = iterDoneState
		return Event{Type: StreamEndEvent}, true
	}
	return Event{}, false
}

func (it *DocIterator) nextBody() (Event, bool) {
	if !it.begun {
		it.begun = true
		return it.enter(it.root), true
	}
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		coll := top.v.Resolve()
		switch coll.Type() {
		case TypeSequence:
			if top.idx < coll.collCount() {
				v := coll.seqAt(top.idx)
				top.idx++
				return it.enter(v), true
			}
			it.stack = it.stack[:len(it.stack)-1]
			return Event{Type: SequenceEndEvent}, true
		case TypeMapping:
			n := 2 * coll.collCount()
			if top.idx < n {
				k, v := coll.pairAt(top.idx / 2)
				item := k
				if top.idx%2 == 1 {
					item = v
				}
				top.idx++
				return it.enter(item), true
			}
			it.stack = it.stack[:len(it.stack)-1]
			return Event{Type: MappingEndEvent}, true
		default:
			// Malformed frame; drop it.
			it.stack = it.stack[:len(it.stack)-1]
		}
	}
	return Event{}, false
}

// enter produces the event introducing v, pushing a frame when v opens
// a collection.
func (it *DocIterator) enter(v Value) Event {
	var ev Event
	if v.tag() == tagIndirect {
		if !it.cfg.StripAnchors && v.HasAnchor() {
			ev.Anchor = v.GetAnchor().Str()
		}
		if !it.cfg.StripTags && v.HasTag() {
			ev.Tag = v.GetTag().Str()
		}
		if !it.cfg.StripComments && v.HasComment() {
			ev.Comment = v.GetComment().Str()
		}
		if !it.cfg.StripStyles && v.HasStyle() {
			ev.Style = Style(v.GetStyle().Int())
		}
		if m, ok := MarkerOf(v); ok {
			ev.Marker, ev.HasMarker = m, true
		}
		if v.IsAlias() {
			ev.Type = AliasEvent
			ev.Anchor = v.GetAnchor().Str()
			return ev
		}
	}
	rv := v.Resolve()
	switch rv.Type() {
	case TypeSequence:
		ev.Type = SequenceStartEvent
		it.stack = append(it.stack, iterFrame{v: rv})
	case TypeMapping:
		ev.Type = MappingStartEvent
		it.stack = append(it.stack, iterFrame{v: rv})
	default:
		ev.Type = ScalarEvent
		ev.Value = rv
	}
	return ev
}

// Events collects the full configured event stream of root.
func Events(root Value, cfg IterConfig) []Event {
	it := NewDocIterator(root, cfg)
	var out []Event
	for {
		ev, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}
