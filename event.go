package genval

import (
	"fmt"
	"strconv"
	"strings"
)

// EventType identifies an event of the document iterator's stream.
type EventType int8

// Event types.
const (
	NoEvent EventType = iota

	StreamStartEvent   // A STREAM-START event.
	StreamEndEvent     // A STREAM-END event.
	DocumentStartEvent // A DOCUMENT-START event.
	DocumentEndEvent   // A DOCUMENT-END event.
	AliasEvent         // An ALIAS event.
	ScalarEvent        // A SCALAR event.
	SequenceStartEvent // A SEQUENCE-START event.
	SequenceEndEvent   // A SEQUENCE-END event.
	MappingStartEvent  // A MAPPING-START event.
	MappingEndEvent    // A MAPPING-END event.
)

var eventStrings = []string{
	NoEvent:            "none",
	StreamStartEvent:   "stream start",
	StreamEndEvent:     "stream end",
	DocumentStartEvent: "document start",
	DocumentEndEvent:   "document end",
	AliasEvent:         "alias",
	ScalarEvent:        "scalar",
	SequenceStartEvent: "sequence start",
	SequenceEndEvent:   "sequence end",
	MappingStartEvent:  "mapping start",
	MappingEndEvent:    "mapping end",
}

func (e EventType) String() string {
	if e < 0 || int(e) >= len(eventStrings) {
		return fmt.Sprintf("unknown event %d", e)
	}
	return eventStrings[e]
}

// Style is an original source style token carried through an
// indirect's style field.
type Style int8

// Styles.
const (
	// Let the emitter choose the style.
	StyleAny Style = iota

	StylePlain        // The plain scalar style.
	StyleSingleQuoted // The single-quoted scalar style.
	StyleDoubleQuoted // The double-quoted scalar style.
	StyleLiteral      // The literal scalar style.
	StyleFolded       // The folded scalar style.
	StyleFlow         // The flow collection style.
	StyleBlock        // The block collection style.
)

// The Event structure.
type Event struct {
	// The event type.
	Type EventType

	// The scalar value (for ScalarEvent). The word resolves through
	// the same arena the iterated tree lives in.
	Value Value

	// The Anchor (for ScalarEvent, SequenceStartEvent,
	// MappingStartEvent, AliasEvent).
	Anchor string

	// The Tag (for ScalarEvent, SequenceStartEvent,
	// MappingStartEvent).
	Tag string

	// The attached comment, when present and not stripped.
	Comment string

	// The Style (for ScalarEvent, SequenceStartEvent,
	// MappingStartEvent).
	Style Style

	// Marker is the source position range; HasMarker reports whether
	// one was attached.
	Marker    Marker
	HasMarker bool

	// Implicit marks document boundaries not present in the source.
	Implicit bool
}

// String renders the event in the compact test-suite notation:
// +STR/-STR, +DOC/-DOC, +SEQ/-SEQ, +MAP/-MAP, =VAL, =ALI.
func (e *Event) String() string {
	var sb strings.Builder
	switch e.Type {
	case StreamStartEvent:
		return "+STR"
	case StreamEndEvent:
		return "-STR"
	case DocumentStartEvent:
		return "+DOC"
	case DocumentEndEvent:
		return "-DOC"
	case SequenceEndEvent:
		return "-SEQ"
	case MappingEndEvent:
		return "-MAP"
	case SequenceStartEvent:
		sb.WriteString("+SEQ")
	case MappingStartEvent:
		sb.WriteString("+MAP")
	case AliasEvent:
		sb.WriteString("=ALI *")
		sb.WriteString(e.Anchor)
		return sb.String()
	case ScalarEvent:
		sb.WriteString("=VAL")
	default:
		return "=???"
	}
	if e.Anchor != "" {
		sb.WriteString(" &")
		sb.WriteString(e.Anchor)
	}
	if e.Tag != "" {
		sb.WriteString(" <")
		sb.WriteString(e.Tag)
		sb.WriteString(">")
	}
	if e.Type == ScalarEvent {
		switch e.Style {
		case StyleSingleQuoted:
			sb.WriteString(" '")
		case StyleDoubleQuoted:
			sb.WriteString(" \"")
		case StyleLiteral:
			sb.WriteString(" |")
		case StyleFolded:
			sb.WriteString(" >")
		default:
			sb.WriteString(" :")
		}
		sb.WriteString(scalarText(e.Value))
	}
	return sb.String()
}

func scalarText(v Value) string {
	v = v.Resolve()
	switch v.Type() {
	case TypeNull:
		return ""
	case TypeBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case TypeString:
		s := v.Str()
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\t", "\\t")
		return s
	}
	return numericText(v)
}

func numericText(v Value) string {
	switch v.Type() {
	case TypeInt:
		if v.IsUnsignedInt() {
			return strconv.FormatUint(v.Uint(), 10)
		}
		return strconv.FormatInt(v.Int(), 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	}
	return ""
}
