package genval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func eventTypes(evs []Event) []EventType {
	out := make([]EventType, len(evs))
	for i := range evs {
		out[i] = evs[i].Type
	}
	return out
}

func TestIterScalarBody(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	evs := Events(b.CreateString("hello"), IterConfig{Mode: IterBody})
	require.Equal(t, []EventType{ScalarEvent}, eventTypes(evs))
	require.Equal(t, "hello", evs[0].Value.Str())
}

func TestIterModes(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})
	v := b.CreateInt(1)

	require.Equal(t,
		[]EventType{ScalarEvent},
		eventTypes(Events(v, IterConfig{Mode: IterBody})))

	require.Equal(t,
		[]EventType{DocumentStartEvent, ScalarEvent, DocumentEndEvent},
		eventTypes(Events(v, IterConfig{Mode: IterDocument})))

	require.Equal(t,
		[]EventType{StreamStartEvent, DocumentStartEvent, ScalarEvent,
			DocumentEndEvent, StreamEndEvent},
		eventTypes(Events(v, IterConfig{Mode: IterStream})))
}

func TestIterDepthFirstOrder(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	// {list: [1, {k: v}], s: x}
	root := b.CreateMapping(
		b.CreateString("list"), b.CreateSequence(
			b.CreateInt(1),
			b.CreateMapping(b.CreateString("k"), b.CreateString("v")),
		),
		b.CreateString("s"), b.CreateString("x"),
	)

	evs := Events(root, IterConfig{Mode: IterBody})
	require.Equal(t, []EventType{
		MappingStartEvent,
		ScalarEvent, // list
		SequenceStartEvent,
		ScalarEvent, // 1
		MappingStartEvent,
		ScalarEvent, // k
		ScalarEvent, // v
		MappingEndEvent,
		SequenceEndEvent,
		ScalarEvent, // s
		ScalarEvent, // x
		MappingEndEvent,
	}, eventTypes(evs))

	require.Equal(t, "list", evs[1].Value.Str())
	require.Equal(t, int64(1), evs[3].Value.Int())
	require.Equal(t, "x", evs[10].Value.Str())
}

func TestIterMetadataAndStrip(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	scalar := b.CreateIndirect(Indirect{
		Value:   b.CreateString("payload"),
		Anchor:  b.CreateString("anch"),
		Tag:     b.CreateString("!!str"),
		Comment: b.CreateString("a comment"),
		Style:   b.CreateInt(int64(StyleDoubleQuoted)),
	})
	root := b.CreateSequence(scalar, b.CreateAlias("anch"))

	evs := Events(root, IterConfig{Mode: IterBody})
	require.Equal(t, []EventType{
		SequenceStartEvent, ScalarEvent, AliasEvent, SequenceEndEvent,
	}, eventTypes(evs))

	sc := evs[1]
	require.Equal(t, "anch", sc.Anchor)
	require.Equal(t, "!!str", sc.Tag)
	require.Equal(t, "a comment", sc.Comment)
	require.Equal(t, StyleDoubleQuoted, sc.Style)
	require.Equal(t, "anch", evs[2].Anchor)

	stripped := Events(root, IterConfig{
		Mode:         IterBody,
		StripAnchors: true, StripTags: true, StripComments: true, StripStyles: true,
	})
	sc = stripped[1]
	require.Empty(t, sc.Anchor)
	require.Empty(t, sc.Tag)
	require.Empty(t, sc.Comment)
	require.Equal(t, StyleAny, sc.Style)
	// The alias still carries its target: it is not emittable without
	// the name.
	require.Equal(t, "anch", stripped[2].Anchor)
}

func TestIterIndependentIterators(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})
	v := intSeq(b, 1, 2, 3)

	it1 := NewDocIterator(v, IterConfig{Mode: IterBody})
	it2 := NewDocIterator(v, IterConfig{Mode: IterBody})

	e1, ok := it1.Next()
	require.True(t, ok)
	require.Equal(t, SequenceStartEvent, e1.Type)
	_, _ = it1.Next()
	_, _ = it1.Next()

	// The second iterator is unaffected by the first's progress.
	e2, ok := it2.Next()
	require.True(t, ok)
	require.Equal(t, SequenceStartEvent, e2.Type)
}

func TestEventString(t *testing.T) {
	b := testBuilder(t, BuilderConfig{})

	ev := Event{Type: ScalarEvent, Value: b.CreateString("hi")}
	require.Equal(t, "=VAL :hi", ev.String())

	ev = Event{Type: ScalarEvent, Value: b.CreateString("q"), Style: StyleDoubleQuoted}
	require.Equal(t, "=VAL \"q", ev.String())

	ev = Event{Type: ScalarEvent, Value: b.CreateInt(5), Anchor: "a"}
	require.Equal(t, "=VAL &a :5", ev.String())

	require.Equal(t, "+STR", (&Event{Type: StreamStartEvent}).String())
	require.Equal(t, "-DOC", (&Event{Type: DocumentEndEvent}).String())
	require.Equal(t, "+MAP", (&Event{Type: MappingStartEvent}).String())
	require.Equal(t, "=ALI *x", (&Event{Type: AliasEvent, Anchor: "x"}).String())
}
