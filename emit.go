package genval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/willabides/genval/internal/resolve"
)

// EmitFlags modify an Emit call. Bits 8..11 carry the indentation
// width; see EmitIndent.
type EmitFlags uint32

const (
	// EmitJSONMode emits JSON instead of YAML.
	EmitJSONMode EmitFlags = 1 << iota

	// EmitFlow forces flow style for collections.
	EmitFlow

	// EmitPretty pretty-prints (indented JSON; default YAML block
	// style).
	EmitPretty

	// EmitCompact requests compact output. The emitter does not read
	// this flag: JSON output is compact unless EmitPretty is set, and
	// YAML output is unaffected by it.
	EmitCompact

	// EmitOneline emits a single line (JSON only).
	EmitOneline

	// EmitComments carries attached comments into the output.
	EmitComments

	// EmitStripLabels drops anchors from emitted nodes. Aliases keep
	// their target names: they are not emittable without one.
	EmitStripLabels

	// EmitStripTags drops explicit tags.
	EmitStripTags
)

const emitIndentShift = 8

// EmitIndent packs an indentation width of 1..8 spaces into the flag
// word.
func EmitIndent(n int) EmitFlags {
	if n < 1 || n > 8 {
		return 0
	}
	return EmitFlags(n) << emitIndentShift
}

func (f EmitFlags) indent() int {
	n := int(f>>emitIndentShift) & 0xf
	if n < 1 || n > 8 {
		return 2
	}
	return n
}

// Output selects an emit destination. With no descriptor set the
// output is collected in a string buffer and returned as the result
// value.
type Output struct {
	// Writer receives the output.
	Writer io.Writer

	// Filename writes (creating or truncating) the named file.
	Filename string

	// Stdout and Stderr write to the process streams.
	Stdout, Stderr bool
}

func (o *Output) writer() (io.Writer, io.Closer, *bytes.Buffer, error) {
	switch {
	case o == nil:
		buf := &bytes.Buffer{}
		return buf, nil, buf, nil
	case o.Writer != nil:
		return o.Writer, nil, nil, nil
	case o.Filename != "":
		f, err := os.Create(o.Filename)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("genval: create output: %w", err)
		}
		return f, f, nil, nil
	case o.Stdout:
		return os.Stdout, nil, nil, nil
	case o.Stderr:
		return os.Stderr, nil, nil, nil
	}
	buf := &bytes.Buffer{}
	return buf, nil, buf, nil
}

// Emit renders v through the emitter back-end. With a nil or empty
// Output the rendered text is returned as a string value; otherwise
// the result is the number of bytes written. Failures return Invalid
// alongside the error.
func (b *Builder) Emit(v Value, flags EmitFlags, out *Output) (Value, error) {
	if v.IsInvalid() {
		return Invalid, ErrInvalid
	}
	w, closer, buf, err := out.writer()
	if err != nil {
		return Invalid, err
	}
	if closer != nil {
		defer closer.Close()
	}

	cw := &countWriter{w: w}
	if flags&EmitJSONMode != 0 {
		err = emitJSON(cw, v, flags)
	} else {
		err = emitYAML(cw, v, flags)
	}
	if err != nil {
		return Invalid, fmt.Errorf("%w: %v", ErrEmit, err)
	}
	if buf != nil {
		return b.CreateString(buf.String()), nil
	}
	return b.CreateInt(cw.n), nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// emitYAML raises the iterator's event stream into a parser node tree
// and encodes it.
func emitYAML(w io.Writer, v Value, flags EmitFlags) error {
	cfg := IterConfig{
		Mode:          IterBody,
		StripAnchors:  flags&EmitStripLabels != 0,
		StripTags:     flags&EmitStripTags != 0,
		StripComments: flags&EmitComments == 0,
	}
	nb := nodeBuilder{flags: flags}
	it := NewDocIterator(v, cfg)
	for {
		ev, ok := it.Next()
		if !ok {
			break
		}
		if err := nb.feed(&ev); err != nil {
			return err
		}
	}
	if nb.root == nil {
		return io.ErrUnexpectedEOF
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(flags.indent())
	if err := enc.Encode(nb.root); err != nil {
		return err
	}
	return enc.Close()
}

// nodeBuilder folds the event stream back into a node tree for the
// back-end encoder.
type nodeBuilder struct {
	flags EmitFlags
	stack []*yaml.Node
	root  *yaml.Node
}

func (nb *nodeBuilder) feed(ev *Event) error {
	switch ev.Type {
	case ScalarEvent:
		nb.attach(nb.scalarNode(ev))
	case AliasEvent:
		nb.attach(&yaml.Node{Kind: yaml.AliasNode, Value: ev.Anchor})
	case SequenceStartEvent:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		nb.decorate(n, ev)
		nb.stack = append(nb.stack, n)
	case MappingStartEvent:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		nb.decorate(n, ev)
		nb.stack = append(nb.stack, n)
	case SequenceEndEvent, MappingEndEvent:
		if len(nb.stack) == 0 {
			return io.ErrUnexpectedEOF
		}
		n := nb.stack[len(nb.stack)-1]
		nb.stack = nb.stack[:len(nb.stack)-1]
		nb.attach(n)
	}
	return nil
}

func (nb *nodeBuilder) attach(n *yaml.Node) {
	if len(nb.stack) == 0 {
		nb.root = n
		return
	}
	top := nb.stack[len(nb.stack)-1]
	top.Content = append(top.Content, n)
}

func (nb *nodeBuilder) decorate(n *yaml.Node, ev *Event) {
	n.Anchor = ev.Anchor
	if ev.Tag != "" && ev.Tag[0] == '!' && (len(ev.Tag) < 2 || ev.Tag[1] != '!') {
		n.Tag = ev.Tag
	} else if ev.Tag != "" {
		n.Tag = resolve.ShortTag(ev.Tag)
	}
	if ev.Comment != "" && nb.flags&EmitComments != 0 {
		n.LineComment = ev.Comment
	}
	switch {
	case nb.flags&EmitFlow != 0, ev.Style == StyleFlow:
		if n.Kind != yaml.ScalarNode {
			n.Style = yaml.FlowStyle
		}
	}
}

func (nb *nodeBuilder) scalarNode(ev *Event) *yaml.Node {
	v := ev.Value.Resolve()
	n := &yaml.Node{Kind: yaml.ScalarNode}
	switch v.Type() {
	case TypeNull:
		n.Tag, n.Value = "!!null", "null"
	case TypeBool:
		n.Tag = "!!bool"
		if v.Bool() {
			n.Value = "true"
		} else {
			n.Value = "false"
		}
	case TypeInt:
		n.Tag = "!!int"
		if v.IsUnsignedInt() {
			n.Value = strconv.FormatUint(v.Uint(), 10)
		} else {
			n.Value = strconv.FormatInt(v.Int(), 10)
		}
	case TypeFloat:
		n.Tag = "!!float"
		switch f := v.Float(); {
		case math.IsInf(f, 1):
			n.Value = ".inf"
		case math.IsInf(f, -1):
			n.Value = "-.inf"
		case math.IsNaN(f):
			n.Value = ".nan"
		default:
			n.Value = strconv.FormatFloat(f, 'g', -1, 64)
		}
	default:
		n.Tag, n.Value = "!!str", v.Str()
	}
	nb.decorate(n, ev)
	switch ev.Style {
	case StyleSingleQuoted:
		n.Style |= yaml.SingleQuotedStyle
	case StyleDoubleQuoted:
		n.Style |= yaml.DoubleQuotedStyle
	case StyleLiteral:
		n.Style |= yaml.LiteralStyle
	case StyleFolded:
		n.Style |= yaml.FoldedStyle
	}
	return n
}

// emitJSON writes v as JSON. Mapping key order is preserved, so the
// structure is hand-walked; string escaping and pretty-printing are
// the back-end's.
func emitJSON(w io.Writer, v Value, flags EmitFlags) error {
	var buf bytes.Buffer
	if err := appendJSON(&buf, v); err != nil {
		return err
	}
	if flags&EmitPretty != 0 && flags&EmitOneline == 0 {
		var pretty bytes.Buffer
		indent := ""
		for i := 0; i < flags.indent(); i++ {
			indent += " "
		}
		if err := json.Indent(&pretty, buf.Bytes(), "", indent); err != nil {
			return err
		}
		pretty.WriteByte('\n')
		_, err := w.Write(pretty.Bytes())
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func appendJSON(buf *bytes.Buffer, v Value) error {
	v = v.Resolve()
	switch v.Type() {
	case TypeNull:
		buf.WriteString("null")
	case TypeBool:
		if v.Bool() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case TypeInt:
		if v.IsUnsignedInt() {
			buf.WriteString(strconv.FormatUint(v.Uint(), 10))
		} else {
			buf.WriteString(strconv.FormatInt(v.Int(), 10))
		}
	case TypeFloat:
		f := v.Float()
		b, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("non-finite float %v", f)
		}
		buf.Write(b)
	case TypeString:
		b, err := json.Marshal(v.Str())
		if err != nil {
			return err
		}
		buf.Write(b)
	case TypeSequence:
		buf.WriteByte('[')
		n := v.collCount()
		for i := 0; i < n; i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, v.seqAt(i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case TypeMapping:
		buf.WriteByte('{')
		n := v.collCount()
		for i := 0; i < n; i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, val := v.pairAt(i)
			ks := k.Resolve()
			var key string
			if ks.IsString() {
				key = ks.Str()
			} else {
				key = scalarText(ks)
			}
			kb, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := appendJSON(buf, val); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot emit %s as JSON", v.Type())
	}
	return nil
}
