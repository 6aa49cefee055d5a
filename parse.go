package genval

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/willabides/genval/internal/resolve"
)

// ParseFlags modify a Parse call.
type ParseFlags uint32

const (
	// CollectDiagnostics attaches parse diagnostics to the returned
	// directory instead of failing the whole parse.
	CollectDiagnostics ParseFlags = 1 << iota

	// ParseYAML11Mode, ParseYAML12Mode and ParseJSONMode override the
	// builder's schema for this parse.
	ParseYAML11Mode
	ParseYAML12Mode
	ParseJSONMode
)

// Input selects a parse source. Exactly one descriptor is consulted,
// in field order.
type Input struct {
	// String parses the literal text.
	String string

	// Bytes parses the raw bytes.
	Bytes []byte

	// Reader parses from an io.Reader.
	Reader io.Reader

	// Filename parses the named file.
	Filename string

	// Stdin parses the process standard input.
	Stdin bool
}

func (in Input) reader() (io.Reader, io.Closer, error) {
	switch {
	case in.String != "":
		return bytes.NewReader([]byte(in.String)), nil, nil
	case in.Bytes != nil:
		return bytes.NewReader(in.Bytes), nil, nil
	case in.Reader != nil:
		return in.Reader, nil, nil
	case in.Filename != "":
		f, err := os.Open(in.Filename)
		if err != nil {
			return nil, nil, fmt.Errorf("genval: open input: %w", err)
		}
		return f, f, nil
	case in.Stdin:
		return os.Stdin, nil, nil
	}
	return bytes.NewReader(nil), nil, nil
}

// Directory mapping keys.
const (
	dirDocumentsKey = "documents"
	dirDiagKey      = "diag"
	vdsRootKey      = "root"
	vdsStateKey     = "state"
)

// Parse reads a YAML or JSON stream through the parser back-end and
// lowers every document into tagged values owned by this builder. The
// result is a directory: a mapping with a "documents" sequence of VDS
// records and, under CollectDiagnostics, a "diag" sequence of
// diagnostic records. On failure without CollectDiagnostics the value
// result is Invalid.
func (b *Builder) Parse(input Input, flags ParseFlags) (Value, error) {
	r, closer, err := input.reader()
	if err != nil {
		return Invalid, err
	}
	if closer != nil {
		defer closer.Close()
	}

	schema := b.cfg.Schema
	switch {
	case flags&ParseJSONMode != 0:
		schema = SchemaJSON
	case flags&ParseYAML11Mode != 0:
		schema = SchemaYAML11
	case flags&ParseYAML12Mode != 0:
		schema = SchemaYAML12
	}

	var docs []Value
	var diags []Value
	dec := yaml.NewDecoder(r)
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if flags&CollectDiagnostics == 0 {
				return Invalid, fmt.Errorf("%w: %v", ErrMalformedInput, err)
			}
			diags = append(diags, b.diagRecord(err))
			break
		}
		root := b.lowerNode(&node, schema)
		if root.IsInvalid() {
			if b.Failures() > 0 {
				return Invalid, ErrAllocation
			}
			if flags&CollectDiagnostics != 0 {
				diags = append(diags, b.diagRecord(ErrMalformedInput))
				continue
			}
			return Invalid, ErrMalformedInput
		}
		docs = append(docs, b.CreateMapping(
			b.CreateString(vdsRootKey), root,
			b.CreateString(vdsStateKey), b.documentState(schema),
		))
	}

	items := []Value{
		b.CreateString(dirDocumentsKey), b.CreateSequence(docs...),
	}
	if flags&CollectDiagnostics != 0 {
		items = append(items, b.CreateString(dirDiagKey), b.CreateSequence(diags...))
	}
	return b.CreateMapping(items...), nil
}

func (b *Builder) documentState(schema Schema) Value {
	version := "1.2"
	if schema == SchemaYAML11 || schema == SchemaYAML11PyYAML {
		version = "1.1"
	}
	return b.CreateMapping(
		b.CreateString("version"), b.CreateString(version),
		b.CreateString("schema"), b.CreateString(schema.String()),
	)
}

func (b *Builder) diagRecord(err error) Value {
	return b.CreateMapping(
		b.CreateString("kind"), b.CreateString("malformed-input"),
		b.CreateString("message"), b.CreateString(err.Error()),
	)
}

// lowerNode converts one parser node tree into tagged values.
func (b *Builder) lowerNode(n *yaml.Node, schema Schema) Value {
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return Null
		}
		return b.lowerNode(n.Content[0], schema)
	}

	var core Value
	var failsafe Value = Invalid

	switch n.Kind {
	case yaml.AliasNode:
		return b.CreateAlias(n.Value)

	case yaml.ScalarNode:
		core, failsafe = b.lowerScalar(n, schema)
		if core.IsInvalid() {
			return Invalid
		}

	case yaml.SequenceNode:
		items := make([]Value, len(n.Content))
		for i, c := range n.Content {
			items[i] = b.lowerNode(c, schema)
			if items[i].IsInvalid() {
				return Invalid
			}
		}
		core = b.createSeq(items)

	case yaml.MappingNode:
		items := make([]Value, len(n.Content))
		for i, c := range n.Content {
			items[i] = b.lowerNode(c, schema)
			if items[i].IsInvalid() {
				return Invalid
			}
		}
		if b.cfg.DisableDuplicateKeys {
			core = b.opCreateMap(DontInternalize, items)
		} else {
			core = b.createMapNoCheck(items)
		}
		if core.IsInvalid() {
			return Invalid
		}

	default:
		return Invalid
	}

	ind := Indirect{Value: core, Failsafe: failsafe}
	has := failsafe.IsValid()

	if n.Anchor != "" {
		ind.Anchor = b.CreateString(n.Anchor)
		has = true
	}
	if tag := explicitTag(n); tag != "" {
		ind.Tag = b.CreateString(tag)
		has = true
	} else if b.cfg.CreateTag {
		ind.Tag = b.CreateString(resolve.ShortTag(n.Tag))
		has = true
	}
	if st := nodeStyle(n); st != StyleAny {
		ind.Style = b.CreateInt(int64(st))
		has = true
	}
	if c := nodeComment(n); c != "" {
		ind.Comment = b.CreateString(c)
		has = true
	}
	if n.Line > 0 {
		ind.Marker = b.CreateMarker(Marker{
			StartLine: n.Line, StartColumn: n.Column,
			EndLine: n.Line, EndColumn: n.Column,
		})
		has = true
	}
	if !has {
		return core
	}
	return b.CreateIndirect(ind)
}

// lowerScalar resolves a scalar node per the schema. The failsafe
// plain-string representation is retained when the builder is
// configured to create tags and resolution produced a non-string.
func (b *Builder) lowerScalar(n *yaml.Node, schema Schema) (Value, Value) {
	quoted := n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) != 0

	if quoted {
		return b.CreateString(n.Value), Invalid
	}
	tag := n.Tag
	if n.Style&yaml.TaggedStyle == 0 {
		// The back-end already resolved implicit tags with its own
		// 1.1-ish rules; re-resolve from the plain text so the
		// configured schema decides.
		tag = ""
	}
	rtag, out, err := resolve.Resolve(schema, tag, n.Value)
	if err != nil {
		return Invalid, Invalid
	}

	var core Value
	switch v := out.(type) {
	case nil:
		core = Null
	case bool:
		core = b.CreateBool(v)
	case int64:
		core = b.CreateInt(v)
	case uint64:
		core = b.CreateUint(v)
	case float64:
		core = b.CreateFloat(v)
	case string:
		core = b.CreateString(v)
	default:
		core = b.CreateString(n.Value)
	}

	failsafe := Invalid
	if b.cfg.CreateTag && rtag != resolve.StrTag {
		failsafe = b.CreateString(n.Value)
	}
	return core, failsafe
}

// explicitTag returns the source-explicit tag of a node, or "" when
// the tag was implicit.
func explicitTag(n *yaml.Node) string {
	if n.Style&yaml.TaggedStyle != 0 {
		return resolve.ShortTag(n.Tag)
	}
	if len(n.Tag) > 1 && n.Tag[0] == '!' && n.Tag[1] != '!' {
		return n.Tag
	}
	return ""
}

func nodeStyle(n *yaml.Node) Style {
	switch {
	case n.Style&yaml.SingleQuotedStyle != 0:
		return StyleSingleQuoted
	case n.Style&yaml.DoubleQuotedStyle != 0:
		return StyleDoubleQuoted
	case n.Style&yaml.LiteralStyle != 0:
		return StyleLiteral
	case n.Style&yaml.FoldedStyle != 0:
		return StyleFolded
	case n.Style&yaml.FlowStyle != 0:
		return StyleFlow
	}
	return StyleAny
}

func nodeComment(n *yaml.Node) string {
	switch {
	case n.LineComment != "":
		return n.LineComment
	case n.HeadComment != "":
		return n.HeadComment
	}
	return ""
}
