package genval

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/willabides/genval/internal/arena"
	"github.com/willabides/genval/internal/resolve"
	"github.com/willabides/genval/internal/vlsize"
)

// Schema selects the scalar resolution rules a builder parses with.
type Schema = resolve.Schema

// Schema selectors.
const (
	SchemaYAML11         = resolve.SchemaYAML11
	SchemaYAML11PyYAML   = resolve.SchemaYAML11PyYAML
	SchemaYAML12         = resolve.SchemaYAML12
	SchemaYAML12Core     = resolve.SchemaYAML12Core
	SchemaYAML12Failsafe = resolve.SchemaYAML12Failsafe
	SchemaYAML12JSON     = resolve.SchemaYAML12JSON
	SchemaJSON           = resolve.SchemaJSON
)

// Allocator is the byte-region allocator backing a builder.
type Allocator = arena.Arena

// NewAllocator creates a growable allocator, for callers that want to
// hand a pre-existing one to several builders in turn.
func NewAllocator(sizeHint int) *Allocator { return arena.New(sizeHint) }

// BuilderConfig is the configuration record passed at builder
// creation.
type BuilderConfig struct {
	// Schema selects scalar resolution for Parse and the failsafe
	// representation.
	Schema Schema

	// Allocator is an optional pre-existing allocator to borrow. When
	// nil one is created sized by EstimatedMaxSize.
	Allocator *Allocator

	// EstimatedMaxSize hints the initial arena capacity.
	EstimatedMaxSize int

	// Buffer, when non-nil, makes this an in-place builder confined to
	// the given storage. Allocation beyond it fails and grows the
	// failure counter; see BuildRetry for the grow-and-retry loop.
	Buffer []byte

	// Parent chains this builder under another for scoping.
	Parent *Builder

	// OwnsAllocator transfers ownership of Allocator: Destroy resets
	// it. Implied when the builder creates its own.
	OwnsAllocator bool

	// DisableDuplicateKeys makes mapping construction fail on
	// duplicate keys. Without it every pair is stored as given,
	// duplicates included.
	DisableDuplicateKeys bool

	// EnableDedup turns on content-addressed interning of every
	// out-of-place store.
	EnableDedup bool

	// DedupChain extends dedup lookup through ancestor builders.
	DedupChain bool

	// ScopeLeader marks this builder as the root of a bulk-discard
	// scope.
	ScopeLeader bool

	// CreateTag makes Parse attach resolved tag metadata to scalars.
	CreateTag bool

	// Trace enables structured trace logging of builder lifecycle and
	// operation dispatch.
	Trace bool

	// Logger receives trace output. Defaults to the logrus standard
	// logger when Trace is set.
	Logger logrus.FieldLogger
}

// A Builder owns an arena and constructs values into it. Builders form
// a tree: a child shares read access to its ancestors' arenas but
// never writes to them. A builder is not safe for concurrent use; the
// values it produces are immutable and may be read from any goroutine.
type Builder struct {
	cfg       BuilderConfig
	a         *arena.Arena
	id        uint8
	parent    *Builder
	ownsArena bool
	destroyed bool
	log       logrus.FieldLogger
	pool      *WorkerPool
}

// NewBuilder creates a builder from the given configuration.
func NewBuilder(cfg BuilderConfig) *Builder {
	b := &Builder{cfg: cfg, parent: cfg.Parent}
	switch {
	case cfg.Buffer != nil:
		b.a = arena.NewFixed(cfg.Buffer)
		b.ownsArena = true
	case cfg.Allocator != nil:
		b.a = cfg.Allocator
		b.ownsArena = cfg.OwnsAllocator
	default:
		b.a = arena.New(cfg.EstimatedMaxSize)
		b.ownsArena = true
	}
	if cfg.EnableDedup {
		b.a.EnableDedup()
	}
	b.id = registerArena(b.a)
	if cfg.Trace {
		b.log = cfg.Logger
		if b.log == nil {
			b.log = logrus.StandardLogger()
		}
		b.log.WithFields(logrus.Fields{
			"arena":  b.id,
			"schema": cfg.Schema,
			"leader": cfg.ScopeLeader,
		}).Debug("builder created")
	}
	return b
}

// Destroy unregisters the builder's arena. Every out-of-place value it
// produced becomes unreadable. Child builders must be destroyed first.
func (b *Builder) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	unregisterArena(b.id)
	if b.ownsArena {
		b.a.Reset()
	}
	if b.log != nil {
		b.log.WithField("arena", b.id).Debug("builder destroyed")
	}
}

// Config returns the configuration the builder was created with.
func (b *Builder) Config() BuilderConfig { return b.cfg }

// Parent returns the parent builder, or nil at the root.
func (b *Builder) Parent() *Builder { return b.parent }

// Failures returns the arena's allocation failure count.
func (b *Builder) Failures() uint64 { return b.a.Failures() }

// ResetFailures clears the failure counter before a retry.
func (b *Builder) ResetFailures() { b.a.ResetFailures() }

// Trim shrinks the arena to its high-water mark.
func (b *Builder) Trim() { b.a.Trim() }

// Release hints that the storage behind v is no longer needed.
func (b *Builder) Release(v Value) {
	if v.IsInplace() || v.arenaID() != b.id {
		return
	}
	// Only the topmost allocation is actually reclaimable; size is
	// unknown here so this is purely a frontier hint.
	b.a.Release(v.offset(), 0)
}

// Contains reports whether v is usable with this builder: inplace
// values always are; out-of-place values must live in this builder's
// arena or one of its ancestors'.
func (b *Builder) Contains(v Value) bool {
	if v.IsInvalid() {
		return false
	}
	if v.IsInplace() {
		return true
	}
	id := v.arenaID()
	for p := b; p != nil; p = p.parent {
		if p.id == id {
			return true
		}
	}
	// Nested payloads may still reference other arenas.
	return false
}

// owns reports whether v's storage is in this builder's own arena.
func (b *Builder) owns(v Value) bool {
	return v.IsInplace() || v.arenaID() == b.id
}

// ExportBuilder returns the builder that values surviving this scope
// are exported into: the first non-leader ancestor.
func (b *Builder) ExportBuilder() *Builder {
	p := b.parent
	for p != nil && p.cfg.ScopeLeader {
		p = p.parent
	}
	return p
}

// Export deep-copies v into the scope's export builder. It fails with
// Invalid when the scope has no export builder.
func (b *Builder) Export(v Value) Value {
	eb := b.ExportBuilder()
	if eb == nil {
		return Invalid
	}
	return eb.Internalize(v)
}

// Internalize copies v into this builder iff it is not already usable
// from it: values reachable entirely through this builder's arena
// chain pass through (a child shares read access to its ancestors),
// everything else is deep-copied. Inplace values are ownerless and
// pass through.
func (b *Builder) Internalize(v Value) Value {
	if v.IsInvalid() {
		return Invalid
	}
	if v.IsInplace() {
		return v
	}
	if b.deepIn(v, b.chainIDs()) {
		return v
	}
	return b.deepCopy(v)
}

func (b *Builder) chainIDs() map[uint8]bool {
	ids := make(map[uint8]bool)
	for p := b; p != nil; p = p.parent {
		ids[p.id] = true
	}
	return ids
}

// ownsDeep reports whether every reachable payload of v is in this
// builder's own arena.
func (b *Builder) ownsDeep(v Value) bool {
	return b.deepIn(v, map[uint8]bool{b.id: true})
}

func (b *Builder) deepIn(v Value, ids map[uint8]bool) bool {
	if v.IsInplace() {
		return true
	}
	if !ids[v.arenaID()] {
		return false
	}
	switch v.Type() {
	case TypeSequence:
		n := v.collCount()
		for i := 0; i < n; i++ {
			if !b.deepIn(v.seqAt(i), ids) {
				return false
			}
		}
	case TypeMapping:
		n := v.collCount()
		for i := 0; i < n; i++ {
			k, val := v.pairAt(i)
			if !b.deepIn(k, ids) || !b.deepIn(val, ids) {
				return false
			}
		}
	case TypeIndirect, TypeAlias:
		for bit := uint64(indValue); bit <= indFailsafe; bit <<= 1 {
			f := v.indirectField(bit)
			if f.IsValid() && !b.deepIn(f, ids) {
				return false
			}
		}
	}
	return true
}

func (b *Builder) deepCopy(v Value) Value {
	if v.IsInplace() {
		return v
	}
	switch v.Type() {
	case TypeInt:
		mag, uns := v.boxedInt()
		if uns {
			return b.CreateUint(mag)
		}
		return b.CreateInt(int64(mag))
	case TypeFloat:
		return b.CreateFloat(v.Float())
	case TypeString:
		return b.CreateString(v.Str())
	case TypeSequence:
		n := v.collCount()
		items := make([]Value, n)
		for i := 0; i < n; i++ {
			items[i] = b.deepCopy(v.seqAt(i))
			if items[i].IsInvalid() {
				return Invalid
			}
		}
		return b.createSeq(items)
	case TypeMapping:
		n := v.collCount()
		items := make([]Value, 0, 2*n)
		for i := 0; i < n; i++ {
			k, val := v.pairAt(i)
			ck, cv := b.deepCopy(k), b.deepCopy(val)
			if ck.IsInvalid() || cv.IsInvalid() {
				return Invalid
			}
			items = append(items, ck, cv)
		}
		return b.createMapNoCheck(items)
	case TypeIndirect, TypeAlias:
		var ind Indirect
		ind.Value = b.copyField(v, indValue)
		ind.Anchor = b.copyField(v, indAnchor)
		ind.Tag = b.copyField(v, indTag)
		ind.Diag = b.copyField(v, indDiag)
		ind.Marker = b.copyField(v, indMarker)
		ind.Comment = b.copyField(v, indComment)
		ind.Style = b.copyField(v, indStyle)
		ind.Failsafe = b.copyField(v, indFailsafe)
		ind.Alias = v.aliasBitSet()
		return b.CreateIndirect(ind)
	}
	return Invalid
}

func (b *Builder) copyField(v Value, bit uint64) Value {
	f := v.indirectField(bit)
	if f.IsInvalid() {
		return Invalid
	}
	return b.deepCopy(f)
}

// word assembles an out-of-place word for an offset in this builder's
// arena.
func (b *Builder) word(off uint64, tagBits uint64) Value {
	if off == 0 {
		return Invalid
	}
	return Value(uint64(b.id)<<arenaShift | off | tagBits)
}

// store interns data, consulting ancestor dedup tables first when the
// dedup chain is enabled. It returns the owning builder and offset.
func (b *Builder) store(data []byte, align int) (*Builder, uint64) {
	if b.cfg.DedupChain {
		for p := b.parent; p != nil; p = p.parent {
			if off := p.a.Lookup(data, align); off != 0 {
				return p, off
			}
		}
	}
	off := b.a.Store(data, align)
	if off == 0 && b.log != nil {
		b.log.WithFields(logrus.Fields{
			"arena": b.id,
			"size":  len(data),
		}).Trace("allocation failure")
	}
	return b, off
}

// CreateNull returns the null constant.
func (b *Builder) CreateNull() Value { return Null }

// CreateBool returns one of the two boolean constants.
func (b *Builder) CreateBool(v bool) Value {
	if v {
		return True
	}
	return False
}

// CreateInt builds an integer value, inline when it fits the 61-bit
// inplace range.
func (b *Builder) CreateInt(i int64) Value {
	if i >= InplaceIntMin && i <= InplaceIntMax {
		return Value(uint64(i)<<3 | tagInt)
	}
	return b.boxInt(uint64(i), false)
}

// CreateUint builds an integer from an unsigned magnitude. Magnitudes
// beyond int64 range carry the unsigned decoration so that values in
// [2^63, 2^64) round-trip losslessly.
func (b *Builder) CreateUint(u uint64) Value {
	if u <= InplaceIntMax {
		return Value(u<<3 | tagInt)
	}
	return b.boxInt(u, u > math.MaxInt64)
}

func (b *Builder) boxInt(mag uint64, unsigned bool) Value {
	var buf [16]byte
	le().PutUint64(buf[:], mag)
	var flags uint64
	if unsigned {
		flags = boxedIntUnsigned
	}
	le().PutUint64(buf[8:], flags)
	owner, off := b.store(buf[:], scalarAl)
	return owner.word(off, tagBoxedInt)
}

// CreateFloat builds a float value, inline iff the round trip through
// a 32-bit float is lossless.
func (b *Builder) CreateFloat(f float64) Value {
	f32 := float32(f)
	if float64(f32) == f {
		return Value(uint64(math.Float32bits(f32))<<32 | inFloatBit | tagFloat)
	}
	var buf [8]byte
	le().PutUint64(buf[:], math.Float64bits(f))
	owner, off := b.store(buf[:], collAl)
	return owner.word(off, tagFloat)
}

// CreateString builds a string value, inline when it is at most seven
// bytes. Longer strings are stored length-prefixed with a trailing
// NUL.
func (b *Builder) CreateString(s string) Value {
	if len(s) <= InplaceStrMax {
		w := uint64(len(s))<<3 | tagString
		for i := 0; i < len(s); i++ {
			w |= uint64(s[i]) << (8 * uint(i+1))
		}
		return Value(w)
	}
	var pfx [vlsize.Max64]byte
	n, _ := vlsize.Encode64(pfx[:], uint64(len(s)))
	owner, off := b.scatterStore([][]byte{pfx[:n], []byte(s), {0}}, scalarAl)
	return owner.word(off, tagOutString)
}

// scatterStore concatenate-stores parts atomically. With the dedup
// chain enabled the parts are flattened first so ancestor lookup sees
// the full content.
func (b *Builder) scatterStore(parts [][]byte, align int) (*Builder, uint64) {
	if b.cfg.DedupChain {
		total := 0
		for _, p := range parts {
			total += len(p)
		}
		flat := make([]byte, 0, total)
		for _, p := range parts {
			flat = append(flat, p...)
		}
		return b.store(flat, align)
	}
	off := b.a.ScatterStore(parts, align)
	if off == 0 && b.log != nil {
		b.log.WithField("arena", b.id).Trace("allocation failure")
	}
	return b, off
}

// createSeq builds a sequence from items already owned by b.
func (b *Builder) createSeq(items []Value) Value {
	if len(items) == 0 {
		return EmptySeq
	}
	buf := make([]byte, 8+8*len(items))
	le().PutUint64(buf, uint64(len(items)))
	for i, it := range items {
		putWord(buf[8+8*i:], it)
	}
	owner, off := b.store(buf, collAl)
	return owner.word(off, tagCollection)
}

// createMapNoCheck builds a mapping from a flat key/value item slice
// already owned by b, without duplicate detection.
func (b *Builder) createMapNoCheck(items []Value) Value {
	if len(items) == 0 {
		return EmptyMap
	}
	pairs := len(items) / 2
	buf := make([]byte, 8+8*len(items))
	le().PutUint64(buf, uint64(pairs))
	for i, it := range items {
		putWord(buf[8+8*i:], it)
	}
	owner, off := b.store(buf, collAl)
	return owner.word(off, tagCollection|mapBit)
}

// CreateSequence builds a sequence value from items. An empty item
// slice yields the inplace empty-sequence sentinel with no allocation.
func (b *Builder) CreateSequence(items ...Value) Value {
	return b.opCreateSeq(0, items)
}

// CreateMapping builds a mapping from a flat key/value item slice.
// Duplicate keys fail when the builder disables them.
func (b *Builder) CreateMapping(items ...Value) Value {
	return b.opCreateMap(0, items)
}

func (b *Builder) opCreateSeq(flags OpFlags, items []Value) Value {
	owned := items
	if flags&DontInternalize == 0 {
		owned = make([]Value, len(items))
		for i, it := range items {
			owned[i] = b.Internalize(it)
			if owned[i].IsInvalid() {
				return Invalid
			}
		}
	} else if flags&NoChecks == 0 {
		for _, it := range items {
			if it.IsInvalid() {
				return Invalid
			}
		}
	}
	return b.createSeq(owned)
}

func (b *Builder) opCreateMap(flags OpFlags, items []Value) Value {
	if len(items)%2 != 0 {
		return Invalid
	}
	owned := items
	if flags&DontInternalize == 0 {
		owned = make([]Value, len(items))
		for i, it := range items {
			owned[i] = b.Internalize(it)
			if owned[i].IsInvalid() {
				return Invalid
			}
		}
	} else if flags&NoChecks == 0 {
		for _, it := range items {
			if it.IsInvalid() {
				return Invalid
			}
		}
	}
	if b.cfg.DisableDuplicateKeys {
		for i := 0; i < len(owned); i += 2 {
			for j := i + 2; j < len(owned); j += 2 {
				if Equal(owned[i], owned[j]) {
					return Invalid
				}
			}
		}
	}
	return b.createMapNoCheck(owned)
}

// BuildRetry runs fn against in-place builders of doubling size,
// starting at initial bytes and giving up beyond ceiling. It retries
// while fn returns Invalid with allocation failures recorded. The
// returned builder owns the result and must be destroyed by the
// caller; it is nil when every attempt failed.
func BuildRetry(initial, ceiling int, cfg BuilderConfig, fn func(*Builder) Value) (Value, *Builder) {
	for size := initial; size > 0 && size <= ceiling; size *= 2 {
		cfg.Buffer = make([]byte, size)
		b := NewBuilder(cfg)
		v := fn(b)
		if !v.IsInvalid() {
			return v, b
		}
		failed := b.Failures() > 0
		b.Destroy()
		if !failed {
			break
		}
	}
	return Invalid, nil
}
