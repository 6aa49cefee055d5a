package genval

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/willabides/genval/internal/arena"
	"github.com/willabides/genval/internal/vlsize"
)

// Out-of-place words carry an (arena id, offset) pair instead of a raw
// pointer. The registry maps ids to live arenas; it is the bookkeeping
// table for that addressing scheme, not semantic global state. Ids are
// recycled when a builder is destroyed, so the table stays small.
var registry = struct {
	sync.RWMutex
	arenas map[uint8]*arena.Arena
	nextID uint8
	free   []uint8
}{arenas: make(map[uint8]*arena.Arena)}

func registerArena(a *arena.Arena) uint8 {
	registry.Lock()
	defer registry.Unlock()
	var id uint8
	if n := len(registry.free); n > 0 {
		id = registry.free[n-1]
		registry.free = registry.free[:n-1]
	} else {
		registry.nextID++
		id = registry.nextID
		if id == 0 {
			// Wrapped: 255 live arenas already registered.
			panic("genval: arena id space exhausted")
		}
	}
	registry.arenas[id] = a
	return id
}

func unregisterArena(id uint8) {
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.arenas[id]; ok {
		delete(registry.arenas, id)
		registry.free = append(registry.free, id)
	}
}

func arenaByID(id uint8) *arena.Arena {
	registry.RLock()
	a := registry.arenas[id]
	registry.RUnlock()
	return a
}

// payload returns the arena bytes starting at v's offset, or nil when
// the owning arena is gone.
func (v Value) payload() []byte {
	a := arenaByID(v.arenaID())
	if a == nil {
		return nil
	}
	off := v.offset()
	if off == 0 || int(off) >= a.Len() {
		return nil
	}
	return a.At(off)
}

func le() binary.ByteOrder { return binary.LittleEndian }

// word reads a Value stored at p.
func word(p []byte) Value { return Value(le().Uint64(p)) }

func putWord(p []byte, v Value) { le().PutUint64(p, uint64(v)) }

// boxedInt reads the decorated integer payload: magnitude and the
// unsigned-interpretation flag.
func (v Value) boxedInt() (uint64, bool) {
	p := v.payload()
	if p == nil || len(p) < 16 {
		return 0, false
	}
	mag := le().Uint64(p)
	flags := le().Uint64(p[8:])
	return mag, flags&boxedIntUnsigned != 0
}

const boxedIntUnsigned = 1 << 0

// boxedFloat reads the boxed double payload.
func (v Value) boxedFloat() float64 {
	p := v.payload()
	if p == nil || len(p) < 8 {
		return 0
	}
	return math.Float64frombits(le().Uint64(p))
}

// outBytes reads an out-of-place string: a vlsize length prefix
// followed by the bytes and a trailing NUL.
func (v Value) outBytes() []byte {
	p := v.payload()
	if p == nil {
		return nil
	}
	n, consumed, err := vlsize.Decode64(p)
	if err != nil || uint64(len(p)) < uint64(consumed)+n {
		return nil
	}
	return p[consumed : uint64(consumed)+n]
}

// collCount reads the element (sequence) or pair (mapping) count of an
// out-of-place collection. The empty sentinels count zero.
func (v Value) collCount() int {
	if v.offset() == 0 {
		return 0
	}
	p := v.payload()
	if p == nil || len(p) < 8 {
		return 0
	}
	return int(le().Uint64(p))
}

// seqAt returns element i of a sequence, with no bounds checking
// beyond what storage provides.
func (v Value) seqAt(i int) Value {
	p := v.payload()
	if p == nil {
		return Invalid
	}
	pos := 8 + i*8
	if pos+8 > len(p) {
		return Invalid
	}
	return word(p[pos:])
}

// pairAt returns pair i of a mapping as (key, value).
func (v Value) pairAt(i int) (Value, Value) {
	p := v.payload()
	if p == nil {
		return Invalid, Invalid
	}
	pos := 8 + i*16
	if pos+16 > len(p) {
		return Invalid, Invalid
	}
	return word(p[pos:]), word(p[pos+8:])
}

// seqItems materializes the elements of a sequence. For a mapping it
// returns the flat key/value item array, interchangeable with a
// sequence of 2N values.
func (v Value) seqItems() []Value {
	n := v.collCount()
	if n == 0 {
		return nil
	}
	if v.Type() == TypeMapping {
		n *= 2
	}
	p := v.payload()
	if p == nil || len(p) < 8+n*8 {
		return nil
	}
	items := make([]Value, n)
	for i := range items {
		items[i] = word(p[8+i*8:])
	}
	return items
}

// Indirect storage: a flags word followed by one value word per
// present field, in field-bit order. Absent fields occupy no storage.
const (
	indValue    = 1 << 0
	indAnchor   = 1 << 1
	indTag      = 1 << 2
	indDiag     = 1 << 3
	indMarker   = 1 << 4
	indComment  = 1 << 5
	indStyle    = 1 << 6
	indFailsafe = 1 << 7
	indAlias    = 1 << 8
)

func (v Value) indirectFlags() uint64 {
	if v.tag() != tagIndirect {
		return 0
	}
	p := v.payload()
	if p == nil || len(p) < 8 {
		return 0
	}
	return le().Uint64(p)
}

func (v Value) aliasBitSet() bool { return v.indirectFlags()&indAlias != 0 }

// indirectField returns the stored word for the given presence bit, or
// Invalid when the field is absent.
func (v Value) indirectField(bit uint64) Value {
	flags := v.indirectFlags()
	if flags&bit == 0 {
		return Invalid
	}
	p := v.payload()
	slot := 1
	for b := uint64(1); b < bit; b <<= 1 {
		if flags&b != 0 {
			slot++
		}
	}
	pos := slot * 8
	if pos+8 > len(p) {
		return Invalid
	}
	return word(p[pos:])
}

// unwrap returns the wrapped value of an indirect with the
// value-present bit set, else Invalid.
func (v Value) unwrap() Value {
	if v.tag() != tagIndirect {
		return Invalid
	}
	return v.indirectField(indValue)
}
