package genval

import (
	"math"
	"strings"
)

// Equal reports structural equality. Equal raw words are equal by
// construction; otherwise values of the same type are compared
// recursively. Integer comparison normalises the signed and
// unsigned-range-extended representations. Indirect wrappers compare
// by their resolved value: metadata is not semantic.
func Equal(a, b Value) bool {
	if a == b {
		return true
	}
	return Compare(a, b) == 0
}

// Compare is the canonical total order over values:
//
//  1. different types order by the type discriminator;
//  2. null compares equal, false < true;
//  3. numbers compare numerically, with unsigned-range-extended
//     magnitudes above every signed value and NaN after +Inf;
//  4. strings compare byte-lexicographically;
//  5. collections compare lexicographically by element, mappings by
//     their pair sequence in stored order.
func Compare(a, b Value) int {
	if a == b {
		return 0
	}
	a, b = a.Resolve(), b.Resolve()
	if a == b {
		return 0
	}
	ta, tb := a.Type(), b.Type()
	if ta != tb {
		if ta < tb {
			return -1
		}
		return 1
	}
	switch ta {
	case TypeInvalid, TypeNull:
		return 0
	case TypeBool:
		// false < true
		if a == False {
			return -1
		}
		return 1
	case TypeInt:
		return compareInt(a, b)
	case TypeFloat:
		return compareFloat(a.Float(), b.Float())
	case TypeString:
		return strings.Compare(a.Str(), b.Str())
	case TypeSequence:
		na, nb := a.collCount(), b.collCount()
		for i := 0; i < na && i < nb; i++ {
			if c := Compare(a.seqAt(i), b.seqAt(i)); c != 0 {
				return c
			}
		}
		return cmpLen(na, nb)
	case TypeMapping:
		na, nb := a.collCount(), b.collCount()
		for i := 0; i < na && i < nb; i++ {
			ka, va := a.pairAt(i)
			kb, vb := b.pairAt(i)
			if c := Compare(ka, kb); c != 0 {
				return c
			}
			if c := Compare(va, vb); c != 0 {
				return c
			}
		}
		return cmpLen(na, nb)
	case TypeAlias:
		return strings.Compare(AliasTarget(a), AliasTarget(b))
	}
	return 0
}

func cmpLen(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt(a, b Value) int {
	ua, la := a.IsUnsignedInt(), a.Int()
	ub, lb := b.IsUnsignedInt(), b.Int()
	switch {
	case ua && ub:
		return cmpU64(a.Uint(), b.Uint())
	case ua:
		// a is in [2^63, 2^64): above any signed value.
		return 1
	case ub:
		return -1
	case la < lb:
		return -1
	case la > lb:
		return 1
	}
	return 0
}

func cmpU64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		// NaN sorts after +Inf.
		return 1
	case bn:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
