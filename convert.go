package genval

import (
	"math"
	"strconv"
)

// Convert coerces v to the target type per the fixed conversion
// table. Conversions that cannot be total — malformed string numbers,
// out-of-range or NaN floats to int, collections to int, float or
// string — fail
// with Invalid.
func (b *Builder) Convert(in Value, target Type) Value {
	v := in.Resolve()
	if v.IsInvalid() {
		return Invalid
	}
	switch target {
	case TypeNull:
		return Null
	case TypeBool:
		return b.toBool(v)
	case TypeInt:
		return b.toInt(v)
	case TypeFloat:
		return b.toFloat(v)
	case TypeString:
		return b.toString(v)
	case TypeSequence, TypeMapping:
		if v.Type() == target {
			return v
		}
	}
	return Invalid
}

func (b *Builder) toBool(v Value) Value {
	switch v.Type() {
	case TypeNull:
		return False
	case TypeBool:
		return v
	case TypeInt:
		return b.CreateBool(v.Uint() != 0)
	case TypeFloat:
		f := v.Float()
		return b.CreateBool(f != 0 && !math.IsNaN(f) && !math.IsInf(f, 0))
	case TypeString:
		switch v.Str() {
		case "true":
			return True
		case "false":
			return False
		}
	case TypeSequence, TypeMapping:
		return b.CreateBool(v.Len() != 0)
	}
	return Invalid
}

func (b *Builder) toInt(v Value) Value {
	switch v.Type() {
	case TypeNull:
		return b.CreateInt(0)
	case TypeBool:
		if v.Bool() {
			return b.CreateInt(1)
		}
		return b.CreateInt(0)
	case TypeInt:
		return v
	case TypeFloat:
		f := v.Float()
		if math.IsNaN(f) || f >= math.MaxUint64 || f < math.MinInt64 {
			return Invalid
		}
		if f >= math.MaxInt64 {
			return b.CreateUint(uint64(f))
		}
		return b.CreateInt(int64(f))
	case TypeString:
		s := v.Str()
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return b.CreateInt(i)
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return b.CreateUint(u)
		}
	}
	return Invalid
}

func (b *Builder) toFloat(v Value) Value {
	switch v.Type() {
	case TypeNull:
		return b.CreateFloat(0)
	case TypeBool:
		if v.Bool() {
			return b.CreateFloat(1)
		}
		return b.CreateFloat(0)
	case TypeInt:
		if v.IsUnsignedInt() {
			return b.CreateFloat(float64(v.Uint()))
		}
		return b.CreateFloat(float64(v.Int()))
	case TypeFloat:
		return v
	case TypeString:
		if f, err := strconv.ParseFloat(v.Str(), 64); err == nil {
			return b.CreateFloat(f)
		}
	}
	return Invalid
}

func (b *Builder) toString(v Value) Value {
	switch v.Type() {
	case TypeNull:
		return b.CreateString("")
	case TypeBool:
		if v.Bool() {
			return b.CreateString("true")
		}
		return b.CreateString("false")
	case TypeInt:
		if v.IsUnsignedInt() {
			return b.CreateString(strconv.FormatUint(v.Uint(), 10))
		}
		return b.CreateString(strconv.FormatInt(v.Int(), 10))
	case TypeFloat:
		// Shortest representation that round-trips.
		return b.CreateString(strconv.FormatFloat(v.Float(), 'g', -1, 64))
	case TypeString:
		return v
	}
	return Invalid
}
