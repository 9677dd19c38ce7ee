package wire

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the category of a decoded protocol value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNil
	KindBool
	KindInt
	KindFloat
	KindString
	KindBinary
	KindArray
	KindMap
	KindExt
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindNil:     "nil",
	KindBool:    "boolean",
	KindInt:     "integer",
	KindFloat:   "float",
	KindString:  "string",
	KindBinary:  "binary",
	KindArray:   "array",
	KindMap:     "map",
	KindExt:     "ext",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Pair is one key/value entry of a map value. Map values preserve pair
// order; keys are not assumed unique and not assumed to be strings.
type Pair struct {
	Key Value
	Val Value
}

// Value is a single dynamically-typed protocol value. The zero value is
// KindInvalid. Values are cheap to copy; nested arrays and maps share
// their backing storage.
type Value struct {
	kind  Kind
	num   int64 // integer value, boolean as 0/1, or float bits
	wide  bool  // integer arrived as a uint64 above MaxInt64; bits in num
	str   string
	bin   []byte
	arr   []Value
	pairs []Pair
	ext   int8
}

// Nil returns the nil value.
func Nil() Value { return Value{kind: KindNil} }

// Bool returns a boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, num: i} }

// Uint returns an integer value. Values above MaxInt64 are retained
// losslessly and reported only by Uint.
func Uint(u uint64) Value {
	return Value{kind: KindInt, num: int64(u), wide: u > math.MaxInt64}
}

// Float returns a float value.
func Float(f float64) Value {
	return Value{kind: KindFloat, num: int64(math.Float64bits(f))}
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bin returns a binary value. The slice is not copied.
func Bin(b []byte) Value { return Value{kind: KindBinary, bin: b} }

// Array returns an array value over the given elements.
func Array(elems ...Value) Value { return Value{kind: KindArray, arr: elems} }

// Map returns a map value over the given pairs, preserving their order.
func Map(pairs ...Pair) Value { return Value{kind: KindMap, pairs: pairs} }

// KV builds a string-keyed map pair.
func KV(key string, val Value) Pair {
	return Pair{Key: String(key), Val: val}
}

// Ext returns an extension value with the given type id and payload.
func Ext(id int8, payload []byte) Value {
	return Value{kind: KindExt, ext: id, bin: payload}
}

// Kind reports the value's category.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether the value is nil.
func (v Value) IsNil() bool { return v.kind == KindNil }

// Bool returns the boolean value. The second result is false for
// non-boolean values.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.num != 0, true
}

// Int returns the integer value if it fits int64.
func (v Value) Int() (int64, bool) {
	if v.kind != KindInt || v.wide {
		return 0, false
	}
	return v.num, true
}

// Uint returns the integer value if it is non-negative.
func (v Value) Uint() (uint64, bool) {
	if v.kind != KindInt || (!v.wide && v.num < 0) {
		return 0, false
	}
	return uint64(v.num), true
}

// Float returns the float value.
func (v Value) Float() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return math.Float64frombits(uint64(v.num)), true
}

// Str returns the string value.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Bytes returns the binary payload of a binary or ext value.
func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBinary && v.kind != KindExt {
		return nil, false
	}
	return v.bin, true
}

// ExtID returns the type id of an ext value.
func (v Value) ExtID() (int8, bool) {
	if v.kind != KindExt {
		return 0, false
	}
	return v.ext, true
}

// Array returns the element slice of an array value.
func (v Value) Array() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// Map returns the ordered pairs of a map value.
func (v Value) Map() ([]Pair, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.pairs, true
}

// Render limits keep log lines bounded on hostile input.
const (
	renderMaxElems = 8
	renderMaxStr   = 48
	renderMaxDepth = 4
)

// String renders the value compactly for log messages. Long strings and
// collections are truncated.
func (v Value) String() string {
	var b strings.Builder
	v.render(&b, 0)
	return b.String()
}

func (v Value) render(b *strings.Builder, depth int) {
	if depth > renderMaxDepth {
		b.WriteString("…")
		return
	}

	switch v.kind {
	case KindNil:
		b.WriteString("nil")
	case KindBool:
		if v.num != 0 {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindInt:
		if v.wide {
			b.WriteString(strconv.FormatUint(uint64(v.num), 10))
		} else {
			b.WriteString(strconv.FormatInt(v.num, 10))
		}
	case KindFloat:
		f, _ := v.Float()
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case KindString:
		s := v.str
		if len(s) > renderMaxStr {
			s = s[:renderMaxStr] + "…"
		}
		b.WriteString(strconv.Quote(s))
	case KindBinary:
		fmt.Fprintf(b, "bin(%d)", len(v.bin))
	case KindExt:
		fmt.Fprintf(b, "ext(%d, %d)", v.ext, len(v.bin))
	case KindArray:
		b.WriteByte('[')
		for i, elem := range v.arr {
			if i == renderMaxElems {
				b.WriteString(", …")
				break
			}
			if i > 0 {
				b.WriteString(", ")
			}
			elem.render(b, depth+1)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, pair := range v.pairs {
			if i == renderMaxElems {
				b.WriteString(", …")
				break
			}
			if i > 0 {
				b.WriteString(", ")
			}
			pair.Key.render(b, depth+1)
			b.WriteString(": ")
			pair.Val.render(b, depth+1)
		}
		b.WriteByte('}')
	default:
		b.WriteString("invalid")
	}
}

// Types renders the kinds of a value sequence, for argument-type error
// logs.
func Types(vals []Value) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.kind.String())
	}
	b.WriteByte(']')
	return b.String()
}
