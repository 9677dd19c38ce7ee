package wire

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Decode limits. Input that claims more than these allow gets an
// error instead of an allocation.
const (
	maxElems   = 1 << 20
	maxBlobLen = 1 << 16
	maxDepth   = 64
)

var (
	ErrTooLarge = errors.New("wire: value exceeds size limits")
	ErrTooDeep  = errors.New("wire: value nesting too deep")
)

// Decoder reads msgpack objects from a stream as Values.
type Decoder struct {
	dec *msgpack.Decoder
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: msgpack.NewDecoder(r)}
}

// Decode reads the next object from the stream. Errors from the
// underlying reader are returned as-is; io.EOF before the first byte of
// an object is a clean end of stream.
func (d *Decoder) Decode() (Value, error) {
	return d.decode(0)
}

func (d *Decoder) decode(depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, ErrTooDeep
	}

	code, err := d.dec.PeekCode()
	if err != nil {
		return Value{}, err
	}

	switch {
	case code == msgpcode.Nil:
		if err := d.dec.DecodeNil(); err != nil {
			return Value{}, err
		}
		return Nil(), nil

	case code == msgpcode.False || code == msgpcode.True:
		b, err := d.dec.DecodeBool()
		if err != nil {
			return Value{}, err
		}
		return Bool(b), nil

	case code == msgpcode.Uint64:
		u, err := d.dec.DecodeUint64()
		if err != nil {
			return Value{}, err
		}
		return Uint(u), nil

	case msgpcode.IsFixedNum(code),
		code == msgpcode.Uint8, code == msgpcode.Uint16, code == msgpcode.Uint32,
		code == msgpcode.Int8, code == msgpcode.Int16, code == msgpcode.Int32,
		code == msgpcode.Int64:
		i, err := d.dec.DecodeInt64()
		if err != nil {
			return Value{}, err
		}
		return Int(i), nil

	case code == msgpcode.Float, code == msgpcode.Double:
		f, err := d.dec.DecodeFloat64()
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil

	case msgpcode.IsString(code):
		s, err := d.dec.DecodeString()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil

	case msgpcode.IsBin(code):
		n, err := d.dec.DecodeBytesLen()
		if err != nil {
			return Value{}, err
		}
		if n > maxBlobLen {
			return Value{}, ErrTooLarge
		}
		b := make([]byte, n)
		if err := d.dec.ReadFull(b); err != nil {
			return Value{}, err
		}
		return Bin(b), nil

	case msgpcode.IsFixedArray(code), code == msgpcode.Array16, code == msgpcode.Array32:
		n, err := d.dec.DecodeArrayLen()
		if err != nil {
			return Value{}, err
		}
		if n > maxElems {
			return Value{}, ErrTooLarge
		}
		elems := make([]Value, 0, min(n, 1024))
		for i := 0; i < n; i++ {
			elem, err := d.decode(depth + 1)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, elem)
		}
		return Array(elems...), nil

	case msgpcode.IsFixedMap(code), code == msgpcode.Map16, code == msgpcode.Map32:
		n, err := d.dec.DecodeMapLen()
		if err != nil {
			return Value{}, err
		}
		if n > maxElems {
			return Value{}, ErrTooLarge
		}
		pairs := make([]Pair, 0, min(n, 1024))
		for i := 0; i < n; i++ {
			key, err := d.decode(depth + 1)
			if err != nil {
				return Value{}, err
			}
			val, err := d.decode(depth + 1)
			if err != nil {
				return Value{}, err
			}
			pairs = append(pairs, Pair{Key: key, Val: val})
		}
		return Map(pairs...), nil

	case msgpcode.IsExt(code):
		id, n, err := d.dec.DecodeExtHeader()
		if err != nil {
			return Value{}, err
		}
		if n > maxBlobLen {
			return Value{}, ErrTooLarge
		}
		payload := make([]byte, n)
		if err := d.dec.ReadFull(payload); err != nil {
			return Value{}, err
		}
		return Ext(id, payload), nil
	}

	return Value{}, fmt.Errorf("wire: unsupported type code 0x%02x", code)
}
