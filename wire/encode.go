package wire

import (
	"fmt"
	"io"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoder writes Values to a stream as msgpack objects.
type Encoder struct {
	w   io.Writer
	enc *msgpack.Encoder
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, enc: msgpack.NewEncoder(w)}
}

// Encode writes one value. Invalid values are an error, never silently
// written as nil.
func (e *Encoder) Encode(v Value) error {
	switch v.kind {
	case KindNil:
		return e.enc.EncodeNil()
	case KindBool:
		return e.enc.EncodeBool(v.num != 0)
	case KindInt:
		if v.wide {
			return e.enc.EncodeUint(uint64(v.num))
		}
		return e.enc.EncodeInt(v.num)
	case KindFloat:
		return e.enc.EncodeFloat64(math.Float64frombits(uint64(v.num)))
	case KindString:
		return e.enc.EncodeString(v.str)
	case KindBinary:
		// A nil slice must still arrive as empty binary, not msgpack nil.
		if v.bin == nil {
			return e.enc.EncodeBytes([]byte{})
		}
		return e.enc.EncodeBytes(v.bin)
	case KindArray:
		if err := e.enc.EncodeArrayLen(len(v.arr)); err != nil {
			return err
		}
		for _, elem := range v.arr {
			if err := e.Encode(elem); err != nil {
				return err
			}
		}
		return nil
	case KindMap:
		if err := e.enc.EncodeMapLen(len(v.pairs)); err != nil {
			return err
		}
		for _, pair := range v.pairs {
			if err := e.Encode(pair.Key); err != nil {
				return err
			}
			if err := e.Encode(pair.Val); err != nil {
				return err
			}
		}
		return nil
	case KindExt:
		if err := e.enc.EncodeExtHeader(v.ext, len(v.bin)); err != nil {
			return err
		}
		_, err := e.w.Write(v.bin)
		return err
	}
	return fmt.Errorf("wire: cannot encode %s value", v.kind)
}
