package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestDecodeRedrawBatch(t *testing.T) {
	batch := []any{
		[]any{"grid_resize", []any{1, 80, 24}},
		[]any{"hl_attr_define",
			[]any{1, map[string]any{"foreground": 0xFF0000}},
			[]any{2, map[string]any{"bold": true}}},
		[]any{"flush", []any{}},
	}
	data, err := msgpack.Marshal(batch)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	dec := NewDecoder(bytes.NewReader(data))
	v, err := dec.Decode()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	events, ok := v.Array()
	if !ok || len(events) != 3 {
		t.Fatalf("expected 3 events, got %s", v)
	}

	ev, _ := events[0].Array()
	if name, _ := ev[0].Str(); name != "grid_resize" {
		t.Fatalf("unexpected event name: %s", ev[0])
	}
	tuple, _ := ev[1].Array()
	if w, _ := tuple[1].Int(); w != 80 {
		t.Fatalf("unexpected width: %s", tuple[1])
	}

	ev, _ = events[1].Array()
	if len(ev) != 3 {
		t.Fatalf("expected two tuples for hl_attr_define")
	}
	tuple, _ = ev[1].Array()
	pairs, ok := tuple[1].Map()
	if !ok || len(pairs) != 1 {
		t.Fatalf("expected attribute map, got %s", tuple[1])
	}
	if k, _ := pairs[0].Key.Str(); k != "foreground" {
		t.Fatalf("unexpected key: %s", pairs[0].Key)
	}
	if fg, _ := pairs[0].Val.Int(); fg != 0xFF0000 {
		t.Fatalf("unexpected color: %s", pairs[0].Val)
	}

	if _, err := dec.Decode(); err != io.EOF {
		t.Fatalf("expected EOF after batch, got %v", err)
	}
}

func TestDecodeRawCodes(t *testing.T) {
	data := []byte{
		0xc0,       // nil
		0xc3,       // true
		0x07,       // fixint 7
		0xe0,       // fixint -32
		0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, // uint64 max
		0xcb, 0x3f, 0xf8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // float64 1.5
		0xa2, 'h', 'i', // fixstr "hi"
		0xc4, 0x02, 0x01, 0x02, // bin8
		0xd4, 0x01, 0xaa, // fixext1, type 1
	}

	dec := NewDecoder(bytes.NewReader(data))

	v, err := dec.Decode()
	if err != nil || !v.IsNil() {
		t.Fatalf("nil: got %s, %v", v, err)
	}

	v, _ = dec.Decode()
	if b, ok := v.Bool(); !ok || !b {
		t.Fatalf("bool: got %s", v)
	}

	v, _ = dec.Decode()
	if i, _ := v.Int(); i != 7 {
		t.Fatalf("fixint: got %s", v)
	}

	v, _ = dec.Decode()
	if i, _ := v.Int(); i != -32 {
		t.Fatalf("negative fixint: got %s", v)
	}

	v, _ = dec.Decode()
	if _, ok := v.Int(); ok {
		t.Fatalf("uint64 max should not fit Int")
	}
	if u, ok := v.Uint(); !ok || u != ^uint64(0) {
		t.Fatalf("uint64 max: got %s", v)
	}

	v, _ = dec.Decode()
	if f, ok := v.Float(); !ok || f != 1.5 {
		t.Fatalf("float: got %s", v)
	}

	v, _ = dec.Decode()
	if s, _ := v.Str(); s != "hi" {
		t.Fatalf("str: got %s", v)
	}

	v, _ = dec.Decode()
	if b, ok := v.Bytes(); !ok || len(b) != 2 || b[0] != 1 {
		t.Fatalf("bin: got %s", v)
	}

	v, err = dec.Decode()
	if err != nil {
		t.Fatalf("ext decode failed: %v", err)
	}
	id, ok := v.ExtID()
	if !ok || id != 1 {
		t.Fatalf("ext id: got %s", v)
	}
	if b, _ := v.Bytes(); len(b) != 1 || b[0] != 0xaa {
		t.Fatalf("ext payload: got %v", b)
	}
}

func TestDecodeDepthLimit(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < maxDepth+8; i++ {
		buf.WriteByte(0x91) // fixarray of one element
	}
	buf.WriteByte(0xc0)

	_, err := NewDecoder(&buf).Decode()
	if !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}
}

func TestDecodeSizeLimits(t *testing.T) {
	oversized := [][]byte{
		{0xc6, 0x00, 0x01, 0x00, 0x01},       // bin32 claiming 65537 bytes
		{0xc9, 0x00, 0x01, 0x00, 0x01, 0x05}, // ext32 claiming 65537 bytes
		{0xdd, 0x00, 0x10, 0x00, 0x01},       // array32 claiming 1<<20+1 elements
	}
	for _, data := range oversized {
		_, err := NewDecoder(bytes.NewReader(data)).Decode()
		if !errors.Is(err, ErrTooLarge) {
			t.Fatalf("code 0x%02x: expected ErrTooLarge, got %v", data[0], err)
		}
	}
}

func TestDecodeTruncatedStream(t *testing.T) {
	full, err := msgpack.Marshal([]any{"grid_clear", []any{1}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	_, err = NewDecoder(bytes.NewReader(full[:len(full)-1])).Decode()
	if err == nil {
		t.Fatalf("expected error for truncated stream")
	}
}
