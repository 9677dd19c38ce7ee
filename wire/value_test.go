package wire

import (
	"math"
	"testing"
)

func TestAccessorKinds(t *testing.T) {
	if _, ok := String("x").Int(); ok {
		t.Fatalf("Int on string should fail")
	}
	if _, ok := Int(-1).Uint(); ok {
		t.Fatalf("Uint on negative should fail")
	}
	if _, ok := Int(1).Bool(); ok {
		t.Fatalf("Bool on integer should fail")
	}
	if _, ok := Bool(true).Str(); ok {
		t.Fatalf("Str on boolean should fail")
	}

	u, ok := Uint(math.MaxUint64).Uint()
	if !ok || u != math.MaxUint64 {
		t.Fatalf("Uint round trip: got %d, %v", u, ok)
	}
	if _, ok := Uint(math.MaxUint64).Int(); ok {
		t.Fatalf("Int should reject values above MaxInt64")
	}

	i, ok := Uint(42).Int()
	if !ok || i != 42 {
		t.Fatalf("small unsigned should read as integer: got %d, %v", i, ok)
	}

	f, ok := Float(1.5).Float()
	if !ok || f != 1.5 {
		t.Fatalf("Float round trip: got %v, %v", f, ok)
	}

	if !Nil().IsNil() {
		t.Fatalf("Nil value not nil")
	}
	if Nil().Kind() != KindNil || Int(0).Kind() != KindInt {
		t.Fatalf("kind mismatch")
	}
}

func TestArrayAndMapAccess(t *testing.T) {
	v := Array(String("grid_resize"), Array(Int(1), Int(80), Int(24)))

	elems, ok := v.Array()
	if !ok || len(elems) != 2 {
		t.Fatalf("array access failed: %v, %v", elems, ok)
	}
	name, ok := elems[0].Str()
	if !ok || name != "grid_resize" {
		t.Fatalf("unexpected name: %q", name)
	}

	m := Map(KV("bold", Bool(true)), Pair{Key: Int(3), Val: Nil()})
	pairs, ok := m.Map()
	if !ok || len(pairs) != 2 {
		t.Fatalf("map access failed")
	}
	if k, _ := pairs[0].Key.Str(); k != "bold" {
		t.Fatalf("pair order not preserved")
	}
	if pairs[1].Key.Kind() != KindInt {
		t.Fatalf("non-string key not preserved")
	}
}

func TestRendering(t *testing.T) {
	v := Array(String("mode_change"), Array(String("insert"), Int(1)), Bool(false), Nil())
	got := v.String()
	want := `["mode_change", ["insert", 1], false, nil]`
	if got != want {
		t.Fatalf("render mismatch: got %s want %s", got, want)
	}

	long := String("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	if len(long.String()) > renderMaxStr+8 {
		t.Fatalf("long string not truncated: %s", long.String())
	}

	if got := Types([]Value{Int(1), String("x"), Array()}); got != "[integer, string, array]" {
		t.Fatalf("types mismatch: %s", got)
	}
}
