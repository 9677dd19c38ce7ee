package ui

import (
	"strings"
	"testing"
)

func fillRow(g *Grid, row int, ch byte) {
	for col := 0; col < g.Width; col++ {
		*g.CellAt(row, col) = makeCell(string(ch), HLAttrs{})
	}
}

func rowString(g *Grid, row int) string {
	var b strings.Builder
	for _, c := range g.Row(row) {
		if c.Empty() {
			b.WriteByte(' ')
		} else {
			b.Write(c.TextBytes())
		}
	}
	return b.String()
}

func gridStrings(g *Grid) []string {
	rows := make([]string, g.Height)
	for r := 0; r < g.Height; r++ {
		rows[r] = rowString(g, r)
	}
	return rows
}

func TestResizeBufferInvariant(t *testing.T) {
	var g Grid
	for _, dims := range [][2]int{{10, 5}, {1, 1}, {0, 0}, {3, 7}, {80, 24}} {
		g.resize(dims[0], dims[1])
		if len(g.Cells) != dims[0]*dims[1] {
			t.Fatalf("resize %dx%d: buffer length %d", dims[0], dims[1], len(g.Cells))
		}
	}
}

func TestClear(t *testing.T) {
	var g Grid
	g.resize(4, 2)
	fillRow(&g, 0, 'a')
	fillRow(&g, 1, 'b')

	empty := Cell{}
	empty.Attrs.Background = RGB(0x222222)
	g.clear(empty)

	for i := range g.Cells {
		if !g.Cells[i].Empty() || g.Cells[i].Attrs.Background != RGB(0x222222) {
			t.Fatalf("cell %d not cleared: %+v", i, g.Cells[i])
		}
	}
}

func TestScrollUp(t *testing.T) {
	var g Grid
	g.resize(4, 4)
	for r := 0; r < 4; r++ {
		fillRow(&g, r, byte('a'+r))
	}

	g.scroll(0, 4, 0, 4, 1)

	got := gridStrings(&g)
	// Content moves up; the vacated bottom row keeps stale content.
	want := []string{"bbbb", "cccc", "dddd", "dddd"}
	for r := range want {
		if got[r] != want[r] {
			t.Fatalf("row %d: got %q want %q", r, got[r], want[r])
		}
	}
}

func TestScrollDown(t *testing.T) {
	var g Grid
	g.resize(4, 4)
	for r := 0; r < 4; r++ {
		fillRow(&g, r, byte('a'+r))
	}

	g.scroll(0, 4, 0, 4, -1)

	got := gridStrings(&g)
	want := []string{"aaaa", "aaaa", "bbbb", "cccc"}
	for r := range want {
		if got[r] != want[r] {
			t.Fatalf("row %d: got %q want %q", r, got[r], want[r])
		}
	}
}

func TestScrollColumnsRestricted(t *testing.T) {
	var g Grid
	g.resize(4, 3)
	for r := 0; r < 3; r++ {
		fillRow(&g, r, byte('a'+r))
	}

	g.scroll(0, 3, 1, 3, 1)

	got := gridStrings(&g)
	want := []string{"abba", "bccb", "cccc"}
	for r := range want {
		if got[r] != want[r] {
			t.Fatalf("row %d: got %q want %q", r, got[r], want[r])
		}
	}
}

func TestScrollCompensatingInverse(t *testing.T) {
	var g Grid
	g.resize(5, 6)
	for r := 0; r < 6; r++ {
		fillRow(&g, r, byte('a'+r))
	}
	orig := gridStrings(&g)

	const n = 2
	g.scroll(0, 6, 0, 5, n)
	g.scroll(0, 6, 0, 5, -n)

	got := gridStrings(&g)
	// The interior [top+n, bottom) is restored exactly.
	for r := n; r < 6; r++ {
		if got[r] != orig[r] {
			t.Fatalf("interior row %d not restored: got %q want %q", r, got[r], orig[r])
		}
	}
}

func TestScrollWholeRegion(t *testing.T) {
	var g Grid
	g.resize(3, 3)
	for r := 0; r < 3; r++ {
		fillRow(&g, r, byte('a'+r))
	}
	before := gridStrings(&g)

	// Shifting by the full region height copies nothing.
	g.scroll(0, 3, 0, 3, 3)

	got := gridStrings(&g)
	for r := range before {
		if got[r] != before[r] {
			t.Fatalf("row %d changed: got %q want %q", r, got[r], before[r])
		}
	}
}

func TestCopyFromIsDeep(t *testing.T) {
	var src, dst Grid
	src.resize(3, 2)
	fillRow(&src, 0, 'x')
	src.Frame = 7
	src.CursorRow, src.CursorCol = 1, 2

	dst.copyFrom(&src)
	fillRow(&src, 0, 'y')

	if rowString(&dst, 0) != "xxx" {
		t.Fatalf("copy must not share cell storage: %q", rowString(&dst, 0))
	}
	if dst.Frame != 7 || dst.CursorRow != 1 || dst.CursorCol != 2 {
		t.Fatalf("metadata not copied: %+v", dst)
	}
}
