package ui

// Grid is a rectangular, row-major buffer of styled cells plus the
// frame counter and cursor snapshot stamped at publication. The
// dispatcher mutates exactly one grid instance at a time; a published
// grid is immutable until the publication protocol hands it back.
type Grid struct {
	Width  int
	Height int

	// Frame increases by one per published frame. Advisory: consumers
	// use it to detect missed or duplicate publications, never for
	// synchronization.
	Frame uint64

	// Cursor state as of the flush that published this grid.
	CursorRow int
	CursorCol int
	Cursor    CursorAttrs

	// Default holds the default highlight entry as of the flush, for
	// painting regions outside the grid.
	Default HLAttrs

	Cells []Cell
}

// resize reallocates the cell buffer for the new dimensions. Contents
// are not preserved; the protocol follows a resize with a full repaint.
func (g *Grid) resize(width, height int) {
	g.Width = width
	g.Height = height
	g.Cells = make([]Cell, width*height)
}

// CellAt returns the cell at row, col. Bounds are the caller's
// responsibility.
func (g *Grid) CellAt(row, col int) *Cell {
	return &g.Cells[row*g.Width+col]
}

// Row returns the cell slice for one row.
func (g *Grid) Row(row int) []Cell {
	start := row * g.Width
	return g.Cells[start : start+g.Width]
}

// clear resets every cell to the given empty cell.
func (g *Grid) clear(empty Cell) {
	for i := range g.Cells {
		g.Cells[i] = empty
	}
}

// scroll shifts the cell block [top,bottom) x [left,right) vertically by
// rows: positive moves content up, negative down. Rows revealed at the
// vacated edge keep their stale content; the protocol follows with line
// updates for them. The copy runs in the direction that cannot overlap
// itself. Bounds are validated by the caller.
func (g *Grid) scroll(top, bottom, left, right, rows int) {
	if rows >= 0 {
		count := (bottom - top) - rows
		for i := 0; i < count; i++ {
			dst := top + i
			src := dst + rows
			copy(g.Cells[dst*g.Width+left:dst*g.Width+right],
				g.Cells[src*g.Width+left:src*g.Width+right])
		}
		return
	}

	count := (bottom - top) + rows
	for i := 0; i < count; i++ {
		dst := bottom - 1 - i
		src := dst + rows
		copy(g.Cells[dst*g.Width+left:dst*g.Width+right],
			g.Cells[src*g.Width+left:src*g.Width+right])
	}
}

// copyFrom makes g a deep copy of src. Used after publication so the
// next frame's incremental updates start from the last published state.
func (g *Grid) copyFrom(src *Grid) {
	g.Width = src.Width
	g.Height = src.Height
	g.Frame = src.Frame
	g.CursorRow = src.CursorRow
	g.CursorCol = src.CursorCol
	g.Cursor = src.Cursor
	g.Default = src.Default
	if len(g.Cells) != len(src.Cells) {
		g.Cells = make([]Cell, len(src.Cells))
	}
	copy(g.Cells, src.Cells)
}
