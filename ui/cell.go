package ui

// MaxCellText bounds the UTF-8 bytes stored inline in one cell. A
// grapheme cluster longer than this is truncated, not rejected; the
// bound keeps cells fixed-size.
const MaxCellText = 24

// Cell is one grid position: inline UTF-8 text, a rolling hash of the
// stored bytes for cache keys, and a value copy of the resolved
// highlight attributes. The copy keeps cells valid across highlight
// table growth. An empty cell has Size, Hash and Text all zero; it
// renders as a space in its background color.
type Cell struct {
	Text  [MaxCellText]byte
	Size  uint8
	Hash  uint64
	Attrs HLAttrs
}

// TextBytes returns the stored text, empty for an empty cell.
func (c *Cell) TextBytes() []byte { return c.Text[:c.Size] }

// Empty reports whether the cell holds no text.
func (c *Cell) Empty() bool { return c.Size == 0 }

// makeCell builds a cell from run text and resolved attributes. A
// single-space cell normalizes to the empty cell; the attributes are
// still copied so its background stays meaningful.
func makeCell(text string, attrs HLAttrs) Cell {
	c := Cell{Attrs: attrs}

	if text == " " {
		return c
	}

	limit := len(text)
	if limit > MaxCellText {
		limit = MaxCellText
	}
	c.Size = uint8(limit)
	c.Hash = 5381
	for i := 0; i < limit; i++ {
		c.Text[i] = text[i]
		c.Hash = c.Hash*33 + uint64(text[i])
	}
	return c
}
