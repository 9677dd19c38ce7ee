package ui

// Color packs a 24-bit RGB value together with a default-inherit marker.
// A marked color renders with whatever the default highlight currently
// specifies for that channel; redefining the default rewrites the RGB
// part of marked colors in place, so the marker survives.
type Color uint32

const colorDefaultBit Color = 1 << 24

// RGB returns an explicit color.
func RGB(rgb uint32) Color { return Color(rgb & 0xFFFFFF) }

// DefaultRGB returns a default-inheriting color carrying rgb as its
// current resolution.
func DefaultRGB(rgb uint32) Color { return RGB(rgb) | colorDefaultBit }

// IsDefault reports whether the color inherits from the default
// highlight.
func (c Color) IsDefault() bool { return c&colorDefaultBit != 0 }

// RGB returns the color's 24-bit RGB resolution.
func (c Color) RGB() uint32 { return uint32(c & 0xFFFFFF) }

// AttrFlags is a bitmask of text decorations.
type AttrFlags uint16

const (
	AttrBold AttrFlags = 1 << iota
	AttrItalic
	AttrUnderline
	AttrStrikethrough
	AttrUndercurl
	AttrReverse
)

// HLAttrs is one resolved highlight: three color channels plus
// decoration flags. Reverse video is already applied as a foreground/
// background swap when the highlight is defined; AttrReverse only
// records that the swap happened.
type HLAttrs struct {
	Foreground Color
	Background Color
	Special    Color
	Flags      AttrFlags
}

// highlightTable maps small integer highlight ids to attributes.
// Entry 0 always exists and is the default highlight.
type highlightTable struct {
	entries []HLAttrs
}

func newHighlightTable() highlightTable {
	return highlightTable{entries: []HLAttrs{{
		Foreground: DefaultRGB(0),
		Background: DefaultRGB(0),
		Special:    DefaultRGB(0),
	}}}
}

func (t *highlightTable) defaultEntry() *HLAttrs {
	return &t.entries[0]
}

// newEntry returns the entry for id, creating it as a copy of the
// current default. Skipped ids below a new high id are filled with
// default copies as well. Never fails.
func (t *highlightTable) newEntry(id int) *HLAttrs {
	def := t.entries[0]
	for len(t.entries) <= id {
		t.entries = append(t.entries, def)
	}
	t.entries[id] = def
	return &t.entries[id]
}

// entry returns the entry for id, or nil when id is outside the table.
// Callers treat nil as a protocol error, not a crash.
func (t *highlightTable) entry(id int) *HLAttrs {
	if id < 0 || id >= len(t.entries) {
		return nil
	}
	return &t.entries[id]
}
