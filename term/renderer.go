// Copyright © 2025 nvgrid contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term/renderer.go
// Summary: Draws published frames onto a tcell screen.
// Usage: Called from the client loop whenever a new frame is ready.

package term

import (
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/sfsam/nvgrid/ui"
)

// render paints one published frame. The frame is immutable for the
// duration of the call; cells carry fully resolved attributes, so no
// highlight table access is needed here.
func render(g *ui.Grid, screen tcell.Screen, termDefaults bool) {
	screen.SetStyle(styleFor(g.Default, termDefaults))

	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			cell := g.CellAt(row, col)
			primary, combining := cellRunes(cell)
			screen.SetContent(col, row, primary, combining, styleFor(cell.Attrs, termDefaults))
			if runewidth.RuneWidth(primary) == 2 {
				// The editor pads a double-width glyph with an empty
				// cell; painting it would clobber the glyph's right
				// half.
				col++
			}
		}
	}

	showCursor(g, screen)
	screen.Show()
}

// cellRunes splits a cell's text into the base rune and its combining
// marks. Empty cells render as a plain space.
func cellRunes(c *ui.Cell) (rune, []rune) {
	text := c.TextBytes()
	if len(text) == 0 {
		return ' ', nil
	}

	primary, size := utf8.DecodeRune(text)
	rest := text[size:]
	if len(rest) == 0 {
		return primary, nil
	}

	combining := make([]rune, 0, 2)
	for len(rest) > 0 {
		r, n := utf8.DecodeRune(rest)
		combining = append(combining, r)
		rest = rest[n:]
	}
	return primary, combining
}

// styleFor translates resolved highlight attributes to a tcell style.
// Reverse video is already baked into the colors upstream and must not
// be applied again here.
func styleFor(attrs ui.HLAttrs, termDefaults bool) tcell.Style {
	st := tcell.StyleDefault.
		Foreground(colorOf(attrs.Foreground, termDefaults)).
		Background(colorOf(attrs.Background, termDefaults))

	if attrs.Flags&ui.AttrBold != 0 {
		st = st.Bold(true)
	}
	if attrs.Flags&ui.AttrItalic != 0 {
		st = st.Italic(true)
	}
	if attrs.Flags&ui.AttrStrikethrough != 0 {
		st = st.StrikeThrough(true)
	}
	if attrs.Flags&ui.AttrUndercurl != 0 {
		st = st.Underline(tcell.UnderlineStyleCurly, colorOf(attrs.Special, termDefaults))
	} else if attrs.Flags&ui.AttrUnderline != 0 {
		st = st.Underline(true)
	}
	return st
}

// colorOf converts a packed color to a tcell color. With termDefaults
// set, channels still inheriting the editor default map to the
// terminal's own colors instead.
func colorOf(c ui.Color, termDefaults bool) tcell.Color {
	if termDefaults && c.IsDefault() {
		return tcell.ColorDefault
	}
	rgb := c.RGB()
	r := int32((rgb >> 16) & 0xFF)
	g := int32((rgb >> 8) & 0xFF)
	b := int32(rgb & 0xFF)
	return tcell.NewRGBColor(r, g, b)
}

func showCursor(g *ui.Grid, screen tcell.Screen) {
	if g.CursorRow >= g.Height || g.CursorCol >= g.Width {
		screen.HideCursor()
		return
	}
	screen.SetCursorStyle(cursorStyle(g.Cursor))
	screen.ShowCursor(g.CursorCol, g.CursorRow)
}

func cursorStyle(attrs ui.CursorAttrs) tcell.CursorStyle {
	blink := attrs.BlinkOn > 0
	switch attrs.Shape {
	case ui.CursorVertical:
		if blink {
			return tcell.CursorStyleBlinkingBar
		}
		return tcell.CursorStyleSteadyBar
	case ui.CursorHorizontal:
		if blink {
			return tcell.CursorStyleBlinkingUnderline
		}
		return tcell.CursorStyleSteadyUnderline
	case ui.CursorBlock:
		if blink {
			return tcell.CursorStyleBlinkingBlock
		}
		return tcell.CursorStyleSteadyBlock
	}
	return tcell.CursorStyleDefault
}
