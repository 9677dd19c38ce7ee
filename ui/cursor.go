package ui

import (
	"log"

	"github.com/sfsam/nvgrid/wire"
)

// CursorShape selects how the cursor is drawn in a mode.
type CursorShape uint8

const (
	CursorBlock CursorShape = iota
	CursorVertical
	CursorHorizontal
	// CursorGUIDefault defers the choice to the embedder, used when a
	// mode reports a shape this client does not recognize.
	CursorGUIDefault
)

// CursorAttrs describes cursor rendering for one editor mode: shape,
// how much of the cell it covers, blink timing, the mode's display
// name, and colors resolved through the highlight table at definition
// time.
type CursorAttrs struct {
	Name       string
	Shape      CursorShape
	Percentage uint16
	BlinkWait  uint16
	BlinkOn    uint16
	BlinkOff   uint16
	Foreground Color
	Background Color
}

func parseCursorShape(v wire.Value) CursorShape {
	if s, ok := v.Str(); ok {
		switch s {
		case "block":
			return CursorBlock
		case "vertical":
			return CursorVertical
		case "horizontal":
			return CursorHorizontal
		}
	}
	log.Printf("redraw: unknown cursor shape - event=mode_info_set shape=%s", v)
	return CursorGUIDefault
}

// uint16Of narrows a wire integer, yielding zero on any mismatch. Mode
// property maps use zero-tolerant numeric fields.
func uint16Of(v wire.Value) uint16 {
	if u, ok := v.Uint(); ok && u <= 0xFFFF {
		return uint16(u)
	}
	return 0
}

// parseCursorAttrs builds one mode entry from its property map.
// Unrecognized keys are ignored silently; they are how the protocol
// grows.
func parseCursorAttrs(hl *highlightTable, pairs []wire.Pair) CursorAttrs {
	var attrs CursorAttrs

	for _, pair := range pairs {
		key, ok := pair.Key.Str()
		if !ok {
			log.Printf("redraw: map key type error - event=mode_info_set type=%s", pair.Key.Kind())
			continue
		}

		switch key {
		case "cursor_shape":
			attrs.Shape = parseCursorShape(pair.Val)
		case "cell_percentage":
			attrs.Percentage = uint16Of(pair.Val)
		case "blinkwait":
			attrs.BlinkWait = uint16Of(pair.Val)
		case "blinkon":
			attrs.BlinkOn = uint16Of(pair.Val)
		case "blinkoff":
			attrs.BlinkOff = uint16Of(pair.Val)
		case "name":
			if name, ok := pair.Val.Str(); ok {
				attrs.Name = name
			}
		case "attr_id":
			id, ok := pair.Val.Int()
			if !ok {
				log.Printf("redraw: highlight id type error - event=mode_info_set type=%s", pair.Val.Kind())
				continue
			}
			entry := hl.entry(int(id))
			if entry == nil {
				log.Printf("redraw: unknown highlight id - event=mode_info_set id=%d", id)
				continue
			}
			attrs.Foreground = entry.Foreground
			attrs.Background = entry.Background
		}
	}

	return attrs
}
