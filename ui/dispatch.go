package ui

import (
	"log"

	"github.com/sfsam/nvgrid/wire"
)

// maxGridDim caps resize requests. The editor never drives a terminal
// grid anywhere near this; a larger request is malformed input, not a
// big window.
const maxGridDim = 8192

// argKind is one expected position in an operation's signature.
type argKind uint8

const (
	argUint argKind = iota // non-negative integer: sizes, counts, ids
	argInt                 // signed integer
	argBool                // boolean, or an integer standing in for one
	argString
	argArray
	argMap
)

func (k argKind) matches(v wire.Value) bool {
	switch k {
	case argUint:
		i, ok := v.Int()
		return ok && i >= 0
	case argInt:
		_, ok := v.Int()
		return ok
	case argBool:
		if _, ok := v.Bool(); ok {
			return true
		}
		_, ok := v.Int()
		return ok
	case argString:
		_, ok := v.Str()
		return ok
	case argArray:
		_, ok := v.Array()
		return ok
	case argMap:
		_, ok := v.Map()
		return ok
	}
	return false
}

type redrawOp struct {
	kinds []argKind
	apply func(*State, []wire.Value)
}

// redrawOps maps event names to their signatures and handlers. A tuple
// may carry more arguments than its signature; the protocol evolves by
// appending, so extras are ignored.
var redrawOps = map[string]redrawOp{
	"grid_resize":        {[]argKind{argUint, argUint, argUint}, (*State).gridResize},
	"grid_clear":         {[]argKind{argUint}, (*State).gridClear},
	"grid_line":          {[]argKind{argUint, argUint, argUint, argArray}, (*State).gridLine},
	"grid_scroll":        {[]argKind{argUint, argUint, argUint, argUint, argUint, argInt}, (*State).gridScroll},
	"grid_cursor_goto":   {[]argKind{argUint, argUint, argUint}, (*State).gridCursorGoto},
	"flush":              {nil, (*State).flushEvent},
	"hl_attr_define":     {[]argKind{argUint, argMap}, (*State).hlAttrDefine},
	"default_colors_set": {[]argKind{argUint, argUint, argUint}, (*State).defaultColorsSet},
	"mode_info_set":      {[]argKind{argBool, argArray}, (*State).modeInfoSet},
	"mode_change":        {[]argKind{argString, argUint}, (*State).modeChange},
}

// Redraw applies one batch of redraw events in order. Each event is
// [name, tuple, tuple, ...], every tuple one invocation of the named
// operation. Malformed tuples are logged and skipped individually;
// sibling tuples and later events still apply. Unrecognized names are
// logged and ignored so newer editors keep working against this client.
func (s *State) Redraw(events []wire.Value) {
	for _, event := range events {
		s.redrawEvent(event)
	}
}

func (s *State) redrawEvent(event wire.Value) {
	elems, ok := event.Array()
	if !ok || len(elems) == 0 {
		log.Printf("redraw: event type error - type=%s", event.Kind())
		return
	}

	name, ok := elems[0].Str()
	if !ok {
		log.Printf("redraw: event type error - type=%s", elems[0].Kind())
		return
	}

	op, ok := redrawOps[name]
	if !ok {
		if len(name) > 128 {
			name = name[:128]
		}
		log.Printf("redraw: unhandled event - name=%s args=%s",
			name, wire.Array(elems[1:]...))
		return
	}

	for _, tuple := range elems[1:] {
		s.applyTuple(name, op, tuple)
	}
}

func (s *State) applyTuple(name string, op redrawOp, tuple wire.Value) {
	args, ok := tuple.Array()
	if !ok {
		log.Printf("redraw: argument type error - event=%s argtypes=%s",
			name, tuple.Kind())
		return
	}
	if len(args) < len(op.kinds) {
		log.Printf("redraw: argument type error - event=%s argtypes=%s",
			name, wire.Types(args))
		return
	}
	for i, kind := range op.kinds {
		if !kind.matches(args[i]) {
			log.Printf("redraw: argument type error - event=%s argtypes=%s",
				name, wire.Types(args))
			return
		}
	}

	op.apply(s, args)
}

// Extractors for validated arguments. The signature check has already
// run; these cannot fail.

func intArg(v wire.Value) int {
	i, _ := v.Int()
	return int(i)
}

func colorArg(v wire.Value) uint32 {
	u, _ := v.Uint()
	return uint32(u) & 0xFFFFFF
}

func logOutOfBounds(g *Grid, event string, row, col int) {
	log.Printf("redraw: grid index out of bounds - event=%s grid=%dx%d index=[row=%d, col=%d]",
		event, g.Width, g.Height, row, col)
}

func (s *State) gridResize(args []wire.Value) {
	g := s.grid(intArg(args[0]))
	width, height := intArg(args[1]), intArg(args[2])

	if width > maxGridDim || height > maxGridDim {
		log.Printf("redraw: grid size out of range - event=grid_resize size=%dx%d",
			width, height)
		return
	}
	g.resize(width, height)
}

func (s *State) gridClear(args []wire.Value) {
	g := s.grid(intArg(args[0]))

	empty := Cell{}
	empty.Attrs.Background = s.hl.defaultEntry().Background
	g.clear(empty)
}

// parseRun decodes one grid_line run: [text], [text, hl] or
// [text, hl, repeat]. hasHL is false when the run inherits the previous
// run's attributes.
func parseRun(v wire.Value) (text string, hlid int64, hasHL bool, repeat int64, ok bool) {
	run, isArr := v.Array()
	if !isArr || len(run) == 0 || len(run) > 3 {
		return "", 0, false, 0, false
	}

	text, ok = run[0].Str()
	if !ok {
		return "", 0, false, 0, false
	}

	repeat = 1
	if len(run) >= 2 {
		if hlid, ok = run[1].Int(); !ok {
			return "", 0, false, 0, false
		}
		hasHL = true
	}
	if len(run) == 3 {
		if repeat, ok = run[2].Int(); !ok {
			return "", 0, false, 0, false
		}
	}
	return text, hlid, hasHL, repeat, true
}

func runTypes(v wire.Value) string {
	if run, ok := v.Array(); ok {
		return wire.Types(run)
	}
	return v.Kind().String()
}

func (s *State) gridLine(args []wire.Value) {
	g := s.grid(intArg(args[0]))
	row, col := intArg(args[1]), intArg(args[2])

	if row >= g.Height || col >= g.Width {
		logOutOfBounds(g, "grid_line", row, col)
		return
	}

	runs, _ := args[3].Array()
	idx := row*g.Width + col
	remaining := g.Width - col

	// Attributes carry over between runs of one tuple; a leading run
	// without a highlight id has nothing to inherit.
	var attrs *HLAttrs

	for _, rv := range runs {
		text, hlid, hasHL, repeat, ok := parseRun(rv)
		if !ok {
			log.Printf("redraw: cell update type error - event=grid_line type=%s",
				runTypes(rv))
			return
		}

		if hasHL {
			attrs = s.hl.entry(int(hlid))
		}
		if attrs == nil {
			log.Printf("redraw: unknown highlight id - event=grid_line")
			return
		}

		if repeat < 0 || repeat > int64(remaining) {
			log.Printf("redraw: row overflow - event=grid_line")
			return
		}
		if repeat == 0 {
			continue
		}

		cell := makeCell(text, *attrs)
		n := int(repeat)
		for i := 0; i < n; i++ {
			g.Cells[idx+i] = cell
		}
		idx += n
		remaining -= n
	}
}

func (s *State) gridScroll(args []wire.Value) {
	g := s.grid(intArg(args[0]))
	top, bottom := intArg(args[1]), intArg(args[2])
	left, right := intArg(args[3]), intArg(args[4])
	rows := intArg(args[5])

	if bottom < top || right < left {
		log.Printf("redraw: invalid scroll region - event=grid_scroll args=[top=%d, bottom=%d, left=%d, right=%d]",
			top, bottom, left, right)
		return
	}
	if bottom > g.Height || right > g.Width {
		logOutOfBounds(g, "grid_scroll", bottom, right)
		return
	}

	g.scroll(top, bottom, left, right, rows)
}

func (s *State) gridCursorGoto(args []wire.Value) {
	g := s.grid(intArg(args[0]))
	row, col := intArg(args[1]), intArg(args[2])

	if row >= g.Height || col >= g.Width {
		logOutOfBounds(g, "grid_cursor_goto", row, col)
		return
	}
	s.cursorRow, s.cursorCol = row, col
}

func (s *State) flushEvent([]wire.Value) {
	s.flush()
}

func setColor(dst *Color, v wire.Value) {
	u, ok := v.Uint()
	if !ok {
		log.Printf("redraw: rgb type error - event=hl_attr_define type=%s", v.Kind())
		return
	}
	*dst = RGB(uint32(u))
}

func (s *State) hlAttrDefine(args []wire.Value) {
	id := intArg(args[0])
	pairs, _ := args[1].Map()

	entry := s.hl.newEntry(id)
	reversed := false

	for _, pair := range pairs {
		key, ok := pair.Key.Str()
		if !ok {
			log.Printf("redraw: map key type error - event=hl_attr_define type=%s",
				pair.Key.Kind())
			continue
		}

		switch key {
		case "foreground":
			setColor(&entry.Foreground, pair.Val)
		case "background":
			setColor(&entry.Background, pair.Val)
		case "special":
			setColor(&entry.Special, pair.Val)
		case "bold":
			entry.Flags |= AttrBold
		case "italic":
			entry.Flags |= AttrItalic
		case "underline":
			entry.Flags |= AttrUnderline
		case "strikethrough":
			entry.Flags |= AttrStrikethrough
		case "undercurl":
			entry.Flags |= AttrUndercurl
		case "reverse":
			entry.Flags |= AttrReverse
			reversed = true
		default:
			log.Printf("redraw: ignoring highlight attribute - event=hl_attr_define name=%s", key)
		}
	}

	if reversed {
		entry.Foreground, entry.Background = entry.Background, entry.Foreground
	}
}

func (s *State) defaultColorsSet(args []wire.Value) {
	fg := DefaultRGB(colorArg(args[0]))
	bg := DefaultRGB(colorArg(args[1]))
	sp := DefaultRGB(colorArg(args[2]))

	*s.hl.defaultEntry() = HLAttrs{Foreground: fg, Background: bg, Special: sp}

	// Only channels still inheriting the default pick up the new
	// colors; cells with explicit colors keep them.
	for i := range s.writing.Cells {
		attrs := &s.writing.Cells[i].Attrs
		if attrs.Foreground.IsDefault() {
			attrs.Foreground = fg
		}
		if attrs.Background.IsDefault() {
			attrs.Background = bg
		}
		if attrs.Special.IsDefault() {
			attrs.Special = sp
		}
	}
}

func (s *State) modeInfoSet(args []wire.Value) {
	// args[0], the cursor-style-enabled flag, is accepted and unused.
	maps, _ := args[1].Array()

	s.mode = 0
	s.cursors = make([]CursorAttrs, 0, len(maps))

	for _, mv := range maps {
		pairs, ok := mv.Map()
		if !ok {
			log.Printf("redraw: cursor property map type error - event=mode_info_set type=%s",
				mv.Kind())
			continue
		}
		s.cursors = append(s.cursors, parseCursorAttrs(&s.hl, pairs))
	}
}

func (s *State) modeChange(args []wire.Value) {
	idx := intArg(args[1])
	if idx >= len(s.cursors) {
		log.Printf("redraw: mode index out of bounds - event=mode_change tablesize=%d index=%d",
			len(s.cursors), idx)
		return
	}
	s.mode = idx
}
