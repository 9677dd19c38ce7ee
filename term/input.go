// Copyright © 2025 nvgrid contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term/input.go
// Summary: Translates tcell key events into the editor's input notation.
// Usage: Every keystroke is converted and forwarded over RPC.

package term

import "github.com/gdamore/tcell/v2"

// specialKeys maps non-rune keys to their bare notation names. tcell
// aliases the control keys onto Enter, Tab, Esc and Backspace, so only
// one alias of each may appear here.
var specialKeys = map[tcell.Key]string{
	tcell.KeyEnter:      "CR",
	tcell.KeyTab:        "Tab",
	tcell.KeyEsc:        "Esc",
	tcell.KeyBackspace:  "BS",
	tcell.KeyBackspace2: "BS",
	tcell.KeyDelete:     "Del",
	tcell.KeyInsert:     "Insert",
	tcell.KeyHome:       "Home",
	tcell.KeyEnd:        "End",
	tcell.KeyPgUp:       "PageUp",
	tcell.KeyPgDn:       "PageDown",
	tcell.KeyUp:         "Up",
	tcell.KeyDown:       "Down",
	tcell.KeyLeft:       "Left",
	tcell.KeyRight:      "Right",
	tcell.KeyF1:         "F1",
	tcell.KeyF2:         "F2",
	tcell.KeyF3:         "F3",
	tcell.KeyF4:         "F4",
	tcell.KeyF5:         "F5",
	tcell.KeyF6:         "F6",
	tcell.KeyF7:         "F7",
	tcell.KeyF8:         "F8",
	tcell.KeyF9:         "F9",
	tcell.KeyF10:        "F10",
	tcell.KeyF11:        "F11",
	tcell.KeyF12:        "F12",
}

// ctrlPunct covers the control codes tcell does not alias onto a named
// key.
var ctrlPunct = map[tcell.Key]string{
	tcell.KeyCtrlBackslash:  `C-\`,
	tcell.KeyCtrlRightSq:    "C-]",
	tcell.KeyCtrlCarat:      "C-^",
	tcell.KeyCtrlUnderscore: "C-_",
}

// keyNotation converts a key event to the editor's angle-bracket input
// syntax. An empty result means the event has no sensible encoding and
// should be dropped.
func keyNotation(ev *tcell.EventKey) string {
	key := ev.Key()

	if key == tcell.KeyRune {
		name := string(ev.Rune())
		if ev.Rune() == '<' {
			name = "lt"
		}
		// Shift is already reflected in the rune itself.
		mods := ev.Modifiers() &^ tcell.ModShift
		if mods&(tcell.ModCtrl|tcell.ModAlt) != 0 {
			return "<" + modPrefix(mods) + name + ">"
		}
		if name == "lt" {
			return "<lt>"
		}
		return string(ev.Rune())
	}

	if key == tcell.KeyBacktab {
		return "<S-Tab>"
	}

	if name, ok := specialKeys[key]; ok {
		return "<" + modPrefix(ev.Modifiers()) + name + ">"
	}
	if name, ok := ctrlPunct[key]; ok {
		return "<" + name + ">"
	}
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		letter := byte('a') + byte(key-tcell.KeyCtrlA)
		return "<C-" + string(letter) + ">"
	}
	return ""
}

func modPrefix(mods tcell.ModMask) string {
	var prefix string
	if mods&tcell.ModCtrl != 0 {
		prefix += "C-"
	}
	if mods&tcell.ModAlt != 0 {
		prefix += "M-"
	}
	if mods&tcell.ModShift != 0 {
		prefix += "S-"
	}
	return prefix
}
