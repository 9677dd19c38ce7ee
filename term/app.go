// Copyright © 2025 nvgrid contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: term/app.go
// Summary: Terminal client loop: editor session, rendering, input.
// Usage: Embedded by client binaries; Run blocks until the session ends.

package term

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"
	"unicode/utf8"

	"github.com/adrg/xdg"
	"github.com/gdamore/tcell/v2"

	"github.com/sfsam/nvgrid/rpc"
	"github.com/sfsam/nvgrid/ui"
	"github.com/sfsam/nvgrid/wire"
)

const (
	resizeDebounce = 10 * time.Millisecond
	attachTimeout  = 10 * time.Second
)

// Options configures the terminal client.
type Options struct {
	Editor     string   // editor binary, "nvim" when empty
	EditorArgs []string // extra arguments after --embed

	// UseTermColors maps channels still inheriting the editor default
	// to the terminal's own colors, keeping transparency intact.
	UseTermColors bool

	LogPath string // empty: nvgrid/client.log under the XDG state dir

	// OnRedraw observes every redraw batch before it is applied.
	OnRedraw func(events []wire.Value)

	// Playback replaces the editor as the event source. The function
	// feeds batches through emit and returns when the recording ends.
	Playback func(emit func(events []wire.Value)) error

	// ScreenFactory overrides the screen constructor, for tests.
	ScreenFactory func() (tcell.Screen, error)
}

// Run executes one client session: spawn the editor, attach the UI,
// then pump frames and input until either side ends the session.
func Run(opts Options) error {
	logFile, err := setupLogging(opts.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
	} else {
		defer logFile.Close()
	}

	if opts.Playback != nil {
		return runPlayback(opts)
	}

	editor := opts.Editor
	if editor == "" {
		editor = "nvim"
	}
	proc, err := rpc.SpawnEditor(editor, opts.EditorArgs...)
	if err != nil {
		return err
	}
	defer proc.Wait()

	state := ui.NewState()
	client := rpc.NewClient(proc, func(method string, args []wire.Value) {
		if method != "redraw" {
			log.Printf("term: ignoring notification - method=%s", method)
			return
		}
		if opts.OnRedraw != nil {
			opts.OnRedraw(args)
		}
		state.Redraw(args)
	})
	defer client.Close()

	screen, err := newScreen(opts)
	if err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnablePaste()
	screen.HideCursor()

	width, height := screen.Size()
	ctx, cancel := context.WithTimeout(context.Background(), attachTimeout)
	err = client.AttachUI(ctx, width, height)
	cancel()
	if err != nil {
		return err
	}
	log.Printf("term: attached %dx%d editor=%s", width, height, editor)

	events, stopEvents := pollEvents(screen)
	defer func() {
		close(stopEvents)
		screen.PostEventWait(tcell.NewEventInterrupt(nil))
	}()

	// Resize requests are debounced: terminals report every step of an
	// interactive resize and the editor relays out a full repaint for
	// each one it accepts.
	resizeTimer := time.NewTimer(resizeDebounce)
	if !resizeTimer.Stop() {
		<-resizeTimer.C
	}
	var resizeW, resizeH int
	var resizePending bool

	var pasteBuf []byte
	var pasting bool

	for {
		select {
		case <-state.FrameReady():
			render(state.Frame(), screen, opts.UseTermColors)

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch tev := ev.(type) {
			case *tcell.EventKey:
				if pasting {
					pasteBuf = consumePasteKey(pasteBuf, tev)
					continue
				}
				if keys := keyNotation(tev); keys != "" {
					if err := client.Input(keys); err != nil {
						log.Printf("term: send input failed: %v", err)
					}
				}
			case *tcell.EventResize:
				resizeW, resizeH = tev.Size()
				if resizePending && !resizeTimer.Stop() {
					<-resizeTimer.C
				}
				resizeTimer.Reset(resizeDebounce)
				resizePending = true
			case *tcell.EventPaste:
				if tev.Start() {
					pasting = true
					pasteBuf = pasteBuf[:0]
				} else if tev.End() {
					pasting = false
					if len(pasteBuf) > 0 {
						if err := client.Notify("nvim_paste", string(pasteBuf), true, -1); err != nil {
							log.Printf("term: send paste failed: %v", err)
						}
					}
				}
			}

		case <-resizeTimer.C:
			resizePending = false
			if err := client.TryResize(resizeW, resizeH); err != nil {
				log.Printf("term: send resize failed: %v", err)
			}

		case <-client.Done():
			return client.Err()
		}
	}
}

// runPlayback renders a recorded session. The final frame stays on
// screen until a key is pressed.
func runPlayback(opts Options) error {
	screen, err := newScreen(opts)
	if err != nil {
		return err
	}
	defer screen.Fini()
	screen.HideCursor()

	state := ui.NewState()
	playDone := make(chan error, 1)
	go func() {
		playDone <- opts.Playback(func(events []wire.Value) {
			state.Redraw(events)
		})
	}()

	events, stopEvents := pollEvents(screen)
	defer func() {
		close(stopEvents)
		screen.PostEventWait(tcell.NewEventInterrupt(nil))
	}()

	finished := false
	for {
		select {
		case <-state.FrameReady():
			render(state.Frame(), screen, opts.UseTermColors)

		case err := <-playDone:
			if err != nil {
				return err
			}
			finished = true
			playDone = nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if kev, isKey := ev.(*tcell.EventKey); isKey {
				if finished || kev.Key() == tcell.KeyCtrlC || kev.Key() == tcell.KeyEsc || kev.Rune() == 'q' {
					return nil
				}
			}
		}
	}
}

func newScreen(opts Options) (tcell.Screen, error) {
	factory := opts.ScreenFactory
	if factory == nil {
		factory = tcell.NewScreen
	}
	screen, err := factory()
	if err != nil {
		return nil, fmt.Errorf("create screen failed: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen failed: %w", err)
	}
	return screen, nil
}

// pollEvents pumps screen events into a channel so the main loop can
// select across them, frame signals and the connection.
func pollEvents(screen tcell.Screen) (<-chan tcell.Event, chan struct{}) {
	events := make(chan tcell.Event, 32)
	stopEvents := make(chan struct{})
	go func() {
		for {
			select {
			case <-stopEvents:
				close(events)
				return
			default:
				ev := screen.PollEvent()
				if ev == nil {
					close(events)
					return
				}
				select {
				case events <- ev:
				case <-stopEvents:
					close(events)
					return
				}
			}
		}
	}()
	return events, stopEvents
}

func consumePasteKey(buf []byte, ev *tcell.EventKey) []byte {
	switch ev.Key() {
	case tcell.KeyRune:
		return utf8.AppendRune(buf, ev.Rune())
	case tcell.KeyEnter:
		return append(buf, '\n')
	case tcell.KeyTab:
		return append(buf, '\t')
	}
	return buf
}

func setupLogging(path string) (*os.File, error) {
	if path == "" {
		p, err := xdg.StateFile("nvgrid/client.log")
		if err != nil {
			return nil, err
		}
		path = p
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, err
	}
	log.SetOutput(file)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return file, nil
}
