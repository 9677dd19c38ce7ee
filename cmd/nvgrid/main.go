// Copyright © 2025 nvgrid contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/nvgrid/main.go
// Summary: Terminal client for an embedded editor session.
// Usage: nvgrid [-cmd "nvim ..."] [-config path] [-trace path]
//        [-replay file[:session]] [-sessions path] [-log path]

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/adrg/xdg"
	xterm "golang.org/x/term"

	"github.com/sfsam/nvgrid/config"
	"github.com/sfsam/nvgrid/term"
	"github.com/sfsam/nvgrid/trace"
	"github.com/sfsam/nvgrid/ui"
	"github.com/sfsam/nvgrid/wire"
)

func main() {
	cmdFlag := flag.String("cmd", "", "editor command; --embed is added (default from config)")
	configPath := flag.String("config", "", "config file (default nvgrid.toml under the XDG config dir)")
	tracePath := flag.String("trace", "", "record redraw batches to this trace file")
	replayArg := flag.String("replay", "", "replay a recorded session: file or file:session")
	sessionsPath := flag.String("sessions", "", "list recorded sessions in a trace file and exit")
	logPath := flag.String("log", "", "log file (default nvgrid/client.log under the XDG state dir)")
	flag.Parse()

	if *sessionsPath != "" {
		if err := listSessions(*sessionsPath); err != nil {
			log.Fatalf("list sessions failed: %v", err)
		}
		return
	}

	if *configPath != "" {
		if err := config.LoadFile(*configPath); err != nil {
			log.Fatalf("load config failed: %v", err)
		}
	} else if err := config.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "config defaults in use: %v\n", err)
	}
	cfg := config.System()

	opts := term.Options{
		Editor:        cfg.GetString("editor", "binary", "nvim"),
		EditorArgs:    cfg.GetStringList("editor", "args", nil),
		UseTermColors: cfg.GetBool("display", "use_term_colors", false),
		LogPath:       *logPath,
	}
	if *cmdFlag != "" {
		parts := strings.Fields(*cmdFlag)
		opts.Editor = parts[0]
		opts.EditorArgs = parts[1:]
	}

	interactive := xterm.IsTerminal(int(os.Stdout.Fd()))

	if *replayArg != "" {
		file, session := splitReplayArg(*replayArg)
		replayCfg := trace.ReplayConfig{DBPath: file, SessionID: session, Paced: true}
		if !interactive {
			replayCfg.Paced = false
			if err := headlessReplay(replayCfg); err != nil {
				log.Fatalf("replay failed: %v", err)
			}
			return
		}
		opts.Playback = func(emit func([]wire.Value)) error {
			return trace.Replay(context.Background(), replayCfg, emit)
		}
		if err := term.Run(opts); err != nil {
			fmt.Fprintf(os.Stderr, "nvgrid: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !interactive {
		log.Fatalf("stdout is not a terminal (use -replay for headless playback)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := config.Watch(ctx, func() {
		log.Printf("config changed, new values apply on the next start")
	}); err != nil {
		log.Printf("config watch unavailable: %v", err)
	}

	recPath := *tracePath
	if recPath == "" && cfg.GetBool("trace", "enabled", false) {
		recPath = cfg.GetString("trace", "path", "")
		if recPath == "" {
			p, err := xdg.StateFile("nvgrid/trace.db")
			if err != nil {
				log.Fatalf("resolve trace path: %v", err)
			}
			recPath = p
		}
	}

	var rec *trace.Recorder
	if recPath != "" {
		recCfg := trace.DefaultRecorderConfig(recPath)
		recCfg.Editor = opts.Editor
		var err error
		rec, err = trace.NewRecorder(recCfg)
		if err != nil {
			log.Fatalf("start trace failed: %v", err)
		}
		opts.OnRedraw = rec.Record
	}

	err := term.Run(opts)
	if rec != nil {
		if cerr := rec.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "nvgrid: close trace: %v\n", cerr)
		}
	}
	if err != nil {
		// The logger writes to the session log by now; the terminal is
		// restored, so the error also belongs on stderr.
		fmt.Fprintf(os.Stderr, "nvgrid: %v\n", err)
		os.Exit(1)
	}
}

// headlessReplay drives the grid state without a screen, printing one
// line per published frame.
func headlessReplay(cfg trace.ReplayConfig) error {
	state := ui.NewState()
	batches := 0
	err := trace.Replay(context.Background(), cfg, func(events []wire.Value) {
		state.Redraw(events)
		batches++
		select {
		case <-state.FrameReady():
			g := state.Frame()
			fmt.Printf("frame %d: %dx%d cursor=(%d,%d)\n",
				g.Frame, g.Width, g.Height, g.CursorRow, g.CursorCol)
		default:
		}
	})
	if err != nil {
		return err
	}
	fmt.Printf("replayed %d batches\n", batches)
	return nil
}

func listSessions(path string) error {
	sessions, err := trace.Sessions(path)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no recorded sessions")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  %s  %s\n", s.ID, s.Started.Format(time.RFC3339), s.Editor)
	}
	return nil
}

// splitReplayArg splits "file:session" on the last colon. A suffix
// containing a path separator is part of the file name, not a session.
func splitReplayArg(arg string) (string, string) {
	if idx := strings.LastIndex(arg, ":"); idx > 0 {
		file, session := arg[:idx], arg[idx+1:]
		if session != "" && !strings.ContainsRune(session, '/') {
			return file, session
		}
	}
	return arg, ""
}
