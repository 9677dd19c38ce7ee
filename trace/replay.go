// Copyright © 2025 nvgrid contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: trace/replay.go
// Summary: Streams recorded redraw batches back out of a trace file.

package trace

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sfsam/nvgrid/wire"
)

var ErrNoSession = errors.New("trace: session not found")

// Session describes one recorded editor run.
type Session struct {
	ID      string
	Started time.Time
	Editor  string
}

// ReplayConfig controls how a recorded session is played back.
type ReplayConfig struct {
	// DBPath is the path to the SQLite trace file.
	DBPath string

	// SessionID selects the session; empty selects the most recent one.
	SessionID string

	// Paced reproduces the recorded arrival timing instead of streaming
	// batches as fast as they can be read.
	Paced bool
}

// Sessions lists recorded sessions, newest first. A missing or empty
// trace file yields an empty list.
func Sessions(dbPath string) ([]Session, error) {
	db, err := openTraceDB(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ok, err := hasSessions(db)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	rows, err := db.Query("SELECT id, started, editor FROM sessions ORDER BY started DESC")
	if err != nil {
		return nil, fmt.Errorf("trace: list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var startedNano int64
		if err := rows.Scan(&s.ID, &startedNano, &s.Editor); err != nil {
			return nil, fmt.Errorf("trace: scan session: %w", err)
		}
		s.Started = time.Unix(0, startedNano)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Replay streams one recorded session's batches into emit, in arrival
// order. Corrupt batches are logged and skipped so one bad row does not
// end the playback.
func Replay(ctx context.Context, config ReplayConfig, emit func([]wire.Value)) error {
	db, err := openTraceDB(config.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ok, err := hasSessions(db)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoSession
	}

	session := config.SessionID
	if session == "" {
		session, err = latestSession(db)
		if err != nil {
			return err
		}
	} else {
		var started int64
		err := db.QueryRow("SELECT started FROM sessions WHERE id = ?", session).Scan(&started)
		if err == sql.ErrNoRows {
			return ErrNoSession
		}
		if err != nil {
			return fmt.Errorf("trace: look up session: %w", err)
		}
	}

	rows, err := db.Query(
		"SELECT seq, elapsed, payload FROM batches WHERE session_id = ? ORDER BY seq",
		session,
	)
	if err != nil {
		return fmt.Errorf("trace: read batches: %w", err)
	}
	defer rows.Close()

	start := time.Now()
	for rows.Next() {
		var seq, elapsed int64
		var payload []byte
		if err := rows.Scan(&seq, &elapsed, &payload); err != nil {
			return fmt.Errorf("trace: scan batch: %w", err)
		}

		if config.Paced {
			if err := waitUntil(ctx, start, time.Duration(elapsed)); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		v, err := wire.NewDecoder(bytes.NewReader(payload)).Decode()
		if err != nil {
			log.Printf("trace: corrupt batch %d in session %s: %v", seq, session, err)
			continue
		}
		events, ok := v.Array()
		if !ok {
			log.Printf("trace: batch %d in session %s is not an event array", seq, session)
			continue
		}
		emit(events)
	}
	return rows.Err()
}

func latestSession(db *sql.DB) (string, error) {
	var id string
	err := db.QueryRow("SELECT id FROM sessions ORDER BY started DESC LIMIT 1").Scan(&id)
	if err == sql.ErrNoRows {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("trace: find latest session: %w", err)
	}
	return id, nil
}

func hasSessions(db *sql.DB) (bool, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='sessions'",
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("trace: inspect database: %w", err)
	}
	return n > 0, nil
}

func waitUntil(ctx context.Context, start time.Time, elapsed time.Duration) error {
	wait := elapsed - time.Since(start)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
