// Copyright © 2025 nvgrid contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: trace/trace.go
// Summary: SQLite session recorder for redraw batches.
//
// Records every redraw notification with:
//   - Async batch writes so the protocol goroutine never blocks
//   - One session row per editor run, keyed by uuid
//   - Raw msgpack payloads, replayable without the editor

package trace

import (
	"bytes"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sfsam/nvgrid/wire"
)

// Current schema version - increment this when schema changes require a rebuild
const traceSchemaVersion = 1

const traceSchema = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

-- One row per recorded editor run
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,              -- uuid
    started INTEGER NOT NULL,         -- UnixNano
    editor TEXT NOT NULL DEFAULT ''
);

-- Index for latest-session lookup
CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started);

-- Redraw batches in arrival order
CREATE TABLE IF NOT EXISTS batches (
    session_id TEXT NOT NULL REFERENCES sessions(id),
    seq INTEGER NOT NULL,             -- arrival ordinal within the session
    elapsed INTEGER NOT NULL,         -- ns since session start
    payload BLOB NOT NULL,            -- msgpack event array
    PRIMARY KEY (session_id, seq)
);
`

// RecorderConfig holds configuration for the session recorder.
type RecorderConfig struct {
	// DBPath is the path to the SQLite trace file.
	DBPath string

	// Editor is recorded on the session row for later identification.
	Editor string

	// BatchSize is the number of entries to accumulate before flushing.
	// Default: 64
	BatchSize int

	// BatchTimeout is how long to wait before flushing a partial batch.
	// Default: 1s
	BatchTimeout time.Duration

	// ChannelBuffer is the size of the async write channel.
	// Default: 256
	ChannelBuffer int
}

// DefaultRecorderConfig returns sensible defaults.
func DefaultRecorderConfig(dbPath string) RecorderConfig {
	return RecorderConfig{
		DBPath:        dbPath,
		BatchSize:     64,
		BatchTimeout:  time.Second,
		ChannelBuffer: 256,
	}
}

type batchRow struct {
	seq     int64
	elapsed int64
	payload []byte
}

// Recorder persists redraw batches under a session row. Record never
// blocks; when the write queue is full the batch is dropped and logged.
type Recorder struct {
	config  RecorderConfig
	db      *sql.DB
	session string
	started time.Time

	// seq is only touched by Record, which has a single caller.
	seq int64

	batchChan chan batchRow
	stopCh    chan struct{}
	doneCh    chan struct{}
	flushCh   chan chan struct{}
}

// NewRecorder opens or creates the trace database and starts a session.
func NewRecorder(config RecorderConfig) (*Recorder, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 64
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = time.Second
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 256
	}

	dir := filepath.Dir(config.DBPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("trace: create directory: %w", err)
	}

	db, err := openTraceDB(config.DBPath)
	if err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	r := &Recorder{
		config:    config,
		db:        db,
		session:   uuid.NewString(),
		started:   time.Now(),
		batchChan: make(chan batchRow, config.ChannelBuffer),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		flushCh:   make(chan chan struct{}),
	}

	_, err = db.Exec(
		"INSERT INTO sessions (id, started, editor) VALUES (?, ?, ?)",
		r.session, r.started.UnixNano(), config.Editor,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: create session: %w", err)
	}

	go r.batchWriter()

	log.Printf("trace: recording session %s to %s", r.session, config.DBPath)
	return r, nil
}

// SessionID returns the uuid of the session being recorded.
func (r *Recorder) SessionID() string { return r.session }

// Record queues one redraw batch. Safe to use as a notification hook;
// it never blocks and never fails the caller.
func (r *Recorder) Record(events []wire.Value) {
	var buf bytes.Buffer
	if err := wire.NewEncoder(&buf).Encode(wire.Array(events...)); err != nil {
		log.Printf("trace: encode batch failed: %v", err)
		return
	}

	row := batchRow{
		seq:     r.seq,
		elapsed: int64(time.Since(r.started)),
		payload: buf.Bytes(),
	}
	r.seq++

	select {
	case r.batchChan <- row:
	default:
		log.Printf("trace: write queue full, dropping batch %d", row.seq)
	}
}

// batchWriter runs in a background goroutine, batching rows and flushing
// periodically.
func (r *Recorder) batchWriter() {
	defer close(r.doneCh)

	batch := make([]batchRow, 0, r.config.BatchSize)
	timer := time.NewTimer(r.config.BatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		r.flushBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case row := <-r.batchChan:
			batch = append(batch, row)
			if len(batch) >= r.config.BatchSize {
				flush()
				timer.Reset(r.config.BatchTimeout)
			}

		case <-timer.C:
			flush()
			timer.Reset(r.config.BatchTimeout)

		case done := <-r.flushCh:
			// Manual flush request - drain channel first
			draining := true
			for draining {
				select {
				case row := <-r.batchChan:
					batch = append(batch, row)
				default:
					draining = false
				}
			}
			flush()
			close(done)

		case <-r.stopCh:
			// Drain channel and flush before exit
			for {
				select {
				case row := <-r.batchChan:
					batch = append(batch, row)
				default:
					flush()
					return
				}
			}
		}
	}
}

// flushBatch writes queued rows in a single transaction.
func (r *Recorder) flushBatch(batch []batchRow) {
	tx, err := r.db.Begin()
	if err != nil {
		log.Printf("trace: begin transaction failed: %v", err)
		return
	}

	stmt, err := tx.Prepare("INSERT INTO batches (session_id, seq, elapsed, payload) VALUES (?, ?, ?, ?)")
	if err != nil {
		log.Printf("trace: prepare insert failed: %v", err)
		tx.Rollback()
		return
	}
	defer stmt.Close()

	for _, row := range batch {
		if _, err := stmt.Exec(r.session, row.seq, row.elapsed, row.payload); err != nil {
			log.Printf("trace: insert batch %d failed: %v", row.seq, err)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("trace: commit failed: %v", err)
	}
}

// Flush blocks until all queued batches are written.
func (r *Recorder) Flush() error {
	done := make(chan struct{})
	select {
	case r.flushCh <- done:
		<-done
	case <-r.stopCh:
		// Already stopped
	}
	return nil
}

// Close flushes pending writes and closes the database.
func (r *Recorder) Close() error {
	close(r.stopCh)
	<-r.doneCh

	return r.db.Close()
}

func openTraceDB(path string) (*sql.DB, error) {
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("trace: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: connect to database: %w", err)
	}
	return db, nil
}

// ensureSchema creates the schema, rebuilding from scratch when the
// version on disk does not match. Traces are a debugging aid; stale
// recordings are not worth a migration path.
func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(traceSchema); err != nil {
		return fmt.Errorf("trace: create schema: %w", err)
	}

	var version int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		version = 0
	} else if err != nil {
		return fmt.Errorf("trace: read schema version: %w", err)
	}

	if version != traceSchemaVersion {
		if version != 0 {
			log.Printf("trace: schema version %d, rebuilding as %d", version, traceSchemaVersion)
			drops := []string{
				"DROP TABLE IF EXISTS batches",
				"DROP TABLE IF EXISTS sessions",
				"DELETE FROM schema_version",
			}
			for _, stmt := range drops {
				if _, err := db.Exec(stmt); err != nil {
					return fmt.Errorf("trace: rebuild schema: %w", err)
				}
			}
			if _, err := db.Exec(traceSchema); err != nil {
				return fmt.Errorf("trace: recreate schema: %w", err)
			}
		}
		if _, err := db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", traceSchemaVersion); err != nil {
			return fmt.Errorf("trace: write schema version: %w", err)
		}
	}
	return nil
}
