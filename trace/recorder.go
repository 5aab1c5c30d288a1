// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: trace/recorder.go
// Summary: SQLite trace of normalized pointer events for replay and debugging.
//
// Provides a persistent record of everything the normalizer emitted with:
//   - Async batch writes for the hot event path
//   - Time-range and per-pointer queries
//   - Schema version tracking

package trace

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"pointstream/pointer"
	"pointstream/protocol"
	"pointstream/server"
)

// Recorder persists normalized events and answers trace queries.
type Recorder interface {
	// Record queues one normalized event for persistence.
	Record(session [16]byte, callback protocol.Callback, ev pointer.Event) error

	// Query returns recorded events matching the options, newest first.
	Query(opts QueryOpts) ([]Record, error)

	// Flush blocks until all queued events are written.
	Flush() error

	// Close flushes pending writes and closes the database.
	Close() error
}

// Record is one persisted normalized event.
type Record struct {
	Session    string
	Callback   string
	EventType  string
	Device     string
	PointerID  int32
	X          float64
	Y          float64
	OffsetX    float64
	OffsetY    float64
	Button     int8
	Timestamp  float64
	RecordedAt time.Time
}

// QueryOpts narrows a trace query. Zero values mean "any".
type QueryOpts struct {
	Session string

	// PointerID filters by pointer when ByPointer is set. The id itself may
	// legitimately be zero, hence the separate flag.
	PointerID int32
	ByPointer bool

	Since time.Time
	Until time.Time
	Limit int
}

// Config holds recorder tuning knobs.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BatchSize is the number of events to accumulate before flushing.
	// Default: 100
	BatchSize int

	// BatchTimeout is how long to wait before flushing a partial batch.
	// Default: 2s
	BatchTimeout time.Duration

	// ChannelBuffer is the size of the async write channel.
	// Default: 1000
	ChannelBuffer int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(dbPath string) Config {
	return Config{
		DBPath:        dbPath,
		BatchSize:     100,
		BatchTimeout:  2 * time.Second,
		ChannelBuffer: 1000,
	}
}

type traceEntry struct {
	session    string
	callback   string
	eventType  string
	device     string
	pointerID  int32
	x, y       float64
	ox, oy     float64
	button     int8
	timestamp  float64
	recordedAt time.Time
}

// SQLiteRecorder implements Recorder backed by modernc.org/sqlite.
type SQLiteRecorder struct {
	config Config
	db     *sql.DB

	batchChan chan traceEntry
	stopCh    chan struct{}
	doneCh    chan struct{}
	flushCh   chan chan struct{}

	dropped atomic.Int64
}

const traceSchemaVersion = 1

const traceSchema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session TEXT NOT NULL,
    callback TEXT NOT NULL,
    event_type TEXT NOT NULL,
    device TEXT NOT NULL,
    pointer_id INTEGER NOT NULL,
    x REAL NOT NULL,
    y REAL NOT NULL,
    offset_x REAL NOT NULL,
    offset_y REAL NOT NULL,
    button INTEGER NOT NULL,
    ts REAL NOT NULL,
    recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_session ON events(session, recorded_at);
CREATE INDEX IF NOT EXISTS idx_events_pointer ON events(pointer_id, recorded_at);
`

// NewRecorder opens (or creates) the trace database at dbPath.
func NewRecorder(dbPath string) (*SQLiteRecorder, error) {
	return NewRecorderWithConfig(DefaultConfig(dbPath))
}

// NewRecorderWithConfig opens a recorder with custom tuning.
func NewRecorderWithConfig(config Config) (*SQLiteRecorder, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = 2 * time.Second
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 1000
	}

	dir := filepath.Dir(config.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := config.DBPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection avoids writer contention; the batch worker is the
	// only writer anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(traceSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if err := checkSchemaVersion(db); err != nil {
		db.Close()
		return nil, err
	}

	r := &SQLiteRecorder{
		config:    config,
		db:        db,
		batchChan: make(chan traceEntry, config.ChannelBuffer),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		flushCh:   make(chan chan struct{}),
	}
	go r.batchWriter()
	return r, nil
}

func checkSchemaVersion(db *sql.DB) error {
	var current int
	if err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&current); err != nil {
		current = 0
	}
	if current == traceSchemaVersion {
		return nil
	}
	if current != 0 {
		log.Printf("trace: migrating schema from version %d to %d", current, traceSchemaVersion)
	}
	if _, err := db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", traceSchemaVersion); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return nil
}

// Record queues one normalized event. The write is asynchronous; when the
// channel is full the event is dropped rather than stalling the event path.
func (r *SQLiteRecorder) Record(session [16]byte, callback protocol.Callback, ev pointer.Event) error {
	entry := traceEntry{
		session:    hex.EncodeToString(session[:]),
		callback:   callback.String(),
		eventType:  ev.Type.String(),
		device:     ev.Device.String(),
		pointerID:  int32(ev.PointerID),
		x:          ev.X,
		y:          ev.Y,
		ox:         ev.OffsetX,
		oy:         ev.OffsetY,
		button:     int8(ev.Button),
		timestamp:  ev.Timestamp,
		recordedAt: time.Now(),
	}
	select {
	case r.batchChan <- entry:
	default:
		if n := r.dropped.Add(1); n%1000 == 1 {
			log.Printf("trace: write channel full, dropping events (total dropped %d)", n)
		}
	}
	return nil
}

// Dropped reports how many events were discarded because the write channel
// was full.
func (r *SQLiteRecorder) Dropped() int64 {
	return r.dropped.Load()
}

// HandleGestureEvent lets the recorder plug directly into the server as its
// gesture sink.
func (r *SQLiteRecorder) HandleGestureEvent(session *server.Session, callback protocol.Callback, ev pointer.Event) {
	_ = r.Record(session.ID(), callback, ev)
}

func (r *SQLiteRecorder) batchWriter() {
	defer close(r.doneCh)

	batch := make([]traceEntry, 0, r.config.BatchSize)
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
		case entry := <-r.batchChan:
			batch = append(batch, entry)
			if len(batch) >= r.config.BatchSize {
				flush()
				timer.Reset(r.config.BatchTimeout)
			}

		case <-timer.C:
			flush()
			timer.Reset(r.config.BatchTimeout)

		case done := <-r.flushCh:
			// Manual flush request: drain the channel first.
			draining := true
			for draining {
				select {
				case entry := <-r.batchChan:
					batch = append(batch, entry)
				default:
					draining = false
				}
			}
			flush()
			close(done)

		case <-r.stopCh:
			for {
				select {
				case entry := <-r.batchChan:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (r *SQLiteRecorder) flushBatch(batch []traceEntry) {
	tx, err := r.db.Begin()
	if err != nil {
		log.Printf("trace: failed to begin transaction: %v", err)
		return
	}

	stmt, err := tx.Prepare(`INSERT INTO events
		(session, callback, event_type, device, pointer_id, x, y, offset_x, offset_y, button, ts, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("trace: failed to prepare statement: %v", err)
		tx.Rollback()
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(e.session, e.callback, e.eventType, e.device, e.pointerID,
			e.x, e.y, e.ox, e.oy, e.button, e.timestamp, e.recordedAt.UnixNano()); err != nil {
			log.Printf("trace: failed to insert event: %v", err)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("trace: failed to commit batch: %v", err)
	}
}

// Flush blocks until every queued event is written.
func (r *SQLiteRecorder) Flush() error {
	done := make(chan struct{})
	select {
	case r.flushCh <- done:
		<-done
		return nil
	case <-r.doneCh:
		return nil
	}
}

// Close flushes pending writes, stops the worker and closes the database.
func (r *SQLiteRecorder) Close() error {
	_ = r.Flush()
	close(r.stopCh)
	<-r.doneCh
	return r.db.Close()
}

// Query returns recorded events matching opts, newest first.
func (r *SQLiteRecorder) Query(opts QueryOpts) ([]Record, error) {
	query := `SELECT session, callback, event_type, device, pointer_id, x, y, offset_x, offset_y, button, ts, recorded_at
		FROM events WHERE 1=1`
	args := make([]interface{}, 0, 5)

	if opts.Session != "" {
		query += " AND session = ?"
		args = append(args, opts.Session)
	}
	if opts.ByPointer {
		query += " AND pointer_id = ?"
		args = append(args, opts.PointerID)
	}
	if !opts.Since.IsZero() {
		query += " AND recorded_at >= ?"
		args = append(args, opts.Since.UnixNano())
	}
	if !opts.Until.IsZero() {
		query += " AND recorded_at <= ?"
		args = append(args, opts.Until.UnixNano())
	}
	query += " ORDER BY recorded_at DESC, id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("trace query failed: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var recordedAt int64
		if err := rows.Scan(&rec.Session, &rec.Callback, &rec.EventType, &rec.Device,
			&rec.PointerID, &rec.X, &rec.Y, &rec.OffsetX, &rec.OffsetY,
			&rec.Button, &rec.Timestamp, &recordedAt); err != nil {
			return nil, err
		}
		rec.RecordedAt = time.Unix(0, recordedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}
