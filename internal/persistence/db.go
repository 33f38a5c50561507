// Package persistence provides the SQLite run archive: per-run metadata,
// hourly power telemetry, and the event log. The archive is observational;
// the simulation never reads it back into live state.
package persistence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mars-colony/internal/colony"
)

// DB wraps a SQLite connection for run archiving.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		start_hour INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS power_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		hour INTEGER NOT NULL,
		produced_kw REAL NOT NULL,
		critical_kw REAL NOT NULL,
		noncritical_kw REAL NOT NULL,
		noncritical_served REAL NOT NULL,
		battery_kwh REAL NOT NULL,
		morale REAL NOT NULL,
		blackout INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		hour INTEGER NOT NULL,
		kind TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_run_hour ON power_reports(run_id, hour);
	CREATE INDEX IF NOT EXISTS idx_events_run_hour ON events(run_id, hour);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run identifies one archived simulation run.
type Run struct {
	ID        string `db:"id"`
	Seed      uint64 `db:"seed"`
	StartHour int64  `db:"start_hour"`
	StartedAt string `db:"started_at"`
}

// BeginRun registers a new run and returns its id.
func (db *DB) BeginRun(seed uint64, startHour int64) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, start_hour, started_at) VALUES (?, ?, ?, ?)",
		id, seed, startHour, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// RecordReport archives one hour of power telemetry.
func (db *DB) RecordReport(runID string, hour int64, rep colony.PowerReport, batteryKWh, morale float64) error {
	blackout := 0
	if rep.Blackout {
		blackout = 1
	}
	_, err := db.conn.Exec(`INSERT INTO power_reports
		(run_id, hour, produced_kw, critical_kw, noncritical_kw, noncritical_served,
		 battery_kwh, morale, blackout)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, hour, rep.ProducedKW, rep.CriticalKW, rep.NonCriticalKW,
		rep.NonCriticalServed, batteryKWh, morale, blackout,
	)
	if err != nil {
		return fmt.Errorf("record report hour %d: %w", hour, err)
	}
	return nil
}

// Event is one archived event row.
type Event struct {
	Hour        int64  `db:"hour"`
	Kind        string `db:"kind"`
	Description string `db:"description"`
}

// RecordEvent archives a fired event. The signature matches events.Sink so
// the archive can be attached directly to the generator.
func (db *DB) RecordEvent(runID string) func(hour int64, kind, description string) {
	return func(hour int64, kind, description string) {
		db.conn.Exec(
			"INSERT INTO events (run_id, hour, kind, description) VALUES (?, ?, ?, ?)",
			runID, hour, kind, description,
		)
	}
}

// RecentEvents returns the most recent N events of a run, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]Event, error) {
	var out []Event
	err := db.conn.Select(&out,
		"SELECT hour, kind, description FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return out, err
}

// BlackoutHours returns the archived hours in which a run blacked out.
func (db *DB) BlackoutHours(runID string) ([]int64, error) {
	var hours []int64
	err := db.conn.Select(&hours,
		"SELECT hour FROM power_reports WHERE run_id = ? AND blackout = 1 ORDER BY hour",
		runID,
	)
	return hours, err
}

// SaveMeta stores a key-value pair in archive metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}
