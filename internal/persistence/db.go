// Package persistence provides SQLite-backed storage for save slots, run
// metadata, and per-day statistics history. The simulation produces opaque
// save blobs; this layer only stores and retrieves them.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNoSave is returned when a slot holds no save.
var ErrNoSave = errors.New("no save in slot")

// DB wraps a SQLite connection for game persistence.
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
	CREATE TABLE IF NOT EXISTS saves (
		slot INTEGER PRIMARY KEY,
		version INTEGER NOT NULL,
		blob TEXT NOT NULL,
		game_time INTEGER NOT NULL,
		day INTEGER NOT NULL,
		saved_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stats_history (
		day INTEGER PRIMARY KEY,
		quests_completed INTEGER NOT NULL,
		quests_failed INTEGER NOT NULL,
		events_total INTEGER NOT NULL,
		karma_good REAL NOT NULL,
		karma_evil REAL NOT NULL,
		karma_chaos REAL NOT NULL,
		karma_order REAL NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveSummary describes one occupied slot.
type SaveSummary struct {
	Slot     int       `db:"slot" json:"slot"`
	Version  int       `db:"version" json:"version"`
	GameTime int       `db:"game_time" json:"game_time"`
	Day      int       `db:"day" json:"day"`
	SavedAt  time.Time `db:"-" json:"saved_at"`
	SavedRaw string    `db:"saved_at" json:"-"`
}

// WriteSlot stores a save blob in a slot, replacing any previous save.
func (db *DB) WriteSlot(slot, version int, blob []byte, gameTime, day int) error {
	_, err := db.conn.Exec(`INSERT INTO saves (slot, version, blob, game_time, day, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			version = excluded.version,
			blob = excluded.blob,
			game_time = excluded.game_time,
			day = excluded.day,
			saved_at = excluded.saved_at`,
		slot, version, string(blob), gameTime, day, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write slot %d: %w", slot, err)
	}
	slog.Info("game saved", "slot", slot, "day", day, "game_time", gameTime)
	return nil
}

// ReadSlot returns the blob stored in a slot.
func (db *DB) ReadSlot(slot int) ([]byte, int, error) {
	var row struct {
		Version int    `db:"version"`
		Blob    string `db:"blob"`
	}
	err := db.conn.Get(&row, "SELECT version, blob FROM saves WHERE slot = ?", slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNoSave
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read slot %d: %w", slot, err)
	}
	return []byte(row.Blob), row.Version, nil
}

// ListSlots returns summaries of every occupied slot.
func (db *DB) ListSlots() ([]SaveSummary, error) {
	var rows []SaveSummary
	if err := db.conn.Select(&rows, "SELECT slot, version, game_time, day, saved_at FROM saves ORDER BY slot"); err != nil {
		return nil, err
	}
	for i := range rows {
		if ts, err := time.Parse(time.RFC3339, rows[i].SavedRaw); err == nil {
			rows[i].SavedAt = ts
		}
	}
	return rows, nil
}

// DeleteSlot removes a save.
func (db *DB) DeleteSlot(slot int) error {
	_, err := db.conn.Exec("DELETE FROM saves WHERE slot = ?", slot)
	return err
}

// SetMeta stores a metadata key.
func (db *DB) SetMeta(key, value string) error {
	_, err := db.conn.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// GetMeta reads a metadata key; missing keys return "".
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// DayStats is one row of the statistics history.
type DayStats struct {
	Day             int     `db:"day" json:"day"`
	QuestsCompleted int     `db:"quests_completed" json:"quests_completed"`
	QuestsFailed    int     `db:"quests_failed" json:"quests_failed"`
	EventsTotal     int     `db:"events_total" json:"events_total"`
	KarmaGood       float64 `db:"karma_good" json:"karma_good"`
	KarmaEvil       float64 `db:"karma_evil" json:"karma_evil"`
	KarmaChaos      float64 `db:"karma_chaos" json:"karma_chaos"`
	KarmaOrder      float64 `db:"karma_order" json:"karma_order"`
}

// RecordDayStats upserts the statistics row for a day.
func (db *DB) RecordDayStats(stats DayStats) error {
	_, err := db.conn.NamedExec(`INSERT INTO stats_history
		(day, quests_completed, quests_failed, events_total, karma_good, karma_evil, karma_chaos, karma_order)
		VALUES (:day, :quests_completed, :quests_failed, :events_total, :karma_good, :karma_evil, :karma_chaos, :karma_order)
		ON CONFLICT(day) DO UPDATE SET
			quests_completed = excluded.quests_completed,
			quests_failed = excluded.quests_failed,
			events_total = excluded.events_total,
			karma_good = excluded.karma_good,
			karma_evil = excluded.karma_evil,
			karma_chaos = excluded.karma_chaos,
			karma_order = excluded.karma_order`, stats)
	return err
}

// StatsHistory returns up to limit most recent daily stats rows.
func (db *DB) StatsHistory(limit int) ([]DayStats, error) {
	if limit <= 0 {
		limit = 30
	}
	var rows []DayStats
	err := db.conn.Select(&rows, "SELECT * FROM stats_history ORDER BY day DESC LIMIT ?", limit)
	return rows, err
}
