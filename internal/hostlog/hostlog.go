// Package hostlog is the host-side event log. The controller core never
// persists anything; the host monitor decodes the serial event stream and
// records it here.
package hostlog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/OpBox/RandIntGoNoGoSwitch/internal/serial"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	subject     TEXT,
	started_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS box_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	label       TEXT NOT NULL,
	a           INTEGER,
	b           INTEGER,
	char_data   TEXT,
	received_at TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE INDEX IF NOT EXISTS idx_box_events_session
ON box_events(session_id, label);
`

// #endregion schema

// #region store

// Store manages the session event log in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region sessions

// BeginSession registers a new recording session and returns its ID.
func (s *Store) BeginSession(subject string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, subject, started_at) VALUES (?, ?, ?)`,
		id, subject, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("begin session: %w", err)
	}
	return id, nil
}

// #endregion sessions

// #region events

// Event is one logged box notification.
type Event struct {
	ID         int64
	SessionID  string
	Label      string
	A, B       int64
	CharData   string
	ReceivedAt time.Time
}

// LogPacket records one decoded packet against a session.
func (s *Store) LogPacket(sessionID string, p serial.Packet) error {
	var charPtr interface{}
	if len(p.Data) > 0 {
		charPtr = string(p.Data)
	}
	_, err := s.db.Exec(
		`INSERT INTO box_events (session_id, label, a, b, char_data, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, p.Label, p.A, p.B, charPtr,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log packet %s: %w", p.Label, err)
	}
	return nil
}

// ListEvents returns a session's most recent events, newest first.
func (s *Store) ListEvents(sessionID string, limit int) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, label, a, b, char_data, received_at
		 FROM box_events WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var charData sql.NullString
		var receivedStr string
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Label, &ev.A, &ev.B, &charData, &receivedStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if charData.Valid {
			ev.CharData = charData.String
		}
		ev.ReceivedAt, _ = time.Parse(time.RFC3339Nano, receivedStr)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// CountByLabel tallies a session's events per label.
func (s *Store) CountByLabel(sessionID string) (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT label, COUNT(*) FROM box_events WHERE session_id = ? GROUP BY label`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("count by label: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[label] = n
	}
	return counts, rows.Err()
}

// #endregion events
