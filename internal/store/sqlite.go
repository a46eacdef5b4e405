package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abelikov/skillsim/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite. Conversation messages are kept
// as a JSON column; sessions are small and read whole.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed session store.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		personality TEXT NOT NULL DEFAULT '',
		is_complete INTEGER NOT NULL DEFAULT 0,
		round_count INTEGER NOT NULL DEFAULT 0,
		start_time INTEGER NOT NULL,
		end_time INTEGER,
		messages_json TEXT NOT NULL DEFAULT '[]',
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Get retrieves a session, or (nil, nil) if it does not exist.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	query := `
		SELECT session_id, personality, is_complete, round_count,
		       start_time, end_time, messages_json
		FROM sessions WHERE session_id = ?`

	row := s.db.QueryRowContext(ctx, query, id)

	var sess domain.Session
	var isComplete int
	var startTime int64
	var endTime sql.NullInt64
	var messagesJSON string

	err := row.Scan(
		&sess.ID, &sess.Personality, &isComplete, &sess.RoundCount,
		&startTime, &endTime, &messagesJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	sess.IsComplete = isComplete != 0
	sess.StartTime = time.Unix(startTime, 0)
	if endTime.Valid {
		sess.EndTime = time.Unix(endTime.Int64, 0)
	}
	if err := json.Unmarshal([]byte(messagesJSON), &sess.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	return &sess, nil
}

// Save creates or updates a session record.
func (s *SQLiteStore) Save(ctx context.Context, session *domain.Session) error {
	messagesJSON, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	var endTime sql.NullInt64
	if !session.EndTime.IsZero() {
		endTime = sql.NullInt64{Int64: session.EndTime.Unix(), Valid: true}
	}
	isComplete := 0
	if session.IsComplete {
		isComplete = 1
	}

	query := `
		INSERT INTO sessions (session_id, personality, is_complete, round_count,
		                      start_time, end_time, messages_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			personality = excluded.personality,
			is_complete = excluded.is_complete,
			round_count = excluded.round_count,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			messages_json = excluded.messages_json,
			updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		session.ID, session.Personality, isComplete, session.RoundCount,
		session.StartTime.Unix(), endTime, string(messagesJSON), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Count returns the number of stored sessions.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
