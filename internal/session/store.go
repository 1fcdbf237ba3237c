package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SlotKey is the key-value slot holding the session list.
const SlotKey = "meetnotes_sessions"

// ClearPrompt is the question shown before the history is wiped.
const ClearPrompt = "Delete all recorded sessions? This cannot be undone."

const schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updatedAt REAL NOT NULL
	);
`

// Store provides the session list backed by one SQLite key-value slot.
type Store struct {
	db     *sql.DB
	logger *zap.Logger

	mu       sync.Mutex
	sessions []Session
	loaded   bool
}

// Open opens or creates the database and its table.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s, err := newStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newStore(db *sql.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the persisted list. A missing or unreadable slot yields an
// empty history.
func (s *Store) Load(ctx context.Context) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}
	return s.copyLocked(), nil
}

// loadLocked refreshes the list from the slot. Caller holds mu.
func (s *Store) loadLocked(ctx context.Context) error {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, SlotKey).Scan(&raw)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read sessions: %w", err)
	}

	var list []Session
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			s.logger.Warn("discarding malformed session history", zap.Error(err))
			list = nil
		}
	}
	s.sessions = list
	s.loaded = true
	return nil
}

// Append puts sess at the front of the list and rewrites the slot. The
// persisted list is read first if this store has not loaded it yet.
func (s *Store) Append(ctx context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if err := s.loadLocked(ctx); err != nil {
			return fmt.Errorf("append session: %w", err)
		}
	}

	next := make([]Session, 0, len(s.sessions)+1)
	next = append(next, sess.clone())
	next = append(next, s.sessions...)

	if err := s.write(ctx, next); err != nil {
		return err
	}
	s.sessions = next
	s.logger.Info("session stored", zap.String("id", sess.ID), zap.Int("total", len(next)))
	return nil
}

// Clear wipes the history when confirm accepts ClearPrompt. It reports
// whether anything was cleared.
func (s *Store) Clear(ctx context.Context, confirm func(prompt string) bool) (bool, error) {
	if confirm == nil || !confirm(ClearPrompt) {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, SlotKey); err != nil {
		return false, fmt.Errorf("clear sessions: %w", err)
	}
	s.sessions = nil
	s.loaded = true
	s.logger.Info("session history cleared")
	return true, nil
}

// Confirmed interprets a typed yes/no answer.
func Confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// Sessions returns a copy of the list, newest first.
func (s *Store) Sessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() []Session {
	out := make([]Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.clone()
	}
	return out
}

// Get returns the session with the given id.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess.clone(), true
		}
	}
	return Session{}, false
}

func (s *Store) write(ctx context.Context, list []Session) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updatedAt) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = excluded.updatedAt
	`, SlotKey, string(data), float64(time.Now().UnixNano())/1e9)
	if err != nil {
		return fmt.Errorf("write sessions: %w", err)
	}
	return nil
}
