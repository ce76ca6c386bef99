// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides contact/message persistence with automatic schema creation

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// timestampLayout is a fixed-width UTC layout so stored timestamps
// compare correctly both lexically (in SQL) and after parsing.
const timestampLayout = "2006-01-02 15:04:05.000000000"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	// mu serializes message appends. Timestamps are assigned at commit
	// time and must be strictly increasing per phone number even when
	// two appends land within the same clock tick; holding the lock
	// across the insert keeps ID order and timestamp order in agreement.
	mu        sync.Mutex
	lastStamp map[string]time.Time
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Wait out writer contention instead of failing with SQLITE_BUSY
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{
		db:        db,
		logger:    logger,
		lastStamp: make(map[string]time.Time),
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS contacts (
			id           TEXT PRIMARY KEY,
			phone_number TEXT NOT NULL UNIQUE,
			name         TEXT,
			relationship TEXT NOT NULL DEFAULT 'unknown',
			trust_level  INTEGER NOT NULL DEFAULT 0,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL,

			CHECK (relationship IN ('family', 'friend', 'work', 'unknown')),
			CHECK (trust_level BETWEEN 0 AND 3)
		);

		CREATE TABLE IF NOT EXISTS messages (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			contact_id    TEXT NOT NULL,
			phone_number  TEXT NOT NULL,
			message_text  TEXT NOT NULL,
			direction     TEXT NOT NULL,
			timestamp     TEXT NOT NULL,
			is_auto_reply INTEGER NOT NULL DEFAULT 0,

			FOREIGN KEY (contact_id) REFERENCES contacts(id),
			CHECK (direction IN ('incoming', 'outgoing'))
		);

		CREATE INDEX IF NOT EXISTS idx_messages_phone
			ON messages(phone_number, id);

		CREATE INDEX IF NOT EXISTS idx_messages_auto_reply
			ON messages(is_auto_reply);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// lastStampSweepSize caps the collision table before stale entries are
// swept out. Only entries at or ahead of the wall clock can still force
// a bump, so anything behind it is safe to drop.
const lastStampSweepSize = 1024

// nextTimestamp returns a commit-order timestamp for the given phone
// number, strictly after every timestamp previously handed out for it.
// Must be called with mu held so timestamp order matches insert order.
func (s *SQLiteStore) nextTimestamp(phoneNumber string) time.Time {
	now := time.Now().UTC()

	if len(s.lastStamp) > lastStampSweepSize {
		for phone, stamp := range s.lastStamp {
			if stamp.Before(now) {
				delete(s.lastStamp, phone)
			}
		}
	}

	if last, ok := s.lastStamp[phoneNumber]; ok && !now.After(last) {
		now = last.Add(time.Microsecond)
	}
	s.lastStamp[phoneNumber] = now
	return now
}

// Close closes the underlying database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
