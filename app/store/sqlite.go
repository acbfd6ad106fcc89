package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// SQLite implements Backend with a sqlite file. Several processes may open the same file,
// each one marks its writes with own writer id, so Watch can skip self-made changes.
type SQLite struct {
	db           *sqlx.DB
	id           string
	pollInterval time.Duration
}

type sqliteEntry struct {
	Key     string `db:"key"`
	Data    []byte `db:"data"`
	Version int64  `db:"version"`
	Writer  string `db:"writer"`
}

// NewSQLite opens (and creates if needed) sqlite store. pollInterval defines how often Watch checks for changes
func NewSQLite(dbPath string, pollInterval time.Duration) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable WAL mode for concurrent readers from other processes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		log.Printf("[WARN] can't set busy timeout, %v", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		version INTEGER NOT NULL,
		writer TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to create schema: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &SQLite{db: db, id: uuid.NewString(), pollInterval: pollInterval}, nil
}

// Load returns data for the key or ErrNotFound
func (s *SQLite) Load(key string) ([]byte, error) {
	var data []byte
	err := s.db.Get(&data, "SELECT data FROM entries WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return data, nil
}

// Save inserts or replaces the key
func (s *SQLite) Save(key string, data []byte) error {
	entry := sqliteEntry{Key: key, Data: data, Version: time.Now().UnixNano(), Writer: s.id}
	_, err := s.db.NamedExec(`INSERT INTO entries (key, data, version, writer) VALUES (:key, :data, :version, :writer)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, version = excluded.version, writer = excluded.writer`, entry)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Delete removes the key, missing key is not an error
func (s *SQLite) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Watch polls versions of the keys and calls fn for keys updated by another writer or removed.
// Changes are detected relative to the state at the moment Watch called.
func (s *SQLite) Watch(ctx context.Context, keys []string, fn func(key string)) error {
	watched := map[string]bool{}
	for _, k := range keys {
		watched[k] = true
	}

	last, err := s.versions()
	if err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				curr, err := s.versions()
				if err != nil {
					log.Printf("[WARN] can't check store changes, %v", err)
					continue
				}
				for key, e := range curr {
					prev, found := last[key]
					if watched[key] && e.Writer != s.id && (!found || prev.Version != e.Version) {
						fn(key)
					}
				}
				for key := range last {
					if _, found := curr[key]; !found && watched[key] {
						fn(key)
					}
				}
				last = curr
			}
		}
	}()
	return nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) versions() (map[string]sqliteEntry, error) {
	var rows []sqliteEntry
	if err := s.db.Select(&rows, "SELECT key, version, writer FROM entries"); err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	res := make(map[string]sqliteEntry, len(rows))
	for _, r := range rows {
		res[r.Key] = r
	}
	return res, nil
}
