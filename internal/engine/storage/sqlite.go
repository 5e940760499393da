package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one cached dataset download.
type Entry struct {
	URL       string
	Body      []byte
	FetchedAt time.Time
}

// Store caches downloaded catalog and boundary datasets keyed by URL.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		url TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		size INTEGER NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_datasets_fetched_at ON datasets(fetched_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Get returns the cached entry for url. ok is false on a miss.
func (s *Store) Get(url string) (entry Entry, ok bool, err error) {
	var fetched int64
	row := s.db.QueryRow(`SELECT url, body, fetched_at FROM datasets WHERE url = ?`, url)
	if err := row.Scan(&entry.URL, &entry.Body, &fetched); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("reading %s: %w", url, err)
	}
	entry.FetchedAt = time.Unix(fetched, 0)
	return entry, true, nil
}

// Put stores or replaces the body for url.
func (s *Store) Put(url string, body []byte, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO datasets (url, body, size, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET body = excluded.body, size = excluded.size, fetched_at = excluded.fetched_at
	`, url, body, len(body), fetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("storing %s: %w", url, err)
	}
	return nil
}

// PurgeOlderThan removes entries fetched before cutoff and returns how many went.
func (s *Store) PurgeOlderThan(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM datasets WHERE fetched_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM datasets").Scan(&count)
	return count, err
}

func (s *Store) Close() error {
	return s.db.Close()
}
