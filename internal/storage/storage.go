package storage

import (
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Named records in the store. The task collection lives under one key
// as a single JSON blob; the theme preference lives under its own key.
const (
	KeyTasks = "tasks"
	KeyTheme = "theme"
)

// Store is a local key-value store on a SQLite file: one row per named
// key, the value an opaque blob. Callers serialize; the store only
// moves bytes.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS records (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

// Load returns the blob stored under key. A missing key reports
// found=false with a nil error; first run is not a failure.
func (s *Store) Load(key string) (value []byte, found bool, err error) {
	row := s.db.QueryRow(`SELECT value FROM records WHERE key = ?;`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

// Save writes the blob under key, replacing any previous value.
func (s *Store) Save(key string, value []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`INSERT INTO records (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`, key, value, now)
	return err
}

// Delete removes the record under key. Deleting a missing key is a
// no-op.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM records WHERE key = ?;`, key)
	return err
}

// Keyed is the store narrowed to a single key, for collaborators that
// own exactly one record.
type Keyed struct {
	store *Store
	key   string
}

func (s *Store) Keyed(key string) *Keyed {
	return &Keyed{store: s, key: key}
}

func (k *Keyed) Load() ([]byte, bool, error) {
	return k.store.Load(k.key)
}

func (k *Keyed) Save(value []byte) error {
	return k.store.Save(k.key, value)
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
