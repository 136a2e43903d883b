package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const currentSchemaVersion = 2

// DefaultPollInterval is how often SQLite listeners look for foreign writes.
const DefaultPollInterval = 2 * time.Second

// SQLite implements Store on a local SQLite database. Listeners poll a
// per-collection revision counter and are woken immediately by local writes.
type SQLite struct {
	db           *sql.DB
	path         string
	pollInterval time.Duration

	mu      sync.Mutex
	wakers  map[int]chan struct{}
	nextSub int
	wg      sync.WaitGroup
}

// SQLiteParams holds parameters for opening a SQLite store.
type SQLiteParams struct {
	Path         string
	PollInterval time.Duration // optional, DefaultPollInterval if zero
}

// NewSQLite opens (and migrates) the database at params.Path.
func NewSQLite(params SQLiteParams) (*SQLite, error) {
	// Ensure directory exists
	dir := filepath.Dir(params.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", params.Path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	interval := params.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	s := &SQLite{
		db:           db,
		path:         params.Path,
		pollInterval: interval,
		wakers:       make(map[int]chan struct{}),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

// Close stops listeners and closes the database connection.
func (s *SQLite) Close() error {
	s.mu.Lock()
	for id, w := range s.wakers {
		close(w)
		delete(s.wakers, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
	return s.db.Close()
}

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}

	return nil
}

// migrateV1 creates the documents table.
func (s *SQLite) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY NOT NULL,
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data TEXT NOT NULL DEFAULT '{}',
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, id);

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// migrateV2 adds per-collection revisions for change polling.
func (s *SQLite) migrateV2() error {
	migration := `
		CREATE TABLE IF NOT EXISTS revisions (
			collection TEXT PRIMARY KEY NOT NULL,
			value INTEGER NOT NULL DEFAULT 0
		);
		UPDATE schema_version SET version = 2;
	`
	_, err := s.db.Exec(migration)
	return err
}

// List implements Store.
func (s *SQLite) List(ctx context.Context, collection string) ([]Document, error) {
	return s.Query(ctx, collection, Query{})
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, path string) (*Document, error) {
	_, id, err := Split(path)
	if err != nil {
		return nil, err
	}

	var dataJSON string
	err = s.db.QueryRowContext(ctx, "SELECT data FROM documents WHERE path = ?", path).Scan(&dataJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := decodeData(dataJSON)
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Path: path, Data: data}, nil
}

// Query implements Store.
func (s *SQLite) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if !ValidCollection(collection) {
		return nil, ErrInvalidPath
	}

	stmt := "SELECT id, path, data FROM documents WHERE collection = ?"
	args := []any{collection}
	order := " ORDER BY id"
	if q.Field != "" {
		field := `$."` + q.Field + `"`
		stmt += " AND json_type(data, ?) IN ('integer', 'real') AND json_extract(data, ?) >= ?"
		args = append(args, field, field, q.Min)
		if q.Descending {
			order = " ORDER BY json_extract(data, ?) DESC, id"
			args = append(args, field)
		}
	}
	limit := -1
	if q.Limit > 0 {
		limit = q.Limit
	}
	stmt += order + " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		var dataJSON string
		if err := rows.Scan(&d.ID, &d.Path, &dataJSON); err != nil {
			return nil, err
		}
		if d.Data, err = decodeData(dataJSON); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// Set implements Store.
func (s *SQLite) Set(ctx context.Context, path string, data map[string]any, merge bool) error {
	collection, id, err := Split(path)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	final := data
	if merge {
		var existingJSON string
		err := tx.QueryRowContext(ctx, "SELECT data FROM documents WHERE path = ?", path).Scan(&existingJSON)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return err
		default:
			existing, err := decodeData(existingJSON)
			if err != nil {
				return err
			}
			for k, v := range data {
				existing[k] = v
			}
			final = existing
		}
	}

	dataJSON, err := json.Marshal(final)
	if err != nil {
		return err
	}
	if final == nil {
		dataJSON = []byte("{}")
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (path, collection, id, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, path, collection, id, string(dataJSON), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	if err := bumpRevision(ctx, tx, collection); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.wake()
	return nil
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, path string) error {
	collection, _, err := Split(path)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE path = ?", path)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	if err := bumpRevision(ctx, tx, collection); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.wake()
	return nil
}

func bumpRevision(ctx context.Context, tx *sql.Tx, collection string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO revisions (collection, value) VALUES (?, 1)
		ON CONFLICT(collection) DO UPDATE SET value = value + 1
	`, collection)
	return err
}

func (s *SQLite) revision(ctx context.Context, collection string) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, "SELECT value FROM revisions WHERE collection = ?", collection).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return rev, err
}

// Subscribe implements Store.
func (s *SQLite) Subscribe(ctx context.Context, collection string, onChange func([]Document), onError func(error)) (Unsubscribe, error) {
	if !ValidCollection(collection) {
		return nil, ErrInvalidPath
	}

	ctx, cancel := context.WithCancel(ctx)
	wake := make(chan struct{}, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.wakers[id] = wake
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.watch(ctx, collection, wake, onChange, onError)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			s.mu.Lock()
			if w, ok := s.wakers[id]; ok {
				close(w)
				delete(s.wakers, id)
			}
			s.mu.Unlock()
		})
	}, nil
}

// watch delivers a listing whenever collection's revision moves.
func (s *SQLite) watch(ctx context.Context, collection string, wake <-chan struct{}, onChange func([]Document), onError func(error)) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	last := int64(-1)
	for {
		rev, err := s.revision(ctx, collection)
		if err == nil && rev != last {
			var docs []Document
			docs, err = s.List(ctx, collection)
			if err == nil {
				last = rev
				if ctx.Err() != nil {
					return
				}
				onChange(docs)
			}
		}
		if err != nil {
			if ctx.Err() == nil && onError != nil {
				onError(err)
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case _, ok := <-wake:
			if !ok {
				return
			}
		case <-ticker.C:
		}
	}
}

// wake nudges every listener after a local write.
func (s *SQLite) wake() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wakers {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}

func decodeData(dataJSON string) (map[string]any, error) {
	data := map[string]any{}
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		return nil, err
	}
	return data, nil
}

// DefaultSQLitePath returns the default database path: ~/.config/aidir/catalog.db
func DefaultSQLitePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "aidir", "catalog.db"), nil
}
