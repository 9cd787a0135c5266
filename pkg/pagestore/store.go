// Package pagestore keeps saved coloring pages in SQLite so a later run can
// pick up where the previous one stopped.
package pagestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register "sqlite" driver
)

// ErrNotFound is returned when no page matches the lookup.
var ErrNotFound = errors.New("page not found")

// Schema for the pages table. Open applies it through Init.
const Schema = `
CREATE TABLE IF NOT EXISTS pages (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	png BLOB NOT NULL,
	history BLOB,
	updated INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pages_source ON pages(source, updated);
`

// Page is one saved coloring page: the last exported image plus the encoded
// undo list that produced it.
type Page struct {
	ID      string
	Source  string
	Width   int
	Height  int
	PNG     []byte
	History []byte
	Updated time.Time
}

// Store persists pages in a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies Schema.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("pagestore: open %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases shared and avoids
	// SQLITE_BUSY between our own writers
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pagestore: %s: %w", p, err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pagestore: init schema: %w", err)
	}
	return s, nil
}

// Init creates the pages table if it doesn't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces p. An empty ID gets a fresh UUID. Updated is
// stamped with the current time. The stored page is returned.
func (s *Store) Save(ctx context.Context, p Page) (Page, error) {
	if p.Source == "" {
		return Page{}, errors.New("pagestore: page has no source")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Updated = s.now().UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO pages (id, source, width, height, png, history, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			width = excluded.width,
			height = excluded.height,
			png = excluded.png,
			history = excluded.history,
			updated = excluded.updated`,
		p.ID, p.Source, p.Width, p.Height, p.PNG, p.History, p.Updated.UnixNano())
	if err != nil {
		return Page{}, fmt.Errorf("pagestore: save %s: %w", p.ID, err)
	}
	return p, nil
}

const selectPage = `SELECT id, source, width, height, png, history, updated FROM pages`

// Get returns the page with the given id.
func (s *Store) Get(ctx context.Context, id string) (Page, error) {
	row := s.db.QueryRowContext(ctx, selectPage+` WHERE id = ?`, id)
	p, err := scanPage(row)
	if err != nil {
		return Page{}, fmt.Errorf("pagestore: get %s: %w", id, err)
	}
	return p, nil
}

// LatestForSource returns the most recently saved page for a source image.
func (s *Store) LatestForSource(ctx context.Context, source string) (Page, error) {
	row := s.db.QueryRowContext(ctx, selectPage+` WHERE source = ? ORDER BY updated DESC, rowid DESC LIMIT 1`, source)
	p, err := scanPage(row)
	if err != nil {
		return Page{}, fmt.Errorf("pagestore: latest for %s: %w", source, err)
	}
	return p, nil
}

// List returns every page without image or history payloads, newest first.
func (s *Store) List(ctx context.Context) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, source, width, height, updated FROM pages ORDER BY updated DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("pagestore: list: %w", err)
	}
	defer rows.Close()

	var out []Page
	for rows.Next() {
		var p Page
		var updated int64
		if err := rows.Scan(&p.ID, &p.Source, &p.Width, &p.Height, &updated); err != nil {
			return nil, fmt.Errorf("pagestore: list: %w", err)
		}
		p.Updated = time.Unix(0, updated).UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pagestore: list: %w", err)
	}
	return out, nil
}

// Delete removes the page with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("pagestore: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pagestore: delete %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("pagestore: delete %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanPage(row *sql.Row) (Page, error) {
	var p Page
	var updated int64
	err := row.Scan(&p.ID, &p.Source, &p.Width, &p.Height, &p.PNG, &p.History, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, ErrNotFound
	}
	if err != nil {
		return Page{}, err
	}
	p.Updated = time.Unix(0, updated).UTC()
	return p, nil
}
