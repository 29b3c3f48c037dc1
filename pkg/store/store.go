// Package store persists named kerf scripts together with the measurements
// taken when they were last evaluated. It uses SQLite through database/sql.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrNotFound is returned when no model has the requested ID.
var ErrNotFound = errors.New("store: model not found")

// Model is a saved script and its evaluation summary.
type Model struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Parts     int       `json:"parts"`
	Triangles int       `json:"triangles"`
	Volume    float64   `json:"volume"`
	CreatedAt time.Time `json:"createdAt"`
}

const schema = `
CREATE TABLE IF NOT EXISTS models (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    source     TEXT NOT NULL,
    parts      INTEGER NOT NULL,
    triangles  INTEGER NOT NULL,
    volume     REAL NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS models_created_at ON models (created_at);
`

// timeFormat sorts lexically in time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save inserts m, assigning its ID and CreatedAt.
func (s *Store) Save(ctx context.Context, m *Model) error {
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO models (id, name, source, parts, triangles, volume, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, m.ID, m.Name, m.Source, m.Parts, m.Triangles, m.Volume, m.CreatedAt.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("store: save %q: %w", m.Name, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Model, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, name, source, parts, triangles, volume, created_at
        FROM models
        WHERE id = ?
    `, id)

	m, err := scanModel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	return m, nil
}

// List returns every model, oldest first. Sources are omitted.
func (s *Store) List(ctx context.Context) ([]Model, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, name, '', parts, triangles, volume, created_at
        FROM models
        ORDER BY created_at, rowid
    `)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	models := []Model{}
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		models = append(models, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return models, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanModel(sc scanner) (*Model, error) {
	var (
		m       Model
		created string
	)
	if err := sc.Scan(&m.ID, &m.Name, &m.Source, &m.Parts, &m.Triangles, &m.Volume, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeFormat, created)
	if err != nil {
		return nil, fmt.Errorf("created_at %q: %w", created, err)
	}
	m.CreatedAt = t
	return &m, nil
}
