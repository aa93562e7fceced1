package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// SQLiteStore keeps maps in a SQLite database. Title and timestamps are
// columns; nodes and edges are JSON documents.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; the driver serializes anyway.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS mindmaps (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		nodes JSON NOT NULL,
		edges JSON NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_mindmaps_created ON mindmaps(created_at, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Create(ctx context.Context, m *mindmap.MindMap) error {
	created := prepareCreate(*m)
	nodes, edges, err := encodeGraph(created)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mindmaps (id, title, nodes, edges, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, created.ID, created.Title, nodes, edges, created.CreatedAt.UnixNano(), created.UpdatedAt.UnixNano())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrExists
		}
		return fmt.Errorf("insert map: %w", err)
	}
	*m = created
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (mindmap.MindMap, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, nodes, edges, created_at, updated_at
		FROM mindmaps WHERE id = ?
	`, id)
	m, err := scanMap(row)
	if errors.Is(err, sql.ErrNoRows) {
		return mindmap.MindMap{}, ErrNotFound
	}
	return m, err
}

func (s *SQLiteStore) Update(ctx context.Context, m *mindmap.MindMap) error {
	prepareUpdate(m)
	nodes, edges, err := encodeGraph(*m)
	if err != nil {
		return err
	}
	var created int64
	err = s.db.QueryRowContext(ctx, `
		UPDATE mindmaps SET title = ?, nodes = ?, edges = ?, updated_at = ?
		WHERE id = ?
		RETURNING created_at
	`, m.Title, nodes, edges, m.UpdatedAt.UnixNano(), m.ID).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update map: %w", err)
	}
	m.CreatedAt = time.Unix(0, created).UTC()
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mindmaps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete map: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, skip, limit int) ([]mindmap.MindMap, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, nodes, edges, created_at, updated_at
		FROM mindmaps ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("query maps: %w", err)
	}
	defer rows.Close()

	out := []mindmap.MindMap{}
	for rows.Next() {
		m, err := scanMap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMap(row scanner) (mindmap.MindMap, error) {
	var (
		m                mindmap.MindMap
		nodes, edges     []byte
		created, updated int64
	)
	if err := row.Scan(&m.ID, &m.Title, &nodes, &edges, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, err
		}
		return m, fmt.Errorf("scan map: %w", err)
	}
	if err := json.Unmarshal(nodes, &m.Nodes); err != nil {
		return m, fmt.Errorf("unmarshal nodes of %s: %w", m.ID, err)
	}
	if err := json.Unmarshal(edges, &m.Edges); err != nil {
		return m, fmt.Errorf("unmarshal edges of %s: %w", m.ID, err)
	}
	m.CreatedAt = time.Unix(0, created).UTC()
	m.UpdatedAt = time.Unix(0, updated).UTC()
	return m, nil
}

func encodeGraph(m mindmap.MindMap) (nodes, edges []byte, err error) {
	if nodes, err = json.Marshal(m.Nodes); err != nil {
		return nil, nil, fmt.Errorf("marshal nodes: %w", err)
	}
	if edges, err = json.Marshal(m.Edges); err != nil {
		return nil, nil, fmt.Errorf("marshal edges: %w", err)
	}
	return nodes, edges, nil
}

var _ Store = (*SQLiteStore)(nil)
