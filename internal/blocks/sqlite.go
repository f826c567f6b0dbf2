package blocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS blocks (
	id TEXT PRIMARY KEY,
	type TEXT DEFAULT 'text',
	content TEXT DEFAULT '',
	position REAL DEFAULT 0.0,
	props TEXT DEFAULT '{}',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteStore keeps blocks in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("document path not configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("preparing database: %w", err)
		}
	}

	log.Debug("database opened", "path", path)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Block, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, content, position, props, updated_at FROM blocks ORDER BY position, created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing blocks: %w", err)
	}
	defer rows.Close()

	var out []Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Block, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, content, position, props, updated_at FROM blocks WHERE id = ?`, id)
	b, err := scanBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Block{}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return b, err
}

func (s *SQLiteStore) Add(ctx context.Context, content string, props Props) (Block, error) {
	raw, err := json.Marshal(props)
	if err != nil {
		return Block{}, fmt.Errorf("encoding props: %w", err)
	}

	var pos float64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM blocks`).Scan(&pos); err != nil {
		return Block{}, fmt.Errorf("computing position: %w", err)
	}

	now := time.Now().UTC()
	b := Block{
		ID:        uuid.NewString(),
		Type:      "text",
		Content:   content,
		Props:     props,
		Position:  pos,
		UpdatedAt: now,
	}

	stamp := now.Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO blocks (id, type, content, position, props, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Type, b.Content, b.Position, string(raw), stamp, stamp,
	); err != nil {
		return Block{}, fmt.Errorf("inserting block: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) SetProps(ctx context.Context, id string, props Props) error {
	raw, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encoding props: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE blocks SET props = ?, updated_at = ? WHERE id = ?`,
		string(raw), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("updating block: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBlock(row scanner) (Block, error) {
	var (
		b       Block
		props   string
		updated string
	)
	if err := row.Scan(&b.ID, &b.Type, &b.Content, &b.Position, &props, &updated); err != nil {
		return Block{}, err
	}

	// Rows written by older tools may carry an empty or invalid props column.
	if props != "" {
		if err := json.Unmarshal([]byte(props), &b.Props); err != nil {
			log.Warn("ignoring invalid block props", "id", b.ID, "error", err)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		b.UpdatedAt = t
	}
	return b, nil
}
